package pipeline

import (
	"sort"
	"strings"
)

// ValidationError reports invalid input, keyed by field name.
type ValidationError struct {
	Errors map[string][]string `json:"errors"`
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Errors: map[string][]string{field: {msg}}}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Errors[f], ", "))
	}
	return "pipeline: invalid input: " + strings.Join(parts, "; ")
}
