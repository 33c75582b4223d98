package model

// VerdictLabel is the final classification of a claim.
type VerdictLabel string

const (
	LabelFact         VerdictLabel = "FAKTA"
	LabelHoax         VerdictLabel = "HOAX"
	LabelUndetermined VerdictLabel = "RAGU-RAGU"
)

// VerdictAggregate is the stance tally and the label derived from it.
type VerdictAggregate struct {
	Label             VerdictLabel `json:"label"`
	Score             float64      `json:"score"`
	SupportingSources int          `json:"supporting_sources"`
	OpposingSources   int          `json:"opposing_sources"`
	NeutralSources    int          `json:"neutral_sources"`
	TotalSources      int          `json:"total_sources"`
}

// AnalysisResult is the fact-check outcome returned to the caller.
type AnalysisResult struct {
	Success          bool             `json:"success"`
	Claim            string           `json:"claim"`
	Explanation      string           `json:"explanation"`
	DetailedAnalysis string           `json:"detailed_analysis"`
	SourcesUsed      []string         `json:"sources_used"`
	Verdict          VerdictAggregate `json:"verdict"`
	SourceStances    []SourceStance   `json:"source_stances"`
	Degraded         bool             `json:"degraded,omitempty"`
	Error            *string          `json:"error"`
}

// SetError records a caller-visible error message and marks the analysis unsuccessful.
func (a *AnalysisResult) SetError(msg string) {
	a.Success = false
	a.Error = &msg
}

// CheckResponse is the body returned by the search endpoint.
type CheckResponse struct {
	Query       string         `json:"query"`
	Results     []SourceResult `json:"results"`
	Analysis    AnalysisResult `json:"analysis"`
	SearchError string         `json:"search_error,omitempty"`
}
