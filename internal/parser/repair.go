package parser

import (
	"regexp"
	"strings"
)

var (
	smartQuotes   = strings.NewReplacer("“", `"`, "”", `"`, "„", `"`, "″", `"`)
	doubledQuotes = regexp.MustCompile(`""([^"\s,:{}\[\]][^"]*?)""`)
	keyColon      = regexp.MustCompile(`"\s+:\s*`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	danglingKey   = regexp.MustCompile(`([{,])\s*"(?:[^"\\]|\\.)*"\s*:?\s*$`)
)

// Repair applies the light fixes that recover the malformed JSON shapes
// models produce: typographic quotes, doubled quotes around keys or values,
// space before key colons, trailing commas and truncation.
func Repair(s string) string {
	s = smartQuotes.Replace(s)
	s = doubledQuotes.ReplaceAllString(s, `"$1"`)
	s = keyColon.ReplaceAllString(s, `": `)
	s = balance(s)
	s = trailingComma.ReplaceAllString(s, "$1")
	return s
}

// balance closes an unterminated string and any open objects or arrays.
func balance(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return s
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		if escaped {
			b.WriteByte('\\')
		}
		b.WriteByte('"')
	}
	out := strings.TrimRight(b.String(), " ")
	if len(stack) > 0 && stack[len(stack)-1] == '{' {
		out = danglingKey.ReplaceAllString(out, "$1")
	}
	out = strings.TrimRight(out, " ,")
	b.Reset()
	b.WriteString(out)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
