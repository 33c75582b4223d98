// Package parser turns raw LLM output into an AnalysisResult.
//
// Parse is total: any input, including empty or truncated text, yields a
// fully populated result. Model output is decoded as JSON when possible,
// lightly repaired when not, and otherwise used verbatim as free text.
package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

// Placeholders used when the model omits a field.
const (
	NoExplanation = "Tidak ada penjelasan tersedia"
	NoAnalysis    = "Tidak ada analisis tersedia"
	Undetermined  = "Tidak dapat menganalisis klaim ini dengan pasti."
)

const (
	maxExplanationRunes = 200
	maxAnalysisRunes    = 500
)

var (
	fenceOpen   = regexp.MustCompile("```[a-zA-Z]*")
	boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italPattern = regexp.MustCompile(`\*(.*?)\*`)
	spaces      = regexp.MustCompile(`\s+`)
	sentenceEnd = regexp.MustCompile(`[.!?]+`)
)

var (
	explanationKeys = []string{"explanation", "summary", "penjelasan", "kesimpulan", "ringkasan"}
	analysisKeys    = []string{"analysis", "detailed_analysis", "analisis", "analisis_detail", "detail"}
	sourcesUsedKeys = []string{"sources_used", "sources", "sumber_digunakan"}
	stanceListKeys  = []string{"source_stances", "stances", "source_analysis", "per_source", "sumber"}
)

// Parse converts raw model text into an AnalysisResult. It never fails.
func Parse(raw string) model.AnalysisResult {
	clean := Clean(raw)

	if obj, ok := decode(clean); ok {
		return fromObject(obj)
	}
	return fromText(clean)
}

// Clean strips markdown fences and emphasis and collapses whitespace.
func Clean(text string) string {
	text = fenceOpen.ReplaceAllString(text, " ")
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italPattern.ReplaceAllString(text, "$1")
	text = spaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// decode extracts the outermost JSON object candidate and decodes it,
// repairing it once on failure.
func decode(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return nil, false
	}
	candidate := text[start:]
	if end := strings.LastIndex(text, "}"); end > start {
		candidate = text[start : end+1]
	}

	if obj, ok := unmarshalObject(candidate); ok {
		return obj, true
	}
	return unmarshalObject(Repair(candidate))
}

func unmarshalObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func fromObject(obj map[string]any) model.AnalysisResult {
	res := model.AnalysisResult{
		Success:          true,
		Explanation:      firstString(obj, explanationKeys, NoExplanation),
		DetailedAnalysis: firstString(obj, analysisKeys, NoAnalysis),
		SourcesUsed:      stringList(firstValue(obj, sourcesUsedKeys)),
		SourceStances:    stanceList(firstValue(obj, stanceListKeys)),
	}
	res.Explanation = FormatSocialMedia(res.Explanation)
	res.DetailedAnalysis = FormatSocialMedia(res.DetailedAnalysis)
	return res
}

func fromText(text string) model.AnalysisResult {
	res := model.AnalysisResult{
		Success:          true,
		Explanation:      Undetermined,
		DetailedAnalysis: NoAnalysis,
		SourcesUsed:      []string{},
		SourceStances:    []model.SourceStance{},
		Degraded:         true,
	}
	if text == "" {
		return res
	}

	first := strings.TrimSpace(sentenceEnd.Split(text, 2)[0])
	if first == "" {
		first = text
	}
	res.Explanation = FormatSocialMedia(truncate(first, maxExplanationRunes))
	res.DetailedAnalysis = FormatSocialMedia(truncate(text, maxAnalysisRunes))
	return res
}

func firstValue(obj map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(obj map[string]any, keys []string, fallback string) string {
	for _, k := range keys {
		if s := asString(obj[k]); s != "" {
			return s
		}
	}
	return fallback
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func stringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func stanceList(v any) []model.SourceStance {
	out := []model.SourceStance{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		s := model.SourceStance{
			SourceIndex: asInt(firstValue(m, []string{"source_index", "index", "source_number", "nomor"})),
			URL:         firstString(m, []string{"url", "link"}, ""),
			Domain:      firstString(m, []string{"domain", "display_link", "displayLink"}, ""),
			Stance:      NormalizeStance(firstString(m, []string{"stance", "position", "posisi", "sikap"}, "")),
			Reasoning:   firstString(m, []string{"reasoning", "reason", "alasan", "explanation"}, ""),
			Quote:       firstString(m, []string{"quote", "kutipan", "evidence"}, ""),
		}
		// "source" is either the index or the domain depending on the model.
		if src, ok := m["source"]; ok {
			switch t := src.(type) {
			case float64:
				if s.SourceIndex == 0 {
					s.SourceIndex = int(t)
				}
			case string:
				if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
					if s.SourceIndex == 0 {
						s.SourceIndex = n
					}
				} else if s.Domain == "" {
					s.Domain = strings.TrimSpace(t)
				}
			}
		}
		out = append(out, s)
	}
	return out
}

// NormalizeStance maps the stance vocabulary models actually emit onto the
// three known stances. Unknown values become NEUTRAL.
func NormalizeStance(s string) model.Stance {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUPPORT", "SUPPORTS", "SUPPORTING", "SUPPORTED", "AGREE", "CONFIRMS", "MENDUKUNG", "DIDUKUNG", "DIDUKUNG_DATA":
		return model.StanceSupport
	case "OPPOSE", "OPPOSES", "OPPOSING", "REFUTE", "REFUTES", "CONTRADICT", "CONTRADICTS", "DISAGREE",
		"MEMBANTAH", "MENOLAK", "BERTENTANGAN", "TIDAK_DIDUKUNG_DATA":
		return model.StanceOppose
	default:
		return model.StanceNeutral
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max])) + "..."
}
