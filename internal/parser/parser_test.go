package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

const wellFormed = `{"explanation":"Klaim ini dibantah oleh sumber kesehatan.","analysis":"Menurut who.int tidak ada hubungan antara vaksin dan autisme.","sources_used":["who.int","cdc.gov"],"source_stances":[{"source_index":1,"stance":"OPPOSE","reasoning":"WHO membantah","quote":"no link"},{"source_index":2,"stance":"OPPOSE","reasoning":"CDC membantah"},{"source_index":3,"stance":"NEUTRAL","reasoning":"tidak relevan"}]}`

func TestParse_WellFormed(t *testing.T) {
	t.Parallel()

	res := Parse(wellFormed)
	assert.True(t, res.Success)
	assert.False(t, res.Degraded)
	assert.Equal(t, "Klaim ini dibantah oleh sumber kesehatan.", res.Explanation)
	assert.Contains(t, res.DetailedAnalysis, "who.int")
	assert.Equal(t, []string{"who.int", "cdc.gov"}, res.SourcesUsed)
	require.Len(t, res.SourceStances, 3)
	assert.Equal(t, 1, res.SourceStances[0].SourceIndex)
	assert.Equal(t, model.StanceOppose, res.SourceStances[0].Stance)
	assert.Equal(t, "no link", res.SourceStances[0].Quote)
	assert.Equal(t, model.StanceNeutral, res.SourceStances[2].Stance)
}

func TestParse_EmbeddedEqualsBare(t *testing.T) {
	t.Parallel()

	want := Parse(wellFormed)

	wrappers := map[string]string{
		"json fence":        "```json\n" + wellFormed + "\n```",
		"bare fence":        "```\n" + wellFormed + "\n```",
		"prose around":      "Berikut hasil analisis saya:\n" + wellFormed + "\nSemoga membantu.",
		"fence and prose":   "Tentu!\n```json\n" + wellFormed + "\n```\nAda pertanyaan lain?",
		"trailing fence":    wellFormed + "\n```",
		"leading whitespace": "\n\n\t  " + wellFormed,
	}

	for name, input := range wrappers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, Parse(input))
		})
	}
}

func TestParse_MalformedShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		input           string
		wantExplanation string
		wantAnalysis    string
		wantStances     int
		wantDegraded    bool
	}{
		{
			name:            "doubled quotes",
			input:           `{""explanation"": ""Klaim benar"", ""analysis"": ""Didukung kompas.com""}`,
			wantExplanation: "Klaim benar",
			wantAnalysis:    "Didukung kompas.com",
		},
		{
			name:            "space before colon",
			input:           `{"explanation" : "Klaim benar", "analysis"   :"Detail"}`,
			wantExplanation: "Klaim benar",
			wantAnalysis:    "Detail",
		},
		{
			name:            "trailing commas",
			input:           `{"explanation":"Klaim benar","source_stances":[{"source_index":1,"stance":"SUPPORT"},],}`,
			wantExplanation: "Klaim benar",
			wantAnalysis:    NoAnalysis,
			wantStances:     1,
		},
		{
			name:            "smart quotes",
			input:           `{“explanation”: “Klaim keliru”, “analysis”: “Dibantah”}`,
			wantExplanation: "Klaim keliru",
			wantAnalysis:    "Dibantah",
		},
		{
			name:            "truncated inside stance list",
			input:           `{"explanation":"Klaim keliru","analysis":"Detail","source_stances":[{"source_index":1,"stance":"OPPOSE"},{"source_index":2,"stan`,
			wantExplanation: "Klaim keliru",
			wantAnalysis:    "Detail",
			wantStances:     1,
		},
		{
			name:            "truncated inside value",
			input:           `{"explanation":"Klaim ini belum dapat dipastik`,
			wantExplanation: "Klaim ini belum dapat dipastik",
			wantAnalysis:    NoAnalysis,
		},
		{
			name:            "truncated after key",
			input:           `{"explanation":"Klaim keliru","analysis":`,
			wantExplanation: "Klaim keliru",
			wantAnalysis:    NoAnalysis,
		},
		{
			name:            "truncated mid key",
			input:           `{"explanation":"Klaim keliru","anal`,
			wantExplanation: "Klaim keliru",
			wantAnalysis:    NoAnalysis,
		},
		{
			name:            "naming drift",
			input:           `{"summary":"Ringkasan","detailed_analysis":"Analisis rinci","stances":[{"source":"2","position":"membantah","reason":"x"}]}`,
			wantExplanation: "Ringkasan",
			wantAnalysis:    "Analisis rinci",
			wantStances:     1,
		},
		{
			name:            "markdown emphasis inside values",
			input:           `**Hasil:** {"explanation":"Klaim **tidak** benar","analysis":"*Dibantah* oleh data"}`,
			wantExplanation: "Klaim tidak benar",
			wantAnalysis:    "Dibantah oleh data",
		},
		{
			name:            "empty object",
			input:           `{}`,
			wantExplanation: NoExplanation,
			wantAnalysis:    NoAnalysis,
		},
		{
			name:            "plain prose",
			input:           "Klaim ini kemungkinan besar keliru. Tidak ada sumber yang mendukung.",
			wantExplanation: "Klaim ini kemungkinan besar keliru",
			wantAnalysis:    "Klaim ini kemungkinan besar keliru. Tidak ada sumber yang mendukung.",
			wantDegraded:    true,
		},
		{
			name:            "empty string",
			input:           "",
			wantExplanation: Undetermined,
			wantAnalysis:    NoAnalysis,
			wantDegraded:    true,
		},
		{
			name:            "whitespace only",
			input:           " \n\t ",
			wantExplanation: Undetermined,
			wantAnalysis:    NoAnalysis,
			wantDegraded:    true,
		},
		{
			name:            "json array is not an object",
			input:           `[1, 2, 3]`,
			wantExplanation: "[1, 2, 3]",
			wantAnalysis:    "[1, 2, 3]",
			wantDegraded:    true,
		},
		{
			name:            "unrepairable braces",
			input:           `Hasil: { ini bukan json } sama sekali`,
			wantExplanation: "Hasil: { ini bukan json } sama sekali",
			wantAnalysis:    "Hasil: { ini bukan json } sama sekali",
			wantDegraded:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Parse(tt.input)
			assert.True(t, res.Success)
			assert.Equal(t, tt.wantExplanation, res.Explanation)
			assert.Equal(t, tt.wantAnalysis, res.DetailedAnalysis)
			assert.Len(t, res.SourceStances, tt.wantStances)
			assert.Equal(t, tt.wantDegraded, res.Degraded)
			assert.NotNil(t, res.SourcesUsed)
			assert.NotNil(t, res.SourceStances)
		})
	}
}

func TestParse_NamingDriftStance(t *testing.T) {
	t.Parallel()

	res := Parse(`{"summary":"x","stances":[{"source":"2","position":"membantah","reason":"alasan"},{"source":"kompas.com","stance":"supports"}]}`)
	require.Len(t, res.SourceStances, 2)
	assert.Equal(t, 2, res.SourceStances[0].SourceIndex)
	assert.Equal(t, model.StanceOppose, res.SourceStances[0].Stance)
	assert.Equal(t, "alasan", res.SourceStances[0].Reasoning)
	assert.Equal(t, "kompas.com", res.SourceStances[1].Domain)
	assert.Equal(t, model.StanceSupport, res.SourceStances[1].Stance)
}

func TestParse_SourcesUsedAsString(t *testing.T) {
	t.Parallel()

	res := Parse(`{"explanation":"x","sources_used":"detik.com, kompas.com ,"}`)
	assert.Equal(t, []string{"detik.com", "kompas.com"}, res.SourcesUsed)
}

func TestParse_FreeTextTruncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("kata ", 300)
	res := Parse(long)
	assert.True(t, res.Degraded)
	assert.LessOrEqual(t, len([]rune(res.Explanation)), maxExplanationRunes+3)
	assert.LessOrEqual(t, len([]rune(res.DetailedAnalysis)), maxAnalysisRunes+3)
	assert.True(t, strings.HasSuffix(res.DetailedAnalysis, "..."))
}

func TestParse_TruncationIsRuneSafe(t *testing.T) {
	t.Parallel()

	res := Parse(strings.Repeat("é", 600))
	assert.Equal(t, maxExplanationRunes+3, len([]rune(res.Explanation)))
	assert.NotContains(t, res.Explanation, "�")
}

func TestParse_SocialMediaDomains(t *testing.T) {
	t.Parallel()

	res := Parse(`{"explanation":"Beredar di facebook.com dan x.com","analysis":"Video youtube.com dan tiktok.com"}`)
	assert.Equal(t, "Beredar di postingan di Facebook dan postingan di X", res.Explanation)
	assert.Equal(t, "Video postingan di YouTube dan postingan di TikTok", res.DetailedAnalysis)
}

// Parse must not panic on arbitrary input.
func TestParse_Totality(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"{", "}", "}{", "{{{{", `{"`, `{"a`, `{"a":`, `{"a":"`, `{"a":"\`, `{"a":[`,
		`{"a":[{"b":`, "```", "```json", "****", "*", `""""`, "\x00\x01", "{\"explanation\":null}",
		`{"explanation":123,"analysis":true}`, `{"source_stances":"not a list"}`,
		`{"source_stances":[1,"two",null]}`, strings.Repeat("{", 1000), strings.Repeat("[", 1000),
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			res := Parse(in)
			assert.NotEmpty(t, res.Explanation, "input %q", in)
			assert.NotEmpty(t, res.DetailedAnalysis, "input %q", in)
			assert.NotNil(t, res.SourceStances)
			assert.NotNil(t, res.SourcesUsed)
		})
	}
}

func TestParse_NonStringValues(t *testing.T) {
	t.Parallel()

	res := Parse(`{"explanation":123,"analysis":true}`)
	assert.Equal(t, "123", res.Explanation)
	assert.Equal(t, "true", res.DetailedAnalysis)
}

func TestNormalizeStance(t *testing.T) {
	t.Parallel()

	tests := map[string]model.Stance{
		"SUPPORT":             model.StanceSupport,
		" supports ":          model.StanceSupport,
		"Mendukung":           model.StanceSupport,
		"DIDUKUNG_DATA":       model.StanceSupport,
		"OPPOSE":              model.StanceOppose,
		"refutes":             model.StanceOppose,
		"membantah":           model.StanceOppose,
		"TIDAK_DIDUKUNG_DATA": model.StanceOppose,
		"NEUTRAL":             model.StanceNeutral,
		"netral":              model.StanceNeutral,
		"":                    model.StanceNeutral,
		"unclear":             model.StanceNeutral,
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeStance(in), in)
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a": 1}`, Clean("```json\n{\"a\":\n 1}\n```"))
	assert.Equal(t, "tebal miring", Clean("**tebal** *miring*"))
}

func TestRepair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1,}`, `{"a":1}`},
		{`{"a":[1,2,]}`, `{"a":[1,2]}`},
		{`{"a":"b`, `{"a":"b"}`},
		{`{"a":[{"b":1},`, `{"a":[{"b":1}]}`},
		{`{"a":"b","c":`, `{"a":"b"}`},
		{`{"a":"b","c`, `{"a":"b"}`},
		{`{""a"": ""b""}`, `{"a": "b"}`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Repair(tt.in), tt.in)
	}
}
