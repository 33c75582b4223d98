package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

func TestBuild_RendersEachSource(t *testing.T) {
	t.Parallel()

	sources := []model.SourceResult{
		{Title: "Vaksin tidak sebabkan autisme", Snippet: "WHO menegaskan\n tidak ada hubungan", Link: "https://who.int/a", DisplayLink: "who.int"},
		{Title: "Fakta vaksin", Snippet: "CDC", Link: "https://cdc.gov/b", DisplayLink: "cdc.gov"},
	}

	p := Build("vaccines cause autism", sources)

	assert.Contains(t, p, `"vaccines cause autism"`)
	assert.Contains(t, p, "(2 sumber)")
	assert.Contains(t, p, "SUMBER 1:\n  Domain: who.int\n  Judul: Vaksin tidak sebabkan autisme\n  URL: https://who.int/a\n  Ringkasan: WHO menegaskan tidak ada hubungan\n")
	assert.Contains(t, p, "SUMBER 2:\n  Domain: cdc.gov")
	assert.Contains(t, p, `"source_stances"`)
	assert.Contains(t, p, "SUPPORT|OPPOSE|NEUTRAL")
	assert.Less(t, strings.Index(p, "SUMBER 1:"), strings.Index(p, "SUMBER 2:"))
}

func TestBuild_MissingFieldsUsePlaceholders(t *testing.T) {
	t.Parallel()

	p := Build("klaim", []model.SourceResult{{}})
	assert.Contains(t, p, "Domain: "+missingDomain)
	assert.Contains(t, p, "Judul: "+missingTitle)
	assert.Contains(t, p, "URL: "+missingURL)
	assert.Contains(t, p, "Ringkasan: "+missingSnippet)
}

func TestBuild_EmptySources(t *testing.T) {
	t.Parallel()

	p := Build("bumi datar", nil)
	assert.Contains(t, p, "Tidak ada sumber yang ditemukan")
	assert.Contains(t, p, "bukti tidak cukup")
	assert.Contains(t, p, `"explanation"`)
	assert.NotContains(t, p, "SUMBER 1:")
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	sources := []model.SourceResult{{Title: "t", Snippet: "s", Link: "l", DisplayLink: "d"}}
	assert.Equal(t, Build("klaim", sources), Build("klaim", sources))
}

func TestBuild_QuotesClaim(t *testing.T) {
	t.Parallel()

	p := Build(`dia bilang "halo"`, nil)
	assert.Contains(t, p, `"dia bilang \"halo\""`)
}
