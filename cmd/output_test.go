package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klarifikasi/klarifikasi-api/internal/config"
	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

func sampleResponse() *model.CheckResponse {
	return &model.CheckResponse{
		Query:   "bumi itu datar",
		Results: []model.SourceResult{{Title: "NASA", Link: "https://nasa.gov", DisplayLink: "nasa.gov"}},
		Analysis: model.AnalysisResult{
			Success:     true,
			Claim:       "bumi itu datar",
			Explanation: "Klaim ini keliru.",
			Verdict:     model.VerdictAggregate{Label: model.LabelHoax, OpposingSources: 1, TotalSources: 1},
		},
	}
}

func TestWriteOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, sampleResponse(), "json"))
	assert.Contains(t, buf.String(), `"query": "bumi itu datar"`)
	assert.Contains(t, buf.String(), `"label": "HOAX"`)
}

func TestWriteOutput_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, sampleResponse(), "yaml"))
	out := buf.String()
	assert.Contains(t, out, "query: bumi itu datar")
	assert.Contains(t, out, "label: HOAX")
	assert.Contains(t, out, "displayLink: nasa.gov")
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	err := writeOutput(&bytes.Buffer{}, sampleResponse(), "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestUserFlag(t *testing.T) {
	assert.Nil(t, userFlag(0))
	assert.Nil(t, userFlag(-1))
	require.NotNil(t, userFlag(7))
	assert.Equal(t, int64(7), *userFlag(7))
}

func TestOpenStore_SQLite(t *testing.T) {
	st, err := openStore(context.Background(), config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "cli.db"),
	})
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, err = st.Record(context.Background(), userFlag(3), "klaim", 0, nil)
	assert.NoError(t, err)
}

func TestOpenCache_Disabled(t *testing.T) {
	assert.Nil(t, openCache(context.Background(), config.CacheConfig{}))
	// Nothing listens on port 1.
	assert.Nil(t, openCache(context.Background(), config.CacheConfig{RedisURL: "127.0.0.1:1"}))
}
