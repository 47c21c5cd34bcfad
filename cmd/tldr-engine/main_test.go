// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tldr-engine/internal/batch"
	"github.com/pdiddy/tldr-engine/internal/secrets"
	"github.com/pdiddy/tldr-engine/pkg/types"
)

func TestBuildStatus(t *testing.T) {
	works := []types.Work{
		{Key: "A", Title: "Attention Is All You Need"},
		{Key: "B", Title: "Obscure Workshop Paper"},
		{Key: "C", Title: "Fresh Import"},
	}
	outcomes := map[string]types.Outcome{
		"A":     types.Resolved("N1"),
		"B":     types.NotFound(),
		"GHOST": types.NotFound(),
	}

	r := buildStatus(works, outcomes)
	require.Len(t, r.Works, 3)
	assert.Equal(t, 1, r.Resolved)
	assert.Equal(t, 1, r.NotFound)
	assert.Equal(t, 1, r.Waiting)
	assert.Equal(t, "N1", r.Works[0].NoteKey)
	assert.Equal(t, types.OutcomeUnresolved, r.Works[2].State)
}

func TestWriteStatusJSON(t *testing.T) {
	r := buildStatus([]types.Work{{Key: "A", Title: "T"}}, map[string]types.Outcome{"A": types.NotFound()})

	var buf bytes.Buffer
	require.NoError(t, writeStatusJSON(&buf, r))

	var got statusReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, types.OutcomeNotFound, got.Works[0].State)
	assert.Equal(t, 1, got.NotFound)
}

func TestWriteStatusTable(t *testing.T) {
	var buf bytes.Buffer
	writeStatusTable(&buf, statusReport{})
	assert.Equal(t, "Library is empty.\n", buf.String())

	buf.Reset()
	r := buildStatus([]types.Work{{Key: "A", Title: ""}}, map[string]types.Outcome{"A": types.Resolved("N9")})
	writeStatusTable(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "Untitled")
	assert.Contains(t, out, "N9")
	assert.Contains(t, out, "resolved: 1; not found: 0; waiting: 0")
	assert.NotContains(t, out, "outcomes:")

	buf.Reset()
	r.Source = "file library/outcomes.yaml"
	writeStatusTable(&buf, r)
	assert.Contains(t, buf.String(), "outcomes: file library/outcomes.yaml\n")
}

func TestSummaryError(t *testing.T) {
	assert.NoError(t, summaryError(types.BatchSummary{Succeeded: 2, Failed: 1}))
	err := summaryError(types.BatchSummary{Failed: 2, Errored: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 work(s)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short  ", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", truncate(strings.Repeat("é", 10), 6))
}

func TestNewWorkKey(t *testing.T) {
	a, b := newWorkKey(), newWorkKey()
	assert.Len(t, a, 8)
	assert.Equal(t, strings.ToUpper(a), a)
	assert.NotEqual(t, a, b)
}

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, defaultDBPath, cfg.Library.DBPath)
	assert.Equal(t, types.OutcomeBackendSQLite, cfg.Outcomes.Backend)
	assert.Equal(t, defaultBaseURL, cfg.Scholar.BaseURL)
	assert.Equal(t, defaultTimeout, cfg.Scholar.Timeout)
	assert.Equal(t, batch.DefaultPacingDelay, cfg.Batch.PacingDelay)
	assert.Equal(t, batch.DefaultAddDelay, cfg.Batch.AddDelay)
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("TLDR_ENGINE_SCHOLAR_API_KEY", "env-key")
	t.Setenv("TLDR_ENGINE_LIBRARY_DB_PATH", "/tmp/env.db")
	t.Setenv("TLDR_ENGINE_BATCH_PACING_DELAY", "250ms")
	setDefaults()
	bindEnv()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Scholar.APIKey)
	assert.Equal(t, "/tmp/env.db", cfg.Library.DBPath)
	assert.Equal(t, 250*time.Millisecond, cfg.Batch.PacingDelay)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()
	viper.Set("outcomes.backend", "redis")

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestLoadConfigTakesAPIKeyFromSecrets(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()
	loadedSecrets = secrets.Secrets{secrets.SemanticScholarAPIKey: "from-file"}
	t.Cleanup(func() { loadedSecrets = nil })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Scholar.APIKey)

	viper.Set("scholar.api_key", "explicit")
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.Scholar.APIKey)
}
