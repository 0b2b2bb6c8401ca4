package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "credentials.json", cfg.Gmail.Credentials)
	assert.Equal(t, "me", cfg.Gmail.User)
	assert.Equal(t, 120, cfg.Poll.IntervalSeconds)
	assert.Equal(t, 30, cfg.Gmail.LookbackDays)
	assert.Equal(t, 80.0, cfg.Pipeline.SimilarityThreshold)
	assert.True(t, cfg.ClassifyOptions().RejectionDominates)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("JM_TEST_SECRET_DIR", "/secrets")
	dir := t.TempDir()
	p := writeFile(t, dir, FileName, `
gmail:
  credentials: ${JM_TEST_SECRET_DIR}/credentials.json
  max_results: 25
  queries:
    - "from:acme.com"
poll:
  interval_seconds: 300
log:
  format: json
pipeline:
  offer_weight: 1.5
  rejection_dominates: false
  similarity_threshold: 90
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/secrets/credentials.json", cfg.Gmail.Credentials)
	assert.Equal(t, int64(25), cfg.Gmail.MaxResults)
	assert.Equal(t, []string{"from:acme.com"}, cfg.Gmail.Queries)
	assert.Equal(t, 300, cfg.Poll.IntervalSeconds)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 90.0, cfg.Pipeline.SimilarityThreshold)

	opts := cfg.ClassifyOptions()
	assert.Equal(t, 1.5, opts.OfferWeight)
	assert.Equal(t, 0.8, opts.ConfirmationWeight)
	assert.False(t, opts.RejectionDominates)
}

func TestUnsetVariableKept(t *testing.T) {
	assert.Equal(t, "${JM_TEST_SURELY_UNSET}/x", expandEnvVars("${JM_TEST_SURELY_UNSET}/x"))
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, FileName, "poll:\n  interval_seconds: 300\ngmail:\n  user: file@example.com\n")
	t.Setenv("POLL_INTERVAL_SECONDS", "600")
	t.Setenv("GMAIL_USER", "env@example.com")
	t.Setenv("DB_PATH", "/tmp/jobs.db")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Poll.IntervalSeconds)
	assert.Equal(t, "env@example.com", cfg.Gmail.User)
	assert.Equal(t, "/tmp/jobs.db", cfg.DBPath)
}

func TestBadIntervalEnv(t *testing.T) {
	t.Setenv("POLL_INTERVAL_SECONDS", "soon")
	_, err := Load("")
	assert.ErrorContains(t, err, "POLL_INTERVAL_SECONDS")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Poll.IntervalSeconds = 30
	cfg.Pipeline.SimilarityThreshold = 120
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "at least 60")
	assert.ErrorContains(t, err, "0-100")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "jobs.db")
	assert.Empty(t, Discover(db))
	p := writeFile(t, dir, FileName, "log:\n  level: debug\n")
	assert.Equal(t, p, Discover(db))
	assert.Empty(t, Discover(""))
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, ".env", "JM_TEST_DOTENV_VALUE=hello\n")
	t.Setenv("JM_TEST_DOTENV_VALUE", "")
	os.Unsetenv("JM_TEST_DOTENV_VALUE")

	require.NoError(t, LoadDotenv(p))
	assert.Equal(t, "hello", os.Getenv("JM_TEST_DOTENV_VALUE"))

	assert.NoError(t, LoadDotenv(filepath.Join(dir, "missing.env")))
}
