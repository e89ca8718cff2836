package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2000, cfg.Retrieval.MaxScanDocs)
	assert.Equal(t, 20, cfg.Retrieval.MaxResults)
	assert.Equal(t, 400, cfg.Retrieval.SnippetChars)
	assert.Equal(t, 200*time.Millisecond, cfg.Routing.MinRetryBudget)
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lawgpt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
routing:
  agent_timeout: 3s
retrieval:
  title_weight: 3
corpus:
  paths: [acts, extra.jsonl]
  watch: true
`), 0o644))

	t.Setenv("PORT", "9100")
	t.Setenv("MAX_RESULTS", "7")
	t.Setenv("CORPUS_WATCH", "false")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port, "env beats file")
	assert.Equal(t, 3*time.Second, cfg.Routing.AgentTimeout)
	assert.Equal(t, 8*time.Second, cfg.Routing.RequestTimeout, "absent keys keep defaults")
	assert.Equal(t, 3.0, cfg.Retrieval.TitleWeight)
	assert.Equal(t, 1.0, cfg.Retrieval.ContentWeight)
	assert.Equal(t, 7, cfg.Retrieval.MaxResults)
	assert.Equal(t, []string{"acts", "extra.jsonl"}, cfg.Corpus.Paths)
	assert.False(t, cfg.Corpus.Watch)
	assert.True(t, cfg.Server.TrustProxy)
	assert.False(t, Default().Server.TrustProxy)
}

func TestLoadRetrievalSynonyms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lawgpt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
retrieval:
  synonyms:
    privacy: [confidentiality, "personal data"]
    arrest: [detention]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"privacy": {"confidentiality", "personal data"},
		"arrest":  {"detention"},
	}, cfg.Retrieval.Synonyms)
	assert.Empty(t, Default().Retrieval.Synonyms)
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  log_level: debug\n"), 0o644))
	t.Setenv("LAWGPT_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("routing: [nope"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("AGENT_TIMEOUT", "soon")
	t.Setenv("TITLE_WEIGHT", "heavy")
	t.Setenv("CORPUS_PATHS", " a , ,b ")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Routing.AgentTimeout)
	assert.Equal(t, 2.0, cfg.Retrieval.TitleWeight)
	assert.Equal(t, []string{"a", "b"}, cfg.Corpus.Paths)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"claude without key", func(c *Config) { c.Reasoning.Provider = ProviderClaude }, "ANTHROPIC_API_KEY"},
		{"gemini without key", func(c *Config) { c.Reasoning.Provider = ProviderGemini }, "GOOGLE_GENAI_API_KEY"},
		{"unknown provider", func(c *Config) { c.Reasoning.Provider = "oracle" }, "unknown reasoning provider"},
		{"zero weights", func(c *Config) { c.Retrieval.TitleWeight, c.Retrieval.ContentWeight = 0, 0 }, "retrieval weight"},
		{"retry budget", func(c *Config) { c.Routing.MinRetryBudget = 10 * time.Second }, "min retry budget"},
		{"http without urls", func(c *Config) { c.Agents.Transport = TransportHTTP }, "SEARCH_AGENT_URL"},
		{"nats without url", func(c *Config) { c.Agents.Transport = TransportNATS }, "NATS_URL"},
		{"no corpus paths", func(c *Config) { c.Corpus.Paths = nil }, "corpus path"},
		{"unknown source", func(c *Config) { c.Corpus.Source = "s3" }, "unknown corpus source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = ""
	cfg.Retrieval.MaxResults = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "max results")
}
