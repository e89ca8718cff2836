// Package config loads service settings from defaults, an optional YAML
// file, and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names for the reasoning backend.
const (
	ProviderTemplate = "template"
	ProviderClaude   = "claude"
	ProviderGemini   = "gemini"
)

// Agent transports.
const (
	TransportLocal = "local"
	TransportHTTP  = "http"
	TransportNATS  = "nats"
)

// Corpus sources.
const (
	SourceFile      = "file"
	SourcePathstore = "pathstore"
)

type Config struct {
	Server    Server    `yaml:"server"`
	Routing   Routing   `yaml:"routing"`
	Retrieval Retrieval `yaml:"retrieval"`
	Reasoning Reasoning `yaml:"reasoning"`
	Agents    Agents    `yaml:"agents"`
	Corpus    Corpus    `yaml:"corpus"`
}

type Server struct {
	Port         string  `yaml:"port"`
	APIKey       string  `yaml:"api_key"`      // Protects /api/*; empty disables auth.
	AllowOrigin  string  `yaml:"allow_origin"` // CORS origin; empty disables CORS headers.
	RateLimit    float64 `yaml:"rate_limit"`   // Requests per second per client IP; 0 disables.
	RateBurst    int     `yaml:"rate_burst"`
	TrustProxy   bool    `yaml:"trust_proxy"` // Take the client IP from X-Forwarded-For.
	MaxBodyBytes int64   `yaml:"max_body_bytes"`
	MaxUpload    int64   `yaml:"max_upload_bytes"`
	LogLevel     string  `yaml:"log_level"`
}

type Routing struct {
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	AgentTimeout    time.Duration `yaml:"agent_timeout"`
	ClassifyTimeout time.Duration `yaml:"classify_timeout"`
	MinRetryBudget  time.Duration `yaml:"min_retry_budget"`
}

type Retrieval struct {
	TitleWeight   float64 `yaml:"title_weight"`
	ContentWeight float64 `yaml:"content_weight"`
	MaxScanDocs   int     `yaml:"max_scan_docs"`
	MaxResults    int     `yaml:"max_results"`
	SnippetChars  int     `yaml:"snippet_chars"`
	MaxKeywords   int     `yaml:"max_keywords"`
	// Synonyms expand query terms, e.g. privacy: [confidentiality].
	Synonyms map[string][]string `yaml:"synonyms"`
}

type Reasoning struct {
	Provider        string `yaml:"provider"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	GeminiModel     string `yaml:"gemini_model"`
}

type Agents struct {
	Transport        string        `yaml:"transport"`
	SearchURL        string        `yaml:"search_url"`
	AnalysisURL      string        `yaml:"analysis_url"`
	APIKey           string        `yaml:"api_key"`
	NATSURL          string        `yaml:"nats_url"`
	NATSSubject      string        `yaml:"nats_subject_prefix"`
	NATSQueue        string        `yaml:"nats_queue"`
	NATSServeTimeout time.Duration `yaml:"nats_serve_timeout"`
}

type Corpus struct {
	Source          string        `yaml:"source"`
	Paths           []string      `yaml:"paths"`
	UploadDir       string        `yaml:"upload_dir"` // Where uploaded acts are saved; empty disables uploads.
	Watch           bool          `yaml:"watch"`
	WatchDebounce   time.Duration `yaml:"watch_debounce"`
	PathstoreURL    string        `yaml:"pathstore_url"`
	PathstoreAPIKey string        `yaml:"pathstore_api_key"`
	PathstorePrefix string        `yaml:"pathstore_prefix"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	ChunkSize       int           `yaml:"chunk_size"`
	ChunkOverlap    int           `yaml:"chunk_overlap"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: Server{
			Port:         "8000",
			RateLimit:    10,
			RateBurst:    20,
			MaxBodyBytes: 1 << 20,
			MaxUpload:    50 << 20,
			LogLevel:     "info",
		},
		Routing: Routing{
			RequestTimeout:  8 * time.Second,
			AgentTimeout:    5 * time.Second,
			ClassifyTimeout: 2 * time.Second,
			MinRetryBudget:  200 * time.Millisecond,
		},
		Retrieval: Retrieval{
			TitleWeight:   2,
			ContentWeight: 1,
			MaxScanDocs:   2000,
			MaxResults:    20,
			SnippetChars:  400,
			MaxKeywords:   5,
		},
		Reasoning: Reasoning{
			Provider:       ProviderTemplate,
			AnthropicModel: "claude-sonnet-4-5-20250929",
			GeminiModel:    "gemini-2.5-flash",
		},
		Agents: Agents{
			Transport:        TransportLocal,
			NATSSubject:      "lawgpt.agent",
			NATSQueue:        "lawgpt-agents",
			NATSServeTimeout: 5 * time.Second,
		},
		Corpus: Corpus{
			Source:          SourceFile,
			Paths:           []string{"data"},
			WatchDebounce:   500 * time.Millisecond,
			PathstoreURL:    "http://localhost:8080",
			PathstorePrefix: "lawgpt/acts",
			CacheTTL:        5 * time.Minute,
			ChunkSize:       400,
			ChunkOverlap:    40,
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// LAWGPT_CONFIG names the YAML file, if any.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("LAWGPT_CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile decodes YAML over the current values, so keys absent from the
// file keep their defaults.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Port = envOr("PORT", s.Port)
	s.APIKey = envOr("LAWGPT_API_KEY", s.APIKey)
	s.AllowOrigin = envOr("ALLOW_ORIGIN", s.AllowOrigin)
	s.RateLimit = envFloat("RATE_LIMIT_RPS", s.RateLimit)
	s.RateBurst = envInt("RATE_LIMIT_BURST", s.RateBurst)
	s.TrustProxy = envBool("TRUST_PROXY", s.TrustProxy)
	s.MaxBodyBytes = envInt64("MAX_BODY_BYTES", s.MaxBodyBytes)
	s.MaxUpload = envInt64("MAX_UPLOAD_BYTES", s.MaxUpload)
	s.LogLevel = envOr("LOG_LEVEL", s.LogLevel)

	r := &c.Routing
	r.RequestTimeout = envDuration("REQUEST_TIMEOUT", r.RequestTimeout)
	r.AgentTimeout = envDuration("AGENT_TIMEOUT", r.AgentTimeout)
	r.ClassifyTimeout = envDuration("CLASSIFY_TIMEOUT", r.ClassifyTimeout)
	r.MinRetryBudget = envDuration("MIN_RETRY_BUDGET", r.MinRetryBudget)

	rt := &c.Retrieval
	rt.TitleWeight = envFloat("TITLE_WEIGHT", rt.TitleWeight)
	rt.ContentWeight = envFloat("CONTENT_WEIGHT", rt.ContentWeight)
	rt.MaxScanDocs = envInt("MAX_SCAN_DOCS", rt.MaxScanDocs)
	rt.MaxResults = envInt("MAX_RESULTS", rt.MaxResults)
	rt.SnippetChars = envInt("SNIPPET_CHARS", rt.SnippetChars)
	rt.MaxKeywords = envInt("MAX_KEYWORDS", rt.MaxKeywords)

	rs := &c.Reasoning
	rs.Provider = strings.ToLower(envOr("LLM_PROVIDER", rs.Provider))
	rs.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", rs.AnthropicAPIKey)
	rs.AnthropicModel = envOr("ANTHROPIC_MODEL", rs.AnthropicModel)
	rs.GeminiAPIKey = envOr("GOOGLE_GENAI_API_KEY", envOr("GEMINI_API_KEY", rs.GeminiAPIKey))
	rs.GeminiModel = envOr("GEMINI_MODEL", rs.GeminiModel)

	a := &c.Agents
	a.Transport = strings.ToLower(envOr("AGENT_TRANSPORT", a.Transport))
	a.SearchURL = envOr("SEARCH_AGENT_URL", a.SearchURL)
	a.AnalysisURL = envOr("ANALYSIS_AGENT_URL", a.AnalysisURL)
	a.APIKey = envOr("AGENT_API_KEY", a.APIKey)
	a.NATSURL = envOr("NATS_URL", a.NATSURL)
	a.NATSSubject = envOr("NATS_SUBJECT_PREFIX", a.NATSSubject)
	a.NATSQueue = envOr("NATS_QUEUE", a.NATSQueue)
	a.NATSServeTimeout = envDuration("NATS_SERVE_TIMEOUT", a.NATSServeTimeout)

	cp := &c.Corpus
	cp.Source = strings.ToLower(envOr("CORPUS_SOURCE", cp.Source))
	cp.Paths = envList("CORPUS_PATHS", cp.Paths)
	cp.UploadDir = envOr("CORPUS_UPLOAD_DIR", cp.UploadDir)
	cp.Watch = envBool("CORPUS_WATCH", cp.Watch)
	cp.WatchDebounce = envDuration("CORPUS_WATCH_DEBOUNCE", cp.WatchDebounce)
	cp.PathstoreURL = envOr("PATHSTORE_URL", cp.PathstoreURL)
	cp.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", cp.PathstoreAPIKey)
	cp.PathstorePrefix = envOr("PATHSTORE_PREFIX", cp.PathstorePrefix)
	cp.CacheTTL = envDuration("CORPUS_CACHE_TTL", cp.CacheTTL)
	cp.ChunkSize = envInt("CHUNK_SIZE", cp.ChunkSize)
	cp.ChunkOverlap = envInt("CHUNK_OVERLAP", cp.ChunkOverlap)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port != "", "server port is required")
	check(c.Server.RateLimit >= 0, "rate limit must not be negative")
	check(c.Server.MaxBodyBytes > 0 && c.Server.MaxUpload > 0, "body and upload limits must be positive")

	r := c.Routing
	check(r.RequestTimeout > 0, "request timeout must be positive")
	check(r.AgentTimeout > 0, "agent timeout must be positive")
	check(r.ClassifyTimeout > 0, "classify timeout must be positive")
	check(r.MinRetryBudget >= 0 && r.MinRetryBudget < r.AgentTimeout, "min retry budget must be below the agent timeout")

	rt := c.Retrieval
	check(rt.TitleWeight >= 0 && rt.ContentWeight >= 0, "retrieval weights must not be negative")
	check(rt.TitleWeight+rt.ContentWeight > 0, "at least one retrieval weight must be positive")
	check(rt.MaxScanDocs > 0, "max scan docs must be positive")
	check(rt.MaxResults > 0, "max results must be positive")
	check(rt.SnippetChars > 0, "snippet chars must be positive")
	check(rt.MaxKeywords > 0, "max keywords must be positive")

	switch c.Reasoning.Provider {
	case ProviderTemplate:
	case ProviderClaude:
		check(c.Reasoning.AnthropicAPIKey != "", "ANTHROPIC_API_KEY is required for the claude provider")
	case ProviderGemini:
		check(c.Reasoning.GeminiAPIKey != "", "GOOGLE_GENAI_API_KEY is required for the gemini provider")
	default:
		check(false, "unknown reasoning provider %q", c.Reasoning.Provider)
	}

	switch c.Agents.Transport {
	case TransportLocal:
	case TransportHTTP:
		check(c.Agents.SearchURL != "" || c.Agents.AnalysisURL != "", "http transport needs SEARCH_AGENT_URL or ANALYSIS_AGENT_URL")
	case TransportNATS:
		check(c.Agents.NATSURL != "", "NATS_URL is required for the nats transport")
	default:
		check(false, "unknown agent transport %q", c.Agents.Transport)
	}

	switch c.Corpus.Source {
	case SourceFile:
		check(len(c.Corpus.Paths) > 0, "at least one corpus path is required")
	case SourcePathstore:
		check(c.Corpus.UploadDir == "", "uploads need the file corpus source")
		check(c.Corpus.PathstoreURL != "", "PATHSTORE_URL is required for the pathstore corpus")
	default:
		check(false, "unknown corpus source %q", c.Corpus.Source)
	}

	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
