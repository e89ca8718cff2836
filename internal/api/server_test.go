package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lawgpt/internal/agent"
	"github.com/dgallion1/lawgpt/internal/config"
	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/keywords"
	"github.com/dgallion1/lawgpt/internal/reasoning"
	"github.com/dgallion1/lawgpt/internal/retrieval"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeCorpus struct {
	snap    *retrieval.Snapshot
	err     error
	reloads int
}

func (f *fakeCorpus) Snapshot(context.Context) (*retrieval.Snapshot, error) {
	return f.snap, f.err
}

func (f *fakeCorpus) ForceReload(context.Context) (*retrieval.Snapshot, error) {
	f.reloads++
	return f.snap, f.err
}

type fakeChat struct {
	resp domain.ChatResponse
	err  error
	got  domain.ChatRequest
}

func (f *fakeChat) Handle(_ context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

type failingAgent struct{ name string }

func (a failingAgent) Name() string { return a.name }

func (a failingAgent) Call(context.Context, agent.Request) (*domain.Payload, error) {
	return nil, agent.Unavailable(errors.New("down"))
}

func lawCorpus() *fakeCorpus {
	return &fakeCorpus{snap: retrieval.NewSnapshot([]domain.Document{
		{ID: "ipc-p10", ActName: "Indian Penal Code", Title: "Indian Penal Code - Page 10", PageNo: 10,
			Content: "Whoever commits theft shall be punished with imprisonment."},
		{ID: "it-act-p43", ActName: "Information Technology Act", Title: "Information Technology Act - Page 43", PageNo: 43,
			Content: "Compensation for failure to protect data held by a body corporate."},
		{ID: "privacy-p1", ActName: "Right to Privacy Act", Title: "Right to Privacy Act - Page 1", PageNo: 1,
			Content: "Every person has the right to privacy and data protection of personal information."},
	})}
}

type testEnv struct {
	srv    *Server
	corpus *fakeCorpus
	chat   *fakeChat
	stats  *agent.Stats
	cfg    config.Config
}

func newTestEnv(t *testing.T, mutate func(*config.Config), agents ...agent.Agent) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Server.RateLimit = 0
	if mutate != nil {
		mutate(&cfg)
	}
	corpus := lawCorpus()
	if len(agents) == 0 {
		extractor := keywords.New(cfg.Retrieval.MaxKeywords)
		engine := retrieval.NewEngine(retrieval.DefaultConfig())
		agents = []agent.Agent{
			agent.NewSearchAgent(corpus, extractor, engine),
			agent.NewAnalysisAgent(corpus, extractor, engine, reasoning.Template{}),
		}
	}
	stats := agent.NewStats(time.Hour)
	env := &testEnv{corpus: corpus, chat: &fakeChat{}, stats: stats, cfg: cfg}
	env.srv = NewServer(Deps{
		Chat:   env.chat,
		Agents: agent.NewGateway(quiet, stats, cfg.Routing.MinRetryBudget, agents...),
		Corpus: corpus,
		Stats:  stats,
	}, quiet, cfg)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSearchLawRanksPrivacyActFirst(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/search-law", `{"query":"right to privacy data protection"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[domain.SearchLawResponse](t, rec)
	assert.Equal(t, "right to privacy data protection", resp.Query)
	assert.Contains(t, resp.Keywords, "privacy")
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "Right to Privacy Act", resp.Results[0].ActName)
	assert.Equal(t, "privacy-p1", resp.Results[0].ID)
	assert.Equal(t, 1, resp.Results[0].PageNo)
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
}

func TestSearchLawHonorsMaxResults(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/search-law", `{"query":"data protection privacy theft","max_results":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[domain.SearchLawResponse](t, rec)
	assert.Len(t, resp.Results, 1)
}

func TestSearchLawNoMatchReturnsEmptyArrays(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/search-law", `{"query":"zzzz qqqq"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestSearchLawRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/search-law", `{"query":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeBody[domain.ErrorResponse](t, rec)
	assert.Equal(t, string(domain.ErrCatInvalidQuery), errResp.Code)
	assert.False(t, errResp.Retryable)
	assert.Empty(t, env.stats.Snapshot(), "no agent is called for an empty query")

	rec = env.do(t, http.MethodPost, "/search-law", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestBodyLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Server.MaxBodyBytes = 16 })
	rec := env.do(t, http.MethodPost, "/search-law", `{"query":"right to privacy data protection"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
}

func TestSearchLawAgentFailureIs503(t *testing.T) {
	env := newTestEnv(t, nil, failingAgent{name: agent.NameSearch})
	rec := env.do(t, http.MethodPost, "/search-law", `{"query":"privacy"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	errResp := decodeBody[domain.ErrorResponse](t, rec)
	assert.True(t, errResp.Retryable)
	assert.Equal(t, string(domain.ErrCatUnavailable), errResp.Code)
}

func TestExplainLawTemplate(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/explain-law", `{"query":"right to privacy data protection"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[domain.ExplainLawResponse](t, rec)
	assert.NotEmpty(t, resp.Explanation)
	require.NotEmpty(t, resp.UsedResults)
	assert.Equal(t, "privacy-p1", resp.UsedResults[0].ID)
	assert.Contains(t, resp.Sources, "privacy-p1")
}

func TestExplainLawNoMatch(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/explain-law", `{"query":"zzzz qqqq"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[domain.ExplainLawResponse](t, rec)
	assert.Equal(t, reasoning.NoMatchExplanation, resp.Explanation)
	assert.Empty(t, resp.UsedResults)
	assert.Contains(t, rec.Body.String(), `"sources":[]`)
}

func TestExplainLawRejectsUnknownLanguage(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/explain-law", `{"query":"privacy","language_hint":"klingon"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat(t *testing.T) {
	env := newTestEnv(t, nil)
	env.chat.resp = domain.ChatResponse{RequestID: "r1", Query: "privacy", Results: []domain.ResultView{}, Sources: []string{}}

	rec := env.do(t, http.MethodPost, "/chat", `{"query":"privacy","language_hint":"hinglish","max_results":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ChatRequest{Query: "privacy", LanguageHint: "hinglish", MaxResults: 3}, env.chat.got)
	resp := decodeBody[domain.ChatResponse](t, rec)
	assert.Equal(t, "r1", resp.RequestID)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter bool
	}{
		{"invalid query", domain.NewInvalidQueryError("query is required"), http.StatusBadRequest, string(domain.ErrCatInvalidQuery), false},
		{"all agents failed", domain.NewAllAgentsFailedError("no agent answered"), http.StatusServiceUnavailable, string(domain.ErrCatAllAgentsFailed), true},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, string(domain.ErrCatUnknown), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.chat.err = tt.err
			rec := env.do(t, http.MethodPost, "/chat", `{"query":"x"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After") != "")
			errResp := decodeBody[domain.ErrorResponse](t, rec)
			assert.Equal(t, tt.code, errResp.Code)
			assert.NotContains(t, errResp.Error, "boom")
		})
	}
}

func TestInfoRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "LAW-GPT backend running 🚀", decodeBody[map[string]string](t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/", "")
	root := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "LAW-GPT Backend", root["service"])
	assert.Equal(t, "/ping", root["health"])

	rec = env.do(t, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOperatorRoutesRequireKey(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Server.APIKey = "secret" })

	rec := env.do(t, http.MethodGet, "/api/stats/agents", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/corpus/reload", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, env.corpus.reloads)

	// Public routes stay open.
	rec = env.do(t, http.MethodPost, "/search-law", `{"query":"privacy"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/stats/agents", "", "Authorization", "Bearer secret")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Agents map[string]agent.StatsSnapshot `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Agents[agent.NameSearch].Count)
}

func TestCorpusInfoAndReload(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/corpus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decodeBody[corpusInfo](t, rec)
	assert.Equal(t, 3, info.Documents)
	assert.Equal(t, []string{"Indian Penal Code", "Information Technology Act", "Right to Privacy Act"}, info.Acts)

	rec = env.do(t, http.MethodPost, "/api/corpus/reload", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.corpus.reloads)

	env.corpus.err = errors.New("disk gone")
	rec = env.do(t, http.MethodPost, "/api/corpus/reload", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadAct(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, func(c *config.Config) { c.Corpus.UploadDir = dir })

	body, ctype := multipartUpload(t, "../Consumer_Protection_Act.txt", "CHAPTER I\nSection 2. Definitions.")
	req := httptest.NewRequest(http.MethodPost, "/api/corpus/acts", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "Consumer_Protection_Act.txt", resp["file"])
	assert.Equal(t, "Consumer Protection Act", resp["act_name"])
	assert.Equal(t, 1, env.corpus.reloads)

	data, err := os.ReadFile(filepath.Join(dir, "Consumer_Protection_Act.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Definitions")
}

func TestUploadActRejected(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, func(c *config.Config) {
		c.Corpus.UploadDir = dir
		c.Server.MaxUpload = 8
	})

	upload := func(name, content string) int {
		body, ctype := multipartUpload(t, name, content)
		req := httptest.NewRequest(http.MethodPost, "/api/corpus/acts", body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		env.srv.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusBadRequest, upload("act.exe", "x"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, upload("act.txt", "far more than eight bytes"))
	assert.Zero(t, env.corpus.reloads)

	disabled := newTestEnv(t, nil)
	rec := disabled.do(t, http.MethodPost, "/api/corpus/acts", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "act.pdf", sanitizeFilename("../../act.pdf"))
	assert.Equal(t, "unnamed.hidden", sanitizeFilename(".hidden"))
	assert.Equal(t, "unnamed", sanitizeFilename(""))
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Server.AllowOrigin = "*" })
	rec := env.do(t, http.MethodOptions, "/chat", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRateLimiter(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Server.RateLimit = 0.001
		c.Server.RateBurst = 1
		c.Server.TrustProxy = true
	})
	first := env.do(t, http.MethodPost, "/search-law", `{"query":"privacy"}`, "X-Forwarded-For", "10.0.0.1")
	assert.Equal(t, http.StatusOK, first.Code)

	second := env.do(t, http.MethodPost, "/search-law", `{"query":"privacy"}`, "X-Forwarded-For", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, string(domain.ErrCatRateLimit), decodeBody[domain.ErrorResponse](t, second).Code)

	other := env.do(t, http.MethodPost, "/search-law", `{"query":"privacy"}`, "X-Forwarded-For", "10.0.0.2, 10.0.0.9")
	assert.Equal(t, http.StatusOK, other.Code)

	// Liveness is never limited.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/ping", "", "X-Forwarded-For", "10.0.0.1").Code)
}

func TestRateLimiterIgnoresForwardedForByDefault(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Server.RateLimit = 0.001
		c.Server.RateBurst = 1
	})
	first := env.do(t, http.MethodPost, "/search-law", `{"query":"privacy"}`, "X-Forwarded-For", "10.0.0.1")
	assert.Equal(t, http.StatusOK, first.Code)

	spoofed := env.do(t, http.MethodPost, "/search-law", `{"query":"privacy"}`, "X-Forwarded-For", "10.0.0.2")
	assert.Equal(t, http.StatusTooManyRequests, spoofed.Code, "a new header value does not buy a new bucket")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	r.Header.Set("X-Forwarded-For", " 10.0.0.3 , 10.0.0.9")

	assert.Equal(t, "192.0.2.7", clientIP(r, false))
	assert.Equal(t, "10.0.0.3", clientIP(r, true))

	r.Header.Set("X-Forwarded-For", " ,10.0.0.9")
	assert.Equal(t, "192.0.2.7", clientIP(r, true), "blank first hop falls back to the peer")
}

func TestIPRateLimiterForgetsIdleClients(t *testing.T) {
	now := time.Unix(0, 0)
	l := NewIPRateLimiter(1, 1, false)
	l.now = func() time.Time { return now }
	l.limiter("a")
	now = now.Add(2 * limiterIdle)
	l.limiter("b")
	_, ok := l.limiters["a"]
	assert.False(t, ok)
	assert.Len(t, l.limiters, 1)
}
