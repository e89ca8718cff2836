// Package api serves the public law endpoints and the operator API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/lawgpt/internal/agent"
	"github.com/dgallion1/lawgpt/internal/config"
	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/metrics"
	"github.com/dgallion1/lawgpt/internal/retrieval"
)

// ChatService answers routed chat requests.
type ChatService interface {
	Handle(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
}

// AgentInvoker calls a single named agent.
type AgentInvoker interface {
	Invoke(ctx context.Context, name string, req agent.Request, timeout time.Duration) domain.AgentResult
}

// CorpusStore exposes the active snapshot and reloads it on demand.
type CorpusStore interface {
	Snapshot(ctx context.Context) (*retrieval.Snapshot, error)
	ForceReload(ctx context.Context) (*retrieval.Snapshot, error)
}

// Deps are the services behind the routes. Stats and Corpus may be nil, in
// which case their routes answer 503.
type Deps struct {
	Chat   ChatService
	Agents AgentInvoker
	Corpus CorpusStore
	Stats  *agent.Stats
}

// Server is the HTTP API server for lawgpt.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{deps: deps, log: log, cfg: cfg}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	if s.cfg.Server.AllowOrigin != "" {
		r.Use(CORS(s.cfg.Server.AllowOrigin))
	}

	// Public endpoints.
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/ping", s.handlePing)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.Server.RateLimit > 0 {
			r.Use(NewIPRateLimiter(s.cfg.Server.RateLimit, s.cfg.Server.RateBurst, s.cfg.Server.TrustProxy).Middleware)
		}
		r.Post("/search-law", s.handleSearchLaw)
		r.Post("/explain-law", s.handleExplainLaw)
		r.Post("/chat", s.handleChat)
	})

	// Operator endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.Server.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.Server.APIKey, s.log))
		}
		r.Get("/api/stats/agents", s.handleAgentStats)
		r.Get("/api/corpus", s.handleCorpusInfo)
		r.Post("/api/corpus/reload", s.handleCorpusReload)
		r.Post("/api/corpus/acts", s.handleUploadAct)
	})

	s.router = r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service":     "LAW-GPT Backend",
		"description": "Search Indian laws using PDFs + Firestore + Gemini Hinglish explanations.",
		"docs_url":    "/docs",
		"health":      "/ping",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "LAW-GPT backend running 🚀"})
}
