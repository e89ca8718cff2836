// Package orchestrator routes a query through classification, concurrent
// agent dispatch and merging.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/lawgpt/internal/agent"
	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/merge"
	"github.com/dgallion1/lawgpt/internal/metrics"
)

// State is a step of one request's lifecycle.
type State string

const (
	StateReceived   State = "received"
	StateClassified State = "classified"
	StateDispatched State = "dispatched"
	StateAwaiting   State = "awaiting"
	StateMerged     State = "merged"
	StateResponded  State = "responded"
	StateFailed     State = "failed"
)

// Classifier labels a query with an intent and never fails.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Intent, domain.ClassificationDiagnostic)
}

// Invoker calls one agent and reports the outcome as an AgentResult.
type Invoker interface {
	Invoke(ctx context.Context, name string, req agent.Request, timeout time.Duration) domain.AgentResult
}

// Config holds routing and timing.
type Config struct {
	RequestTimeout time.Duration                // Overall deadline for dispatch and await.
	AgentTimeout   time.Duration                // Per-agent attempt timeout, capped by the deadline.
	MaxResults     int                          // Upper bound for Query.MaxResults.
	SnippetChars   int                          // Snippet length of each result.
	Routes         map[domain.Category][]string // Agents selected per intent category.
}

// DefaultRoutes sends search to the search agent, analysis to the analysis
// agent and hybrid to both.
func DefaultRoutes() map[domain.Category][]string {
	return map[domain.Category][]string{
		domain.CategorySearch:   {agent.NameSearch},
		domain.CategoryAnalysis: {agent.NameAnalysis},
		domain.CategoryHybrid:   {agent.NameSearch, agent.NameAnalysis},
	}
}

// DefaultConfig returns the routing defaults.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 8 * time.Second,
		AgentTimeout:   5 * time.Second,
		MaxResults:     20,
		SnippetChars:   400,
		Routes:         DefaultRoutes(),
	}
}

// Orchestrator drives requests through the state machine. It holds no
// per-request state, so one instance serves concurrent requests.
type Orchestrator struct {
	cfg        Config
	classifier Classifier
	gateway    Invoker
	merger     merge.Merger
	logger     *slog.Logger
	newID      func() string
}

func New(cfg Config, classifier Classifier, gateway Invoker, logger *slog.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = def.AgentTimeout
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.SnippetChars <= 0 {
		cfg.SnippetChars = def.SnippetChars
	}
	if len(cfg.Routes) == 0 {
		cfg.Routes = def.Routes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:        cfg,
		classifier: classifier,
		gateway:    gateway,
		merger:     merge.Merger{SnippetChars: cfg.SnippetChars},
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// Handle validates and answers one chat request. It returns an InvalidQuery
// AppError before any classification or agent call, and an AllAgentsFailed
// AppError when classification degraded and every agent failed. Every other
// outcome, including partial and total agent failure, is a ChatResponse.
func (o *Orchestrator) Handle(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	q, err := domain.NewQuery(req.Query, req.MaxResults, req.LanguageHint, o.cfg.MaxResults)
	if err != nil {
		metrics.IncRequest("invalid")
		return domain.ChatResponse{}, err
	}

	id := o.newID()
	log := o.logger.With("request_id", id)
	state := StateReceived
	transition := func(next State, attrs ...any) {
		log.Debug("state transition", append([]any{"from", state, "to", next}, attrs...)...)
		state = next
	}

	in, classDiag := o.classifier.Classify(ctx, q.Text)
	metrics.IncClassification(string(in.Category), classDiag.Source)
	transition(StateClassified, "category", in.Category, "confidence", in.Confidence, "classification_degraded", classDiag.Degraded)

	names := o.route(in.Category)
	dctx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	pending := o.dispatch(dctx, agent.Request{RequestID: id, Query: q}, names)
	transition(StateDispatched, "agents", names)

	transition(StateAwaiting)
	results := await(dctx, names, pending, start)

	if allFailed(results) && classDiag.Degraded {
		transition(StateFailed)
		metrics.IncRequest("failed")
		log.Error("request failed", "agents", len(results))
		return domain.ChatResponse{}, domain.NewAllAgentsFailedError(
			fmt.Sprintf("classification degraded and all %d agents failed", len(results)))
	}

	resp := o.merger.Combine(q, in, results)
	resp.RequestID = id
	// Degraded reflects agent outcomes only; a classifier fallback shows in
	// Diagnostics.Classification.
	resp.Diagnostics.Classification = classDiag
	transition(StateMerged, "results", len(resp.Results), "degraded", resp.Diagnostics.Degraded)

	outcome := "responded"
	if resp.Diagnostics.Degraded {
		outcome = "degraded"
	}
	metrics.IncRequest(outcome)
	transition(StateResponded)
	log.Info("request answered",
		"category", in.Category,
		"results", len(resp.Results),
		"degraded", resp.Diagnostics.Degraded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// CheckRoutes returns an error naming each routed agent for which has
// reports false.
func CheckRoutes(routes map[domain.Category][]string, has func(name string) bool) error {
	var missing []string
	for _, names := range routes {
		for _, n := range names {
			if !has(n) && !slices.Contains(missing, n) {
				missing = append(missing, n)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("routes name unregistered agents: %s", strings.Join(missing, ", "))
}

func (o *Orchestrator) route(c domain.Category) []string {
	if names, ok := o.cfg.Routes[c]; ok && len(names) > 0 {
		return names
	}
	return o.cfg.Routes[domain.CategoryHybrid]
}

type settled struct {
	index  int
	result domain.AgentResult
}

// dispatch starts one goroutine per agent. The channel is buffered so calls
// that settle after the deadline never block.
func (o *Orchestrator) dispatch(ctx context.Context, req agent.Request, names []string) <-chan settled {
	ch := make(chan settled, len(names))
	for i, name := range names {
		go func(i int, name string) {
			ch <- settled{index: i, result: o.gateway.Invoke(ctx, name, req, o.cfg.AgentTimeout)}
		}(i, name)
	}
	return ch
}

// await collects results in dispatch order. Calls still pending at the
// deadline are recorded as timeouts.
func await(ctx context.Context, names []string, ch <-chan settled, start time.Time) []domain.AgentResult {
	results := make([]domain.AgentResult, len(names))
	done := make([]bool, len(names))
	for remaining := len(names); remaining > 0; remaining-- {
		select {
		case s := <-ch:
			results[s.index] = s.result
			done[s.index] = true
		case <-ctx.Done():
			elapsed := time.Since(start).Milliseconds()
			for i, name := range names {
				if !done[i] {
					results[i] = domain.AgentFailed(name, domain.KindTimeout, "no result before request deadline", elapsed, 1)
				}
			}
			return results
		}
	}
	return results
}

func allFailed(results []domain.AgentResult) bool {
	for _, r := range results {
		if r.OK() {
			return false
		}
	}
	return true
}
