package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/metrics"
)

const (
	// MaxAttempts is the first call plus one retry.
	MaxAttempts = 2
	// DefaultMinRetryBudget is the least remaining deadline that allows a retry.
	DefaultMinRetryBudget = 200 * time.Millisecond
	// DefaultTimeout applies when Invoke is given no per-agent timeout.
	DefaultTimeout = 5 * time.Second
)

// Gateway invokes agents by name and reports every outcome as an AgentResult.
type Gateway struct {
	agents         map[string]Agent
	stats          *Stats
	minRetryBudget time.Duration
	logger         *slog.Logger
}

// NewGateway registers agents by their Name. A later agent with the same name
// replaces an earlier one.
func NewGateway(logger *slog.Logger, stats *Stats, minRetryBudget time.Duration, agents ...Agent) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	if minRetryBudget <= 0 {
		minRetryBudget = DefaultMinRetryBudget
	}
	g := &Gateway{
		agents:         make(map[string]Agent, len(agents)),
		stats:          stats,
		minRetryBudget: minRetryBudget,
		logger:         logger,
	}
	for _, a := range agents {
		g.agents[a.Name()] = a
	}
	return g
}

// Has reports whether an agent is registered under name.
func (g *Gateway) Has(name string) bool {
	_, ok := g.agents[name]
	return ok
}

// Stats returns the rolling latency tracker.
func (g *Gateway) Stats() *Stats {
	return g.stats
}

// Invoke calls the named agent with a per-attempt timeout of
// min(timeout, remaining deadline of ctx). Unavailable and Timeout failures are
// retried once if more than the minimum retry budget remains; otherwise the
// result is recorded as Timeout. Invoke never returns a Go error.
func (g *Gateway) Invoke(ctx context.Context, name string, req Request, timeout time.Duration) domain.AgentResult {
	a, ok := g.agents[name]
	if !ok {
		g.logger.Warn("unknown agent", "agent", name, "request_id", req.RequestID)
		return domain.AgentFailed(name, domain.KindUnavailable, "no agent registered", 0, 0)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	var (
		kind     domain.ErrorKind
		lastErr  error
		attempts int
	)
	for attempts < MaxAttempts {
		attemptTimeout := timeout
		if remaining, ok := remainingBudget(ctx); ok && remaining < attemptTimeout {
			attemptTimeout = remaining
		}
		if attemptTimeout <= 0 || ctx.Err() != nil {
			kind, lastErr = domain.KindTimeout, errors.New("deadline exceeded before call")
			break
		}

		attempts++
		payload, err := g.attempt(ctx, a, req, attemptTimeout)
		if err == nil {
			return g.settle(domain.AgentSucceeded(name, payload, time.Since(start).Milliseconds(), attempts), req)
		}
		kind, lastErr = classify(err), err

		if !kind.Retryable() || attempts >= MaxAttempts {
			break
		}
		if remaining, ok := remainingBudget(ctx); ok && remaining <= g.minRetryBudget {
			kind = domain.KindTimeout
			lastErr = fmt.Errorf("retry skipped, %s left: %w", remaining.Round(time.Millisecond), err)
			break
		}
		g.logger.Info("retrying agent", "agent", name, "kind", kind, "error", err, "request_id", req.RequestID)
	}

	return g.settle(domain.AgentFailed(name, kind, lastErr.Error(), time.Since(start).Milliseconds(), attempts), req)
}

// attempt runs one call. A call that ignores its context is abandoned when the
// attempt times out; its late result is dropped.
func (g *Gateway) attempt(ctx context.Context, a Agent, req Request, timeout time.Duration) (payload *domain.Payload, err error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		payload *domain.Payload
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: Unavailable(fmt.Errorf("agent panic: %v", r))}
			}
		}()
		p, err := a.Call(actx, req)
		done <- outcome{payload: p, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && actx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, o.err)
		}
		return o.payload, o.err
	case <-actx.Done():
		return nil, fmt.Errorf("attempt timed out after %s: %w", timeout, context.DeadlineExceeded)
	}
}

func (g *Gateway) settle(res domain.AgentResult, req Request) domain.AgentResult {
	outcome := domain.StatusOK
	if !res.OK() {
		outcome = string(res.Err.Kind)
		g.logger.Warn("agent failed",
			"agent", res.Agent,
			"kind", res.Err.Kind,
			"attempts", res.Attempts,
			"latency_ms", res.LatencyMs,
			"error", res.Err.Message,
			"request_id", req.RequestID,
		)
	}
	g.stats.Record(res.Agent, res.LatencyMs, !res.OK())
	metrics.ObserveAgent(res.Agent, outcome, time.Duration(res.LatencyMs)*time.Millisecond, res.Attempts)
	return res
}

// classify maps a call error to a kind. Context expiry always wins so an agent
// that wraps a deadline as a generic error is still reported as a timeout.
func classify(err error) domain.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTimeout
	}
	return Kind(err)
}

func remainingBudget(ctx context.Context) (time.Duration, bool) {
	dl, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	return time.Until(dl), true
}
