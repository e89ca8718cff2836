// Package intent decides which agents a query needs.
package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/reasoning"
)

// DefaultTimeout bounds the reasoner call.
const DefaultTimeout = 2 * time.Second

// Classifier labels queries with an intent. The reasoner is optional; without
// one every query is classified by Heuristic.
type Classifier struct {
	reasoner reasoning.IntentReasoner
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClassifier returns a Classifier. reasoner may be nil.
func NewClassifier(reasoner reasoning.IntentReasoner, timeout time.Duration, logger *slog.Logger) *Classifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{reasoner: reasoner, timeout: timeout, logger: logger}
}

// Classify always returns a valid intent. When the reasoner fails or answers
// out of range, the heuristic result is returned and the diagnostic is marked
// degraded.
func (c *Classifier) Classify(ctx context.Context, text string) (domain.Intent, domain.ClassificationDiagnostic) {
	if c.reasoner == nil {
		return Heuristic(text), domain.ClassificationDiagnostic{Source: domain.ClassifiedByHeuristic}
	}

	in, err := c.ask(ctx, text)
	if err == nil {
		return in, domain.ClassificationDiagnostic{Source: domain.ClassifiedByReasoner}
	}

	c.logger.Warn("intent classification degraded", "error", err)
	return Heuristic(text), domain.ClassificationDiagnostic{
		Source:   domain.ClassifiedByHeuristic,
		Degraded: true,
		Error:    err.Error(),
	}
}

func (c *Classifier) ask(ctx context.Context, text string) (domain.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := c.reasoner.ClassifyIntent(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Intent{}, fmt.Errorf("reasoner timeout after %s", c.timeout)
		}
		return domain.Intent{}, fmt.Errorf("reasoner unavailable: %w", err)
	}

	cat, ok := domain.ParseCategory(v.Category)
	if !ok {
		return domain.Intent{}, fmt.Errorf("malformed category %q", v.Category)
	}
	in := domain.Intent{Category: cat, Confidence: v.Confidence}
	if !in.Valid() {
		return domain.Intent{}, fmt.Errorf("confidence %v out of range", v.Confidence)
	}
	return in, nil
}
