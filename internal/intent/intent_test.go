package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/reasoning"
)

type fakeReasoner struct {
	verdict reasoning.Verdict
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeReasoner) ClassifyIntent(ctx context.Context, text string) (reasoning.Verdict, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return reasoning.Verdict{}, ctx.Err()
		}
	}
	return f.verdict, f.err
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		text       string
		category   domain.Category
		confidence float64
	}{
		{"explain the right to privacy", domain.CategoryAnalysis, 0.6},
		{"why and how is bail denied, explain", domain.CategoryAnalysis, 0.8},
		{"find section 43", domain.CategorySearch, 0.7},
		{"find search section case article clause provision list", domain.CategorySearch, 0.9},
		{"explain section 43", domain.CategoryHybrid, 0.5},
		{"right to privacy data protection", domain.CategoryHybrid, 0.5},
		{"", domain.CategoryHybrid, 0.5},
	}
	for _, tt := range tests {
		got := Heuristic(tt.text)
		assert.Equal(t, tt.category, got.Category, tt.text)
		assert.InDelta(t, tt.confidence, got.Confidence, 1e-9, tt.text)
		assert.True(t, got.Valid())
	}
}

func TestHeuristicIsPure(t *testing.T) {
	text := "Explain why Section 21 matters"
	first := Heuristic(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Heuristic(text))
	}
}

func TestClassifyUsesReasoner(t *testing.T) {
	r := &fakeReasoner{verdict: reasoning.Verdict{Category: "search", Confidence: 0.95}}
	c := NewClassifier(r, time.Second, nil)

	in, diag := c.Classify(context.Background(), "explain privacy")
	assert.Equal(t, domain.Intent{Category: domain.CategorySearch, Confidence: 0.95}, in)
	assert.Equal(t, domain.ClassifiedByReasoner, diag.Source)
	assert.False(t, diag.Degraded)
	assert.Equal(t, 1, r.calls)
}

func TestClassifyFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		reasoner *fakeReasoner
	}{
		{"unavailable", &fakeReasoner{err: errors.New("connection refused")}},
		{"malformed category", &fakeReasoner{verdict: reasoning.Verdict{Category: "chitchat", Confidence: 0.9}}},
		{"confidence too high", &fakeReasoner{verdict: reasoning.Verdict{Category: "search", Confidence: 1.5}}},
		{"confidence negative", &fakeReasoner{verdict: reasoning.Verdict{Category: "search", Confidence: -0.1}}},
		{"timeout", &fakeReasoner{verdict: reasoning.Verdict{Category: "search", Confidence: 0.9}, delay: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.reasoner, 20*time.Millisecond, nil)
			in, diag := c.Classify(context.Background(), "explain the right to privacy")
			assert.Equal(t, Heuristic("explain the right to privacy"), in)
			assert.True(t, diag.Degraded)
			assert.Equal(t, domain.ClassifiedByHeuristic, diag.Source)
			assert.NotEmpty(t, diag.Error)
		})
	}
}

func TestClassifyWithoutReasonerIsNotDegraded(t *testing.T) {
	c := NewClassifier(nil, 0, nil)
	in, diag := c.Classify(context.Background(), "find section 43")
	assert.Equal(t, domain.CategorySearch, in.Category)
	assert.False(t, diag.Degraded)
	assert.Equal(t, domain.ClassifiedByHeuristic, diag.Source)
}
