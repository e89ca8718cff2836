// Package reasoning holds the reasoning-service collaborators: intent
// classification and explanation of retrieved law pages.
package reasoning

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/lawgpt/internal/domain"
)

// IntentReasoner classifies a query into a category with a confidence.
type IntentReasoner interface {
	ClassifyIntent(ctx context.Context, text string) (Verdict, error)
}

// Analyzer explains a query using retrieved context.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (Analysis, error)
}

// Verdict is a raw classification. Category is not yet validated.
type Verdict struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// AnalysisRequest is the input to an Analyzer.
type AnalysisRequest struct {
	Query        string
	LanguageHint string
	Keywords     []string
	Context      []domain.ScoredResult
}

// Analysis is an explanation plus the IDs of the context documents it cites.
type Analysis struct {
	Text      string   `json:"explanation"`
	Citations []string `json:"citations"`
}

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from reasoning service")

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// MalformedError reports a provider answer that could not be decoded.
type MalformedError struct {
	Raw string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response: %v (raw: %s)", e.Err, truncate(e.Raw, 200))
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
