// Package agent wraps the specialized search and analysis agents behind one
// capability interface and a gateway that turns every call into an
// AgentResult.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/reasoning"
	"github.com/dgallion1/lawgpt/internal/retrieval"
)

const (
	NameSearch   = "search"
	NameAnalysis = "analysis"
)

// Agent is one routable capability.
type Agent interface {
	Name() string
	Call(ctx context.Context, req Request) (*domain.Payload, error)
}

// Request is what the router sends to every agent.
type Request struct {
	RequestID string       `json:"request_id,omitempty"`
	Query     domain.Query `json:"query"`
}

// SnapshotSource provides the corpus view an agent searches.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*retrieval.Snapshot, error)
}

// Error carries a failure kind chosen by the agent itself.
type Error struct {
	Kind domain.ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Unavailable(err error) error {
	return &Error{Kind: domain.KindUnavailable, Err: err}
}

func InvalidResponse(err error) error {
	return &Error{Kind: domain.KindInvalidResponse, Err: err}
}

// Kind maps an agent error onto the coarse failure taxonomy.
func Kind(err error) domain.ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTimeout
	}
	var me *reasoning.MalformedError
	if errors.As(err, &me) || errors.Is(err, reasoning.ErrEmptyResponse) {
		return domain.KindInvalidResponse
	}
	return domain.KindUnavailable
}
