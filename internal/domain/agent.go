package domain

import "fmt"

// ErrorKind is the coarse failure class of an agent call.
type ErrorKind string

const (
	KindUnavailable     ErrorKind = "unavailable"
	KindTimeout         ErrorKind = "timeout"
	KindInvalidResponse ErrorKind = "invalid_response"
)

// Retryable reports whether one more attempt may succeed.
func (k ErrorKind) Retryable() bool {
	return k == KindUnavailable || k == KindTimeout
}

// AgentError records why an agent produced no payload.
type AgentError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Explanation is the analysis agent's output. Citations are document IDs;
// Context holds the ranked documents the explanation was built from.
type Explanation struct {
	Text      string         `json:"text"`
	Citations []string       `json:"citations"`
	Context   []ScoredResult `json:"context"`
	Keywords  []string       `json:"keywords,omitempty"`
}

// Payload carries either ranked documents (search) or an explanation (analysis).
type Payload struct {
	Results     []ScoredResult `json:"results,omitempty"`
	Keywords    []string       `json:"keywords,omitempty"`
	Explanation *Explanation   `json:"explanation,omitempty"`
}

// AgentResult is the settled outcome of one dispatched agent. Exactly one of
// Payload and Err is set.
type AgentResult struct {
	Agent     string      `json:"agent"`
	Payload   *Payload    `json:"payload,omitempty"`
	Err       *AgentError `json:"error,omitempty"`
	LatencyMs int64       `json:"latency_ms"`
	Attempts  int         `json:"attempts"`
}

// AgentSucceeded builds a successful result. A nil payload is replaced by an
// empty one so exactly one of Payload and Err is set.
func AgentSucceeded(agent string, p *Payload, latencyMs int64, attempts int) AgentResult {
	if p == nil {
		p = &Payload{}
	}
	return AgentResult{Agent: agent, Payload: p, LatencyMs: latencyMs, Attempts: attempts}
}

// AgentFailed builds a failed result.
func AgentFailed(agent string, kind ErrorKind, msg string, latencyMs int64, attempts int) AgentResult {
	return AgentResult{
		Agent:     agent,
		Err:       &AgentError{Kind: kind, Message: msg},
		LatencyMs: latencyMs,
		Attempts:  attempts,
	}
}

// OK reports whether the agent produced a payload.
func (r AgentResult) OK() bool {
	return r.Payload != nil && r.Err == nil
}

// Valid reports whether exactly one of Payload and Err is set.
func (r AgentResult) Valid() bool {
	return (r.Payload == nil) != (r.Err == nil)
}
