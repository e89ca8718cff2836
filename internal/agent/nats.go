package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dgallion1/lawgpt/internal/domain"
)

// DefaultSubjectPrefix is prepended to agent names to form request subjects.
const DefaultSubjectPrefix = "lawgpt.agent"

// Subject returns the request subject for an agent.
func Subject(prefix, name string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + "." + name
}

// Requester is the subset of *nats.Conn used by NATSAgent.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// reply is the wire envelope of an agent answer on NATS.
type reply struct {
	Payload *domain.Payload    `json:"payload,omitempty"`
	Error   *domain.AgentError `json:"error,omitempty"`
}

// NATSAgent calls an agent served by another process over NATS request/reply.
type NATSAgent struct {
	name    string
	subject string
	conn    Requester
}

func NewNATSAgent(name, prefix string, conn Requester) *NATSAgent {
	return &NATSAgent{name: name, subject: Subject(prefix, name), conn: conn}
}

func (a *NATSAgent) Name() string { return a.name }

func (a *NATSAgent) Call(ctx context.Context, req Request) (*domain.Payload, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	msg, err := a.conn.RequestWithContext(ctx, a.subject, data)
	switch {
	case err == nil:
	case errors.Is(err, nats.ErrNoResponders):
		return nil, Unavailable(fmt.Errorf("no responders on %s", a.subject))
	case errors.Is(err, nats.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("request %s: %w", a.subject, context.DeadlineExceeded)
	default:
		return nil, Unavailable(fmt.Errorf("request %s: %w", a.subject, err))
	}
	return decodeReply(msg.Data)
}

// decodeReply turns a reply envelope into a payload or an agent error.
func decodeReply(data []byte) (*domain.Payload, error) {
	var r reply
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, InvalidResponse(fmt.Errorf("decode reply: %w", err))
	}
	if r.Error != nil {
		kind := r.Error.Kind
		switch kind {
		case domain.KindUnavailable, domain.KindTimeout, domain.KindInvalidResponse:
		default:
			kind = domain.KindInvalidResponse
		}
		return nil, &Error{Kind: kind, Err: errors.New(r.Error.Message)}
	}
	if r.Payload == nil {
		return nil, InvalidResponse(errors.New("reply has neither payload nor error"))
	}
	return r.Payload, nil
}

// Subscriber is the subset of *nats.Conn used by Serve.
type Subscriber interface {
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Serve answers requests for each agent on its subject until ctx is done.
// Replicas sharing queue split the load.
func Serve(ctx context.Context, conn Subscriber, prefix, queue string, timeout time.Duration, logger *slog.Logger, agents ...Agent) error {
	if logger == nil {
		logger = slog.Default()
	}
	subs := make([]*nats.Subscription, 0, len(agents))
	defer func() {
		for _, s := range subs {
			if err := s.Drain(); err != nil {
				logger.Warn("drain subscription", "subject", s.Subject, "error", err)
			}
		}
	}()

	for _, a := range agents {
		subject := Subject(prefix, a.Name())
		sub, err := conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
			out := handleRequest(ctx, a, msg.Data, timeout)
			if err := msg.Respond(out); err != nil {
				logger.Warn("respond", "subject", subject, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
		logger.Info("serving agent", "agent", a.Name(), "subject", subject, "queue", queue)
	}

	<-ctx.Done()
	return nil
}

// handleRequest runs one agent call and encodes the reply envelope.
func handleRequest(ctx context.Context, a Agent, data []byte, timeout time.Duration) []byte {
	var req Request
	var r reply
	if err := json.Unmarshal(data, &req); err != nil {
		r.Error = &domain.AgentError{Kind: domain.KindInvalidResponse, Message: "decode request: " + err.Error()}
	} else {
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		cctx, cancel := context.WithTimeout(ctx, timeout)
		p, err := a.Call(cctx, req)
		cancel()
		if err != nil {
			r.Error = &domain.AgentError{Kind: classify(err), Message: err.Error()}
		} else {
			if p == nil {
				p = &domain.Payload{}
			}
			r.Payload = p
		}
	}
	out, err := json.Marshal(r)
	if err != nil {
		out, _ = json.Marshal(reply{Error: &domain.AgentError{Kind: domain.KindInvalidResponse, Message: err.Error()}})
	}
	return out
}
