package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/lawgpt/internal/agent"
	"github.com/dgallion1/lawgpt/internal/domain"
)

func (s *Server) handleSearchLaw(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchLawRequest
	if !s.decode(w, r, &req) {
		return
	}
	q, err := domain.NewQuery(req.Query, req.MaxResults, "", s.cfg.Retrieval.MaxResults)
	if err != nil {
		writeError(w, err)
		return
	}

	res, ok := s.invoke(w, r, agent.NameSearch, q)
	if !ok {
		return
	}
	keywords := res.Payload.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	writeJSON(w, http.StatusOK, domain.SearchLawResponse{
		Query:    q.Text,
		Keywords: keywords,
		Results:  domain.ResultsToViews(res.Payload.Results, s.cfg.Retrieval.SnippetChars),
	})
}

func (s *Server) handleExplainLaw(w http.ResponseWriter, r *http.Request) {
	var req domain.ExplainLawRequest
	if !s.decode(w, r, &req) {
		return
	}
	q, err := domain.NewQuery(req.Query, req.MaxResults, req.LanguageHint, s.cfg.Retrieval.MaxResults)
	if err != nil {
		writeError(w, err)
		return
	}

	res, ok := s.invoke(w, r, agent.NameAnalysis, q)
	if !ok {
		return
	}
	exp := res.Payload.Explanation
	if exp == nil {
		writeError(w, domain.NewUnavailableError("analysis agent returned no explanation", nil))
		return
	}
	keywords := exp.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	sources := exp.Citations
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, domain.ExplainLawResponse{
		Query:       q.Text,
		Keywords:    keywords,
		UsedResults: domain.ResultsToViews(exp.Context, s.cfg.Retrieval.SnippetChars),
		Explanation: exp.Text,
		Sources:     sources,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chat == nil {
		writeError(w, domain.NewUnavailableError("chat is not configured", nil))
		return
	}
	var req domain.ChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.deps.Chat.Handle(r.Context(), req)
	if err != nil {
		var appErr *domain.AppError
		if !errors.As(err, &appErr) || appErr.StatusCode >= 500 {
			s.log.Error("chat failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// invoke calls one agent directly. A failed agent is answered with 503 and
// false is returned.
func (s *Server) invoke(w http.ResponseWriter, r *http.Request, name string, q domain.Query) (domain.AgentResult, bool) {
	if s.deps.Agents == nil {
		writeError(w, domain.NewUnavailableError(name+" agent is not configured", nil))
		return domain.AgentResult{}, false
	}
	ctx := r.Context()
	res := s.deps.Agents.Invoke(ctx, name, agent.Request{
		RequestID: middleware.GetReqID(ctx),
		Query:     q,
	}, s.cfg.Routing.AgentTimeout)
	if !res.OK() {
		msg := name + " agent failed"
		var cause error
		if res.Err != nil {
			cause = res.Err
			msg += ": " + string(res.Err.Kind)
		}
		s.log.Warn("agent call failed", "agent", name, "request_id", middleware.GetReqID(ctx), "error", cause)
		writeError(w, domain.NewUnavailableError(msg, cause))
		return res, false
	}
	return res, true
}

// decode reads a JSON body capped at MaxBodyBytes and answers 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if s.cfg.Server.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, domain.NewInvalidQueryError("request body too large"))
			return false
		}
		writeError(w, domain.NewInvalidQueryError("invalid JSON body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders err as an ErrorResponse. Errors that are not an
// *domain.AppError become 500 without their message.
func writeError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.NewInternalError("internal error", err)
	}
	if appErr.Retryable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	writeJSON(w, appErr.StatusCode, domain.ErrorResponse{
		Error:     appErr.Message,
		Code:      string(appErr.Category),
		Retryable: appErr.Retryable,
	})
}

// retryAfterSeconds is the client back-off sent with retryable failures.
const retryAfterSeconds = 2

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, domain.ErrorResponse{Error: msg})
}
