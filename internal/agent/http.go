package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/lawgpt/internal/domain"
)

// HTTPAgent forwards to another lawgpt instance over its public API. A search
// agent calls /search-law, an analysis agent calls /explain-law.
type HTTPAgent struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPAgent(name, baseURL, apiKey string) *HTTPAgent {
	return &HTTPAgent{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (a *HTTPAgent) Name() string { return a.name }

func (a *HTTPAgent) Call(ctx context.Context, req Request) (*domain.Payload, error) {
	if a.name == NameAnalysis {
		var resp domain.ExplainLawResponse
		err := a.post(ctx, "/explain-law", domain.ExplainLawRequest{
			Query:        req.Query.Text,
			MaxResults:   req.Query.MaxResults,
			LanguageHint: req.Query.LanguageHint,
		}, &resp, req.RequestID)
		if err != nil {
			return nil, err
		}
		if resp.Explanation == "" {
			return nil, InvalidResponse(fmt.Errorf("remote %s returned no explanation", a.baseURL))
		}
		return &domain.Payload{
			Keywords: resp.Keywords,
			Explanation: &domain.Explanation{
				Text:      resp.Explanation,
				Citations: resp.Sources,
				Context:   domain.ViewsToResults(resp.UsedResults),
				Keywords:  resp.Keywords,
			},
		}, nil
	}

	var resp domain.SearchLawResponse
	err := a.post(ctx, "/search-law", domain.SearchLawRequest{
		Query:      req.Query.Text,
		MaxResults: req.Query.MaxResults,
	}, &resp, req.RequestID)
	if err != nil {
		return nil, err
	}
	return &domain.Payload{
		Results:  domain.ViewsToResults(resp.Results),
		Keywords: resp.Keywords,
	}, nil
}

// post sends body as JSON and decodes the answer into out. Rate limits,
// server errors and transport failures are Unavailable; other statuses and
// undecodable bodies are InvalidResponse.
func (a *HTTPAgent) post(ctx context.Context, path string, body, out any, requestID string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	if requestID != "" {
		httpReq.Header.Set("X-Request-Id", requestID)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s %s: %w", a.name, path, ctx.Err())
		}
		return Unavailable(fmt.Errorf("%s %s: %w", a.name, path, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Unavailable(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Unavailable(fmt.Errorf("%s %s: status %d: %s", a.name, path, resp.StatusCode, truncate(string(respBody), 200)))
	}
	if resp.StatusCode != http.StatusOK {
		return InvalidResponse(fmt.Errorf("%s %s: status %d: %s", a.name, path, resp.StatusCode, truncate(string(respBody), 200)))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return InvalidResponse(fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
