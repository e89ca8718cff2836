package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient implements IntentReasoner and Analyzer with the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a client for the Gemini API using an API key.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	return newGeminiClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
}

func newGeminiClient(ctx context.Context, cfg *genai.ClientConfig, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) ClassifyIntent(ctx context.Context, text string) (Verdict, error) {
	out, err := c.generate(ctx, BuildClassifyPrompt(text), 0.0, 256)
	if err != nil {
		return Verdict{}, fmt.Errorf("classify intent: %w", err)
	}
	var v Verdict
	if err := decodeJSON(out, &v); err != nil {
		return Verdict{}, fmt.Errorf("parse verdict: %w", err)
	}
	return v, nil
}

func (c *GeminiClient) Analyze(ctx context.Context, req AnalysisRequest) (Analysis, error) {
	out, err := c.generate(ctx, BuildAnalyzePrompt(req), 0.3, 2048)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze: %w", err)
	}
	var a Analysis
	if err := decodeJSON(out, &a); err != nil {
		return Analysis{}, fmt.Errorf("parse analysis: %w", err)
	}
	return a, nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx,
		c.model,
		[]*genai.Content{
			{Parts: []*genai.Part{{Text: prompt}}, Role: "user"},
		},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr(temperature),
			MaxOutputTokens:  maxTokens,
		},
	)
	if err != nil {
		return "", classifyGenaiError(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classifyGenaiError marks rate limits and server errors as retryable and a
// response body the SDK cannot decode as malformed.
func classifyGenaiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return &RetryableError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return err
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &MalformedError{Err: err}
	}
	return err
}

func (c *GeminiClient) Close() error {
	return nil
}
