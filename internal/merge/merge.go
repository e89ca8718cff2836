// Package merge combines agent outputs into one response.
package merge

import (
	"sort"
	"strings"

	"github.com/dgallion1/lawgpt/internal/domain"
)

// UnavailableExplanation is used when no agent produced anything.
const UnavailableExplanation = "The legal search and explanation services are temporarily unavailable, " +
	"so no documents could be retrieved for this query. Please try again shortly."

// Merger is deterministic: the same inputs always produce the same response.
type Merger struct {
	// SnippetChars bounds each result snippet.
	SnippetChars int
}

// Combine unions search results with the documents the explanation cites,
// keeps the best score per document, ranks and truncates to MaxResults.
// Sources are the cited document IDs in citation order.
func (m Merger) Combine(q domain.Query, in domain.Intent, results []domain.AgentResult) domain.ChatResponse {
	var (
		candidates   []domain.ScoredResult
		explanations []string
		sources      []string
		seenSource   = make(map[string]struct{})
		succeeded    int
	)

	for _, r := range results {
		if !r.OK() {
			continue
		}
		succeeded++
		candidates = append(candidates, r.Payload.Results...)

		ex := r.Payload.Explanation
		if ex == nil {
			continue
		}
		if t := strings.TrimSpace(ex.Text); t != "" {
			explanations = append(explanations, t)
		}
		cited := make(map[string]struct{}, len(ex.Citations))
		for _, id := range ex.Citations {
			cited[id] = struct{}{}
			if _, ok := seenSource[id]; !ok {
				seenSource[id] = struct{}{}
				sources = append(sources, id)
			}
		}
		for _, c := range ex.Context {
			if _, ok := cited[c.Document.ID]; ok {
				candidates = append(candidates, c)
			}
		}
	}

	ranked := dedupe(candidates)
	if q.MaxResults > 0 && len(ranked) > q.MaxResults {
		ranked = ranked[:q.MaxResults]
	}

	resp := domain.ChatResponse{
		Query:       q.Text,
		Intent:      in,
		Explanation: strings.Join(explanations, "\n\n"),
		Sources:     sources,
		Diagnostics: domain.Diagnostics{
			Degraded: succeeded < len(results),
			Agents:   diagnostics(results),
		},
	}
	if resp.Sources == nil {
		resp.Sources = []string{}
	}
	if succeeded == 0 && len(results) > 0 {
		resp.Explanation = UnavailableExplanation
	}
	resp.SetRanked(ranked, m.SnippetChars)
	return resp
}

// dedupe keeps the highest-scoring entry per document ID and returns the
// survivors in ranking order.
func dedupe(candidates []domain.ScoredResult) []domain.ScoredResult {
	sorted := make([]domain.ScoredResult, len(candidates))
	copy(sorted, candidates)
	domain.SortResults(sorted)

	out := make([]domain.ScoredResult, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, c := range sorted {
		if _, ok := seen[c.Document.ID]; ok {
			continue
		}
		seen[c.Document.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func diagnostics(results []domain.AgentResult) []domain.AgentDiagnostic {
	out := make([]domain.AgentDiagnostic, 0, len(results))
	for _, r := range results {
		d := domain.AgentDiagnostic{
			Agent:     r.Agent,
			Status:    domain.StatusOK,
			LatencyMs: r.LatencyMs,
			Attempts:  r.Attempts,
		}
		if !r.OK() {
			d.Status = domain.StatusError
			if r.Err != nil {
				d.Kind = r.Err.Kind
				d.Error = r.Err.Message
			}
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}
