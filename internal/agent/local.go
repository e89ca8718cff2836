package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/keywords"
	"github.com/dgallion1/lawgpt/internal/metrics"
	"github.com/dgallion1/lawgpt/internal/reasoning"
	"github.com/dgallion1/lawgpt/internal/retrieval"
)

// SearchAgent ranks corpus documents against the query keywords.
type SearchAgent struct {
	source    SnapshotSource
	extractor *keywords.Extractor
	engine    *retrieval.Engine
}

func NewSearchAgent(source SnapshotSource, extractor *keywords.Extractor, engine *retrieval.Engine) *SearchAgent {
	return &SearchAgent{source: source, extractor: extractor, engine: engine}
}

func (a *SearchAgent) Name() string { return NameSearch }

func (a *SearchAgent) Call(ctx context.Context, req Request) (*domain.Payload, error) {
	kws, results, err := search(ctx, a.source, a.extractor, a.engine, req.Query)
	if err != nil {
		return nil, err
	}
	return &domain.Payload{Results: results, Keywords: kws}, nil
}

// AnalysisAgent explains a query from the top retrieved pages.
type AnalysisAgent struct {
	source    SnapshotSource
	extractor *keywords.Extractor
	engine    *retrieval.Engine
	analyzer  reasoning.Analyzer
}

func NewAnalysisAgent(source SnapshotSource, extractor *keywords.Extractor, engine *retrieval.Engine, analyzer reasoning.Analyzer) *AnalysisAgent {
	return &AnalysisAgent{source: source, extractor: extractor, engine: engine, analyzer: analyzer}
}

func (a *AnalysisAgent) Name() string { return NameAnalysis }

// Call retrieves context and asks the analyzer to explain it. Citations that
// do not name a context document are dropped. With no context the analyzer
// is skipped and the no-match guidance is returned.
func (a *AnalysisAgent) Call(ctx context.Context, req Request) (*domain.Payload, error) {
	kws, results, err := search(ctx, a.source, a.extractor, a.engine, req.Query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &domain.Payload{
			Keywords: kws,
			Explanation: &domain.Explanation{
				Text:      reasoning.NoMatchExplanation,
				Citations: []string{},
				Context:   results,
				Keywords:  kws,
			},
		}, nil
	}

	lang := req.Query.LanguageHint
	if lang == "" {
		lang = reasoning.DetectLanguage(req.Query.Text)
	}
	analysis, err := a.analyzer.Analyze(ctx, reasoning.AnalysisRequest{
		Query:        req.Query.Text,
		LanguageHint: lang,
		Keywords:     kws,
		Context:      results,
	})
	if err != nil {
		var re *reasoning.RetryableError
		if errors.As(err, &re) {
			return nil, Unavailable(err)
		}
		return nil, err
	}
	if analysis.Text == "" {
		return nil, InvalidResponse(reasoning.ErrEmptyResponse)
	}

	inContext := make(map[string]struct{}, len(results))
	for _, r := range results {
		inContext[r.Document.ID] = struct{}{}
	}
	citations := make([]string, 0, len(analysis.Citations))
	seen := make(map[string]struct{}, len(analysis.Citations))
	for _, id := range analysis.Citations {
		if _, ok := inContext[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		citations = append(citations, id)
	}

	return &domain.Payload{
		Keywords: kws,
		Explanation: &domain.Explanation{
			Text:      analysis.Text,
			Citations: citations,
			Context:   results,
			Keywords:  kws,
		},
	}, nil
}

func search(ctx context.Context, source SnapshotSource, ex *keywords.Extractor, engine *retrieval.Engine, q domain.Query) ([]string, []domain.ScoredResult, error) {
	snap, err := source.Snapshot(ctx)
	if err != nil {
		return nil, nil, Unavailable(fmt.Errorf("load corpus: %w", err))
	}
	kws := ex.Extract(q.Text)
	results := engine.Search(kws, snap, q.MaxResults)
	metrics.ObserveSearch(len(results))
	return kws, results, nil
}
