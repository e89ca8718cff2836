package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgallion1/lawgpt/internal/agent"
	"github.com/dgallion1/lawgpt/internal/chunker"
	"github.com/dgallion1/lawgpt/internal/config"
	"github.com/dgallion1/lawgpt/internal/corpus"
	"github.com/dgallion1/lawgpt/internal/keywords"
	"github.com/dgallion1/lawgpt/internal/pathstore"
	"github.com/dgallion1/lawgpt/internal/reasoning"
	"github.com/dgallion1/lawgpt/internal/retrieval"
)

// corpusPaths are the configured corpus paths plus the upload directory.
func corpusPaths(cfg config.Config) []string {
	paths := slices.Clone(cfg.Corpus.Paths)
	if dir := cfg.Corpus.UploadDir; dir != "" && !slices.Contains(paths, dir) {
		paths = append(paths, dir)
	}
	return paths
}

func ingester(cfg config.Config) corpus.Ingester {
	return corpus.Ingester{Chunking: chunker.Config{
		ChunkSize:    cfg.Corpus.ChunkSize,
		ChunkOverlap: cfg.Corpus.ChunkOverlap,
	}}
}

// corpusStack is the corpus store and the clients behind it.
type corpusStack struct {
	store *corpus.Store
	ps    *pathstore.Client // nil for the file source
}

func (c corpusStack) Close() {
	if c.ps != nil {
		c.ps.Close()
	}
}

func newCorpus(cfg config.Config, log *slog.Logger) corpusStack {
	if cfg.Corpus.Source == config.SourcePathstore {
		ps := pathstore.NewClient(cfg.Corpus.PathstoreURL, cfg.Corpus.PathstoreAPIKey, 0)
		remote := corpus.NewPathstoreRepository(ps, cfg.Corpus.PathstorePrefix, log)
		cached := corpus.NewCachedRepository(remote, cfg.Corpus.CacheTTL, log)
		return corpusStack{store: corpus.NewStore(cached, log), ps: ps}
	}
	repo := corpus.NewFileRepository(corpusPaths(cfg), ingester(cfg), log)
	return corpusStack{store: corpus.NewStore(repo, log)}
}

// reasoner is an LLM client that both classifies and explains.
type reasoner interface {
	reasoning.IntentReasoner
	reasoning.Analyzer
}

// newReasoner returns the configured LLM client, or nil for the template
// provider. The close func is always non-nil.
func newReasoner(ctx context.Context, cfg config.Config) (reasoner, func(), error) {
	rc := cfg.Reasoning
	switch rc.Provider {
	case config.ProviderClaude:
		c := reasoning.NewClaudeClient(rc.AnthropicAPIKey, rc.AnthropicModel)
		return c, c.Close, nil
	case config.ProviderGemini:
		c, err := reasoning.NewGeminiClient(ctx, rc.GeminiAPIKey, rc.GeminiModel)
		if err != nil {
			return nil, func() {}, fmt.Errorf("gemini client: %w", err)
		}
		return c, func() { c.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

// localAgents builds the in-process search and analysis agents.
func localAgents(cfg config.Config, source agent.SnapshotSource, r reasoner) []agent.Agent {
	extractor := keywords.New(cfg.Retrieval.MaxKeywords)
	if len(cfg.Retrieval.Synonyms) > 0 {
		extractor = extractor.WithSynonyms(cfg.Retrieval.Synonyms)
	}
	engine := retrieval.NewEngine(retrieval.Config{
		TitleWeight:   cfg.Retrieval.TitleWeight,
		ContentWeight: cfg.Retrieval.ContentWeight,
		MaxScanDocs:   cfg.Retrieval.MaxScanDocs,
	})
	var analyzer reasoning.Analyzer = reasoning.Template{}
	if r != nil {
		analyzer = r
	}
	return []agent.Agent{
		agent.NewSearchAgent(source, extractor, engine),
		agent.NewAnalysisAgent(source, extractor, engine, analyzer),
	}
}
