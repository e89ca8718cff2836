package retrieval

import (
	"github.com/dgallion1/lawgpt/internal/domain"
)

// Config controls scoring.
type Config struct {
	TitleWeight   float64 // Contribution of a keyword found in the title.
	ContentWeight float64 // Contribution of a keyword found in the content.
	MaxScanDocs   int     // Documents scored per search. Zero means all.
}

// DefaultConfig returns a 2:1 title to content weighting.
func DefaultConfig() Config {
	return Config{
		TitleWeight:   2,
		ContentWeight: 1,
		MaxScanDocs:   2000,
	}
}

// Engine scores and ranks documents. It holds no mutable state, so one Engine
// serves any number of concurrent searches.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine. Non-positive weights fall back to the defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.TitleWeight <= 0 && cfg.ContentWeight <= 0 {
		cfg.TitleWeight = def.TitleWeight
		cfg.ContentWeight = def.ContentWeight
	}
	if cfg.TitleWeight < 0 {
		cfg.TitleWeight = 0
	}
	if cfg.ContentWeight < 0 {
		cfg.ContentWeight = 0
	}
	if cfg.MaxScanDocs < 0 {
		cfg.MaxScanDocs = 0
	}
	return &Engine{cfg: cfg}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Search ranks the documents of snap against kws and returns at most limit
// results. Documents without any overlap are excluded. Empty keywords, an empty
// snapshot, or a non-positive limit yield an empty slice.
func (e *Engine) Search(kws []string, snap *Snapshot, limit int) []domain.ScoredResult {
	results := []domain.ScoredResult{}
	if len(kws) == 0 || snap.Len() == 0 || limit <= 0 {
		return results
	}

	kws = dedupe(kws)
	if len(kws) == 0 {
		return results
	}
	norm := (e.cfg.TitleWeight + e.cfg.ContentWeight) * float64(len(kws))

	docs := snap.docs
	if e.cfg.MaxScanDocs > 0 && len(docs) > e.cfg.MaxScanDocs {
		docs = docs[:e.cfg.MaxScanDocs]
	}

	for _, d := range docs {
		var raw float64
		var matched []string
		for _, kw := range kws {
			_, inTitle := d.title[kw]
			_, inContent := d.content[kw]
			if !inTitle && !inContent {
				continue
			}
			if inTitle {
				raw += e.cfg.TitleWeight
			}
			if inContent {
				raw += e.cfg.ContentWeight
			}
			matched = append(matched, kw)
		}
		if len(matched) == 0 || raw <= 0 {
			continue
		}
		score := raw / norm
		if score > 1 {
			score = 1
		}
		results = append(results, domain.ScoredResult{
			Document:        d.doc,
			Score:           score,
			MatchedKeywords: matched,
		})
	}

	domain.SortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func dedupe(kws []string) []string {
	seen := make(map[string]struct{}, len(kws))
	out := make([]string, 0, len(kws))
	for _, k := range kws {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
