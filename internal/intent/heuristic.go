package intent

import (
	"math"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/keywords"
)

var analysisTerms = map[string]struct{}{
	"explain": {}, "explanation": {}, "why": {}, "how": {}, "draft": {},
	"analyze": {}, "analyse": {}, "analysis": {}, "interpret": {},
	"meaning": {}, "mean": {}, "means": {}, "compare": {}, "difference": {},
	"summarize": {}, "summarise": {}, "advise": {}, "implications": {},
	"samjhao": {}, "matlab": {}, "kyun": {},
}

var searchTerms = map[string]struct{}{
	"find": {}, "search": {}, "section": {}, "sections": {}, "case": {},
	"cases": {}, "act": {}, "article": {}, "clause": {}, "provision": {},
	"provisions": {}, "list": {}, "show": {}, "lookup": {}, "locate": {},
	"judgment": {}, "judgments": {}, "page": {},
}

const (
	hybridConfidence = 0.5
	baseConfidence   = 0.6
	stepConfidence   = 0.1
	maxConfidence    = 0.9
)

// Heuristic classifies text by keyword rules alone. It is pure: the same text
// always yields the same intent.
func Heuristic(text string) domain.Intent {
	var analysisHits, searchHits int
	// Stop words are kept: "why", "how" and "section" carry intent.
	for _, tok := range keywords.Words(text) {
		if _, ok := analysisTerms[tok]; ok {
			analysisHits++
		}
		if _, ok := searchTerms[tok]; ok {
			searchHits++
		}
	}

	switch {
	case analysisHits > 0 && searchHits == 0:
		return domain.Intent{Category: domain.CategoryAnalysis, Confidence: signalConfidence(analysisHits)}
	case searchHits > 0 && analysisHits == 0:
		return domain.Intent{Category: domain.CategorySearch, Confidence: signalConfidence(searchHits)}
	default:
		return domain.Intent{Category: domain.CategoryHybrid, Confidence: hybridConfidence}
	}
}

func signalConfidence(hits int) float64 {
	c := baseConfidence + stepConfidence*float64(hits-1)
	c = math.Min(c, maxConfidence)
	// Round away float noise so equal hit counts compare equal.
	return math.Round(c*100) / 100
}
