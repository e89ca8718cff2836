// Package domain holds the request-scoped value types shared by the router,
// the agents and the HTTP boundary.
package domain

import (
	"sort"
	"strings"
)

// Document is one indexed page of an act. Documents are owned by the corpus
// repository and never mutated by the core.
type Document struct {
	ID      string `json:"id"`
	ActName string `json:"act_name"`
	Title   string `json:"title"`
	PageNo  int    `json:"page_no"`
	Content string `json:"content"`
}

// ScoredResult is a document ranked against a keyword set.
type ScoredResult struct {
	Document        Document `json:"document"`
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// Less reports whether a ranks before b: higher score first, then ascending
// document ID.
func Less(a, b ScoredResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return strings.Compare(a.Document.ID, b.Document.ID) < 0
}

// SortResults orders results in place by the ranking rule.
func SortResults(results []ScoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return Less(results[i], results[j])
	})
}
