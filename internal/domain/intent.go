package domain

import "strings"

// Category is the classified purpose of a query.
type Category string

const (
	CategorySearch   Category = "search"
	CategoryAnalysis Category = "analysis"
	CategoryHybrid   Category = "hybrid"
)

// ParseCategory normalizes a category name. ok is false for unknown names.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategorySearch, "retrieval":
		return CategorySearch, true
	case CategoryAnalysis:
		return CategoryAnalysis, true
	case CategoryHybrid, "both":
		return CategoryHybrid, true
	}
	return "", false
}

// Intent is produced once per request and not modified afterwards.
type Intent struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

// Valid reports whether the intent has a known category and a confidence in [0,1].
func (i Intent) Valid() bool {
	if _, ok := ParseCategory(string(i.Category)); !ok {
		return false
	}
	return i.Confidence >= 0 && i.Confidence <= 1
}
