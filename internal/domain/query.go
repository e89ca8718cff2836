package domain

import (
	"fmt"
	"strings"
)

const (
	DefaultMaxResults = 5
	MaxQueryLen       = 2000
)

// Query is a validated user request. Build it with NewQuery.
type Query struct {
	Text         string `json:"text"`
	MaxResults   int    `json:"max_results"`
	LanguageHint string `json:"language_hint,omitempty"`
}

// NewQuery validates raw input at the boundary. maxResults <= 0 selects the
// default; values above limit are capped. limit <= 0 disables the cap.
func NewQuery(text string, maxResults int, languageHint string, limit int) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, NewInvalidQueryError("query is required")
	}
	if len([]rune(text)) > MaxQueryLen {
		return Query{}, NewInvalidQueryError(fmt.Sprintf("query must be <= %d characters", MaxQueryLen))
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if limit > 0 && maxResults > limit {
		maxResults = limit
	}
	hint := strings.ToLower(strings.TrimSpace(languageHint))
	switch hint {
	case "", LanguageEnglish, LanguageHinglish:
	default:
		return Query{}, NewInvalidQueryError(fmt.Sprintf("unsupported language_hint %q", languageHint))
	}
	return Query{Text: text, MaxResults: maxResults, LanguageHint: hint}, nil
}

const (
	LanguageEnglish  = "english"
	LanguageHinglish = "hinglish"
)
