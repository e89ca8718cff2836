package keywords

import (
	"strings"
	"unicode"
)

// stopWords are dropped from queries and document fields alike.
var stopWords = map[string]struct{}{
	// Legal boilerplate.
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "into": {}, "have": {}, "has": {}, "shall": {}, "will": {},
	"been": {}, "were": {}, "was": {}, "are": {}, "your": {}, "you": {},
	"hereby": {}, "such": {}, "any": {}, "other": {}, "their": {}, "thereof": {},
	"law": {}, "section": {}, "article": {}, "acts": {},
	// Function words.
	"a": {}, "an": {}, "as": {}, "at": {}, "be": {}, "by": {}, "do": {},
	"does": {}, "i": {}, "if": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"me": {}, "my": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {},
	"our": {}, "so": {}, "than": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "to": {}, "under": {}, "upon": {}, "us": {}, "we": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "whom": {},
	"can": {}, "could": {}, "should": {}, "would": {}, "may": {}, "might": {},
	"about": {}, "tell": {}, "please": {},
}

// IsStopWord reports whether w (lower case) is in the fixed stop-word set.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Extractor turns free text into ordered, deduplicated keywords.
// The zero value is usable: no synonyms, no cap.
type Extractor struct {
	// MaxKeywords caps the output of Extract. Zero means unlimited.
	MaxKeywords int

	synonyms map[string][]string
}

// New returns an Extractor that keeps at most maxKeywords keywords per query.
func New(maxKeywords int) *Extractor {
	return &Extractor{MaxKeywords: maxKeywords}
}

// WithSynonyms returns a copy of e that appends synonyms after the original
// keywords. Keys and values are lower-cased.
func (e *Extractor) WithSynonyms(syn map[string][]string) *Extractor {
	cp := &Extractor{MaxKeywords: e.MaxKeywords, synonyms: make(map[string][]string, len(syn))}
	for k, vs := range syn {
		k = strings.ToLower(k)
		for _, v := range vs {
			cp.synonyms[k] = append(cp.synonyms[k], strings.ToLower(v))
		}
	}
	return cp
}

// Extract returns the query keywords for text. The cap applies to the
// original terms; synonyms of kept terms follow them. Empty input yields an
// empty, non-nil slice.
func (e *Extractor) Extract(text string) []string {
	terms := Terms(text)
	if e.MaxKeywords > 0 && len(terms) > e.MaxKeywords {
		terms = terms[:e.MaxKeywords]
	}
	if len(e.synonyms) == 0 {
		return terms
	}

	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		seen[t] = struct{}{}
	}
	out := terms
	for _, t := range terms {
		for _, s := range e.synonyms[t] {
			for _, st := range Terms(s) {
				if _, ok := seen[st]; ok {
					continue
				}
				seen[st] = struct{}{}
				out = append(out, st)
			}
		}
	}
	return out
}

// Terms lower-cases text, splits it on anything that is not a letter or digit,
// and drops stop words and single-character tokens. Order is first occurrence.
func Terms(text string) []string {
	fields := Words(text)

	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 || IsStopWord(f) {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Words lower-cases text and splits it on anything that is not a letter or
// digit, without any filtering.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Set returns the terms of text as a lookup set.
func Set(text string) map[string]struct{} {
	terms := Terms(text)
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}
