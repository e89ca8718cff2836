package retrieval

import (
	"time"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/keywords"
)

// Snapshot is an immutable, pre-tokenized view of the corpus. It is shared
// read-only between concurrent searches.
type Snapshot struct {
	docs     []indexedDoc
	byID     map[string]int
	loadedAt time.Time
}

type indexedDoc struct {
	doc     domain.Document
	title   map[string]struct{}
	content map[string]struct{}
}

// NewSnapshot tokenizes docs. Later duplicates of an ID are dropped.
func NewSnapshot(docs []domain.Document) *Snapshot {
	s := &Snapshot{
		docs:     make([]indexedDoc, 0, len(docs)),
		byID:     make(map[string]int, len(docs)),
		loadedAt: time.Now(),
	}
	for _, d := range docs {
		if _, dup := s.byID[d.ID]; dup {
			continue
		}
		s.byID[d.ID] = len(s.docs)
		s.docs = append(s.docs, indexedDoc{
			doc:     d,
			title:   keywords.Set(d.Title),
			content: keywords.Set(d.Content),
		})
	}
	return s
}

// Len returns the number of documents.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.docs)
}

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// Get returns the document with the given ID.
func (s *Snapshot) Get(id string) (domain.Document, bool) {
	if s == nil {
		return domain.Document{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return domain.Document{}, false
	}
	return s.docs[i].doc, true
}

// Documents returns a copy of the documents in load order.
func (s *Snapshot) Documents() []domain.Document {
	if s == nil {
		return nil
	}
	out := make([]domain.Document, len(s.docs))
	for i, d := range s.docs {
		out[i] = d.doc
	}
	return out
}

// Acts returns the distinct act names in load order.
func (s *Snapshot) Acts() []string {
	if s == nil {
		return nil
	}
	var acts []string
	seen := make(map[string]struct{})
	for _, d := range s.docs {
		if _, ok := seen[d.doc.ActName]; ok || d.doc.ActName == "" {
			continue
		}
		seen[d.doc.ActName] = struct{}{}
		acts = append(acts, d.doc.ActName)
	}
	return acts
}
