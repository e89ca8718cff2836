// Package corpus loads act documents from files or pathstore and keeps the
// snapshot the agents search.
package corpus

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/dgallion1/lawgpt/internal/domain"
)

// Repository returns every document of the corpus.
type Repository interface {
	FetchAll(ctx context.Context) ([]domain.Document, error)
}

// RepositoryFunc adapts a function to Repository.
type RepositoryFunc func(ctx context.Context) ([]domain.Document, error)

func (f RepositoryFunc) FetchAll(ctx context.Context) ([]domain.Document, error) { return f(ctx) }

var (
	errMissingID      = errors.New("document has no id")
	errMissingContent = errors.New("document has no content")
)

// validate rejects documents the engine cannot index.
func validate(d domain.Document) error {
	if strings.TrimSpace(d.ID) == "" {
		return errMissingID
	}
	if strings.TrimSpace(d.Content) == "" {
		return errMissingContent
	}
	return nil
}

// Slug lowercases s and joins its letter and digit runs with dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
