package corpus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dgallion1/lawgpt/internal/domain"
)

// CachedRepository serves a remote corpus from memory for ttl. Concurrent
// misses share one fetch, and a failed refresh serves the last good copy.
type CachedRepository struct {
	repo   Repository
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	docs      []domain.Document
	fetchedAt time.Time
}

func NewCachedRepository(repo Repository, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{repo: repo, ttl: ttl, logger: logger, now: time.Now}
}

func (c *CachedRepository) FetchAll(ctx context.Context) ([]domain.Document, error) {
	c.mu.RLock()
	docs, at := c.docs, c.fetchedAt
	c.mu.RUnlock()
	if docs != nil && c.now().Sub(at) < c.ttl {
		return docs, nil
	}

	fresh, err := shareFetch(ctx, &c.group, "all", DefaultLoadTimeout, func(ctx context.Context) ([]domain.Document, error) {
		fresh, err := c.repo.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		if fresh == nil {
			fresh = []domain.Document{}
		}
		c.mu.Lock()
		c.docs, c.fetchedAt = fresh, c.now()
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		if docs != nil {
			c.logger.Warn("corpus refresh failed, serving cached copy", "error", err, "age", c.now().Sub(at))
			return docs, nil
		}
		return nil, err
	}
	return fresh, nil
}

// Invalidate forces the next FetchAll to go to the repository.
func (c *CachedRepository) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
