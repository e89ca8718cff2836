package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dgallion1/lawgpt/internal/metrics"
	"github.com/dgallion1/lawgpt/internal/retrieval"
)

// Store holds the active snapshot. Readers always see a complete snapshot;
// a reload builds a new one and swaps it in.
type Store struct {
	repo        Repository
	logger      *slog.Logger
	loadTimeout time.Duration
	current     atomic.Pointer[retrieval.Snapshot]
	reloads     singleflight.Group
}

func NewStore(repo Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{repo: repo, logger: logger, loadTimeout: DefaultLoadTimeout}
}

// Snapshot returns the active snapshot, loading it on first use.
func (s *Store) Snapshot(ctx context.Context) (*retrieval.Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	return s.Reload(ctx)
}

// Reload fetches the corpus and swaps in a new snapshot. Concurrent calls
// share one fetch, and a caller whose ctx ends early does not cancel it for
// the rest. On failure the previous snapshot stays active.
func (s *Store) Reload(ctx context.Context) (*retrieval.Snapshot, error) {
	return shareFetch(ctx, &s.reloads, "reload", s.loadTimeout, func(ctx context.Context) (*retrieval.Snapshot, error) {
		start := time.Now()
		docs, err := s.repo.FetchAll(ctx)
		if err != nil {
			metrics.IncCorpusReload("error")
			s.logger.Error("corpus reload failed", "error", err)
			return nil, fmt.Errorf("fetch corpus: %w", err)
		}
		snap := retrieval.NewSnapshot(docs)
		s.current.Store(snap)
		metrics.IncCorpusReload("ok")
		metrics.SetCorpusSize(snap.Len())
		s.logger.Info("corpus loaded",
			"documents", snap.Len(),
			"acts", len(snap.Acts()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return snap, nil
	})
}

type invalidator interface {
	Invalidate()
}

// ForceReload drops any cached copy held by the repository, then reloads.
func (s *Store) ForceReload(ctx context.Context) (*retrieval.Snapshot, error) {
	if inv, ok := s.repo.(invalidator); ok {
		inv.Invalidate()
	}
	return s.Reload(ctx)
}

// RefreshEvery reloads on a fixed interval until ctx is done.
func (s *Store) RefreshEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reload(ctx)
		}
	}
}
