package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/pathstore"
)

// DefaultPrefix is the pathstore key prefix for corpus documents.
const DefaultPrefix = "lawgpt/acts"

// NodeStore is the subset of the pathstore client the corpus uses.
type NodeStore interface {
	ListChildren(ctx context.Context, key string, limit int) ([]pathstore.Node, error)
	PutNode(ctx context.Context, key string, req pathstore.NodeRequest) error
	DeleteNode(ctx context.Context, key string, recursive bool) error
}

// PathstoreRepository keeps documents in pathstore, one node per document
// under prefix.
type PathstoreRepository struct {
	store     NodeStore
	prefix    string
	logger    *slog.Logger
	retryBase time.Duration
}

func NewPathstoreRepository(store NodeStore, prefix string, logger *slog.Logger) *PathstoreRepository {
	if prefix = strings.Trim(prefix, "/"); prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PathstoreRepository{store: store, prefix: prefix, logger: logger, retryBase: time.Second}
}

// FetchAll lists every document under the prefix. Nodes that do not decode
// to a valid document are logged and skipped.
func (r *PathstoreRepository) FetchAll(ctx context.Context) ([]domain.Document, error) {
	nodes, err := r.store.ListChildren(ctx, r.prefix, 0)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.prefix, err)
	}
	docs := make([]domain.Document, 0, len(nodes))
	for _, n := range nodes {
		var d domain.Document
		if err := json.Unmarshal(n.Value, &d); err != nil {
			r.logger.Warn("skipping undecodable corpus node", "key", n.Key, "error", err)
			continue
		}
		if err := validate(d); err != nil {
			r.logger.Warn("skipping invalid corpus node", "key", n.Key, "error", err)
			continue
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Publish writes docs with at most concurrency requests in flight. When
// replace is set the prefix is cleared first.
func (r *PathstoreRepository) Publish(ctx context.Context, docs []domain.Document, concurrency int, replace bool) error {
	if replace {
		if err := r.store.DeleteNode(ctx, r.prefix, true); err != nil {
			return fmt.Errorf("clear %s: %w", r.prefix, err)
		}
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, d := range docs {
		g.Go(func() error {
			if err := r.put(gctx, d); err != nil {
				return fmt.Errorf("publish %s: %w", d.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	r.logger.Info("corpus published", "prefix", r.prefix, "documents", len(docs))
	return nil
}

// put writes one document, retrying rate limits and server errors.
func (r *PathstoreRepository) put(ctx context.Context, d domain.Document) error {
	req := pathstore.NodeRequest{Value: d, Source: "lawgpt-ingest"}
	for attempt := 0; ; attempt++ {
		err := r.store.PutNode(ctx, r.key(d.ID), req)
		if err == nil || attempt >= pathstore.MaxRetries || !pathstore.IsRetryable(err) {
			return err
		}
		wait := pathstore.Backoff(attempt, r.retryBase)
		r.logger.Warn("retrying corpus write", "id", d.ID, "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (r *PathstoreRepository) key(id string) string {
	return r.prefix + "/" + id
}
