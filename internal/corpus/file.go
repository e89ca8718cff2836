package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/parser"
)

// FileRepository reads the corpus from local paths. A path may be a JSONL
// corpus file, a single act file, or a directory holding either.
type FileRepository struct {
	paths    []string
	ingester Ingester
	logger   *slog.Logger
}

func NewFileRepository(paths []string, ingester Ingester, logger *slog.Logger) *FileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileRepository{paths: paths, ingester: ingester, logger: logger}
}

// FetchAll loads every path in order. A missing path is an error; an act file
// that fails to parse is logged and skipped.
func (r *FileRepository) FetchAll(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	for _, root := range r.paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("corpus path: %w", err)
		}
		if !info.IsDir() {
			got, err := r.load(ctx, root)
			if err != nil {
				return nil, err
			}
			docs = append(docs, got...)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !Watched(path) {
				return nil
			}
			got, err := r.load(ctx, path)
			if err != nil {
				return err
			}
			docs = append(docs, got...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return docs, nil
}

func (r *FileRepository) load(ctx context.Context, path string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isJSONL(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		docs, err := ReadJSONL(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return docs, nil
	}

	docs, err := r.ingester.File(path)
	if err != nil {
		r.logger.Warn("skipping act file", "path", path, "error", err)
		return nil, nil
	}
	r.logger.Debug("ingested act file", "path", path, "documents", len(docs))
	return docs, nil
}

func isJSONL(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jsonl")
}

// Watched reports whether a file can contribute to the corpus.
func Watched(path string) bool {
	return isJSONL(path) || parser.IsSupportedExtension(path)
}
