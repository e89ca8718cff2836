package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lawgpt/internal/config"
	"github.com/dgallion1/lawgpt/internal/corpus"
	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/pathstore"
)

type ingestOptions struct {
	out         string
	publish     bool
	replace     bool
	concurrency int
}

func ingestCmd(load loader) *cobra.Command {
	var opts ingestOptions
	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Parse act files into a JSONL corpus",
		Long: `Ingest parses every supported act file under dir (PDF, DOCX, HTML,
Markdown, text, CSV) into page documents and writes them as JSONL.
With --publish the documents are also stored in pathstore.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			return ingest(cmd.Context(), cfg, log, args[0], opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "corpus.jsonl", `Output file ("-" for stdout)`)
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Also publish documents to pathstore")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Clear the pathstore prefix before publishing")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 8, "Concurrent pathstore writes")
	return cmd
}

func ingest(ctx context.Context, cfg config.Config, log *slog.Logger, dir string, opts ingestOptions, stdout io.Writer) error {
	repo := corpus.NewFileRepository([]string{dir}, ingester(cfg), log)
	docs, err := repo.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", dir, err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no act documents found under %s", dir)
	}

	if err := writeCorpus(opts.out, docs, stdout); err != nil {
		return err
	}
	log.Info("corpus written", "out", opts.out, "documents", len(docs), "acts", countActs(docs))

	if !opts.publish {
		return nil
	}
	ps := pathstore.NewClient(cfg.Corpus.PathstoreURL, cfg.Corpus.PathstoreAPIKey, 0)
	defer ps.Close()
	remote := corpus.NewPathstoreRepository(ps, cfg.Corpus.PathstorePrefix, log)
	if err := remote.Publish(ctx, docs, opts.concurrency, opts.replace); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	log.Info("corpus published", "url", cfg.Corpus.PathstoreURL, "prefix", cfg.Corpus.PathstorePrefix, "documents", len(docs))
	return nil
}

func writeCorpus(out string, docs []domain.Document, stdout io.Writer) error {
	if out == "-" {
		return corpus.WriteJSONL(stdout, docs)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := corpus.WriteJSONL(f, docs); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	return f.Close()
}

func countActs(docs []domain.Document) int {
	acts := make(map[string]struct{})
	for _, d := range docs {
		acts[d.ActName] = struct{}{}
	}
	return len(acts)
}
