package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lawgpt/internal/agent"
	"github.com/dgallion1/lawgpt/internal/config"
)

func agentCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "agent",
		Short: "Serve the search and analysis agents over NATS",
		Long: `Agent loads the corpus and answers agent requests on
<NATS_SUBJECT_PREFIX>.search and <NATS_SUBJECT_PREFIX>.analysis. Replicas
share the NATS_QUEUE group.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runAgents(ctx, cfg, log)
		},
	}
}

func runAgents(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.Agents.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required to serve agents")
	}

	cs := newCorpus(cfg, log)
	defer cs.Close()
	if snap, err := cs.store.Snapshot(ctx); err != nil {
		log.Error("initial corpus load failed", "error", err)
	} else {
		log.Info("corpus ready", "documents", snap.Len())
	}
	if cfg.Corpus.Source == config.SourcePathstore {
		go cs.store.RefreshEvery(ctx, cfg.Corpus.CacheTTL)
	}

	llm, closeLLM, err := newReasoner(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLLM()

	nc, err := connectNATS(cfg.Agents.NATSURL, log)
	if err != nil {
		return err
	}
	defer nc.Close()

	log.Info("serving agents", "url", cfg.Agents.NATSURL, "prefix", cfg.Agents.NATSSubject, "queue", cfg.Agents.NATSQueue)
	return agent.Serve(ctx, nc, cfg.Agents.NATSSubject, cfg.Agents.NATSQueue, cfg.Agents.NATSServeTimeout, log,
		localAgents(cfg, cs.store, llm)...)
}
