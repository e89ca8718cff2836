package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/dgallion1/lawgpt/internal/agent"
	"github.com/dgallion1/lawgpt/internal/api"
	"github.com/dgallion1/lawgpt/internal/config"
	"github.com/dgallion1/lawgpt/internal/corpus"
	"github.com/dgallion1/lawgpt/internal/intent"
	"github.com/dgallion1/lawgpt/internal/orchestrator"
)

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	cs := newCorpus(cfg, log)
	defer cs.Close()
	if snap, err := cs.store.Snapshot(ctx); err != nil {
		// Not fatal: agents report the corpus as unavailable until a reload works.
		log.Error("initial corpus load failed", "error", err)
	} else {
		log.Info("corpus ready", "documents", snap.Len(), "acts", len(snap.Acts()))
	}

	if cfg.Corpus.Source == config.SourcePathstore {
		go cs.store.RefreshEvery(ctx, cfg.Corpus.CacheTTL)
	} else if cfg.Corpus.Watch {
		w, err := corpus.NewWatcher(corpusPaths(cfg), cfg.Corpus.WatchDebounce, log, func(ctx context.Context) {
			cs.store.ForceReload(ctx)
		})
		if err != nil {
			return fmt.Errorf("watch corpus: %w", err)
		}
		go w.Run(ctx)
	}

	llm, closeLLM, err := newReasoner(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLLM()

	agents, closeAgents, err := routedAgents(cfg, cs.store, llm, log)
	if err != nil {
		return err
	}
	defer closeAgents()

	stats := agent.NewStats(time.Hour)
	gateway := agent.NewGateway(log, stats, cfg.Routing.MinRetryBudget, agents...)
	routes := orchestrator.DefaultRoutes()
	if err := orchestrator.CheckRoutes(routes, gateway.Has); err != nil {
		return err
	}

	// A nil llm leaves the classifier on the keyword heuristic.
	classifier := intent.NewClassifier(llm, cfg.Routing.ClassifyTimeout, log)
	orch := orchestrator.New(orchestrator.Config{
		RequestTimeout: cfg.Routing.RequestTimeout,
		AgentTimeout:   cfg.Routing.AgentTimeout,
		MaxResults:     cfg.Retrieval.MaxResults,
		SnippetChars:   cfg.Retrieval.SnippetChars,
		Routes:         routes,
	}, classifier, gateway, log)

	srv := api.NewServer(api.Deps{
		Chat:   orch,
		Agents: gateway,
		Corpus: cs.store,
		Stats:  stats,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Routing.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting lawgpt",
			"port", cfg.Server.Port,
			"provider", cfg.Reasoning.Provider,
			"transport", cfg.Agents.Transport,
			"corpus", cfg.Corpus.Source,
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// routedAgents builds the agents the gateway routes to, by transport.
func routedAgents(cfg config.Config, source agent.SnapshotSource, llm reasoner, log *slog.Logger) ([]agent.Agent, func(), error) {
	ac := cfg.Agents
	switch ac.Transport {
	case config.TransportHTTP:
		return []agent.Agent{
			agent.NewHTTPAgent(agent.NameSearch, ac.SearchURL, ac.APIKey),
			agent.NewHTTPAgent(agent.NameAnalysis, ac.AnalysisURL, ac.APIKey),
		}, func() {}, nil
	case config.TransportNATS:
		nc, err := connectNATS(ac.NATSURL, log)
		if err != nil {
			return nil, func() {}, err
		}
		return []agent.Agent{
			agent.NewNATSAgent(agent.NameSearch, ac.NATSSubject, nc),
			agent.NewNATSAgent(agent.NameAnalysis, ac.NATSSubject, nc),
		}, func() { nc.Drain() }, nil
	default:
		return localAgents(cfg, source, llm), func() {}, nil
	}
}

func connectNATS(url string, log *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("lawgpt"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}
