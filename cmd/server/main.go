package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/blockdoc/internal/api"
	"github.com/dgallion1/blockdoc/internal/config"
	"github.com/dgallion1/blockdoc/internal/generate"
	"github.com/dgallion1/blockdoc/internal/pathstore"
	"github.com/dgallion1/blockdoc/internal/pipeline"
	"github.com/dgallion1/blockdoc/internal/schema"
	"github.com/dgallion1/blockdoc/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	reg := schema.Default()
	if cfg.TextBlockContent == "block+" {
		var err error
		reg, err = schema.New(schema.Options{TextBlockContent: schema.TextBlockBlocks})
		if err != nil {
			log.Error("invalid schema", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := api.NewMetrics()
	sessions := session.NewStore(cfg.SessionTTL)
	sessions.OnChange(metrics.SetSessions)
	go evictSessions(ctx, sessions, log)

	deps := api.Deps{Registry: reg, Sessions: sessions, Metrics: metrics}

	var ps *pathstore.Client
	if cfg.PersistenceEnabled() {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		deps.Docs = pathstore.NewDocuments(ps)
	} else {
		log.Warn("PATHSTORE_API_KEY not set, persistence disabled")
	}

	var (
		claude *generate.ClaudeClient
		orch   *pipeline.Orchestrator
	)
	if cfg.GenerationEnabled() {
		claude = generate.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		orch = pipeline.NewOrchestrator(cfg, claude, sessions, log)
		orch.SetObserver(metrics.ObserveJob)
		orch.Start(ctx)
		deps.Orchestrator = orch
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, generation disabled")
	}

	srv := api.NewServer(deps, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		// No handler can submit once the server is down.
		if orch != nil {
			orch.Stop()
		}

		if claude != nil {
			claude.Close()
		}
		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting blockdoc", "port", cfg.Port, "text_block_content", cfg.TextBlockContent,
		"generation", cfg.GenerationEnabled(), "persistence", cfg.PersistenceEnabled())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// evictSessions drops idle sessions once a minute.
func evictSessions(ctx context.Context, sessions *session.Store, log *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Cleanup(); n > 0 {
				log.Info("evicted idle sessions", "count", n)
			}
		}
	}
}
