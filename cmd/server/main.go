package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/recipegest/internal/api"
	"github.com/dgallion1/recipegest/internal/config"
	"github.com/dgallion1/recipegest/internal/extract"
	"github.com/dgallion1/recipegest/internal/pipeline"
	"github.com/dgallion1/recipegest/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := cfg.NewLogger(os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Record sink.
	sink, err := openSink(ctx, cfg)
	if err != nil {
		log.Error("opening sink", "sink", cfg.Sink, "error", err)
		os.Exit(1)
	}

	// Extractor and its timing stats.
	var vocab *extract.Vocabulary
	if cfg.VocabularyPath != "" {
		vocab, err = extract.LoadVocabulary(cfg.VocabularyPath)
		if err != nil {
			log.Error("loading vocabulary", "path", cfg.VocabularyPath, "error", err)
			os.Exit(1)
		}
	}
	stats := extract.NewStats(time.Hour)
	extractor := extract.NewExtractor(vocab, stats)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, extractor, sink, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop accepting uploads before the run queue closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		sink.Close()
	}()

	log.Info("starting recipegest", "port", cfg.Port, "sink", cfg.Sink)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openSink(ctx context.Context, cfg config.Config) (store.RecipeSink, error) {
	if cfg.Sink == config.SinkSQLite {
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	}
	return store.NewFileSink(cfg.OutputDir)
}
