package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"paris_events/internal/categorize"
	"paris_events/internal/config"
	"paris_events/internal/dedup"
	"paris_events/internal/metrics"
	"paris_events/internal/notify"
	"paris_events/internal/pipeline"
	"paris_events/internal/schedule"
	"paris_events/internal/source"
	"paris_events/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	registry, err := source.Load(cfg.SourcesPath)
	if err != nil {
		log.Error("load sources", "path", cfg.SourcesPath, "error", err)
		os.Exit(1)
	}

	var classifier categorize.Classifier
	if cfg.ClassifierEnabled() {
		classifier = categorize.NewClient(http.DefaultClient, cfg.ClassifierURL, cfg.ClassifierModel, cfg.ClassifierAPIKey, cfg.ClassifierTimeout)
	}

	var notifier *notify.Notifier
	if cfg.NotifierEnabled() {
		notifier, err = notify.New(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Error("create notifier", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, log); err != nil {
				log.Error("metrics server", "error", err)
			}
		}()
	}

	pipe := pipeline.New(categorize.New(classifier, log), dedup.New(cfg.DedupConfig(), log), m, log)
	runner := schedule.New(registry, source.NewFetcher(http.DefaultClient), pipe, store, notifier, m, log)

	log.Info("starting event daemon", "sources", len(registry.Active()))

	if err := runner.Run(ctx); err != nil {
		log.Error("runner stopped", "error", err)
		os.Exit(1)
	}

	log.Info("event daemon stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
