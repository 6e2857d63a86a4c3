package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"paris_events/internal/categorize"
	"paris_events/internal/config"
	"paris_events/internal/dedup"
	"paris_events/internal/model"
	"paris_events/internal/notify"
	"paris_events/internal/pipeline"
	"paris_events/internal/schedule"
	"paris_events/internal/source"
	"paris_events/internal/storage"
)

func main() {
	sourceID := flag.String("source", "", "ingest only this source id (default: all active)")
	dryRun := flag.Bool("dry-run", false, "run the pipeline without writing to the database")
	flag.Parse()

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

	pipe := pipeline.New(categorize.New(classifier, log), dedup.New(cfg.DedupConfig(), log), nil, log)
	runner := schedule.New(registry, source.NewFetcher(http.DefaultClient), pipe, store, notifier, nil, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var sources []model.Source
	if *sourceID != "" {
		src, ok := registry.Get(*sourceID)
		if !ok {
			log.Error("unknown source", "source", *sourceID)
			os.Exit(1)
		}
		sources = []model.Source{src}
	} else {
		sources = registry.Active()
	}

	failed := false
	for _, src := range sources {
		run, err := runner.IngestSource(ctx, src, *dryRun)
		if err != nil {
			log.Error("ingest failed", "source", src.ID, "error", err)
			failed = true
			continue
		}
		fmt.Printf("%s: found %d, added %d, updated %d, merged %d, errors %d\n",
			src.ID, run.Found, run.Added, run.Updated, run.Merged, run.Errors)
		if run.Errors > 0 {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
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
