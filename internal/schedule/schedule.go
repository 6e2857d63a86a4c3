// Package schedule drives periodic ingestion of the configured sources.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"paris_events/internal/metrics"
	"paris_events/internal/model"
	"paris_events/internal/notify"
	"paris_events/internal/pipeline"
	"paris_events/internal/source"
	"paris_events/internal/storage"
)

// cronSpecs maps source frequencies onto cron schedules. Daily and slower
// scrapes run early in the morning, before the listings change for the day.
var cronSpecs = map[model.Frequency]string{
	model.Hourly:  "0 * * * *",
	model.Daily:   "30 5 * * *",
	model.Weekly:  "30 5 * * 1",
	model.Monthly: "30 5 1 * *",
}

// Runner schedules and executes source ingestion.
type Runner struct {
	registry *source.Registry
	adapters source.AdapterSet
	tickets  *source.TicketExtractor
	pipe     *pipeline.Pipeline
	store    storage.Storage
	notifier *notify.Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// New creates a Runner. The notifier may be nil and metrics may be nil.
func New(registry *source.Registry, fetcher *source.Fetcher, pipe *pipeline.Pipeline, store storage.Storage, notifier *notify.Notifier, m *metrics.Metrics, log *slog.Logger) *Runner {
	return &Runner{
		registry: registry,
		adapters: source.NewAdapters(fetcher),
		tickets:  source.NewTicketExtractor(fetcher, log),
		pipe:     pipe,
		store:    store,
		notifier: notifier,
		metrics:  m,
		log:      log,
	}
}

// Run schedules every active source on its frequency and blocks until ctx
// is cancelled. Running jobs are drained before returning.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New()
	for _, src := range r.registry.Active() {
		spec := cronSpecs[src.Frequency]
		_, err := c.AddFunc(spec, func() {
			if _, err := r.IngestSource(ctx, src, false); err != nil {
				r.log.Error("scheduled ingest failed", "source", src.ID, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule source %q: %w", src.ID, err)
		}
		r.log.Info("scheduled source", "source", src.ID, "frequency", src.Frequency)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// IngestSource fetches one source, runs the pipeline over its postings and
// upserts the result. With dryRun set nothing is written and no digest is
// sent; the returned run still carries the counts.
func (r *Runner) IngestSource(ctx context.Context, src model.Source, dryRun bool) (*model.ScrapeRun, error) {
	started := time.Now().UTC()
	r.log.Info("ingesting source", "source", src.ID, "type", src.Type)

	adapter, ok := r.adapters.ForSource(src)
	if !ok {
		return nil, fmt.Errorf("source %q: no adapter for type %q", src.ID, src.Type)
	}

	raws, err := adapter.Fetch(ctx, src)
	if err != nil {
		r.metrics.ScrapeError(src.ID)
		return nil, fmt.Errorf("fetch source %q: %w", src.ID, err)
	}
	r.tickets.Enrich(ctx, src, raws)

	events, matches, err := r.pipe.Run(ctx, raws)
	if err != nil {
		return nil, fmt.Errorf("pipeline for source %q: %w", src.ID, err)
	}

	run := &model.ScrapeRun{
		SourceID:  src.ID,
		StartedAt: started,
		Found:     len(raws),
		Merged:    len(matches),
	}

	if !dryRun {
		for i := range events {
			added, err := r.store.UpsertEvent(ctx, &events[i])
			if err != nil {
				run.Errors++
				r.log.Error("upsert event", "source", src.ID, "event_id", events[i].ID, "error", err)
				continue
			}
			if added {
				run.Added++
				r.metrics.EventUpserted(src.ID, metrics.OutcomeAdded)
			} else {
				run.Updated++
				r.metrics.EventUpserted(src.ID, metrics.OutcomeUpdated)
			}
		}
	}
	run.FinishedAt = time.Now().UTC()

	if !dryRun {
		if err := r.store.RecordRun(ctx, run); err != nil {
			r.log.Error("record run", "source", src.ID, "error", err)
		}
		r.notifier.RunDigest(run, src)
	}

	r.log.Info("source ingested",
		"source", src.ID,
		"found", run.Found,
		"events", len(events),
		"added", run.Added,
		"updated", run.Updated,
		"merged", run.Merged,
		"errors", run.Errors,
	)
	return run, nil
}
