// Package pipeline chains normalization, categorization and deduplication
// over one batch of scraped postings.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"paris_events/internal/categorize"
	"paris_events/internal/dedup"
	"paris_events/internal/metrics"
	"paris_events/internal/model"
	"paris_events/internal/normalize"
)

// Pipeline turns raw postings into canonical events. Postings missing a
// title or source identity are dropped per record; everything else is
// repaired by normalization fallbacks rather than rejected.
type Pipeline struct {
	categorizer  *categorize.Categorizer
	deduplicator *dedup.Deduplicator
	metrics      *metrics.Metrics
	log          *slog.Logger
	now          func() time.Time
}

func New(categorizer *categorize.Categorizer, deduplicator *dedup.Deduplicator, m *metrics.Metrics, log *slog.Logger) *Pipeline {
	return &Pipeline{
		categorizer:  categorizer,
		deduplicator: deduplicator,
		metrics:      m,
		log:          log,
		now:          time.Now,
	}
}

// SetNow overrides the clock used to resolve partial and relative dates.
// Fixing it makes a run fully deterministic for a given input order.
func (p *Pipeline) SetNow(now func() time.Time) {
	p.now = now
}

// Run executes the full pipeline over raws. The returned error is non-nil
// only when ctx is cancelled between stages.
func (p *Pipeline) Run(ctx context.Context, raws []model.RawPosting) ([]model.CanonicalEvent, []model.DuplicateMatch, error) {
	start := time.Now()
	now := p.now()

	rejected := 0
	postings := make([]model.Posting, 0, len(raws))
	for _, raw := range raws {
		if raw.Title == "" || raw.SourceName == "" || raw.SourceURL == "" {
			p.log.Warn("dropping posting without identity",
				"title", raw.Title, "source", raw.SourceName, "url", raw.SourceURL)
			p.metrics.RejectedPosting(raw.SourceName)
			rejected++
			continue
		}
		p.metrics.IngestedPosting(raw.SourceName)

		posting, fallbacks := normalize.Normalize(raw, now)
		for _, fb := range fallbacks {
			p.log.Debug("normalization fallback",
				"field", fb.Field, "reason", fb.Reason, "title", posting.Title)
			p.metrics.NormalizationFallback(fb.Field)
		}
		postings = append(postings, posting)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	events := make([]model.CanonicalEvent, 0, len(postings))
	for _, posting := range postings {
		cat, sub, tier := p.categorizer.Categorize(ctx, categorize.Request{
			Title:       posting.Title,
			Description: posting.Description,
			SourceName:  posting.SourceName,
			VenueName:   posting.LocationName,
		}, posting.CategoryHint)
		p.metrics.Categorization(string(tier))

		events = append(events, model.CanonicalEvent{
			ID:          model.EventID(posting.Title, posting.DateStart, posting.LocationName, posting.SourceName),
			Posting:     posting,
			Category:    cat,
			SubCategory: sub,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	uniques, matches := p.deduplicator.Deduplicate(events)

	merged := len(events) - len(uniques)
	p.metrics.DuplicatesMerged(merged)
	p.metrics.PipelineDuration(time.Since(start))

	p.log.Info("pipeline complete",
		"raw", len(raws), "rejected", rejected, "events", len(uniques), "merged", merged)

	return uniques, matches, nil
}
