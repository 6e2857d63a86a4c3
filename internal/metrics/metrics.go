// Package metrics holds the Prometheus instruments for the ingestion
// pipeline. Every method is safe to call on a nil *Metrics, so components
// run unchanged when metrics are disabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upsert outcomes recorded by EventUpserted.
const (
	OutcomeAdded   = "added"
	OutcomeUpdated = "updated"
)

// Metrics aggregates all instruments under the paris_events namespace.
type Metrics struct {
	ingested     *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	categorized  *prometheus.CounterVec
	merged       prometheus.Counter
	upserted     *prometheus.CounterVec
	scrapeErrors *prometheus.CounterVec
	duration     prometheus.Summary
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paris_events",
			Name:      "postings_ingested_total",
			Help:      "Raw postings accepted into the pipeline",
		}, []string{"source"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paris_events",
			Name:      "postings_rejected_total",
			Help:      "Raw postings dropped for missing title or source identity",
		}, []string{"source"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paris_events",
			Name:      "normalization_fallbacks_total",
			Help:      "Fields that fell back to a default during normalization",
		}, []string{"field"}),
		categorized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paris_events",
			Name:      "categorizations_total",
			Help:      "Category decisions by tier",
		}, []string{"tier"}),
		merged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paris_events",
			Name:      "duplicates_merged_total",
			Help:      "Postings merged into another event as duplicates",
		}),
		upserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paris_events",
			Name:      "events_upserted_total",
			Help:      "Events written to storage by outcome",
		}, []string{"source", "outcome"}),
		scrapeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paris_events",
			Name:      "scrape_errors_total",
			Help:      "Failed scrape attempts per source",
		}, []string{"source"}),
		duration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "paris_events",
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent running the full pipeline over one batch",
		}),
	}
	reg.MustRegister(
		m.ingested, m.rejected, m.fallbacks, m.categorized,
		m.merged, m.upserted, m.scrapeErrors, m.duration,
	)
	return m
}

func (m *Metrics) IngestedPosting(source string) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(source).Inc()
}

func (m *Metrics) RejectedPosting(source string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(source).Inc()
}

func (m *Metrics) NormalizationFallback(field string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(field).Inc()
}

func (m *Metrics) Categorization(tier string) {
	if m == nil {
		return
	}
	m.categorized.WithLabelValues(tier).Inc()
}

func (m *Metrics) DuplicatesMerged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.merged.Add(float64(n))
}

func (m *Metrics) EventUpserted(source, outcome string) {
	if m == nil {
		return
	}
	m.upserted.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) ScrapeError(source string) {
	if m == nil {
		return
	}
	m.scrapeErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) PipelineDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
