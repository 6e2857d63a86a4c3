// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"paris_events/internal/model"
)

// EventQuery narrows ListEvents. Zero-valued fields are ignored.
type EventQuery struct {
	DateFrom string // inclusive, "2006-01-02"
	DateTo   string // inclusive
	Category model.Category
	Venue    string // substring match on location name
	FreeOnly bool
	Limit    int // rows returned, default 100
	Offset   int
}

// Stats summarizes the stored events.
type Stats struct {
	TotalEvents int
	ByCategory  map[model.Category]int
	Upcoming    int
}

// Storage is the interface for all persistence operations.
type Storage interface {
	UpsertEvent(ctx context.Context, ev *model.CanonicalEvent) (added bool, err error)
	GetEvent(ctx context.Context, id string) (*model.CanonicalEvent, error)
	ListEvents(ctx context.Context, q EventQuery) ([]model.CanonicalEvent, error)
	ListVenues(ctx context.Context) ([]string, error)

	RecordRun(ctx context.Context, run *model.ScrapeRun) error
	ListRuns(ctx context.Context, sourceID string, limit int) ([]model.ScrapeRun, error)

	Stats(ctx context.Context) (*Stats, error)

	Close() error
}
