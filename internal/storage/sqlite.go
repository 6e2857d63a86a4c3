package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"paris_events/internal/model"
	"paris_events/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

const eventColumns = `id, title, description, category, sub_category, tags,
	date_start, date_end, time_start, time_end, time_of_day,
	location_name, address, arrondissement, latitude, longitude,
	price_from, price_to, is_free, price_known, currency,
	image_url, ticket_url, has_direct_ticket_button,
	organizer_name, source_name, source_url, created_at, updated_at`

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// UpsertEvent inserts ev or, when a row with the same id already exists,
// updates its mutable fields and bumps updated_at. It reports whether a new
// row was inserted and sets the timestamps on ev accordingly.
func (s *SQLite) UpsertEvent(ctx context.Context, ev *model.CanonicalEvent) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE id = ?`, ev.ID).Scan(&count); err != nil {
		return false, fmt.Errorf("check event: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	tags := marshalTags(ev.Tags)

	if count == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO events (`+eventColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.Title, ev.Description, string(ev.Category), ev.SubCategory, tags,
			ev.DateStart, ev.DateEnd, ev.TimeStart, ev.TimeEnd, string(ev.TimeOfDay),
			ev.LocationName, ev.Address, ev.Arrondissement, ev.Latitude, ev.Longitude,
			ev.PriceFrom, ev.PriceTo, boolToInt(ev.IsFree), boolToInt(ev.PriceKnown), ev.Currency,
			ev.ImageURL, ev.TicketURL, boolToInt(ev.HasDirectTicketButton),
			ev.OrganizerName, ev.SourceName, ev.SourceURL, now, now,
		)
		if err != nil {
			return false, fmt.Errorf("insert event: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("commit: %w", err)
		}
		ev.CreatedAt, _ = time.Parse(timeLayout, now)
		ev.UpdatedAt = ev.CreatedAt
		return true, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, category = ?, sub_category = ?, tags = ?,
		 date_start = ?, date_end = ?, time_start = ?, time_end = ?, time_of_day = ?,
		 location_name = ?, address = ?, arrondissement = ?, latitude = ?, longitude = ?,
		 price_from = ?, price_to = ?, is_free = ?, price_known = ?, currency = ?,
		 image_url = ?, ticket_url = ?, has_direct_ticket_button = ?,
		 organizer_name = ?, source_name = ?, source_url = ?, updated_at = ?
		 WHERE id = ?`,
		ev.Title, ev.Description, string(ev.Category), ev.SubCategory, tags,
		ev.DateStart, ev.DateEnd, ev.TimeStart, ev.TimeEnd, string(ev.TimeOfDay),
		ev.LocationName, ev.Address, ev.Arrondissement, ev.Latitude, ev.Longitude,
		ev.PriceFrom, ev.PriceTo, boolToInt(ev.IsFree), boolToInt(ev.PriceKnown), ev.Currency,
		ev.ImageURL, ev.TicketURL, boolToInt(ev.HasDirectTicketButton),
		ev.OrganizerName, ev.SourceName, ev.SourceURL, now, ev.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	ev.UpdatedAt, _ = time.Parse(timeLayout, now)
	return false, nil
}

// GetEvent returns a single event by its id.
func (s *SQLite) GetEvent(ctx context.Context, id string) (*model.CanonicalEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id,
	)
	return scanEvent(row)
}

// ListEvents returns events matching q ordered by start date and time.
func (s *SQLite) ListEvents(ctx context.Context, q EventQuery) ([]model.CanonicalEvent, error) {
	var conds []string
	var args []any
	if q.DateFrom != "" {
		conds = append(conds, "date_start >= ?")
		args = append(args, q.DateFrom)
	}
	if q.DateTo != "" {
		conds = append(conds, "date_start <= ?")
		args = append(args, q.DateTo)
	}
	if q.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(q.Category))
	}
	if q.Venue != "" {
		conds = append(conds, "location_name LIKE ?")
		args = append(args, "%"+q.Venue+"%")
	}
	if q.FreeOnly {
		conds = append(conds, "is_free = 1")
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date_start, time_start, id LIMIT ? OFFSET ?"

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEvents(rows)
}

// ListVenues returns the distinct location names of all stored events.
func (s *SQLite) ListVenues(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT location_name FROM events ORDER BY location_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query venues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var venues []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// RecordRun persists the outcome of one scrape, assigning an id when empty.
func (s *SQLite) RecordRun(ctx context.Context, run *model.ScrapeRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scrape_runs (id, source_id, started_at, finished_at,
		 events_found, events_added, events_updated, events_merged, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceID,
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		run.Found, run.Added, run.Updated, run.Merged, run.Errors,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs for a source, newest first.
func (s *SQLite) ListRuns(ctx context.Context, sourceID string, limit int) ([]model.ScrapeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_id, started_at, finished_at,
		 events_found, events_added, events_updated, events_merged, errors
		 FROM scrape_runs WHERE source_id = ? ORDER BY started_at DESC, id LIMIT ?`,
		sourceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.ScrapeRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Stats summarizes the events table.
func (s *SQLite) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByCategory: make(map[model.Category]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&st.TotalEvents); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM events GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		st.ByCategory[model.Category(cat)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	today := time.Now().UTC().Format("2006-01-02")
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE date_start >= ?`, today,
	).Scan(&st.Upcoming); err != nil {
		return nil, fmt.Errorf("count upcoming: %w", err)
	}

	return st, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func unmarshalTags(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEvent(row scannable) (*model.CanonicalEvent, error) {
	var ev model.CanonicalEvent
	var category, timeOfDay, tagsJSON, created, updated string
	var isFree, priceKnown, hasDirect int
	var lat, lon, priceTo sql.NullFloat64
	err := row.Scan(
		&ev.ID, &ev.Title, &ev.Description, &category, &ev.SubCategory, &tagsJSON,
		&ev.DateStart, &ev.DateEnd, &ev.TimeStart, &ev.TimeEnd, &timeOfDay,
		&ev.LocationName, &ev.Address, &ev.Arrondissement, &lat, &lon,
		&ev.PriceFrom, &priceTo, &isFree, &priceKnown, &ev.Currency,
		&ev.ImageURL, &ev.TicketURL, &hasDirect,
		&ev.OrganizerName, &ev.SourceName, &ev.SourceURL, &created, &updated,
	)
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	ev.Category = model.Category(category)
	ev.TimeOfDay = model.TimeOfDay(timeOfDay)
	ev.Tags = unmarshalTags(tagsJSON)
	if lat.Valid {
		ev.Latitude = &lat.Float64
	}
	if lon.Valid {
		ev.Longitude = &lon.Float64
	}
	if priceTo.Valid {
		ev.PriceTo = &priceTo.Float64
	}
	ev.IsFree = isFree == 1
	ev.PriceKnown = priceKnown == 1
	ev.HasDirectTicketButton = hasDirect == 1
	ev.CreatedAt, _ = time.Parse(timeLayout, created)
	ev.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &ev, nil
}

func scanEvents(rows *sql.Rows) ([]model.CanonicalEvent, error) {
	var events []model.CanonicalEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func scanRun(row scannable) (model.ScrapeRun, error) {
	var r model.ScrapeRun
	var started, finished string
	err := row.Scan(&r.ID, &r.SourceID, &started, &finished,
		&r.Found, &r.Added, &r.Updated, &r.Merged, &r.Errors)
	if err != nil {
		return r, fmt.Errorf("scan run: %w", err)
	}
	r.StartedAt, _ = time.Parse(timeLayout, started)
	r.FinishedAt, _ = time.Parse(timeLayout, finished)
	return r, nil
}
