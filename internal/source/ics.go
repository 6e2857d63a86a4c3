package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"paris_events/internal/model"
)

// ICS fetches calendar sources, expanding recurring events into one posting
// per occurrence inside the source's window.
type ICS struct {
	fetcher *Fetcher
	now     func() time.Time
}

// NewICS creates the ICS adapter.
func NewICS(f *Fetcher) *ICS {
	return &ICS{fetcher: f, now: time.Now}
}

// Fetch downloads and parses the source's calendar. Malformed VEVENTs are
// skipped; the rest of the calendar is still used.
func (a *ICS) Fetch(ctx context.Context, src model.Source) ([]model.RawPosting, error) {
	body, err := a.fetcher.Get(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	windowDays := src.WindowDays
	if windowDays <= 0 {
		windowDays = 90
	}
	now := a.now()
	windowEnd := now.AddDate(0, 0, windowDays)

	var postings []model.RawPosting
	for _, ve := range cal.Events() {
		ps, err := eventPostings(ve, src, now, windowEnd)
		if err != nil {
			continue
		}
		postings = append(postings, ps...)
	}
	return postings, nil
}

func eventPostings(ve *ical.VEvent, src model.Source, now, windowEnd time.Time) ([]model.RawPosting, error) {
	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("event start: %w", err)
	}

	allDay := false
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil && !strings.Contains(p.Value, "T") {
		allDay = true
	}

	var duration time.Duration
	if end, err := ve.GetEndAt(); err == nil {
		duration = end.Sub(start)
	}

	base := model.RawPosting{
		SourceName: src.Name,
		SourceURL:  src.URL,
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		base.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		base.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		base.AddressText = p.Value
	}
	if p := ve.GetProperty("URL"); p != nil && p.Value != "" {
		base.SourceURL = p.Value
	}

	starts := []time.Time{start}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		r, err := rrule.StrToRRule(p.Value)
		if err != nil {
			return nil, fmt.Errorf("parse rrule: %w", err)
		}
		r.DTStart(start)
		var set rrule.Set
		set.RRule(r)
		starts = set.Between(now, windowEnd, true)
	}

	postings := make([]model.RawPosting, 0, len(starts))
	for _, occStart := range starts {
		p := base
		p.DateStartText = occStart.Format("2006-01-02")
		if !allDay {
			p.TimeStartText = occStart.Format("15:04")
			if duration > 0 {
				occEnd := occStart.Add(duration)
				p.TimeEndText = occEnd.Format("15:04")
				if occEnd.Day() != occStart.Day() {
					p.DateEndText = occEnd.Format("2006-01-02")
				}
			}
		}
		postings = append(postings, p)
	}
	return postings, nil
}
