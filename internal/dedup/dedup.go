// Package dedup detects postings that describe the same real-world event
// and merges them into a single canonical record. Only events sharing the
// same start date are ever compared; within a day, blended fuzzy title
// similarity gates candidates and venue or address agreement confirms
// them.
package dedup

import (
	"fmt"
	"log/slog"
	"strings"

	"paris_events/internal/model"
)

// Config holds the matching thresholds (0..100) and the trusted-source
// list used by completeness scoring.
type Config struct {
	TitleThreshold   float64
	VenueThreshold   float64
	AddressThreshold float64
	TrustedSources   []string
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		TitleThreshold:   85,
		VenueThreshold:   75,
		AddressThreshold: 80,
		TrustedSources:   []string{"philharmonie", "opera", "louvre", "orsay", "pompidou"},
	}
}

// Deduplicator finds and merges duplicate events.
type Deduplicator struct {
	cfg Config
	log *slog.Logger
}

// New creates a Deduplicator. Zero config fields fall back to defaults.
func New(cfg Config, log *slog.Logger) *Deduplicator {
	def := DefaultConfig()
	if cfg.TitleThreshold <= 0 {
		cfg.TitleThreshold = def.TitleThreshold
	}
	if cfg.VenueThreshold <= 0 {
		cfg.VenueThreshold = def.VenueThreshold
	}
	if cfg.AddressThreshold <= 0 {
		cfg.AddressThreshold = def.AddressThreshold
	}
	if len(cfg.TrustedSources) == 0 {
		cfg.TrustedSources = def.TrustedSources
	}
	return &Deduplicator{cfg: cfg, log: log}
}

// Deduplicate removes duplicates from a batch. Each canonical event is
// merged with all of its confirmed duplicates and emitted once, in input
// order; every event on the duplicate side of a match is dropped. The
// whole batch must be passed at once: canonical selection needs to see
// every candidate of a day before deciding.
func (d *Deduplicator) Deduplicate(events []model.CanonicalEvent) ([]model.CanonicalEvent, []model.DuplicateMatch) {
	matches := d.findMatches(events)

	duplicateIDs := make(map[string]bool, len(matches))
	for _, m := range matches {
		duplicateIDs[m.DuplicateID] = true
	}
	byID := make(map[string]model.CanonicalEvent, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}

	result := make([]model.CanonicalEvent, 0, len(events))
	emitted := make(map[string]bool, len(events))
	for _, ev := range events {
		if duplicateIDs[ev.ID] || emitted[ev.ID] {
			continue
		}
		merged := ev
		for _, m := range matches {
			if m.CanonicalID != ev.ID {
				continue
			}
			if dup, ok := byID[m.DuplicateID]; ok {
				merged = merge(merged, dup)
			}
		}
		result = append(result, merged)
		emitted[ev.ID] = true
	}
	return result, matches
}

// findMatches compares all same-day pairs and records confirmed
// duplicates with their canonical side already chosen.
func (d *Deduplicator) findMatches(events []model.CanonicalEvent) []model.DuplicateMatch {
	byDate := make(map[string][]model.CanonicalEvent)
	var dates []string
	for _, ev := range events {
		if ev.DateStart == "" {
			continue
		}
		if _, ok := byDate[ev.DateStart]; !ok {
			dates = append(dates, ev.DateStart)
		}
		byDate[ev.DateStart] = append(byDate[ev.DateStart], ev)
	}

	var matches []model.DuplicateMatch
	seen := make(map[string]bool)
	for _, date := range dates {
		bucket := byDate[date]
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				a, b := bucket[i], bucket[j]
				key := pairKey(a.ID, b.ID)
				if seen[key] {
					continue
				}
				seen[key] = true

				ok, score, reason := d.confirm(a, b)
				if !ok {
					continue
				}

				canonical, duplicate := a, b
				if d.completeness(b) > d.completeness(a) {
					canonical, duplicate = b, a
				}
				d.log.Debug("duplicate confirmed",
					"canonical", canonical.ID, "duplicate", duplicate.ID,
					"score", score, "reason", reason)
				matches = append(matches, model.DuplicateMatch{
					CanonicalID: canonical.ID,
					DuplicateID: duplicate.ID,
					Similarity:  score,
					Reason:      reason,
				})
			}
		}
	}
	return matches
}

// confirm decides whether two same-day events are the same occurrence.
// Title similarity gates the pair; venue similarity must then clear its
// threshold when both sides name a venue, except that strong address
// agreement confirms on its own even when venue wording disagrees.
func (d *Deduplicator) confirm(a, b model.CanonicalEvent) (bool, float64, string) {
	titleSim := blendedSimilarity(a.Title, b.Title)
	if titleSim < d.cfg.TitleThreshold {
		return false, 0, ""
	}

	venueOK := true
	if a.LocationName != "" && b.LocationName != "" {
		venueOK = blendedSimilarity(a.LocationName, b.LocationName) >= d.cfg.VenueThreshold
	}

	var addrSim float64
	addrConfirmed := false
	if a.Address != "" && b.Address != "" {
		addrSim = blendedSimilarity(a.Address, b.Address)
		addrConfirmed = addrSim > d.cfg.AddressThreshold
	}

	if !venueOK && !addrConfirmed {
		return false, 0, ""
	}
	if addrConfirmed {
		score := titleSim
		if addrSim > score {
			score = addrSim
		}
		return true, score, fmt.Sprintf("title:%.0f%%, address:%.0f%%", titleSim, addrSim)
	}
	return true, titleSim, fmt.Sprintf("title:%.0f%%", titleSim)
}

// completeness scores how much usable data an event carries; the richer
// side of a confirmed pair becomes canonical.
func (d *Deduplicator) completeness(ev model.CanonicalEvent) int {
	score := 0
	switch {
	case ev.TicketURL != "" && ev.HasDirectTicketButton:
		score += 10
	case ev.TicketURL != "":
		score += 5
	}
	if ev.ImageURL != "" {
		score += 3
	}
	switch {
	case len(ev.Description) > 200:
		score += 3
	case len(ev.Description) > 50:
		score += 1
	}
	if ev.PriceKnown {
		score += 2
	}
	source := strings.ToLower(ev.SourceName)
	for _, trusted := range d.cfg.TrustedSources {
		if strings.Contains(source, trusted) {
			score += 5
			break
		}
	}
	return score
}

// merge folds a duplicate into the canonical event. Empty canonical
// fields are filled from the duplicate; the price fields move as one unit
// so a confirmed-free duplicate cannot leave a stale range behind; a
// duplicate carrying a direct booking link overrides the canonical ticket
// URL wholesale; the longer description wins regardless of side.
func merge(canonical, dup model.CanonicalEvent) model.CanonicalEvent {
	merged := canonical

	if merged.Description == "" {
		merged.Description = dup.Description
	}
	if merged.ImageURL == "" {
		merged.ImageURL = dup.ImageURL
	}
	if merged.TicketURL == "" {
		merged.TicketURL = dup.TicketURL
	}
	if merged.Address == "" {
		merged.Address = dup.Address
	}
	if merged.Arrondissement == 0 {
		merged.Arrondissement = dup.Arrondissement
	}
	if merged.Latitude == nil {
		merged.Latitude = dup.Latitude
	}
	if merged.Longitude == nil {
		merged.Longitude = dup.Longitude
	}
	if !merged.PriceKnown && dup.PriceKnown {
		merged.PriceFrom = dup.PriceFrom
		merged.PriceTo = dup.PriceTo
		merged.IsFree = dup.IsFree
		merged.PriceKnown = true
	}
	if merged.TimeStart == "" && dup.TimeStart != "" {
		merged.TimeStart = dup.TimeStart
		merged.TimeOfDay = dup.TimeOfDay
	}
	if merged.TimeEnd == "" {
		merged.TimeEnd = dup.TimeEnd
	}
	if merged.OrganizerName == "" {
		merged.OrganizerName = dup.OrganizerName
	}

	if dup.HasDirectTicketButton && dup.TicketURL != "" && !merged.HasDirectTicketButton {
		merged.TicketURL = dup.TicketURL
		merged.HasDirectTicketButton = true
	}

	merged.Tags = unionTags(merged.Tags, dup.Tags)

	if len(dup.Description) > len(merged.Description) {
		merged.Description = dup.Description
	}
	return merged
}

// unionTags merges two tag lists keeping first-seen order.
func unionTags(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, tag := range list {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
