package dedup

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"paris_events/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(id, title, date, venue string) model.CanonicalEvent {
	return model.CanonicalEvent{
		ID: id,
		Posting: model.Posting{
			Title:        title,
			DateStart:    date,
			LocationName: venue,
		},
	}
}

func TestNormalizeCompare(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Concert de Jazz à Paris", "jazz"},
		{"Soirée Électro", "electro"},
		{"L'Exposition Temporaire!", "lexposition temporaire"},
		{"Le La Les", ""},
		{"Fête de la Musique", "fete musique"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeCompare(tt.in); got != tt.want {
			t.Errorf("normalizeCompare(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimilarityMeasures(t *testing.T) {
	t.Run("ratio", func(t *testing.T) {
		if got := ratio("abc", "abc"); got != 100 {
			t.Errorf("identical ratio = %v, want 100", got)
		}
		if got := ratio("ab", "ba"); got != 50 {
			t.Errorf("transposed ratio = %v, want 50", got)
		}
		if got := ratio("abc", ""); got != 0 {
			t.Errorf("one-empty ratio = %v, want 0", got)
		}
	})

	t.Run("partial finds embedded substring", func(t *testing.T) {
		if got := partialRatio("sunset", "jazz sunset trio"); got != 100 {
			t.Errorf("partialRatio = %v, want 100", got)
		}
	})

	t.Run("token sort cancels word order", func(t *testing.T) {
		if got := tokenSortRatio("jazz sunset", "sunset jazz"); got != 100 {
			t.Errorf("tokenSortRatio = %v, want 100", got)
		}
	})

	t.Run("token set scores subsets at 100", func(t *testing.T) {
		if got := tokenSetRatio("jazz sunset", "grand sunset jazz festival"); got != 100 {
			t.Errorf("tokenSetRatio = %v, want 100", got)
		}
		if got := tokenSetRatio("abc def", "ghi jkl"); got >= 50 {
			t.Errorf("disjoint tokenSetRatio = %v, want < 50", got)
		}
	})

	t.Run("lcs", func(t *testing.T) {
		if got := lcsLength([]rune("kitten"), []rune("sitting")); got != 4 {
			t.Errorf("lcsLength = %d, want 4", got)
		}
	})
}

func TestBlendedSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical after stopwords", "Nuit du Jazz au Sunset", "Nuit Jazz Sunset", 100, 100},
		{"venue contained in longer venue", "Le Sunset", "Sunset Jazz Club", 75, 85},
		{"unrelated titles", "Nuit du Jazz au Sunset", "Marathon pour tous", 0, 50},
		{"stopword-only titles never match", "Concert", "Concert", 0, 0},
		{"one side empty", "Nuit Blanche", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := blendedSimilarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("blendedSimilarity(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestDeduplicatePairs(t *testing.T) {
	d := New(DefaultConfig(), discardLogger())

	tests := []struct {
		name        string
		events      []model.CanonicalEvent
		wantKept    []string
		wantMatches int
	}{
		{
			name: "same title and venue on the same day",
			events: []model.CanonicalEvent{
				event("id1", "Nuit du Jazz au Sunset", "2025-12-15", "Le Sunset"),
				event("id2", "Nuit Jazz Sunset", "2025-12-15", "Sunset"),
			},
			wantKept:    []string{"id1"},
			wantMatches: 1,
		},
		{
			name: "same title on different days stays separate",
			events: []model.CanonicalEvent{
				event("id1", "Nuit du Jazz au Sunset", "2025-12-15", "Le Sunset"),
				event("id2", "Nuit du Jazz au Sunset", "2025-12-16", "Le Sunset"),
			},
			wantKept:    []string{"id1", "id2"},
			wantMatches: 0,
		},
		{
			name: "dissimilar titles stay separate",
			events: []model.CanonicalEvent{
				event("id1", "Nuit du Jazz au Sunset", "2025-12-15", "Le Sunset"),
				event("id2", "Marathon pour tous", "2025-12-15", "Le Sunset"),
			},
			wantKept:    []string{"id1", "id2"},
			wantMatches: 0,
		},
		{
			name: "venue disagreement without addresses stays separate",
			events: []model.CanonicalEvent{
				event("id1", "Nuit du Jazz au Sunset", "2025-12-15", "Le Sunset"),
				event("id2", "Nuit du Jazz au Sunset", "2025-12-15", "New Morning"),
			},
			wantKept:    []string{"id1", "id2"},
			wantMatches: 0,
		},
		{
			name: "three-way duplicates collapse to one",
			events: []model.CanonicalEvent{
				event("a", "Nuit du Jazz au Sunset", "2025-12-15", "Le Sunset"),
				event("b", "Nuit Jazz Sunset", "2025-12-15", "Le Sunset"),
				event("c", "Nuit du Jazz au Sunset !", "2025-12-15", "Sunset"),
			},
			wantKept:    []string{"a"},
			wantMatches: 3,
		},
		{
			name: "repeated id emits once even without a match",
			events: []model.CanonicalEvent{
				event("same", "Balade nocturne", "2025-12-15", "Paris"),
				event("same", "Balade nocturne", "2025-12-15", "Paris"),
			},
			wantKept:    []string{"same"},
			wantMatches: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, matches := d.Deduplicate(tt.events)
			var gotIDs []string
			for _, ev := range kept {
				gotIDs = append(gotIDs, ev.ID)
			}
			if diff := cmp.Diff(tt.wantKept, gotIDs); diff != "" {
				t.Errorf("kept ids mismatch (-want +got):\n%s", diff)
			}
			if len(matches) != tt.wantMatches {
				t.Errorf("got %d matches, want %d", len(matches), tt.wantMatches)
			}
		})
	}
}

func TestDeduplicateAddressOverridesVenue(t *testing.T) {
	d := New(DefaultConfig(), discardLogger())

	e1 := event("id1", "Fête de la Musique", "2025-06-21", "Parc de la Villette")
	e1.Address = "211 avenue Jean Jaurès, 75019, Paris"
	e2 := event("id2", "Fête de la Musique", "2025-06-21", "La Grande Halle")
	e2.Address = "211 avenue Jean Jaurès, 75019 Paris"

	kept, matches := d.Deduplicate([]model.CanonicalEvent{e1, e2})
	if len(kept) != 1 || len(matches) != 1 {
		t.Fatalf("got %d kept, %d matches, want 1 and 1", len(kept), len(matches))
	}
	m := matches[0]
	if m.CanonicalID != "id1" || m.DuplicateID != "id2" {
		t.Errorf("match = %s <- %s, want id1 <- id2", m.CanonicalID, m.DuplicateID)
	}
	if !strings.Contains(m.Reason, "address") {
		t.Errorf("reason = %q, want address mentioned", m.Reason)
	}
	if m.Similarity < 99 {
		t.Errorf("similarity = %v, want ~100 for identical addresses", m.Similarity)
	}
}

func TestDeduplicateCanonicalSelectionAndMerge(t *testing.T) {
	d := New(DefaultConfig(), discardLogger())

	poor := model.CanonicalEvent{
		ID: "poor",
		Posting: model.Posting{
			Title:         "Quartet de Jazz Manouche",
			DateStart:     "2025-12-20",
			LocationName:  "Le Caveau de la Huchette",
			Description:   "Petit club de jazz.",
			TimeStart:     "20:00",
			TimeOfDay:     model.Evening,
			OrganizerName: "Swing Prod",
			SourceName:    "jazzclub",
			Tags:          []string{"manouche", "jazz"},
		},
	}
	rich := model.CanonicalEvent{
		ID: "rich",
		Posting: model.Posting{
			Title:                 "Quartet de Jazz Manouche",
			DateStart:             "2025-12-20",
			LocationName:          "Caveau de la Huchette",
			Description:           strings.Repeat("Un grand concert de jazz. ", 10),
			ImageURL:              "https://img.example/jazz.jpg",
			TicketURL:             "https://tickets.example/jazz",
			HasDirectTicketButton: true,
			PriceFrom:             25,
			PriceKnown:            true,
			SourceName:            "billetterie",
			Tags:                  []string{"jazz"},
		},
	}

	kept, matches := d.Deduplicate([]model.CanonicalEvent{poor, rich})
	if len(kept) != 1 {
		t.Fatalf("got %d events, want 1", len(kept))
	}
	if len(matches) != 1 || matches[0].CanonicalID != "rich" || matches[0].DuplicateID != "poor" {
		t.Fatalf("matches = %+v, want rich <- poor", matches)
	}

	got := kept[0]
	if got.ID != "rich" {
		t.Errorf("kept id = %s, want rich", got.ID)
	}
	if got.TimeStart != "20:00" || got.TimeOfDay != model.Evening {
		t.Errorf("time = (%q, %q), want filled from duplicate", got.TimeStart, got.TimeOfDay)
	}
	if got.OrganizerName != "Swing Prod" {
		t.Errorf("organizer = %q, want filled from duplicate", got.OrganizerName)
	}
	if diff := cmp.Diff([]string{"jazz", "manouche"}, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(got.Description, "Un grand concert") {
		t.Errorf("description = %q, want the longer side kept", got.Description)
	}
}

func TestDeduplicateRewordedTitles(t *testing.T) {
	d := New(DefaultConfig(), discardLogger())

	listing := model.CanonicalEvent{
		ID: "listing",
		Posting: model.Posting{
			Title:        "Concert Jazz au Sunset",
			DateStart:    "2025-12-15",
			LocationName: "Le Sunset",
			SourceName:   "agenda",
			Tags:         []string{"jazz", "concert"},
		},
	}
	venue := model.CanonicalEvent{
		ID: "venue",
		Posting: model.Posting{
			Title:                 "Soirée Jazz - Sunset Sunside",
			DateStart:             "2025-12-15",
			LocationName:          "Sunset Sunside",
			SourceName:            "sunset-sunside",
			Description:           strings.Repeat("Deux sets de jazz dans le caveau des Lombards. ", 5),
			TicketURL:             "https://billets.example/jam",
			HasDirectTicketButton: true,
			Tags:                  []string{"jazz", "live"},
		},
	}

	kept, matches := d.Deduplicate([]model.CanonicalEvent{listing, venue})
	if len(kept) != 1 || len(matches) != 1 {
		t.Fatalf("got %d kept, %d matches, want 1 and 1", len(kept), len(matches))
	}
	if matches[0].CanonicalID != "venue" || matches[0].DuplicateID != "listing" {
		t.Fatalf("match = %s <- %s, want venue <- listing", matches[0].CanonicalID, matches[0].DuplicateID)
	}

	got := kept[0]
	if got.TicketURL != "https://billets.example/jam" || !got.HasDirectTicketButton {
		t.Errorf("ticket = (%q, %v), want the direct booking side kept", got.TicketURL, got.HasDirectTicketButton)
	}
	if diff := cmp.Diff([]string{"jazz", "live", "concert"}, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestDeduplicateDirectTicketWins(t *testing.T) {
	d := New(DefaultConfig(), discardLogger())

	canonical := model.CanonicalEvent{
		ID: "info",
		Posting: model.Posting{
			Title:        "Ballet Casse-Noisette",
			DateStart:    "2025-12-24",
			LocationName: "Opéra Garnier",
			Description:  strings.Repeat("Le ballet de Tchaïkovski. ", 10),
			ImageURL:     "https://img.example/ballet.jpg",
			TicketURL:    "https://venue.example/infos",
			PriceFrom:    35,
			PriceKnown:   true,
			SourceName:   "agenda",
		},
	}
	booking := model.CanonicalEvent{
		ID: "booking",
		Posting: model.Posting{
			Title:                 "Ballet Casse-Noisette",
			DateStart:             "2025-12-24",
			LocationName:          "Opéra Garnier",
			Description:           "Réservez vos places.",
			TicketURL:             "https://billets.example/casse-noisette",
			HasDirectTicketButton: true,
			SourceName:            "billetweb",
		},
	}

	kept, _ := d.Deduplicate([]model.CanonicalEvent{canonical, booking})
	if len(kept) != 1 {
		t.Fatalf("got %d events, want 1", len(kept))
	}
	got := kept[0]
	if got.ID != "info" {
		t.Fatalf("kept id = %s, want the more complete side", got.ID)
	}
	if got.TicketURL != "https://billets.example/casse-noisette" || !got.HasDirectTicketButton {
		t.Errorf("ticket = (%q, %v), want the direct booking link to win wholesale",
			got.TicketURL, got.HasDirectTicketButton)
	}
}

func TestDeduplicateTrustedSourceWinsTie(t *testing.T) {
	d := New(DefaultConfig(), discardLogger())

	scraped := event("scraped", "Symphonie Fantastique", "2026-01-10", "Grande Salle Pierre Boulez")
	official := event("official", "Symphonie Fantastique", "2026-01-10", "Grande Salle Pierre Boulez")
	official.SourceName = "philharmonie-de-paris"

	_, matches := d.Deduplicate([]model.CanonicalEvent{scraped, official})
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].CanonicalID != "official" {
		t.Errorf("canonical = %s, want the trusted source", matches[0].CanonicalID)
	}
}
