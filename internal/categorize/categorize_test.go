package categorize

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"paris_events/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClassifier struct {
	res   Result
	err   error
	calls int
}

func (f *fakeClassifier) Classify(_ context.Context, _ Request) (Result, error) {
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	return f.res, nil
}

func TestCategorizeRules(t *testing.T) {
	c := New(nil, discardLogger())

	tests := []struct {
		name     string
		req      Request
		hint     string
		wantCat  model.Category
		wantSub  string
		wantTier Tier
	}{
		{
			name:     "exposition resolves to visual arts",
			req:      Request{Title: "Exposition Monet"},
			wantCat:  model.CategoryVisualArts,
			wantSub:  "exposition",
			wantTier: TierRules,
		},
		{
			name:     "concert resolves to music",
			req:      Request{Title: "Concert de jazz au Sunset"},
			wantCat:  model.CategoryMusic,
			wantSub:  "jazz",
			wantTier: TierRules,
		},
		{
			name:     "nightlife keywords across title and venue",
			req:      Request{Title: "Soirée DJ", VenueName: "Le Rooftop"},
			wantCat:  model.CategoryNightlife,
			wantSub:  "rooftop",
			wantTier: TierRules,
		},
		{
			name:     "hyphenated sub-category spelling",
			req:      Request{Title: "Stand-up comedy night"},
			wantCat:  model.CategorySpectacles,
			wantSub:  "stand_up",
			wantTier: TierRules,
		},
		{
			name:     "tie breaks on enum order",
			req:      Request{Title: "Théâtre et concert"},
			wantCat:  model.CategorySpectacles,
			wantSub:  "",
			wantTier: TierRules,
		},
		{
			name:     "no keyword falls back to culture",
			req:      Request{Title: "Quiz du dimanche"},
			wantCat:  model.CategoryCulture,
			wantSub:  "",
			wantTier: TierDefault,
		},
		{
			name:     "alias hint short-circuits rules",
			req:      Request{Title: "Balade nocturne"},
			hint:     "exposition",
			wantCat:  model.CategoryVisualArts,
			wantSub:  "",
			wantTier: TierHint,
		},
		{
			name:     "unknown hint falls through to rules",
			req:      Request{Title: "Balade nocturne"},
			hint:     "patinage",
			wantCat:  model.CategoryCulture,
			wantSub:  "",
			wantTier: TierDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, sub, tier := c.Categorize(context.Background(), tt.req, tt.hint)
			if cat != tt.wantCat || sub != tt.wantSub || tier != tt.wantTier {
				t.Errorf("Categorize(%q, hint=%q) = (%s, %q, %s), want (%s, %q, %s)",
					tt.req.Title, tt.hint, cat, sub, tier, tt.wantCat, tt.wantSub, tt.wantTier)
			}
		})
	}
}

func TestCategorizeClassifier(t *testing.T) {
	t.Run("valid answer wins over hint and rules", func(t *testing.T) {
		fake := &fakeClassifier{res: Result{Category: "music", SubCategory: "jazz"}}
		c := New(fake, discardLogger())

		cat, sub, tier := c.Categorize(context.Background(), Request{Title: "Exposition Monet"}, "exposition")
		if cat != model.CategoryMusic || sub != "jazz" || tier != TierClassifier {
			t.Errorf("got (%s, %q, %s), want classifier answer (music, jazz)", cat, sub, tier)
		}
		if fake.calls != 1 {
			t.Errorf("classifier called %d times, want 1", fake.calls)
		}
	})

	t.Run("unknown category falls through to rules", func(t *testing.T) {
		fake := &fakeClassifier{res: Result{Category: "banquet"}}
		c := New(fake, discardLogger())

		cat, _, tier := c.Categorize(context.Background(), Request{Title: "Exposition Monet"}, "")
		if cat != model.CategoryVisualArts || tier != TierRules {
			t.Errorf("got (%s, %s), want rules fallback to visual-arts", cat, tier)
		}
	})

	t.Run("classifier error falls through silently", func(t *testing.T) {
		fake := &fakeClassifier{err: errors.New("connection refused")}
		c := New(fake, discardLogger())

		cat, _, tier := c.Categorize(context.Background(), Request{Title: "Concert symphonique"}, "")
		if cat != model.CategoryMusic || tier != TierRules {
			t.Errorf("got (%s, %s), want rules fallback to music", cat, tier)
		}
	})
}

func TestCategorizeClosedSet(t *testing.T) {
	c := New(&fakeClassifier{res: Result{Category: "not-a-category"}}, discardLogger())

	titles := []string{
		"Exposition Monet", "Concert de jazz", "Cours de yoga", "Dégustation de vin",
		"Soirée DJ", "Afterwork networking", "Atelier poterie", "Projection de film", "N'importe quoi",
	}
	valid := make(map[model.Category]bool)
	for _, cat := range model.Categories() {
		valid[cat] = true
	}
	for _, title := range titles {
		cat, _, _ := c.Categorize(context.Background(), Request{Title: title}, "")
		if !valid[cat] {
			t.Errorf("Categorize(%q) returned %q, outside the closed set", title, cat)
		}
	}
}
