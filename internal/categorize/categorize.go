// Package categorize assigns a category and optional sub-category to
// postings. An external classifier is consulted first when configured, but
// its answer is only accepted if it names a known category; everything
// else falls through to a deterministic keyword scorer that works offline.
package categorize

import (
	"context"
	"log/slog"
	"strings"

	"paris_events/internal/model"
)

// Request carries the posting fields the categorizer looks at.
type Request struct {
	Title       string
	Description string
	SourceName  string
	VenueName   string
}

// Result is a raw classifier answer, unvalidated.
type Result struct {
	Category    string
	SubCategory string
}

// Classifier is an optional external classification service. Any error
// counts as "unavailable" and the caller falls back to rules.
type Classifier interface {
	Classify(ctx context.Context, req Request) (Result, error)
}

// Tier names which decision path produced a category.
type Tier string

const (
	TierClassifier Tier = "classifier"
	TierHint       Tier = "hint"
	TierRules      Tier = "rules"
	TierDefault    Tier = "default"
)

// Categorizer decides one category per posting.
type Categorizer struct {
	classifier Classifier
	log        *slog.Logger
}

// New creates a Categorizer. classifier may be nil, in which case only the
// hint and rule tiers run.
func New(classifier Classifier, log *slog.Logger) *Categorizer {
	return &Categorizer{classifier: classifier, log: log}
}

// Categorize resolves the category and sub-category for one posting.
// Decision order: validated classifier answer, then an alias-resolvable
// source hint, then keyword rules, then the culture catch-all. The
// returned value is always a member of the closed category set.
func (c *Categorizer) Categorize(ctx context.Context, req Request, hint string) (model.Category, string, Tier) {
	if c.classifier != nil {
		res, err := c.classifier.Classify(ctx, req)
		switch {
		case err != nil:
			c.log.Debug("classifier unavailable", "title", req.Title, "error", err)
		default:
			if cat, ok := model.ParseCategory(res.Category); ok {
				return cat, res.SubCategory, TierClassifier
			}
			c.log.Debug("classifier returned unknown category", "category", res.Category)
		}
	}

	text := strings.ToLower(req.Title + " " + req.Description + " " + req.VenueName)

	if hint != "" {
		if cat, ok := model.CategoryFromAlias(hint); ok {
			return cat, findSubCategory(text, cat), TierHint
		}
	}

	if cat, ok := scoreKeywords(text); ok {
		return cat, findSubCategory(text, cat), TierRules
	}
	return model.CategoryCulture, "", TierDefault
}

// scoreKeywords counts keyword presence per category over the combined
// text. Strict greater-than comparison in enum order makes ties land on
// the first category to reach the top score.
func scoreKeywords(text string) (model.Category, bool) {
	var best model.Category
	bestScore := 0
	for _, cat := range model.Categories() {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = cat, score
		}
	}
	return best, bestScore > 0
}

// findSubCategory returns the first sub-category of cat whose name appears
// in the text, trying the space-separated and hyphen-separated spellings
// of the underscore identifier. Empty when none match.
func findSubCategory(text string, cat model.Category) string {
	for _, sub := range subCategories[cat] {
		spaced := strings.ReplaceAll(sub, "_", " ")
		hyphened := strings.ReplaceAll(sub, "_", "-")
		if strings.Contains(text, spaced) || strings.Contains(text, hyphened) {
			return sub
		}
	}
	return ""
}
