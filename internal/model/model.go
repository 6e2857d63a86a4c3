// Package model defines the domain types used across the application.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Category is the closed set of primary event categories.
type Category string

// The closed category set. Order matters: rule-based categorization breaks
// ties by the first category to reach the top score.
const (
	CategorySpectacles   Category = "spectacles"
	CategoryMusic        Category = "music"
	CategoryVisualArts   Category = "visual-arts"
	CategoryWorkshops    Category = "workshops"
	CategorySport        Category = "sport"
	CategoryFoodAndDrink Category = "food-and-drink"
	CategoryCulture      Category = "culture"
	CategoryNightlife    Category = "nightlife"
	CategorySocial       Category = "social"
)

// Categories returns the closed category set in canonical order.
func Categories() []Category {
	return []Category{
		CategorySpectacles,
		CategoryMusic,
		CategoryVisualArts,
		CategoryWorkshops,
		CategorySport,
		CategoryFoodAndDrink,
		CategoryCulture,
		CategoryNightlife,
		CategorySocial,
	}
}

// ParseCategory maps a string onto the closed category set.
// Only exact (case-insensitive) ids are accepted.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// categoryAliases maps free-form category labels, French and English,
// onto the closed set.
var categoryAliases = map[string]Category{
	"concert":    CategoryMusic,
	"concerts":   CategoryMusic,
	"musique":    CategoryMusic,
	"live music": CategoryMusic,
	"classical":  CategoryMusic,
	"classique":  CategoryMusic,
	"jazz":       CategoryMusic,
	"rock":       CategoryMusic,
	"pop":        CategoryMusic,
	"electro":    CategoryMusic,
	"electronic": CategoryMusic,

	"opera":    CategorySpectacles,
	"opéra":    CategorySpectacles,
	"theater":  CategorySpectacles,
	"theatre":  CategorySpectacles,
	"théâtre":  CategorySpectacles,
	"comedy":   CategorySpectacles,
	"comédie":  CategorySpectacles,
	"stand-up": CategorySpectacles,
	"standup":  CategorySpectacles,
	"humour":   CategorySpectacles,
	"circus":   CategorySpectacles,
	"cirque":   CategorySpectacles,
	"danse":    CategorySpectacles,
	"dance":    CategorySpectacles,
	"ballet":   CategorySpectacles,
	"cabaret":  CategorySpectacles,

	"exhibition":   CategoryVisualArts,
	"exposition":   CategoryVisualArts,
	"expo":         CategoryVisualArts,
	"museum":       CategoryVisualArts,
	"musée":        CategoryVisualArts,
	"gallery":      CategoryVisualArts,
	"galerie":      CategoryVisualArts,
	"art":          CategoryVisualArts,
	"arts visuels": CategoryVisualArts,
	"arts_visuels": CategoryVisualArts,
	"photography":  CategoryVisualArts,
	"photographie": CategoryVisualArts,
	"vernissage":   CategoryVisualArts,

	"workshop":  CategoryWorkshops,
	"atelier":   CategoryWorkshops,
	"ateliers":  CategoryWorkshops,
	"class":     CategoryWorkshops,
	"cours":     CategoryWorkshops,
	"ceramics":  CategoryWorkshops,
	"céramique": CategoryWorkshops,
	"pottery":   CategoryWorkshops,
	"poterie":   CategoryWorkshops,
	"painting":  CategoryWorkshops,
	"peinture":  CategoryWorkshops,
	"drawing":   CategoryWorkshops,
	"dessin":    CategoryWorkshops,
	"craft":     CategoryWorkshops,
	"artisanat": CategoryWorkshops,

	"fitness": CategorySport,
	"yoga":    CategorySport,
	"running": CategorySport,
	"cycling": CategorySport,
	"vélo":    CategorySport,

	"food":        CategoryFoodAndDrink,
	"wine":        CategoryFoodAndDrink,
	"vin":         CategoryFoodAndDrink,
	"cooking":     CategoryFoodAndDrink,
	"cuisine":     CategoryFoodAndDrink,
	"gastronomie": CategoryFoodAndDrink,
	"dégustation": CategoryFoodAndDrink,
	"tasting":     CategoryFoodAndDrink,
	"brunch":      CategoryFoodAndDrink,

	"conference":    CategoryCulture,
	"conférence":    CategoryCulture,
	"talk":          CategoryCulture,
	"lecture":       CategoryCulture,
	"film":          CategoryCulture,
	"cinema":        CategoryCulture,
	"cinéma":        CategoryCulture,
	"movie":         CategoryCulture,
	"visite":        CategoryCulture,
	"visit":         CategoryCulture,
	"guided tour":   CategoryCulture,
	"visite guidée": CategoryCulture,

	"party":  CategoryNightlife,
	"soirée": CategoryNightlife,
	"club":   CategoryNightlife,
	"dj":     CategoryNightlife,
	"bar":    CategoryNightlife,

	"meetup":       CategorySocial,
	"networking":   CategorySocial,
	"afterwork":    CategorySocial,
	"speed dating": CategorySocial,
	"rencontre":    CategorySocial,
	"rencontres":   CategorySocial,
}

// CategoryFromAlias resolves a free-form category label to a member of the
// closed set. Exact ids resolve first, then the alias table.
func CategoryFromAlias(s string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := ParseCategory(key); ok {
		return c, true
	}
	c, ok := categoryAliases[key]
	return c, ok
}

// TimeOfDay is the coarse daypart bucket derived from an event's start time.
type TimeOfDay string

// Dayparts. Events without a parseable start time default to evening.
const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// RawPosting is one scraped announcement of an event, as emitted by a
// scraping adapter, before any normalization. Free-text fields may mix
// French and English and carry arbitrary noise; optional fields are empty
// when the source did not provide them.
type RawPosting struct {
	Title       string
	Description string

	SourceName string
	SourceURL  string

	DateStartText string
	DateEndText   string
	TimeStartText string
	TimeEndText   string

	LocationName string
	AddressText  string

	PriceText string
	PriceFrom *float64
	PriceTo   *float64
	IsFree    bool

	ImageURL              string
	TicketURL             string
	HasDirectTicketButton bool

	OrganizerName string
	Latitude      *float64
	Longitude     *float64

	CategoryHint string
	Tags         []string
}

// Posting is a RawPosting with every loosely-typed field resolved to its
// canonical form. DateStart is always set; optional fields are empty when
// absent rather than failed.
type Posting struct {
	Title       string
	Description string

	SourceName string
	SourceURL  string

	DateStart string // "2006-01-02", never empty
	DateEnd   string
	TimeStart string // "15:04"
	TimeEnd   string
	TimeOfDay TimeOfDay

	LocationName   string
	Address        string
	Arrondissement int // 1..20, 0 when unknown
	Latitude       *float64
	Longitude      *float64

	PriceFrom  float64
	PriceTo    *float64
	IsFree     bool
	PriceKnown bool
	Currency   string

	ImageURL              string
	TicketURL             string
	HasDirectTicketButton bool

	OrganizerName string
	CategoryHint  string
	Tags          []string
}

// CanonicalEvent is the deduplicated, categorized record ready for storage.
// After creation it is mutated only by the deduplication merge step.
type CanonicalEvent struct {
	ID string
	Posting
	Category    Category
	SubCategory string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DuplicateMatch records one confirmed duplicate pair during a pipeline run.
// It is never persisted.
type DuplicateMatch struct {
	CanonicalID string
	DuplicateID string
	Similarity  float64
	Reason      string
}

// ScrapeRun records the outcome of ingesting a single source once.
type ScrapeRun struct {
	ID         string
	SourceID   string
	StartedAt  time.Time
	FinishedAt time.Time
	Found      int
	Added      int
	Updated    int
	Merged     int
	Errors     int
}

// SourceType selects the scraping adapter for a source.
type SourceType string

const (
	SourceRSS  SourceType = "rss"
	SourceHTML SourceType = "html"
	SourceICS  SourceType = "ics"
)

// Frequency is how often a source is scraped.
type Frequency string

const (
	Hourly  Frequency = "hourly"
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Selectors holds the CSS selectors the HTML adapter applies to a listing
// page. Item scopes one event card; the rest are resolved within it.
type Selectors struct {
	Item        string `yaml:"item"`
	Title       string `yaml:"title"`
	Date        string `yaml:"date"`
	Time        string `yaml:"time"`
	Venue       string `yaml:"venue"`
	Address     string `yaml:"address"`
	Price       string `yaml:"price"`
	Image       string `yaml:"image"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
}

// Source describes one place events are scraped from.
type Source struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	URL         string     `yaml:"url"`
	Type        SourceType `yaml:"type"`
	Frequency   Frequency  `yaml:"frequency"`
	Active      bool       `yaml:"active"`
	TicketPages bool       `yaml:"ticket_pages"`
	WindowDays  int        `yaml:"window_days"` // recurrence expansion window, default 90
	Selectors   Selectors  `yaml:"selectors"`
}

// EventID derives the deterministic event identifier so that re-ingesting
// the same posting always yields the same id.
func EventID(title, dateStart, location, source string) string {
	key := strings.ToLower(title) + "|" + dateStart + "|" + strings.ToLower(location) + "|" + source
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}
