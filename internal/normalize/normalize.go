// Package normalize converts free-text posting fields into typed canonical
// values. Every parser here is total: unparseable input degrades to a
// documented default instead of returning an error, so ingestion never
// stops on adversarial scraped text.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"paris_events/internal/model"
)

const (
	dateLayout = "2006-01-02"
)

// Fallback records one field that could not be parsed and was resolved to
// its default value. The pipeline logs and counts these.
type Fallback struct {
	Field  string
	Reason string
}

// dateLayouts are tried in order against the raw text before any
// month-name mapping.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2/1/2006",
	"2-1-2006",
	"2/1/06",
}

// tokenLayouts are tried after month and weekday names have been mapped to
// numeric tokens.
var tokenLayouts = []string{
	"2 1 2006",
	"2 1 06",
	"2006 1 2",
}

var monthNumbers = map[string]int{
	"janvier": 1, "février": 2, "fevrier": 2, "mars": 3, "avril": 4,
	"mai": 5, "juin": 6, "juillet": 7, "août": 8, "aout": 8,
	"septembre": 9, "octobre": 10, "novembre": 11, "décembre": 12, "decembre": 12,
	"jan": 1, "fév": 2, "fev": 2, "mar": 3, "avr": 4, "juil": 7,
	"aoû": 8, "aou": 8, "sep": 9, "sept": 9, "oct": 10, "nov": 11,
	"déc": 12, "dec": 12,
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5,
	"june": 6, "july": 7, "august": 8, "september": 9, "october": 10,
	"november": 11, "december": 12,
	"feb": 2, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
}

var weekdayNames = map[string]bool{
	"lundi": true, "mardi": true, "mercredi": true, "jeudi": true,
	"vendredi": true, "samedi": true, "dimanche": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

var (
	reDayMonthYear = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	reYearMonthDay = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
)

// ParseDate resolves free-text dates ("2025-12-15", "15/12/2025",
// "samedi 15 décembre 2025") to "YYYY-MM-DD". Day-month forms without a
// year take the year from now. When nothing matches the current date is
// returned with ok=false; ingestion never fails on a bad date.
func ParseDate(text string, now time.Time) (string, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return now.Format(dateLayout), false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout), true
		}
	}

	if d, ok := parseNamedDate(s, now); ok {
		return d, true
	}

	if m := reDayMonthYear.FindStringSubmatch(s); m != nil {
		if d, ok := buildDate(atoi(m[3]), atoi(m[2]), atoi(m[1])); ok {
			return d, true
		}
	}
	if m := reYearMonthDay.FindStringSubmatch(s); m != nil {
		if d, ok := buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return d, true
		}
	}

	return now.Format(dateLayout), false
}

// parseNamedDate handles day-plus-month-name forms in French and English.
// Weekday names are dropped, month names become numbers, ordinal suffixes
// ("1er", "2ème") are stripped, and the remaining tokens are matched
// against numeric layouts.
func parseNamedDate(s string, now time.Time) (string, bool) {
	lower := strings.ToLower(s)
	raw := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if weekdayNames[tok] {
			continue
		}
		if m, ok := monthNumbers[tok]; ok {
			tokens = append(tokens, strconv.Itoa(m))
			continue
		}
		tokens = append(tokens, stripOrdinal(tok))
	}
	joined := strings.Join(tokens, " ")
	if joined == "" {
		return "", false
	}

	for _, layout := range tokenLayouts {
		if t, err := time.Parse(layout, joined); err == nil {
			return t.Format(dateLayout), true
		}
	}

	// Day and month only: assume the current year.
	if t, err := time.Parse("2 1", joined); err == nil {
		return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(dateLayout), true
	}

	return "", false
}

// stripOrdinal reduces "1er" or "2ème" to the bare day number.
func stripOrdinal(tok string) string {
	i := 0
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i == 0 || i == len(tok) {
		return tok
	}
	return tok[:i]
}

func buildDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format(dateLayout), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var (
	timePrefixRe = regexp.MustCompile(`^(?:at|à|a|from|dès|de)\s*`)
	reHourMin    = regexp.MustCompile(`^(\d{1,2})[h:](\d{2})$`)
	reHourOnly   = regexp.MustCompile(`^(\d{1,2})h$`)
	reColonSec   = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
	reHour12     = regexp.MustCompile(`^(\d{1,2})\s*(am|pm)$`)
	reHourMin12  = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(am|pm)$`)
)

// ParseTime resolves "20h30", "20h", "20:30", "8 pm" or "8:30 pm" to
// "HH:MM" in 24-hour form, stripping leading connector words ("à", "at",
// "from"). Anything else returns ok=false.
func ParseTime(text string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return "", false
	}
	s = strings.TrimSpace(timePrefixRe.ReplaceAllString(s, ""))

	if m := reHourMin.FindStringSubmatch(s); m != nil {
		return clock(m[1], m[2], "")
	}
	if m := reHourOnly.FindStringSubmatch(s); m != nil {
		return clock(m[1], "00", "")
	}
	if m := reColonSec.FindStringSubmatch(s); m != nil {
		return clock(m[1], m[2], "")
	}
	if m := reHour12.FindStringSubmatch(s); m != nil {
		return clock(m[1], "00", m[2])
	}
	if m := reHourMin12.FindStringSubmatch(s); m != nil {
		return clock(m[1], m[2], m[3])
	}
	return "", false
}

func clock(hourStr, minStr, ampm string) (string, bool) {
	h := atoi(hourStr)
	min := atoi(minStr)
	switch {
	case ampm == "pm" && h != 12:
		h += 12
	case ampm == "am" && h == 12:
		h = 0
	}
	if h > 23 || min > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, min), true
}

// TimeOfDay buckets a "HH:MM" start time into a daypart. Missing or
// unparseable input defaults to evening, the most common slot for
// untimed listings.
func TimeOfDay(timeStr string) model.TimeOfDay {
	if timeStr == "" {
		return model.Evening
	}
	h, err := strconv.Atoi(strings.SplitN(timeStr, ":", 2)[0])
	if err != nil {
		return model.Evening
	}
	switch {
	case h >= 6 && h < 12:
		return model.Morning
	case h >= 12 && h < 18:
		return model.Afternoon
	case h >= 18 && h < 23:
		return model.Evening
	default:
		return model.Night
	}
}

// Arrondissement patterns, in priority order: postal code, textual
// district ("12e arrondissement"), then "Paris 12".
var arrondissementRes = []*regexp.Regexp{
	regexp.MustCompile(`750(\d{2})`),
	regexp.MustCompile(`(?i)(\d{1,2})(?:e|ème|eme|er|è)\s*(?:arr|arrondissement)?`),
	regexp.MustCompile(`(?i)paris\s*(\d{1,2})`),
}

// Arrondissement extracts a Paris district number from an address-like
// string. Returns 0 when no district in 1..20 is found.
func Arrondissement(text string) int {
	if text == "" {
		return 0
	}
	for _, re := range arrondissementRes {
		if m := re.FindStringSubmatch(text); m != nil {
			if n := atoi(m[1]); n >= 1 && n <= 20 {
				return n
			}
		}
	}
	return 0
}

// CleanAddress collapses whitespace, extracts the arrondissement, and
// appends the city name when a district was found but the address does
// not mention Paris.
func CleanAddress(text string) (string, int) {
	addr := normalizeText(text)
	if addr == "" {
		return "", 0
	}
	arr := Arrondissement(addr)
	if arr > 0 && !strings.Contains(strings.ToLower(addr), "paris") {
		addr += ", Paris"
	}
	return addr, arr
}

var freePricePatterns = []string{"gratuit", "free", "entrée libre", "libre", "0€", "0 €"}

var priceRe = regexp.MustCompile(`(\d+(?:[.,]\d{2})?)\s*(?:€|eur|euros?)?`)

// ParsePrice extracts a price range from free text. Free keywords win over
// numeric extraction; decimal commas are treated as decimal points. The
// returned values are (from, to, isFree, known): a single number yields a
// nil to, text with no price information at all yields known=false, which
// is distinct from confirmed free.
func ParsePrice(text string) (float64, *float64, bool, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0, nil, false, false
	}

	for _, kw := range freePricePatterns {
		if strings.Contains(s, kw) {
			return 0, nil, true, true
		}
	}

	matches := priceRe.FindAllStringSubmatch(s, -1)
	prices := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		prices = append(prices, v)
	}
	if len(prices) == 0 {
		return 0, nil, false, false
	}
	sort.Float64s(prices)

	lo := prices[0]
	if len(prices) == 1 {
		return lo, nil, lo == 0, true
	}
	hi := prices[len(prices)-1]
	return lo, &hi, lo == 0, true
}

// Normalize converts a raw posting into its canonical typed form. It is a
// pure function of (raw, now) and never fails; each degraded field is
// reported as a Fallback for the caller to log and count.
func Normalize(raw model.RawPosting, now time.Time) (model.Posting, []Fallback) {
	var fallbacks []Fallback

	p := model.Posting{
		Title:                 normalizeText(raw.Title),
		Description:           normalizeText(raw.Description),
		SourceName:            raw.SourceName,
		SourceURL:             raw.SourceURL,
		LocationName:          normalizeText(raw.LocationName),
		Latitude:              raw.Latitude,
		Longitude:             raw.Longitude,
		ImageURL:              raw.ImageURL,
		TicketURL:             raw.TicketURL,
		HasDirectTicketButton: raw.HasDirectTicketButton,
		OrganizerName:         normalizeText(raw.OrganizerName),
		CategoryHint:          raw.CategoryHint,
		Currency:              "EUR",
	}
	if p.LocationName == "" {
		p.LocationName = "Paris"
	}
	if p.TicketURL == "" {
		p.TicketURL = raw.SourceURL
	}

	ds, ok := ParseDate(raw.DateStartText, now)
	p.DateStart = ds
	if !ok {
		reason := "unparseable"
		if strings.TrimSpace(raw.DateStartText) == "" {
			reason = "missing"
		}
		fallbacks = append(fallbacks, Fallback{Field: "date_start", Reason: reason})
	}
	if txt := strings.TrimSpace(raw.DateEndText); txt != "" {
		if de, endOK := ParseDate(txt, now); endOK {
			p.DateEnd = de
		} else {
			fallbacks = append(fallbacks, Fallback{Field: "date_end", Reason: "unparseable"})
		}
	}

	if txt := strings.TrimSpace(raw.TimeStartText); txt != "" {
		if ts, tsOK := ParseTime(txt); tsOK {
			p.TimeStart = ts
		} else {
			fallbacks = append(fallbacks, Fallback{Field: "time_start", Reason: "unparseable"})
		}
	}
	if txt := strings.TrimSpace(raw.TimeEndText); txt != "" {
		if te, teOK := ParseTime(txt); teOK {
			p.TimeEnd = te
		} else {
			fallbacks = append(fallbacks, Fallback{Field: "time_end", Reason: "unparseable"})
		}
	}
	p.TimeOfDay = TimeOfDay(p.TimeStart)

	p.Address, p.Arrondissement = CleanAddress(raw.AddressText)
	if p.Arrondissement == 0 {
		p.Arrondissement = Arrondissement(p.LocationName)
	}

	switch {
	case raw.PriceFrom != nil:
		p.PriceFrom = *raw.PriceFrom
		p.PriceTo = raw.PriceTo
		p.IsFree = raw.IsFree || p.PriceFrom == 0
		p.PriceKnown = true
	case raw.IsFree:
		p.IsFree = true
		p.PriceKnown = true
	default:
		from, to, free, known := ParsePrice(raw.PriceText)
		p.PriceFrom, p.PriceTo, p.IsFree, p.PriceKnown = from, to, free, known
		if !known && strings.TrimSpace(raw.PriceText) != "" {
			fallbacks = append(fallbacks, Fallback{Field: "price", Reason: "unparseable"})
		}
	}
	if p.IsFree {
		p.PriceFrom = 0
	}

	p.Tags = dedupeTags(raw.Tags)

	return p, fallbacks
}

// normalizeText applies NFKC normalization and collapses whitespace.
func normalizeText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
