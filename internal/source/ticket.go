package source

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"paris_events/internal/model"
)

var buttonTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`acheter.*billet`),
	regexp.MustCompile(`achat.*billet`),
	regexp.MustCompile(`billets?\b`),
	regexp.MustCompile(`billetterie`),
	regexp.MustCompile(`réserver`),
	regexp.MustCompile(`reserver`),
	regexp.MustCompile(`réservation`),
	regexp.MustCompile(`reservation`),
	regexp.MustCompile(`je réserve`),
	regexp.MustCompile(`s'inscrire`),
	regexp.MustCompile(`inscription`),
	regexp.MustCompile(`prendre.*place`),
	regexp.MustCompile(`buy.*ticket`),
	regexp.MustCompile(`get.*ticket`),
	regexp.MustCompile(`book.*now`),
	regexp.MustCompile(`book.*ticket`),
	regexp.MustCompile(`purchase.*ticket`),
	regexp.MustCompile(`reserve.*now`),
	regexp.MustCompile(`register\b`),
	regexp.MustCompile(`sign.*up`),
	regexp.MustCompile(`ticket`),
	regexp.MustCompile(`booking`),
}

var ticketURLParts = []string{
	"/billet", "/ticket", "/resa", "/reserv", "/book", "/achat",
	"/checkout", "/paiement", "/payment", "/inscription", "/register",
	"billetweb", "fnacspectacles", "ticketmaster", "eventbrite",
	"weezevent", "seetickets", "digitick", "francebillet",
}

// avoidPatterns rejects links that merely navigate the site rather than
// sell a ticket for the event at hand.
var avoidPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://[^/]+/?$`),
	regexp.MustCompile(`/concerts?/?$`),
	regexp.MustCompile(`/events?/?$`),
	regexp.MustCompile(`/agenda/?$`),
	regexp.MustCompile(`/spectacles?/?$`),
	regexp.MustCompile(`/programme/?$`),
	regexp.MustCompile(`/saison/?$`),
	regexp.MustCompile(`/category/`),
	regexp.MustCompile(`/categories/`),
	regexp.MustCompile(`/artiste/`),
	regexp.MustCompile(`/artist/`),
	regexp.MustCompile(`/venue/`),
	regexp.MustCompile(`/lieu/`),
	regexp.MustCompile(`/about`),
	regexp.MustCompile(`/contact`),
	regexp.MustCompile(`/faq`),
}

// TicketExtractor visits event pages and looks for a direct booking link.
type TicketExtractor struct {
	fetcher *Fetcher
	log     *slog.Logger
}

// NewTicketExtractor creates a ticket extractor.
func NewTicketExtractor(f *Fetcher, log *slog.Logger) *TicketExtractor {
	return &TicketExtractor{fetcher: f, log: log}
}

// Enrich follows each posting's page and records a direct ticket link when
// one is found. Only runs for sources configured with ticket_pages.
func (t *TicketExtractor) Enrich(ctx context.Context, src model.Source, postings []model.RawPosting) {
	if !src.TicketPages {
		return
	}
	for i := range postings {
		if postings[i].HasDirectTicketButton || postings[i].SourceURL == "" {
			continue
		}
		link, direct := t.FindTicketLink(ctx, postings[i].SourceURL)
		if direct {
			postings[i].TicketURL = link
			postings[i].HasDirectTicketButton = true
		}
	}
}

// FindTicketLink fetches pageURL and returns the best booking link on it.
// The second return reports whether a direct link was found; when it is
// false the page URL itself is returned.
func (t *TicketExtractor) FindTicketLink(ctx context.Context, pageURL string) (string, bool) {
	body, err := t.fetcher.Get(ctx, pageURL)
	if err != nil {
		t.log.Debug("ticket page fetch failed", "url", pageURL, "error", err)
		return pageURL, false
	}
	return findTicketLink(body, pageURL)
}

func findTicketLink(body []byte, pageURL string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageURL, false
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return pageURL, false
	}

	var byText, byHref string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref).String()
		lowered := strings.ToLower(resolved)
		for _, re := range avoidPatterns {
			if re.MatchString(lowered) {
				return true
			}
		}

		label := strings.ToLower(strings.TrimSpace(s.Text()))
		if aria, ok := s.Attr("aria-label"); ok {
			label += " " + strings.ToLower(aria)
		}
		if title, ok := s.Attr("title"); ok {
			label += " " + strings.ToLower(title)
		}
		for _, re := range buttonTextPatterns {
			if re.MatchString(label) {
				byText = resolved
				return false
			}
		}
		if byHref == "" {
			for _, part := range ticketURLParts {
				if strings.Contains(lowered, part) {
					byHref = resolved
					break
				}
			}
		}
		return true
	})

	// A labelled booking button beats a URL that merely looks bookable.
	if byText != "" {
		return byText, true
	}
	if byHref != "" {
		return byHref, true
	}
	return pageURL, false
}
