package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"paris_events/internal/model"
)

// HTML scrapes listing pages using the per-source CSS selectors.
type HTML struct {
	fetcher *Fetcher
}

// NewHTML creates the HTML adapter.
func NewHTML(f *Fetcher) *HTML {
	return &HTML{fetcher: f}
}

// Fetch downloads the listing page and extracts one posting per item match.
func (a *HTML) Fetch(ctx context.Context, src model.Source) ([]model.RawPosting, error) {
	body, err := a.fetcher.Get(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	sel := src.Selectors
	var postings []model.RawPosting
	doc.Find(sel.Item).Each(func(_ int, item *goquery.Selection) {
		p := model.RawPosting{
			Title:         selText(item, sel.Title),
			Description:   selText(item, sel.Description),
			SourceName:    src.Name,
			SourceURL:     src.URL,
			DateStartText: selText(item, sel.Date),
			TimeStartText: selText(item, sel.Time),
			LocationName:  selText(item, sel.Venue),
			AddressText:   selText(item, sel.Address),
			PriceText:     selText(item, sel.Price),
		}
		if href := selAttr(item, sel.Link, "href"); href != "" {
			p.SourceURL = resolveURL(base, href)
		}
		if img := selAttr(item, sel.Image, "src"); img != "" {
			p.ImageURL = resolveURL(base, img)
		}
		postings = append(postings, p)
	})
	return postings, nil
}

func selText(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func selAttr(s *goquery.Selection, selector, name string) string {
	if selector == "" {
		return ""
	}
	v, _ := s.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func resolveURL(base *url.URL, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}
