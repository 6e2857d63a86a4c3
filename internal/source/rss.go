package source

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"paris_events/internal/model"
)

// RSS fetches feed sources and maps their items onto raw postings.
type RSS struct {
	fetcher *Fetcher
}

// NewRSS creates the RSS adapter.
func NewRSS(f *Fetcher) *RSS {
	return &RSS{fetcher: f}
}

// Fetch downloads and parses the source's feed.
func (a *RSS) Fetch(ctx context.Context, src model.Source) ([]model.RawPosting, error) {
	body, err := a.fetcher.Get(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	postings := make([]model.RawPosting, 0, len(feed.Items))
	for _, item := range feed.Items {
		p := model.RawPosting{
			Title:       item.Title,
			Description: item.Description,
			SourceName:  src.Name,
			SourceURL:   item.Link,
		}
		if p.Description == "" {
			p.Description = item.Content
		}
		if p.SourceURL == "" {
			p.SourceURL = src.URL
		}
		if item.PublishedParsed != nil {
			p.DateStartText = item.PublishedParsed.Format("2006-01-02")
		} else {
			p.DateStartText = item.Published
		}
		if item.Image != nil {
			p.ImageURL = item.Image.URL
		} else if item.ITunesExt != nil {
			p.ImageURL = item.ITunesExt.Image
		}
		if len(item.Categories) > 0 {
			p.CategoryHint = item.Categories[0]
			p.Tags = item.Categories
		}
		postings = append(postings, p)
	}
	return postings, nil
}
