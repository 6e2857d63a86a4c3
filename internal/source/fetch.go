package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"paris_events/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	userAgent   = "ParisEventsBot/1.0"
	maxBodySize = 5 * 1024 * 1024
)

// Fetcher downloads source payloads with a shared client.
type Fetcher struct {
	client HTTPClient
}

// NewFetcher creates a Fetcher using the given HTTP client.
func NewFetcher(client HTTPClient) *Fetcher {
	return &Fetcher{client: client}
}

// Get downloads url and returns at most the first 5 MiB of the body.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Adapter turns one configured source into raw postings.
type Adapter interface {
	Fetch(ctx context.Context, src model.Source) ([]model.RawPosting, error)
}

// AdapterSet maps source types onto their adapters.
type AdapterSet map[model.SourceType]Adapter

// NewAdapters wires one adapter per source type over a shared fetcher.
func NewAdapters(f *Fetcher) AdapterSet {
	return AdapterSet{
		model.SourceRSS:  NewRSS(f),
		model.SourceHTML: NewHTML(f),
		model.SourceICS:  NewICS(f),
	}
}

// ForSource returns the adapter handling src's type.
func (a AdapterSet) ForSource(src model.Source) (Adapter, bool) {
	adapter, ok := a[src.Type]
	return adapter, ok
}
