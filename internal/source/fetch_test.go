package source

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"testing"

	"paris_events/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
	gotReq     *http.Request
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func TestGet(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
		wantBody  string
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: "hello", statusCode: 200},
			wantBody:  "hello",
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(tt.transport)
			body, err := f.Get(context.Background(), "https://example.com/feed")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestGetSetsUserAgent(t *testing.T) {
	m := &mockTransport{body: "ok", statusCode: 200}
	f := NewFetcher(m)

	if _, err := f.Get(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.gotReq.Header.Get("User-Agent"); got != "ParisEventsBot/1.0" {
		t.Errorf("User-Agent = %q, want %q", got, "ParisEventsBot/1.0")
	}
}

func TestForSource(t *testing.T) {
	adapters := NewAdapters(NewFetcher(&mockTransport{statusCode: 200}))

	for _, typ := range []model.SourceType{model.SourceRSS, model.SourceHTML, model.SourceICS} {
		if _, ok := adapters.ForSource(model.Source{Type: typ}); !ok {
			t.Errorf("no adapter for type %q", typ)
		}
	}
	if _, ok := adapters.ForSource(model.Source{Type: "carrier-pigeon"}); ok {
		t.Error("expected no adapter for unknown type")
	}
}
