package categorize

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type mockClient struct {
	body       string
	statusCode int
	err        error
	gotReq     *chatRequest
	gotAuth    string
}

func (m *mockClient) Do(req *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.gotAuth = req.Header.Get("Authorization")
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		var cr chatRequest
		if err := json.Unmarshal(data, &cr); err != nil {
			return nil, err
		}
		m.gotReq = &cr
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(strings.NewReader(m.body)),
	}, nil
}

func chatBody(t *testing.T, content string) string {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal chat body: %v", err)
	}
	return string(data)
}

func TestClientClassify(t *testing.T) {
	tests := []struct {
		name    string
		mock    *mockClient
		want    Result
		wantErr bool
	}{
		{
			name: "plain json answer",
			mock: &mockClient{body: chatBody(t, `{"category": "music", "sub_category": "jazz"}`), statusCode: 200},
			want: Result{Category: "music", SubCategory: "jazz"},
		},
		{
			name: "markdown fenced answer",
			mock: &mockClient{body: chatBody(t, "```json\n{\"category\": \"spectacles\"}\n```"), statusCode: 200},
			want: Result{Category: "spectacles"},
		},
		{
			name:    "prose without json",
			mock:    &mockClient{body: chatBody(t, "I think this is a concert."), statusCode: 200},
			wantErr: true,
		},
		{
			name:    "no choices",
			mock:    &mockClient{body: `{"choices": []}`, statusCode: 200},
			wantErr: true,
		},
		{
			name:    "http error status",
			mock:    &mockClient{body: "rate limited", statusCode: 429},
			wantErr: true,
		},
		{
			name:    "network error",
			mock:    &mockClient{err: io.ErrUnexpectedEOF},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.mock, "https://llm.example/v1/chat/completions", "gpt-4o-mini", "", 5*time.Second)
			got, err := c.Classify(context.Background(), Request{Title: "Concert de jazz"})

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClientRequestShape(t *testing.T) {
	mock := &mockClient{body: chatBody(t, `{"category": "culture"}`), statusCode: 200}
	c := NewClient(mock, "https://llm.example/v1/chat/completions", "gpt-4o-mini", "secret", 5*time.Second)

	_, err := c.Classify(context.Background(), Request{
		Title:       "Exposition Monet",
		Description: "Une rétrospective majeure",
		SourceName:  "orangerie",
		VenueName:   "Musée de l'Orangerie",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want bearer token", mock.gotAuth)
	}
	req := mock.gotReq
	if req == nil {
		t.Fatal("no request captured")
	}
	if req.Model != "gpt-4o-mini" || req.Temperature != 0.1 || req.MaxTokens != 100 {
		t.Errorf("request shape = {%s %v %d}, want {gpt-4o-mini 0.1 100}", req.Model, req.Temperature, req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v, want system then user", req.Messages)
	}
	prompt := req.Messages[1].Content
	for _, must := range []string{"Exposition Monet", "Musée de l'Orangerie", "visual-arts", "food-and-drink", "Respond with JSON only"} {
		if !strings.Contains(prompt, must) {
			t.Errorf("prompt missing %q", must)
		}
	}
}
