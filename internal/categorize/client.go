package categorize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"paris_events/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to an OpenAI-compatible chat-completions endpoint and asks
// it to pick a category. It satisfies Classifier; callers treat every
// returned error as "service unavailable".
type Client struct {
	client  HTTPClient
	url     string
	model   string
	apiKey  string
	timeout time.Duration
}

var _ Classifier = (*Client)(nil)

// NewClient creates a classifier client. apiKey may be empty for endpoints
// that do not authenticate; timeout <= 0 defaults to 10s.
func NewClient(client HTTPClient, url, model, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		client:  client,
		url:     url,
		model:   model,
		apiKey:  apiKey,
		timeout: timeout,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// jsonObjectRe pulls a JSON object out of a markdown-fenced reply.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Classify submits one posting and parses the {category, sub_category}
// answer, tolerating markdown fencing around the JSON.
func (c *Client) Classify(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an event categorizer. Respond only with valid JSON."},
			{Role: "user", Content: buildPrompt(req)},
		},
		Temperature: 0.1,
		MaxTokens:   100,
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("no choices in response")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if strings.Contains(content, "```") {
		content = jsonObjectRe.FindString(content)
	}

	var out struct {
		Category    string `json:"category"`
		SubCategory string `json:"sub_category"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Result{}, fmt.Errorf("parse classification: %w", err)
	}
	return Result{Category: out.Category, SubCategory: out.SubCategory}, nil
}

func buildPrompt(req Request) string {
	desc := req.Description
	if desc == "" {
		desc = "N/A"
	} else if len(desc) > 500 {
		desc = desc[:500]
	}

	var b strings.Builder
	b.WriteString("Classify this Paris event into exactly ONE category.\n\n")
	fmt.Fprintf(&b, "Event:\n- Title: %s\n- Description: %s\n- Source: %s\n- Venue: %s\n\n",
		req.Title, desc, req.SourceName, req.VenueName)
	b.WriteString("Categories (choose ONE):\n")
	for _, cat := range model.Categories() {
		fmt.Fprintf(&b, "- %s: %s\n", cat, categoryGlosses[cat])
	}
	b.WriteString("\nRespond with JSON only:\n{\"category\": \"category_name\", \"sub_category\": \"optional_subcategory\"}")
	return b.String()
}
