package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"coinpress/internal/domain"
	"coinpress/internal/ports"
)

const defaultSearchURL = "https://api.twitter.com/2/tweets/search/recent"

// Client fetches candidate tweets via the v2 recent-search endpoint.
type Client struct {
	searchURL   string
	bearerToken string
	query       string
	httpClient  *http.Client
}

var _ ports.ContentSource = (*Client)(nil)

// NewClient wires the bearer token and search query; client defaults to a
// 15s timeout when nil.
func NewClient(bearerToken, query string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		searchURL:   defaultSearchURL,
		bearerToken: bearerToken,
		query:       query,
		httpClient:  httpClient,
	}
}

// Name identifies the source inside the registry.
func (c *Client) Name() string {
	return "twitter"
}

// Fetch runs the recent search and maps tweets to content items.
func (c *Client) Fetch(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	if c.bearerToken == "" {
		return nil, fmt.Errorf("twitter client misconfigured: missing bearer token")
	}
	if limit <= 0 {
		limit = 10
	}

	endpoint, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	q := endpoint.Query()
	q.Set("query", c.query)
	q.Set("max_results", strconv.Itoa(clampResults(limit)))
	q.Set("tweet.fields", "created_at,author_id")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search tweets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter returned %s", resp.Status)
	}

	var payload struct {
		Data []struct {
			ID        string `json:"id"`
			Text      string `json:"text"`
			AuthorID  string `json:"author_id"`
			CreatedAt string `json:"created_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := make([]domain.ContentItem, 0, len(payload.Data))
	for _, tweet := range payload.Data {
		fetchedAt := time.Now().UTC()
		if parsed, pErr := time.Parse(time.RFC3339, tweet.CreatedAt); pErr == nil {
			fetchedAt = parsed
		}
		items = append(items, domain.ContentItem{
			ID:        tweet.ID,
			Text:      tweet.Text,
			URL:       "https://twitter.com/i/status/" + tweet.ID,
			Author:    tweet.AuthorID,
			Source:    c.Name(),
			FetchedAt: fetchedAt,
		})
		if len(items) == limit {
			break
		}
	}

	return items, nil
}

// clampResults keeps max_results inside the API's accepted 10..100 range.
func clampResults(limit int) int {
	if limit < 10 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}
