package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"coinpress/internal/domain"
	"coinpress/internal/ports"
)

const (
	githubBaseURL      = "https://github.com"
	defaultTrendingURL = "https://github.com/trending?since=daily"
)

// TrendingScanner scrapes the GitHub trending page for candidate items.
type TrendingScanner struct {
	trendingURL string
	client      *http.Client
}

var _ ports.ContentSource = (*TrendingScanner)(nil)

// NewTrendingScanner wires an HTTP client; trendingURL may override the
// default daily page (e.g. to filter by language).
func NewTrendingScanner(trendingURL string, client *http.Client) *TrendingScanner {
	if trendingURL == "" {
		trendingURL = defaultTrendingURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &TrendingScanner{trendingURL: trendingURL, client: client}
}

// Name identifies the source inside the registry.
func (t *TrendingScanner) Name() string {
	return "github-trending"
}

// Fetch downloads the trending page and extracts up to limit repositories.
func (t *TrendingScanner) Fetch(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	doc, err := t.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ContentItem, 0, limit)
	doc.Find("article.Box-row").EachWithBreak(func(i int, row *goquery.Selection) bool {
		item, ok := parseRow(row)
		if ok {
			item.Source = t.Name()
			item.FetchedAt = time.Now().UTC()
			items = append(items, item)
		}
		return limit <= 0 || len(items) < limit
	})

	return items, nil
}

func (t *TrendingScanner) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.trendingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "coinpress/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request trending page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse trending page: %w", err)
	}
	return doc, nil
}

func parseRow(row *goquery.Selection) (domain.ContentItem, bool) {
	link := row.Find("h2 a").First()
	href, exists := link.Attr("href")
	if !exists {
		return domain.ContentItem{}, false
	}

	repoPath := strings.Trim(strings.TrimSpace(href), "/")
	if repoPath == "" {
		return domain.ContentItem{}, false
	}

	description := strings.TrimSpace(row.Find("p").First().Text())
	stars := strings.TrimSpace(row.Find("a[href$=\"/stargazers\"]").First().Text())

	text := repoPath
	if description != "" {
		text = fmt.Sprintf("%s: %s", repoPath, description)
	}
	if stars != "" {
		text = fmt.Sprintf("%s (stars: %s)", text, stars)
	}

	owner := repoPath
	if idx := strings.IndexByte(repoPath, '/'); idx > 0 {
		owner = repoPath[:idx]
	}

	return domain.ContentItem{
		ID:     "github:" + repoPath,
		Text:   text,
		URL:    githubBaseURL + "/" + repoPath,
		Author: owner,
	}, true
}
