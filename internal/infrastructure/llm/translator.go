package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coinpress/internal/config"
	"coinpress/internal/domain"
	"coinpress/internal/ports"
)

// Translator enhances raw content items into publishable articles through an
// OpenAI-compatible chat completion API.
type Translator struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Translator = (*Translator)(nil)

// NewTranslator builds a client from configuration.
func NewTranslator(cfg config.LLMConfig) *Translator {
	return &Translator{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Translate submits the item text and returns the enhanced article. The
// model is instructed to put the headline on the first line; everything after
// it is the markdown body.
func (t *Translator) Translate(ctx context.Context, item domain.ContentItem) (domain.Article, error) {
	if t.apiKey == "" || t.endpoint == "" || t.model == "" {
		return domain.Article{}, fmt.Errorf("llm translator misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": t.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(t.systemPrompt)},
			{"role": "user", "content": item.Text},
		},
	})
	if err != nil {
		return domain.Article{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Article{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return domain.Article{}, fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Article{}, fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return domain.Article{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Article{}, fmt.Errorf("llm returned no choices")
	}

	title, articleBody := splitArticle(completion.Choices[0].Message.Content)
	if title == "" {
		return domain.Article{}, fmt.Errorf("llm returned empty article")
	}

	return domain.Article{
		Title:       title,
		Body:        articleBody,
		SourceURL:   item.URL,
		Author:      item.Author,
		PublishedAt: time.Now().UTC(),
	}, nil
}

// splitArticle treats the first non-empty line as the headline and the rest
// as the body. Markdown heading markers on the headline are stripped.
func splitArticle(content string) (string, string) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	title := ""
	bodyStart := 0
	for i, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			title = line
			bodyStart = i + 1
			break
		}
	}
	return title, strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You translate and enhance crypto-news snippets into short bilingual articles. " +
			"Reply with the headline on the first line, then the markdown body."
	}
	return prompt
}
