package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"coinpress/internal/ports"
)

// Telegram rejects messages above 4096 characters; digests are truncated
// rather than split since the full detail is already in the logs.
const maxMessageLen = 4096

// Notifier posts run digests to a Telegram chat through the bot API.
type Notifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier wires the bot token and target chat.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		apiBase:  "https://api.telegram.org",
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// PublishDigest sends the digest as one Markdown message.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if n.botToken == "" || n.chatID == "" {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	if len(digest) > maxMessageLen {
		digest = digest[:maxMessageLen-3] + "..."
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id":    n.chatID,
		"text":       digest,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram rejected message: %s", result.Description)
	}

	return nil
}
