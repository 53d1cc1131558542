package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"coinpress/internal/domain"
)

var (
	urlExpr   = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://\S+`)
	spaceExpr = regexp.MustCompile(`\s+`)
)

// Normalize prepares text for fingerprinting: URL-like tokens are stripped
// entirely, whitespace runs collapse to one space, the result is lowercased
// and trimmed. Order matters — URLs go first so their removal cannot leave
// case or spacing artifacts behind. Each step is idempotent.
func Normalize(text string) string {
	text = urlExpr.ReplaceAllString(text, "")
	text = spaceExpr.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	return strings.TrimSpace(text)
}

// Hash returns the SHA-256 hex digest of the normalized text. Two inputs that
// differ only in casing, embedded links, or whitespace density hash
// identically; this is the first line of duplicate defense.
func Hash(text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("hash content: %w", domain.ErrInvalidInput)
	}
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:]), nil
}
