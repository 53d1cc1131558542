package domain

import (
	"errors"
	"time"
)

// ErrInvalidInput marks malformed caller input (empty id, empty text).
// It is never retried; callers receive it wrapped with context.
var ErrInvalidInput = errors.New("invalid input")

// LedgerVersion is written into every persisted ledger for forward compatibility.
const LedgerVersion = "1.0"

// ContentItem is a candidate fetched from an upstream source before any
// duplicate classification has happened.
type ContentItem struct {
	ID        string
	Text      string
	URL       string
	Author    string
	Source    string
	FetchedAt time.Time
}

// LedgerEntry records one content item that was confirmed unique and
// successfully published. Entries are immutable after creation; only the
// retention sweep removes them. JSON field names follow the on-disk ledger
// layout, which predates the multi-source pipeline (hence "tweetId").
type LedgerEntry struct {
	ItemID      string    `json:"tweetId"`
	ContentHash string    `json:"contentHash"`
	ProcessedAt time.Time `json:"processedDate"`
	Filename    string    `json:"filename"`
	URL         string    `json:"tweetUrl,omitempty"`
	Keywords    []string  `json:"keywords"`

	// Audit metadata, ignored by matching logic.
	Author  string `json:"author,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
}

// Ledger is the persisted container of processed entries, insertion order.
type Ledger struct {
	Entries     []LedgerEntry `json:"processedTweets"`
	LastUpdated time.Time     `json:"lastUpdated"`
	Version     string        `json:"version"`
}

// NewLedger returns an empty ledger stamped with the current schema version.
func NewLedger() Ledger {
	return Ledger{
		Entries:     []LedgerEntry{},
		LastUpdated: time.Now().UTC(),
		Version:     LedgerVersion,
	}
}

// Reason classifies the outcome of a duplicate check.
type Reason string

const (
	ReasonIDExists           Reason = "id_exists"
	ReasonHashMatch          Reason = "hash_match"
	ReasonURLMatch           Reason = "url_match"
	ReasonSemanticSimilarity Reason = "semantic_similarity"
	ReasonUniqueContent      Reason = "unique_content"
)

// Verdict is the structured result of classifying one candidate.
//
// For duplicate verdicts Match points at the ledger entry that triggered the
// classification (the best-scoring one for semantic matches). For unique
// verdicts ContentHash and Keywords carry the values computed during the
// check so the caller can build a LedgerEntry without recomputing them.
type Verdict struct {
	Duplicate   bool         `json:"isDuplicate"`
	Reason      Reason       `json:"reason"`
	Match       *LedgerEntry `json:"match,omitempty"`
	ContentHash string       `json:"contentHash,omitempty"`
	Keywords    []string     `json:"keywords,omitempty"`
	Score       float64      `json:"score,omitempty"`
}

// Article is the enhanced, render-ready form of a unique content item.
type Article struct {
	Title       string
	Body        string
	Tags        []string
	SourceURL   string
	Author      string
	PublishedAt time.Time
}
