package ports

import (
	"context"
	"time"

	"coinpress/internal/domain"
)

// ContentSource pulls candidate items from an upstream provider (Twitter
// search, GitHub trending, ...). Implementations are registered by name.
type ContentSource interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]domain.ContentItem, error)
}

// LedgerStore is the system of record for previously published content.
//
// Load on a missing backing store is a cold start: it returns a fresh empty
// ledger, not an error. Any other storage fault surfaces as *storage.Error
// and must abort the run. Append persists atomically; a concurrent reader
// never observes a partially written ledger. Concurrent writers are not
// supported; pipeline runs are serialized by the caller.
type LedgerStore interface {
	Load(ctx context.Context) (domain.Ledger, error)
	FindByItemID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	FindByHash(ctx context.Context, hash string) (*domain.LedgerEntry, error)
	FindByURL(ctx context.Context, url string) (*domain.LedgerEntry, error)
	All(ctx context.Context) ([]domain.LedgerEntry, error)
	Append(ctx context.Context, entry domain.LedgerEntry) error
	PruneOlderThan(ctx context.Context, retentionDays int) (int, error)
}

// Translator turns a raw content item into a publishable article
// (translation plus editorial enhancement).
type Translator interface {
	Translate(ctx context.Context, item domain.ContentItem) (domain.Article, error)
}

// Renderer writes an article as a site-ready markdown artifact and returns
// the generated filename.
type Renderer interface {
	Render(article domain.Article) (string, error)
}

// SiteBuilder triggers a static-site rebuild after new artifacts land.
type SiteBuilder interface {
	Build(ctx context.Context) error
}

// Notifier publishes the run digest to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipeline runs execute in daemon mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
