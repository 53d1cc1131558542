package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"coinpress/internal/dedup"
	"coinpress/internal/domain"
	"coinpress/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources    []ports.ContentSource
	Store      ports.LedgerStore
	Detector   *dedup.Detector
	Translator ports.Translator
	Renderer   ports.Renderer
	Builder    ports.SiteBuilder
	Notifier   ports.Notifier
	Logger     *slog.Logger

	BatchSize     int
	RetentionDays int
	RetryAttempts int
	RetryDelay    time.Duration
}

// Pipeline implements the content-automation workflow: fetch candidates,
// classify against the ledger, translate, render, record, prune, rebuild,
// notify. A ledger entry is appended only after the artifact is on disk, so
// an item that fails translation or rendering is never marked as seen.
type Pipeline struct {
	deps PipelineDeps
}

// NewPipeline constructs the orchestration component, applying defaults for
// unset knobs.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.BatchSize <= 0 {
		deps.BatchSize = 3
	}
	if deps.RetentionDays <= 0 {
		deps.RetentionDays = 30
	}
	if deps.RetryAttempts <= 0 {
		deps.RetryAttempts = 3
	}
	if deps.RetryDelay <= 0 {
		deps.RetryDelay = 2 * time.Second
	}
	return &Pipeline{deps: deps}
}

// Run executes one full pipeline pass. Source failures are logged and
// skipped (a dead source should not block the others); storage failures
// abort the run.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()[:8]
	log := p.deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("run", runID)

	if _, err := p.deps.Store.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	candidates := p.fetchCandidates(ctx, log)
	if len(candidates) > p.deps.BatchSize {
		candidates = candidates[:p.deps.BatchSize]
	}
	log.Info("candidates selected", "count", len(candidates))

	var (
		published []string
		skipped   int
	)
	for _, item := range candidates {
		filename, err := p.processItem(ctx, log, item)
		if err != nil {
			var storeFault *storeFaultError
			if errors.As(err, &storeFault) {
				return storeFault.err
			}
			log.Error("item failed", "item", item.ID, "error", err)
			continue
		}
		if filename == "" {
			skipped++
			continue
		}
		published = append(published, filename)
	}

	pruned, err := p.deps.Store.PruneOlderThan(ctx, p.deps.RetentionDays)
	if err != nil {
		return fmt.Errorf("prune ledger: %w", err)
	}
	if pruned > 0 {
		log.Info("ledger pruned", "removed", pruned, "retention_days", p.deps.RetentionDays)
	}

	log.Info("run complete", "published", len(published), "duplicates", skipped)

	if len(published) == 0 {
		return nil
	}

	if p.deps.Builder != nil {
		if err := p.deps.Builder.Build(ctx); err != nil {
			return fmt.Errorf("rebuild site: %w", err)
		}
	}

	if p.deps.Notifier != nil {
		digest := buildDigest(runID, published, skipped)
		if err := p.deps.Notifier.PublishDigest(ctx, digest); err != nil {
			// Articles are already published; a failed notification is not
			// worth failing the run over.
			log.Warn("notify failed", "error", err)
		}
	}

	return nil
}

// processItem classifies, translates, renders, and records one candidate.
// Returns the artifact filename for published items, "" for duplicates.
func (p *Pipeline) processItem(ctx context.Context, log *slog.Logger, item domain.ContentItem) (string, error) {
	verdict, err := p.deps.Detector.Check(ctx, item.ID, item.Text, item.URL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return "", err
		}
		return "", &storeFaultError{err: err}
	}

	if verdict.Duplicate {
		log.Debug("duplicate skipped", "item", item.ID, "reason", verdict.Reason)
		return "", nil
	}

	var article domain.Article
	err = p.withRetry(ctx, func() error {
		var tErr error
		article, tErr = p.deps.Translator.Translate(ctx, item)
		return tErr
	})
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	article.Tags = verdict.Keywords
	if len(article.Tags) > 5 {
		article.Tags = article.Tags[:5]
	}

	filename, err := p.deps.Renderer.Render(article)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	entry := domain.LedgerEntry{
		ItemID:      item.ID,
		ContentHash: verdict.ContentHash,
		ProcessedAt: time.Now().UTC(),
		Filename:    filename,
		URL:         item.URL,
		Keywords:    verdict.Keywords,
		Author:      item.Author,
		Excerpt:     excerpt(item.Text),
	}
	if err := p.deps.Store.Append(ctx, entry); err != nil {
		return "", &storeFaultError{err: fmt.Errorf("append entry %s: %w", item.ID, err)}
	}

	log.Info("article published", "item", item.ID, "file", filename)
	return filename, nil
}

func (p *Pipeline) fetchCandidates(ctx context.Context, log *slog.Logger) []domain.ContentItem {
	var candidates []domain.ContentItem
	for _, src := range p.deps.Sources {
		items, err := src.Fetch(ctx, p.deps.BatchSize)
		if err != nil {
			log.Warn("source fetch failed", "source", src.Name(), "error", err)
			continue
		}
		log.Debug("source fetched", "source", src.Name(), "count", len(items))
		candidates = append(candidates, items...)
	}
	return candidates
}

// withRetry retries network-facing work with doubling backoff. Core errors
// never pass through here; retries belong to the orchestrator only.
func (p *Pipeline) withRetry(ctx context.Context, fn func() error) error {
	delay := p.deps.RetryDelay
	var lastErr error
	for attempt := 1; attempt <= p.deps.RetryAttempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == p.deps.RetryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("after %d attempts: %w", p.deps.RetryAttempts, lastErr)
}

// storeFaultError marks failures that must abort the whole run instead of
// skipping one item.
type storeFaultError struct {
	err error
}

func (e *storeFaultError) Error() string { return e.err.Error() }
func (e *storeFaultError) Unwrap() error { return e.err }

func buildDigest(runID string, published []string, duplicates int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*coinpress run %s*\n", runID)
	fmt.Fprintf(&sb, "published: %d, duplicates skipped: %d\n", len(published), duplicates)
	for _, f := range published {
		fmt.Fprintf(&sb, "- %s\n", f)
	}
	return sb.String()
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= 140 {
		return text
	}
	return string(runes[:140]) + "..."
}
