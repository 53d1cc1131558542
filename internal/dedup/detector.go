package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"coinpress/internal/domain"
	"coinpress/internal/ports"
)

// DefaultThreshold is the Jaccard score a candidate must exceed against some
// retained entry to be classified a semantic duplicate.
const DefaultThreshold = 0.85

// Options tune the detector; zero values fall back to defaults.
type Options struct {
	Threshold      float64
	ExtraStopwords []string
}

// Detector classifies incoming content items against the processed-content
// ledger. Check is a pure read: ledger mutation is a separate caller step so
// items that fail downstream are never marked as seen.
type Detector struct {
	store     ports.LedgerStore
	extractor *Extractor
	threshold float64
	logger    *slog.Logger
}

// NewDetector wires a ledger store with matching options.
func NewDetector(store ports.LedgerStore, opts Options, log *slog.Logger) *Detector {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{
		store:     store,
		extractor: NewExtractor(opts.ExtraStopwords),
		threshold: threshold,
		logger:    log,
	}
}

// Check classifies one candidate. Decision order is a deliberate tie-break
// policy, cheapest and most certain checks first: exact ID, exact content
// hash, exact URL (only when a URL was provided), then a keyword-overlap scan
// over every retained entry. The first match wins.
//
// Unique verdicts carry the computed hash and keyword set so the caller can
// build a ledger entry without recomputing either.
func (d *Detector) Check(ctx context.Context, itemID, text, url string) (domain.Verdict, error) {
	if itemID == "" {
		return domain.Verdict{}, fmt.Errorf("check: empty item id: %w", domain.ErrInvalidInput)
	}
	if text == "" {
		return domain.Verdict{}, fmt.Errorf("check: empty text: %w", domain.ErrInvalidInput)
	}

	entry, err := d.store.FindByItemID(ctx, itemID)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("find by id: %w", err)
	}
	if entry != nil {
		return d.duplicate(domain.ReasonIDExists, entry, 0), nil
	}

	hash, err := Hash(text)
	if err != nil {
		return domain.Verdict{}, err
	}

	entry, err = d.store.FindByHash(ctx, hash)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("find by hash: %w", err)
	}
	if entry != nil {
		return d.duplicate(domain.ReasonHashMatch, entry, 0), nil
	}

	if url != "" {
		entry, err = d.store.FindByURL(ctx, url)
		if err != nil {
			return domain.Verdict{}, fmt.Errorf("find by url: %w", err)
		}
		if entry != nil {
			return d.duplicate(domain.ReasonURLMatch, entry, 0), nil
		}
	}

	keywords := d.extractor.Extract(text)
	if len(keywords) > 0 {
		entries, err := d.store.All(ctx)
		if err != nil {
			return domain.Verdict{}, fmt.Errorf("scan entries: %w", err)
		}

		var (
			best      *domain.LedgerEntry
			bestScore float64
		)
		for i := range entries {
			score := Jaccard(keywords, entries[i].Keywords)
			if score > bestScore {
				bestScore = score
				best = &entries[i]
			}
		}

		if best != nil && bestScore > d.threshold {
			d.debug("semantic duplicate", "item", itemID, "match", best.ItemID, "score", bestScore)
			return d.duplicate(domain.ReasonSemanticSimilarity, best, bestScore), nil
		}
	}

	return domain.Verdict{
		Reason:      domain.ReasonUniqueContent,
		ContentHash: hash,
		Keywords:    keywords,
	}, nil
}

func (d *Detector) duplicate(reason domain.Reason, entry *domain.LedgerEntry, score float64) domain.Verdict {
	return domain.Verdict{
		Duplicate: true,
		Reason:    reason,
		Match:     entry,
		Score:     score,
	}
}

func (d *Detector) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
