package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"coinpress/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreColdStart(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ledger, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("cold start must not fail: %v", err)
	}
	if len(ledger.Entries) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(ledger.Entries))
	}
	if ledger.Version != domain.LedgerVersion {
		t.Fatalf("expected version %s, got %s", domain.LedgerVersion, ledger.Version)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	entry := domain.LedgerEntry{
		ItemID:      "t1",
		ContentHash: "aa11",
		ProcessedAt: time.Now().UTC().Truncate(time.Second),
		Filename:    "t1.md",
		URL:         "https://t.co/t1",
		Keywords:    []string{"bitcoin", "rally"},
		Author:      "somebody",
		Excerpt:     "Bitcoin rally...",
	}
	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	got, err := store.FindByItemID(ctx, "t1")
	if err != nil {
		t.Fatalf("FindByItemID error: %v", err)
	}
	if got == nil {
		t.Fatal("entry not found after append")
	}
	if got.ContentHash != entry.ContentHash || got.Filename != entry.Filename ||
		got.URL != entry.URL || got.Author != entry.Author || got.Excerpt != entry.Excerpt {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, entry)
	}
	if !reflect.DeepEqual(got.Keywords, entry.Keywords) {
		t.Fatalf("keywords mismatch: %v vs %v", got.Keywords, entry.Keywords)
	}
}

func TestSQLiteStoreFinders(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	first := domain.LedgerEntry{
		ItemID:      "t1",
		ContentHash: "aa11",
		ProcessedAt: time.Now().UTC(),
		Filename:    "t1.md",
		Keywords:    []string{"bitcoin"},
	}
	second := domain.LedgerEntry{
		ItemID:      "t2",
		ContentHash: "bb22",
		ProcessedAt: time.Now().UTC(),
		Filename:    "t2.md",
		URL:         "https://t.co/t2",
		Keywords:    []string{"ethereum"},
	}
	for _, e := range []domain.LedgerEntry{first, second} {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	if got, err := store.FindByHash(ctx, "bb22"); err != nil || got == nil || got.ItemID != "t2" {
		t.Fatalf("FindByHash: %v, %v", got, err)
	}
	if got, err := store.FindByURL(ctx, "https://t.co/t2"); err != nil || got == nil || got.ItemID != "t2" {
		t.Fatalf("FindByURL: %v, %v", got, err)
	}
	if got, err := store.FindByURL(ctx, ""); err != nil || got != nil {
		t.Fatalf("empty url must not match: %v, %v", got, err)
	}
	if got, err := store.FindByItemID(ctx, "absent"); err != nil || got != nil {
		t.Fatalf("absent id must return nil: %v, %v", got, err)
	}

	entries, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All error: %v", err)
	}
	if len(entries) != 2 || entries[0].ItemID != "t1" || entries[1].ItemID != "t2" {
		t.Fatalf("insertion order lost: %+v", entries)
	}
}

func TestSQLiteStorePruneBoundary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	old := domain.LedgerEntry{
		ItemID:      "old",
		ContentHash: "aa11",
		ProcessedAt: time.Now().UTC().AddDate(0, 0, -31),
		Filename:    "old.md",
		Keywords:    []string{"bitcoin"},
	}
	fresh := domain.LedgerEntry{
		ItemID:      "fresh",
		ContentHash: "bb22",
		ProcessedAt: time.Now().UTC().AddDate(0, 0, -29),
		Filename:    "fresh.md",
		Keywords:    []string{"ethereum"},
	}
	for _, e := range []domain.LedgerEntry{old, fresh} {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	pruned, err := store.PruneOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("PruneOlderThan error: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned, got %d", pruned)
	}

	entries, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All error: %v", err)
	}
	if len(entries) != 1 || entries[0].ItemID != "fresh" {
		t.Fatalf("wrong survivor: %+v", entries)
	}
}
