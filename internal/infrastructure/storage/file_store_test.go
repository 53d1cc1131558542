package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"coinpress/internal/domain"
)

func testEntry(id, hash string, age time.Duration) domain.LedgerEntry {
	return domain.LedgerEntry{
		ItemID:      id,
		ContentHash: hash,
		ProcessedAt: time.Now().UTC().Add(-age),
		Filename:    id + ".md",
		Keywords:    []string{"bitcoin", "rally"},
	}
}

func TestFileStoreColdStart(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
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
	if ledger.LastUpdated.IsZero() {
		t.Fatal("expected lastUpdated to be set")
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "processed.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store := NewFileStore(path)
	_, err := store.Load(context.Background())
	if err == nil {
		t.Fatal("corrupt ledger must not be treated as cold start")
	}

	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *storage.Error, got %T: %v", err, err)
	}
}

func TestFileStoreAppendAndFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed.json")
	store := NewFileStore(path)

	entry := testEntry("t1", "aa11", 0)
	entry.URL = "https://t.co/t1"
	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	byID, err := store.FindByItemID(ctx, "t1")
	if err != nil || byID == nil {
		t.Fatalf("FindByItemID: entry=%v err=%v", byID, err)
	}
	byHash, err := store.FindByHash(ctx, "aa11")
	if err != nil || byHash == nil {
		t.Fatalf("FindByHash: entry=%v err=%v", byHash, err)
	}
	byURL, err := store.FindByURL(ctx, "https://t.co/t1")
	if err != nil || byURL == nil {
		t.Fatalf("FindByURL: entry=%v err=%v", byURL, err)
	}

	missing, err := store.FindByItemID(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected no match, got %v err=%v", missing, err)
	}
}

func TestFileStoreFindByURLIgnoresEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "processed.json"))
	if err := store.Append(ctx, testEntry("t1", "aa11", 0)); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	// Stored URL is empty; an empty query must not match it.
	got, err := store.FindByURL(ctx, "")
	if err != nil || got != nil {
		t.Fatalf("empty url should never match, got %v err=%v", got, err)
	}
}

func TestFileStorePersistenceRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed.json")

	store := NewFileStore(path)
	if err := store.Append(ctx, testEntry("t1", "aa11", 0)); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	// A fresh store over the same file sees the entry.
	reopened := NewFileStore(path)
	ledger, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(ledger.Entries) != 1 || ledger.Entries[0].ItemID != "t1" {
		t.Fatalf("round trip lost the entry: %+v", ledger.Entries)
	}
}

func TestFileStoreWireFormat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed.json")
	store := NewFileStore(path)
	if err := store.Append(ctx, testEntry("t1", "aa11", 0)); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger file: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("ledger file is not valid JSON: %v", err)
	}
	for _, key := range []string{"processedTweets", "lastUpdated", "version"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("missing top-level key %q in %s", key, raw)
		}
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(doc["processedTweets"], &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	for _, key := range []string{"tweetId", "contentHash", "processedDate", "filename", "keywords"} {
		if _, ok := entries[0][key]; !ok {
			t.Fatalf("missing entry key %q", key)
		}
	}
}

func TestFileStoreAtomicWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "processed.json"))
	if err := store.Append(ctx, testEntry("t1", "aa11", 0)); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	// No temp files left behind after a successful replace.
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(files) != 1 || files[0].Name() != "processed.json" {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name())
		}
		t.Fatalf("unexpected files after write: %v", names)
	}
}

func TestFileStoreConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "processed.json"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("t%d", n)
			if err := store.Append(ctx, testEntry(id, fmt.Sprintf("%04d", n), 0)); err != nil {
				t.Errorf("Append %s: %v", id, err)
				return
			}
			if got, err := store.FindByItemID(ctx, id); err != nil || got == nil {
				t.Errorf("FindByItemID %s: entry=%v err=%v", id, got, err)
			}
		}(i)
	}
	wg.Wait()

	entries, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All error: %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(entries))
	}
}

func TestFileStorePruneBoundary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "processed.json"))

	if err := store.Append(ctx, testEntry("old", "aa11", 31*24*time.Hour)); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := store.Append(ctx, testEntry("fresh", "bb22", 29*24*time.Hour)); err != nil {
		t.Fatalf("Append error: %v", err)
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

	// A second sweep finds nothing to do.
	pruned, err = store.PruneOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("PruneOlderThan error: %v", err)
	}
	if pruned != 0 {
		t.Fatalf("expected 0 pruned on rerun, got %d", pruned)
	}
}
