package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/google/renameio"

	"coinpress/internal/domain"
	"coinpress/internal/ports"
)

// FileStore persists the ledger as a single JSON document. Writes go through
// a temp-file-then-rename replace, so a reader never observes a partially
// written ledger. A mutex serializes in-process access; the file itself
// carries no multi-writer protection, so concurrent processes must be
// serialized externally.
type FileStore struct {
	path string

	mu     sync.Mutex // guards ledger and loaded
	ledger domain.Ledger
	loaded bool
}

var _ ports.LedgerStore = (*FileStore)(nil)

// NewFileStore points the store at the ledger file path. Nothing is read
// until the first operation.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted ledger. A missing file is a cold start and yields
// a fresh empty ledger; any other read or decode fault is a storage error.
func (s *FileStore) Load(ctx context.Context) (domain.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load does the actual read; the caller holds s.mu.
func (s *FileStore) load() (domain.Ledger, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.ledger = domain.NewLedger()
		s.loaded = true
		return s.ledger, nil
	}
	if err != nil {
		return domain.Ledger{}, storageErr("read "+s.path, err)
	}

	var ledger domain.Ledger
	if err := json.Unmarshal(raw, &ledger); err != nil {
		return domain.Ledger{}, storageErr("decode "+s.path, err)
	}
	if ledger.Version == "" {
		ledger.Version = domain.LedgerVersion
	}
	if ledger.Entries == nil {
		ledger.Entries = []domain.LedgerEntry{}
	}

	s.ledger = ledger
	s.loaded = true
	return s.ledger, nil
}

// FindByItemID returns the first entry with a matching external ID.
func (s *FileStore) FindByItemID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	for i := range s.ledger.Entries {
		if s.ledger.Entries[i].ItemID == id {
			entry := s.ledger.Entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

// FindByHash returns the first entry with a matching content hash.
func (s *FileStore) FindByHash(ctx context.Context, hash string) (*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	for i := range s.ledger.Entries {
		if s.ledger.Entries[i].ContentHash == hash {
			entry := s.ledger.Entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

// FindByURL matches only when both stored and queried URLs are non-empty and
// equal.
func (s *FileStore) FindByURL(ctx context.Context, url string) (*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	if url == "" {
		return nil, nil
	}
	for i := range s.ledger.Entries {
		if s.ledger.Entries[i].URL != "" && s.ledger.Entries[i].URL == url {
			entry := s.ledger.Entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

// All returns the retained entries in insertion order.
func (s *FileStore) All(ctx context.Context) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	entries := make([]domain.LedgerEntry, len(s.ledger.Entries))
	copy(entries, s.ledger.Entries)
	return entries, nil
}

// Append adds the entry, bumps lastUpdated, and persists atomically.
func (s *FileStore) Append(ctx context.Context, entry domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.ledger.Entries = append(s.ledger.Entries, entry)
	s.ledger.LastUpdated = time.Now().UTC()
	return s.persist()
}

// PruneOlderThan drops entries whose processedDate is before
// now - retentionDays, persists, and reports how many were removed.
// Entries inside the window are never touched.
func (s *FileStore) PruneOlderThan(ctx context.Context, retentionDays int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	kept := s.ledger.Entries[:0]
	for _, entry := range s.ledger.Entries {
		if entry.ProcessedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, entry)
	}

	pruned := len(s.ledger.Entries) - len(kept)
	if pruned == 0 {
		return 0, nil
	}

	s.ledger.Entries = kept
	s.ledger.LastUpdated = time.Now().UTC()
	if err := s.persist(); err != nil {
		return 0, err
	}
	return pruned, nil
}

// ensureLoaded lazily reads the file on first use; the caller holds s.mu.
func (s *FileStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	_, err := s.load()
	return err
}

func (s *FileStore) persist() error {
	raw, err := json.MarshalIndent(s.ledger, "", "  ")
	if err != nil {
		return storageErr("encode ledger", err)
	}
	if err := renameio.WriteFile(s.path, raw, 0o644); err != nil {
		return storageErr("write "+s.path, err)
	}
	return nil
}
