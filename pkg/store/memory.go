package store

import (
	"context"
	"slices"
	"sync"

	errs "github.com/matzehuels/jefview/pkg/errors"
)

// MemoryStore keeps records in a map.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, patternHash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[patternHash]
	if !ok {
		return nil, nil
	}
	rec.Palette = rec.Palette.Clone()
	return &rec, nil
}

func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	if rec == nil || rec.PatternHash == "" {
		return errs.New(errs.ErrCodeInvalidInput, "record needs a pattern hash")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.records[rec.PatternHash]
	if ok && rec.ID == "" {
		rec.ID = old.ID
	}
	stamp(rec, old.CreatedAt)
	stored := *rec
	stored.Palette = rec.Palette.Clone()
	s.records[rec.PatternHash] = stored
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, patternHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, patternHash)
	return nil
}

func (s *MemoryStore) List(context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		rec.Palette = rec.Palette.Clone()
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b Record) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
