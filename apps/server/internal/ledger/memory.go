package ledger

import (
	"context"
	"sort"
	"sync"
)

// memoryService keeps results for the life of the process.
type memoryService struct {
	mu      sync.RWMutex
	byID    map[string]Record
	byTable map[string][]string
}

func NewMemoryService() Service {
	return &memoryService{
		byID:    make(map[string]Record),
		byTable: make(map[string][]string),
	}
}

func (s *memoryService) Close() error { return nil }

func (s *memoryService) RecordAuction(_ context.Context, rec Record) (Record, error) {
	rec, err := prepare(rec)
	if err != nil {
		return Record{}, err
	}
	rec = cloneRecord(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[rec.ResultID]; exists {
		return Record{}, ErrDuplicate
	}
	s.byID[rec.ResultID] = rec
	s.byTable[rec.TableID] = append(s.byTable[rec.TableID], rec.ResultID)
	return cloneRecord(rec), nil
}

func (s *memoryService) ListResults(_ context.Context, tableID string, limit int) ([]Record, error) {
	limit = clampLimit(limit)

	s.mu.RLock()
	ids := s.byTable[tableID]
	out := make([]Record, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, cloneRecord(s.byID[ids[i]]))
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayedAt.After(out[j].PlayedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryService) GetResult(_ context.Context, resultID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[resultID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func cloneRecord(rec Record) Record {
	rec.Calls = append(rec.Calls[:0:0], rec.Calls...)
	if rec.Contract != nil {
		c := *rec.Contract
		rec.Contract = &c
	}
	return rec
}
