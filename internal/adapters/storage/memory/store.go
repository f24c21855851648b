package memory

import (
	"context"
	"sort"
	"sync"

	"gridsync-logstream/internal/domain"
	"gridsync-logstream/internal/usecase"
)

// Store is the in-process record buffer. Records keep arrival order; when
// maxRecords is positive the oldest records are dropped first.
type Store struct {
	mu      sync.RWMutex
	records []domain.LogRecord

	maxRecords int
	nextSeq    uint64
	evicted    uint64

	onEvict func(n int)
}

func NewStore(maxRecords int) *Store {
	capHint := 256
	if maxRecords > 0 && maxRecords < capHint {
		capHint = maxRecords
	}
	return &Store{
		records:    make([]domain.LogRecord, 0, capHint),
		maxRecords: maxRecords,
		nextSeq:    1,
	}
}

// SetEvictionHook registers fn to be told how many records each append evicted.
func (s *Store) SetEvictionHook(fn func(n int)) {
	s.mu.Lock()
	s.onEvict = fn
	s.mu.Unlock()
}

// AppendRecord assigns the next sequence number and adds rec at the tail.
func (s *Store) AppendRecord(ctx context.Context, rec domain.LogRecord) (domain.LogRecord, error) {
	s.mu.Lock()
	rec.Seq = s.nextSeq
	s.nextSeq++
	dropped := 0
	if s.maxRecords > 0 && len(s.records) >= s.maxRecords {
		// drop-from-head policy
		dropped = len(s.records) - s.maxRecords + 1
		s.records = s.records[dropped:]
		s.evicted += uint64(dropped)
	}
	s.records = append(s.records, rec)
	hook := s.onEvict
	s.mu.Unlock()

	if dropped > 0 && hook != nil {
		hook(dropped)
	}
	return rec, nil
}

func (s *Store) Snapshot(ctx context.Context) ([]domain.LogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LogRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// ListRecords pages through records with Seq > afterSeq. The returned cursor
// is the Seq of the last record returned, or afterSeq when nothing matched.
func (s *Store) ListRecords(ctx context.Context, afterSeq uint64, limit int) ([]domain.LogRecord, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := sort.Search(len(s.records), func(i int) bool { return s.records[i].Seq > afterSeq })
	end := len(s.records)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	out := make([]domain.LogRecord, end-start)
	copy(out, s.records[start:end])
	next := afterSeq
	if len(out) > 0 {
		next = out[len(out)-1].Seq
	}
	return out, next, nil
}

// Clear drops every record. Sequence numbers keep counting so cursors held by
// readers never see a reused Seq.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0:0]
	return nil
}

func (s *Store) Stats() usecase.RecordStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return usecase.RecordStats{Retained: len(s.records), Evicted: s.evicted, NextSeq: s.nextSeq}
}

var _ usecase.RecordRepository = (*Store)(nil)
