package activity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory [Store] used in tests and for credential-free local
// development. Safe for concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]Record

	// now is overridable in tests for deterministic timestamps.
	now func() time.Time
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Create implements [Store].
func (s *MemStore) Create(ctx context.Context, n NewRecord) (Record, error) {
	n.ReviewText = nil
	n.Score = nil
	return s.insert(n, false)
}

// CreateReviewed implements [Store].
func (s *MemStore) CreateReviewed(ctx context.Context, n NewRecord) (Record, error) {
	return s.insert(n, true)
}

func (s *MemStore) insert(n NewRecord, reviewed bool) (Record, error) {
	now := s.now()
	rec := Record{
		ID:             uuid.NewString(),
		OwnerID:        n.OwnerID,
		ElapsedSeconds: n.ElapsedSeconds,
		DistanceKm:     n.DistanceKm,
		Reviewed:       reviewed,
		ReviewText:     n.ReviewText,
		Score:          n.Score,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return rec, nil
}

// AttachReview implements [Store].
func (s *MemStore) AttachReview(ctx context.Context, ownerID, id, reviewText string, score *int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return Record{}, ErrNotFound
	}

	rec.Reviewed = true
	rec.ReviewText = &reviewText
	rec.Score = score
	rec.UpdatedAt = s.now()
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	s.records[id] = rec
	return rec, nil
}

// ListByOwner implements [Store].
func (s *MemStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecentReviewed implements [Store].
func (s *MemStore) RecentReviewed(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.OwnerID == ownerID && rec.Reviewed && rec.Score != nil {
			out = append(out, rec)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// sortNewestFirst orders records by creation time descending, breaking ties by
// id so that listings are stable across calls.
func sortNewestFirst(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}
