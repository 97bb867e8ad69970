package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

// tick returns a clock that advances one second per call, so creation order
// is observable in timestamps.
func tick() func() time.Time {
	t := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestMemStoreCreate(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	rec, err := s.Create(ctx, NewRecord{OwnerID: "runner-1", ElapsedSeconds: 1800, DistanceKm: 5})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" || rec.Reviewed || rec.ReviewText != nil {
		t.Errorf("rec = %+v", rec)
	}
	if rec.CreatedAt.IsZero() || !rec.CreatedAt.Equal(rec.UpdatedAt) {
		t.Errorf("timestamps: created %v updated %v", rec.CreatedAt, rec.UpdatedAt)
	}

	// Create ignores review fields; CreateReviewed is the reviewed path.
	text := "- Solid run"
	rec, err = s.Create(ctx, NewRecord{OwnerID: "runner-1", ElapsedSeconds: 1800, DistanceKm: 5, ReviewText: &text})
	if err != nil {
		t.Fatalf("Create with review fields: %v", err)
	}
	if rec.Reviewed || rec.ReviewText != nil {
		t.Errorf("Create kept review fields: %+v", rec)
	}

	if _, err := s.Create(ctx, NewRecord{ElapsedSeconds: 1800, DistanceKm: 5}); err == nil {
		t.Error("Create without owner: want error")
	}
}

func TestMemStoreCreateReviewed(t *testing.T) {
	s := NewMemStore()
	text := "- Good pace"
	score := 8

	rec, err := s.CreateReviewed(context.Background(), NewRecord{
		OwnerID: "runner-1", ElapsedSeconds: 1200, DistanceKm: 5,
		ReviewText: &text, Score: &score,
	})
	if err != nil {
		t.Fatalf("CreateReviewed: %v", err)
	}
	if !rec.Reviewed || rec.ReviewText == nil || *rec.Score != 8 {
		t.Errorf("rec = %+v", rec)
	}
}

func TestMemStoreAttachReview(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	rec, err := s.Create(ctx, NewRecord{OwnerID: "runner-1", ElapsedSeconds: 1800, DistanceKm: 5})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	score := 6
	got, err := s.AttachReview(ctx, "runner-1", rec.ID, "- Decent session", &score)
	if err != nil {
		t.Fatalf("AttachReview: %v", err)
	}
	if !got.Reviewed || *got.ReviewText != "- Decent session" || *got.Score != 6 {
		t.Errorf("got = %+v", got)
	}

	if _, err := s.AttachReview(ctx, "runner-1", "missing", "x", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: err = %v, want ErrNotFound", err)
	}
	// Another owner's record is invisible.
	if _, err := s.AttachReview(ctx, "runner-2", rec.ID, "x", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong owner: err = %v, want ErrNotFound", err)
	}
	// Out-of-range score is rejected without mutating the record.
	bad := 42
	if _, err := s.AttachReview(ctx, "runner-1", rec.ID, "y", &bad); err == nil {
		t.Error("bad score: want error")
	}
	recs, _ := s.ListByOwner(ctx, "runner-1", 0)
	if *recs[0].Score != 6 {
		t.Errorf("record mutated by failed attach: %+v", recs[0])
	}
}

func TestMemStoreListByOwner(t *testing.T) {
	s := NewMemStore()
	s.now = tick()
	ctx := context.Background()

	var ids []string
	for range 3 {
		rec, err := s.Create(ctx, NewRecord{OwnerID: "runner-1", ElapsedSeconds: 1800, DistanceKm: 5})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	if _, err := s.Create(ctx, NewRecord{OwnerID: "runner-2", ElapsedSeconds: 900, DistanceKm: 3}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	recs, err := s.ListByOwner(ctx, "runner-1", 0)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	// Newest first.
	for i, rec := range recs {
		if want := ids[len(ids)-1-i]; rec.ID != want {
			t.Errorf("recs[%d].ID = %s, want %s", i, rec.ID, want)
		}
	}

	recs, _ = s.ListByOwner(ctx, "runner-1", 2)
	if len(recs) != 2 || recs[0].ID != ids[2] {
		t.Errorf("limited list = %+v", recs)
	}

	recs, _ = s.ListByOwner(ctx, "nobody", 0)
	if len(recs) != 0 {
		t.Errorf("unknown owner: len = %d", len(recs))
	}
}

func TestMemStoreRecentReviewed(t *testing.T) {
	s := NewMemStore()
	s.now = tick()
	ctx := context.Background()

	if _, err := s.Create(ctx, NewRecord{OwnerID: "runner-1", ElapsedSeconds: 1800, DistanceKm: 5}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	text := "- Reviewed"
	for _, sc := range []int{7, 8} {
		score := sc
		if _, err := s.CreateReviewed(ctx, NewRecord{
			OwnerID: "runner-1", ElapsedSeconds: 1500, DistanceKm: 5,
			ReviewText: &text, Score: &score,
		}); err != nil {
			t.Fatalf("CreateReviewed: %v", err)
		}
	}
	// Reviewed but unscored records are excluded.
	if _, err := s.CreateReviewed(ctx, NewRecord{
		OwnerID: "runner-1", ElapsedSeconds: 1500, DistanceKm: 5, ReviewText: &text,
	}); err != nil {
		t.Fatalf("CreateReviewed: %v", err)
	}

	recs, err := s.RecentReviewed(ctx, "runner-1", 5)
	if err != nil {
		t.Fatalf("RecentReviewed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if *recs[0].Score != 8 || *recs[1].Score != 7 {
		t.Errorf("order: %d, %d", *recs[0].Score, *recs[1].Score)
	}
}
