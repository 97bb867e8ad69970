package activity

import (
	"context"
	"errors"
)

// ErrNotFound is returned by store reads and updates when no record matches
// the given id (or it belongs to a different owner).
var ErrNotFound = errors.New("activity: record not found")

// NewRecord describes the caller-supplied fields for record creation; identity
// and timestamps are assigned by the store.
type NewRecord struct {
	OwnerID        string
	ElapsedSeconds float64
	DistanceKm     float64
	ReviewText     *string
	Score          *int
}

// Store is the persistence boundary for training records.
//
// Implementations must be safe for concurrent use. All reads are scoped to a
// single owner; a record is never visible to any other owner.
type Store interface {
	// Create persists a new unreviewed record and returns it with identity and
	// timestamps filled in. ReviewText and Score on the input are ignored.
	Create(ctx context.Context, n NewRecord) (Record, error)

	// CreateReviewed persists a record that already carries its review text and
	// optional score in a single write. This is the voice pipeline's persistence
	// call: all fields land atomically.
	CreateReviewed(ctx context.Context, n NewRecord) (Record, error)

	// AttachReview sets the review text (and optional score) on an existing
	// unreviewed record, marking it reviewed. Returns [ErrNotFound] if no record
	// with this id exists for the owner.
	AttachReview(ctx context.Context, ownerID, id, reviewText string, score *int) (Record, error)

	// ListByOwner returns the owner's records ordered by creation time,
	// newest first. limit <= 0 means no limit.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error)

	// RecentReviewed returns the owner's most recent reviewed records that carry
	// a score, newest first, at most limit entries. Used by the coach.
	RecentReviewed(ctx context.Context, ownerID string, limit int) ([]Record, error)
}
