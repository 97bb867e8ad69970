package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheRemi120/runcoach/internal/activity"
)

// Store implements [activity.Store] on top of a pgx connection pool.
// All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

var _ activity.Store = (*Store)(nil)

// NewStore connects to the PostgreSQL database at dsn, verifies the connection
// and runs [Migrate]. Close the returned store when done.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("activity store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("activity store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("activity store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

const recordColumns = `id, owner_id, elapsed_seconds, distance_km, reviewed, review_text, score, created_at, updated_at`

// Create implements [activity.Store].
func (s *Store) Create(ctx context.Context, n activity.NewRecord) (activity.Record, error) {
	n.ReviewText = nil
	n.Score = nil
	return s.insert(ctx, n, false)
}

// CreateReviewed implements [activity.Store]. The review text and score land
// in the same insert as the numeric fields.
func (s *Store) CreateReviewed(ctx context.Context, n activity.NewRecord) (activity.Record, error) {
	return s.insert(ctx, n, true)
}

func (s *Store) insert(ctx context.Context, n activity.NewRecord, reviewed bool) (activity.Record, error) {
	rec := activity.Record{
		ID:             uuid.NewString(),
		OwnerID:        n.OwnerID,
		ElapsedSeconds: n.ElapsedSeconds,
		DistanceKm:     n.DistanceKm,
		Reviewed:       reviewed,
		ReviewText:     n.ReviewText,
		Score:          n.Score,
	}
	if err := rec.Validate(); err != nil {
		return activity.Record{}, err
	}

	const q = `
		INSERT INTO activities
		    (id, owner_id, elapsed_seconds, distance_km, reviewed, review_text, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, q,
		rec.ID,
		rec.OwnerID,
		rec.ElapsedSeconds,
		rec.DistanceKm,
		rec.Reviewed,
		rec.ReviewText,
		rec.Score,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return activity.Record{}, fmt.Errorf("activity store: insert: %w", err)
	}
	return rec, nil
}

// AttachReview implements [activity.Store].
func (s *Store) AttachReview(ctx context.Context, ownerID, id, reviewText string, score *int) (activity.Record, error) {
	const q = `
		UPDATE activities
		SET    reviewed = TRUE, review_text = $3, score = $4, updated_at = now()
		WHERE  id = $1 AND owner_id = $2
		RETURNING ` + recordColumns

	rec, err := scanRecord(s.pool.QueryRow(ctx, q, id, ownerID, reviewText, score))
	if errors.Is(err, pgx.ErrNoRows) {
		return activity.Record{}, activity.ErrNotFound
	}
	if err != nil {
		return activity.Record{}, fmt.Errorf("activity store: attach review: %w", err)
	}
	return rec, nil
}

// ListByOwner implements [activity.Store].
func (s *Store) ListByOwner(ctx context.Context, ownerID string, limit int) ([]activity.Record, error) {
	q := `
		SELECT ` + recordColumns + `
		FROM   activities
		WHERE  owner_id = $1
		ORDER  BY created_at DESC, id DESC`

	args := []any{ownerID}
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf("\nLIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("activity store: list: %w", err)
	}
	return collectRecords(rows)
}

// RecentReviewed implements [activity.Store].
func (s *Store) RecentReviewed(ctx context.Context, ownerID string, limit int) ([]activity.Record, error) {
	const q = `
		SELECT ` + recordColumns + `
		FROM   activities
		WHERE  owner_id = $1
		  AND  reviewed
		  AND  score IS NOT NULL
		ORDER  BY created_at DESC, id DESC
		LIMIT  $2`

	rows, err := s.pool.Query(ctx, q, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("activity store: recent reviewed: %w", err)
	}
	return collectRecords(rows)
}

// collectRecords scans pgx rows into a slice of Record values.
func collectRecords(rows pgx.Rows) ([]activity.Record, error) {
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (activity.Record, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, fmt.Errorf("activity store: scan rows: %w", err)
	}
	if recs == nil {
		recs = []activity.Record{}
	}
	return recs, nil
}

// scanRow is the subset of pgx.Row and pgx.CollectableRow used by scanRecord.
type scanRow interface {
	Scan(dest ...any) error
}

func scanRecord(row scanRow) (activity.Record, error) {
	var (
		rec       activity.Record
		score     *int16
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.ElapsedSeconds,
		&rec.DistanceKm,
		&rec.Reviewed,
		&rec.ReviewText,
		&score,
		&createdAt,
		&updatedAt,
	); err != nil {
		return activity.Record{}, err
	}
	if score != nil {
		v := int(*score)
		rec.Score = &v
	}
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt
	return rec, nil
}
