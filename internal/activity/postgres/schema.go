// Package postgres provides a PostgreSQL-backed implementation of
// [activity.Store] using a single pgx connection pool.
//
// [Migrate] is idempotent and runs automatically in [NewStore], so the store
// can be pointed at an empty database on first start.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlActivities = `
CREATE TABLE IF NOT EXISTS activities (
    id              TEXT             PRIMARY KEY,
    owner_id        TEXT             NOT NULL,
    elapsed_seconds DOUBLE PRECISION NOT NULL DEFAULT -1,
    distance_km     DOUBLE PRECISION NOT NULL DEFAULT -1,
    reviewed        BOOLEAN          NOT NULL DEFAULT FALSE,
    review_text     TEXT,
    score           SMALLINT         CHECK (score BETWEEN 1 AND 10),
    created_at      TIMESTAMPTZ      NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ      NOT NULL DEFAULT now(),
    CONSTRAINT reviewed_text CHECK (reviewed = (review_text IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_activities_owner_created
    ON activities (owner_id, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_activities_owner_reviewed
    ON activities (owner_id, created_at DESC)
    WHERE reviewed AND score IS NOT NULL;
`

// Migrate creates or ensures the activities table and its indexes exist.
// Safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlActivities); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}
