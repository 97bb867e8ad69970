// Package activity defines the training-session record that the review
// pipeline produces and the store interface it is persisted through.
package activity

import (
	"fmt"
	"time"
)

// Skipped is the sentinel stored in ElapsedSeconds or DistanceKm when the user
// explicitly skipped that field before recording. A record field holds either
// Skipped or a positive value, never both semantics at once.
const Skipped = -1

// Record represents one logged training session.
//
// Reviewed is true exactly when ReviewText is non-nil; Score, when present, is
// an integer in [1,10]. Timestamps are assigned by the store.
type Record struct {
	ID             string
	OwnerID        string
	ElapsedSeconds float64
	DistanceKm     float64
	Reviewed       bool
	ReviewText     *string
	Score          *int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate reports whether r satisfies the record invariants. It is called by
// stores before any write.
func (r Record) Validate() error {
	if r.OwnerID == "" {
		return fmt.Errorf("activity: owner id is required")
	}
	if r.Reviewed != (r.ReviewText != nil) {
		return fmt.Errorf("activity: reviewed flag must match review text presence")
	}
	if r.Score != nil && (*r.Score < 1 || *r.Score > 10) {
		return fmt.Errorf("activity: score %d out of range [1,10]", *r.Score)
	}
	if err := validateMeasure("elapsed_seconds", r.ElapsedSeconds); err != nil {
		return err
	}
	return validateMeasure("distance_km", r.DistanceKm)
}

// validateMeasure enforces the sentinel convention: Skipped or strictly positive.
func validateMeasure(name string, v float64) error {
	if v == Skipped || v > 0 {
		return nil
	}
	return fmt.Errorf("activity: %s must be positive or the skipped sentinel, got %g", name, v)
}

// FormatDuration renders an elapsed-seconds value as "m:ss", or "N/A" for the
// skipped sentinel.
func FormatDuration(seconds float64) string {
	if seconds == Skipped || seconds <= 0 {
		return "N/A"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatDistance renders a distance in kilometres with one decimal, or "N/A"
// for the skipped sentinel.
func FormatDistance(km float64) string {
	if km == Skipped || km <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f km", km)
}

// Pace renders the pace as "m:ss/km". Either field being skipped or
// non-positive yields "N/A".
func Pace(elapsedSeconds, distanceKm float64) string {
	if elapsedSeconds == Skipped || distanceKm == Skipped || elapsedSeconds <= 0 || distanceKm <= 0 {
		return "N/A"
	}
	perKm := elapsedSeconds / distanceKm
	return fmt.Sprintf("%d:%02d/km", int(perKm)/60, int(perKm)%60)
}
