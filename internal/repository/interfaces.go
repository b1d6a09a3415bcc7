package repository

import (
	"errors"

	"personcam/internal/models"
)

// ErrNotFound is returned when a referenced event id does not exist.
// Callers must treat it as a normal outcome, distinct from storage errors.
var ErrNotFound = errors.New("detection not found")

// DetectionRepository is the contract for the append-only detection event log.
type DetectionRepository interface {
	// Insert assigns the event's timestamp and id and appends it.
	// Safe for concurrent use; ids are strictly increasing and unique.
	Insert(event *models.DetectionEvent) (int64, error)

	// ListAll returns events newest first (timestamp desc, id desc as the
	// tie-break for same-tick inserts). A limit <= 0 returns everything.
	ListAll(limit int) ([]models.DetectionEvent, error)

	// GetImagePath returns the artifact filename for an event, or ErrNotFound.
	GetImagePath(id int64) (string, error)

	// Delete removes an event row. Deleting a non-existent id is a no-op.
	Delete(id int64) error

	// Totals returns the number of events and the sum of person counts
	// over the whole history.
	Totals() (detections int, persons int, err error)

	// TotalsForDate returns the same aggregates restricted to events whose
	// timestamp falls on the given calendar date (YYYY-MM-DD).
	TotalsForDate(date string) (detections int, persons int, err error)

	// LatestPersonCount returns the person count of the most recent event,
	// or 0 when the store is empty.
	LatestPersonCount() (int, error)
}
