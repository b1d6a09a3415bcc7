package sqlite

import (
	"database/sql"
	"fmt"

	"personcam/internal/models"
	"personcam/internal/repository"
)

// DetectionRepository implements repository.DetectionRepository for SQLite.
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new SQLite detection repository.
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// Insert appends a new detection event. The timestamp is assigned here, at
// persistence time, so ordering reflects ingestion order rather than capture
// order. The assigned id and timestamp are written back into the event.
func (r *DetectionRepository) Insert(event *models.DetectionEvent) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	event.Timestamp = models.Now()

	result, err := r.db.Conn().Exec(`
		INSERT INTO detections (timestamp, person_count, image_path, confidence)
		VALUES (?, ?, ?, ?)
	`, event.Timestamp, event.PersonCount, event.ImagePath, event.Confidence)
	if err != nil {
		return 0, fmt.Errorf("failed to insert detection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	event.ID = id

	return id, nil
}

// ListAll returns detection events newest first. Id is the tie-break for
// events inserted within the same timestamp tick.
func (r *DetectionRepository) ListAll(limit int) ([]models.DetectionEvent, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, timestamp, person_count, image_path, confidence
		FROM detections
		ORDER BY timestamp DESC, id DESC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.Conn().Query(query+" LIMIT ?", limit)
	} else {
		rows, err = r.db.Conn().Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var events []models.DetectionEvent
	for rows.Next() {
		var ev models.DetectionEvent
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.PersonCount, &ev.ImagePath, &ev.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

// GetImagePath returns the artifact filename for an event.
func (r *DetectionRepository) GetImagePath(id int64) (string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var path string
	err := r.db.Conn().QueryRow(`SELECT image_path FROM detections WHERE id = ?`, id).Scan(&path)
	if err == sql.ErrNoRows {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query image path: %w", err)
	}

	return path, nil
}

// Delete removes a detection row. Deleting an id that does not exist is a
// no-op, not an error.
func (r *DetectionRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM detections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete detection: %w", err)
	}
	return nil
}

// Totals returns the event count and person sum over the whole history.
func (r *DetectionRepository) Totals() (int, int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var detections, persons int
	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(person_count), 0) FROM detections
	`).Scan(&detections, &persons)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query totals: %w", err)
	}

	return detections, persons, nil
}

// TotalsForDate returns the event count and person sum for a calendar date
// (YYYY-MM-DD, local server time since timestamps are stored in local time).
func (r *DetectionRepository) TotalsForDate(date string) (int, int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var detections, persons int
	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(person_count), 0)
		FROM detections WHERE DATE(timestamp) = ?
	`, date).Scan(&detections, &persons)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query totals for %s: %w", date, err)
	}

	return detections, persons, nil
}

// LatestPersonCount returns the person count of the most recent event, or 0
// when the store is empty.
func (r *DetectionRepository) LatestPersonCount() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`
		SELECT person_count FROM detections
		ORDER BY timestamp DESC, id DESC LIMIT 1
	`).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query latest person count: %w", err)
	}

	return count, nil
}
