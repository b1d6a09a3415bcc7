package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"personcam/internal/config"
	"personcam/internal/logger"
	"personcam/internal/metrics"
	"personcam/internal/models"
	"personcam/internal/repository"
	"personcam/internal/services/ai"
	"personcam/internal/services/storage"
)

// ErrMissingImage is returned when a frame upload carries no image data.
var ErrMissingImage = errors.New("no image data provided")

// Detector analyzes one frame. Implemented by ai.DetectorService; tests
// substitute a fake.
type Detector interface {
	Detect(ctx context.Context, image []byte) (*ai.Result, error)
}

// Broadcaster fans events out to live viewers, best-effort.
type Broadcaster interface {
	Publish(event string, data interface{})
}

// FrameResult is what the pipeline returns to the uploading camera.
type FrameResult struct {
	PersonCount   int     `json:"personCount"`
	Confidence    float64 `json:"confidence"`
	Timestamp     string  `json:"timestamp"`
	ImageFilename string  `json:"imageFilename"`
}

// detectionPayload is the broadcast form of a processed frame. It carries the
// annotated image itself so viewers can render it without a second request.
type detectionPayload struct {
	ID            int64   `json:"id"`
	Image         string  `json:"image"`
	PersonCount   int     `json:"personCount"`
	Confidence    float64 `json:"confidence"`
	Timestamp     string  `json:"timestamp"`
	ImageFilename string  `json:"imageFilename"`
}

// Manager orchestrates the frame-ingestion pipeline:
// decode/detect -> persist -> broadcast -> respond.
//
// Every processed frame is persisted, including zero-person frames; storage
// and broadcast follow the same policy so history and live viewers never
// diverge. The artifact is written before the row, so a row never references
// a missing artifact.
type Manager struct {
	detector  Detector
	repo      repository.DetectionRepository
	artifacts *storage.ArtifactService
	hub       Broadcaster
	stats     *StatsService
	metrics   *metrics.Metrics
	logger    *logger.Logger

	detectionTimeout time.Duration
	historyLimit     int
}

func NewManager(
	detector Detector,
	repo repository.DetectionRepository,
	artifacts *storage.ArtifactService,
	hub Broadcaster,
	m *metrics.Metrics,
	cfg *config.Config,
	log *logger.Logger,
) *Manager {
	return &Manager{
		detector:         detector,
		repo:             repo,
		artifacts:        artifacts,
		hub:              hub,
		stats:            NewStatsService(repo),
		metrics:          m,
		logger:           log,
		detectionTimeout: cfg.DetectionTimeout,
		historyLimit:     cfg.HistoryLimit,
	}
}

// ProcessFrame runs one frame through the pipeline. Detection failures are
// terminal: nothing is persisted and nothing is broadcast. Storage failures
// after a successful detection are also terminal for the request, so a
// success response always refers to a persisted event.
func (m *Manager) ProcessFrame(ctx context.Context, imageBytes []byte) (*FrameResult, error) {
	if len(imageBytes) == 0 {
		return nil, ErrMissingImage
	}

	ctx, cancel := context.WithTimeout(ctx, m.detectionTimeout)
	defer cancel()

	result, err := m.detector.Detect(ctx, imageBytes)
	if err != nil {
		m.metrics.DetectionFailures.Inc()
		m.logger.Errorw("frame analysis failed", "stage", "detect", "input_bytes", len(imageBytes), "error", err)
		return nil, err
	}

	filename, err := m.artifacts.Save(result.Annotated)
	if err != nil {
		m.logger.Errorw("frame persistence failed", "stage", "artifact", "error", err)
		return nil, err
	}

	event := &models.DetectionEvent{
		PersonCount: result.PersonCount,
		ImagePath:   filename,
		Confidence:  result.Confidence,
	}
	if _, err := m.repo.Insert(event); err != nil {
		m.logger.Errorw("frame persistence failed", "stage", "insert", "image", filename, "error", err)
		return nil, err
	}

	m.metrics.FramesProcessed.Inc()
	m.metrics.PersonsDetected.Add(float64(result.PersonCount))

	m.hub.Publish("detection", detectionPayload{
		ID:            event.ID,
		Image:         base64.StdEncoding.EncodeToString(result.Annotated),
		PersonCount:   event.PersonCount,
		Confidence:    event.Confidence,
		Timestamp:     event.Timestamp,
		ImageFilename: event.ImagePath,
	})
	m.broadcastStats()

	return &FrameResult{
		PersonCount:   event.PersonCount,
		Confidence:    event.Confidence,
		Timestamp:     event.Timestamp,
		ImageFilename: event.ImagePath,
	}, nil
}

// History returns recent detection events, newest first. A non-positive
// limit falls back to the configured default page size.
func (m *Manager) History(limit int) ([]models.DetectionEvent, error) {
	if limit <= 0 {
		limit = m.historyLimit
	}
	return m.repo.ListAll(limit)
}

// DeleteDetection removes an event and its artifact. The artifact goes
// first, best-effort; the row delete is the authoritative step. Deleting an
// unknown id is a no-op success. Viewers get a refreshed stats snapshot
// either way.
func (m *Manager) DeleteDetection(id int64) error {
	path, err := m.repo.GetImagePath(id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		m.broadcastStats()
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up detection %d: %w", id, err)
	}

	if err := m.artifacts.Remove(path); err != nil {
		// An orphaned artifact is acceptable; an orphaned row is not.
		m.logger.Warnw("failed to remove artifact, continuing with row delete", "id", id, "image", path, "error", err)
	}

	if err := m.repo.Delete(id); err != nil {
		return err
	}

	m.metrics.EventsDeleted.Inc()
	m.broadcastStats()
	return nil
}

// Stats returns a fresh statistics snapshot.
func (m *Manager) Stats() (*models.Stats, error) {
	return m.stats.Snapshot()
}

// Artifacts exposes the artifact store for the image-serving handler.
func (m *Manager) Artifacts() *storage.ArtifactService {
	return m.artifacts
}

func (m *Manager) broadcastStats() {
	snapshot, err := m.stats.Snapshot()
	if err != nil {
		m.logger.Errorw("failed to compute stats for broadcast", "error", err)
		return
	}
	m.hub.Publish("stats", snapshot)
}
