package services

import (
	"math"
	"time"

	"personcam/internal/models"
	"personcam/internal/repository"
)

// StatsService derives metrics from the event store. Every snapshot re-scans
// the store; history is operationally bounded (single camera, append-mostly)
// so no caching is needed.
type StatsService struct {
	repo repository.DetectionRepository
}

func NewStatsService(repo repository.DetectionRepository) *StatsService {
	return &StatsService{repo: repo}
}

// Snapshot computes the current statistics. The "today" bucket uses the local
// server date, matching the store-assigned event timestamps.
func (s *StatsService) Snapshot() (*models.Stats, error) {
	totalDetections, totalPersons, err := s.repo.Totals()
	if err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	todayDetections, todayPersons, err := s.repo.TotalsForDate(today)
	if err != nil {
		return nil, err
	}

	liveCount, err := s.repo.LatestPersonCount()
	if err != nil {
		return nil, err
	}

	avg := 0.0
	if totalDetections > 0 {
		avg = math.Round(float64(totalPersons)/float64(totalDetections)*100) / 100
	}

	return &models.Stats{
		LiveCount:       liveCount,
		TodayDetections: todayDetections,
		TodayPersons:    todayPersons,
		TotalDetections: totalDetections,
		TotalPersons:    totalPersons,
		AvgPersons:      avg,
	}, nil
}
