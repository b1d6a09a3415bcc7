package models

import "time"

// TimestampLayout is the fixed-width ISO-8601 layout used for event timestamps.
// Microsecond precision keeps artifact filenames unique under bursty ingestion,
// and lexicographic order matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// DetectionEvent is one record of a processed frame: how many persons were
// found, the best confidence among them, and the annotated image artifact.
// Rows are immutable once created; id and timestamp are assigned by the store.
type DetectionEvent struct {
	ID          int64   `json:"id"`
	Timestamp   string  `json:"timestamp"`
	PersonCount int     `json:"personCount"`
	ImagePath   string  `json:"imagePath"`
	Confidence  float64 `json:"confidence"`
}

// DetectedObject is a single raw detection reported by the model.
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Stats is a snapshot derived from the event store at query time.
type Stats struct {
	LiveCount       int     `json:"live_count"`
	TodayDetections int     `json:"today_detections"`
	TodayPersons    int     `json:"today_persons"`
	TotalDetections int     `json:"total_detections"`
	TotalPersons    int     `json:"total_persons"`
	AvgPersons      float64 `json:"avg_persons"`
}

// Now formats the current local time in TimestampLayout.
func Now() string {
	return time.Now().Format(TimestampLayout)
}
