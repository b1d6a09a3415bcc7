package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"personcam/internal/models"
	"personcam/internal/repository/sqlite"
)

// Reconstructs detection rows for artifacts that exist on disk but have no
// matching row, e.g. after a database loss. Person counts cannot be recovered
// from filenames, so restored rows carry a count of zero; the artifact itself
// still shows what was detected.
func main() {
	imagesDir := flag.String("images", "saved_images", "Artifact directory to scan")
	dbPath := flag.String("db", filepath.Join("database", "detections.db"), "Database path")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewDetectionRepository(db)

	known := make(map[string]bool)
	events, err := repo.ListAll(0)
	if err != nil {
		log.Fatalf("Failed to list existing detections: %v", err)
	}
	for _, ev := range events {
		known[ev.ImagePath] = true
	}

	files, err := os.ReadDir(*imagesDir)
	if err != nil {
		log.Fatalf("Failed to read artifact directory: %v", err)
	}

	restored, skipped := 0, 0
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || known[name] {
			continue
		}

		timestamp, err := parseArtifactFilename(name)
		if err != nil {
			log.Printf("Skipping %s: %v", name, err)
			skipped++
			continue
		}

		_, err = db.Conn().Exec(`
			INSERT INTO detections (timestamp, person_count, image_path, confidence)
			VALUES (?, 0, ?, 0)
		`, timestamp.Format(models.TimestampLayout), name)
		if err != nil {
			log.Printf("Failed to restore %s: %v", name, err)
			skipped++
			continue
		}
		restored++
	}

	fmt.Printf("Restored %d detection rows", restored)
	if skipped > 0 {
		fmt.Printf(", skipped %d files", skipped)
	}
	fmt.Println()
}

// parseArtifactFilename recovers the write time from a
// detection_YYYYMMDD_HHMMSS_micros.jpg filename.
func parseArtifactFilename(name string) (time.Time, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) != 4 || parts[0] != "detection" {
		return time.Time{}, fmt.Errorf("not a detection artifact")
	}

	ts, err := time.ParseInLocation("20060102_150405", parts[1]+"_"+parts[2], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp: %w", err)
	}

	micros, err := strconv.Atoi(parts[3])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad microseconds: %w", err)
	}

	return ts.Add(time.Duration(micros) * time.Microsecond), nil
}
