package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                int
	DatabasePath        string
	ImageDirectory      string
	ModelPath           string
	ModelConfigPath     string
	DetectionThreshold  float64
	DetectionTimeout    time.Duration
	HistoryLimit        int // default page size for the detection history endpoint
	BroadcastQueueSize  int
	LogLevel            string
	LogFormat           string
}

func Load() *Config {
	// .env is optional; real environment always wins.
	_ = godotenv.Load()

	return &Config{
		Port:               getEnvAsInt("PORT", 5000),
		DatabasePath:       getEnv("DATABASE_PATH", filepath.Join("database", "detections.db")),
		ImageDirectory:     getEnv("IMAGE_DIR", "saved_images"),
		ModelPath:          getEnv("MODEL_PATH", filepath.Join("models", "frozen_inference_graph.pb")),
		ModelConfigPath:    getEnv("MODEL_CONFIG_PATH", filepath.Join("models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		DetectionThreshold: getEnvAsFloat("DETECTION_THRESHOLD", 0.5),
		DetectionTimeout:   time.Duration(getEnvAsInt("DETECTION_TIMEOUT_SECONDS", 30)) * time.Second,
		HistoryLimit:       getEnvAsInt("HISTORY_LIMIT", 50),
		BroadcastQueueSize: getEnvAsInt("BROADCAST_QUEUE_SIZE", 64),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
