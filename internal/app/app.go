package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"personcam/internal/config"
	"personcam/internal/logger"
	"personcam/internal/metrics"
	"personcam/internal/repository/sqlite"
	"personcam/internal/routes"
	"personcam/internal/services"
	"personcam/internal/services/ai"
	"personcam/internal/services/storage"
	"personcam/internal/services/websocket"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	detector *ai.DetectorService
	hub      *websocket.HubService
	manager  *services.Manager
	metrics  *metrics.Metrics
}

func NewApp() (*App, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	repo := sqlite.NewDetectionRepository(db)

	artifacts, err := storage.NewArtifactService(cfg.ImageDirectory, log)
	if err != nil {
		return nil, err
	}

	detector, err := ai.NewDetectorService(cfg.ModelPath, cfg.ModelConfigPath, cfg.DetectionThreshold, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	hub := websocket.NewHubService(cfg.BroadcastQueueSize, log)
	m.RegisterViewerGauge(hub.ClientCount)

	manager := services.NewManager(detector, repo, artifacts, hub, m, cfg, log)

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		detector: detector,
		hub:      hub,
		manager:  manager,
		metrics:  m,
	}, nil
}

func (a *App) Run() error {
	go a.hub.Run()

	router := routes.SetupRoutes(a.manager, a.hub, a.metrics, a.logger)

	a.logger.Infow("server listening",
		"port", a.config.Port,
		"images", a.config.ImageDirectory,
		"database", a.config.DatabasePath,
		"model", a.config.ModelPath,
	)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}

func (a *App) Close() {
	if a.detector != nil {
		_ = a.detector.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}
