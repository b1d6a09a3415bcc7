package routes

import (
	"net/http"

	"personcam/internal/handlers"
	"personcam/internal/logger"
	"personcam/internal/metrics"
	"personcam/internal/middleware"
	"personcam/internal/services"
	"personcam/internal/services/websocket"
)

// SetupRoutes registers the API endpoints, the viewer websocket and the
// metrics exposition, and wraps the mux with the CORS middleware.
func SetupRoutes(manager *services.Manager, hub *websocket.HubService, m *metrics.Metrics, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Frame ingestion and detection history
	mux.HandleFunc("POST /api/upload_frame", handlers.UploadFrameHandler(manager, log))
	mux.HandleFunc("GET /api/stats", handlers.StatsHandler(manager, log))
	mux.HandleFunc("GET /api/detections", handlers.DetectionsHandler(manager, log))
	mux.HandleFunc("DELETE /api/detections/{id}", handlers.DeleteDetectionHandler(manager, log))
	mux.HandleFunc("GET /api/images/{filename}", handlers.ImageHandler(manager, log))
	mux.HandleFunc("GET /api/test", handlers.TestHandler())

	// Live viewers
	mux.HandleFunc("GET /ws", handlers.ViewWebsocketHandler(hub, log))

	// Observability
	mux.Handle("GET /metrics", m.Handler())

	return middleware.CORS(mux)
}
