package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"personcam/internal/logger"
	"personcam/internal/models"
	"personcam/internal/services"
	"personcam/internal/services/storage"
)

type uploadRequest struct {
	Image string `json:"image"`
}

type uploadResponse struct {
	Success bool `json:"success"`
	services.FrameResult
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// UploadFrameHandler accepts one camera frame, either as a JSON body with a
// base64 image field or as raw image bytes, runs it through the pipeline and
// returns the detection outcome.
func UploadFrameHandler(manager *services.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		imageBytes, err := readFramePayload(r)
		if err != nil {
			if errors.Is(err, services.ErrMissingImage) {
				writeError(w, http.StatusBadRequest, "No image data provided")
				return
			}
			log.Errorw("failed to read frame payload", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to process image")
			return
		}

		result, err := manager.ProcessFrame(r.Context(), imageBytes)
		if err != nil {
			if errors.Is(err, services.ErrMissingImage) {
				writeError(w, http.StatusBadRequest, "No image data provided")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to process image")
			return
		}

		writeJSON(w, http.StatusOK, uploadResponse{Success: true, FrameResult: *result})
	}
}

// readFramePayload extracts the raw image bytes from an upload request.
func readFramePayload(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req uploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		if req.Image == "" {
			return nil, services.ErrMissingImage
		}

		// Browsers send data URLs; the camera sends bare base64.
		encoded := req.Image
		if idx := strings.Index(encoded, ";base64,"); idx >= 0 {
			encoded = encoded[idx+len(";base64,"):]
		}

		return base64.StdEncoding.DecodeString(encoded)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, services.ErrMissingImage
	}
	return body, nil
}

// StatsHandler returns a fresh statistics snapshot.
func StatsHandler(manager *services.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := manager.Stats()
		if err != nil {
			log.Errorw("failed to compute stats", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to compute stats")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// DetectionsHandler lists detection events, newest first.
func DetectionsHandler(manager *services.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		events, err := manager.History(limit)
		if err != nil {
			log.Errorw("failed to list detections", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list detections")
			return
		}
		if events == nil {
			events = []models.DetectionEvent{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// DeleteDetectionHandler deletes an event and its artifact. Deleting an id
// that does not exist still succeeds.
func DeleteDetectionHandler(manager *services.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid detection id")
			return
		}

		if err := manager.DeleteDetection(id); err != nil {
			log.Errorw("failed to delete detection", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to delete detection")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// ImageHandler serves a stored artifact with a content type derived from its
// filename.
func ImageHandler(manager *services.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := r.PathValue("filename")

		data, err := manager.Artifacts().Read(filename)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Image not found")
			return
		}
		if err != nil {
			log.Errorw("failed to read artifact", "image", filename, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to read image")
			return
		}

		w.Header().Set("Content-Type", manager.Artifacts().ContentType(filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// TestHandler is a static liveness probe.
func TestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "Server is running",
		})
	}
}
