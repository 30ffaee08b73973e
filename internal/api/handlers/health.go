package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/KaustubhAChavan/watermark-app/internal/shared/storage"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store        *storage.Service
	videoEnabled bool
}

// NewHealthHandler creates a new health handler. videoEnabled reflects the
// ffmpeg availability probe taken at startup.
func NewHealthHandler(store *storage.Service, videoEnabled bool) *HealthHandler {
	return &HealthHandler{
		store:        store,
		videoEnabled: videoEnabled,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// Health returns a basic health check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Ready reports the watch folders and the video path. A missing ffmpeg is
// degraded, not down: image watermarking keeps running without it.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]string)
	allHealthy := true

	for _, role := range []storage.Role{
		storage.RoleInputImages,
		storage.RoleOutputImages,
		storage.RoleInputVideos,
		storage.RoleOutputVideos,
	} {
		if info, err := os.Stat(h.store.Path(role)); err != nil || !info.IsDir() {
			services[string(role)] = "missing"
			allHealthy = false
		} else {
			services[string(role)] = "healthy"
		}
	}

	if h.videoEnabled {
		services["ffmpeg"] = "healthy"
	} else {
		services["ffmpeg"] = "unavailable, video processing disabled"
		allHealthy = false
	}

	status := "ok"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
