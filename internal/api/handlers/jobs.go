package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/KaustubhAChavan/watermark-app/internal/modules/jobs"
	"go.uber.org/zap"
)

const defaultJobListLimit = 50

// JobHandler serves the in-memory job history
type JobHandler struct {
	recorder *jobs.Recorder
	logger   *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(recorder *jobs.Recorder, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		recorder: recorder,
		logger:   logger,
	}
}

// JobListResponse represents the job list response
type JobListResponse struct {
	Jobs  []jobs.Record `json:"jobs"`
	Count int           `json:"count"`
}

// ListJobs returns the most recent job records, newest first
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := defaultJobListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records := h.recorder.Recent(limit)
	response := JobListResponse{
		Jobs:  records,
		Count: len(records),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode job list", zap.Error(err))
	}
}
