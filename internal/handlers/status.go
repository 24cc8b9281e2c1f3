package handlers

import (
	"context"
	"net/http"
	"time"

	"govassist-backend/internal/models"
)

type statusAssistant interface {
	Status(ctx context.Context) models.StatusResponse
	Diagnose(ctx context.Context) models.DiagnosticsResponse
}

type StatusHandler struct {
	assistant statusAssistant
	now       func() time.Time
}

func NewStatusHandler(assistant statusAssistant) *StatusHandler {
	return &StatusHandler{assistant: assistant, now: time.Now}
}

// LMStudioStatus always answers 200; reachability is reported in the body.
func (h *StatusHandler) LMStudioStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.assistant.Status(r.Context()))
}

func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
	})
}

func (h *StatusHandler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.assistant.Diagnose(r.Context()))
}
