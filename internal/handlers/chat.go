package handlers

import (
	"context"
	"net/http"

	"govassist-backend/internal/models"
)

type chatAssistant interface {
	Chat(ctx context.Context, message string) (*models.ChatResponse, error)
	AnalyzeImage(ctx context.Context, imageURL string) (*models.ChatResponse, error)
}

type ChatHandler struct {
	assistant chatAssistant
}

func NewChatHandler(assistant chatAssistant) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Invalid request: message is required",
			map[string]string{"message": "must be a string"}, r))
		return
	}

	resp, err := h.assistant.Chat(r.Context(), req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req models.ImageAnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Invalid request: image_url is required",
			map[string]string{"image_url": "must be a string"}, r))
		return
	}

	resp, err := h.assistant.AnalyzeImage(r.Context(), req.ImageURL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
