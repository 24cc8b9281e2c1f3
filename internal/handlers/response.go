package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"govassist-backend/internal/middleware"
	"govassist-backend/internal/models"
	"govassist-backend/internal/services"
)

// Request bodies are a single short field; anything larger is a client error.
const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Message: message,
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	resp := errorResp(code, message, r)
	resp.Error.Fields = fields
	return resp
}

func upstreamErrorResp(ue *services.UpstreamError, r *http.Request) models.ErrorResponse {
	resp := errorResp("UPSTREAM_UNAVAILABLE", "The AI service is currently unavailable. Please try again later.", r)
	resp.Error.Details = &models.UpstreamDetails{
		StatusCode:      ue.StatusCode,
		Body:            ue.Body,
		Error:           ue.Error(),
		RoleFormatError: ue.RoleFormat,
		TimedOut:        ue.Timeout,
	}
	return resp
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *services.ClientInputError
	var upstreamErr *services.UpstreamError

	switch {
	case errors.As(err, &inputErr):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", inputErr.Message, map[string]string{inputErr.Field: "required"}, r))
	case errors.As(err, &upstreamErr):
		writeJSON(w, http.StatusServiceUnavailable, upstreamErrorResp(upstreamErr, r))
	default:
		log.Printf("✗ %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An error occurred while processing your request. Please try again later.", r))
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
