package models

import "time"

const (
	StatusAvailable   = "available"
	StatusError       = "error"
	StatusUnavailable = "unavailable"
)

type StatusResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Models  []string `json:"models,omitempty"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// CompletionProbe is the outcome of a test completion run by the diagnostics endpoint.
type CompletionProbe struct {
	OK              bool   `json:"ok"`
	Reply           string `json:"reply,omitempty"`
	StatusCode      int    `json:"status_code,omitempty"`
	ErrorBody       string `json:"error_body,omitempty"`
	Error           string `json:"error,omitempty"`
	RoleFormatError bool   `json:"role_format_error"`
	TimedOut        bool   `json:"timed_out"`
	LatencyMS       int64  `json:"latency_ms"`
}

type DiagnosticsResponse struct {
	BaseURL              string          `json:"base_url"`
	Model                string          `json:"model"`
	MockResponsesEnabled bool            `json:"mock_responses_enabled"`
	Status               StatusResponse  `json:"status"`
	Completion           CompletionProbe `json:"completion"`
	CheckedAt            time.Time       `json:"checked_at"`
}
