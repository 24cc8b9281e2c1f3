package models

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Details   *UpstreamDetails  `json:"details,omitempty"`
	RequestID string            `json:"request_id"`
}

// UpstreamDetails serializes an inference server failure for 503 responses.
type UpstreamDetails struct {
	StatusCode      int    `json:"status_code,omitempty"`
	Body            string `json:"body,omitempty"`
	Error           string `json:"error"`
	RoleFormatError bool   `json:"role_format_error"`
	TimedOut        bool   `json:"timed_out"`
}

// ErrorResponse keeps a top-level message so clients that only read
// "message" still have something to show.
type ErrorResponse struct {
	Message string   `json:"message"`
	Error   APIError `json:"error"`
}
