package models

// Response provenance markers. The UI shows a "sample answer" badge for mock sources.
const (
	SourceLMStudio    = "lm-studio"
	SourceMock        = "mock"
	SourceMockTimeout = "mock-timeout"
)

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ImageAnalysisRequest carries a reference to an uploaded document image.
// The URL is passed to the model as text and never fetched.
type ImageAnalysisRequest struct {
	ImageURL string `json:"image_url"`
}

// ChatResponse is returned by both the chat and image-analysis endpoints.
type ChatResponse struct {
	Message string `json:"message"`
	Source  string `json:"source"`
	Note    string `json:"note,omitempty"`
}

// IsMock reports whether the reply came from the canned response table.
func (r ChatResponse) IsMock() bool {
	return r.Source == SourceMock || r.Source == SourceMockTimeout
}
