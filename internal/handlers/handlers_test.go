package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"govassist-backend/internal/models"
	"govassist-backend/internal/services"
)

type stubUpstream struct {
	reply string
	err   error
	avail services.Availability
	calls int
}

func (s *stubUpstream) CheckAvailability(ctx context.Context) services.Availability {
	return s.avail
}

func (s *stubUpstream) Complete(ctx context.Context, prompt string, opts services.CompletionOptions) (string, error) {
	s.calls++
	return s.reply, s.err
}

var errRefused = &services.UpstreamError{Op: "chat completion", Err: errors.New("dial tcp 127.0.0.1:1234: connect: connection refused")}

func newChatHandler(up services.Upstream, mocks bool) *ChatHandler {
	assistant := services.NewAssistant(up, services.DefaultFallback(), services.AssistantConfig{
		MockResponsesEnabled: mocks,
		Temperature:          0.7,
		MaxTokens:            500,
		BaseURL:              "http://127.0.0.1:1234/v1",
		CompletionTimeout:    30 * time.Second,
	})
	return NewChatHandler(assistant)
}

func postJSON(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

// ─── Chat Handler Tests ───

func TestChat_InvalidInputNeverCallsUpstream(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"empty message", `{"message":""}`},
		{"blank message", `{"message":"   "}`},
		{"null message", `{"message":null}`},
		{"non-string message", `{"message":42}`},
		{"malformed json", `{"message":`},
		{"empty body", ``},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			up := &stubUpstream{reply: "unused"}
			rr := postJSON(newChatHandler(up, true).Chat, "/api/chat", tc.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rr.Code)
			}
			if up.calls != 0 {
				t.Errorf("Expected no upstream calls, got %d", up.calls)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Message != "Invalid request: message is required" {
				t.Errorf("Unexpected message %q", resp.Message)
			}
			if resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("Expected VALIDATION_ERROR, got %q", resp.Error.Code)
			}
			if resp.Error.RequestID != "req-42" {
				t.Errorf("Expected request id to be echoed, got %q", resp.Error.RequestID)
			}
		})
	}
}

func TestChat_UpstreamSuccess(t *testing.T) {
	up := &stubUpstream{reply: "UMANG offers 1,200+ services."}
	rr := postJSON(newChatHandler(up, true).Chat, "/api/chat", `{"message":"What is UMANG?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["source"] != models.SourceLMStudio {
		t.Errorf("Expected source lm-studio, got %v", resp["source"])
	}
	if resp["message"] != "UMANG offers 1,200+ services." {
		t.Errorf("Unexpected message %v", resp["message"])
	}
	if _, ok := resp["note"]; ok {
		t.Error("note must be omitted for upstream replies")
	}
}

func TestChat_FallbackWhenUpstreamUnreachable(t *testing.T) {
	up := &stubUpstream{err: errRefused}
	rr := postJSON(newChatHandler(up, true).Chat, "/api/chat", `{"message":"How do I update my aadhaar address?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp models.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Source != models.SourceMock {
		t.Errorf("Expected source mock, got %q", resp.Source)
	}
	if want := services.DefaultFallback().RespondToChat("aadhaar"); resp.Message != want {
		t.Errorf("Expected canned aadhaar text, got %q", resp.Message)
	}
	if resp.Note == "" {
		t.Error("Expected explanatory note on mock response")
	}
}

func TestChat_MocksDisabledReturns503(t *testing.T) {
	up := &stubUpstream{err: &services.UpstreamError{Op: "chat completion", StatusCode: 400, Body: "Only user and assistant roles are supported!", RoleFormat: true}}
	rr := postJSON(newChatHandler(up, false).Chat, "/api/chat", `{"message":"gst"}`)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error.Code != "UPSTREAM_UNAVAILABLE" {
		t.Errorf("Expected UPSTREAM_UNAVAILABLE, got %q", resp.Error.Code)
	}
	if resp.Error.Details == nil || !resp.Error.Details.RoleFormatError || resp.Error.Details.StatusCode != 400 {
		t.Errorf("Expected serialized upstream error, got %+v", resp.Error.Details)
	}
}

func TestChat_RepeatedCallsAreByteIdentical(t *testing.T) {
	h := newChatHandler(&stubUpstream{err: errRefused}, true)

	first := postJSON(h.Chat, "/api/chat", `{"message":"Tell me about DIGILOCKER"}`).Body.Bytes()
	for i := 0; i < 5; i++ {
		again := postJSON(h.Chat, "/api/chat", `{"message":"Tell me about DIGILOCKER"}`).Body.Bytes()
		if !bytes.Equal(first, again) {
			t.Fatalf("Response %d differs:\n%s\n%s", i, first, again)
		}
	}
}

type failingAssistant struct{}

func (failingAssistant) Chat(ctx context.Context, message string) (*models.ChatResponse, error) {
	return nil, errors.New("pq: relation \"secrets\" does not exist")
}

func (failingAssistant) AnalyzeImage(ctx context.Context, imageURL string) (*models.ChatResponse, error) {
	return nil, errors.New("nil map write")
}

func TestChat_UnexpectedErrorIsGeneric500(t *testing.T) {
	h := NewChatHandler(failingAssistant{})

	for _, tc := range []struct {
		handler http.HandlerFunc
		path    string
		body    string
	}{
		{h.Chat, "/api/chat", `{"message":"hi"}`},
		{h.AnalyzeImage, "/api/analyze-image", `{"image_url":"x.png"}`},
	} {
		rr := postJSON(tc.handler, tc.path, tc.body)

		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected status 500, got %d", tc.path, rr.Code)
		}
		if strings.Contains(rr.Body.String(), "secrets") || strings.Contains(rr.Body.String(), "nil map") {
			t.Errorf("%s: internal error leaked: %s", tc.path, rr.Body.String())
		}
	}
}

// ─── Image Analysis Handler Tests ───

func TestAnalyzeImage_MissingURL(t *testing.T) {
	for _, body := range []string{`{}`, `{"image_url":""}`, `{"image_url":7}`, `{"imageUrl":"a.png"}`} {
		up := &stubUpstream{}
		rr := postJSON(newChatHandler(up, true).AnalyzeImage, "/api/analyze-image", body)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected status 400, got %d", body, rr.Code)
		}
		if up.calls != 0 {
			t.Errorf("body %s: expected no upstream calls", body)
		}
	}
}

func TestAnalyzeImage_Fallback(t *testing.T) {
	up := &stubUpstream{err: &services.UpstreamError{Op: "chat completion", Timeout: true, Err: context.DeadlineExceeded}}
	rr := postJSON(newChatHandler(up, true).AnalyzeImage, "/api/analyze-image", `{"image_url":"https://files.example.in/voter-id.jpg"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp models.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Source != models.SourceMockTimeout {
		t.Errorf("Expected source mock-timeout, got %q", resp.Source)
	}
	if want := services.DefaultFallback().RespondToImage("voter"); resp.Message != want {
		t.Errorf("Unexpected canned text %q", resp.Message)
	}
}

func TestAnalyzeImage_MocksDisabled(t *testing.T) {
	rr := postJSON(newChatHandler(&stubUpstream{err: errRefused}, false).AnalyzeImage, "/api/analyze-image", `{"image_url":"a.png"}`)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", rr.Code)
	}
}

// ─── Status Handler Tests ───

func TestLMStudioStatus_AlwaysOK(t *testing.T) {
	tests := []struct {
		name   string
		avail  services.Availability
		status string
	}{
		{"available", services.Availability{State: services.Available, Models: []string{"llama-3.2"}}, models.StatusAvailable},
		{"degraded", services.Availability{State: services.Degraded, StatusCode: 500}, models.StatusError},
		{"unavailable", services.Availability{State: services.Unavailable, Err: errors.New("timeout")}, models.StatusUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assistant := services.NewAssistant(&stubUpstream{avail: tc.avail}, services.DefaultFallback(), services.AssistantConfig{})
			h := NewStatusHandler(assistant)

			rr := httptest.NewRecorder()
			h.LMStudioStatus(rr, httptest.NewRequest(http.MethodGet, "/api/lmstudio-status", nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			var resp models.StatusResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tc.status {
				t.Errorf("Expected %q, got %q", tc.status, resp.Status)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := NewStatusHandler(nil)
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var resp models.HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "ok" || !resp.Timestamp.Equal(fixed) {
		t.Errorf("Unexpected health response %+v", resp)
	}
}

func TestDiagnostics(t *testing.T) {
	up := &stubUpstream{
		avail: services.Availability{State: services.Available, Models: []string{"llama-3.2"}},
		reply: "ready",
	}
	assistant := services.NewAssistant(up, services.DefaultFallback(), services.AssistantConfig{Model: "local-model"})

	rr := httptest.NewRecorder()
	NewStatusHandler(assistant).Diagnostics(rr, httptest.NewRequest(http.MethodGet, "/api/lmstudio-diagnostics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var resp models.DiagnosticsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Completion.OK || resp.Completion.Reply != "ready" {
		t.Errorf("Unexpected completion check %+v", resp.Completion)
	}
	if resp.Status.Status != models.StatusAvailable {
		t.Errorf("Unexpected status %q", resp.Status.Status)
	}
}
