package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *LMStudioClient {
	return NewLMStudioClient(LMStudioConfig{
		BaseURL:           url + "/v1",
		Model:             "local-model",
		StatusTimeout:     200 * time.Millisecond,
		CompletionTimeout: 200 * time.Millisecond,
	})
}

func TestComplete_SendsSingleUserTurn(t *testing.T) {
	var got oaiChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  DigiLocker stores documents.  "}},
			},
		})
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Complete(context.Background(), "guidance\n\nUser question: digilocker?", CompletionOptions{
		Temperature: 0.7,
		MaxTokens:   500,
	})

	require.NoError(t, err)
	assert.Equal(t, "DigiLocker stores documents.", text)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "User question: digilocker?")
	assert.Equal(t, "local-model", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 500, got.MaxTokens)
	assert.False(t, got.Stream)
}

func TestComplete_EmptyTextIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"   "}}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), "hi", CompletionOptions{})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Empty)
	assert.False(t, ue.Unreachable())
}

func TestComplete_NoChoicesIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), "hi", CompletionOptions{})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Empty)
}

func TestComplete_RoleFormatError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Error rendering prompt with jinja template: Only user and assistant roles are supported!"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), "hi", CompletionOptions{})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadRequest, ue.StatusCode)
	assert.True(t, ue.RoleFormat)
	assert.Contains(t, ue.Body, "Only user and assistant roles")
}

func TestComplete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model crashed"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), "hi", CompletionOptions{})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusInternalServerError, ue.StatusCode)
	assert.Equal(t, "model crashed", ue.Body)
	assert.False(t, ue.RoleFormat)
	assert.Contains(t, ue.Error(), "status 500")
}

func TestComplete_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), "hi", CompletionOptions{})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusOK, ue.StatusCode)
	assert.Error(t, ue.Err)
}

func TestComplete_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient(server.URL).Complete(context.Background(), "hi", CompletionOptions{})
	elapsed := time.Since(start)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Timeout)
	assert.True(t, ue.Unreachable())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, elapsed, 2*time.Second)
}

func TestComplete_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Complete(context.Background(), "hi", CompletionOptions{})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Zero(t, ue.StatusCode)
	assert.True(t, ue.Unreachable())
	assert.False(t, ue.Timeout)
}

func TestCheckAvailability(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			w.Write([]byte(`{"data":[{"id":"llama-3.2-3b-instruct"},{"id":"qwen2.5-7b"}]}`))
		}))
		defer server.Close()

		avail := newTestClient(server.URL).CheckAvailability(context.Background())
		assert.Equal(t, Available, avail.State)
		assert.Equal(t, []string{"llama-3.2-3b-instruct", "qwen2.5-7b"}, avail.Models)
	})

	t.Run("degraded", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("no model loaded"))
		}))
		defer server.Close()

		avail := newTestClient(server.URL).CheckAvailability(context.Background())
		assert.Equal(t, Degraded, avail.State)
		assert.Equal(t, http.StatusServiceUnavailable, avail.StatusCode)
		assert.Equal(t, "no model loaded", avail.Body)
	})

	t.Run("unavailable on timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		avail := newTestClient(server.URL).CheckAvailability(context.Background())
		assert.Equal(t, Unavailable, avail.State)
		assert.Error(t, avail.Err)
	})
}

func TestNewLMStudioClient_Defaults(t *testing.T) {
	c := NewLMStudioClient(LMStudioConfig{BaseURL: " http://127.0.0.1:1234/v1/ "})

	assert.Equal(t, "http://127.0.0.1:1234/v1", c.BaseURL())
	assert.Equal(t, "local-model", c.Model())
	assert.Equal(t, 30*time.Second, c.CompletionTimeout())
	assert.Equal(t, 2*time.Second, c.statusTimeout)
}

func TestIsRoleFormatError(t *testing.T) {
	tests := []struct {
		body     string
		expected bool
	}{
		{"Only user and assistant roles are supported!", true},
		{"Error rendering prompt with jinja template: unknown role 'system'", true},
		{"model not loaded", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := isRoleFormatError(tc.body); got != tc.expected {
			t.Errorf("isRoleFormatError(%q) = %v, want %v", tc.body, got, tc.expected)
		}
	}
}
