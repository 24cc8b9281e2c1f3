package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"govassist-backend/internal/metrics"
)

// Error bodies are surfaced to logs and diagnostics; keep them bounded.
const maxErrorBody = 4 << 10

type AvailabilityState string

const (
	Available   AvailabilityState = "available"
	Degraded    AvailabilityState = "degraded"
	Unavailable AvailabilityState = "unavailable"
)

// Availability is the result of a single model-listing probe.
type Availability struct {
	State      AvailabilityState
	Models     []string
	StatusCode int
	Body       string
	Err        error
}

type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

type LMStudioConfig struct {
	BaseURL           string
	Model             string
	StatusTimeout     time.Duration
	CompletionTimeout time.Duration
}

// LMStudioClient talks to an OpenAI-compatible local inference server.
type LMStudioClient struct {
	baseURL           string
	model             string
	statusTimeout     time.Duration
	completionTimeout time.Duration
	http              *http.Client
}

func NewLMStudioClient(cfg LMStudioConfig) *LMStudioClient {
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 2 * time.Second
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "local-model"
	}
	return &LMStudioClient{
		baseURL:           strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:             cfg.Model,
		statusTimeout:     cfg.StatusTimeout,
		completionTimeout: cfg.CompletionTimeout,
		// Per-call deadlines come from context; this client carries no global timeout.
		http: &http.Client{},
	}
}

func (c *LMStudioClient) BaseURL() string { return c.baseURL }

func (c *LMStudioClient) Model() string { return c.model }

func (c *LMStudioClient) CompletionTimeout() time.Duration { return c.completionTimeout }

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiChatRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
	Stream      bool         `json:"stream"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

type oaiModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// CheckAvailability probes GET /models with the short status timeout.
func (c *LMStudioClient) CheckAvailability(ctx context.Context) Availability {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return Availability{State: Unavailable, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream("models", "unavailable", time.Since(start))
		return Availability{State: Unavailable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readErrorBody(resp.Body)
		metrics.ObserveUpstream("models", "degraded", time.Since(start))
		return Availability{
			State:      Degraded,
			StatusCode: resp.StatusCode,
			Body:       body,
			Err:        fmt.Errorf("models endpoint responded with status %d", resp.StatusCode),
		}
	}

	// A 2xx answer counts as available even if the listing cannot be parsed.
	var listing oaiModelsResponse
	ids := []string{}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err == nil {
		for _, m := range listing.Data {
			if m.ID != "" {
				ids = append(ids, m.ID)
			}
		}
	}

	metrics.ObserveUpstream("models", "available", time.Since(start))
	return Availability{State: Available, Models: ids, StatusCode: resp.StatusCode}
}

// Complete sends prompt as a single user turn and returns the completion text.
// Every failure, including an empty completion, is an *UpstreamError.
func (c *LMStudioClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	start := time.Now()
	text, err := c.complete(ctx, prompt, opts)
	metrics.ObserveUpstream("chat_completion", outcomeOf(err), time.Since(start))
	return text, err
}

func (c *LMStudioClient) complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	const op = "chat completion"

	ctx, cancel := context.WithTimeout(ctx, c.completionTimeout)
	defer cancel()

	// The server's prompt template may not accept a system role, so guidance
	// and question travel together in one user message.
	body, err := json.Marshal(oaiChatRequest{
		Model:       c.model,
		Messages:    []oaiMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", &UpstreamError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &UpstreamError{Op: op, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody := readErrorBody(resp.Body)
		return "", &UpstreamError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       errBody,
			RoleFormat: isRoleFormatError(errBody),
		}
	}

	var completion oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", &UpstreamError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Timeout:    isTimeout(err),
			Err:        fmt.Errorf("decode completion: %w", err),
		}
	}

	var text string
	if len(completion.Choices) > 0 {
		text = strings.TrimSpace(completion.Choices[0].Message.Content)
	}
	if text == "" {
		return "", &UpstreamError{Op: op, Empty: true, Err: errEmptyCompletion}
	}
	return text, nil
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	ue, ok := err.(*UpstreamError)
	if !ok {
		return "error"
	}
	switch {
	case ue.Timeout:
		return "timeout"
	case ue.Empty:
		return "empty"
	case ue.RoleFormat:
		return "role_format"
	case ue.StatusCode != 0:
		return "status"
	default:
		return "unreachable"
	}
}
