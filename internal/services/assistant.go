package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"govassist-backend/internal/metrics"
	"govassist-backend/internal/models"
)

// Upstream is the inference server as seen by the Assistant.
type Upstream interface {
	CheckAvailability(ctx context.Context) Availability
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

type AssistantConfig struct {
	MockResponsesEnabled bool
	Temperature          float64
	MaxTokens            int
	// Reported in diagnostics and fallback notes.
	BaseURL           string
	Model             string
	CompletionTimeout time.Duration
}

// Assistant answers chat and image-analysis requests: it tries the inference
// server first and, when allowed, substitutes a canned answer on any failure.
type Assistant struct {
	upstream Upstream
	fallback *Fallback
	cfg      AssistantConfig
	now      func() time.Time
}

func NewAssistant(upstream Upstream, fallback *Fallback, cfg AssistantConfig) *Assistant {
	return &Assistant{
		upstream: upstream,
		fallback: fallback,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Chat answers a free-text question. Blank messages are rejected before any
// upstream call.
func (a *Assistant) Chat(ctx context.Context, message string) (*models.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &ClientInputError{Field: "message", Message: "Invalid request: message is required"}
	}

	return a.answer(ctx, "chat", buildChatPrompt(message), func(*UpstreamError) (string, string) {
		return a.fallback.RespondToChat(message), models.SourceMock
	})
}

// AnalyzeImage asks the model about a document image reference. The
// reference is treated as text only.
func (a *Assistant) AnalyzeImage(ctx context.Context, imageURL string) (*models.ChatResponse, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, &ClientInputError{Field: "image_url", Message: "Invalid request: image_url is required"}
	}

	return a.answer(ctx, "analyze_image", buildImagePrompt(imageURL), func(ue *UpstreamError) (string, string) {
		source := models.SourceMock
		if ue.Timeout {
			source = models.SourceMockTimeout
		}
		return a.fallback.RespondToImage(imageURL), source
	})
}

func (a *Assistant) answer(
	ctx context.Context,
	endpoint, prompt string,
	fallback func(*UpstreamError) (text, source string),
) (*models.ChatResponse, error) {
	// A client disconnect must not abort the upstream call; its own timeout bounds it.
	ctx = context.WithoutCancel(ctx)

	text, err := a.upstream.Complete(ctx, prompt, CompletionOptions{
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err == nil {
		metrics.RecordResponse(endpoint, models.SourceLMStudio)
		return &models.ChatResponse{Message: text, Source: models.SourceLMStudio}, nil
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		ue = &UpstreamError{Op: "chat completion", Err: err}
	}

	if !a.cfg.MockResponsesEnabled {
		log.Printf("✗ %s: LM Studio failed and mock responses are disabled: %v", endpoint, ue)
		return nil, ue
	}

	log.Printf("%s: LM Studio failed, using canned response: %v", endpoint, ue)
	reply, source := fallback(ue)
	metrics.RecordResponse(endpoint, source)
	return &models.ChatResponse{
		Message: reply,
		Source:  source,
		Note:    a.fallbackNote(ue),
	}, nil
}

func (a *Assistant) fallbackNote(ue *UpstreamError) string {
	const suffix = " This is a pre-written sample answer."
	switch {
	case ue.Timeout:
		return fmt.Sprintf("LM Studio did not respond within %s.%s", a.cfg.CompletionTimeout, suffix)
	case ue.RoleFormat:
		return "LM Studio rejected the prompt format (unsupported message role)." + suffix
	case ue.Empty:
		return "LM Studio returned an empty response." + suffix
	case ue.Unreachable():
		return fmt.Sprintf("LM Studio is not reachable at %s.%s", a.cfg.BaseURL, suffix)
	default:
		return fmt.Sprintf("LM Studio responded with status %d.%s", ue.StatusCode, suffix)
	}
}

// Status reports whether the inference server answers its model listing.
// It never fails; problems are described in the response.
func (a *Assistant) Status(ctx context.Context) models.StatusResponse {
	avail := a.upstream.CheckAvailability(ctx)
	switch avail.State {
	case Available:
		return models.StatusResponse{
			Status:  models.StatusAvailable,
			Message: fmt.Sprintf("LM Studio is running with %d model(s) loaded", len(avail.Models)),
			Models:  avail.Models,
		}
	case Degraded:
		msg := fmt.Sprintf("LM Studio responded with status %d", avail.StatusCode)
		if avail.Body != "" {
			msg += ": " + avail.Body
		}
		return models.StatusResponse{Status: models.StatusError, Message: msg}
	default:
		msg := "LM Studio is not reachable"
		if a.cfg.BaseURL != "" {
			msg += " at " + a.cfg.BaseURL
		}
		if avail.Err != nil {
			msg += ": " + avail.Err.Error()
		}
		return models.StatusResponse{Status: models.StatusUnavailable, Message: msg}
	}
}

// Diagnose runs a status probe and a short test completion and reports both
// without falling back.
func (a *Assistant) Diagnose(ctx context.Context) models.DiagnosticsResponse {
	ctx = context.WithoutCancel(ctx)
	report := models.DiagnosticsResponse{
		BaseURL:              a.cfg.BaseURL,
		Model:                a.cfg.Model,
		MockResponsesEnabled: a.cfg.MockResponsesEnabled,
		Status:               a.Status(ctx),
	}

	start := a.now()
	text, err := a.upstream.Complete(ctx, buildChatPrompt("Reply with the single word: ready"), CompletionOptions{
		Temperature: 0,
		MaxTokens:   16,
	})
	probe := models.CompletionProbe{LatencyMS: a.now().Sub(start).Milliseconds()}
	if err == nil {
		probe.OK = true
		probe.Reply = text
	} else {
		probe.Error = err.Error()
		var ue *UpstreamError
		if errors.As(err, &ue) {
			probe.StatusCode = ue.StatusCode
			probe.ErrorBody = ue.Body
			probe.RoleFormatError = ue.RoleFormat
			probe.TimedOut = ue.Timeout
		}
	}
	report.Completion = probe
	report.CheckedAt = a.now().UTC()
	return report
}
