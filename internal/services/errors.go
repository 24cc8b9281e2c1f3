package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ClientInputError is a malformed or missing request field. Never retried.
type ClientInputError struct {
	Field   string
	Message string
}

func (e *ClientInputError) Error() string { return e.Message }

// UpstreamError describes a failed call to the inference server.
// StatusCode is zero when no HTTP response was received.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	RoleFormat bool
	Timeout    bool
	Empty      bool
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("lm studio %s: timed out: %v", e.Op, e.Err)
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("lm studio %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("lm studio %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("lm studio %s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("lm studio %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("lm studio %s failed", e.Op)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Unreachable reports a connection failure or timeout, as opposed to a
// protocol-level failure where the server did answer.
func (e *UpstreamError) Unreachable() bool {
	return e.StatusCode == 0 && !e.Empty
}

var errEmptyCompletion = errors.New("empty completion text")

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// LM Studio rejects prompt templates that do not know the system role with
// messages like "Only user and assistant roles are supported!".
func isRoleFormatError(body string) bool {
	lower := strings.ToLower(body)
	if !strings.Contains(lower, "role") {
		return false
	}
	return strings.Contains(lower, "support") || strings.Contains(lower, "jinja")
}
