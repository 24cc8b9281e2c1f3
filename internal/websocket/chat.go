package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"govassist-backend/internal/middleware"
	"govassist-backend/internal/models"
	"govassist-backend/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
)

type chatResponder interface {
	Chat(ctx context.Context, message string) (*models.ChatResponse, error)
}

// ChatSocket serves the chat contract over a websocket: each text frame
// {"message": "..."} gets one ChatResponse or ErrorResponse frame back.
// Every frame is charged to the client's rate limit bucket.
type ChatSocket struct {
	assistant chatResponder
	limiter   middleware.Limiter
	upgrader  websocket.Upgrader
}

// NewChatSocket accepts the same origin list as the CORS middleware.
// limiter may be nil.
func NewChatSocket(assistant chatResponder, allowedOrigins string, limiter middleware.Limiter) *ChatSocket {
	origins := middleware.ParseOrigins(allowedOrigins)
	return &ChatSocket{
		assistant: assistant,
		limiter:   limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins.Allows(origin)
			},
		},
	}
}

func (s *ChatSocket) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	sessionID := uuid.New()
	clientKey := middleware.ClientKey(r)
	log.Printf("WebSocket connected: session %s", sessionID)
	defer func() {
		conn.Close()
		log.Printf("WebSocket disconnected: session %s", sessionID)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: session %s: %v", sessionID, err)
			}
			return
		}

		var reply interface{}
		if s.limiter != nil && !s.limiter.AllowKey(r.Context(), clientKey) {
			reply = frameError(sessionID, "RATE_LIMITED", "Too many requests. Please try again later.", nil)
		} else {
			reply = s.respond(r.Context(), sessionID, data)
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

// keepAlive pings until done is closed. gorilla allows one concurrent
// writer plus WriteControl, so pings do not race with replies.
func (s *ChatSocket) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *ChatSocket) respond(ctx context.Context, sessionID uuid.UUID, data []byte) interface{} {
	var req models.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return frameError(sessionID, "VALIDATION_ERROR", "Invalid request: message is required", nil)
	}

	resp, err := s.assistant.Chat(ctx, req.Message)
	if err == nil {
		return resp
	}

	var inputErr *services.ClientInputError
	var upstreamErr *services.UpstreamError
	switch {
	case errors.As(err, &inputErr):
		return frameError(sessionID, "VALIDATION_ERROR", inputErr.Message, nil)
	case errors.As(err, &upstreamErr):
		return frameError(sessionID, "UPSTREAM_UNAVAILABLE", "The AI service is currently unavailable. Please try again later.", &models.UpstreamDetails{
			StatusCode:      upstreamErr.StatusCode,
			Body:            upstreamErr.Body,
			Error:           upstreamErr.Error(),
			RoleFormatError: upstreamErr.RoleFormat,
			TimedOut:        upstreamErr.Timeout,
		})
	default:
		log.Printf("✗ WebSocket session %s: %v", sessionID, err)
		return frameError(sessionID, "INTERNAL_ERROR", "An error occurred while processing your request. Please try again later.", nil)
	}
}

func frameError(sessionID uuid.UUID, code, message string, details *models.UpstreamDetails) models.ErrorResponse {
	return models.ErrorResponse{
		Message: message,
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: sessionID.String(),
		},
	}
}
