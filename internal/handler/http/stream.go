package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/leave-approval-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/leave-approval-go/internal/handler/http/response"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/jwt"
)

const keepaliveInterval = 30 * time.Second

// StreamHandler pushes leave progress changes to the requester over SSE.
type StreamHandler interface {
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type streamHandlerImpl struct {
	approvalService approval.ApprovalService
	jwtService      jwt.Service
	keepalive       time.Duration
}

func NewStreamHandler(approvalService approval.ApprovalService, jwtService jwt.Service) StreamHandler {
	return &streamHandlerImpl{
		approvalService: approvalService,
		jwtService:      jwtService,
		keepalive:       keepaliveInterval,
	}
}

// GetStreamToken generates a short-lived token for the progress stream
func (h *streamHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(caller.UserID)
	if err != nil {
		slog.Error("GenerateStreamToken error", "error", err)
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, approval.StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream handles the SSE connection for leave progress updates
func (h *streamHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot send headers, so the token travels in the query.
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.approvalService.Subscribe(r.Context(), userID)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"user_id\":%q}\n\n", userID)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("Stream encode error", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
