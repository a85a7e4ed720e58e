package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"village-chat/internal/domain"
	"village-chat/internal/middleware"
	"village-chat/internal/observability"
	"village-chat/internal/service"
	ws "village-chat/internal/websocket"
)

// WebSocketHandler opens a live delivery channel for the authenticated
// participant and streams it over a WebSocket connection.
type WebSocketHandler struct {
	messageService *service.MessageService
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. An empty allowed
// origins list permits any origin.
func NewWebSocketHandler(messageService *service.MessageService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		messageService: messageService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowedOrigins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowedOrigins) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}
		return false
	}
}

// HandleConnection upgrades the request and pumps live deliveries until
// the peer disconnects or the channel is torn down.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	participantID, ok := middleware.GetParticipantID(r.Context())
	if !ok {
		writeError(w, domain.ErrInvalidCredentials)
		return
	}

	sub, err := h.messageService.OpenLiveChannel(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.messageService.CloseLiveChannel(sub)
		slog.Warn("websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("participant_id", participantID))
		return
	}

	observability.WebSocketConnectionsActive.Inc()

	client := ws.NewClient(conn, sub, participantID, h.messageService.CloseLiveChannel)
	go client.WritePump()
	go client.ReadPump()
}
