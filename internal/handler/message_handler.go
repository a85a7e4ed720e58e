package handler

import (
	"net/http"

	"village-chat/internal/domain"
	"village-chat/internal/middleware"
	"village-chat/internal/service"
)

// MessageHandler exposes send and history over HTTP. Live delivery is
// served by the WebSocket handler.
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// SendRequest represents a send request. The sender is taken from the
// authenticated context, never from the body.
type SendRequest struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Content     string `json:"content" validate:"required"`
}

// HistoryResponse wraps a conversation's messages
type HistoryResponse struct {
	Messages []*domain.Message `json:"messages"`
}

// Send persists a message and fans it out to live channels
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.GetParticipantID(r.Context())
	if !ok {
		writeError(w, domain.ErrInvalidCredentials)
		return
	}

	var req SendRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.messageService.Send(r.Context(), senderID, req.RecipientID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// History returns the full conversation between the authenticated
// participant and the peer named in the query string, oldest first.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	participantID, ok := middleware.GetParticipantID(r.Context())
	if !ok {
		writeError(w, domain.ErrInvalidCredentials)
		return
	}

	peerID := r.URL.Query().Get("peer_id")
	if peerID == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	messages, err := h.messageService.GetHistory(r.Context(), participantID, peerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Messages: messages})
}
