package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"village-chat/internal/domain"
	"village-chat/internal/service"
)

// ParticipantHandler serves the participant directory
type ParticipantHandler struct {
	authService *service.AuthService
}

// NewParticipantHandler creates a new directory handler
func NewParticipantHandler(authService *service.AuthService) *ParticipantHandler {
	return &ParticipantHandler{authService: authService}
}

// ListAdmins returns every admin participant. Users pick a chat partner
// from this list.
func (h *ParticipantHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.authService.ListAdmins(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantList(admins))
}

// ListUsers returns every regular participant
func (h *ParticipantHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantList(users))
}

// Get resolves a single participant by id
func (h *ParticipantHandler) Get(w http.ResponseWriter, r *http.Request) {
	participant, err := h.authService.GetParticipant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantResponse(participant))
}

func toParticipantList(participants []*domain.Participant) []ParticipantResponse {
	out := make([]ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, toParticipantResponse(p))
	}
	return out
}
