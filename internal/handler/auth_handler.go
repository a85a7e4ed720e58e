package handler

import (
	"net/http"
	"time"

	"village-chat/internal/domain"
	"village-chat/internal/middleware"
	"village-chat/internal/service"
)

// AuthHandler handles signup, login and the current-participant lookup
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignupRequest represents a registration request
type SignupRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// ParticipantResponse is the wire shape of a participant
type ParticipantResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and the authenticated participant
type LoginResponse struct {
	Token       string              `json:"token"`
	Participant ParticipantResponse `json:"participant"`
}

func toParticipantResponse(p *domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:        p.ID,
		FullName:  p.FullName,
		Username:  p.Username,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}

// Signup handles participant registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	participant, err := h.authService.Signup(r.Context(), req.FullName, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toParticipantResponse(participant))
}

// Login verifies credentials and issues a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, participant, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:       token,
		Participant: toParticipantResponse(participant),
	})
}

// Me returns the authenticated participant
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	participantID, ok := middleware.GetParticipantID(r.Context())
	if !ok {
		writeError(w, domain.ErrInvalidCredentials)
		return
	}

	participant, err := h.authService.GetParticipant(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toParticipantResponse(participant))
}
