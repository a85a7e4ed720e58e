package domain

import (
	"context"
	"errors"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrUsernameExists      = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidInput        = errors.New("invalid input")
)

// Participant is a user or admin identity that can send and receive messages.
type Participant struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ParticipantRepository defines the interface for participant data access.
// GetByID is the resolve contract consumed by the messaging core: it
// returns ErrParticipantNotFound for any id that does not resolve.
type ParticipantRepository interface {
	Create(ctx context.Context, participant *Participant) error
	GetByID(ctx context.Context, id string) (*Participant, error)
	GetByUsername(ctx context.Context, username string) (*Participant, error)
	ListByRole(ctx context.Context, role string) ([]*Participant, error)
}
