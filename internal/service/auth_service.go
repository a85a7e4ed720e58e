package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"village-chat/internal/domain"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const tokenTTL = time.Hour

type AuthService struct {
	participants domain.ParticipantRepository
	jwtSecret    []byte
}

func NewAuthService(participants domain.ParticipantRepository, jwtSecret string) *AuthService {
	return &AuthService{
		participants: participants,
		jwtSecret:    []byte(jwtSecret),
	}
}

// Signup creates a participant with the user role. Admins are provisioned
// out of band.
func (s *AuthService) Signup(ctx context.Context, fullName, username, password string) (*domain.Participant, error) {
	if len(fullName) == 0 || len(fullName) > 100 {
		return nil, domain.ErrInvalidInput
	}
	if len(username) < 3 || len(username) > 50 || !usernameRegex.MatchString(username) {
		return nil, domain.ErrInvalidInput
	}
	if len(password) < 8 || len(password) > 100 {
		return nil, domain.ErrInvalidInput
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}

	participant := &domain.Participant{
		FullName:     fullName,
		Username:     username,
		Role:         domain.RoleUser,
		PasswordHash: string(hashedPassword),
	}

	if err := s.participants.Create(ctx, participant); err != nil {
		return nil, err
	}

	return participant, nil
}

// EnsureAdmin creates an admin participant if the username is free.
// Idempotent: an existing username is not an error.
func (s *AuthService) EnsureAdmin(ctx context.Context, fullName, username, password string) (*domain.Participant, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}

	participant := &domain.Participant{
		FullName:     fullName,
		Username:     username,
		Role:         domain.RoleAdmin,
		PasswordHash: string(hashedPassword),
	}

	err = s.participants.Create(ctx, participant)
	if errors.Is(err, domain.ErrUsernameExists) {
		return s.participants.GetByUsername(ctx, username)
	}
	if err != nil {
		return nil, err
	}
	return participant, nil
}

// Login verifies credentials and issues a signed token whose subject is
// the participant id.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.Participant, error) {
	participant, err := s.participants.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(participant.PasswordHash), []byte(password),
	); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   participant.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, participant, nil
}

// VerifyToken validates a token and returns the participant id it was
// issued for.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrInvalidCredentials
	}

	return claims.Subject, nil
}

// GetParticipant resolves a participant by id
func (s *AuthService) GetParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	return s.participants.GetByID(ctx, id)
}

// ListAdmins returns all admin participants, the directory a user picks a
// chat partner from.
func (s *AuthService) ListAdmins(ctx context.Context) ([]*domain.Participant, error) {
	return s.participants.ListByRole(ctx, domain.RoleAdmin)
}

// ListUsers returns all regular participants
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.Participant, error) {
	return s.participants.ListByRole(ctx, domain.RoleUser)
}
