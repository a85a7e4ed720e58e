package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"village-chat/internal/domain"
)

// ParticipantRepository implements domain.ParticipantRepository for PostgreSQL
type ParticipantRepository struct {
	db *sql.DB
}

// NewParticipantRepository creates a new PostgreSQL participant repository
func NewParticipantRepository(db *sql.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Create inserts a new participant into the database
func (r *ParticipantRepository) Create(ctx context.Context, participant *domain.Participant) error {
	query := `
		INSERT INTO participants (full_name, username, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		participant.FullName,
		participant.Username,
		participant.Role,
		participant.PasswordHash,
	).Scan(&participant.ID, &participant.CreatedAt)

	if err != nil {
		if IsUniqueViolation(err, "participants_username_key") {
			return domain.ErrUsernameExists
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}

	return nil
}

// GetByID resolves a participant by id. Anything that is not a stored
// participant id, including syntactically invalid ids, resolves to
// ErrParticipantNotFound.
func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrParticipantNotFound
	}

	query := `
		SELECT id, full_name, username, role, password_hash, created_at
		FROM participants
		WHERE id = $1
	`
	participant := &domain.Participant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&participant.ID,
		&participant.FullName,
		&participant.Username,
		&participant.Role,
		&participant.PasswordHash,
		&participant.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return participant, nil
}

// GetByUsername retrieves a participant by username
func (r *ParticipantRepository) GetByUsername(ctx context.Context, username string) (*domain.Participant, error) {
	query := `
		SELECT id, full_name, username, role, password_hash, created_at
		FROM participants
		WHERE username = $1
	`
	participant := &domain.Participant{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&participant.ID,
		&participant.FullName,
		&participant.Username,
		&participant.Role,
		&participant.PasswordHash,
		&participant.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return participant, nil
}

// ListByRole retrieves all participants with the given role
func (r *ParticipantRepository) ListByRole(ctx context.Context, role string) ([]*domain.Participant, error) {
	query := `
		SELECT id, full_name, username, role, password_hash, created_at
		FROM participants
		WHERE role = $1
		ORDER BY username ASC
	`

	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p := &domain.Participant{}
		err := rows.Scan(
			&p.ID,
			&p.FullName,
			&p.Username,
			&p.Role,
			&p.PasswordHash,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}

	return participants, nil
}
