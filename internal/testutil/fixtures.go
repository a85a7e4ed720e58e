package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"village-chat/internal/domain"
)

// Counter for generating unique fixture names
var idCounter atomic.Int64

// ParticipantOptions allows customizing participant fixture creation
type ParticipantOptions struct {
	ID           string
	FullName     string
	Username     string
	Role         string
	PasswordHash string
}

// NewTestParticipant creates a test participant with sensible defaults.
// Pass options to override specific fields.
func NewTestParticipant(opts ...func(*ParticipantOptions)) *domain.Participant {
	n := idCounter.Add(1)
	o := &ParticipantOptions{
		ID:           uuid.NewString(),
		FullName:     fmt.Sprintf("Test Participant %d", n),
		Username:     fmt.Sprintf("participant%d", n),
		Role:         domain.RoleUser,
		PasswordHash: "$2a$10$test.hash.for.testing.purposes.only",
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Participant{
		ID:           o.ID,
		FullName:     o.FullName,
		Username:     o.Username,
		Role:         o.Role,
		PasswordHash: o.PasswordHash,
		CreatedAt:    time.Now(),
	}
}

// WithRole overrides the fixture role
func WithRole(role string) func(*ParticipantOptions) {
	return func(o *ParticipantOptions) { o.Role = role }
}

// WithUsername overrides the fixture username
func WithUsername(username string) func(*ParticipantOptions) {
	return func(o *ParticipantOptions) { o.Username = username }
}

// NewTestVillage creates a village fixture with defaults
func NewTestVillage() *domain.Village {
	n := idCounter.Add(1)
	return &domain.Village{
		ID:             uuid.NewString(),
		Name:           fmt.Sprintf("Village %d", n),
		Region:         "North",
		LandArea:       12.5,
		Latitude:       31.9,
		Longitude:      35.2,
		Categories:     []string{"rural"},
		PopulationSize: 1200,
		GenderRatio:    domain.GenderRatio{Male: 50, Female: 50},
		PopulationDistribution: []domain.AgeBand{
			{AgeRange: "0-18", Percentage: 40},
			{AgeRange: "19-35", Percentage: 30},
			{AgeRange: "36-60", Percentage: 20},
			{AgeRange: "60+", Percentage: 10},
		},
		CreatedAt: time.Now(),
	}
}
