// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the village-chat application.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"village-chat/internal/domain"
)

// ErrMockNotFound is returned by mock lookups with no matching entry
var ErrMockNotFound = errors.New("mock: not found")

// MockParticipantRepository implements domain.ParticipantRepository for testing
type MockParticipantRepository struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	CreateFunc        func(ctx context.Context, participant *domain.Participant) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.Participant, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.Participant, error)
	ListByRoleFunc    func(ctx context.Context, role string) ([]*domain.Participant, error)

	// In-memory storage for simple tests
	Participants map[string]*domain.Participant
}

// NewMockParticipantRepository creates a new MockParticipantRepository with initialized maps
func NewMockParticipantRepository() *MockParticipantRepository {
	return &MockParticipantRepository{
		Participants: make(map[string]*domain.Participant),
	}
}

func (m *MockParticipantRepository) Create(ctx context.Context, participant *domain.Participant) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, participant)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.Participants {
		if p.Username == participant.Username {
			return domain.ErrUsernameExists
		}
	}

	if participant.ID == "" {
		participant.ID = uuid.NewString()
	}
	if participant.CreatedAt.IsZero() {
		participant.CreatedAt = time.Now()
	}
	m.Participants[participant.ID] = participant
	return nil
}

func (m *MockParticipantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.Participants[id]; ok {
		return p, nil
	}
	return nil, domain.ErrParticipantNotFound
}

func (m *MockParticipantRepository) GetByUsername(ctx context.Context, username string) (*domain.Participant, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.Participants {
		if p.Username == username {
			return p, nil
		}
	}
	return nil, domain.ErrParticipantNotFound
}

func (m *MockParticipantRepository) ListByRole(ctx context.Context, role string) ([]*domain.Participant, error) {
	if m.ListByRoleFunc != nil {
		return m.ListByRoleFunc(ctx, role)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	participants := make([]*domain.Participant, 0)
	for _, p := range m.Participants {
		if p.Role == role {
			participants = append(participants, p)
		}
	}
	return participants, nil
}

// MockMessageRepository implements domain.MessageRepository for testing.
// The in-memory store preserves insertion order, matching the seq
// tie-break of the real repository.
type MockMessageRepository struct {
	mu sync.RWMutex

	// Function overrides
	CreateFunc          func(ctx context.Context, message *domain.Message) error
	GetConversationFunc func(ctx context.Context, participantA, participantB string) ([]*domain.Message, error)

	// In-memory storage, in insertion order
	Messages []*domain.Message
}

// NewMockMessageRepository creates a new MockMessageRepository
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{
		Messages: make([]*domain.Message, 0),
	}
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}

	stored := *message
	m.Messages = append(m.Messages, &stored)
	return nil
}

func (m *MockMessageRepository) GetConversation(ctx context.Context, participantA, participantB string) ([]*domain.Message, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(ctx, participantA, participantB)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages := make([]*domain.Message, 0)
	for _, msg := range m.Messages {
		if (msg.SenderID == participantA && msg.RecipientID == participantB) ||
			(msg.SenderID == participantB && msg.RecipientID == participantA) {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// MockVillageRepository implements domain.VillageRepository for testing
type MockVillageRepository struct {
	mu sync.RWMutex

	// Function overrides
	CreateFunc            func(ctx context.Context, village *domain.Village) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Village, error)
	ListFunc              func(ctx context.Context) ([]*domain.Village, error)
	UpdateFunc            func(ctx context.Context, village *domain.Village) error
	UpdateDemographicFunc func(ctx context.Context, id string, demographic *domain.Demographic) (*domain.Village, error)
	DeleteFunc            func(ctx context.Context, id string) error

	// In-memory storage
	Villages map[string]*domain.Village
}

// NewMockVillageRepository creates a new MockVillageRepository with initialized maps
func NewMockVillageRepository() *MockVillageRepository {
	return &MockVillageRepository{
		Villages: make(map[string]*domain.Village),
	}
}

func (m *MockVillageRepository) Create(ctx context.Context, village *domain.Village) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, village)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if village.ID == "" {
		village.ID = uuid.NewString()
	}
	if village.CreatedAt.IsZero() {
		village.CreatedAt = time.Now()
	}
	m.Villages[village.ID] = village
	return nil
}

func (m *MockVillageRepository) GetByID(ctx context.Context, id string) (*domain.Village, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := m.Villages[id]; ok {
		return v, nil
	}
	return nil, domain.ErrVillageNotFound
}

func (m *MockVillageRepository) List(ctx context.Context) ([]*domain.Village, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	villages := make([]*domain.Village, 0, len(m.Villages))
	for _, v := range m.Villages {
		villages = append(villages, v)
	}
	return villages, nil
}

func (m *MockVillageRepository) Update(ctx context.Context, village *domain.Village) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, village)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Villages[village.ID]; !ok {
		return domain.ErrVillageNotFound
	}
	m.Villages[village.ID] = village
	return nil
}

func (m *MockVillageRepository) UpdateDemographic(ctx context.Context, id string, demographic *domain.Demographic) (*domain.Village, error) {
	if m.UpdateDemographicFunc != nil {
		return m.UpdateDemographicFunc(ctx, id, demographic)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	village, ok := m.Villages[id]
	if !ok {
		return nil, domain.ErrVillageNotFound
	}

	if demographic.GenderRatio != nil {
		village.GenderRatio = *demographic.GenderRatio
	}
	if demographic.PopulationDistribution != nil {
		village.PopulationDistribution = demographic.PopulationDistribution
	}
	if demographic.PopulationSize != nil {
		village.PopulationSize = *demographic.PopulationSize
	}
	if demographic.GrowthRate != nil {
		village.PopulationGrowthRate = *demographic.GrowthRate
	}
	return village, nil
}

func (m *MockVillageRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Villages[id]; !ok {
		return domain.ErrVillageNotFound
	}
	delete(m.Villages, id)
	return nil
}
