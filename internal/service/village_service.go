package service

import (
	"context"
	"math"

	"village-chat/internal/domain"
)

// defaultDistribution mirrors the age bands a new village starts with
// before any demographic data is recorded.
var defaultDistribution = []domain.AgeBand{
	{AgeRange: "0-18", Percentage: 0},
	{AgeRange: "19-35", Percentage: 0},
	{AgeRange: "36-60", Percentage: 0},
	{AgeRange: "60+", Percentage: 0},
}

type VillageService struct {
	villages domain.VillageRepository
}

func NewVillageService(villages domain.VillageRepository) *VillageService {
	return &VillageService{villages: villages}
}

// Add creates a village record, filling demographic defaults for any
// fields the caller omitted.
func (s *VillageService) Add(ctx context.Context, village *domain.Village) (*domain.Village, error) {
	if len(village.Name) == 0 || len(village.Name) > 100 {
		return nil, domain.ErrInvalidInput
	}

	if village.Categories == nil {
		village.Categories = []string{}
	}
	if len(village.PopulationDistribution) == 0 {
		village.PopulationDistribution = append([]domain.AgeBand(nil), defaultDistribution...)
	}

	if err := s.villages.Create(ctx, village); err != nil {
		return nil, err
	}
	return village, nil
}

// Get retrieves a single village
func (s *VillageService) Get(ctx context.Context, id string) (*domain.Village, error) {
	return s.villages.GetByID(ctx, id)
}

// List retrieves all villages
func (s *VillageService) List(ctx context.Context) ([]*domain.Village, error) {
	return s.villages.List(ctx)
}

// Update replaces a village record's descriptive fields. Demographic
// fields are owned by UpdateDemographic and are carried over unchanged.
func (s *VillageService) Update(ctx context.Context, village *domain.Village) (*domain.Village, error) {
	if len(village.Name) == 0 || len(village.Name) > 100 {
		return nil, domain.ErrInvalidInput
	}

	current, err := s.villages.GetByID(ctx, village.ID)
	if err != nil {
		return nil, err
	}
	village.PopulationSize = current.PopulationSize
	village.PopulationGrowthRate = current.PopulationGrowthRate
	village.GenderRatio = current.GenderRatio
	village.PopulationDistribution = current.PopulationDistribution
	village.CreatedAt = current.CreatedAt
	if village.Categories == nil {
		village.Categories = []string{}
	}

	if err := s.villages.Update(ctx, village); err != nil {
		return nil, err
	}
	return village, nil
}

// UpdateDemographic applies a partial demographic update. When an age
// distribution is supplied its percentages must total 100.
func (s *VillageService) UpdateDemographic(ctx context.Context, id string, demographic *domain.Demographic) (*domain.Village, error) {
	if demographic.PopulationDistribution != nil {
		var total float64
		for _, band := range demographic.PopulationDistribution {
			total += band.Percentage
		}
		if math.Abs(total-100) > 1e-9 {
			return nil, domain.ErrInvalidDemographic
		}
	}

	return s.villages.UpdateDemographic(ctx, id, demographic)
}

// Delete removes a village record
func (s *VillageService) Delete(ctx context.Context, id string) error {
	return s.villages.Delete(ctx, id)
}
