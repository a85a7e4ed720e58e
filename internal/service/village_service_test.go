package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"village-chat/internal/domain"
	"village-chat/internal/testutil"
)

func TestVillageService_Add(t *testing.T) {
	t.Run("fills_demographic_defaults", func(t *testing.T) {
		repo := testutil.NewMockVillageRepository()
		svc := NewVillageService(repo)

		village, err := svc.Add(context.Background(), &domain.Village{
			Name:   "Beit Sahour",
			Region: "South",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, village.ID)
		require.Len(t, village.PopulationDistribution, 4)
		assert.Equal(t, "0-18", village.PopulationDistribution[0].AgeRange)
		assert.NotNil(t, village.Categories)
	})

	t.Run("rejects_empty_name", func(t *testing.T) {
		svc := NewVillageService(testutil.NewMockVillageRepository())

		_, err := svc.Add(context.Background(), &domain.Village{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("keeps_supplied_distribution", func(t *testing.T) {
		svc := NewVillageService(testutil.NewMockVillageRepository())

		village, err := svc.Add(context.Background(), &domain.Village{
			Name: "Beit Sahour",
			PopulationDistribution: []domain.AgeBand{
				{AgeRange: "0-50", Percentage: 60},
				{AgeRange: "50+", Percentage: 40},
			},
		})

		require.NoError(t, err)
		assert.Len(t, village.PopulationDistribution, 2)
	})
}

func TestVillageService_UpdateDemographic(t *testing.T) {
	setup := func(t *testing.T) (*VillageService, *domain.Village) {
		repo := testutil.NewMockVillageRepository()
		svc := NewVillageService(repo)
		village := testutil.NewTestVillage()
		require.NoError(t, repo.Create(context.Background(), village))
		return svc, village
	}

	t.Run("applies_partial_update", func(t *testing.T) {
		svc, village := setup(t)

		size := 2400.0
		updated, err := svc.UpdateDemographic(context.Background(), village.ID, &domain.Demographic{
			PopulationSize: &size,
			GenderRatio:    &domain.GenderRatio{Male: 48, Female: 52},
		})

		require.NoError(t, err)
		assert.Equal(t, 2400.0, updated.PopulationSize)
		assert.Equal(t, 52.0, updated.GenderRatio.Female)
		// Untouched fields stay
		assert.Len(t, updated.PopulationDistribution, 4)
	})

	t.Run("distribution_must_total_100", func(t *testing.T) {
		svc, village := setup(t)

		_, err := svc.UpdateDemographic(context.Background(), village.ID, &domain.Demographic{
			PopulationDistribution: []domain.AgeBand{
				{AgeRange: "0-18", Percentage: 50},
				{AgeRange: "19+", Percentage: 30},
			},
		})

		assert.ErrorIs(t, err, domain.ErrInvalidDemographic)
	})

	t.Run("valid_distribution_is_accepted", func(t *testing.T) {
		svc, village := setup(t)

		updated, err := svc.UpdateDemographic(context.Background(), village.ID, &domain.Demographic{
			PopulationDistribution: []domain.AgeBand{
				{AgeRange: "0-18", Percentage: 55.5},
				{AgeRange: "19+", Percentage: 44.5},
			},
		})

		require.NoError(t, err)
		assert.Len(t, updated.PopulationDistribution, 2)
	})

	t.Run("unknown_village", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.UpdateDemographic(context.Background(), "missing", &domain.Demographic{})
		assert.ErrorIs(t, err, domain.ErrVillageNotFound)
	})
}

func TestVillageService_Delete(t *testing.T) {
	repo := testutil.NewMockVillageRepository()
	svc := NewVillageService(repo)
	village := testutil.NewTestVillage()
	require.NoError(t, repo.Create(context.Background(), village))

	require.NoError(t, svc.Delete(context.Background(), village.ID))

	_, err := svc.Get(context.Background(), village.ID)
	assert.ErrorIs(t, err, domain.ErrVillageNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), village.ID), domain.ErrVillageNotFound)
}
