package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrVillageNotFound    = errors.New("village not found")
	ErrInvalidDemographic = errors.New("age distribution percentages must total 100")
)

// GenderRatio holds the male/female split of a village population.
type GenderRatio struct {
	Male   float64 `json:"male"`
	Female float64 `json:"female"`
}

// AgeBand is one entry of a village's age distribution.
type AgeBand struct {
	AgeRange   string  `json:"ageRange"`
	Percentage float64 `json:"percentage"`
}

// Village is a demographic record for a single village.
type Village struct {
	ID                     string      `json:"id"`
	Name                   string      `json:"name"`
	Region                 string      `json:"region"`
	LandArea               float64     `json:"landArea"`
	Latitude               float64     `json:"latitude"`
	Longitude              float64     `json:"longitude"`
	Categories             []string    `json:"categories"`
	PopulationSize         float64     `json:"populationSize"`
	PopulationGrowthRate   float64     `json:"populationGrowthRate"`
	GenderRatio            GenderRatio `json:"genderRatio"`
	PopulationDistribution []AgeBand   `json:"populationDistribution"`
	CreatedAt              time.Time   `json:"createdAt"`
}

// Demographic is a partial update of a village's demographic fields.
// Nil fields are left unchanged.
type Demographic struct {
	GenderRatio            *GenderRatio `json:"genderRatio"`
	PopulationDistribution []AgeBand    `json:"populationDistribution"`
	PopulationSize         *float64     `json:"populationSize"`
	GrowthRate             *float64     `json:"growthRate"`
}

// VillageRepository defines the interface for village data access.
// UpdateDemographic applies a partial demographic update atomically and
// returns the updated record.
type VillageRepository interface {
	Create(ctx context.Context, village *Village) error
	GetByID(ctx context.Context, id string) (*Village, error)
	List(ctx context.Context) ([]*Village, error)
	Update(ctx context.Context, village *Village) error
	UpdateDemographic(ctx context.Context, id string, demographic *Demographic) (*Village, error)
	Delete(ctx context.Context, id string) error
}
