package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"village-chat/internal/domain"
)

// VillageRepository implements domain.VillageRepository for PostgreSQL.
// Demographic sub-documents (gender ratio, age distribution) are stored
// as JSONB columns; categories as a text array.
type VillageRepository struct {
	db *sql.DB
	tx *TxManager
}

// NewVillageRepository creates a new PostgreSQL village repository
func NewVillageRepository(db *sql.DB) *VillageRepository {
	return &VillageRepository{db: db, tx: NewTxManager(db)}
}

// Create inserts a new village record
func (r *VillageRepository) Create(ctx context.Context, village *domain.Village) error {
	genderRatio, err := json.Marshal(village.GenderRatio)
	if err != nil {
		return fmt.Errorf("failed to marshal gender ratio: %w", err)
	}
	distribution, err := json.Marshal(village.PopulationDistribution)
	if err != nil {
		return fmt.Errorf("failed to marshal population distribution: %w", err)
	}

	query := `
		INSERT INTO villages (name, region, land_area, latitude, longitude, categories,
			population_size, population_growth_rate, gender_ratio, population_distribution)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err = r.db.QueryRowContext(ctx, query,
		village.Name,
		village.Region,
		village.LandArea,
		village.Latitude,
		village.Longitude,
		pq.Array(village.Categories),
		village.PopulationSize,
		village.PopulationGrowthRate,
		genderRatio,
		distribution,
	).Scan(&village.ID, &village.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create village: %w", err)
	}
	return nil
}

// GetByID retrieves a village by id
func (r *VillageRepository) GetByID(ctx context.Context, id string) (*domain.Village, error) {
	query := `
		SELECT id, name, region, land_area, latitude, longitude, categories,
			population_size, population_growth_rate, gender_ratio, population_distribution, created_at
		FROM villages
		WHERE id = $1
	`
	return scanVillage(r.db.QueryRowContext(ctx, query, id))
}

// List retrieves all villages ordered by name
func (r *VillageRepository) List(ctx context.Context) ([]*domain.Village, error) {
	query := `
		SELECT id, name, region, land_area, latitude, longitude, categories,
			population_size, population_growth_rate, gender_ratio, population_distribution, created_at
		FROM villages
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list villages: %w", err)
	}
	defer rows.Close()

	villages := make([]*domain.Village, 0)
	for rows.Next() {
		village, err := scanVillage(rows)
		if err != nil {
			return nil, err
		}
		villages = append(villages, village)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating villages: %w", err)
	}

	return villages, nil
}

// Update replaces a village record
func (r *VillageRepository) Update(ctx context.Context, village *domain.Village) error {
	genderRatio, err := json.Marshal(village.GenderRatio)
	if err != nil {
		return fmt.Errorf("failed to marshal gender ratio: %w", err)
	}
	distribution, err := json.Marshal(village.PopulationDistribution)
	if err != nil {
		return fmt.Errorf("failed to marshal population distribution: %w", err)
	}

	query := `
		UPDATE villages
		SET name = $2, region = $3, land_area = $4, latitude = $5, longitude = $6,
			categories = $7, population_size = $8, population_growth_rate = $9,
			gender_ratio = $10, population_distribution = $11
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		village.ID,
		village.Name,
		village.Region,
		village.LandArea,
		village.Latitude,
		village.Longitude,
		pq.Array(village.Categories),
		village.PopulationSize,
		village.PopulationGrowthRate,
		genderRatio,
		distribution,
	)
	if err != nil {
		return fmt.Errorf("failed to update village: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrVillageNotFound
	}
	return nil
}

// UpdateDemographic applies a partial demographic update inside a single
// transaction so concurrent updates never interleave field-by-field.
func (r *VillageRepository) UpdateDemographic(ctx context.Context, id string, demographic *domain.Demographic) (*domain.Village, error) {
	var updated *domain.Village

	err := r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			SELECT id, name, region, land_area, latitude, longitude, categories,
				population_size, population_growth_rate, gender_ratio, population_distribution, created_at
			FROM villages
			WHERE id = $1
			FOR UPDATE
		`
		village, err := scanVillage(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			return err
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

		genderRatio, err := json.Marshal(village.GenderRatio)
		if err != nil {
			return fmt.Errorf("failed to marshal gender ratio: %w", err)
		}
		distribution, err := json.Marshal(village.PopulationDistribution)
		if err != nil {
			return fmt.Errorf("failed to marshal population distribution: %w", err)
		}

		update := `
			UPDATE villages
			SET population_size = $2, population_growth_rate = $3,
				gender_ratio = $4, population_distribution = $5
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, update,
			village.ID,
			village.PopulationSize,
			village.PopulationGrowthRate,
			genderRatio,
			distribution,
		); err != nil {
			return fmt.Errorf("failed to update demographics: %w", err)
		}

		updated = village
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a village record
func (r *VillageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM villages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete village: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrVillageNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVillage(row rowScanner) (*domain.Village, error) {
	village := &domain.Village{}
	var genderRatio, distribution []byte

	err := row.Scan(
		&village.ID,
		&village.Name,
		&village.Region,
		&village.LandArea,
		&village.Latitude,
		&village.Longitude,
		pq.Array(&village.Categories),
		&village.PopulationSize,
		&village.PopulationGrowthRate,
		&genderRatio,
		&distribution,
		&village.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrVillageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan village: %w", err)
	}

	if err := json.Unmarshal(genderRatio, &village.GenderRatio); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gender ratio: %w", err)
	}
	if err := json.Unmarshal(distribution, &village.PopulationDistribution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal population distribution: %w", err)
	}

	return village, nil
}
