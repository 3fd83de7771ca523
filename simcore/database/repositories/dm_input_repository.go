package repositories

import (
	"context"
	"time"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/uptrace/bun"
)

type DmInputRepository interface {
	Create(ctx context.Context, input *models.DmInput) error
	// GetAllActive returns every input with the active flag set, global and
	// targeted alike. Window expiry against synthetic time is the
	// resolver's concern, evaluated fresh per recompute.
	GetAllActive(ctx context.Context) ([]*models.DmInput, error)
	GetActiveForCountry(ctx context.Context, countryID string) ([]*models.DmInput, error)
	// Deactivate flips is_active off. The engine never deletes inputs;
	// physical deletion is an external administrative action.
	Deactivate(ctx context.Context, id int64) error
}

type dmInputRepository struct {
	db *bun.DB
}

func NewDmInputRepository(db *bun.DB) DmInputRepository {
	return &dmInputRepository{db: db}
}

func (r *dmInputRepository) Create(ctx context.Context, input *models.DmInput) error {
	input.CreatedAt = time.Now()

	_, err := r.db.NewInsert().
		Model(input).
		Exec(ctx)
	return err
}

func (r *dmInputRepository) GetAllActive(ctx context.Context) ([]*models.DmInput, error) {
	var inputs []*models.DmInput
	err := r.db.NewSelect().
		Model(&inputs).
		Where("is_active = TRUE").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return inputs, nil
}

func (r *dmInputRepository) GetActiveForCountry(ctx context.Context, countryID string) ([]*models.DmInput, error) {
	var inputs []*models.DmInput
	err := r.db.NewSelect().
		Model(&inputs).
		Where("is_active = TRUE").
		Where("country_id IS NULL OR country_id = ?", countryID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return inputs, nil
}

func (r *dmInputRepository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.NewUpdate().
		Model((*models.DmInput)(nil)).
		Set("is_active = FALSE").
		Where("id = ?", id).
		Exec(ctx)
	return err
}
