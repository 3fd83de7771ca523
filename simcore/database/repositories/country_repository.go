package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/uptrace/bun"
)

var ErrCountryNotFound = errors.New("country not found")

const countryCacheSize = 2048

type CountryRepository interface {
	GetByID(ctx context.Context, id string) (*models.Country, error)
	GetAll(ctx context.Context) ([]*models.Country, error)
	GetAllIDs(ctx context.Context) ([]string, error)
	Create(ctx context.Context, country *models.Country) error
	// UpdateSnapshotTx writes every derived field of a recompute as one
	// unit inside the caller's transaction; a partial snapshot is never
	// observable.
	UpdateSnapshotTx(ctx context.Context, tx bun.Tx, country *models.Country) error
	Count(ctx context.Context) (int, error)
}

type countryRepository struct {
	db    *bun.DB
	cache *lru.Cache // id -> *models.Country, invalidated on write
}

func NewCountryRepository(db *bun.DB) CountryRepository {
	cache, _ := lru.New(countryCacheSize)
	return &countryRepository{db: db, cache: cache}
}

func (r *countryRepository) GetByID(ctx context.Context, id string) (*models.Country, error) {
	if cached, ok := r.cache.Get(id); ok {
		return cached.(*models.Country), nil
	}

	country := new(models.Country)
	err := r.db.NewSelect().
		Model(country).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCountryNotFound
	}
	if err != nil {
		return nil, err
	}

	r.cache.Add(id, country)
	return country, nil
}

func (r *countryRepository) GetAll(ctx context.Context) ([]*models.Country, error) {
	var countries []*models.Country
	err := r.db.NewSelect().
		Model(&countries).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return countries, nil
}

func (r *countryRepository) GetAllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.NewSelect().
		Model((*models.Country)(nil)).
		Column("id").
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *countryRepository) Create(ctx context.Context, country *models.Country) error {
	now := time.Now()
	country.CreatedAt = now
	country.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(country).
		Exec(ctx)
	return err
}

func (r *countryRepository) UpdateSnapshotTx(ctx context.Context, tx bun.Tx, country *models.Country) error {
	country.UpdatedAt = time.Now()

	res, err := tx.NewUpdate().
		Model(country).
		Column("current_population", "current_gdp_per_capita", "current_total_gdp",
			"population_density", "gdp_density",
			"adjusted_gdp_growth", "adjusted_population_growth",
			"economic_tier", "population_tier",
			"last_calculated", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrCountryNotFound
	}

	r.cache.Remove(country.ID)
	return nil
}

func (r *countryRepository) Count(ctx context.Context) (int, error) {
	return r.db.NewSelect().
		Model((*models.Country)(nil)).
		Count(ctx)
}
