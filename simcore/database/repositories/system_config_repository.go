package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/uptrace/bun"
)

var ErrConfigKeyMissing = errors.New("required config key missing")

type SystemConfigRepository interface {
	Get(ctx context.Context, key string) (string, error)
	GetFloat(ctx context.Context, key string) (float64, error)
	GetBool(ctx context.Context, key string) (bool, error)
	// Seed inserts a key only when absent, so first-boot defaults never
	// clobber values the administrative surface has already written.
	Seed(ctx context.Context, key, value string) error
	Set(ctx context.Context, key, value string) error
}

type systemConfigRepository struct {
	db *bun.DB
}

func NewSystemConfigRepository(db *bun.DB) SystemConfigRepository {
	return &systemConfigRepository{db: db}
}

func (r *systemConfigRepository) Get(ctx context.Context, key string) (string, error) {
	cfg := new(models.SystemConfig)
	err := r.db.NewSelect().
		Model(cfg).
		Where("key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%q: %w", key, ErrConfigKeyMissing)
	}
	if err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (r *systemConfigRepository) GetFloat(ctx context.Context, key string) (float64, error) {
	raw, err := r.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config key %q is not numeric: %w", key, err)
	}
	return v, nil
}

func (r *systemConfigRepository) GetBool(ctx context.Context, key string) (bool, error) {
	raw, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config key %q is not boolean: %w", key, err)
	}
	return v, nil
}

func (r *systemConfigRepository) Seed(ctx context.Context, key, value string) error {
	cfg := &models.SystemConfig{Key: key, Value: value, UpdatedAt: time.Now()}

	_, err := r.db.NewInsert().
		Model(cfg).
		On("CONFLICT (key) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *systemConfigRepository) Set(ctx context.Context, key, value string) error {
	cfg := &models.SystemConfig{Key: key, Value: value, UpdatedAt: time.Now()}

	_, err := r.db.NewInsert().
		Model(cfg).
		On("CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
