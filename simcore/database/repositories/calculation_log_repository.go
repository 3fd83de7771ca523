package repositories

import (
	"context"
	"time"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/uptrace/bun"
)

type CalculationLogRepository interface {
	Append(ctx context.Context, log *models.CalculationLog) error
	GetRecent(ctx context.Context, limit int) ([]*models.CalculationLog, error)
}

type calculationLogRepository struct {
	db *bun.DB
}

func NewCalculationLogRepository(db *bun.DB) CalculationLogRepository {
	return &calculationLogRepository{db: db}
}

func (r *calculationLogRepository) Append(ctx context.Context, log *models.CalculationLog) error {
	log.CreatedAt = time.Now()

	_, err := r.db.NewInsert().
		Model(log).
		Exec(ctx)
	return err
}

func (r *calculationLogRepository) GetRecent(ctx context.Context, limit int) ([]*models.CalculationLog, error) {
	var logs []*models.CalculationLog
	err := r.db.NewSelect().
		Model(&logs).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
