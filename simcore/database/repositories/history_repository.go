package repositories

import (
	"context"
	"time"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/uptrace/bun"
)

type HistoryRepository interface {
	// AppendTx inserts one immutable row inside the caller's transaction.
	// There is no update path: a recorded point is never touched again.
	AppendTx(ctx context.Context, tx bun.Tx, point *models.HistoricalDataPoint) error
	BulkAppend(ctx context.Context, points []*models.HistoricalDataPoint) error
	GetRange(ctx context.Context, countryID string, fromIx, toIx float64) ([]*models.HistoricalDataPoint, error)
	GetLatest(ctx context.Context, countryID string) (*models.HistoricalDataPoint, error)
}

type historyRepository struct {
	db *bun.DB
}

func NewHistoryRepository(db *bun.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) AppendTx(ctx context.Context, tx bun.Tx, point *models.HistoricalDataPoint) error {
	point.CreatedAt = time.Now()

	_, err := tx.NewInsert().
		Model(point).
		Exec(ctx)
	return err
}

func (r *historyRepository) BulkAppend(ctx context.Context, points []*models.HistoricalDataPoint) error {
	if len(points) == 0 {
		return nil
	}
	now := time.Now()
	for _, p := range points {
		p.CreatedAt = now
	}

	_, err := r.db.NewInsert().
		Model(&points).
		Exec(ctx)
	return err
}

func (r *historyRepository) GetRange(ctx context.Context, countryID string, fromIx, toIx float64) ([]*models.HistoricalDataPoint, error) {
	var points []*models.HistoricalDataPoint
	err := r.db.NewSelect().
		Model(&points).
		Where("country_id = ?", countryID).
		Where("ix_time >= ? AND ix_time < ?", fromIx, toIx).
		Order("ix_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return points, nil
}

func (r *historyRepository) GetLatest(ctx context.Context, countryID string) (*models.HistoricalDataPoint, error) {
	point := new(models.HistoricalDataPoint)
	err := r.db.NewSelect().
		Model(point).
		Where("country_id = ?", countryID).
		Order("ix_time DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return point, nil
}
