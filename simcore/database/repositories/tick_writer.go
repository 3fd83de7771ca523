package repositories

import (
	"context"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/uptrace/bun"
)

// TickWriter persists a country's recalculation tick: the snapshot update
// and its historical row are one transaction, so a crash between the two
// writes can never leave them diverged.
type TickWriter interface {
	PersistTick(ctx context.Context, country *models.Country, point *models.HistoricalDataPoint) error
}

type tickWriter struct {
	db        *bun.DB
	countries CountryRepository
	history   HistoryRepository
}

func NewTickWriter(db *bun.DB, countries CountryRepository, history HistoryRepository) TickWriter {
	return &tickWriter{db: db, countries: countries, history: history}
}

func (w *tickWriter) PersistTick(ctx context.Context, country *models.Country, point *models.HistoricalDataPoint) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := w.countries.UpdateSnapshotTx(ctx, tx, country); err != nil {
		return err
	}
	if err := w.history.AppendTx(ctx, tx, point); err != nil {
		return err
	}

	return tx.Commit()
}
