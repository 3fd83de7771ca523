package engine

import (
	"context"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/statecraft/ixsim/simcore/database/repositories"
)

// Recorder turns snapshots into append-only historical rows. One logical
// writer appends per country per tick; rows are never deduplicated, so a
// no-op tick still yields exactly one point and the series has one entry
// per scheduled pass.
type Recorder struct {
	history repositories.HistoryRepository
}

func NewRecorder(history repositories.HistoryRepository) *Recorder {
	return &Recorder{history: history}
}

// BuildPoint captures a snapshot as an immutable row at its instant.
func (r *Recorder) BuildPoint(countryID string, s Snapshot) *models.HistoricalDataPoint {
	return &models.HistoricalDataPoint{
		CountryID:         countryID,
		IxTime:            float64(s.LastCalculated),
		Population:        s.Population,
		GdpPerCapita:      s.GdpPerCapita,
		TotalGdp:          s.TotalGdp,
		PopulationGrowth:  s.AdjustedPopulationGrowth,
		GdpGrowth:         s.AdjustedGdpGrowth,
		PopulationDensity: s.PopulationDensity,
		GdpDensity:        s.GdpDensity,
		EconomicTier:      s.EconomicTier,
		PopulationTier:    s.PopulationTier,
	}
}

// Record appends points outside a tick transaction, for backfills and
// imports. The scheduler's per-country path goes through TickWriter instead
// so snapshot and history land atomically.
func (r *Recorder) Record(ctx context.Context, points []*models.HistoricalDataPoint) error {
	return r.history.BulkAppend(ctx, points)
}
