package models

import (
	"time"

	"github.com/uptrace/bun"
)

// HistoricalDataPoint is one append-only time-series row per country per
// recalculation tick. Rows are never updated after insert and are
// cascade-deleted with their country.
type HistoricalDataPoint struct {
	bun.BaseModel `bun:"table:historical_data_points,alias:hdp"`

	ID        int64  `bun:"id,pk,autoincrement"`
	CountryID string `bun:"country_id,notnull"`

	IxTime            float64  `bun:"ix_time,notnull"`
	Population        float64  `bun:"population,notnull"`
	GdpPerCapita      float64  `bun:"gdp_per_capita,notnull"`
	TotalGdp          float64  `bun:"total_gdp,notnull"`
	PopulationGrowth  float64  `bun:"population_growth,notnull"`
	GdpGrowth         float64  `bun:"gdp_growth,notnull"`
	PopulationDensity *float64 `bun:"population_density"`
	GdpDensity        *float64 `bun:"gdp_density"`
	EconomicTier      string   `bun:"economic_tier,notnull"`
	PopulationTier    string   `bun:"population_tier,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}
