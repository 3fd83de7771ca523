package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CalculationLog is one append-only row per scheduler pass. Rows are never
// updated or deleted; every pass writes exactly one, including passes where
// no growth work was done.
type CalculationLog struct {
	bun.BaseModel `bun:"table:calculation_logs,alias:cl"`

	ID                 int64     `bun:"id,pk,autoincrement"`
	IxTime             float64   `bun:"ix_time,notnull"`
	CountriesUpdated   int       `bun:"countries_updated,notnull"`
	CountriesFailed    int       `bun:"countries_failed,notnull"`
	ClockRegressions   int       `bun:"clock_regressions,notnull"`
	ExecutionMs        int64     `bun:"execution_ms,notnull"`
	GlobalGrowthFactor float64   `bun:"global_growth_factor,notnull"`
	Notes              string    `bun:"notes"`
	CreatedAt          time.Time `bun:"created_at,notnull"`
}
