package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Well-known system_config keys.
const (
	ConfigKeyGlobalGrowthFactor = "global_growth_factor"
	ConfigKeyRecalcInterval     = "recalculation_interval_seconds"
	ConfigKeyTierBoundaries     = "tier_boundaries"
	ConfigKeyPopulationFloor    = "population_floor"
	ConfigKeyTimeMultiplier     = "time_multiplier"
	ConfigKeyTimePaused         = "time_paused"
	ConfigKeyTimePausedAt       = "time_paused_at"
)

// SystemConfig is a key/value row for engine-wide tunables. The engine reads
// these; writes come from the external administrative surface (seeding at
// schema init is the one exception, and it never overwrites existing keys).
type SystemConfig struct {
	bun.BaseModel `bun:"table:system_config,alias:sc"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
