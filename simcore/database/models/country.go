package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Country is one simulated nation. Baseline fields are set at creation and
// never mutated; everything under "current" is recomputed by the engine.
type Country struct {
	bun.BaseModel `bun:"table:countries,alias:c"`

	ID   string `bun:"id,pk"`
	Name string `bun:"name,notnull"`

	// Baseline facts
	BaselinePopulation   float64  `bun:"baseline_population,notnull"`
	BaselineGdpPerCapita float64  `bun:"baseline_gdp_per_capita,notnull"`
	BaselineDate         float64  `bun:"baseline_date,notnull"` // IxTime years
	MaxGdpGrowthRate     float64  `bun:"max_gdp_growth_rate,notnull"`
	LandArea             *float64 `bun:"land_area"` // km², null when unknown

	// Growth parameters
	GdpGrowthRate        float64 `bun:"gdp_growth_rate,notnull"`
	PopulationGrowthRate float64 `bun:"population_growth_rate,notnull"`
	LocalGrowthFactor    float64 `bun:"local_growth_factor,notnull,default:1.0"`

	// Current derived state
	CurrentPopulation        float64  `bun:"current_population,notnull"`
	CurrentGdpPerCapita      float64  `bun:"current_gdp_per_capita,notnull"`
	CurrentTotalGdp          float64  `bun:"current_total_gdp,notnull"`
	PopulationDensity        *float64 `bun:"population_density"`
	GdpDensity               *float64 `bun:"gdp_density"`
	AdjustedGdpGrowth        float64  `bun:"adjusted_gdp_growth,notnull"`
	AdjustedPopulationGrowth float64  `bun:"adjusted_population_growth,notnull"`
	EconomicTier             string   `bun:"economic_tier,notnull"`
	PopulationTier           string   `bun:"population_tier,notnull"`
	LastCalculated           float64  `bun:"last_calculated,notnull"` // IxTime years

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
