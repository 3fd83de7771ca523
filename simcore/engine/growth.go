package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/statecraft/ixsim/simcore/ixtime"
)

var ErrDataIntegrity = errors.New("stored snapshot violates total GDP invariant")

// integrityTolerance is the relative error allowed between the stored total
// GDP and population × GDP per capita before a country is refused rather
// than recomputed from inconsistent state.
const integrityTolerance = 1e-6

// PassConfig is the engine configuration snapshotted once per pass so every
// country in a pass sees the same global factor and tier boundaries.
type PassConfig struct {
	GlobalGrowthFactor float64
	Tiers              TierConfig
	PopulationFloor    float64
}

// Snapshot is the recomputed current state of one country at one instant.
type Snapshot struct {
	Population               float64
	GdpPerCapita             float64
	TotalGdp                 float64
	PopulationDensity        *float64
	GdpDensity               *float64
	AdjustedGdpGrowth        float64
	AdjustedPopulationGrowth float64
	EconomicTier             string
	PopulationTier           string
	LastCalculated           ixtime.IxTime

	// NoOp is set when no synthetic time elapsed and the snapshot is the
	// stored state passed through unchanged.
	NoOp bool
}

// Recompute derives a country's present-day state from its baseline facts,
// the overrides active now, and the pass configuration. It is a pure
// function of its arguments: the same country, overrides, config and instant
// always produce the same snapshot, and a second call at the same instant is
// a no-op because no time has elapsed.
func Recompute(c *models.Country, overrides []*models.DmInput, cfg PassConfig, now ixtime.IxTime) (Snapshot, error) {
	if err := checkIntegrity(c); err != nil {
		return Snapshot{}, err
	}

	dt := now.Sub(ixtime.IxTime(c.LastCalculated))
	if dt == 0 {
		return currentSnapshot(c), nil
	}

	sums := SumByType(ActiveOverrides(overrides, c.ID, now))

	// Uncapped GDP rate: stored parameter plus summed override deltas, then
	// the local and global multipliers. The tier ceiling clamps the result
	// every tick; overrides can pull growth below the ceiling, never above.
	uncappedGdp := (c.GdpGrowthRate + gdpRateDelta(sums)) * c.LocalGrowthFactor * cfg.GlobalGrowthFactor
	adjustedGdp := math.Min(uncappedGdp, c.MaxGdpGrowthRate)

	popRate := (c.PopulationGrowthRate + populationRateDelta(sums)) * c.LocalGrowthFactor * cfg.GlobalGrowthFactor

	// One compounding convention for every country: discrete per-tick
	// compounding over the elapsed synthetic years.
	newPop := c.CurrentPopulation * compound(popRate, dt)
	newGdpPC := c.CurrentGdpPerCapita * compound(adjustedGdp, dt)

	// A collapsed population is clamped at the configured floor instead of
	// letting negative values leak into the GDP product.
	if newPop < cfg.PopulationFloor {
		newPop = cfg.PopulationFloor
	}
	if newGdpPC < 0 {
		newGdpPC = 0
	}

	economic, population := cfg.Tiers.Classify(newPop, newGdpPC)

	snap := Snapshot{
		Population:               newPop,
		GdpPerCapita:             newGdpPC,
		TotalGdp:                 newPop * newGdpPC,
		AdjustedGdpGrowth:        adjustedGdp,
		AdjustedPopulationGrowth: popRate,
		EconomicTier:             economic,
		PopulationTier:           population,
		LastCalculated:           now,
	}
	snap.PopulationDensity, snap.GdpDensity = densities(c.LandArea, newPop, snap.TotalGdp)
	return snap, nil
}

// compound is (1+rate)^dt with the base clamped at zero, so a rate below
// -100% means total loss rather than NaN oscillation.
func compound(rate float64, dt ixtime.Years) float64 {
	base := 1 + rate
	if base < 0 {
		base = 0
	}
	return math.Pow(base, float64(dt))
}

// densities returns per-km² metrics, or nils when land area is unknown.
// Unknown area propagates null, never a synthetic zero.
func densities(landArea *float64, population, totalGdp float64) (popDensity, gdpDensity *float64) {
	if landArea == nil || *landArea <= 0 {
		return nil, nil
	}
	pd := population / *landArea
	gd := totalGdp / *landArea
	return &pd, &gd
}

func currentSnapshot(c *models.Country) Snapshot {
	return Snapshot{
		Population:               c.CurrentPopulation,
		GdpPerCapita:             c.CurrentGdpPerCapita,
		TotalGdp:                 c.CurrentTotalGdp,
		PopulationDensity:        c.PopulationDensity,
		GdpDensity:               c.GdpDensity,
		AdjustedGdpGrowth:        c.AdjustedGdpGrowth,
		AdjustedPopulationGrowth: c.AdjustedPopulationGrowth,
		EconomicTier:             c.EconomicTier,
		PopulationTier:           c.PopulationTier,
		LastCalculated:           ixtime.IxTime(c.LastCalculated),
		NoOp:                     true,
	}
}

// checkIntegrity refuses a country whose stored snapshot is internally
// inconsistent. Guessing which of the three fields is correct would
// silently corrupt history, so the country fails its tick instead.
func checkIntegrity(c *models.Country) error {
	expected := c.CurrentPopulation * c.CurrentGdpPerCapita
	scale := math.Max(math.Abs(expected), 1)
	if math.Abs(c.CurrentTotalGdp-expected)/scale > integrityTolerance {
		return fmt.Errorf("country %s: total %.4f != population × gdp/capita %.4f: %w",
			c.ID, c.CurrentTotalGdp, expected, ErrDataIntegrity)
	}
	return nil
}

// ApplySnapshot writes a snapshot back onto the country model as one unit.
func ApplySnapshot(c *models.Country, s Snapshot) {
	c.CurrentPopulation = s.Population
	c.CurrentGdpPerCapita = s.GdpPerCapita
	c.CurrentTotalGdp = s.TotalGdp
	c.PopulationDensity = s.PopulationDensity
	c.GdpDensity = s.GdpDensity
	c.AdjustedGdpGrowth = s.AdjustedGdpGrowth
	c.AdjustedPopulationGrowth = s.AdjustedPopulationGrowth
	c.EconomicTier = s.EconomicTier
	c.PopulationTier = s.PopulationTier
	c.LastCalculated = float64(s.LastCalculated)
}
