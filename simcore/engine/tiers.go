package engine

import (
	"errors"
	"fmt"
)

var ErrTierBoundaries = errors.New("tier boundaries must be strictly increasing")

// TierBoundary names the tier a value belongs to once it meets or exceeds
// Threshold. Boundaries are configuration, loaded from system_config.
type TierBoundary struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
}

// TierConfig holds both tier schemes. Each list must be ascending by
// threshold with the first threshold at 0, so every non-negative value maps
// to exactly one tier.
type TierConfig struct {
	Economic   []TierBoundary `json:"economic"`   // by GDP per capita
	Population []TierBoundary `json:"population"` // by population
}

// DefaultTierConfig is used only to seed system_config on first startup.
// After seeding, the stored value is authoritative.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		Economic: []TierBoundary{
			{Name: "Impoverished", Threshold: 0},
			{Name: "Developing", Threshold: 5_000},
			{Name: "Developed", Threshold: 15_000},
			{Name: "Healthy", Threshold: 25_000},
			{Name: "Strong", Threshold: 35_000},
			{Name: "Very Strong", Threshold: 45_000},
			{Name: "Extravagant", Threshold: 55_000},
		},
		Population: []TierBoundary{
			{Name: "Micro", Threshold: 0},
			{Name: "Small", Threshold: 1_000_000},
			{Name: "Medium", Threshold: 10_000_000},
			{Name: "Large", Threshold: 50_000_000},
			{Name: "Massive", Threshold: 100_000_000},
		},
	}
}

// Validate fails fast on a malformed scheme so a bad admin edit surfaces at
// pass start as a configuration error instead of misclassifying silently.
func (tc TierConfig) Validate() error {
	if err := validateBoundaries("economic", tc.Economic); err != nil {
		return err
	}
	return validateBoundaries("population", tc.Population)
}

func validateBoundaries(scheme string, bounds []TierBoundary) error {
	if len(bounds) == 0 {
		return fmt.Errorf("%s scheme is empty: %w", scheme, ErrTierBoundaries)
	}
	if bounds[0].Threshold != 0 {
		return fmt.Errorf("%s scheme must start at threshold 0, got %v: %w",
			scheme, bounds[0].Threshold, ErrTierBoundaries)
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i].Threshold <= bounds[i-1].Threshold {
			return fmt.Errorf("%s scheme not increasing at %q (%v <= %v): %w",
				scheme, bounds[i].Name, bounds[i].Threshold, bounds[i-1].Threshold,
				ErrTierBoundaries)
		}
	}
	return nil
}

// Classify maps the current metrics to one tier from each scheme. The
// classification is total: a value falls into the highest tier whose
// threshold it meets or exceeds, so any non-negative pair classifies.
func (tc TierConfig) Classify(population, gdpPerCapita float64) (economic, populationTier string) {
	return highestTier(tc.Economic, gdpPerCapita), highestTier(tc.Population, population)
}

func highestTier(bounds []TierBoundary, value float64) string {
	name := bounds[0].Name
	for _, b := range bounds[1:] {
		if value < b.Threshold {
			break
		}
		name = b.Name
	}
	return name
}
