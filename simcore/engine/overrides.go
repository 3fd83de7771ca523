package engine

import (
	"sort"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/statecraft/ixsim/simcore/ixtime"
)

// ActiveOverrides selects the DM inputs that influence a country's
// recompute at the synthetic instant `at`. An input applies when it is
// active, its duration window (if any) still covers `at`, and it either
// targets this country or is global. Expiry is a derived predicate
// evaluated fresh here rather than a background sweep flipping is_active,
// so a recompute can never race an expiry job.
//
// The result is ordered by creation time ascending. Summation is
// order-independent, but the audit trail in pass notes is not.
func ActiveOverrides(inputs []*models.DmInput, countryID string, at ixtime.IxTime) []*models.DmInput {
	var active []*models.DmInput
	for _, in := range inputs {
		if !in.IsActive {
			continue
		}
		if in.Duration != nil && float64(at) >= in.IxCreated+*in.Duration {
			continue
		}
		if in.CountryID != nil && *in.CountryID != countryID {
			continue
		}
		active = append(active, in)
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active
}

// SumByType adds up the magnitudes of all active overrides per input type.
// Layered overrides of one type compose additively: two admins granting
// +1% and +2% GDP boosts yield +3%, not last-write-wins.
func SumByType(active []*models.DmInput) map[string]float64 {
	sums := make(map[string]float64, len(active))
	for _, in := range active {
		sums[in.InputType] += in.Value
	}
	return sums
}

// gdpRateDelta is the summed additive contribution to the GDP growth rate.
func gdpRateDelta(sums map[string]float64) float64 {
	return sums[models.InputTypeGrowthRateModifier] +
		sums[models.InputTypeGdpAdjustment] +
		sums[models.InputTypeSpecialEvent]
}

// populationRateDelta is the summed additive contribution to the population
// growth rate.
func populationRateDelta(sums map[string]float64) float64 {
	return sums[models.InputTypePopulationAdjustment] +
		sums[models.InputTypeSpecialEvent]
}
