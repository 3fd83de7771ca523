package engine

import (
	"testing"
	"time"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/statecraft/ixsim/simcore/ixtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string    { return &s }
func f64Ptr(f float64) *float64  { return &f }

func TestActiveOverrides(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inputs := []*models.DmInput{
		{ID: 1, InputType: models.InputTypeGdpAdjustment, Value: 0.01, IsActive: true, IxCreated: 5, CreatedAt: base},
		{ID: 2, InputType: models.InputTypeGdpAdjustment, Value: 0.02, IsActive: false, IxCreated: 5, CreatedAt: base.Add(time.Minute)},
		{ID: 3, InputType: models.InputTypeGrowthRateModifier, Value: 0.03, IsActive: true, IxCreated: 5, Duration: f64Ptr(2), CreatedAt: base.Add(2 * time.Minute)},
		{ID: 4, InputType: models.InputTypePopulationAdjustment, Value: 0.04, IsActive: true, IxCreated: 5, CountryID: strPtr("valoria"), CreatedAt: base.Add(3 * time.Minute)},
		{ID: 5, InputType: models.InputTypeSpecialEvent, Value: 0.05, IsActive: true, IxCreated: 5, CountryID: strPtr("other"), CreatedAt: base.Add(4 * time.Minute)},
	}

	t.Run("inactive and foreign inputs excluded", func(t *testing.T) {
		active := ActiveOverrides(inputs, "valoria", ixtime.IxTime(6))
		ids := make([]int64, 0, len(active))
		for _, in := range active {
			ids = append(ids, in.ID)
		}
		// 2 is inactive, 5 targets another country; 3 is still inside its window.
		assert.Equal(t, []int64{1, 3, 4}, ids)
	})

	t.Run("window end is exclusive", func(t *testing.T) {
		// Duration 2 created at ix 5: active for t in [5, 7), gone at 7.
		active := ActiveOverrides(inputs, "valoria", ixtime.IxTime(6.999))
		require.Len(t, active, 3)

		active = ActiveOverrides(inputs, "valoria", ixtime.IxTime(7))
		ids := make([]int64, 0, len(active))
		for _, in := range active {
			ids = append(ids, in.ID)
		}
		assert.Equal(t, []int64{1, 4}, ids)
	})

	t.Run("ordered by creation time", func(t *testing.T) {
		shuffled := []*models.DmInput{inputs[3], inputs[0], inputs[2]}
		active := ActiveOverrides(shuffled, "valoria", ixtime.IxTime(6))
		require.Len(t, active, 3)
		for i := 1; i < len(active); i++ {
			assert.False(t, active[i].CreatedAt.Before(active[i-1].CreatedAt))
		}
	})
}

func TestSumByType(t *testing.T) {
	active := []*models.DmInput{
		{InputType: models.InputTypeGdpAdjustment, Value: 0.01},
		{InputType: models.InputTypeGdpAdjustment, Value: 0.02},
		{InputType: models.InputTypeGrowthRateModifier, Value: -0.005},
	}

	sums := SumByType(active)
	assert.InDelta(t, 0.03, sums[models.InputTypeGdpAdjustment], 1e-12)
	assert.InDelta(t, -0.005, sums[models.InputTypeGrowthRateModifier], 1e-12)

	// Layered same-type overrides sum into the GDP rate delta together.
	assert.InDelta(t, 0.025, gdpRateDelta(sums), 1e-12)
	assert.Zero(t, populationRateDelta(sums))
}
