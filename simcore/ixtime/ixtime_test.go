package ixtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubClampsNegative(t *testing.T) {
	assert.Equal(t, Years(0), IxTime(1).Sub(IxTime(5)))
	assert.Equal(t, Years(0), IxTime(3).Sub(IxTime(3)))
	assert.Equal(t, Years(2), IxTime(5).Sub(IxTime(3)))
}

func TestOrdering(t *testing.T) {
	assert.True(t, IxTime(1).Before(IxTime(2)))
	assert.False(t, IxTime(2).Before(IxTime(2)))
	assert.True(t, IxTime(3).After(IxTime(2)))
}

func TestNowAtMultiplier(t *testing.T) {
	epoch := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		multiplier  float64
		realElapsed time.Duration
		want        float64
	}{
		{"epoch is zero", 4, 0, 0},
		{"one real year at 4x", 4, time.Duration(YearSeconds * float64(time.Second)), 4},
		{"one real year at 1x", 1, time.Duration(YearSeconds * float64(time.Second)), 1},
		{"half real year at 2x", 2, time.Duration(YearSeconds / 2 * float64(time.Second)), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewAt(State{RealEpoch: epoch, Multiplier: tt.multiplier}, func() time.Time {
				return epoch.Add(tt.realElapsed)
			})
			assert.InDelta(t, tt.want, float64(clock.Now()), 1e-9)
		})
	}
}

func TestNowBeforeEpoch(t *testing.T) {
	epoch := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewAt(State{RealEpoch: epoch, Multiplier: 4}, func() time.Time {
		return epoch.Add(-time.Hour)
	})
	assert.Equal(t, IxTime(0), clock.Now())
}

func TestPausedClockHolds(t *testing.T) {
	epoch := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	wall := epoch

	clock := NewAt(State{
		RealEpoch:  epoch,
		Multiplier: 4,
		Paused:     true,
		PausedAt:   IxTime(12.5),
	}, func() time.Time { return wall })

	assert.Equal(t, IxTime(12.5), clock.Now())
	assert.True(t, clock.Paused())

	// Wall time advancing does not move a paused clock.
	wall = wall.Add(48 * time.Hour)
	assert.Equal(t, IxTime(12.5), clock.Now())
	assert.Equal(t, Years(0), clock.Elapsed(IxTime(12.5)))
}

func TestZeroMultiplierDegradesToRealTime(t *testing.T) {
	epoch := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewAt(State{RealEpoch: epoch}, func() time.Time {
		return epoch.Add(time.Duration(YearSeconds * float64(time.Second)))
	})
	assert.InDelta(t, 1, float64(clock.Now()), 1e-9)
}

func TestElapsedNeverNegative(t *testing.T) {
	epoch := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewAt(State{RealEpoch: epoch, Multiplier: 4}, func() time.Time {
		return epoch.Add(time.Hour)
	})
	assert.Equal(t, Years(0), clock.Elapsed(IxTime(100)))
}
