// Package ixtime maps real wall-clock time onto the accelerated synthetic
// timeline the simulation runs on. The authoritative epoch, multiplier and
// pause state live in system_config; this package only does the arithmetic.
package ixtime

import (
	"time"
)

// YearSeconds is the length of one synthetic year, in synthetic seconds.
const YearSeconds = 365.25 * 24 * 3600

// IxTime is an instant on the synthetic timeline, measured in synthetic
// years since the synthetic epoch. It is strictly ordered and subtractable.
type IxTime float64

// Years is an elapsed synthetic duration, in the same unit growth-rate
// parameters are expressed in.
type Years float64

func (t IxTime) Before(u IxTime) bool { return t < u }
func (t IxTime) After(u IxTime) bool  { return t > u }

// Sub returns the elapsed duration t-u, clamped at zero. The master clock
// may pause or be rewound by its external authority, so a negative raw
// difference is treated as no elapsed time, never as a negative duration.
func (t IxTime) Sub(u IxTime) Years {
	if t <= u {
		return 0
	}
	return Years(t - u)
}

// State is the clock configuration snapshot read from system_config.
type State struct {
	RealEpoch  time.Time // wall-clock instant that maps to IxTime(0)
	Multiplier float64   // synthetic seconds per real second
	Paused     bool
	PausedAt   IxTime // synthetic instant the clock froze at, when Paused
}

// Clock converts wall-clock readings into IxTime. The zero multiplier is
// normalized to 1 so a missing config row degrades to real time, not a stall.
type Clock struct {
	state State
	nowFn func() time.Time
}

func New(state State) *Clock {
	if state.Multiplier <= 0 {
		state.Multiplier = 1
	}
	return &Clock{state: state, nowFn: time.Now}
}

// NewAt is New with an injectable wall-clock source.
func NewAt(state State, nowFn func() time.Time) *Clock {
	c := New(state)
	c.nowFn = nowFn
	return c
}

// Now returns the current synthetic instant. While the clock authority has
// the timeline paused, Now holds at the pause instant.
func (c *Clock) Now() IxTime {
	if c.state.Paused {
		return c.state.PausedAt
	}
	realElapsed := c.nowFn().Sub(c.state.RealEpoch).Seconds()
	if realElapsed < 0 {
		return 0
	}
	return IxTime(realElapsed * c.state.Multiplier / YearSeconds)
}

// Paused reports whether the timeline is currently frozen.
func (c *Clock) Paused() bool { return c.state.Paused }

// Elapsed returns the synthetic time passed since last, never negative.
func (c *Clock) Elapsed(last IxTime) Years {
	return c.Now().Sub(last)
}
