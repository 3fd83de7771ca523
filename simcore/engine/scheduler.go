package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/statecraft/ixsim/simcore/ixtime"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	defaultWorkers        = 8
	defaultCountryTimeout = 10 * time.Second
	maxFailureNotes       = 25
)

// Narrow views over the repositories, so tests can drive a pass without a
// database behind it.
type (
	CountrySource interface {
		GetAll(ctx context.Context) ([]*models.Country, error)
	}
	OverrideSource interface {
		GetAllActive(ctx context.Context) ([]*models.DmInput, error)
	}
	ConfigSource interface {
		Get(ctx context.Context, key string) (string, error)
		GetFloat(ctx context.Context, key string) (float64, error)
	}
	TickSink interface {
		PersistTick(ctx context.Context, country *models.Country, point *models.HistoricalDataPoint) error
	}
	PassLogSink interface {
		Append(ctx context.Context, log *models.CalculationLog) error
	}
	ClockSource interface {
		Now() ixtime.IxTime
	}
)

// RunSummary is the outcome of one batch pass.
type RunSummary struct {
	IxTime             ixtime.IxTime
	CountriesUpdated   int
	CountriesFailed    int
	ClockRegressions   int
	ExecutionDuration  time.Duration
	GlobalGrowthFactor float64
	Notes              string
}

// SchedulerOptions tune the pass cadence and fan-out.
type SchedulerOptions struct {
	Interval       time.Duration
	Workers        int
	CountryTimeout time.Duration
}

// Scheduler drives recalculation passes over all countries. Countries are
// independent within a pass, so work fans out across a bounded worker pool;
// one bad record is logged and skipped, never aborting the rest.
type Scheduler struct {
	countries CountrySource
	overrides OverrideSource
	config    ConfigSource
	ticks     TickSink
	passLog   PassLogSink
	clock     ClockSource
	recorder  *Recorder
	opts      SchedulerOptions

	running atomic.Bool
}

func NewScheduler(
	countries CountrySource,
	overrides OverrideSource,
	config ConfigSource,
	ticks TickSink,
	passLog PassLogSink,
	clock ClockSource,
	recorder *Recorder,
	opts SchedulerOptions,
) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.CountryTimeout <= 0 {
		opts.CountryTimeout = defaultCountryTimeout
	}
	return &Scheduler{
		countries: countries,
		overrides: overrides,
		config:    config,
		ticks:     ticks,
		passLog:   passLog,
		clock:     clock,
		recorder:  recorder,
		opts:      opts,
	}
}

// Start runs passes on the configured cadence until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.RunBatch(ctx, s.clock.Now()); err != nil {
					slog.Error("Recalculation pass failed",
						slog.String("type", "sim"),
						slog.Any("error", err))
				}
			}
		}
	}()
}

// RunBatch executes one pass over every country at the synthetic instant
// `now`. The pass configuration is read once up front so all countries see
// the same global factor and tier boundaries regardless of wall-clock skew
// within the pass. Exactly one calculation log row is written per pass,
// including all-no-op passes: each scheduler invocation is an operational
// event worth auditing even when it does no growth work.
func (s *Scheduler) RunBatch(ctx context.Context, now ixtime.IxTime) (RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return RunSummary{}, fmt.Errorf("pass already running")
	}
	defer s.running.Store(false)

	start := time.Now()

	cfg, err := s.loadPassConfig(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("pass configuration: %w", err)
	}

	countries, err := s.countries.GetAll(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load countries: %w", err)
	}
	inputs, err := s.overrides.GetAllActive(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load overrides: %w", err)
	}

	var (
		updated     atomic.Int32
		regressions atomic.Int32
		failMu      sync.Mutex
		failures    []string
	)
	recordFailure := func(id string, err error) {
		failMu.Lock()
		failures = append(failures, fmt.Sprintf("%s: %v", id, err))
		failMu.Unlock()
		slog.Error("Country recalculation failed",
			slog.String("type", "sim"),
			slog.String("country", id),
			slog.Any("error", err))
	}

	sem := semaphore.NewWeighted(int64(s.opts.Workers))
	g, gctx := errgroup.WithContext(ctx)

	for _, country := range countries {
		country := country

		// Cooperative cancellation between countries. A country already
		// started runs to completion or fails cleanly on its own deadline.
		if err := sem.Acquire(gctx, 1); err != nil {
			recordFailure(country.ID, err)
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := s.processCountry(ctx, country, inputs, cfg, now, &regressions); err != nil {
				recordFailure(country.ID, err)
				return nil // isolate: the pass continues
			}
			updated.Add(1)
			return nil
		})
	}
	g.Wait()

	summary := RunSummary{
		IxTime:             now,
		CountriesUpdated:   int(updated.Load()),
		CountriesFailed:    len(failures),
		ClockRegressions:   int(regressions.Load()),
		ExecutionDuration:  time.Since(start),
		GlobalGrowthFactor: cfg.GlobalGrowthFactor,
		Notes:              buildNotes(failures, int(regressions.Load())),
	}

	if err := s.passLog.Append(ctx, &models.CalculationLog{
		IxTime:             float64(summary.IxTime),
		CountriesUpdated:   summary.CountriesUpdated,
		CountriesFailed:    summary.CountriesFailed,
		ClockRegressions:   summary.ClockRegressions,
		ExecutionMs:        summary.ExecutionDuration.Milliseconds(),
		GlobalGrowthFactor: summary.GlobalGrowthFactor,
		Notes:              summary.Notes,
	}); err != nil {
		return summary, fmt.Errorf("append calculation log: %w", err)
	}

	slog.Info("Recalculation pass completed",
		slog.String("type", "sim"),
		slog.Int("updated", summary.CountriesUpdated),
		slog.Int("failed", summary.CountriesFailed),
		slog.Int("clock_regressions", summary.ClockRegressions),
		slog.Float64("global_growth_factor", summary.GlobalGrowthFactor),
		slog.Duration("took", summary.ExecutionDuration))

	return summary, nil
}

// processCountry is the per-country unit of work: recompute, then persist
// snapshot and history row atomically, all under a bounded deadline so one
// slow persistence call cannot stall the pass.
func (s *Scheduler) processCountry(
	ctx context.Context,
	country *models.Country,
	inputs []*models.DmInput,
	cfg PassConfig,
	now ixtime.IxTime,
	regressions *atomic.Int32,
) error {
	cctx, cancel := context.WithTimeout(ctx, s.opts.CountryTimeout)
	defer cancel()

	// A clock reading behind the country's last tick collapses to a no-op
	// inside Recompute; it is counted for the audit trail, not failed.
	if now.Before(ixtime.IxTime(country.LastCalculated)) {
		regressions.Add(1)
	}

	snap, err := Recompute(country, inputs, cfg, now)
	if err != nil {
		return err
	}

	point := s.recorder.BuildPoint(country.ID, snap)
	if !snap.NoOp {
		ApplySnapshot(country, snap)
	}
	return s.ticks.PersistTick(cctx, country, point)
}

// loadPassConfig snapshots the engine tunables for one pass. A missing key
// or malformed tier scheme is a configuration error and fails the pass
// before any country is touched; it is never silently defaulted.
func (s *Scheduler) loadPassConfig(ctx context.Context) (PassConfig, error) {
	global, err := s.config.GetFloat(ctx, models.ConfigKeyGlobalGrowthFactor)
	if err != nil {
		return PassConfig{}, err
	}
	floor, err := s.config.GetFloat(ctx, models.ConfigKeyPopulationFloor)
	if err != nil {
		return PassConfig{}, err
	}
	rawTiers, err := s.config.Get(ctx, models.ConfigKeyTierBoundaries)
	if err != nil {
		return PassConfig{}, err
	}

	var tiers TierConfig
	if err := json.Unmarshal([]byte(rawTiers), &tiers); err != nil {
		return PassConfig{}, fmt.Errorf("tier boundaries malformed: %w", err)
	}
	if err := tiers.Validate(); err != nil {
		return PassConfig{}, err
	}

	return PassConfig{
		GlobalGrowthFactor: global,
		Tiers:              tiers,
		PopulationFloor:    floor,
	}, nil
}

func buildNotes(failures []string, regressions int) string {
	var parts []string
	if len(failures) > 0 {
		shown := failures
		if len(shown) > maxFailureNotes {
			shown = shown[:maxFailureNotes]
		}
		parts = append(parts, fmt.Sprintf("%d failed: %s", len(failures), strings.Join(shown, "; ")))
		if len(failures) > maxFailureNotes {
			parts = append(parts, fmt.Sprintf("(%d more omitted)", len(failures)-maxFailureNotes))
		}
	}
	if regressions > 0 {
		parts = append(parts, fmt.Sprintf("%d clock regressions treated as no-ops", regressions))
	}
	return strings.Join(parts, " | ")
}
