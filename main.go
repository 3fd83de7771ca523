package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/statecraft/ixsim/simcore"
	"github.com/statecraft/ixsim/simcore/database"
	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/statecraft/ixsim/simcore/database/repositories"
	"github.com/statecraft/ixsim/simcore/engine"
	"github.com/statecraft/ixsim/simcore/importer"
	"github.com/statecraft/ixsim/simcore/ixtime"
	"github.com/statecraft/ixsim/simcore/logger"
	"github.com/statecraft/ixsim/simcore/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Initialize custom logger
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting ixsim engine",
		slog.String("version", version),
		slog.String("commit", commit))

	importPath := flag.String("import-legacy", "", "path to a legacy .bson country dump to import on startup")
	runOnce := flag.Bool("run-once", false, "run a single recalculation pass and exit")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := simcore.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	// Initialize repositories
	countryRepo := repositories.NewCountryRepository(db.BunDB())
	dmInputRepo := repositories.NewDmInputRepository(db.BunDB())
	historyRepo := repositories.NewHistoryRepository(db.BunDB())
	configRepo := repositories.NewSystemConfigRepository(db.BunDB())
	passLogRepo := repositories.NewCalculationLogRepository(db.BunDB())
	tickWriter := repositories.NewTickWriter(db.BunDB(), countryRepo, historyRepo)

	clock := &configClock{epoch: cfg.Engine.RealEpoch, config: configRepo}

	if *importPath != "" {
		tiers, err := loadTierConfig(ctx, configRepo)
		if err != nil {
			slog.Error("Failed to load tier configuration", slog.Any("error", err))
			os.Exit(-1)
		}
		created, skipped, err := importer.New(countryRepo, tiers).ImportFile(ctx, *importPath)
		if err != nil {
			slog.Error("Legacy import failed",
				slog.Int("created", created),
				slog.Int("skipped", skipped),
				slog.Any("error", err))
			os.Exit(-1)
		}
	}

	interval, err := configRepo.GetFloat(ctx, models.ConfigKeyRecalcInterval)
	if err != nil {
		slog.Error("Failed to read recalculation interval", slog.Any("error", err))
		os.Exit(-1)
	}

	recorder := engine.NewRecorder(historyRepo)
	scheduler := engine.NewScheduler(
		countryRepo, dmInputRepo, configRepo, tickWriter, passLogRepo, clock, recorder,
		engine.SchedulerOptions{
			Interval:       time.Duration(interval) * time.Second,
			Workers:        cfg.Engine.Workers,
			CountryTimeout: cfg.Engine.CountryTimeout,
		},
	)

	if *runOnce {
		summary, err := scheduler.RunBatch(ctx, clock.Now())
		logger.LogPass(summary.CountriesUpdated, summary.CountriesFailed, summary.ExecutionDuration, err)
		if err != nil {
			os.Exit(-1)
		}
		return
	}

	scheduler.Start(ctx)
	slog.Info("Recalculation scheduler started",
		slog.String("type", "sim"),
		slog.Float64("interval_seconds", interval))

	if cfg.Archive.Enabled {
		archive, err := services.NewArchiveService(
			cfg.Archive.Key, cfg.Archive.Secret, cfg.Archive.Region,
			cfg.Archive.Bucket, cfg.Archive.Prefix,
			countryRepo, historyRepo, clock, cfg.Archive.Interval,
		)
		if err != nil {
			slog.Error("Failed to initialize history archiver", slog.Any("error", err))
			os.Exit(-1)
		}
		archive.Start(ctx)
		slog.Info("History archiver started", slog.String("bucket", cfg.Archive.Bucket))
	}

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-s
	slog.Info("Shutting down ixsim engine...")
}

// configClock rebuilds the synthetic clock from system_config on every
// reading, so pause and multiplier changes from the external clock
// authority take effect without a restart.
type configClock struct {
	epoch  time.Time
	config repositories.SystemConfigRepository
}

func (c *configClock) Now() ixtime.IxTime {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state := ixtime.State{RealEpoch: c.epoch, Multiplier: 1}
	if m, err := c.config.GetFloat(ctx, models.ConfigKeyTimeMultiplier); err == nil {
		state.Multiplier = m
	}
	if paused, err := c.config.GetBool(ctx, models.ConfigKeyTimePaused); err == nil && paused {
		state.Paused = true
		if at, err := c.config.GetFloat(ctx, models.ConfigKeyTimePausedAt); err == nil {
			state.PausedAt = ixtime.IxTime(at)
		}
	}
	return ixtime.New(state).Now()
}

func loadTierConfig(ctx context.Context, configRepo repositories.SystemConfigRepository) (engine.TierConfig, error) {
	raw, err := configRepo.Get(ctx, models.ConfigKeyTierBoundaries)
	if err != nil {
		return engine.TierConfig{}, err
	}
	var tiers engine.TierConfig
	if err := json.Unmarshal([]byte(raw), &tiers); err != nil {
		return engine.TierConfig{}, err
	}
	return tiers, tiers.Validate()
}
