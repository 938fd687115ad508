package trends

import (
	"context"
	"fmt"
	"net/http"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/handlers"
	"trendwatch/internal/features/trends/migrations"
	"trendwatch/internal/features/trends/models"
	"trendwatch/internal/features/trends/services"
)

// Feature collects the regional trending-search feeds on a schedule and
// serves the stored datasets
type Feature struct {
	*core.BaseFeature
	config       *Config
	migrationMgr *migrations.Manager
	pipeline     *services.PipelineService
	runs         *services.RunService
	scheduler    *services.SchedulerService
	handlers     *handlers.Handlers

	// cancels runs started over HTTP
	cancel context.CancelFunc
}

// Services bundles the trends pipeline for callers that run it directly,
// such as the one-shot collector
type Services struct {
	Pipeline *services.PipelineService
	Store    *services.DatasetStore
	Runs     *services.RunService
}

// NewServices builds the pipeline from config. db may be nil, in which case
// no run ledger is kept.
func NewServices(logger *core.Logger, db *core.Database, config *Config) (*Services, error) {
	countries, err := models.LoadCountries(config.RegionsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load country table: %w", err)
	}

	parser := services.NewParserService(logger)
	fetcher := services.NewFetcherService(parser, logger, &config.Fetcher)
	orchestrator := services.NewOrchestratorService(fetcher, logger, &config.Fetcher)
	store := services.NewDatasetStore(&config.Store, logger)

	var runs *services.RunService
	var recorder services.RunRecorder
	if db != nil {
		runs = services.NewRunService(db, logger)
		recorder = runs
	}

	return &Services{
		Pipeline: services.NewPipelineService(orchestrator, store, recorder, countries, logger),
		Store:    store,
		Runs:     runs,
	}, nil
}

// NewFeature creates a new trends feature
func NewFeature(logger *core.Logger, db *core.Database, config *Config) (*Feature, error) {
	base := core.NewBaseFeature("trends", "Regional trending searches collector", config.Enabled, logger)
	featureLogger := base.Logger()

	svc, err := NewServices(featureLogger, db, config)
	if err != nil {
		return nil, err
	}

	background, cancel := context.WithCancel(context.Background())

	return &Feature{
		BaseFeature:  base,
		config:       config,
		migrationMgr: migrations.NewManager(db, featureLogger),
		pipeline:     svc.Pipeline,
		runs:         svc.Runs,
		scheduler:    services.NewSchedulerService(svc.Pipeline, svc.Pipeline.Countries(), featureLogger, &config.Scheduler),
		handlers:     handlers.NewHandlers(background, featureLogger, svc.Pipeline, svc.Store, svc.Runs),
		cancel:       cancel,
	}, nil
}

// Init runs migrations and starts the scheduler
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.migrationMgr.Migrate(ctx); err != nil {
		return err
	}

	if f.config.SchedulerEnabled {
		// the scheduler outlives the init context
		if err := f.scheduler.Start(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("failed to start trends scheduler: %w", err)
		}
		f.Logger().Info("Trends scheduler started")
	}

	f.Logger().Info("Trends feature initialized")
	return nil
}

// Routes returns the HTTP routes for the trends feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: http.MethodGet, Path: "/trends/countries", Handler: f.handlers.ListCountries},
		{Method: http.MethodGet, Path: "/trends/countries/{country}/datasets", Handler: f.handlers.ListDatasets},
		{Method: http.MethodGet, Path: "/trends/countries/{country}/datasets/{date}", Handler: f.handlers.GetDataset},
		{Method: http.MethodGet, Path: "/trends/runs", Handler: f.handlers.ListRuns},
		{Method: http.MethodPost, Path: "/trends/refresh", Handler: f.handlers.Refresh},
	}
}

// Shutdown stops the scheduler and cancels runs started over HTTP
func (f *Feature) Shutdown(ctx context.Context) error {
	f.Logger().Info("Shutting down trends feature")

	if f.config.SchedulerEnabled {
		if err := f.scheduler.Stop(ctx); err != nil {
			f.Logger().Error("Failed to stop trends scheduler", "error", err)
		}
	}

	f.cancel()
	f.pipeline.Wait()

	return f.BaseFeature.Shutdown(ctx)
}

// Pipeline returns the pipeline driver
func (f *Feature) Pipeline() *services.PipelineService {
	return f.pipeline
}

// MigrationManager returns the migration manager for this feature
func (f *Feature) MigrationManager() *migrations.Manager {
	return f.migrationMgr
}
