package services

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
)

var (
	// ErrNoCountries is returned when a run selects no configured country
	ErrNoCountries = errors.New("no valid country configuration to fetch")
	// ErrRunInProgress is returned when another run holds the pipeline
	ErrRunInProgress = errors.New("a fetch run is already in progress")
)

// RunRecorder stores one ledger row per saved country
type RunRecorder interface {
	Record(ctx context.Context, run models.FetchRun) error
}

// PipelineService drives fetch, merge, strip and save for each country
type PipelineService struct {
	orchestrator *OrchestratorService
	store        *DatasetStore
	runs         RunRecorder
	countries    []models.CountryConfig
	logger       *core.Logger

	// one run at a time per process; concurrent writers would corrupt the
	// day's dataset
	running    sync.Mutex
	background sync.WaitGroup
}

// NewPipelineService creates a new pipeline driver. runs may be nil.
func NewPipelineService(
	orchestrator *OrchestratorService,
	store *DatasetStore,
	runs RunRecorder,
	countries []models.CountryConfig,
	logger *core.Logger,
) *PipelineService {
	return &PipelineService{
		orchestrator: orchestrator,
		store:        store,
		runs:         runs,
		countries:    countries,
		logger:       logger,
	}
}

// Countries returns the configured countries in configuration order
func (p *PipelineService) Countries() []models.CountryConfig {
	return slices.Clone(p.countries)
}

// Select returns the configured countries named in names, in configuration
// order. Unknown names are logged and skipped; no names selects everything.
func (p *PipelineService) Select(names ...string) []models.CountryConfig {
	if len(names) == 0 {
		return p.Countries()
	}

	for _, name := range names {
		if !slices.ContainsFunc(p.countries, func(c models.CountryConfig) bool { return c.Name == name }) {
			p.logger.Warn("Country is not configured, skipping", "country", name)
		}
	}

	var selected []models.CountryConfig
	for _, c := range p.countries {
		if slices.Contains(names, c.Name) {
			selected = append(selected, c)
		}
	}
	return selected
}

// Run performs a full fetch, merge, strip and save cycle for the named
// countries (all when none are named) and returns the newly fetched records
func (p *PipelineService) Run(ctx context.Context, names ...string) ([]models.TrendRecord, error) {
	selected, err := p.acquire(names)
	if err != nil {
		return nil, err
	}
	defer p.running.Unlock()

	return p.run(ctx, selected), nil
}

// Trigger starts a run in the background. It returns once the run holds the
// single-run guard, so ErrRunInProgress is reported to the caller; the
// returned channel is closed when the run ends.
func (p *PipelineService) Trigger(ctx context.Context, names ...string) ([]string, <-chan struct{}, error) {
	selected, err := p.acquire(names)
	if err != nil {
		return nil, nil, err
	}

	done := make(chan struct{})
	p.background.Add(1)
	go func() {
		defer p.background.Done()
		defer close(done)
		defer p.running.Unlock()
		p.run(ctx, selected)
	}()

	return countryNames(selected), done, nil
}

// Wait blocks until every background run started by Trigger has finished
func (p *PipelineService) Wait() {
	p.background.Wait()
}

func (p *PipelineService) acquire(names []string) ([]models.CountryConfig, error) {
	selected := p.Select(names...)
	if len(selected) == 0 {
		return nil, ErrNoCountries
	}

	if !p.running.TryLock() {
		return nil, ErrRunInProgress
	}
	return selected, nil
}

func (p *PipelineService) run(ctx context.Context, selected []models.CountryConfig) []models.TrendRecord {
	p.logger.Info("Starting fetch run", "countries", countryNames(selected))

	records := p.orchestrator.FetchAll(ctx, selected, p)

	p.logger.Info("Fetch run finished", "records", len(records))
	return records
}

func countryNames(countries []models.CountryConfig) []string {
	names := make([]string, len(countries))
	for i, c := range countries {
		names[i] = c.Name
	}
	return names
}

// SaveCountry merges a country's batch into today's dataset and saves it
func (p *PipelineService) SaveCountry(ctx context.Context, batch models.CountryBatch) bool {
	path := p.store.TodayPath(batch.Country)

	existing := p.store.Load(path)
	merged := MergeRecords(batch.Records, existing)
	merged = StripTransient(merged)
	p.logger.Info("Merged dataset", "country", batch.Country, "fetched", len(batch.Records), "total", len(merged))

	saved := p.store.Save(merged, path)

	if p.runs != nil {
		run := models.FetchRun{
			ID:             uuid.NewString(),
			RunID:          batch.RunID,
			Country:        batch.Country,
			StartedAt:      batch.StartedAt,
			FinishedAt:     batch.FinishedAt,
			RegionsTotal:   batch.RegionsTotal,
			RegionsEmpty:   batch.RegionsEmpty,
			RecordsFetched: len(batch.Records),
			RecordsTotal:   len(merged),
			DatasetPath:    path,
			Saved:          saved,
		}
		if err := p.runs.Record(ctx, run); err != nil {
			p.logger.Error("Failed to record fetch run", "country", batch.Country, "error", err)
		}
	}

	return saved
}
