package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
)

// CountrySink receives each country's batch as soon as all its regions are
// fetched
type CountrySink interface {
	SaveCountry(ctx context.Context, batch models.CountryBatch) bool
}

// OrchestratorService walks the configured countries and regions in order,
// one request at a time, over a single HTTP session per run
type OrchestratorService struct {
	fetcher *FetcherService
	logger  *core.Logger
	config  *models.FetcherConfig

	newClient func() (*http.Client, error)
	sleep     func(ctx context.Context, d time.Duration) error
	jitter    func(lo, hi time.Duration) time.Duration
	now       func() time.Time
}

// NewOrchestratorService creates a new orchestrator
func NewOrchestratorService(fetcher *FetcherService, logger *core.Logger, config *models.FetcherConfig) *OrchestratorService {
	return &OrchestratorService{
		fetcher: fetcher,
		logger:  logger,
		config:  config,
		newClient: func() (*http.Client, error) {
			return NewSessionClient(config, logger)
		},
		sleep:  sleepContext,
		jitter: randomDuration,
		now:    time.Now,
	}
}

// FetchAll fetches every region of every country and hands each country's
// batch to sink before moving on, so a run interrupted midway keeps the
// countries already saved. It returns all fetched records, unmerged.
func (o *OrchestratorService) FetchAll(ctx context.Context, countries []models.CountryConfig, sink CountrySink) []models.TrendRecord {
	client, err := o.newClient()
	if err != nil {
		o.logger.Error("Failed to create HTTP session", "error", err)
		return nil
	}
	defer client.CloseIdleConnections()

	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID)

	var all []models.TrendRecord
	for _, country := range countries {
		logger.Info("Fetching country", "country", country.Name, "regions", len(country.Regions))

		batch := models.CountryBatch{
			RunID:     runID,
			Country:   country.Name,
			StartedAt: o.now(),
		}

		cancelled := false
		for _, region := range country.Regions {
			records := o.fetcher.FetchRegion(ctx, client, region, country.Name, o.config.MaxRetries)
			batch.RegionsTotal++
			if len(records) == 0 {
				batch.RegionsEmpty++
			}
			batch.Records = append(batch.Records, records...)

			// courtesy delay, also after failures
			if err := o.sleep(ctx, o.jitter(o.config.DelayMin, o.config.DelayMax)); err != nil {
				cancelled = true
				break
			}
		}
		batch.FinishedAt = o.now()

		// the save step must finish even when the run is being cancelled
		sink.SaveCountry(context.WithoutCancel(ctx), batch)
		all = append(all, batch.Records...)

		if cancelled {
			logger.Warn("Run cancelled", "country", country.Name, "error", ctx.Err())
			break
		}
	}

	logger.Info("Fetch run complete", "countries", len(countries), "records", len(all))
	return all
}
