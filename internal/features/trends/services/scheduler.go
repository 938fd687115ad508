package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
)

// PipelineRunner performs a full fetch cycle for the named countries
type PipelineRunner interface {
	Run(ctx context.Context, names ...string) ([]models.TrendRecord, error)
}

// SchedulerService runs the pipeline for each country when that country's
// local wall clock reaches one of the target times
type SchedulerService struct {
	runner    PipelineRunner
	countries []models.CountryConfig
	logger    *core.Logger
	config    *models.SchedulerConfig
	now       func() time.Time

	locations map[string]*time.Location
	// lastFired holds the local minute each country last fired in
	lastFired map[string]string

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSchedulerService creates a new scheduler service. Countries with a
// missing or unknown timezone are never scheduled.
func NewSchedulerService(
	runner PipelineRunner,
	countries []models.CountryConfig,
	logger *core.Logger,
	config *models.SchedulerConfig,
) *SchedulerService {
	s := &SchedulerService{
		runner:    runner,
		countries: countries,
		logger:    logger,
		config:    config,
		now:       time.Now,
		locations: make(map[string]*time.Location, len(countries)),
		lastFired: make(map[string]string, len(countries)),
		stopChan:  make(chan struct{}),
	}

	for _, c := range countries {
		if c.Timezone == "" {
			logger.Warn("Country has no timezone, not scheduling", "country", c.Name)
			continue
		}
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			logger.Warn("Unknown timezone, not scheduling", "country", c.Name, "timezone", c.Timezone, "error", err)
			continue
		}
		s.locations[c.Name] = loc
	}

	return s
}

// Start begins the scheduler
func (s *SchedulerService) Start(ctx context.Context) error {
	s.logger.Info("Starting trends scheduler",
		"interval", s.config.CheckInterval,
		"target_times", s.config.TargetTimes,
		"countries", len(s.locations),
	)

	s.wg.Add(1)
	go s.checkLoop(ctx)

	return nil
}

// Stop signals the loop and waits for it, including any run in flight, or
// until ctx is done
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping trends scheduler")
	s.stopOnce.Do(func() { close(s.stopChan) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SchedulerService) checkLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	// runs are cancelled when the scheduler stops
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-runCtx.Done():
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled")
			return
		case <-s.stopChan:
			s.logger.Info("Scheduler stop signal received")
			return
		case <-ticker.C:
			s.check(runCtx)
		}
	}
}

func (s *SchedulerService) check(ctx context.Context) {
	due := s.dueCountries(s.now())
	if len(due) == 0 {
		return
	}

	s.logger.Info("Scheduled run due", "countries", due)
	if _, err := s.runner.Run(ctx, due...); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.logger.Warn("Skipping scheduled run, another run is in progress", "countries", due)
			return
		}
		s.logger.Error("Scheduled run failed", "countries", due, "error", err)
	}
}

// dueCountries returns the countries whose local time is a target time and
// that have not fired in that local minute yet, marking them as fired
func (s *SchedulerService) dueCountries(now time.Time) []string {
	var due []string
	for _, c := range s.countries {
		loc, ok := s.locations[c.Name]
		if !ok {
			continue
		}

		local := now.In(loc)
		if !slices.Contains(s.config.TargetTimes, local.Format("15:04")) {
			continue
		}

		minute := local.Format("2006-01-02 15:04")
		if s.lastFired[c.Name] == minute {
			continue
		}
		s.lastFired[c.Name] = minute
		due = append(due, c.Name)
	}
	return due
}
