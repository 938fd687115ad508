package trends

import (
	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
)

// Config represents trends feature configuration
type Config struct {
	Enabled          bool
	SchedulerEnabled bool
	RegionsFile      string

	Fetcher   models.FetcherConfig
	Store     models.StoreConfig
	Scheduler models.SchedulerConfig
}

// NewConfig creates trends config from core config
func NewConfig(coreConfig *core.Config) *Config {
	t := coreConfig.Features.Trends

	scheduler := models.DefaultSchedulerConfig()
	if t.CheckInterval > 0 {
		scheduler.CheckInterval = t.CheckInterval
	}
	if len(t.TargetTimes) > 0 {
		scheduler.TargetTimes = t.TargetTimes
	}

	return &Config{
		Enabled:          t.Enabled,
		SchedulerEnabled: t.SchedulerEnabled,
		RegionsFile:      t.RegionsFile,
		Fetcher: models.FetcherConfig{
			FeedBaseURL:      t.FeedBaseURL,
			UserAgent:        t.UserAgent,
			Timeout:          t.RequestTimeout,
			MaxRetries:       t.MaxRetries,
			TransportRetries: t.TransportRetries,
			ProxyURL:         t.ProxyURL(),
			DelayMin:         t.DelayMin,
			DelayMax:         t.DelayMax,
		},
		Store: models.StoreConfig{
			OutputDir:         t.OutputDir,
			FilePrefix:        t.FilePrefix,
			FileExtension:     t.FileExtension,
			QuarantineCorrupt: t.QuarantineCorrupt,
		},
		Scheduler: *scheduler,
	}
}
