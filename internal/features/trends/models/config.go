package models

import (
	"time"
)

// FetcherConfig holds configuration for the region fetcher and its HTTP session
type FetcherConfig struct {
	FeedBaseURL      string        `json:"feed_base_url"`
	UserAgent        string        `json:"user_agent"`
	Timeout          time.Duration `json:"timeout"`
	MaxRetries       int           `json:"max_retries"`
	TransportRetries int           `json:"transport_retries"`
	ProxyURL         string        `json:"proxy_url"`
	DelayMin         time.Duration `json:"delay_min"`
	DelayMax         time.Duration `json:"delay_max"`
}

// StoreConfig holds the dataset file layout
type StoreConfig struct {
	OutputDir         string `json:"output_dir"`
	FilePrefix        string `json:"file_prefix"`
	FileExtension     string `json:"file_extension"`
	QuarantineCorrupt bool   `json:"quarantine_corrupt"`
}

// SchedulerConfig holds configuration for the timezone scheduler
type SchedulerConfig struct {
	CheckInterval time.Duration `json:"check_interval"`
	TargetTimes   []string      `json:"target_times"`
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		CheckInterval: time.Minute,
		TargetTimes:   []string{"11:00", "11:30", "17:00", "17:30", "23:00", "23:30"},
	}
}
