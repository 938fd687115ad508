package models

import "time"

// CountryBatch is what the orchestrator hands to the save step after all of
// a country's regions were fetched
type CountryBatch struct {
	RunID        string
	Country      string
	Records      []TrendRecord
	RegionsTotal int
	// RegionsEmpty counts regions that yielded no records, whether the feed
	// was empty or every attempt failed
	RegionsEmpty int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// FetchRun is one ledger row describing a country's fetch and save
type FetchRun struct {
	ID             string    `json:"id"`
	RunID          string    `json:"run_id"`
	Country        string    `json:"country"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	RegionsTotal   int       `json:"regions_total"`
	RegionsEmpty   int       `json:"regions_empty"`
	RecordsFetched int       `json:"records_fetched"`
	RecordsTotal   int       `json:"records_total"`
	DatasetPath    string    `json:"dataset_path"`
	Saved          bool      `json:"saved"`
}
