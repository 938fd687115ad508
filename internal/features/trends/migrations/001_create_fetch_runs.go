package migrations

import (
	"trendwatch/internal/core"
)

// Migration001CreateFetchRuns creates the fetch run ledger
var Migration001CreateFetchRuns = core.Migration{
	Version:     1,
	Name:        "create_fetch_runs",
	Description: "Create the per-country fetch run ledger",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS fetch_runs (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			country TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			regions_total INTEGER NOT NULL DEFAULT 0,
			regions_empty INTEGER NOT NULL DEFAULT 0,
			records_fetched INTEGER NOT NULL DEFAULT 0,
			records_total INTEGER NOT NULL DEFAULT 0,
			dataset_path TEXT NOT NULL,
			saved BOOLEAN NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_fetch_runs_country_started ON fetch_runs(country, started_at DESC);
		CREATE INDEX IF NOT EXISTS idx_fetch_runs_run_id ON fetch_runs(run_id);
	`,
	DownSQL: `
		DROP INDEX IF EXISTS idx_fetch_runs_run_id;
		DROP INDEX IF EXISTS idx_fetch_runs_country_started;
		DROP TABLE IF EXISTS fetch_runs;
	`,
}
