package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
)

const defaultRunListLimit = 50

// RunService stores and lists the fetch run ledger
type RunService struct {
	db     *core.Database
	logger *core.Logger
}

// NewRunService creates a new run service
func NewRunService(db *core.Database, logger *core.Logger) *RunService {
	return &RunService{
		db:     db,
		logger: logger,
	}
}

// Record inserts one ledger row
func (s *RunService) Record(ctx context.Context, run models.FetchRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	query := `
		INSERT INTO fetch_runs (
			id, run_id, country, started_at, finished_at,
			regions_total, regions_empty, records_fetched, records_total,
			dataset_path, saved
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecWithTimeout(ctx, query,
		run.ID, run.RunID, run.Country, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.RegionsTotal, run.RegionsEmpty, run.RecordsFetched, run.RecordsTotal,
		run.DatasetPath, run.Saved,
	)
	if err != nil {
		return core.NewDatabaseError("failed to record fetch run", err)
	}

	s.logger.Debug("Recorded fetch run", "id", run.ID, "country", run.Country)
	return nil
}

// List returns the most recent ledger rows, newest first. An empty country
// lists every country; a non-positive limit uses the default.
func (s *RunService) List(ctx context.Context, country string, limit int) ([]models.FetchRun, error) {
	if limit <= 0 {
		limit = defaultRunListLimit
	}

	query := `
		SELECT id, run_id, country, started_at, finished_at,
			regions_total, regions_empty, records_fetched, records_total,
			dataset_path, saved
		FROM fetch_runs`
	var args []any
	if country != "" {
		query += ` WHERE country = ?`
		args = append(args, country)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	runs := []models.FetchRun{}
	err := s.db.QueryEach(ctx, func(rows *sql.Rows) error {
		var run models.FetchRun
		if err := rows.Scan(
			&run.ID, &run.RunID, &run.Country, &run.StartedAt, &run.FinishedAt,
			&run.RegionsTotal, &run.RegionsEmpty, &run.RecordsFetched, &run.RecordsTotal,
			&run.DatasetPath, &run.Saved,
		); err != nil {
			return fmt.Errorf("failed to scan fetch run: %w", err)
		}
		runs = append(runs, run)
		return nil
	}, query, args...)
	if err != nil {
		return nil, core.NewDatabaseError("failed to list fetch runs", err)
	}

	return runs, nil
}
