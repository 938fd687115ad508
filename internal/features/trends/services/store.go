package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
)

var errMalformedDataset = errors.New("malformed dataset")

// DateLayout is the UTC calendar date embedded in dataset file names
const DateLayout = "2006-01-02"

// DatasetStore loads and saves one JSON dataset per country per UTC day,
// at <outputDir>/<country>/<prefix><YYYY-MM-DD><ext>.
//
// Neither Load nor Save return errors: a missing or unreadable dataset loads
// as empty and a failed save reports false, both with a log line.
type DatasetStore struct {
	config *models.StoreConfig
	logger *core.Logger
	now    func() time.Time
}

// NewDatasetStore creates a new dataset store
func NewDatasetStore(config *models.StoreConfig, logger *core.Logger) *DatasetStore {
	return &DatasetStore{
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// PathFor returns the dataset path of country for the UTC date of at
func (s *DatasetStore) PathFor(country string, at time.Time) string {
	name := s.config.FilePrefix + at.UTC().Format(DateLayout) + s.config.FileExtension
	return filepath.Join(s.config.OutputDir, country, name)
}

// TodayPath returns the dataset path of country for the current UTC day
func (s *DatasetStore) TodayPath(country string) string {
	return s.PathFor(country, s.now())
}

// Save writes records as an indented JSON array, replacing the file atomically
func (s *DatasetStore) Save(records []models.TrendRecord, path string) bool {
	if err := writeDataset(records, path); err != nil {
		s.logger.Error("Failed to save dataset", "path", path, "error", err)
		return false
	}

	s.logger.Info("Saved dataset", "path", path, "count", len(records))
	return true
}

// Load reads a dataset; an absent file loads as empty. A malformed file also
// loads as empty, and is first renamed aside when quarantine is enabled so
// the next save cannot overwrite it.
func (s *DatasetStore) Load(path string) []models.TrendRecord {
	records, err := readDataset(path)
	switch {
	case err == nil:
		s.logger.Info("Loaded existing dataset", "path", path, "count", len(records))
		return records
	case errors.Is(err, os.ErrNotExist):
		return []models.TrendRecord{}
	}

	s.logger.Warn("Existing dataset is unreadable, starting from empty", "path", path, "error", err)

	if s.config.QuarantineCorrupt && errors.Is(err, errMalformedDataset) {
		aside := fmt.Sprintf("%s.corrupt-%d", path, s.now().Unix())
		if err := os.Rename(path, aside); err != nil {
			s.logger.Error("Failed to quarantine corrupt dataset", "path", path, "error", err)
		} else {
			s.logger.Warn("Quarantined corrupt dataset", "path", path, "moved_to", aside)
		}
	}

	return []models.TrendRecord{}
}

// Read returns the dataset of country for date without side effects
func (s *DatasetStore) Read(country string, date time.Time) ([]models.TrendRecord, error) {
	return readDataset(s.PathFor(country, date))
}

// Dates lists the UTC dates for which country has a dataset, oldest first
func (s *DatasetStore) Dates(country string) ([]time.Time, error) {
	entries, err := os.ReadDir(filepath.Join(s.config.OutputDir, country))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	var dates []time.Time
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, s.config.FilePrefix) || !strings.HasSuffix(name, s.config.FileExtension) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, s.config.FilePrefix), s.config.FileExtension)
		date, err := time.Parse(DateLayout, stamp)
		if err != nil {
			continue
		}
		dates = append(dates, date)
	}

	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return dates, nil
}

// DatedRecords is one day's dataset
type DatedRecords struct {
	Date    string               `json:"date"`
	Records []models.TrendRecord `json:"records"`
}

// LoadRange returns the datasets of country whose date lies in [from, to].
// Unreadable files are logged and skipped.
func (s *DatasetStore) LoadRange(country string, from, to time.Time) ([]DatedRecords, error) {
	dates, err := s.Dates(country)
	if err != nil {
		return nil, err
	}

	from, to = truncateDay(from), truncateDay(to)

	out := []DatedRecords{}
	for _, date := range dates {
		if date.Before(from) || date.After(to) {
			continue
		}

		records, err := s.Read(country, date)
		if err != nil {
			s.logger.Warn("Skipping unreadable dataset", "country", country, "date", date.Format(DateLayout), "error", err)
			continue
		}
		out = append(out, DatedRecords{Date: date.Format(DateLayout), Records: records})
	}
	return out, nil
}

// StripTransient removes the raw feed text from every record before saving
func StripTransient(records []models.TrendRecord) []models.TrendRecord {
	for i := range records {
		records[i].StripTransient()
	}
	return records
}

func readDataset(path string) ([]models.TrendRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []models.TrendRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedDataset, err)
	}
	if records == nil {
		records = []models.TrendRecord{}
	}
	return records, nil
}

func writeDataset(records []models.TrendRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	out := make([]models.TrendRecord, len(records))
	for i, r := range records {
		if r.NewsItems == nil {
			r.NewsItems = []models.NewsItem{}
		}
		if r.Regions == nil {
			r.Regions = models.RegionSet{}
		}
		out[i] = r
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace dataset: %w", err)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
