package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"trendwatch/internal/core"
	"trendwatch/internal/features/trends/models"
	"trendwatch/internal/features/trends/services"
)

const defaultRangeDays = 7

// Handlers contains the trends feature HTTP handlers
type Handlers struct {
	logger   *core.Logger
	pipeline *services.PipelineService
	store    *services.DatasetStore
	runs     *services.RunService

	// background is the parent context of runs started over HTTP; it outlives
	// the triggering request
	background context.Context
	now        func() time.Time
}

// NewHandlers creates a new handlers instance. runs may be nil.
func NewHandlers(
	background context.Context,
	logger *core.Logger,
	pipeline *services.PipelineService,
	store *services.DatasetStore,
	runs *services.RunService,
) *Handlers {
	return &Handlers{
		logger:     logger,
		pipeline:   pipeline,
		store:      store,
		runs:       runs,
		background: background,
		now:        time.Now,
	}
}

// CountrySummary describes one configured country and its stored datasets
type CountrySummary struct {
	Name        string   `json:"name"`
	Timezone    string   `json:"timezone"`
	RegionCount int      `json:"region_count"`
	Dates       []string `json:"dates"`
}

// ListCountries lists the configured countries with their dataset dates
func (h *Handlers) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries := h.pipeline.Countries()

	out := make([]CountrySummary, 0, len(countries))
	for _, c := range countries {
		dates, err := h.store.Dates(c.Name)
		if err != nil {
			h.logger.WithContext(r.Context()).Error("Failed to list datasets", "country", c.Name, "error", err)
			core.HandleError(w, core.NewStorageError("failed to list datasets", err))
			return
		}

		summary := CountrySummary{
			Name:        c.Name,
			Timezone:    c.Timezone,
			RegionCount: len(c.Regions),
			Dates:       make([]string, len(dates)),
		}
		for i, d := range dates {
			summary.Dates[i] = d.Format(services.DateLayout)
		}
		out = append(out, summary)
	}

	core.WriteJSON(w, http.StatusOK, out)
}

// GetDataset returns one country's records for one day
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	country, err := h.countryParam(r)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	date, err := time.Parse(services.DateLayout, chi.URLParam(r, "date"))
	if err != nil {
		core.HandleError(w, core.NewValidationError("date must be YYYY-MM-DD", err))
		return
	}

	records, err := h.store.Read(country.Name, date)
	switch {
	case errors.Is(err, os.ErrNotExist):
		core.HandleError(w, core.NewNotFoundError("no dataset for "+country.Name+" on "+date.Format(services.DateLayout), err))
		return
	case err != nil:
		h.logger.WithContext(r.Context()).Error("Failed to read dataset", "country", country.Name, "date", date.Format(services.DateLayout), "error", err)
		core.HandleError(w, core.NewStorageError("failed to read dataset", err))
		return
	}

	core.WriteJSON(w, http.StatusOK, records)
}

// ListDatasets returns a country's records per day for an inclusive date
// range, defaulting to the last week
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	country, err := h.countryParam(r)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	to := h.now().UTC()
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse(services.DateLayout, v); err != nil {
			core.HandleError(w, core.NewValidationError("to must be YYYY-MM-DD", err))
			return
		}
	}

	from := to.AddDate(0, 0, -(defaultRangeDays - 1))
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse(services.DateLayout, v); err != nil {
			core.HandleError(w, core.NewValidationError("from must be YYYY-MM-DD", err))
			return
		}
	}

	if from.After(to) {
		core.HandleError(w, core.NewValidationError("from must not be after to", nil))
		return
	}

	datasets, err := h.store.LoadRange(country.Name, from, to)
	if err != nil {
		core.HandleError(w, core.NewStorageError("failed to load datasets", err))
		return
	}

	core.WriteJSON(w, http.StatusOK, datasets)
}

// ListRuns returns the most recent fetch runs
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		core.WriteJSON(w, http.StatusOK, []models.FetchRun{})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			core.HandleError(w, core.NewValidationError("limit must be a positive integer", err))
			return
		}
		limit = n
	}

	runs, err := h.runs.List(r.Context(), r.URL.Query().Get("country"), limit)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.WriteJSON(w, http.StatusOK, runs)
}

// RefreshResponse acknowledges a background run
type RefreshResponse struct {
	Status    string   `json:"status"`
	Countries []string `json:"countries"`
}

// Refresh starts a background fetch run for one country, or all of them
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var names []string
	if c := r.URL.Query().Get("country"); c != "" {
		names = append(names, c)
	}

	started, _, err := h.pipeline.Trigger(h.background, names...)
	switch {
	case errors.Is(err, services.ErrRunInProgress):
		core.HandleError(w, core.NewConflictError("a fetch run is already in progress", err))
		return
	case errors.Is(err, services.ErrNoCountries):
		core.HandleError(w, core.NewValidationError("unknown country", err))
		return
	case err != nil:
		core.HandleError(w, err)
		return
	}

	h.logger.WithContext(r.Context()).Info("Refresh started", "countries", started)
	core.WriteJSON(w, http.StatusAccepted, RefreshResponse{Status: "started", Countries: started})
}

func (h *Handlers) countryParam(r *http.Request) (models.CountryConfig, error) {
	name, err := url.PathUnescape(chi.URLParam(r, "country"))
	if err != nil {
		return models.CountryConfig{}, core.NewValidationError("invalid country", err)
	}

	for _, c := range h.pipeline.Countries() {
		if c.Name == name {
			return c, nil
		}
	}
	return models.CountryConfig{}, core.NewNotFoundError("unknown country "+strconv.Quote(name), nil)
}
