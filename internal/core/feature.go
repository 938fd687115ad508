package core

import (
	"context"
	"net/http"
)

// Feature is a unit of the collector service that can be started, stopped
// and can expose HTTP routes
type Feature interface {
	Name() string
	Description() string
	Enabled() bool

	// Init starts background work; it is called once before the server listens
	Init(ctx context.Context) error

	Routes() []Route

	Shutdown(ctx context.Context) error
}

// Route represents an HTTP route for a feature
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// BaseFeature provides the naming and logging shared by all features
type BaseFeature struct {
	name        string
	description string
	enabled     bool
	logger      *Logger
}

// NewBaseFeature creates a new base feature
func NewBaseFeature(name, description string, enabled bool, logger *Logger) *BaseFeature {
	return &BaseFeature{
		name:        name,
		description: description,
		enabled:     enabled,
		logger:      logger.ForFeature(name),
	}
}

func (f *BaseFeature) Name() string        { return f.name }
func (f *BaseFeature) Description() string { return f.description }
func (f *BaseFeature) Enabled() bool       { return f.enabled }

// Logger returns the feature-specific logger
func (f *BaseFeature) Logger() *Logger {
	return f.logger
}

func (f *BaseFeature) Init(ctx context.Context) error {
	f.logger.Info("Initializing feature")
	return nil
}

func (f *BaseFeature) Routes() []Route {
	return nil
}

func (f *BaseFeature) Shutdown(ctx context.Context) error {
	f.logger.Info("Shutting down feature")
	return nil
}
