package core

import (
	"context"
	"fmt"
	"sync"
)

// Registry manages the features hosted by the collector service, in
// registration order
type Registry struct {
	mu       sync.RWMutex
	features []Feature
	logger   *Logger
}

// NewRegistry creates a new feature registry
func NewRegistry(logger *Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a feature to the registry
func (r *Registry) Register(feature Feature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.features {
		if existing.Name() == feature.Name() {
			return fmt.Errorf("feature %s already registered", feature.Name())
		}
	}

	r.features = append(r.features, feature)
	r.logger.Info("Registered feature", "name", feature.Name(), "enabled", feature.Enabled())
	return nil
}

// Get retrieves a feature by name
func (r *Registry) Get(name string) (Feature, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, feature := range r.features {
		if feature.Name() == name {
			return feature, true
		}
	}
	return nil, false
}

// ListEnabled returns only enabled features
func (r *Registry) ListEnabled() []Feature {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enabled := make([]Feature, 0, len(r.features))
	for _, feature := range r.features {
		if feature.Enabled() {
			enabled = append(enabled, feature)
		}
	}
	return enabled
}

// InitAll initializes all enabled features
func (r *Registry) InitAll(ctx context.Context) error {
	features := r.ListEnabled()
	r.logger.Info("Initializing features", "count", len(features))

	for _, feature := range features {
		if err := feature.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize feature %s: %w", feature.Name(), err)
		}
	}

	return nil
}

// ShutdownAll shuts down enabled features in reverse registration order
func (r *Registry) ShutdownAll(ctx context.Context) {
	features := r.ListEnabled()

	for i := len(features) - 1; i >= 0; i-- {
		if err := features[i].Shutdown(ctx); err != nil {
			// keep going so the remaining features still stop
			r.logger.Error("Failed to shutdown feature", "name", features[i].Name(), "error", err)
		}
	}
}

// GetAllRoutes returns all routes from enabled features
func (r *Registry) GetAllRoutes() []Route {
	var routes []Route
	for _, feature := range r.ListEnabled() {
		routes = append(routes, feature.Routes()...)
	}
	return routes
}

// GetFeatureStatus returns the status of all features
func (r *Registry) GetFeatureStatus() []FeatureStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make([]FeatureStatus, 0, len(r.features))
	for _, feature := range r.features {
		status = append(status, FeatureStatus{
			Name:        feature.Name(),
			Description: feature.Description(),
			Enabled:     feature.Enabled(),
		})
	}
	return status
}

// FeatureStatus represents the status of a feature
type FeatureStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}
