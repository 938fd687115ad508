package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger provides structured logging for the collector and its features
type Logger struct {
	*slog.Logger
	level    *slog.LevelVar
	mu       *sync.Mutex
	features map[string]*slog.Logger
}

// NewLogger creates a new logger writing to stdout at info level
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, slog.LevelInfo)
}

// NewLoggerWithWriter creates a logger writing text records to w
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelVar,
	})

	return &Logger{
		Logger:   slog.New(handler),
		level:    levelVar,
		mu:       &sync.Mutex{},
		features: make(map[string]*slog.Logger),
	}
}

// ForFeature returns a logger specific to a feature
func (l *Logger) ForFeature(featureName string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	featureLogger, exists := l.features[featureName]
	if !exists {
		featureLogger = l.Logger.With("feature", featureName)
		l.features[featureName] = featureLogger
	}

	return l.derive(featureLogger)
}

// WithContext returns a logger carrying the request id set by the chi middleware
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	if requestID := middleware.GetReqID(ctx); requestID != "" {
		return l.derive(l.Logger.With("request_id", requestID))
	}

	return l
}

// With returns a logger with the given attributes attached
func (l *Logger) With(attrs ...any) *Logger {
	return l.derive(l.Logger.With(attrs...))
}

// SetLevel changes the minimum level for this logger and every logger derived from it
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

func (l *Logger) derive(inner *slog.Logger) *Logger {
	return &Logger{
		Logger:   inner,
		level:    l.level,
		mu:       l.mu,
		features: l.features,
	}
}

// ParseLevel maps a config string to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
