package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/backpressure/internal/catalog"
)

// Engine advances simulation state against an injected catalog.
type Engine struct {
	cat    *catalog.Catalog
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for lifecycle events.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// New creates an Engine over cat.
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		cat:    cat,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the injected catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}
