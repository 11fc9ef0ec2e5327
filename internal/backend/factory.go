// Package backend selects and constructs the layout extraction backend.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"billfold/internal/extract"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the extractor instance and optional cleanup function
type BackendResult struct {
	Extractor extract.TextExtractor
	Cleanup   CleanupFunc
}

// Factory creates extraction backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case DoclingBackend:
		return f.createDoclingBackend(config)
	case VisionBackend:
		return f.createVisionBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createDoclingBackend(config Config) (*BackendResult, error) {
	extractor := extract.NewDoclingExtractor(extract.DoclingConfig{
		BaseURL: config.DoclingURL,
		Timeout: config.DoclingTimeout,
	})

	f.logger.Info("Initialized docling backend",
		"url", config.DoclingURL,
		"timeout", config.DoclingTimeout)

	return &BackendResult{
		Extractor: extractor,
		Cleanup:   func() error { return nil },
	}, nil
}

func (f *DefaultFactory) createVisionBackend(ctx context.Context) (*BackendResult, error) {
	extractor, err := extract.NewVisionExtractor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vision backend: %w", err)
	}

	f.logger.Info("Initialized vision backend")

	return &BackendResult{
		Extractor: extractor,
		Cleanup:   func() error { return nil },
	}, nil
}
