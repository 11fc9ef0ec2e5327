// Package extract converts scanned documents into text and layout data.
//
// Stage 1 of the pipeline: file -> Markdown + raw layout JSON. The heavy
// lifting is delegated to an external service; this package only carries
// the transport.
package extract

import (
	"context"
	"encoding/json"
	"time"
)

// TextExtractor is stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Result holds the output of a single document conversion.
type Result struct {
	// Markdown is the text rendering fed to the field extractor.
	Markdown string
	// Layout is the raw layout JSON as returned by the backend.
	Layout json.RawMessage
	// Pages is the page count when the backend reports it, otherwise 0.
	Pages    int
	Duration time.Duration
	Warnings []string
}
