// Package extract turns unstructured documents into enriched, deduplicated
// mining project records using a language model.
package extract

import (
	"context"

	"github.com/sells-group/mining-intel/internal/model"
)

// Input is one document handed to the extraction capability.
type Input struct {
	URL     string
	Title   string
	Content string
	// Kind describes the document, e.g. "10-K filing" or "news article".
	Kind string
}

// Capability extracts up to max candidate projects from a document.
// Implementations return ErrUnparseable when the model's answer cannot be
// decoded.
type Capability interface {
	ExtractProjects(ctx context.Context, in Input, max int) ([]model.RawExtractedProject, error)
}
