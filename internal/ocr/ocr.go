// Package ocr turns PDF documents, such as technical reports and
// feasibility studies, into text.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/internal/config"
)

// DefaultMaxPages bounds how many leading pages are converted. Summary
// economics sit in the first sections of a technical report.
const DefaultMaxPages = 60

// Extractor extracts text content from a PDF.
type Extractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}

// NewExtractor creates an Extractor based on config. Provider "none"
// returns nil, nil.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath, DefaultMaxPages), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires ocr.mistral_key")
		}
		return NewMistralOCR(cfg.MistralKey), nil
	case "none":
		return nil, nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
