// Package ocr provides OCR (Optical Character Recognition) for single
// document page images.
//
// Three engines are available, selected by configuration:
//   - tesseract: local recognition via the Tesseract library (default)
//   - vision: Google Cloud Vision document text detection
//   - documentai: a Google Document AI OCR processor
//
// For the Google-backed engines the credentials come from the
// environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Recognition failures are per page: the caller treats a failed page's
// text as empty and continues with the remaining pages.
package ocr

import (
	"context"
	"fmt"
)

// TextRecognizer extracts plain text from one page image.
type TextRecognizer interface {
	// Recognize runs OCR on the image at imagePath and returns the
	// recognized plain text, or an empty string if the page carries
	// no text.
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Config selects and parameterizes the OCR engine.
type Config struct {
	// Engine is one of "tesseract", "vision", "documentai".
	Engine string

	// Languages is a comma-separated list of Tesseract language codes
	// (e.g. "eng" or "eng+deu"). Ignored by the cloud engines.
	Languages string

	// ProjectID, Location and ProcessorID identify the Document AI
	// OCR processor. Required only for the documentai engine.
	ProjectID   string
	Location    string
	ProcessorID string
}

// NewRecognizer constructs the engine named by cfg.Engine.
func NewRecognizer(ctx context.Context, cfg Config) (TextRecognizer, error) {
	switch cfg.Engine {
	case "", "tesseract":
		return NewTesseractRecognizer(cfg.Languages), nil
	case "vision":
		return NewVisionRecognizer(ctx)
	case "documentai":
		return NewDocumentAIRecognizer(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
	}
}
