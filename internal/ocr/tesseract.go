package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer implements TextRecognizer using a local
// Tesseract installation via gosseract. A fresh client is created per
// recognition call; gosseract clients are not safe for concurrent use.
type TesseractRecognizer struct {
	languages []string
}

// NewTesseractRecognizer creates a Tesseract-backed recognizer.
// languages is a comma-separated list of Tesseract language codes;
// empty means the engine default.
func NewTesseractRecognizer(languages string) *TesseractRecognizer {
	var langs []string
	for _, l := range strings.Split(languages, ",") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &TesseractRecognizer{languages: langs}
}

// Recognize runs OCR on one page image.
func (t *TesseractRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	const op = "Recognize"

	select {
	case <-ctx.Done():
		return "", WrapOCRError(op, ctx.Err(), "canceled before recognition")
	default:
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return "", WrapOCRError(op, err, "failed to set languages")
		}
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", WrapOCRError(op, err, "failed to load page image")
	}

	text, err := client.Text()
	if err != nil {
		return "", WrapOCRError(op, ErrRecognitionFailed, "tesseract recognition failed: "+err.Error())
	}
	return text, nil
}
