package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// DocumentAIRecognizer implements TextRecognizer using a Google
// Document AI OCR processor on single page images.
type DocumentAIRecognizer struct {
	client *documentai.DocumentProcessorClient
	cfg    Config
}

// NewDocumentAIRecognizer creates a recognizer with credentials from
// the environment. cfg must carry ProjectID, Location and ProcessorID.
func NewDocumentAIRecognizer(ctx context.Context, cfg Config) (*DocumentAIRecognizer, error) {
	const op = "NewDocumentAIRecognizer"

	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "Document AI engine requires a project ID and processor ID")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}

	var clientOptions []option.ClientOption

	// Regional endpoints for everything outside "us".
	if cfg.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return &DocumentAIRecognizer{client: client, cfg: cfg}, nil
}

// NewDocumentAIRecognizerWithClient creates a recognizer with an
// explicit client (for testing).
func NewDocumentAIRecognizerWithClient(client *documentai.DocumentProcessorClient, cfg Config) *DocumentAIRecognizer {
	return &DocumentAIRecognizer{client: client, cfg: cfg}
}

// Recognize extracts text from one page image.
func (d *DocumentAIRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	const op = "Recognize"

	imgBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", WrapOCRError(op, err, "failed to read page image")
	}

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  imgBytes,
				MimeType: mimeTypeFor(imagePath),
			},
		},
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return "", WrapOCRError(op, ErrRecognitionFailed, "Document AI call failed: "+err.Error())
	}
	return resp.GetDocument().GetText(), nil
}

// Close closes the underlying Document AI client.
func (d *DocumentAIRecognizer) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

func (d *DocumentAIRecognizer) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.cfg.ProjectID, d.cfg.Location, d.cfg.ProcessorID)
}

func mimeTypeFor(imagePath string) string {
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
