package ocr

import (
	"context"
	"os"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionRecognizer implements TextRecognizer using Google Cloud Vision
// document text detection on single page images.
type VisionRecognizer struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionRecognizer creates a recognizer with credentials from the
// environment. It expects either GOOGLE_APPLICATION_CREDENTIALS path
// or GOOGLE_CREDENTIALS JSON in env, falling back to application
// default credentials.
func NewVisionRecognizer(ctx context.Context) (*VisionRecognizer, error) {
	const op = "NewVisionRecognizer"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &VisionRecognizer{client: client}, nil
}

// NewVisionRecognizerWithClient creates a recognizer with an explicit
// client (for testing).
func NewVisionRecognizerWithClient(client *vision.ImageAnnotatorClient) *VisionRecognizer {
	return &VisionRecognizer{client: client}
}

// Recognize extracts text from one page image.
func (v *VisionRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	const op = "Recognize"

	f, err := os.Open(imagePath)
	if err != nil {
		return "", WrapOCRError(op, err, "failed to open page image")
	}
	defer f.Close()

	img, err := vision.NewImageFromReader(f)
	if err != nil {
		return "", WrapOCRError(op, err, "failed to read page image")
	}

	annotation, err := v.Detect(ctx, img)
	if err != nil {
		return "", WrapOCRError(op, ErrRecognitionFailed, "Vision API call failed: "+err.Error())
	}
	if annotation == nil {
		return "", nil
	}
	return annotation.GetText(), nil
}

// Detect calls the document text detection endpoint. Exposed for the
// benefit of callers that need the full annotation.
func (v *VisionRecognizer) Detect(ctx context.Context, img *visionpb.Image) (*visionpb.TextAnnotation, error) {
	return v.client.DetectDocumentText(ctx, img, nil)
}

// Close closes the underlying Vision client.
func (v *VisionRecognizer) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
