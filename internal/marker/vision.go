package marker

import (
	"context"
	"os"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"docverify/pkg/models"
)

// VisionAnnotator implements Annotator using the Google Cloud Vision
// API. One client is created at process start and shared across
// requests.
type VisionAnnotator struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionAnnotator creates an annotator with credentials from the
// environment. It checks GOOGLE_CREDENTIALS (inline JSON) first, then
// GOOGLE_APPLICATION_CREDENTIALS (file path), then falls back to
// application default credentials.
func NewVisionAnnotator(ctx context.Context) (*VisionAnnotator, error) {
	const op = "NewVisionAnnotator"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapMarkerError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapMarkerError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapMarkerError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &VisionAnnotator{client: client}, nil
}

// NewVisionAnnotatorWithClient creates an annotator with an explicit
// client (for testing).
func NewVisionAnnotatorWithClient(client *vision.ImageAnnotatorClient) *VisionAnnotator {
	return &VisionAnnotator{client: client}
}

// DetectText returns the full text detected on the page image. An
// image with no text yields an empty string, not an error.
func (v *VisionAnnotator) DetectText(ctx context.Context, imagePath string) (string, error) {
	const op = "DetectText"

	img, closeFn, err := openImage(imagePath)
	if err != nil {
		return "", WrapMarkerError(op, err, "failed to open page image")
	}
	defer closeFn()

	annotations, err := v.client.DetectTexts(ctx, img, nil, 10)
	if err != nil {
		return "", WrapMarkerError(op, ErrDetectionFailed, "Vision text detection call failed: "+err.Error())
	}
	if len(annotations) == 0 {
		return "", nil
	}

	// The first annotation carries the full page text; the rest are
	// per-word fragments.
	return annotations[0].GetDescription(), nil
}

// LocalizeObjects returns every object localized on the page image.
func (v *VisionAnnotator) LocalizeObjects(ctx context.Context, imagePath string) ([]Object, error) {
	const op = "LocalizeObjects"

	img, closeFn, err := openImage(imagePath)
	if err != nil {
		return nil, WrapMarkerError(op, err, "failed to open page image")
	}
	defer closeFn()

	annotations, err := v.client.LocalizeObjects(ctx, img, nil)
	if err != nil {
		return nil, WrapMarkerError(op, ErrDetectionFailed, "Vision object localization call failed: "+err.Error())
	}

	objects := make([]Object, 0, len(annotations))
	for _, ann := range annotations {
		obj := Object{
			Name:  ann.GetName(),
			Score: ann.GetScore(),
		}
		for _, vertex := range ann.GetBoundingPoly().GetNormalizedVertices() {
			obj.Bounds = append(obj.Bounds, models.Vertex{X: vertex.GetX(), Y: vertex.GetY()})
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// Close closes the underlying Vision client.
func (v *VisionAnnotator) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

func openImage(imagePath string) (*visionpb.Image, func(), error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, nil, err
	}
	img, err := vision.NewImageFromReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return img, func() { f.Close() }, nil
}
