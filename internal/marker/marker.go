// Package marker detects physical authenticity markers (stamps, seals,
// signatures) on a document page image.
//
// Two independent sub-checks run against each page: a keyword scan over
// the page's detected text and an object-localization scan. A failure
// in either sub-check (API error) is logged and treated as "not found"
// for that sub-check only; it is never fatal to the page or the
// request.
package marker

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"docverify/internal/logger"
	"docverify/pkg/models"
)

// keywordPatterns is the fixed, ordered list of case-insensitive
// authenticity phrases. For each pattern the first literal substring
// matched on the page is recorded.
var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)official\s*seal`),
	regexp.MustCompile(`(?i)stamp(\s*(no|number))?`),
	regexp.MustCompile(`(?i)certified`),
	regexp.MustCompile(`(?i)registrar`),
	regexp.MustCompile(`(?i)embossed`),
	regexp.MustCompile(`(?i)signature`),
	regexp.MustCompile(`(?i)authority`),
}

// objectNames filter localized objects by case-insensitive substring.
var objectNames = []string{"stamp", "seal", "logo", "emblem"}

// Object is a raw localized object as returned by the annotator.
type Object struct {
	Name   string
	Score  float32
	Bounds []models.Vertex
}

// Annotator is the cloud capability the detector consumes: full-text
// detection for the keyword scan and object localization for the
// object scan.
type Annotator interface {
	DetectText(ctx context.Context, imagePath string) (string, error)
	LocalizeObjects(ctx context.Context, imagePath string) ([]Object, error)
}

// Detector runs both marker sub-checks against single page images.
type Detector struct {
	annotator Annotator
	log       zerolog.Logger
}

// New creates a Detector backed by the given annotator.
func New(annotator Annotator) *Detector {
	return &Detector{
		annotator: annotator,
		log:       logger.WithComponent("marker"),
	}
}

// DetectPage runs the keyword and object sub-checks against one page
// image. Evidence comes from this page only; the caller enforces the
// first-page-wins rule across pages.
func (d *Detector) DetectPage(ctx context.Context, imagePath string) models.MarkerEvidence {
	keywords := d.scanKeywords(ctx, imagePath)
	objects := d.scanObjects(ctx, imagePath)

	return models.MarkerEvidence{
		Verified: len(keywords) > 0 || len(objects) > 0,
		Keywords: keywords,
		Objects:  objects,
	}
}

func (d *Detector) scanKeywords(ctx context.Context, imagePath string) []string {
	text, err := d.annotator.DetectText(ctx, imagePath)
	if err != nil {
		d.log.Warn().
			Err(err).
			Str("image", imagePath).
			Msg("Text detection failed, treating keyword scan as not found")
		return nil
	}

	var found []string
	for _, re := range keywordPatterns {
		if m := re.FindString(text); m != "" {
			found = append(found, m)
		}
	}
	return found
}

func (d *Detector) scanObjects(ctx context.Context, imagePath string) []models.DetectedObject {
	objects, err := d.annotator.LocalizeObjects(ctx, imagePath)
	if err != nil {
		d.log.Warn().
			Err(err).
			Str("image", imagePath).
			Msg("Object localization failed, treating object scan as not found")
		return nil
	}

	var matched []models.DetectedObject
	for _, obj := range objects {
		if !matchesObjectName(obj.Name) {
			continue
		}
		matched = append(matched, models.DetectedObject{
			Name:       obj.Name,
			Confidence: fmt.Sprintf("%.1f%%", obj.Score*100),
			Bounds:     obj.Bounds,
		})
	}
	return matched
}

func matchesObjectName(name string) bool {
	lower := strings.ToLower(name)
	for _, want := range objectNames {
		if strings.Contains(lower, want) {
			return true
		}
	}
	return false
}
