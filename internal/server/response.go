package server

import (
	"fmt"

	"docverify/pkg/models"
)

// Presentation sentinels. Internal representation keeps absence as nil
// pointers; these strings exist only in the wire format.
const (
	notFoundSentinel = "Not Found"
	detectedLabel    = "Detected ✅"
	notDetectedLabel = "Not Detected ❌"
)

// ExtractResponse is the explicit wire schema of POST /extract-text.
// The verify CLI emits the same shape.
type ExtractResponse struct {
	Raw           string                  `json:"raw"`
	Extracted     ExtractedFields         `json:"extracted"`
	Stamp         string                  `json:"stamp"`
	Signature     string                  `json:"signature"`
	Keywords      []string                `json:"keywords"`
	Objects       []models.DetectedObject `json:"objects"`
	Score         string                  `json:"score"`
	Result        string                  `json:"result"`
	Status        string                  `json:"status"`
	MissingFields []string                `json:"missingFields"`
	MatchCount    int                     `json:"match_count"`
}

type ExtractedFields struct {
	Name               string `json:"name"`
	Institution        string `json:"institution"`
	DateOfIssue        string `json:"dateOfIssue"`
	RegistrationNumber string `json:"registrationNumber"`
}

// ToResponse converts an internal result into the wire schema.
func ToResponse(result *models.VerificationResult) ExtractResponse {
	return ExtractResponse{
		Raw: result.RawText,
		Extracted: ExtractedFields{
			Name:               orSentinel(result.Fields.Name),
			Institution:        orSentinel(result.Fields.Institution),
			DateOfIssue:        orSentinel(result.Fields.DateOfIssue),
			RegistrationNumber: orSentinel(result.Fields.RegistrationNumber),
		},
		Stamp:         detectionLabel(result.StampDetected),
		Signature:     detectionLabel(result.SignatureDetected),
		Keywords:      orEmpty(result.Keywords),
		Objects:       orEmptyObjects(result.Objects),
		Score:         fmt.Sprintf("%d%%", result.Score),
		Result:        result.Message,
		Status:        string(result.Status),
		MissingFields: orEmpty(result.MissingFields),
		MatchCount:    result.Fields.MatchCount(),
	}
}

func orSentinel(v *string) string {
	if v == nil {
		return notFoundSentinel
	}
	return *v
}

func detectionLabel(detected bool) string {
	if detected {
		return detectedLabel
	}
	return notDetectedLabel
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func orEmptyObjects(objects []models.DetectedObject) []models.DetectedObject {
	if objects == nil {
		return []models.DetectedObject{}
	}
	return objects
}
