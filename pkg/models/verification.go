package models

// VerificationRequest describes one document to verify. Exactly one of
// FilePath or URL must be set. Category is free text; it is trimmed and
// lower-cased before policy selection and defaults to "other".
type VerificationRequest struct {
	FilePath string
	URL      string
	Category string
}

// DetectedObject is one localized object kept by the marker scan.
type DetectedObject struct {
	// Name is the label returned by object localization (e.g. "Stamp").
	Name string `json:"name"`

	// Confidence is the localization score formatted as a percentage
	// with one decimal, e.g. "87.3%".
	Confidence string `json:"confidence"`

	// Bounds is the normalized bounding polygon of the object.
	Bounds []Vertex `json:"boundingPoly"`
}

// Vertex is one corner of a normalized bounding polygon.
type Vertex struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// MarkerEvidence is the outcome of marker detection for a request.
//
// Verified is a single shared flag: the keyword list includes the word
// "signature", so a match on it (or any stamp/seal keyword or object)
// satisfies both the stamp check and the signature check downstream.
// There is no independent signature detector.
//
// Keywords and Objects come from the first page on which detection
// succeeded only; they are never merged across pages. Once Verified is
// true it never reverts for the remainder of the run.
type MarkerEvidence struct {
	Verified bool
	Keywords []string
	Objects  []DetectedObject
}

// ParsedFields holds the identity fields heuristically extracted from
// OCR text. A nil pointer means the field was absent from the document;
// present values are trimmed and non-empty. At most one value is
// captured per field (first matching line in document order).
type ParsedFields struct {
	Name               *string
	Institution        *string
	DateOfIssue        *string
	RegistrationNumber *string
}

// MatchCount counts the fields policy rules care about: name, date of
// issue and registration number. Institution is excluded.
func (f ParsedFields) MatchCount() int {
	n := 0
	if f.Name != nil {
		n++
	}
	if f.DateOfIssue != nil {
		n++
	}
	if f.RegistrationNumber != nil {
		n++
	}
	return n
}

// VerificationStatus is the three-way classification outcome.
type VerificationStatus string

const (
	StatusVerified        VerificationStatus = "verified"
	StatusPartialVerified VerificationStatus = "partial_verified"
	StatusFailed          VerificationStatus = "failed"
)

// VerificationResult is the assembled outcome of one pipeline run.
// It is created fresh per request and immutable after assembly; the
// caller is responsible for persisting it.
type VerificationResult struct {
	// RawText is the trimmed concatenation of all page texts in
	// ascending page order, newline-separated.
	RawText string

	// Fields are the extracted identity fields. Absence stays nil
	// here; the "Not Found" sentinel is applied only at the HTTP
	// serialization boundary.
	Fields ParsedFields

	// StampDetected and SignatureDetected both derive from the single
	// shared MarkerEvidence.Verified flag. See MarkerEvidence.
	StampDetected     bool
	SignatureDetected bool

	Keywords []string
	Objects  []DetectedObject

	// Score is the additive confidence score, clamped to [0,100].
	Score int

	// Status and MissingFields come from the category classification;
	// Message comes from the binary authenticity screen. The two rules
	// are deliberately separate.
	Status        VerificationStatus
	MissingFields []string
	Message       string
}
