// Package policy holds the category decision rules and the confidence
// score for verified documents.
//
// Two independent decision functions operate on the same evidence:
// Classify produces the three-way verified/partial_verified/failed
// status used by the verification flow, and Screen produces the binary
// authenticity screen used by the raw extraction endpoint. The two
// rules are historically inconsistent and are kept separate on
// purpose; callers choose deliberately.
package policy

import (
	"strings"

	"docverify/pkg/models"
)

// DefaultCategory is assigned when a request carries no category or an
// unrecognized one.
const DefaultCategory = "other"

// sealOnly categories are verified purely on stamp and signature
// evidence.
var sealOnly = map[string]bool{
	"degree":      true,
	"certificate": true,
}

// officialRecord categories need stamp and signature evidence plus
// extracted identity fields.
var officialRecord = map[string]bool{
	"transcript":           true,
	"birth_certificate":    true,
	"marriage_certificate": true,
	"tax_document":         true,
	"medical_record":       true,
	"insurance_document":   true,
}

// simple categories are classified on extracted fields alone.
var simple = map[string]bool{
	"cv_resume":      true,
	"id_card":        true,
	"license":        true,
	"reference":      true,
	"work_sample":    true,
	"passport":       true,
	"bank_statement": true,
	DefaultCategory:  true,
}

// Evidence carries the marker signals a decision needs. Stamp and
// Signature are distinct inputs here even though the detector feeds
// both from one shared flag; see models.MarkerEvidence.
type Evidence struct {
	Stamp        bool
	Signature    bool
	KeywordFound bool
	ObjectFound  bool
}

// Decision is the outcome of Classify.
type Decision struct {
	Status        models.VerificationStatus
	MissingFields []string
}

// Screening is the outcome of Screen.
type Screening struct {
	Fake    bool
	Message string
}

// Normalize trims and lower-cases a category, mapping unknown values
// to the default.
func Normalize(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return DefaultCategory
	}
	if !sealOnly[c] && !officialRecord[c] && !simple[c] {
		return DefaultCategory
	}
	return c
}

// IsStrict reports whether a category demands stamp and signature
// evidence for a clean screen.
func IsStrict(category string) bool {
	c := Normalize(category)
	return sealOnly[c] || officialRecord[c]
}

// Classify applies the category rule-set to the extracted fields and
// marker evidence.
func Classify(category string, f models.ParsedFields, ev Evidence) Decision {
	c := Normalize(category)
	d := Decision{MissingFields: missingFields(c, f, ev)}

	switch {
	case sealOnly[c]:
		switch {
		case ev.Stamp && ev.Signature:
			d.Status = models.StatusVerified
		case ev.Stamp || ev.Signature:
			d.Status = models.StatusPartialVerified
		default:
			d.Status = models.StatusFailed
		}

	case officialRecord[c]:
		matches := f.MatchCount()
		switch {
		case ev.Stamp && ev.Signature && matches == 3:
			d.Status = models.StatusVerified
		case ev.Stamp && ev.Signature && matches >= 1:
			d.Status = models.StatusPartialVerified
		default:
			d.Status = models.StatusFailed
		}

	default:
		matches := f.MatchCount()
		switch {
		case matches >= 2:
			d.Status = models.StatusVerified
		case matches >= 1:
			d.Status = models.StatusPartialVerified
		default:
			d.Status = models.StatusFailed
		}
	}

	return d
}

// Screen applies the coarse binary authenticity rule. Strict
// categories fail on any missing field or missing stamp/signature
// evidence; other categories tolerate up to two missing text fields.
func Screen(category string, f models.ParsedFields, ev Evidence) Screening {
	c := Normalize(category)
	missingText := missingTextFields(f)

	if IsStrict(c) {
		missing := append([]string{}, missingText...)
		if !ev.Stamp {
			missing = append(missing, "stamp")
		}
		if !ev.Signature {
			missing = append(missing, "signature")
		}
		if len(missing) > 0 {
			return Screening{
				Fake:    true,
				Message: "Not Verified: missing " + strings.Join(missing, ", "),
			}
		}
		return Screening{Message: "Verified: All checks passed"}
	}

	if len(missingText) > 2 {
		return Screening{
			Fake:    true,
			Message: "Not Verified: missing " + strings.Join(missingText, ", "),
		}
	}
	return Screening{Message: "Verified: Basic checks passed"}
}

// missingTextFields lists the absent text fields in a fixed order.
func missingTextFields(f models.ParsedFields) []string {
	var missing []string
	if f.Name == nil {
		missing = append(missing, "name")
	}
	if f.Institution == nil {
		missing = append(missing, "institution")
	}
	if f.DateOfIssue == nil {
		missing = append(missing, "dateOfIssue")
	}
	if f.RegistrationNumber == nil {
		missing = append(missing, "registrationNumber")
	}
	return missing
}

// missingFields is the diagnostic list attached to a Decision: absent
// text fields, plus stamp/signature for categories that require them.
func missingFields(category string, f models.ParsedFields, ev Evidence) []string {
	missing := missingTextFields(f)
	if IsStrict(category) {
		if !ev.Stamp {
			missing = append(missing, "stamp")
		}
		if !ev.Signature {
			missing = append(missing, "signature")
		}
	}
	return missing
}
