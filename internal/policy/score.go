package policy

import "docverify/pkg/models"

// Score weights. Additive and independent of the classification
// outcome; the stamp/signature bonuses only apply to strict categories.
const (
	scoreName        = 30
	scoreInstitution = 25
	scoreDateOfIssue = 15
	scoreRegNumber   = 15
	scoreStamp       = 10
	scoreSignature   = 10
	scoreKeyword     = 5
	scoreObject      = 5
)

// Score computes the 0-100 confidence score for a document.
func Score(category string, f models.ParsedFields, ev Evidence) int {
	strict := IsStrict(category)

	total := 0
	if f.Name != nil {
		total += scoreName
	}
	if f.Institution != nil {
		total += scoreInstitution
	}
	if f.DateOfIssue != nil {
		total += scoreDateOfIssue
	}
	if f.RegistrationNumber != nil {
		total += scoreRegNumber
	}
	if ev.Stamp && strict {
		total += scoreStamp
	}
	if ev.Signature && strict {
		total += scoreSignature
	}
	if ev.KeywordFound {
		total += scoreKeyword
	}
	if ev.ObjectFound {
		total += scoreObject
	}

	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return total
}
