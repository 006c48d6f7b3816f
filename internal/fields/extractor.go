// Package fields heuristically extracts identity fields from OCR text.
//
// The extractor is deliberately a layer of ordered, independent line
// rules rather than any kind of language model: each rule is a small
// pattern that can be unit-tested against literal line inputs. OCR
// noise characters are stripped from every line before any pattern
// runs, and for each field the first matching line in document order
// wins. Fields are independently optional; absence is a nil pointer,
// never an empty string.
package fields

import (
	"regexp"
	"strings"

	"docverify/pkg/models"
)

// noiseChars are OCR artifacts stripped from every line before pattern
// matching.
const noiseChars = "©®@°+"

var (
	nameRe          = regexp.MustCompile(`(?i)^(full\s*)?name\s*[:\-]`)
	candidateNameRe = regexp.MustCompile(`(?i)candidate\s*name`)

	institutionRe = regexp.MustCompile(`(?i)\b(institution|university|college|school|institute)\s*[:\-]`)

	// Institution fallback only looks at the top of the document.
	institutionFallbackWords = []string{"university", "institute", "college", "school", "academy"}
	institutionFallbackLines = 5

	dateContextRe = regexp.MustCompile(`(?i)date\s*of\s*issue|issued\s*on`)
	datePatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4}`),
		regexp.MustCompile(`\b\d{2}[-/]\d{2}[-/]\d{4}\b`),
		regexp.MustCompile(`\b\d{4}[-/]\d{2}[-/]\d{2}\b`),
	}

	regNumberRe = regexp.MustCompile(`(?i)registration\s*number|reg\.?\s*no|enrollment|roll\s*no`)
)

// Extract runs every field rule over the full concatenated OCR text.
// All four fields are attempted on each line independently; extraction
// never stops early across fields.
func Extract(text string) models.ParsedFields {
	lines := CleanLines(text)

	var f models.ParsedFields
	for _, line := range lines {
		if f.Name == nil {
			f.Name = ExtractName(line)
		}
		if f.Institution == nil {
			f.Institution = ExtractInstitution(line)
		}
		if f.DateOfIssue == nil {
			f.DateOfIssue = ExtractDateOfIssue(line)
		}
		if f.RegistrationNumber == nil {
			f.RegistrationNumber = ExtractRegistrationNumber(line)
		}
	}

	if f.Name == nil {
		f.Name = nameFallback(lines)
	}
	if f.Institution == nil {
		f.Institution = institutionFallback(lines)
	}

	return f
}

// CleanLines splits text into trimmed, non-empty lines with OCR noise
// characters removed, preserving order.
func CleanLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(stripNoise(line))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func stripNoise(line string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(noiseChars, r) {
			return -1
		}
		return r
	}, line)
}

// ExtractName matches lines of the form "Name: ..." or "Full Name - ...".
func ExtractName(line string) *string {
	if !nameRe.MatchString(line) {
		return nil
	}
	return optional(afterSeparator(line))
}

// nameFallback takes the first line mentioning "candidate name",
// applying the same after-separator rule.
func nameFallback(lines []string) *string {
	for _, line := range lines {
		if candidateNameRe.MatchString(line) {
			return optional(afterSeparator(line))
		}
	}
	return nil
}

// ExtractInstitution matches an institution keyword immediately
// followed by a separator. When the text after the separator is empty
// the whole line is taken instead.
func ExtractInstitution(line string) *string {
	if !institutionRe.MatchString(line) {
		return nil
	}
	if v := optional(afterSeparator(line)); v != nil {
		return v
	}
	return optional(line)
}

// institutionFallback scans only the first few lines for an
// institution word anywhere in the line and takes the whole line.
func institutionFallback(lines []string) *string {
	limit := len(lines)
	if limit > institutionFallbackLines {
		limit = institutionFallbackLines
	}
	for _, line := range lines[:limit] {
		lower := strings.ToLower(line)
		for _, word := range institutionFallbackWords {
			if strings.Contains(lower, word) {
				return optional(line)
			}
		}
	}
	return nil
}

// ExtractDateOfIssue only considers lines that mention an issue date;
// dates elsewhere in the document are ignored. The first substring
// matching a known date shape wins.
func ExtractDateOfIssue(line string) *string {
	if !dateContextRe.MatchString(line) {
		return nil
	}
	for _, re := range datePatterns {
		if m := re.FindString(line); m != "" {
			return optional(m)
		}
	}
	return nil
}

// ExtractRegistrationNumber matches registration/enrollment lines. The
// value is the text after the first separator, or the whole line when
// no separator is present.
func ExtractRegistrationNumber(line string) *string {
	if !regNumberRe.MatchString(line) {
		return nil
	}
	if strings.IndexAny(line, ":-") >= 0 {
		return optional(afterSeparator(line))
	}
	return optional(line)
}

// afterSeparator returns the trimmed text after the first ':' or '-'.
func afterSeparator(line string) string {
	idx := strings.IndexAny(line, ":-")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
