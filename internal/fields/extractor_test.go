package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strValue(t *testing.T, v *string) string {
	t.Helper()
	require.NotNil(t, v)
	return *v
}

func TestCleanLines(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "trims and drops empty lines",
			text:     "  first \n\n\n second\n",
			expected: []string{"first", "second"},
		},
		{
			name:     "strips noise characters",
			text:     "©Name: Jane®\n@°+",
			expected: []string{"Name: Jane"},
		},
		{
			name:     "empty input",
			text:     "   \n \n",
			expected: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanLines(tc.text))
		})
	}
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
		absent   bool
	}{
		{name: "colon separator", line: "Name: Jane Doe", expected: "Jane Doe"},
		{name: "dash separator", line: "Name- John Smith", expected: "John Smith"},
		{name: "full name prefix", line: "Full Name: Alice Example", expected: "Alice Example"},
		{name: "case insensitive", line: "NAME: BOB", expected: "BOB"},
		{name: "name mid line does not match", line: "The name: something", absent: true},
		{name: "no separator", line: "Name Jane Doe", absent: true},
		{name: "empty value", line: "Name:", absent: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractName(tc.line)
			if tc.absent {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tc.expected, strValue(t, got))
		})
	}
}

func TestExtractInstitution(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
		absent   bool
	}{
		{name: "university with colon", line: "University: Example State University", expected: "Example State University"},
		{name: "institute with dash", line: "Institute- Tech Institute", expected: "Tech Institute"},
		{name: "keyword without separator", line: "Example University of Things", absent: true},
		{name: "empty after separator falls back to whole line", line: "College:", expected: "College:"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractInstitution(tc.line)
			if tc.absent {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tc.expected, strValue(t, got))
		})
	}
}

func TestExtractDateOfIssue(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
		absent   bool
	}{
		{name: "full month name", line: "Date of Issue: March 5, 2021", expected: "March 5, 2021"},
		{name: "issued on variant", line: "Issued on 12-05-2020", expected: "12-05-2020"},
		{name: "slash day first", line: "Date of issue 12/05/2020", expected: "12/05/2020"},
		{name: "iso date", line: "date of issue: 2020-05-12", expected: "2020-05-12"},
		{name: "iso with slashes", line: "Issued On: 2020/05/12", expected: "2020/05/12"},
		{name: "date without qualifying phrase", line: "Graduation: March 5, 2021", absent: true},
		{name: "qualifying line without date", line: "Date of issue: unknown", absent: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractDateOfIssue(tc.line)
			if tc.absent {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tc.expected, strValue(t, got))
		})
	}
}

func TestExtractRegistrationNumber(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
		absent   bool
	}{
		{name: "registration number colon", line: "Registration Number: REG-2021-001", expected: "REG-2021-001"},
		{name: "reg dot no", line: "Reg. No: 12345", expected: "12345"},
		{name: "reg no dash", line: "Reg No- 678", expected: "678"},
		{name: "enrollment", line: "Enrollment: EN99", expected: "EN99"},
		{name: "roll no without separator keeps whole line", line: "Roll No 42", expected: "Roll No 42"},
		{name: "unrelated line", line: "Grade: A", absent: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractRegistrationNumber(tc.line)
			if tc.absent {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tc.expected, strValue(t, got))
		})
	}
}

func TestExtract(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		f := Extract("Name: Jane Doe")
		assert.Equal(t, "Jane Doe", strValue(t, f.Name))
	})

	t.Run("empty text yields all absent", func(t *testing.T) {
		f := Extract("   \n\n  ")
		assert.Nil(t, f.Name)
		assert.Nil(t, f.Institution)
		assert.Nil(t, f.DateOfIssue)
		assert.Nil(t, f.RegistrationNumber)
	})

	t.Run("first matching line wins per field", func(t *testing.T) {
		f := Extract("Name: First\nName: Second\nReg No: A\nReg No: B")
		assert.Equal(t, "First", strValue(t, f.Name))
		assert.Equal(t, "A", strValue(t, f.RegistrationNumber))
	})

	t.Run("candidate name fallback", func(t *testing.T) {
		f := Extract("Certificate of Completion\nCandidate Name: Carol Ng")
		assert.Equal(t, "Carol Ng", strValue(t, f.Name))
	})

	t.Run("institution fallback within first five lines", func(t *testing.T) {
		f := Extract("Certificate\nExample State University\nsomething\nLine\nLine")
		assert.Equal(t, "Example State University", strValue(t, f.Institution))
	})

	t.Run("institution fallback ignores later lines", func(t *testing.T) {
		f := Extract("a\nb\nc\nd\ne\nExample State University")
		assert.Nil(t, f.Institution)
	})

	t.Run("noise characters stripped before matching", func(t *testing.T) {
		f := Extract("©Name: Jane Doe®")
		assert.Equal(t, "Jane Doe", strValue(t, f.Name))
	})

	t.Run("full document", func(t *testing.T) {
		text := "Example State University\n" +
			"Full Name: Jane Doe\n" +
			"Date of Issue: June 12, 2022\n" +
			"Registration Number: REG-2022-17\n"
		f := Extract(text)
		assert.Equal(t, "Jane Doe", strValue(t, f.Name))
		assert.Equal(t, "Example State University", strValue(t, f.Institution))
		assert.Equal(t, "June 12, 2022", strValue(t, f.DateOfIssue))
		assert.Equal(t, "REG-2022-17", strValue(t, f.RegistrationNumber))
		assert.Equal(t, 3, f.MatchCount())
	})
}
