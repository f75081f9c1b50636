package httpapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubmission(t *testing.T) {
	tests := []struct {
		name     string
		sub      submission
		wantCode string
	}{
		{"missing text", submission{Text: "   "}, "MISSING_TEXT"},
		{"too short", submission{Text: "too short"}, "TEXT_TOO_SHORT"},
		{"too long", submission{Text: strings.Repeat("a", maxTextLength+1)}, "TEXT_TOO_LONG"},
		{"script tag", submission{Text: "nice app <script>alert(1)</script> indeed"}, "SUSPICIOUS_CONTENT"},
		{"iframe tag", submission{Text: "look at this <iframe src='http://evil'></iframe>"}, "SUSPICIOUS_CONTENT"},
		{"javascript url", submission{Text: "click javascript:alert(1) to see the issue"}, "SUSPICIOUS_CONTENT"},
		{"data url", submission{Text: "embedded data:text/html;base64,PGh0bWw+ payload"}, "SUSPICIOUS_CONTENT"},
		{"unknown category", submission{Text: "long enough feedback text", Category: "complaints"}, "INVALID_CATEGORY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := validateSubmission(tt.sub)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantCode, verr.Code)
		})
	}
}

func TestValidateSubmissionAccepts(t *testing.T) {
	text, category, err := validateSubmission(submission{
		Text:     "  The support team resolved my issue quickly.  ",
		Category: " Support ",
	})
	require.NoError(t, err)
	assert.Equal(t, "The support team resolved my issue quickly.", text)
	assert.Equal(t, "support", category)
}

func TestValidateSubmissionDefaultsCategory(t *testing.T) {
	_, category, err := validateSubmission(submission{Text: "plenty of feedback text here"})
	require.NoError(t, err)
	assert.Equal(t, "general", category)
}

func TestValidateSubmissionAllowsPlainAngleBrackets(t *testing.T) {
	_, _, err := validateSubmission(submission{Text: "response time < 2s would be great, > 5s is too slow"})
	assert.NoError(t, err)
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name                    string
		page, perPage, category string
		wantPage, wantPerPage   int
		wantCategory            string
	}{
		{"defaults", "", "", "", 1, defaultPerPage, ""},
		{"explicit", "3", "25", "billing", 3, 25, "billing"},
		{"per page clamped high", "1", "500", "", 1, maxPerPage, ""},
		{"per page clamped low", "1", "0", "", 1, 1, ""},
		{"bad page ignored", "zero", "10", "", 1, 10, ""},
		{"negative page ignored", "-2", "10", "", 1, 10, ""},
		{"unknown category dropped", "1", "10", "nonsense", 1, 10, ""},
		{"category normalized", "1", "10", " Product ", 1, 10, "product"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := parseListQuery(tt.page, tt.perPage, tt.category)
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantPerPage, q.PerPage)
			assert.Equal(t, tt.wantCategory, q.Category)
		})
	}
}
