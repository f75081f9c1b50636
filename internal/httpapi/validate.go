package httpapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/ports"
)

const (
	minTextLength = 10
	maxTextLength = 5000

	defaultPerPage = 10
	maxPerPage     = 100
)

// ValidationError rejects a submission before it reaches the pipeline.
type ValidationError struct {
	Message string
	Field   string
	Code    string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// submission is the POST /feedback request body.
type submission struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// validateSubmission cleans and checks the request body, returning the
// accepted text and category.
func validateSubmission(sub submission) (string, string, error) {
	text := strings.TrimSpace(sub.Text)
	if text == "" {
		return "", "", &ValidationError{Message: "Feedback text is required", Field: "text", Code: "MISSING_TEXT"}
	}
	if len(text) < minTextLength {
		return "", "", &ValidationError{
			Message: fmt.Sprintf("Feedback text must be at least %d characters", minTextLength),
			Field:   "text",
			Code:    "TEXT_TOO_SHORT",
		}
	}
	if len(text) > maxTextLength {
		return "", "", &ValidationError{
			Message: fmt.Sprintf("Feedback text must not exceed %d characters", maxTextLength),
			Field:   "text",
			Code:    "TEXT_TOO_LONG",
		}
	}
	if containsSuspiciousMarkup(text) {
		return "", "", &ValidationError{Message: "Feedback contains inappropriate content", Field: "text", Code: "SUSPICIOUS_CONTENT"}
	}

	category := strings.ToLower(strings.TrimSpace(sub.Category))
	if category == "" {
		category = "general"
	}
	if !domain.ValidCategory(category) {
		return "", "", &ValidationError{
			Message: fmt.Sprintf("Category must be one of: %s", strings.Join(domain.Categories, ", ")),
			Field:   "category",
			Code:    "INVALID_CATEGORY",
		}
	}

	return text, category, nil
}

// containsSuspiciousMarkup parses the text as HTML and rejects it when
// active elements or script-carrying URLs are embedded. Plain angle
// brackets in ordinary prose pass through.
func containsSuspiciousMarkup(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "javascript:") {
		return true
	}
	if strings.Contains(lower, "data:") && strings.Contains(lower, "base64") {
		return true
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		// Unparseable input is suspicious by itself.
		return true
	}
	return doc.Find("script, iframe, object, embed").Length() > 0
}

// parseListQuery normalizes pagination and the optional category filter.
// Bad values fall back to defaults; an unknown category filter is ignored.
func parseListQuery(page, perPage, category string) ports.ListQuery {
	q := ports.ListQuery{Page: 1, PerPage: defaultPerPage}

	if n, err := strconv.Atoi(page); err == nil && n >= 1 {
		q.Page = n
	}

	if n, err := strconv.Atoi(perPage); err == nil {
		if n < 1 {
			n = 1
		}
		if n > maxPerPage {
			n = maxPerPage
		}
		q.PerPage = n
	}

	category = strings.ToLower(strings.TrimSpace(category))
	if domain.ValidCategory(category) {
		q.Category = category
	}

	return q
}

// validID is the basic shape check applied to path identifiers.
func validID(id string) bool {
	return len(id) == 36
}
