package dto

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/noah-isme/lms-auditor/internal/models"
)

// AuditRequest captures POST /audits and POST /corrections payloads. Either field may carry
// the course ids; RawCourseIDs accepts free text pasted by operators.
type AuditRequest struct {
	CourseIDs    []int64 `json:"courseIds" validate:"omitempty,dive,gt=0"`
	RawCourseIDs string  `json:"rawCourseIds"`
}

// Resolve merges both inputs into one de-duplicated list preserving order.
func (r AuditRequest) Resolve() []int64 {
	ids := append([]int64(nil), r.CourseIDs...)
	ids = append(ids, ParseCourseIDs(r.RawCourseIDs)...)
	return dedupe(ids)
}

// SearchQuery captures GET /courses/search parameters.
type SearchQuery struct {
	AccountID int64  `form:"accountId" validate:"required,gt=0"`
	Term      string `form:"q" validate:"required,max=200"`
	Refresh   bool   `form:"refresh"`
}

// CourseAuditsResponse is returned by POST /audits.
type CourseAuditsResponse struct {
	Audits []models.CourseAudit `json:"audits"`
}

// CourseCorrectionsResponse is returned by POST /corrections.
type CourseCorrectionsResponse struct {
	Corrections []models.CourseCorrection `json:"corrections"`
	Audits      []models.CourseAudit      `json:"audits,omitempty"`
}

// CourseSearchResponse is returned by GET /courses/search.
type CourseSearchResponse struct {
	AccountID int64                       `json:"accountId"`
	Term      string                      `json:"term"`
	Courses   []models.CourseSearchResult `json:"courses"`
}

var courseIDSeparators = regexp.MustCompile(`[,\s]+`)

// ParseCourseIDs splits free text on commas, whitespace and newlines and keeps the tokens
// made only of digits, de-duplicated in first-seen order.
func ParseCourseIDs(raw string) []int64 {
	var ids []int64
	for _, token := range courseIDSeparators.Split(strings.TrimSpace(raw), -1) {
		if token == "" || strings.TrimLeft(token, "0123456789") != "" {
			continue
		}
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return dedupe(ids)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
