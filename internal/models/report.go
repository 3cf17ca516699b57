package models

import "time"

// ReportEntry is one checklist line: the rule, the value observed and whether it passed.
type ReportEntry struct {
	RuleID   string `json:"ruleId"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Expected string `json:"expected"`
	Passed   bool   `json:"passed"`
}

// Report is the ordered checklist evaluated for one assignment.
type Report struct {
	Type           AssignmentType `json:"type"`
	AssignmentID   int64          `json:"assignmentId"`
	AssignmentName string         `json:"assignmentName"`
	Entries        []ReportEntry  `json:"entries"`
}

// StatusVector returns pass/fail markers in catalog order.
func (r Report) StatusVector() []bool {
	out := make([]bool, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Passed
	}
	return out
}

// Compliant reports whether every rule passed.
func (r Report) Compliant() bool {
	for _, e := range r.Entries {
		if !e.Passed {
			return false
		}
	}
	return true
}

// Failing returns the ids of failing rules.
func (r Report) Failing() []string {
	var ids []string
	for _, e := range r.Entries {
		if !e.Passed {
			ids = append(ids, e.RuleID)
		}
	}
	return ids
}

// CourseHeader identifies the course a report belongs to.
type CourseHeader struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Code           string     `json:"code"`
	SISCourseID    string     `json:"sisCourseId,omitempty"`
	StartAt        *time.Time `json:"startAt,omitempty"`
	SubAccountID   *int64     `json:"subAccountId,omitempty"`
	SubAccountName string     `json:"subAccountName,omitempty"`
	URL            string     `json:"url,omitempty"`
}

// ItemError is a non-fatal failure keyed by course and, when known, assignment.
type ItemError struct {
	CourseID     int64  `json:"courseId"`
	AssignmentID int64  `json:"assignmentId,omitempty"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// CourseAudit groups the reports produced for one course, keyed by assignment type.
type CourseAudit struct {
	RunID   string                      `json:"runId"`
	Course  CourseHeader                `json:"course"`
	Reports map[AssignmentType][]Report `json:"reports"`
	Errors  []ItemError                 `json:"errors,omitempty"`
}

// ReportsInOrder flattens the per-type reports following AssignmentTypes.
func (a CourseAudit) ReportsInOrder() []Report {
	var out []Report
	for _, t := range AssignmentTypes {
		out = append(out, a.Reports[t]...)
	}
	return out
}

// CorrectionResult describes what a correction pass did to one assignment.
type CorrectionResult struct {
	Type           AssignmentType `json:"type"`
	AssignmentID   int64          `json:"assignmentId"`
	AssignmentName string         `json:"assignmentName"`
	Applied        bool           `json:"applied"`
	Actions        []string       `json:"actions,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	Failures       []ItemError    `json:"failures,omitempty"`
	Remaining      []string       `json:"remaining,omitempty"`
}

// CourseCorrection groups correction results for one course, keyed by assignment type.
type CourseCorrection struct {
	RunID    string                                `json:"runId"`
	CourseID int64                                 `json:"courseId"`
	Results  map[AssignmentType][]CorrectionResult `json:"results"`
	Errors   []ItemError                           `json:"errors,omitempty"`
}

// Applied reports whether any assignment in the course received a write.
func (c CourseCorrection) Applied() bool {
	for _, results := range c.Results {
		for _, r := range results {
			if r.Applied {
				return true
			}
		}
	}
	return false
}

// CourseSearchResult is one course matched by the sub-account search.
type CourseSearchResult struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	SubAccountID   int64  `json:"subAccountId"`
	SubAccountName string `json:"subAccountName"`
}

// ExportFormat enumerates the rendered report formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)
