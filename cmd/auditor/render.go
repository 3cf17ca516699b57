package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/noah-isme/lms-auditor/internal/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8F98"))
	passStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2EA043"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DA3633"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

const (
	passMark = "✓"
	failMark = "✗"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mark(passed bool) string {
	if passed {
		return passStyle.Render(passMark)
	}
	return failStyle.Render(failMark)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func courseTitle(course models.CourseHeader) string {
	name := course.Name
	if name == "" {
		name = "Course " + strconv.FormatInt(course.ID, 10)
	}
	parts := []string{titleStyle.Render(fmt.Sprintf("%s (%d)", name, course.ID))}
	var details []string
	if course.Code != "" {
		details = append(details, course.Code)
	}
	if course.SISCourseID != "" {
		details = append(details, "SIS "+course.SISCourseID)
	}
	if course.StartAt != nil {
		details = append(details, "starts "+course.StartAt.Format("2006-01-02"))
	}
	if course.SubAccountName != "" {
		details = append(details, course.SubAccountName)
	}
	if len(details) > 0 {
		parts = append(parts, mutedStyle.Render(strings.Join(details, " · ")))
	}
	if course.URL != "" {
		parts = append(parts, mutedStyle.Render(course.URL))
	}
	return strings.Join(parts, "\n")
}

func renderItemErrors(errs []models.ItemError) []string {
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		target := "course"
		if e.AssignmentID != 0 {
			target = "assignment " + strconv.FormatInt(e.AssignmentID, 10)
		}
		lines = append(lines, failStyle.Render(fmt.Sprintf("%s %s: [%s] %s", failMark, target, e.Code, e.Message)))
	}
	return lines
}

func renderAudit(audit models.CourseAudit) string {
	sections := []string{courseTitle(audit.Course)}
	for _, report := range audit.ReportsInOrder() {
		t := newTable("", "Rule", "Value", "Expected")
		for _, entry := range report.Entries {
			t.Row(mark(entry.Passed), entry.Label, entry.Value, entry.Expected)
		}
		heading := fmt.Sprintf("%s · %s (%d)", report.Type.Label(), report.AssignmentName, report.AssignmentID)
		if report.Compliant() {
			heading = passStyle.Render(passMark) + " " + heading
		} else {
			heading = failStyle.Render(failMark) + " " + heading
		}
		sections = append(sections, heading+"\n"+t.Render())
	}
	if len(audit.Reports) == 0 && len(audit.Errors) == 0 {
		sections = append(sections, mutedStyle.Render("no audited assignments"))
	}
	sections = append(sections, renderItemErrors(audit.Errors)...)
	return strings.Join(sections, "\n")
}

func renderCorrection(correction models.CourseCorrection) string {
	sections := []string{titleStyle.Render(fmt.Sprintf("Course %d", correction.CourseID))}
	if correction.RunID != "" {
		sections = append(sections, mutedStyle.Render("run "+correction.RunID))
	}
	t := newTable("Type", "Assignment", "Actions", "Remaining")
	rows := 0
	var notes []string
	for _, kind := range models.AssignmentTypes {
		for _, result := range correction.Results[kind] {
			actions := mutedStyle.Render("none")
			if len(result.Actions) > 0 {
				actions = strings.Join(result.Actions, "\n")
			}
			remaining := passStyle.Render(passMark)
			if len(result.Remaining) > 0 {
				remaining = failStyle.Render(strings.Join(result.Remaining, ", "))
			}
			t.Row(kind.Label(), fmt.Sprintf("%s (%d)", result.AssignmentName, result.AssignmentID), actions, remaining)
			rows++
			for _, w := range result.Warnings {
				notes = append(notes, warnStyle.Render(fmt.Sprintf("! %s: %s", result.AssignmentName, w)))
			}
			notes = append(notes, renderItemErrors(result.Failures)...)
		}
	}
	if rows > 0 {
		sections = append(sections, t.Render())
	} else if len(correction.Errors) == 0 {
		sections = append(sections, mutedStyle.Render("no audited assignments"))
	}
	sections = append(sections, notes...)
	sections = append(sections, renderItemErrors(correction.Errors)...)
	return strings.Join(sections, "\n")
}

func renderSearch(term string, results []models.CourseSearchResult, cacheHit bool) string {
	heading := titleStyle.Render(fmt.Sprintf("%d course(s) matching %q", len(results), term))
	if cacheHit {
		heading += " " + mutedStyle.Render("(cached)")
	}
	if len(results) == 0 {
		return heading
	}
	t := newTable("ID", "Course", "Sub-account")
	for _, r := range results {
		t.Row(strconv.FormatInt(r.ID, 10), r.Name, r.SubAccountName)
	}
	return heading + "\n" + t.Render()
}
