package service

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-auditor/internal/models"
	appErrors "github.com/noah-isme/lms-auditor/pkg/errors"
	"github.com/noah-isme/lms-auditor/pkg/export"
)

// Export columns in rendering order.
const (
	colType       = "Type"
	colAssignment = "Assignment"
	colRule       = "Rule"
	colValue      = "Value"
	colExpected   = "Expected"
	colStatus     = "Status"
)

var exportHeaders = []string{colType, colAssignment, colRule, colValue, colExpected, colStatus}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// RenderedExport is an audit report rendered into a downloadable file.
type RenderedExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders course audits as CSV or PDF tables.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers use the package defaults.
func NewExportService(logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter(map[string]float64{colType: 1.2, colAssignment: 2, colRule: 2, colValue: 2.2, colExpected: 2.2, colStatus: 0.8})
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

// ParseExportFormat validates a requested format, defaulting to CSV.
func ParseExportFormat(raw string) (models.ExportFormat, error) {
	switch models.ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", models.ExportFormatCSV:
		return models.ExportFormatCSV, nil
	case models.ExportFormatPDF:
		return models.ExportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", raw))
	}
}

// Render produces the report of one course audit in the requested format.
func (s *ExportService) Render(audit models.CourseAudit, format models.ExportFormat) (*RenderedExport, error) {
	dataset := auditDataset(audit)

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(export.Document{
			Title:     auditTitle(audit.Course),
			Subtitle:  auditSubtitle(audit),
			Data:      dataset,
			Highlight: func(row map[string]string) bool { return row[colStatus] == statusFail },
		})
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit report")
	}

	s.logger.Debug("audit report rendered",
		zap.Int64("course_id", audit.Course.ID),
		zap.String("format", string(format)),
		zap.Int("rows", len(dataset.Rows)),
		zap.Int("bytes", len(payload)),
	)
	return &RenderedExport{
		Filename:    fmt.Sprintf("audit_%d.%s", audit.Course.ID, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

const (
	statusPass = "PASS"
	statusFail = "FAIL"
)

func auditDataset(audit models.CourseAudit) export.Dataset {
	rows := make([]map[string]string, 0)
	for _, report := range audit.ReportsInOrder() {
		for _, entry := range report.Entries {
			status := statusFail
			if entry.Passed {
				status = statusPass
			}
			rows = append(rows, map[string]string{
				colType:       report.Type.Label(),
				colAssignment: report.AssignmentName,
				colRule:       entry.Label,
				colValue:      entry.Value,
				colExpected:   entry.Expected,
				colStatus:     status,
			})
		}
	}
	for _, itemErr := range audit.Errors {
		assignment := ""
		if itemErr.AssignmentID != 0 {
			assignment = strconv.FormatInt(itemErr.AssignmentID, 10)
		}
		rows = append(rows, map[string]string{
			colType:       "Error",
			colAssignment: assignment,
			colRule:       itemErr.Code,
			colValue:      itemErr.Message,
			colStatus:     statusFail,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

func auditTitle(course models.CourseHeader) string {
	if course.Name == "" {
		return fmt.Sprintf("Course %d", course.ID)
	}
	return fmt.Sprintf("%s (%d)", course.Name, course.ID)
}

func auditSubtitle(audit models.CourseAudit) []string {
	course := audit.Course
	var lines []string
	if course.Code != "" {
		lines = append(lines, "Code: "+course.Code)
	}
	if course.SISCourseID != "" {
		lines = append(lines, "SIS id: "+course.SISCourseID)
	}
	if course.StartAt != nil {
		lines = append(lines, "Starts: "+course.StartAt.Format("2006-01-02"))
	}
	if course.SubAccountName != "" {
		lines = append(lines, "Sub-account: "+course.SubAccountName)
	}
	if course.URL != "" {
		lines = append(lines, course.URL)
	}
	if audit.RunID != "" {
		lines = append(lines, "Run: "+audit.RunID)
	}
	return lines
}
