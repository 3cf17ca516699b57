package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-auditor/internal/models"
	appErrors "github.com/noah-isme/lms-auditor/pkg/errors"
)

// ComplianceEvaluator runs snapshots through the rule catalogs. It performs no I/O.
type ComplianceEvaluator struct {
	catalogs map[models.AssignmentType]ruleCatalog
	metrics  *MetricsService
}

// NewComplianceEvaluator constructs an evaluator over the built-in catalogs.
func NewComplianceEvaluator(metrics *MetricsService) *ComplianceEvaluator {
	return &ComplianceEvaluator{catalogs: newRuleCatalogs(), metrics: metrics}
}

// Evaluate checks the snapshot against the catalog of the given type. Entries follow catalog order.
func (e *ComplianceEvaluator) Evaluate(kind models.AssignmentType, snap models.AssignmentSnapshot) (models.Report, error) {
	catalog, ok := e.catalogs[kind]
	if !ok {
		return models.Report{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assignment type %q", kind))
	}

	report := models.Report{
		Type:           kind,
		AssignmentID:   snap.ID,
		AssignmentName: snap.Name,
		Entries:        make([]models.ReportEntry, 0, len(catalog.rules)),
	}
	for _, r := range catalog.rules {
		passed := r.check(snap)
		report.Entries = append(report.Entries, models.ReportEntry{
			RuleID:   r.id,
			Label:    r.label,
			Value:    r.display(snap),
			Expected: r.expected,
			Passed:   passed,
		})
		e.metrics.RecordRuleOutcome(kind, r.id, passed)
	}
	return report, nil
}

type courseReader interface {
	GetCourse(ctx context.Context, courseID int64) (*models.Course, error)
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)
}

type assignmentCorrector interface {
	Correct(ctx context.Context, kind models.AssignmentType, courseID int64, snap models.AssignmentSnapshot) models.CorrectionResult
}

// AuditServiceParams groups constructor dependencies.
type AuditServiceParams struct {
	Courses   courseReader
	Snapshots *SnapshotService
	Evaluator *ComplianceEvaluator
	Corrector assignmentCorrector
	CourseURL string
	Logger    *zap.Logger
}

// AuditService drives audit and correction passes, one course at a time.
type AuditService struct {
	courses   courseReader
	snapshots *SnapshotService
	evaluator *ComplianceEvaluator
	corrector assignmentCorrector
	courseURL string
	logger    *zap.Logger
	newRunID  func() string
}

// NewAuditService constructs an AuditService.
func NewAuditService(params AuditServiceParams) *AuditService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	evaluator := params.Evaluator
	if evaluator == nil {
		evaluator = NewComplianceEvaluator(nil)
	}
	return &AuditService{
		courses:   params.Courses,
		snapshots: params.Snapshots,
		evaluator: evaluator,
		corrector: params.Corrector,
		courseURL: params.CourseURL,
		logger:    logger,
		newRunID:  uuid.NewString,
	}
}

// RunAudit evaluates every audited assignment of the course. Only a failure to list the
// course assignments is returned; other failures are recorded on the result.
func (s *AuditService) RunAudit(ctx context.Context, courseID int64) (*models.CourseAudit, error) {
	runID := s.newRunID()
	logger := s.logger.With(zap.String("run_id", runID), zap.Int64("course_id", courseID))

	audit := &models.CourseAudit{
		RunID:   runID,
		Reports: make(map[models.AssignmentType][]models.Report),
	}
	audit.Course, audit.Errors = s.courseHeader(ctx, courseID, logger)

	items, err := s.snapshots.ListAudited(ctx, courseID)
	if err != nil {
		logger.Error("audit aborted", zap.Error(err))
		return nil, err
	}

	for _, item := range items {
		assignmentID := item.Assignment.ID
		snap, err := s.snapshots.Build(ctx, courseID, item.Type, item.Assignment)
		if err != nil {
			logger.Warn("snapshot failed", zap.Int64("assignment_id", assignmentID), zap.Error(err))
			audit.Errors = append(audit.Errors, itemError(courseID, assignmentID, err))
			continue
		}
		report, err := s.evaluator.Evaluate(item.Type, snap)
		if err != nil {
			audit.Errors = append(audit.Errors, itemError(courseID, assignmentID, err))
			continue
		}
		audit.Reports[item.Type] = append(audit.Reports[item.Type], report)
		logger.Info("assignment audited",
			zap.Int64("assignment_id", assignmentID),
			zap.String("type", string(item.Type)),
			zap.Bool("compliant", report.Compliant()),
			zap.Strings("failing", report.Failing()),
		)
	}

	return audit, nil
}

// RunCorrection corrects every audited assignment of the course and re-evaluates it afterwards.
func (s *AuditService) RunCorrection(ctx context.Context, courseID int64) (*models.CourseCorrection, error) {
	if s.corrector == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "corrector not configured")
	}
	runID := s.newRunID()
	logger := s.logger.With(zap.String("run_id", runID), zap.Int64("course_id", courseID))

	correction := &models.CourseCorrection{
		RunID:    runID,
		CourseID: courseID,
		Results:  make(map[models.AssignmentType][]models.CorrectionResult),
	}

	items, err := s.snapshots.ListAudited(ctx, courseID)
	if err != nil {
		logger.Error("correction aborted", zap.Error(err))
		return nil, err
	}

	for _, item := range items {
		assignmentID := item.Assignment.ID
		snap, err := s.snapshots.Build(ctx, courseID, item.Type, item.Assignment)
		if err != nil {
			logger.Warn("snapshot failed", zap.Int64("assignment_id", assignmentID), zap.Error(err))
			correction.Errors = append(correction.Errors, itemError(courseID, assignmentID, err))
			continue
		}

		result := s.corrector.Correct(ctx, item.Type, courseID, snap)

		refreshed, err := s.snapshots.Refresh(ctx, courseID, item.Type, assignmentID)
		if err != nil {
			result.Warnings = append(result.Warnings, "post-correction check skipped: "+err.Error())
		} else if report, err := s.evaluator.Evaluate(item.Type, refreshed); err == nil {
			result.Remaining = report.Failing()
		}

		correction.Results[item.Type] = append(correction.Results[item.Type], result)
	}

	logger.Info("correction finished", zap.Bool("applied", correction.Applied()), zap.Int("errors", len(correction.Errors)))
	return correction, nil
}

// AuditCourses audits each course in turn. A course whose assignments cannot be listed is
// returned with only its header and the error, and the batch moves on.
func (s *AuditService) AuditCourses(ctx context.Context, courseIDs []int64) []models.CourseAudit {
	audits := make([]models.CourseAudit, 0, len(courseIDs))
	for _, courseID := range courseIDs {
		if ctx.Err() != nil {
			audits = append(audits, models.CourseAudit{
				Course: models.CourseHeader{ID: courseID},
				Errors: []models.ItemError{itemError(courseID, 0, ctx.Err())},
			})
			continue
		}
		audit, err := s.RunAudit(ctx, courseID)
		if err != nil {
			audits = append(audits, models.CourseAudit{
				Course: models.CourseHeader{ID: courseID},
				Errors: []models.ItemError{itemError(courseID, 0, err)},
			})
			continue
		}
		audits = append(audits, *audit)
	}
	return audits
}

// CorrectCourses corrects each course in turn, isolating failures the same way as AuditCourses.
func (s *AuditService) CorrectCourses(ctx context.Context, courseIDs []int64) ([]models.CourseCorrection, error) {
	if s.corrector == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "corrector not configured")
	}
	corrections := make([]models.CourseCorrection, 0, len(courseIDs))
	for _, courseID := range courseIDs {
		err := ctx.Err()
		var correction *models.CourseCorrection
		if err == nil {
			correction, err = s.RunCorrection(ctx, courseID)
		}
		if err != nil {
			corrections = append(corrections, models.CourseCorrection{
				CourseID: courseID,
				Errors:   []models.ItemError{itemError(courseID, 0, err)},
			})
			continue
		}
		corrections = append(corrections, *correction)
	}
	return corrections, nil
}

func (s *AuditService) courseHeader(ctx context.Context, courseID int64, logger *zap.Logger) (models.CourseHeader, []models.ItemError) {
	header := models.CourseHeader{ID: courseID}
	if s.courseURL != "" {
		header.URL = fmt.Sprintf(s.courseURL, courseID)
	}
	if s.courses == nil {
		return header, nil
	}

	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		err = appErrors.Transport(err, "get course")
		logger.Warn("course header unavailable", zap.Error(err))
		return header, []models.ItemError{itemError(courseID, 0, err)}
	}
	if course == nil {
		return header, nil
	}

	header.Name = course.Name
	header.Code = course.CourseCode
	header.StartAt = course.StartAt
	if course.SISCourseID != nil {
		header.SISCourseID = *course.SISCourseID
	}
	if course.AccountID != nil {
		header.SubAccountID = course.AccountID
		account, err := s.courses.GetAccount(ctx, *course.AccountID)
		if err != nil {
			logger.Debug("sub-account name unavailable", zap.Int64("account_id", *course.AccountID), zap.Error(err))
		} else if account != nil {
			header.SubAccountName = account.Name
		}
	}
	return header, nil
}

func itemError(courseID, assignmentID int64, err error) models.ItemError {
	appErr := appErrors.FromError(err)
	return models.ItemError{
		CourseID:     courseID,
		AssignmentID: assignmentID,
		Code:         appErr.Code,
		Message:      appErr.Error(),
	}
}
