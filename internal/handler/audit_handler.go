package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-auditor/internal/dto"
	"github.com/noah-isme/lms-auditor/internal/middleware"
	"github.com/noah-isme/lms-auditor/internal/models"
	"github.com/noah-isme/lms-auditor/internal/service"
	appErrors "github.com/noah-isme/lms-auditor/pkg/errors"
	"github.com/noah-isme/lms-auditor/pkg/response"
)

type auditRunner interface {
	RunAudit(ctx context.Context, courseID int64) (*models.CourseAudit, error)
	AuditCourses(ctx context.Context, courseIDs []int64) []models.CourseAudit
	CorrectCourses(ctx context.Context, courseIDs []int64) ([]models.CourseCorrection, error)
}

type auditExporter interface {
	Render(audit models.CourseAudit, format models.ExportFormat) (*service.RenderedExport, error)
}

// AuditHandler exposes audit, correction and export endpoints.
type AuditHandler struct {
	audits    auditRunner
	exporter  auditExporter
	validator *validator.Validate
	logger    *zap.Logger
	maxBatch  int
}

// NewAuditHandler constructs an AuditHandler. maxBatch caps the number of courses per request.
func NewAuditHandler(audits auditRunner, exporter auditExporter, validate *validator.Validate, logger *zap.Logger, maxBatch int) *AuditHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBatch <= 0 {
		maxBatch = 50
	}
	return &AuditHandler{audits: audits, exporter: exporter, validator: validate, logger: logger, maxBatch: maxBatch}
}

// Audit godoc
// @Summary Audit courses
// @Description Evaluates every audited assignment of each course against its checklist.
// @Tags Audits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AuditRequest true "Course ids"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /audits [post]
func (h *AuditHandler) Audit(c *gin.Context) {
	courseIDs, ok := h.bindCourseIDs(c)
	if !ok {
		return
	}
	audits := h.audits.AuditCourses(c.Request.Context(), courseIDs)
	h.logger.Info("audit request served", zap.String("subject", subject(c)), zap.Int("courses", len(courseIDs)))
	response.JSON(c, http.StatusOK, dto.CourseAuditsResponse{Audits: audits}, middleware.ExtractMeta(c))
}

// Correct godoc
// @Summary Correct courses
// @Description Applies the corrections each failing rule allows, then re-checks the assignments.
// @Tags Audits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AuditRequest true "Course ids"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /corrections [post]
func (h *AuditHandler) Correct(c *gin.Context) {
	courseIDs, ok := h.bindCourseIDs(c)
	if !ok {
		return
	}
	corrections, err := h.audits.CorrectCourses(c.Request.Context(), courseIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("correction request served", zap.String("subject", subject(c)), zap.Int("courses", len(courseIDs)))
	response.JSON(c, http.StatusOK, dto.CourseCorrectionsResponse{Corrections: corrections}, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export a course audit
// @Tags Audits
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /audits/{courseId}/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.Param("courseId"), 10, 64)
	if err != nil || courseID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "courseId must be a positive integer"))
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	audit, err := h.audits.RunAudit(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	rendered, err := h.exporter.Render(*audit, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Run-ID", audit.RunID)
	response.Attachment(c, rendered.Filename, rendered.ContentType, rendered.Payload)
}

func (h *AuditHandler) bindCourseIDs(c *gin.Context) ([]int64, bool) {
	var req dto.AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid audit payload"))
		return nil, false
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid audit payload"))
		return nil, false
	}
	courseIDs := req.Resolve()
	if len(courseIDs) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at least one numeric course id is required"))
		return nil, false
	}
	if len(courseIDs) > h.maxBatch {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "too many courses in one request, max "+strconv.Itoa(h.maxBatch)))
		return nil, false
	}
	return courseIDs, true
}
