package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/lms-auditor/internal/dto"
	"github.com/noah-isme/lms-auditor/internal/middleware"
	"github.com/noah-isme/lms-auditor/internal/models"
	appErrors "github.com/noah-isme/lms-auditor/pkg/errors"
	"github.com/noah-isme/lms-auditor/pkg/response"
)

type courseSearcher interface {
	Search(ctx context.Context, accountID int64, term string) ([]models.CourseSearchResult, bool, error)
	Forget(ctx context.Context, accountID int64, term string) error
}

// SearchHandler exposes the course search endpoint.
type SearchHandler struct {
	search    courseSearcher
	validator *validator.Validate
}

// NewSearchHandler constructs the handler.
func NewSearchHandler(search courseSearcher, validate *validator.Validate) *SearchHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &SearchHandler{search: search, validator: validate}
}

// Search godoc
// @Summary Search courses by keyword
// @Description Walks the sub-accounts of an account and matches course names ignoring case and accents.
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param accountId query int true "Root account ID"
// @Param q query string true "Keywords"
// @Param refresh query bool false "Bypass the cached result"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	if h.search == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "accountId must be a positive integer"))
		return
	}
	query.Term = strings.TrimSpace(query.Term)
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "accountId and q are required"))
		return
	}

	if query.Refresh {
		// A failed invalidation is logged by the cache; the search still runs.
		_ = h.search.Forget(c.Request.Context(), query.AccountID, query.Term)
	}

	courses, cacheHit, err := h.search.Search(c.Request.Context(), query.AccountID, query.Term)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dto.CourseSearchResponse{
		AccountID: query.AccountID,
		Term:      query.Term,
		Courses:   courses,
	}, middleware.ExtractMeta(c))
}
