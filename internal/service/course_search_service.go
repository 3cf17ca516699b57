package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-auditor/internal/models"
	appErrors "github.com/noah-isme/lms-auditor/pkg/errors"
	"github.com/noah-isme/lms-auditor/pkg/textnorm"
)

type accountBrowser interface {
	ListSubAccounts(ctx context.Context, accountID int64) ([]models.Account, error)
	ListAccountCourses(ctx context.Context, accountID int64) ([]models.Course, error)
}

// CourseSearchService finds courses by keyword across the sub-account tree of an account.
type CourseSearchService struct {
	lms    accountBrowser
	cache  *CacheService
	logger *zap.Logger
}

// NewCourseSearchService constructs a CourseSearchService. cache may be nil.
func NewCourseSearchService(lms accountBrowser, cache *CacheService, logger *zap.Logger) *CourseSearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseSearchService{lms: lms, cache: cache, logger: logger}
}

// SearchCacheKey is the cache key of one search.
func SearchCacheKey(accountID int64, term string) string {
	return fmt.Sprintf("course-search:%d:%s", accountID, strings.ReplaceAll(textnorm.Normalize(term), " ", "+"))
}

var globEscaper = strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// Forget drops the cached result of one search so the next Search walks the LMS again.
func (s *CourseSearchService) Forget(ctx context.Context, accountID int64, term string) error {
	return s.cache.Invalidate(ctx, globEscaper.Replace(SearchCacheKey(accountID, term)))
}

// Search returns courses under the sub-accounts of accountID whose normalised name contains any
// keyword of term. The boolean reports a cache hit.
func (s *CourseSearchService) Search(ctx context.Context, accountID int64, term string) ([]models.CourseSearchResult, bool, error) {
	if accountID <= 0 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "accountId must be a positive integer")
	}
	if textnorm.Normalize(term) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "search term is required")
	}

	key := SearchCacheKey(accountID, term)
	var cached []models.CourseSearchResult
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	results := make([]models.CourseSearchResult, 0)
	visited := make(map[int64]struct{})
	if err := s.walk(ctx, accountID, term, visited, &results); err != nil {
		return nil, false, err
	}

	s.logger.Info("course search finished",
		zap.Int64("account_id", accountID),
		zap.String("term", term),
		zap.Int("sub_accounts", len(visited)),
		zap.Int("matches", len(results)),
	)
	s.cache.Set(ctx, key, results, 0)
	return results, false, nil
}

func (s *CourseSearchService) walk(ctx context.Context, accountID int64, term string, visited map[int64]struct{}, results *[]models.CourseSearchResult) error {
	subAccounts, err := s.lms.ListSubAccounts(ctx, accountID)
	if err != nil {
		return appErrors.Transport(err, fmt.Sprintf("list sub-accounts of %d", accountID))
	}

	for _, sub := range subAccounts {
		if _, seen := visited[sub.ID]; seen {
			continue
		}
		visited[sub.ID] = struct{}{}

		courses, err := s.lms.ListAccountCourses(ctx, sub.ID)
		if err != nil {
			return appErrors.Transport(err, fmt.Sprintf("list courses of account %d", sub.ID))
		}
		for _, course := range courses {
			if !textnorm.ContainsAny(course.Name, term) {
				continue
			}
			*results = append(*results, models.CourseSearchResult{
				ID:             course.ID,
				Name:           course.Name,
				SubAccountID:   sub.ID,
				SubAccountName: sub.Name,
			})
		}

		if err := s.walk(ctx, sub.ID, term, visited, results); err != nil {
			return err
		}
	}
	return nil
}
