package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-auditor/internal/models"
	appErrors "github.com/noah-isme/lms-auditor/pkg/errors"
)

func searchFixture() *lmsStub {
	stub := newLMSStub()
	stub.subAccounts[1] = []models.Account{{ID: 10, Name: "Ingeniería"}, {ID: 20, Name: "Salud"}}
	stub.subAccounts[10] = []models.Account{{ID: 11, Name: "Informática"}, {ID: 20, Name: "Salud"}}
	stub.subAccounts[20] = []models.Account{{ID: 10, Name: "Ingeniería"}}
	stub.accountCourses[10] = []models.Course{{ID: 100, Name: "Gestión de Proyectos"}, {ID: 101, Name: "Cálculo I"}}
	stub.accountCourses[11] = []models.Course{{ID: 110, Name: "Proyecto de Título"}}
	stub.accountCourses[20] = []models.Course{{ID: 200, Name: "Anatomía"}, {ID: 201, Name: "GESTION clínica"}}
	return stub
}

func TestCourseSearchWalksSubAccountsOnce(t *testing.T) {
	stub := searchFixture()
	svc := NewCourseSearchService(stub, nil, nil)

	results, hit, err := svc.Search(context.Background(), 1, "gestión proyecto")
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, []models.CourseSearchResult{
		{ID: 100, Name: "Gestión de Proyectos", SubAccountID: 10, SubAccountName: "Ingeniería"},
		{ID: 110, Name: "Proyecto de Título", SubAccountID: 11, SubAccountName: "Informática"},
		{ID: 201, Name: "GESTION clínica", SubAccountID: 20, SubAccountName: "Salud"},
	}, results)

	var courseListings int
	for _, c := range stub.calls {
		if strings.HasPrefix(c, "list_account_courses:") {
			courseListings++
		}
	}
	assert.Equal(t, 3, courseListings)
}

func TestCourseSearchUsesCache(t *testing.T) {
	stub := searchFixture()
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, nil, true)
	svc := NewCourseSearchService(stub, cache, nil)
	ctx := context.Background()

	first, hit, err := svc.Search(ctx, 1, "Anatomía")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, first, 1)

	calls := len(stub.calls)
	second, hit, err := svc.Search(ctx, 1, "  ANATOMIA ")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Len(t, stub.calls, calls)
}

func TestCourseSearchForgetDropsCachedResult(t *testing.T) {
	stub := searchFixture()
	repo := &memoryCacheRepo{}
	svc := NewCourseSearchService(stub, NewCacheService(repo, nil, time.Minute, nil, true), nil)
	ctx := context.Background()

	_, _, err := svc.Search(ctx, 1, "gestión?")
	require.NoError(t, err)

	require.NoError(t, svc.Forget(ctx, 1, "Gestion?"))
	assert.Equal(t, []string{`course-search:1:gestion\?`}, repo.patterns)

	_, hit, err := svc.Search(ctx, 1, "gestión?")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCourseSearchForgetWithoutCache(t *testing.T) {
	svc := NewCourseSearchService(searchFixture(), nil, nil)
	assert.NoError(t, svc.Forget(context.Background(), 1, "gestión"))
}

func TestCourseSearchValidatesInput(t *testing.T) {
	svc := NewCourseSearchService(searchFixture(), nil, nil)

	_, _, err := svc.Search(context.Background(), 0, "x")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.Search(context.Background(), 1, "¿¡")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCourseSearchPropagatesTransportErrors(t *testing.T) {
	stub := searchFixture()
	stub.failOn["list_account_courses:11"] = errStubTransport
	svc := NewCourseSearchService(stub, nil, nil)

	_, _, err := svc.Search(context.Background(), 1, "proyecto")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrTransport)
}

func TestSearchCacheKeyNormalisesTerm(t *testing.T) {
	assert.Equal(t, SearchCacheKey(3, "Gestión  Proyectos"), SearchCacheKey(3, "gestion proyectos"))
	assert.NotEqual(t, SearchCacheKey(3, "gestion"), SearchCacheKey(4, "gestion"))
}
