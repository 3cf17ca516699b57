package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-auditor/internal/models"
	"github.com/noah-isme/lms-auditor/pkg/middleware/requestid"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]interface{}
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recorder) record(req *http.Request) recordedRequest {
	rec := recordedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.RawQuery,
		Auth:   req.Header.Get("Authorization"),
	}
	if raw, _ := io.ReadAll(req.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}
	r.mu.Lock()
	r.requests = append(r.requests, rec)
	r.mu.Unlock()
	return rec
}

type observerStub struct {
	calls []string
}

func (o *observerStub) ObserveLMSCall(operation string, status int, _ time.Duration) {
	o.calls = append(o.calls, fmt.Sprintf("%s:%d", operation, status))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *observerStub) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	obs := &observerStub{}
	client, err := NewClient(Options{BaseURL: server.URL + "/api/v1/", Token: "secret", PerPage: 2, Observer: obs})
	require.NoError(t, err)
	return client, obs
}

func TestNewClientValidatesOptions(t *testing.T) {
	_, err := NewClient(Options{Token: "t"})
	require.Error(t, err)

	_, err = NewClient(Options{BaseURL: "https://lms.example.edu/api/v1"})
	require.Error(t, err)

	client, err := NewClient(Options{BaseURL: "https://lms.example.edu/api/v1/", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example.edu/api/v1", client.baseURL)
	assert.Equal(t, defaultPerPage, client.perPage)
}

func TestListAssignmentsFollowsNextLinks(t *testing.T) {
	rec := &recorder{}
	var serverURL string
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/api/v1/courses/7/assignments?page=2&per_page=2>; rel="next", <%s/api/v1/courses/7/assignments?page=2&per_page=2>; rel="last"`, serverURL, serverURL))
			_, _ = w.Write([]byte(`[{"id":1,"name":"Trabajo en equipo"},{"id":2,"name":"Foro 1"}]`))
		case "2":
			w.Header().Set("Link", fmt.Sprintf(`<%s/api/v1/courses/7/assignments?page=1&per_page=2>; rel="first"`, serverURL))
			_, _ = w.Write([]byte(`[{"id":3,"name":"Trabajo final","allowed_attempts":2}]`))
		}
	})
	serverURL = client.baseURL[:len(client.baseURL)-len("/api/v1")]

	assignments, err := client.ListAssignments(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, assignments, 3)
	assert.Equal(t, int64(3), assignments[2].ID)
	require.NotNil(t, assignments[2].AllowedAttempts)
	assert.Equal(t, 2, *assignments[2].AllowedAttempts)

	require.Len(t, rec.requests, 2)
	assert.Equal(t, "/api/v1/courses/7/assignments", rec.requests[0].Path)
	assert.Equal(t, "per_page=2", rec.requests[0].Query)
	assert.Equal(t, "Bearer secret", rec.requests[0].Auth)
	assert.Equal(t, "Bearer secret", rec.requests[1].Auth)
	assert.Equal(t, []string{"list_assignments:200", "list_assignments:200"}, obs.calls)
}

func TestUpdateAssignmentSendsOnlyPatchedFields(t *testing.T) {
	rec := &recorder{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		_, _ = w.Write([]byte(`{"id":11,"name":"Trabajo final","points_possible":100}`))
	})

	points := 100.0
	updated, err := client.UpdateAssignment(context.Background(), 7, 11, models.AssignmentPatch{PointsPossible: &points})
	require.NoError(t, err)
	assert.Equal(t, int64(11), updated.ID)

	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/v1/courses/7/assignments/11", req.Path)
	assert.Equal(t, map[string]interface{}{"assignment": map[string]interface{}{"points_possible": 100.0}}, req.Body)
}

func TestCreateGroupCategorySendsClosedSignup(t *testing.T) {
	rec := &recorder{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":55,"name":"Equipo de trabajo"}`))
	})

	category, err := client.CreateGroupCategory(context.Background(), 7, "Equipo de trabajo")
	require.NoError(t, err)
	assert.Equal(t, int64(55), category.ID)

	req := rec.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v1/courses/7/group_categories", req.Path)
	assert.Equal(t, "disabled", req.Body["self_signup"])
	assert.Equal(t, "random", req.Body["auto_leader"])
}

func TestDeleteGroupCategoryAcceptsNoContent(t *testing.T) {
	rec := &recorder{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteGroupCategory(context.Background(), 9))
	assert.Equal(t, http.MethodDelete, rec.requests[0].Method)
	assert.Equal(t, "/api/v1/group_categories/9", rec.requests[0].Path)
}

func TestNon2xxBecomesStatusError(t *testing.T) {
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"message":"The specified resource does not exist."}]}`))
	})

	_, err := client.GetCourse(context.Background(), 404)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "get_course", statusErr.Operation)
	assert.Contains(t, statusErr.Body, "does not exist")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, []string{"get_course:404"}, obs.calls)
}

func TestListStudentsFiltersByEnrollmentType(t *testing.T) {
	rec := &recorder{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		_, _ = w.Write([]byte(`[{"id":1,"name":"Ana"},{"id":2,"name":"Luis"}]`))
	})

	students, err := client.ListStudents(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, "/api/v1/courses/7/users", rec.requests[0].Path)
	assert.Contains(t, rec.requests[0].Query, "enrollment_type%5B%5D=student")
}

func TestRequestIDIsForwarded(t *testing.T) {
	var got string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"id":1,"name":"Root"}`))
	})

	ctx := requestid.WithValue(context.Background(), "req-123")
	_, err := client.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "req-123", got)
}
