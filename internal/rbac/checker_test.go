package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)

	assert.True(t, c.Has("student", PermSubmissionCreate))
	assert.True(t, c.Has("student", PermSubmissionViewOwn))
	assert.False(t, c.Has("student", PermSubmissionViewAll))
	assert.False(t, c.Has("student", PermLabCreate))
	assert.False(t, c.Has("student", PermGradePreview))

	assert.True(t, c.Has("teacher", PermLabCreate))
	assert.True(t, c.Has("teacher", PermSubmissionRegrade))
	assert.False(t, c.Has("teacher", PermUsersManage))

	assert.True(t, c.Has("admin", PermUsersManage))
	assert.True(t, c.Has("admin", "anything:at-all"))

	assert.False(t, c.Has("", PermLabView))
	assert.False(t, c.Has("guest", PermLabView))
	assert.Equal(t, []string{"admin", "student", "teacher"}, c.Roles())
}

func TestPrefixGrant(t *testing.T) {
	c := NewChecker(map[string][]string{"grader": {"submission:*"}})
	assert.True(t, c.Has("grader", PermSubmissionRegrade))
	assert.True(t, c.Any("grader", PermLabView, PermSubmissionViewAll))
	assert.False(t, c.Has("grader", PermLabView))
}

func TestRequireAny(t *testing.T) {
	h := RequireAny(PermSubmissionViewOwn, PermSubmissionViewAll)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for role, want := range map[string]int{
		"student": http.StatusNoContent,
		"teacher": http.StatusNoContent,
		"":        http.StatusForbidden,
		"nobody":  http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithRole(context.Background(), role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %q", role)
	}
}
