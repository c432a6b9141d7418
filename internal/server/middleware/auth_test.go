package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/egresados-admin/internal/api/apitest"
	"github.com/jonathan/egresados-admin/internal/session"
)

var nopLog = zerolog.Nop()

type fixedBinder struct {
	sid string
	err error
}

func (b fixedBinder) Bind(http.ResponseWriter, *http.Request) (string, error) {
	return b.sid, b.err
}

func withToken(t *testing.T, store session.Store, token string) *http.Request {
	t.Helper()
	sess, err := session.New("sid-1", store)
	require.NoError(t, err)
	if token != "" {
		require.NoError(t, sess.SetToken(context.Background(), token))
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard/egresados", nil)
	return req.WithContext(ContextWithSession(req.Context(), sess))
}

func TestWithSession_AddsSessionToContext(t *testing.T) {
	store := session.NewMemoryStore()

	var got *session.Session
	handler := WithSession(fixedBinder{sid: "abc"}, store, &nopLog)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		got, err = GetSession(r)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.ID())
}

func TestWithSession_BindFailure(t *testing.T) {
	called := false
	handler := WithSession(fixedBinder{err: errors.New("cookie too large")}, session.NewMemoryStore(), &nopLog)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
}

func TestGetSession_Missing(t *testing.T) {
	_, err := GetSession(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name        string
		token       func(t *testing.T) string
		wantNext    bool
		wantCleared bool
	}{
		{"no token", func(*testing.T) string { return "" }, true, false},
		{"opaque token", func(*testing.T) string { return "T1" }, true, false},
		{"admin jwt", func(t *testing.T) string { return apitest.IssueJWT(t, session.RoleAdmin) }, true, false},
		{"egresado jwt", func(t *testing.T) string { return apitest.IssueJWT(t, "ROLE_USER") }, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewMemoryStore()
			req := withToken(t, store, tt.token(t))

			called := false
			handler := RequireAdmin(&nopLog)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantNext, called)
			if !tt.wantNext {
				assert.Equal(t, http.StatusSeeOther, rec.Code)
				assert.Equal(t, LoginPath, rec.Header().Get("Location"))
			}
			if tt.wantCleared {
				assert.Zero(t, store.Len())
			}
		})
	}
}

func TestRequireAdmin_NoSessionRedirects(t *testing.T) {
	handler := RequireAdmin(&nopLog)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard/forms", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
}
