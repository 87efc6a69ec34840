package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(mgr *JWTManager, mw func(http.Handler) http.Handler) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Subject", SubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	return Authenticate(mgr)(mw(ok))
}

func TestMiddleware(t *testing.T) {
	mgr := NewJWTManager("test-secret-key", time.Hour, time.Hour)
	server, err := mgr.GenerateToken(RealmServer, "lobby-1", "")
	require.NoError(t, err)
	viewer, err := mgr.GenerateToken(RealmAdmin, "ana", RoleViewer)
	require.NoError(t, err)
	operator, err := mgr.GenerateToken(RealmAdmin, "olu", RoleOperator)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		mw     func(http.Handler) http.Handler
		want   int
	}{
		{"missing header", "", RequireRead(), http.StatusUnauthorized},
		{"bad scheme", "Basic abc", RequireRead(), http.StatusUnauthorized},
		{"garbage token", "Bearer nope", RequireRead(), http.StatusUnauthorized},
		{"server read", "Bearer " + server, RequireRead(), http.StatusNoContent},
		{"server write", "Bearer " + server, RequireWrite(), http.StatusNoContent},
		{"viewer read", "Bearer " + viewer, RequireRead(), http.StatusNoContent},
		{"viewer write", "Bearer " + viewer, RequireWrite(), http.StatusForbidden},
		{"operator write", "bearer " + operator, RequireWrite(), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected(mgr, tt.mw).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMiddleware_SetsSubject(t *testing.T) {
	mgr := NewJWTManager("test-secret-key", time.Hour, time.Hour)
	token, err := mgr.GenerateToken(RealmServer, "lobby-7", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(mgr, RequireRead()).ServeHTTP(rec, req)
	assert.Equal(t, "lobby-7", rec.Header().Get("X-Subject"))
}

func TestRequire_NoClaims(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireWrite()(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
