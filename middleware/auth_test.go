package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cppla/inkpost/auth"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/services"
)

type fakeAuthenticator struct {
	user  *models.User
	err   error
	calls int
	token string
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	f.calls++
	f.token = token
	return f.user, f.err
}

func newAuthEngine(authn Authenticator, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", AuthRequired(authn, logger), func(ctx *gin.Context) {
		user, ok := Principal(ctx)
		fromCtx, ok2 := auth.PrincipalFrom(ctx.Request.Context())
		if !ok || !ok2 || user != fromCtx {
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	return r
}

func TestAuthRequiredSetsPrincipal(t *testing.T) {
	authn := &fakeAuthenticator{user: &models.User{ID: 7}}
	r := newAuthEngine(authn, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer  abc.def.ghi ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
	assert.Equal(t, 1, authn.calls)
	assert.Equal(t, "abc.def.ghi", authn.token)
}

func TestAuthRequiredRejectsBadHeaders(t *testing.T) {
	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer    ", "Token abc"} {
		authn := &fakeAuthenticator{user: &models.User{ID: 7}}
		r := newAuthEngine(authn, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header=%q", header)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		assert.Zero(t, authn.calls, "header=%q", header)
	}
}

func TestAuthRequiredHidesFailureReason(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reasons := []error{auth.ErrExpired, auth.ErrInvalidSignature, auth.ErrMalformed, auth.ErrMissingSubject, auth.ErrUserNotFound}

	var bodies []string
	for _, reason := range reasons {
		authn := &fakeAuthenticator{err: fmt.Errorf("%w: %w", services.ErrUnauthenticated, reason)}
		r := newAuthEngine(authn, zap.New(core))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer x")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		bodies = append(bodies, w.Body.String())
	}

	for _, b := range bodies[1:] {
		assert.Equal(t, bodies[0], b)
	}
	assert.Contains(t, bodies[0], "could not validate credentials")

	entries := logs.FilterMessage("bearer token rejected").All()
	require.Len(t, entries, len(reasons))
	assert.Equal(t, "expired", entries[0].ContextMap()["reason"])
	assert.Equal(t, "user_not_found", entries[4].ContextMap()["reason"])
}

func TestAuthRequiredStorageFailure(t *testing.T) {
	authn := &fakeAuthenticator{err: fmt.Errorf("%w: db down", services.ErrUnavailable)}
	r := newAuthEngine(authn, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, ctx.GetString(ContextRequestIDKey))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
