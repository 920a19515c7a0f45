package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/inkpost/auth"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired resolves the bearer token exactly once and stores the principal.
// Every credential problem yields the same 401; the reason is only logged.
func AuthRequired(authn Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, reason := bearerToken(ctx.GetHeader("Authorization"))
		if reason != "" {
			reject(ctx, logger, reason, nil)
			return
		}

		user, err := authn.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnavailable) {
				logger.Error("principal lookup failed",
					zap.String("request_id", ctx.GetString(ContextRequestIDKey)),
					zap.Error(err))
				utils.Error(ctx, http.StatusServiceUnavailable, utils.CodeUnavailable, "service unavailable")
				ctx.Abort()
				return
			}
			reject(ctx, logger, auth.FailureReason(err), err)
			return
		}

		ctx.Request = ctx.Request.WithContext(auth.WithPrincipal(ctx.Request.Context(), user))
		ctx.Next()
	}
}

// Principal returns the user AuthRequired attached to the request context.
func Principal(ctx *gin.Context) (*models.User, bool) {
	return auth.PrincipalFrom(ctx.Request.Context())
}

func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing_header"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "bad_scheme"
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", "empty_token"
	}
	return token, ""
}

func reject(ctx *gin.Context, logger *zap.Logger, reason string, err error) {
	authFailuresTotal.WithLabelValues(reason).Inc()
	fields := []zap.Field{
		zap.String("reason", reason),
		zap.String("path", ctx.Request.URL.Path),
		zap.String("request_id", ctx.GetString(ContextRequestIDKey)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.Info("bearer token rejected", fields...)
	utils.Unauthorized(ctx)
	ctx.Abort()
}
