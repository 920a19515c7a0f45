package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/inkpost/middleware"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

// AuthController issues access tokens and reports the current principal.
type AuthController struct {
	auth   *services.AuthService
	logger *zap.Logger
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(auth *services.AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{auth: auth, logger: logger}
}

// Token exchanges form-encoded username (email) and password for a bearer token.
// The body is {"access_token", "type_token"} without the usual envelope.
func (a *AuthController) Token(ctx *gin.Context) {
	var req struct {
		Username string `form:"username" binding:"required"`
		Password string `form:"password" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		invalidPayload(ctx)
		return
	}

	token, err := a.auth.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			ctx.Header("WWW-Authenticate", "Bearer")
			utils.Error(ctx, http.StatusUnauthorized, utils.CodeUnauthenticated, "incorrect username or password")
			return
		}
		respondError(ctx, a.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"type_token":   services.TokenType,
	})
}

// Me returns the resolved principal.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := middleware.Principal(ctx)
	if !ok {
		utils.Unauthorized(ctx)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}
