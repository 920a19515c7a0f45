package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/inkpost/middleware"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

// respondError maps the service taxonomy to status codes. Storage detail is logged, never returned.
func respondError(ctx *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		utils.Unauthorized(ctx)
	case errors.Is(err, services.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, utils.CodeForbidden, services.ErrForbidden.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, services.ErrNotFound.Error())
	case errors.Is(err, services.ErrValidation):
		utils.Error(ctx, http.StatusUnprocessableEntity, utils.CodeValidation, err.Error())
	case errors.Is(err, services.ErrConflict):
		logger.Info("integrity violation", requestFields(ctx, err)...)
		utils.Error(ctx, http.StatusConflict, utils.CodeConflict, services.ErrConflict.Error())
	default:
		logger.Error("request failed", requestFields(ctx, err)...)
		utils.Error(ctx, http.StatusServiceUnavailable, utils.CodeUnavailable, "service unavailable")
	}
}

func requestFields(ctx *gin.Context, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
		zap.String("request_id", ctx.GetString(middleware.ContextRequestIDKey)),
		zap.Error(err),
	}
}

func invalidPayload(ctx *gin.Context) {
	utils.Error(ctx, http.StatusUnprocessableEntity, utils.CodeValidation, "invalid request payload")
}

// requiredID parses a positive integer query parameter.
func requiredID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		utils.Error(ctx, http.StatusUnprocessableEntity, utils.CodeValidation, name+" is required")
		return 0, false
	}
	return parseID(ctx, name, raw)
}

// optionalID parses an optional positive integer query parameter; absent yields 0.
func optionalID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return 0, true
	}
	return parseID(ctx, name, raw)
}

func parseID(ctx *gin.Context, name, raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, strconv.IntSize)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusUnprocessableEntity, utils.CodeValidation, name+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func postCacheKey(id uint) string {
	return "cache:post:detail:" + strconv.FormatUint(uint64(id), 10)
}

func userCacheKey(id uint) string {
	return "cache:user:detail:" + strconv.FormatUint(uint64(id), 10)
}

// serveCached writes a cached success envelope when present.
func serveCached(ctx *gin.Context, cache *utils.Cache, key string) bool {
	if b, ok := cache.GetBytes(ctx.Request.Context(), key); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return true
	}
	return false
}

// successCached writes a success envelope and stores it under key.
func successCached(ctx *gin.Context, cache *utils.Cache, key string, data interface{}) {
	cache.SetJSON(ctx.Request.Context(), key, utils.JSONResponse{Code: utils.CodeOK, Message: "success", Data: data})
	utils.Success(ctx, data)
}
