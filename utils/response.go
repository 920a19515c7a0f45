package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Business codes carried in JSONResponse.Code.
const (
	CodeOK              = 0
	CodeUnauthenticated = 40100
	CodeForbidden       = 40300
	CodeNotFound        = 40400
	CodeConflict        = 40900
	CodeValidation      = 42200
	CodeInternal        = 50000
	CodeUnavailable     = 50300
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, CodeOK, "success", data)
}

// Created returns a standard 201 response.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusCreated, CodeOK, "created", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// Unauthorized writes the single client-facing authentication failure.
func Unauthorized(ctx *gin.Context) {
	ctx.Header("WWW-Authenticate", "Bearer")
	Error(ctx, http.StatusUnauthorized, CodeUnauthenticated, "could not validate credentials")
}
