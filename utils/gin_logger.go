package utils

import (
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// AccessLog writes one access log entry per request, tagged with the request id.
// Scrapes of /metrics are not logged.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return ginzap.GinzapWithConfig(logger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/metrics"},
		Context: func(ctx *gin.Context) []zapcore.Field {
			return []zapcore.Field{zap.String("request_id", ctx.Writer.Header().Get(RequestIDHeader))}
		},
	})
}

// RecoveryWithZap turns panics into a 500 envelope and logs them with the
// Authorization header redacted from the request dump. Broken client
// connections are logged without a response.
func RecoveryWithZap(logger *zap.Logger, stack bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				brokenPipe := false
				if ne, ok := err.(*net.OpError); ok {
					if se, ok := ne.Err.(*os.SyscallError); ok {
						msg := strings.ToLower(se.Error())
						brokenPipe = strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
					}
				}

				httpRequest, _ := httputil.DumpRequest(ctx.Request, false)
				fields := []zap.Field{
					zap.Any("error", err),
					zap.String("request", redactAuthorization(string(httpRequest))),
					zap.String("request_id", ctx.Writer.Header().Get(RequestIDHeader)),
				}
				if stack {
					fields = append(fields, zap.String("stack", string(debug.Stack())))
				}
				logger.Error("[Recovery from panic]", fields...)

				if brokenPipe {
					ctx.Abort()
					return
				}
				Error(ctx, http.StatusInternalServerError, CodeInternal, "internal server error")
				ctx.Abort()
			}
		}()
		ctx.Next()
	}
}

func redactAuthorization(dump string) string {
	lines := strings.Split(dump, "\r\n")
	for i, l := range lines {
		if strings.HasPrefix(strings.ToLower(l), "authorization:") {
			lines[i] = "Authorization: [redacted]"
		}
	}
	return strings.Join(lines, "\r\n")
}
