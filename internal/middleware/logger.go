package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"seswa/internal/pkg/response"
)

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_id", c.GetString(ctxUserID)),
			zap.String("request_id", requestID(c)),
		)
	}
}

// ErrorLogger logs detailed error information and recovers from panics.
func ErrorLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				logRequestError(log, c, start, "panic", err, zap.ByteString("stack", debug.Stack()))
				response.Abort(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					logRequestError(log, c, start, "http_error", fmt.Errorf("status=%d", c.Writer.Status()))
				}
				return
			}

			for _, e := range c.Errors {
				fields := []zap.Field{}
				if e.Meta != nil {
					fields = append(fields, zap.Any("meta", e.Meta))
				}
				logRequestError(log, c, start, fmt.Sprintf("%v", e.Type), e.Err, fields...)
			}
		}()

		c.Next()
	}
}

func logRequestError(log *zap.Logger, c *gin.Context, start time.Time, errType string, err error, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("type", errType),
		zap.Int("status", c.Writer.Status()),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("query", c.Request.URL.RawQuery),
		zap.String("client_ip", c.ClientIP()),
		zap.String("user_id", c.GetString(ctxUserID)),
		zap.String("role", c.GetString(ctxRole)),
		zap.String("request_id", requestID(c)),
		zap.Duration("latency", time.Since(start)),
		zap.Error(err),
	}, extra...)
	log.Error("request_error", fields...)
}

func requestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-Id")
	}
	return requestID
}
