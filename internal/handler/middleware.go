package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hpn/hpn-text-optimizer/internal/dispatch"
	"github.com/hpn/hpn-text-optimizer/internal/domain"
)

// Context keys set by the boundary.
const (
	actionKey    = "action"
	requestIDKey = "request_id"

	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
)

// RequestPrinter renders one console line per request.
type RequestPrinter interface {
	PrintRequest(method, path, action string, status int, latency time.Duration)
}

// CORSMiddleware returns a middleware that enables permissive CORS.
// This allows the browser extension and web pages to call the API directly.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, "+RequestIDHeader)
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Header("Access-Control-Expose-Headers", RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware assigns every request an id, reusing a valid incoming
// X-Request-ID, and propagates it to the engine through the request context.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(dispatch.WithRequestID(c.Request.Context(), id))

		c.Next()
	}
}

// LoggingMiddleware returns a middleware that logs request details in JSON format.
// A nil printer skips the console line.
func LoggingMiddleware(logger *slog.Logger, printer RequestPrinter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)

		action := c.GetString(actionKey)

		logger.Info("request completed",
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("action", action),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", latency),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		if printer != nil {
			printer.PrintRequest(c.Request.Method, path, action, c.Writer.Status(), latency)
		}
	}
}

// RecoveryMiddleware returns a middleware that recovers from panics.
// The caller always receives an error payload, never a dropped connection.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					slog.String("error", fmt.Sprint(err)),
					slog.String("path", c.Request.URL.Path),
					slog.String("request_id", c.GetString(requestIDKey)),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   true,
					Message: "internal error, please try again",
					Debug:   string(domain.KindInternal),
				})
			}
		}()

		c.Next()
	}
}
