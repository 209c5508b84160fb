package logger

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const ctxKey = "logger"

// Middleware logs one line per request and stores a request-scoped logger
// in the echo context.  The level follows the response status.
func Middleware(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			reqLog := base.With(
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
			)
			c.Set(ctxKey, reqLog)

			err := next(c)
			if err != nil {
				// Let echo render the error so the status below is final.
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("client_ip", c.RealIP()),
				zap.Int64("bytes_out", c.Response().Size),
			}
			if q := req.URL.RawQuery; q != "" {
				fields = append(fields, zap.String("query", q))
			}
			if uid, ok := c.Get("user_id").(uint64); ok {
				fields = append(fields, zap.Uint64("user_id", uid))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			switch {
			case status >= 500:
				reqLog.Error("http request", fields...)
			case status >= 400:
				reqLog.Warn("http request", fields...)
			default:
				reqLog.Info("http request", fields...)
			}
			return nil
		}
	}
}

// FromContext returns the request logger set by Middleware, or a no-op
// logger outside a request.
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(ctxKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
