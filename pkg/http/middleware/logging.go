package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "MacroPulse/pkg/logger"
)

// RequestLogging emits one debug-level access line per request. The
// metrics middleware already covers failures and slow requests, so this
// stays quiet at the usual info level.
func RequestLogging(lgr *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if lgr == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			lgr.Debug("http request",
				applogger.String("method", c.Request().Method),
				applogger.String("path", c.Request().URL.Path),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("elapsed", time.Since(start)),
				applogger.String("remote", c.RealIP()),
			)
			return err
		}
	}
}
