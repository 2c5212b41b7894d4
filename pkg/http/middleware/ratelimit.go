package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Allower is satisfied by the per-key token bucket limiter.
type Allower interface {
	Allow(key string) bool
}

// RateLimit rejects requests from a client IP once its bucket is empty.
func RateLimit(l Allower) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l != nil && !l.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}
