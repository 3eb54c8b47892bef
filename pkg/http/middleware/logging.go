package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests. Probe endpoints are skipped; scan
// requests are long-running and the latency column is the point.
func RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.RequestURI == "/healthz" || req.RequestURI == "/metrics" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			log.Printf("[%s] %s - %d (%s)",
				req.Method,
				req.RequestURI,
				c.Response().Status,
				time.Since(start),
			)
			return err
		}
	}
}
