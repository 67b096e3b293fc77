package middleware

import (
	"net/http"

	"card-service/internal/ratelimit"
	"card-service/pkg/logger"
	"card-service/prometheus"

	"github.com/labstack/echo/v4"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// RateLimitMiddleware applies a fixed-window class to a route group, keyed by
// the authenticated user when known and by client IP otherwise.
func RateLimitMiddleware(limiter *ratelimit.Limiter, class ratelimit.Class) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			identifier := c.RealIP()
			if userID, ok := c.Get("user_id").(string); ok && userID != "" {
				identifier = userID
			}

			res, err := limiter.Check(c.Request().Context(), class, identifier)
			if err != nil {
				// A broken limiter store must not take the API down
				log.Error("Rate limit check failed", zap.Error(err))
				return next(c)
			}

			if !res.Allowed {
				prometheus.RateLimitDenialCounter.With(promclient.Labels{"class": string(class)}).Inc()
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"success":    false,
					"error":      "Too many requests, please try again later",
					"remaining":  res.Remaining,
					"reset_time": res.ResetTime,
				})
			}

			return next(c)
		}
	}
}
