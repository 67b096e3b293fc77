package middleware

import (
	"net/http"

	"card-service/pkg/jwtutil"
	"card-service/pkg/logger"
	"card-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the session token on API routes. Unlike the page
// gate, API calls get a 401 instead of a redirect.
func AuthMiddleware(cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			token := TokenFromRequest(c, cookieName)
			if token == "" {
				log.Warn("Missing session token")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			claims, err := jwtutil.ValidateToken(token)
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			// Store user info in context for later use
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Set("user_role", claims.Role)
			if claims.CompanyID != nil {
				c.Set("company_id", *claims.CompanyID)
			}

			return next(c)
		}
	}
}
