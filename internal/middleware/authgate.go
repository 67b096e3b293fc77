package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"card-service/internal/locale"
	"card-service/internal/model"
	"card-service/pkg/jwtutil"
	"card-service/pkg/logger"
	"card-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserLookup resolves a session subject to its role and company. Injected so
// the gate can be exercised without a database.
type UserLookup func(ctx context.Context, userID string) (role string, companyID *string, err error)

// requiredRoles maps protected dashboard prefixes (canonical, locale-stripped)
// to the role that may enter them.
var requiredRoles = map[string]string{
	"/dashboard/admin":    model.RoleSuperAdmin,
	"/dashboard/company":  model.RoleCompanyAdmin,
	"/dashboard/employee": model.RoleEmployee,
}

// RoleGate protects dashboard page routes. The gate is fail-closed: a missing
// session, an orphaned session and a lookup error all redirect to signin the
// same way, so the response never discloses which case occurred. A wrong role
// redirects to the user's own dashboard, never to an error page. All redirect
// decisions happen before any protected data is fetched.
func RoleGate(cookieName string, lookup UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			loc, canonical := SplitLocale(c.Request().URL.Path)
			if loc == "" {
				loc = locale.Default
			}
			signin := "/" + loc + "/signin?redirect=" + url.QueryEscape(canonical)

			token := TokenFromRequest(c, cookieName)
			if token == "" {
				return c.Redirect(http.StatusFound, signin)
			}

			claims, err := jwtutil.ValidateToken(token)
			if err != nil {
				log.Warn("Invalid session token on protected route", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.Redirect(http.StatusFound, signin)
			}

			// The role is read from the store, not from the token, so a role
			// change takes effect on the next request
			role, companyID, err := lookup(c.Request().Context(), claims.UserID)
			if err != nil {
				log.Warn("Session subject lookup failed", zap.Error(err))
				prometheus.RecordAuthError("orphaned_session")
				return c.Redirect(http.StatusFound, signin)
			}

			if required := requiredRoleFor(canonical); required != "" && role != required {
				log.Info("Role mismatch on dashboard route",
					zap.String("path", canonical),
					zap.String("role", role))
				return c.Redirect(http.StatusFound, "/"+loc+locale.DashboardPath(role))
			}

			// Propagate the resolved identity for downstream consumption
			c.Response().Header().Set("X-User-Id", claims.UserID)
			c.Response().Header().Set("X-User-Role", role)
			c.Set("user_id", claims.UserID)
			c.Set("user_role", role)
			if companyID != nil {
				c.Set("company_id", *companyID)
			}

			return next(c)
		}
	}
}

func requiredRoleFor(canonical string) string {
	for prefix, role := range requiredRoles {
		if canonical == prefix || strings.HasPrefix(canonical, prefix+"/") {
			return role
		}
	}
	return ""
}

// TokenFromRequest extracts the session token, preferring the session cookie
// and falling back to a Bearer header.
func TokenFromRequest(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
