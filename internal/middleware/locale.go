package middleware

import (
	"net/http"
	"strings"

	"card-service/internal/locale"

	"github.com/labstack/echo/v4"
)

// reservedPrefixes are service routes that live outside the localized page
// tree and must not be locale-rewritten.
var reservedPrefixes = []string{
	"/health",
	"/metrics",
	"/api",
	"/auth",
	"/uploads",
	"/static",
	"/t/",
}

// LocaleMiddleware resolves the locale prefix on page routes. The root path
// redirects to the default home page; a missing or invalid prefix redirects to
// the same path with the default locale injected. Redirect decisions are made
// before any handler runs.
func LocaleMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path

		for _, prefix := range reservedPrefixes {
			if path == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(path, prefix) {
				return next(c)
			}
		}

		if path == "/" {
			return c.Redirect(http.StatusFound, "/"+locale.Default+"/home")
		}

		code, _ := SplitLocale(path)
		if code == "" {
			return c.Redirect(http.StatusFound, "/"+locale.Default+path)
		}

		c.Set("locale", code)
		return next(c)
	}
}

// SplitLocale splits a request path into its validated locale prefix and the
// canonical remainder. The locale is empty when the prefix is missing or not a
// supported two-letter code; the remainder always keeps its leading slash.
func SplitLocale(path string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/")
	seg, rest, found := strings.Cut(trimmed, "/")
	if len(seg) != 2 || !locale.IsSupported(seg) {
		return "", path
	}
	if !found || rest == "" {
		return seg, "/"
	}
	return seg, "/" + rest
}
