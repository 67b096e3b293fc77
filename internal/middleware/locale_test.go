package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func runLocale(t *testing.T, path string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := LocaleMiddleware(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	require.NoError(t, handler(c))
	return rec, c
}

func TestRootRedirectsToDefaultHome(t *testing.T) {
	rec, _ := runLocale(t, "/")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/en/home", rec.Header().Get("Location"))
}

func TestMissingLocaleInjectsDefault(t *testing.T) {
	rec, _ := runLocale(t, "/dashboard/company")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/en/dashboard/company", rec.Header().Get("Location"))
}

func TestInvalidLocaleInjectsDefault(t *testing.T) {
	rec, _ := runLocale(t, "/xx/home")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/en/xx/home", rec.Header().Get("Location"))
}

func TestValidLocalePassesThrough(t *testing.T) {
	rec, c := runLocale(t, "/pt/card/maria-silva")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "pt", c.Get("locale"))
}

func TestReservedPathsAreNotRewritten(t *testing.T) {
	for _, path := range []string{"/health", "/metrics", "/api/employees", "/auth/login", "/t/abc123"} {
		rec, _ := runLocale(t, path)
		require.Equal(t, http.StatusOK, rec.Code, "path %s should pass through", path)
	}
}

func TestSplitLocale(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedLoc  string
		expectedRest string
	}{
		{
			name:         "locale with path",
			path:         "/pt/dashboard/company",
			expectedLoc:  "pt",
			expectedRest: "/dashboard/company",
		},
		{
			name:         "locale only",
			path:         "/pt",
			expectedLoc:  "pt",
			expectedRest: "/",
		},
		{
			name:         "no locale",
			path:         "/dashboard/company",
			expectedLoc:  "",
			expectedRest: "/dashboard/company",
		},
		{
			name:         "unsupported two-letter code",
			path:         "/he/home",
			expectedLoc:  "",
			expectedRest: "/he/home",
		},
		{
			name:         "three-letter segment",
			path:         "/eng/home",
			expectedLoc:  "",
			expectedRest: "/eng/home",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, rest := SplitLocale(tt.path)
			require.Equal(t, tt.expectedLoc, loc)
			require.Equal(t, tt.expectedRest, rest)
		})
	}
}
