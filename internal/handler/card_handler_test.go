package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"card-service/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestAuthorizedForCompany(t *testing.T) {
	tests := []struct {
		name          string
		role          string
		callerCompany string
		targetCompany string
		want          bool
	}{
		{"super admin crosses tenants", model.RoleSuperAdmin, "c-1", "c-2", true},
		{"super admin without company", model.RoleSuperAdmin, "", "c-2", true},
		{"company admin own tenant", model.RoleCompanyAdmin, "c-1", "c-1", true},
		{"company admin other tenant", model.RoleCompanyAdmin, "c-1", "c-2", false},
		{"employee other tenant", model.RoleEmployee, "c-1", "c-2", false},
		{"empty target denied", model.RoleCompanyAdmin, "c-1", "", false},
		{"both empty denied", model.RoleCompanyAdmin, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, authorizedForCompany(tt.role, tt.callerCompany, tt.targetCompany))
		})
	}
}

func formContext(t *testing.T, values url.Values) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestParseJSONMapField(t *testing.T) {
	c := formContext(t, url.Values{"title_i18n": {`{"pt":"Engenheira","en":"Engineer"}`}})
	m, err := parseJSONMapField(c, "title_i18n")
	require.NoError(t, err)
	require.Equal(t, "Engenheira", m["pt"])

	c = formContext(t, url.Values{})
	m, err = parseJSONMapField(c, "title_i18n")
	require.NoError(t, err)
	require.Nil(t, m)

	c = formContext(t, url.Values{"title_i18n": {`["not","a","map"]`}})
	_, err = parseJSONMapField(c, "title_i18n")
	require.Error(t, err)
}

func TestParseBusinessHoursField(t *testing.T) {
	c := formContext(t, url.Values{"business_hours": {`{"monday":{"open":"08:00","close":"17:00"},"sunday":{"closed":true}}`}})
	h, err := parseBusinessHoursField(c, "business_hours")
	require.NoError(t, err)
	require.Equal(t, "08:00", h["monday"].Open)
	require.True(t, h["sunday"].Closed)

	c = formContext(t, url.Values{"business_hours": {`not json`}})
	_, err = parseBusinessHoursField(c, "business_hours")
	require.Error(t, err)
}

func TestCreateEmployeeRequiresCompanyForSuperAdmin(t *testing.T) {
	c := formContext(t, url.Values{"name": {"Maria Silva"}})
	c.Set("user_id", "u-1")
	c.Set("user_role", model.RoleSuperAdmin)

	require.NoError(t, CreateEmployee(c))
	rec := c.Response().Writer.(*httptest.ResponseRecorder)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "company_id")
}

func TestIsMissingColumn(t *testing.T) {
	require.True(t, isMissingColumn(errors.New(`ERROR: column "company_id" does not exist (SQLSTATE 42703)`)))
	require.True(t, isMissingColumn(errors.New("SQLSTATE 42703")))
	require.False(t, isMissingColumn(errors.New("connection refused")))
	require.False(t, isMissingColumn(nil))
}
