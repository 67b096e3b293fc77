package locale

import (
	"testing"

	"card-service/internal/model"

	"github.com/stretchr/testify/require"
)

func TestIsSupported(t *testing.T) {
	for _, code := range []string{"en", "pt", "es", "fr", "de", "it", "zh", "ja", "ar", "ru"} {
		require.True(t, IsSupported(code), "expected %s to be supported", code)
	}
	for _, code := range []string{"", "he", "fa", "ur", "xx", "EN", "eng"} {
		require.False(t, IsSupported(code), "expected %s to be unsupported", code)
	}
}

func TestIsRTL(t *testing.T) {
	// he/fa/ur are in the RTL table even though they are not serveable locales
	for _, code := range []string{"ar", "he", "fa", "ur"} {
		require.True(t, IsRTL(code))
	}
	for _, code := range []string{"en", "pt", "ru", ""} {
		require.False(t, IsRTL(code))
	}
}

func TestDashboardPath(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected string
	}{
		{
			name:     "super admin",
			role:     model.RoleSuperAdmin,
			expected: "/dashboard/admin",
		},
		{
			name:     "company admin",
			role:     model.RoleCompanyAdmin,
			expected: "/dashboard/company",
		},
		{
			name:     "employee",
			role:     model.RoleEmployee,
			expected: "/dashboard/employee",
		},
		{
			name:     "unknown role falls back to signin",
			role:     "auditor",
			expected: "/signin",
		},
		{
			name:     "empty role falls back to signin",
			role:     "",
			expected: "/signin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, DashboardPath(tt.role))
		})
	}
}
