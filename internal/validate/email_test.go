package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var corporateDomains = []string{"cfm.com", "cfm.co.mz"}

func TestIsAllowedEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected bool
	}{
		{
			name:     "primary domain",
			email:    "maria.silva@cfm.com",
			expected: true,
		},
		{
			name:     "secondary domain",
			email:    "maria.silva@cfm.co.mz",
			expected: true,
		},
		{
			name:     "domain comparison is case-insensitive",
			email:    "admin@CFM.COM",
			expected: true,
		},
		{
			name:     "valid address on foreign domain",
			email:    "admin@cfm.org",
			expected: false,
		},
		{
			name:     "subdomain is not the allowed domain",
			email:    "admin@mail.cfm.com",
			expected: false,
		},
		{
			name:     "missing local part",
			email:    "@cfm.com",
			expected: false,
		},
		{
			name:     "missing domain",
			email:    "admin@",
			expected: false,
		},
		{
			name:     "no at sign",
			email:    "admin.cfm.com",
			expected: false,
		},
		{
			name:     "empty",
			email:    "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, IsAllowedEmail(tt.email, corporateDomains))
		})
	}
}
