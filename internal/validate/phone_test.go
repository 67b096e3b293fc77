package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already normalized",
			input:    "+258841234567",
			expected: "+258841234567",
		},
		{
			name:     "spaces and dashes stripped",
			input:    "+258 84 123-4567",
			expected: "+258841234567",
		},
		{
			name:     "parentheses stripped",
			input:    "(415) 555-2671",
			expected: "4155552671",
		},
		{
			name:     "interior plus dropped",
			input:    "00+258841234567",
			expected: "00258841234567",
		},
		{
			name:     "no digits",
			input:    "call me",
			expected: "",
		},
		{
			name:     "lone plus",
			input:    "+",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestIsValidPhoneForCountry(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{
			name:     "valid mozambican mobile",
			input:    "+258841234567",
			expected: true,
		},
		{
			name:     "valid portuguese mobile",
			input:    "+351912345678",
			expected: true,
		},
		{
			name:     "valid us number",
			input:    "+14155552671",
			expected: true,
		},
		{
			name:     "mozambican number with too many national digits",
			input:    "+2588412345678",
			expected: false,
		},
		{
			name:     "missing plus prefix",
			input:    "258841234567",
			expected: false,
		},
		{
			name:     "too few digits",
			input:    "+12345",
			expected: false,
		},
		{
			name:     "too many digits overall",
			input:    "+1234567890123456",
			expected: false,
		},
		{
			name:     "non-digit characters",
			input:    "+25884ABCDEF",
			expected: false,
		},
		{
			name:     "empty",
			input:    "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, IsValidPhoneForCountry(tt.input))
		})
	}
}
