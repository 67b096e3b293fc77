package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{
			name:     "plain latin name",
			input:    "Maria Silva",
			expected: true,
		},
		{
			name:     "accented name",
			input:    "João Gonçalves",
			expected: true,
		},
		{
			name:     "apostrophe and hyphen",
			input:    "Anne-Marie O'Neil",
			expected: true,
		},
		{
			name:     "abbreviated middle name",
			input:    "Maria J. Silva",
			expected: true,
		},
		{
			name:     "non-latin script",
			input:    "李小龙",
			expected: true,
		},
		{
			name:     "digits rejected",
			input:    "Maria2 Silva",
			expected: false,
		},
		{
			name:     "too few letters",
			input:    "Jo",
			expected: false,
		},
		{
			name:     "punctuation only",
			input:    "...",
			expected: false,
		},
		{
			name:     "empty",
			input:    "",
			expected: false,
		},
		{
			name:     "emoji rejected",
			input:    "Maria 😀",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, IsValidName(tt.input))
		})
	}
}
