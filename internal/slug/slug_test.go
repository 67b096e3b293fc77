package slug

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var slugShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple name",
			input:    "Maria Silva",
			expected: "maria-silva",
		},
		{
			name:     "diacritics stripped",
			input:    "João Gonçalves",
			expected: "joao-goncalves",
		},
		{
			name:     "punctuation becomes separators",
			input:    "O'Neil, Jr.",
			expected: "o-neil-jr",
		},
		{
			name:     "already a slug",
			input:    "maria-silva",
			expected: "maria-silva",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			require.Equal(t, tt.expected, got)
			require.Regexp(t, slugShape, got)
		})
	}
}

func TestGenerateNeverEmpty(t *testing.T) {
	// Input that normalizes to nothing still yields a usable slug
	for _, input := range []string{"!!!", "   ", "###"} {
		got := Generate(input)
		require.NotEmpty(t, got)
		require.Regexp(t, slugShape, got)
	}
}

func TestUniqueNoCollision(t *testing.T) {
	got, err := Unique("maria-silva", func(string) (bool, error) { return false, nil })
	require.NoError(t, err)
	require.Equal(t, "maria-silva", got)
}

func TestUniqueNumericSuffix(t *testing.T) {
	taken := map[string]bool{"maria-silva": true, "maria-silva-1": true}
	got, err := Unique("maria-silva", func(s string) (bool, error) { return taken[s], nil })
	require.NoError(t, err)
	require.Equal(t, "maria-silva-2", got)
}

func TestUniqueFallsBackToRandom(t *testing.T) {
	calls := 0
	got, err := Unique("maria-silva", func(s string) (bool, error) {
		calls++
		// base and all numeric suffixes are taken, random ones are free
		return calls <= 1+numericAttempts, nil
	})
	require.NoError(t, err)
	require.NotEqual(t, "maria-silva", got)
	require.Regexp(t, `^maria-silva-[0-9a-f]{6}$`, got)
}

func TestUniqueTerminates(t *testing.T) {
	_, err := Unique("maria-silva", func(string) (bool, error) { return true, nil })
	require.Error(t, err)
}

func TestUniquePropagatesProbeError(t *testing.T) {
	probeErr := errors.New("connection refused")
	_, err := Unique("maria-silva", func(string) (bool, error) { return false, probeErr })
	require.ErrorIs(t, err, probeErr)
}

func TestResuffix(t *testing.T) {
	a := Resuffix("maria-silva")
	b := Resuffix("maria-silva")
	require.Regexp(t, `^maria-silva-[0-9a-f]{6}$`, a)
	require.NotEqual(t, a, b)
}
