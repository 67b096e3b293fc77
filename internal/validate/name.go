package validate

import "unicode"

// minNameLetters rejects near-empty input like "x." or "12"
const minNameLetters = 3

// IsValidName accepts letters in any script, combining marks, spaces, periods,
// hyphens and apostrophes, and requires at least three letters overall.
func IsValidName(name string) bool {
	letters := 0
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsMark(r):
		case r == ' ' || r == '.' || r == '-' || r == '\'':
		default:
			return false
		}
	}
	return letters >= minNameLetters
}
