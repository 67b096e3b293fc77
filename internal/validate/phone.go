package validate

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// E.164 bounds: country code plus national number, 7 to 15 digits total
const (
	minE164Digits = 7
	maxE164Digits = 15
)

// nationalDigitCaps tightens validation beyond the library's metadata for
// countries where we know the national numbering plan's real ceiling. Keyed by
// ISO region code, value is the maximum national-number digit count.
var nationalDigitCaps = map[string]int{
	"MZ": 9,  // Mozambique
	"PT": 9,  // Portugal
	"AO": 9,  // Angola
	"ZA": 9,  // South Africa
	"ES": 9,  // Spain
	"FR": 9,  // France
	"US": 10, // United States
	"GB": 10, // United Kingdom
	"BR": 11, // Brazil
	"DE": 11, // Germany
}

// NormalizePhone strips everything except a leading + and digits. Returns the
// empty string when no digits remain.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || s == "+" {
		return ""
	}
	return s
}

// IsValidPhoneForCountry validates an E.164-formatted number. The library
// check runs first; the per-country digit cap and the overall 7-15 digit
// bound are applied on top as an extra tightening.
func IsValidPhoneForCountry(e164 string) bool {
	if !strings.HasPrefix(e164, "+") {
		return false
	}

	digits := strings.TrimPrefix(e164, "+")
	if len(digits) < minE164Digits || len(digits) > maxE164Digits {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}

	num, err := phonenumbers.Parse(e164, "")
	if err != nil {
		return false
	}
	if !phonenumbers.IsValidNumber(num) {
		return false
	}

	region := phonenumbers.GetRegionCodeForNumber(num)
	if maxDigits, ok := nationalDigitCaps[region]; ok {
		national := phonenumbers.GetNationalSignificantNumber(num)
		if len(national) > maxDigits {
			return false
		}
	}

	return true
}
