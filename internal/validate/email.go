package validate

import "strings"

// IsAllowedEmail accepts an address only when its domain is in the allow-list,
// compared case-insensitively. Everything else is rejected no matter how
// RFC-valid the address is.
func IsAllowedEmail(email string, allowedDomains []string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}

	local := email[:at]
	domain := strings.ToLower(email[at+1:])
	if local == "" || strings.ContainsAny(local, " \t") {
		return false
	}

	for _, allowed := range allowedDomains {
		if domain == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
