package locale

import "card-service/internal/model"

// Default is the locale injected when a request carries none.
const Default = "en"

// supported is the fixed set of locales public pages are served in.
var supported = map[string]bool{
	"en": true,
	"pt": true,
	"es": true,
	"fr": true,
	"de": true,
	"it": true,
	"zh": true,
	"ja": true,
	"ar": true,
	"ru": true,
}

// rtl lists locales rendered right-to-left. he/fa/ur are kept even though they
// are not currently in the supported set.
var rtl = map[string]bool{
	"ar": true,
	"he": true,
	"fa": true,
	"ur": true,
}

// IsSupported reports whether code is a serveable locale
func IsSupported(code string) bool {
	return supported[code]
}

// IsRTL reports whether code renders right-to-left
func IsRTL(code string) bool {
	return rtl[code]
}

// Supported returns the supported locale codes
func Supported() []string {
	codes := make([]string, 0, len(supported))
	for code := range supported {
		codes = append(codes, code)
	}
	return codes
}

// DashboardPath maps a user role to its dashboard path (without locale
// prefix). Unrecognized roles land on signin, never on a dashboard.
func DashboardPath(role string) string {
	switch role {
	case model.RoleSuperAdmin:
		return "/dashboard/admin"
	case model.RoleCompanyAdmin:
		return "/dashboard/company"
	case model.RoleEmployee:
		return "/dashboard/employee"
	default:
		return "/signin"
	}
}
