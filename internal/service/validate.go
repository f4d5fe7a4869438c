package service

import (
	"strings"
)

// Field-level checks shared by the customer creation paths. Anything the
// binding tags can express stays in the tags; these cover the rest.

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validPhone accepts digits after stripping common separators (space, hyphen,
// parentheses) and a leading plus.
func validPhone(phone string) bool {
	cleaned := strings.NewReplacer("-", "", " ", "", "(", "", ")", "").Replace(phone)
	cleaned = strings.TrimPrefix(cleaned, "+")

	if cleaned == "" {
		return false
	}

	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

func trimPostalCode(code string) string {
	return strings.TrimSpace(code)
}

const defaultCountry = "US"

func countryOrDefault(country string) string {
	if country == "" {
		return defaultCountry
	}
	return country
}

const defaultListLimit = 50

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 200 {
		return defaultListLimit
	}
	return limit
}
