// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Dedup matching is exact-string on the stored number; these helpers only
// build display artifacts (WhatsApp links) and never rewrite stored values.

// FullNumber joins a digit-only country code with a local number, stripping
// spaces and dashes from the local part. Returns "" when the local part is empty.
func FullNumber(countryCode, number string) string {
	local := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(number))
	if local == "" {
		return ""
	}
	code := strings.TrimSpace(countryCode)
	if code == "" {
		code = "57"
	}
	return code + local
}

// WhatsAppLink builds a wa.me link for the given country code and number.
// Returns "" when the number is empty.
func WhatsAppLink(countryCode, number string) string {
	full := FullNumber(countryCode, number)
	if full == "" {
		return ""
	}
	return "https://wa.me/" + full
}

// IsPlausible reports whether the combined number parses as a possible phone
// number. Used for advisory UI hints only; it never blocks a write.
func IsPlausible(countryCode, number string) bool {
	full := FullNumber(countryCode, number)
	if full == "" {
		return false
	}
	parsed, err := phonenumbers.Parse("+"+full, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(parsed)
}
