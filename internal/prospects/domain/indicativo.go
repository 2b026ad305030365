package domain

// ValidIndicativo reports whether a phone country code is a digit-only
// string of one to four characters. No leading plus sign.
func ValidIndicativo(indicativo string) bool {
	if len(indicativo) == 0 || len(indicativo) > 4 {
		return false
	}
	for _, r := range indicativo {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
