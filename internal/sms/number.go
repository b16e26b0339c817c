package sms

import "strings"

// NormalizeNumber converts a Philippine mobile number into the local
// 11-digit 09XXXXXXXXX form the gateway expects. Non-digits are stripped
// first; a 63 country prefix is removed, a bare 9XXXXXXXXX gets its leading
// zero back.
func NormalizeNumber(number string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()

	switch {
	case strings.HasPrefix(cleaned, "63"):
		return cleaned[2:]
	case strings.HasPrefix(cleaned, "09"):
		return cleaned
	case strings.HasPrefix(cleaned, "9") && len(cleaned) == 10:
		return "0" + cleaned
	case len(cleaned) == 11 && strings.HasPrefix(cleaned, "0"):
		return cleaned
	default:
		return "0" + cleaned
	}
}
