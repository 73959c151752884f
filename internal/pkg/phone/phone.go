// Package phone normalizes Egyptian phone numbers and builds WhatsApp
// deep links for patient outreach.
package phone

import (
	"errors"
	"net/url"
	"strings"
)

var ErrEmptyNumber = errors.New("phone number is empty")

// DefaultCountryCode is prefixed to local numbers (Egypt)
const DefaultCountryCode = "20"

// Normalize converts a local Egyptian number into international form:
// strip every non-digit, drop a single leading zero, then prefix the
// country code. Numbers already starting with the country code are
// kept as-is.
//
//	"010 1234-5678"  -> "201012345678"
//	"201012345678"   -> "201012345678"
func Normalize(raw, countryCode string) (string, error) {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrEmptyNumber
	}

	if strings.HasPrefix(digits, countryCode) {
		return digits, nil
	}

	digits = strings.TrimPrefix(digits, "0")
	if digits == "" {
		return "", ErrEmptyNumber
	}

	return countryCode + digits, nil
}

// WhatsAppLink builds a wa.me deep link with a pre-filled message.
// The number must already be normalized.
func WhatsAppLink(normalized, message string) string {
	link := "https://wa.me/" + normalized
	if message != "" {
		link += "?text=" + url.QueryEscape(message)
	}
	return link
}
