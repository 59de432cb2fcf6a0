// Package phone normalizes and validates phone numbers on lead intake.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Numbers without a country prefix are assumed Dutch.
const defaultRegion = "NL"

// NormalizeE164 formats a phone number to E.164. Input that does not
// parse as a valid number is returned trimmed but otherwise untouched,
// so the raw value is still stored for an admin to follow up on.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Valid reports whether the input parses as a dialable phone number.
func Valid(input string) bool {
	number, err := phonenumbers.Parse(strings.TrimSpace(input), defaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(number)
}
