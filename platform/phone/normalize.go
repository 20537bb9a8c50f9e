// Package phone normalizes contact phone numbers.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// defaultRegion is assumed for numbers written without a country prefix.
const defaultRegion = "US"

// NormalizeE164 formats a phone number to E.164 on a best-effort basis.
// Input that cannot be parsed as a valid number is returned trimmed but
// otherwise untouched, so a lead's raw contact data is never lost.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
