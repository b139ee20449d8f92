package validation

import (
	"regexp"
	"strings"
)

const (
	kenyaCountryCode  = "+254"
	kePhoneNormalized = 13
	kePhoneMinInput   = 9
)

var subscriberPattern = regexp.MustCompile(`^\d{9}$`)

// expandKePhone turns any accepted input shape into the +254 form without
// checking it. Lengths other than 9, 10 and 12 are returned unchanged.
func expandKePhone(value string) string {
	value = strings.Replace(strings.TrimSpace(value), " ", "", 1)
	switch len(value) {
	case 9:
		return kenyaCountryCode + value
	case 10:
		return kenyaCountryCode + value[1:]
	case 12:
		return "+" + value
	}
	return value
}

// IsKePhoneNo reports whether value is a Kenyan mobile number in one of the
// accepted shapes: 712345678, 0712345678, 254712345678 or +254712345678.
// The subscriber part must start with 7 or 1.
func IsKePhoneNo(value string) bool {
	if len(strings.TrimSpace(value)) < kePhoneMinInput {
		return false
	}
	value = expandKePhone(value)
	if !strings.HasPrefix(value, kenyaCountryCode) || len(value) != kePhoneNormalized {
		return false
	}
	subscriber := value[len(kenyaCountryCode):]
	if subscriber[0] != '7' && subscriber[0] != '1' {
		return false
	}
	return subscriberPattern.MatchString(subscriber)
}

// FormatKePhone returns the +254 form of value. It assumes value already
// passed IsKePhoneNo.
func FormatKePhone(value string) string {
	return expandKePhone(value)
}

// NormalizeKePhone validates and formats value in one step.
func NormalizeKePhone(value string) (string, bool) {
	if !IsKePhoneNo(value) {
		return "", false
	}
	return FormatKePhone(value), true
}
