package helpers

import "strings"

// NullableString returns nil for blank input so optional columns are stored as NULL.
func NullableString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences s, treating nil as "".
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FullName joins first and last names the way listings display them.
func FullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
