package validation

import (
	"regexp"
	"strings"
)

// Validation rule patterns
var (
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	NameMaxLength = 100
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email *regexp.Regexp
}{
	Email: regexp.MustCompile(EmailPattern),
}

// IsEmail reports whether value (already lowercased) looks like an email address.
func IsEmail(value string) bool {
	return CompiledPatterns.Email.MatchString(value)
}

// IsName reports whether a person name is present and within bounds.
func IsName(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && len(value) <= NameMaxLength
}
