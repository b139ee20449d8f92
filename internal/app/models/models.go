package models

import "strings"

// CredentialType identifies which roster a login credential belongs to
type CredentialType string

const (
	CredentialAdmin      CredentialType = "Admin"
	CredentialStudent    CredentialType = "Student"
	CredentialSupervisor CredentialType = "Supervisor"
)

// IsValid reports whether t is one of the known credential types
func (t CredentialType) IsValid() bool {
	switch t {
	case CredentialAdmin, CredentialStudent, CredentialSupervisor:
		return true
	}
	return false
}

// NormalizeNaturalKey trims and uppercases a registration or staff number
func NormalizeNaturalKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
