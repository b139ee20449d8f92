package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used for stored credentials
const DefaultBcryptCost = 12

// PasswordHasher hashes and verifies credential secrets
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hashed, plain string) bool
}

// BcryptHasher implements PasswordHasher with golang.org/x/crypto/bcrypt
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher with the given cost, clamped to bcrypt's bounds
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash returns the bcrypt hash of plain
func (h *BcryptHasher) Hash(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Compare reports whether plain matches hashed. An empty hash never matches.
func (h *BcryptHasher) Compare(hashed, plain string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
