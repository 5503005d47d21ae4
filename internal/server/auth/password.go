package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost keeps hashing around a quarter second on current hardware.
const DefaultBcryptCost = 12

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher creates a hasher with the given cost; out-of-range
// values fall back to DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	h := &PasswordHasher{cost: cost}
	// Same cost as real hashes so a miss takes as long as a hit.
	h.dummy, _ = bcrypt.GenerateFromPassword([]byte("taskkeeper-dummy-password"), cost)
	return h
}

// Hash returns the salted bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches hash. Malformed hashes are a
// mismatch, never an error.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerifyDummy burns the same time as Verify and always reports false.
// Callers use it when the account does not exist.
func (h *PasswordHasher) VerifyDummy(password string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	return false
}
