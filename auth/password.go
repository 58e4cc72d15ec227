package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/aanooo/erp-system/models"
)

// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
const MaxPasswordLength = 72

// DefaultBcryptCost is used by NewPasswordHasher.
const DefaultBcryptCost = 12

var (
	ErrPasswordRequired = fmt.Errorf("%w: password is required", models.ErrValidation)
	ErrPasswordTooLong  = fmt.Errorf("%w: password exceeds %d bytes", models.ErrValidation, MaxPasswordLength)
)

// PasswordHasher stores account passwords as bcrypt hashes.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: DefaultBcryptCost}
}

// NewPasswordHasherWithCost is meant for tests, where a low cost keeps them
// fast.
func NewPasswordHasherWithCost(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Validate reports whether password can be stored. Failures wrap
// models.ErrValidation.
func (h *PasswordHasher) Validate(password string) error {
	switch {
	case password == "":
		return ErrPasswordRequired
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if err := h.Validate(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares password with a stored hash. Passwords that could never
// have been stored do not match.
func (h *PasswordHasher) Verify(password, hash string) bool {
	if len(password) > MaxPasswordLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
