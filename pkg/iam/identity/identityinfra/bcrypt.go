package identityinfra

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptPasswordService implements identity.PasswordService using bcrypt.
type BcryptPasswordService struct {
	cost int
}

// NewBcryptPasswordService creates a password service with the given cost.
// Cost values outside bcrypt's valid range fall back to the default.
func NewBcryptPasswordService(cost int) *BcryptPasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordService{cost: cost}
}

// Hash returns the bcrypt hash of the password.
func (s *BcryptPasswordService) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether the password matches the stored hash.
func (s *BcryptPasswordService) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
