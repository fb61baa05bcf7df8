package auth

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 12

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a candidate password.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Hasher implements domain.PasswordHasher with bcrypt.
type Hasher struct{}

// Hash implements domain.PasswordHasher.
func (Hasher) Hash(password string) (string, error) { return HashPassword(password) }

// Compare implements domain.PasswordHasher.
func (Hasher) Compare(hash, password string) error { return CheckPassword(hash, password) }
