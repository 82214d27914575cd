package session

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialChecker decides whether a secret grants admin access.
type CredentialChecker interface {
	Check(secret string) bool
}

// StaticPassword compares the secret for plain equality.
type StaticPassword string

// Check implements CredentialChecker.
func (p StaticPassword) Check(secret string) bool {
	return secret == string(p)
}

// BcryptHash compares the secret against a bcrypt hash.
type BcryptHash string

// Check implements CredentialChecker.
func (h BcryptHash) Check(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(h), []byte(secret)) == nil
}

// HashCost is the bcrypt cost used by HashPassword.
const HashCost = 12

// HashPassword generates a bcrypt hash usable as a BcryptHash.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

// NewChecker returns a BcryptHash checker when hash is set, otherwise a
// StaticPassword for password.
func NewChecker(password, hash string) CredentialChecker {
	if hash != "" {
		return BcryptHash(hash)
	}
	return StaticPassword(password)
}
