package security

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Accounts created by installers on a customer's behalf carry a login-disabled
// credential until the customer registers for real. The sentinel can never
// collide with a bcrypt hash.
const unusablePrefix = "!disabled!"

var ErrLoginDisabled = errors.New("login disabled for this account")

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// UnusablePassword returns a credential that fails every login attempt.
func UnusablePassword() string {
	return unusablePrefix
}

func IsUsable(hash string) bool {
	return !strings.HasPrefix(hash, unusablePrefix)
}

// CheckPassword compares a stored credential with a plaintext password.
func CheckPassword(hash, plain string) error {
	if !IsUsable(hash) {
		return ErrLoginDisabled
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// dummyHash is a bcrypt digest of a throwaway value, used to burn the same
// comparison cost when no account matched a login.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// CompareDummy runs a bcrypt comparison whose result is discarded, so a
// lookup miss takes as long as a wrong password.
func CompareDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
}
