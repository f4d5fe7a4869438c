package service

import (
	"context"

	"github.com/greenvolt/loanhub/internal/apperrors"
	"github.com/greenvolt/loanhub/internal/domain/user"
	"github.com/greenvolt/loanhub/internal/security"
)

// Auth verifies credentials. Token issuance and refresh rotation are a
// transport concern and live with the HTTP handlers.
type Auth struct {
	users UserStore
}

func NewAuth(users UserStore) *Auth {
	return &Auth{users: users}
}

// Authenticate accepts the account's username or email. Lookup failures and
// bad passwords are indistinguishable to the caller.
func (s *Auth) Authenticate(ctx context.Context, login, password string) (user.User, error) {
	invalid := apperrors.Unauthenticated("Username or password is incorrect.")

	u, err := s.users.GetByUsername(ctx, login)

	if err != nil {
		u, err = s.users.GetByEmail(ctx, login)
	}

	if err != nil {
		// burn a hash comparison so a missing account costs the same as a
		// wrong password
		security.CompareDummy(password)
		return user.User{}, invalid
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return user.User{}, invalid
	}

	return u, nil
}
