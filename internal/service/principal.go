package service

import (
	"context"
	"errors"

	"github.com/greenvolt/loanhub/internal/apperrors"
	"github.com/greenvolt/loanhub/internal/auth"
	"github.com/greenvolt/loanhub/internal/authz"
	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/user"
)

// PrincipalResolver turns verified token claims into the principal the
// authorization engine works with, looking up the linked customer profile
// for customer-role accounts.
type PrincipalResolver struct {
	customers CustomerStore
}

func NewPrincipalResolver(customers CustomerStore) *PrincipalResolver {
	return &PrincipalResolver{customers: customers}
}

func (r *PrincipalResolver) Resolve(ctx context.Context, claims *auth.Claims) (authz.Principal, error) {
	if claims == nil || claims.UserID == "" {
		return authz.Principal{}, apperrors.Unauthenticated("Authentication required.")
	}

	role, err := user.ParseRole(claims.Role)

	if err != nil {
		return authz.Principal{}, apperrors.Unauthenticated("Invalid role claim.")
	}

	p := authz.Principal{
		UserID:    claims.UserID,
		Role:      role,
		Superuser: claims.Superuser,
	}

	if role == user.RoleCustomer {
		profile, err := r.customers.GetByUserID(ctx, claims.UserID)

		switch {
		case err == nil:
			p.ProfileID = profile.ID
		case errors.Is(err, customer.ErrNotFound):
			// no linked profile: a valid principal that can see nothing
		default:
			return authz.Principal{}, apperrors.Internal("could not resolve principal", err)
		}
	}

	return p, nil
}
