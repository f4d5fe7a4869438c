// Package authz is the single place access decisions are made. Handlers and
// services never compare roles directly; they ask this package.
package authz

import (
	"github.com/greenvolt/loanhub/internal/apperrors"
	"github.com/greenvolt/loanhub/internal/domain/user"
)

// Principal is the resolved, authenticated actor for one request. The zero
// value is the unauthenticated principal.
type Principal struct {
	UserID    string
	Role      user.Role
	Superuser bool
	// ProfileID is the customer record linked to a CUSTOMER principal's
	// account. Empty when the account has no linked profile.
	ProfileID string
}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// Owned is the ownership predicate each entity kind implements. Dispatch is
// static by entity type; no runtime type inspection.
type Owned interface {
	OwnedBy(profileID string) bool
}

// Scope narrows a list operation before any rows are read.
type Scope int

const (
	// ScopeAll: every record is visible.
	ScopeAll Scope = iota
	// ScopeOwn: only records owned by Principal.ProfileID are visible.
	ScopeOwn
	// ScopeNone: the result set is empty.
	ScopeNone
)

const (
	msgAuthRequired    = "Authentication required."
	msgInstallerOnly   = "Only installers can perform this action."
	msgNoPermission    = "You do not have permission to access this resource."
	msgSuperuserOrInst = "Only superusers and installers can perform this action."
)

// CanMutate gates create, update, and delete on customers and loan offers.
// Installers only; the superuser flag buys nothing here.
func CanMutate(p Principal) error {
	if !p.Authenticated() {
		return apperrors.Unauthenticated(msgAuthRequired)
	}

	switch p.Role {
	case user.RoleInstaller:
		return nil
	case user.RoleCustomer:
		return apperrors.Forbidden(msgInstallerOnly)
	default:
		return apperrors.Forbidden(msgInstallerOnly)
	}
}

// CanRead gates single-object reads. The object must already have been
// fetched: a denied check on an existing object is forbidden, not not-found.
func CanRead(p Principal, obj Owned) error {
	if !p.Authenticated() {
		return apperrors.Unauthenticated(msgAuthRequired)
	}

	switch p.Role {
	case user.RoleInstaller:
		return nil
	case user.RoleCustomer:
		if obj.OwnedBy(p.ProfileID) {
			return nil
		}
		return apperrors.Forbidden(msgNoPermission)
	default:
		return apperrors.Forbidden(msgNoPermission)
	}
}

// ListScope decides how far a list operation can see. A customer without a
// linked profile gets an empty result, not an error.
func ListScope(p Principal) (Scope, error) {
	if !p.Authenticated() {
		return ScopeNone, apperrors.Unauthenticated(msgAuthRequired)
	}

	switch p.Role {
	case user.RoleInstaller:
		return ScopeAll, nil
	case user.RoleCustomer:
		if p.ProfileID == "" {
			return ScopeNone, nil
		}
		return ScopeOwn, nil
	default:
		return ScopeNone, apperrors.Forbidden(msgNoPermission)
	}
}

// CanCreateInstaller is the one operation where superuser stands in for
// installer. The bootstrap account is otherwise an ordinary principal.
func CanCreateInstaller(p Principal) error {
	if !p.Authenticated() {
		return apperrors.Unauthenticated(msgAuthRequired)
	}

	if p.Superuser || p.Role == user.RoleInstaller {
		return nil
	}

	return apperrors.Forbidden(msgSuperuserOrInst)
}
