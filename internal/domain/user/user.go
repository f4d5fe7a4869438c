package user

import (
	"errors"
	"time"
)

// Role is a closed enumeration. Every switch over it must handle both
// variants plus a default that rejects unknown values.
type Role string

const (
	RoleInstaller Role = "INSTALLER"
	RoleCustomer  Role = "CUSTOMER"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleInstaller:
		return RoleInstaller, nil
	case RoleCustomer:
		return RoleCustomer, nil
	default:
		return "", errors.New("unknown role: " + s)
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Role         Role      `json:"role"`
	Superuser    bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) IsInstaller() bool {
	return u.Role == RoleInstaller
}

func (u User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("user email already in use")
	ErrUsernameTaken = errors.New("username already in use")
)

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=150"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

// Installer accounts are created through the same payload; only the
// resulting role differs.
type CreateInstallerRequest = RegisterRequest

type UpdateProfileRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"omitempty,max=150"`
	LastName  string `json:"lastName" binding:"omitempty,max=150"`
}
