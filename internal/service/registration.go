package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/greenvolt/loanhub/internal/apperrors"
	"github.com/greenvolt/loanhub/internal/authz"
	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/user"
	"github.com/greenvolt/loanhub/internal/security"
)

const selfRegistrationDisabledMsg = "Customer self-registration is disabled in production. " +
	"Please contact an installer to create your account."

// Registration owns the account-creation paths: plain user sign-up, the
// dev-only self-service customer registration, and installer creation.
type Registration struct {
	users      UserStore
	customers  CustomerStore
	production bool
}

func NewRegistration(users UserStore, customers CustomerStore, production bool) *Registration {
	return &Registration{users: users, customers: customers, production: production}
}

func (s *Registration) checkUserUniqueness(ctx context.Context, email, username string, fields map[string]string) error {
	_, err := s.users.GetByEmail(ctx, email)

	switch {
	case err == nil:
		fields["email"] = "A user with this email already exists."
	case !errors.Is(err, user.ErrNotFound):
		return apperrors.Internal("could not validate email", err)
	}

	_, err = s.users.GetByUsername(ctx, username)

	switch {
	case err == nil:
		fields["username"] = "A user with this username already exists."
	case !errors.Is(err, user.ErrNotFound):
		return apperrors.Internal("could not validate username", err)
	}

	return nil
}

func (s *Registration) createAccount(ctx context.Context, req user.RegisterRequest, role user.Role) (user.User, error) {
	fields := map[string]string{}

	req.Email = normalizeEmail(req.Email)

	if req.Password != req.PasswordConfirm {
		fields["passwordConfirm"] = "Password fields didn't match."
	}

	if err := s.checkUserUniqueness(ctx, req.Email, req.Username, fields); err != nil {
		return user.User{}, err
	}

	if len(fields) > 0 {
		return user.User{}, apperrors.Validation(fields)
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		return user.User{}, apperrors.Internal("could not hash password", err)
	}

	now := time.Now().UTC()

	created, err := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	if err != nil {
		return user.User{}, mapUserStoreErr(err)
	}

	return created, nil
}

// RegisterUser creates a customer-role login without a customer profile.
func (s *Registration) RegisterUser(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	return s.createAccount(ctx, req, user.RoleCustomer)
}

// CreateInstaller is the one operation the bootstrap superuser can always
// perform.
func (s *Registration) CreateInstaller(ctx context.Context, actor authz.Principal, req user.CreateInstallerRequest) (user.User, error) {
	if err := authz.CanCreateInstaller(actor); err != nil {
		return user.User{}, err
	}

	return s.createAccount(ctx, req, user.RoleInstaller)
}

// RegisterCustomer creates login and profile atomically. Outside production
// only; in production it returns a fixed disabled response.
func (s *Registration) RegisterCustomer(ctx context.Context, req customer.SelfRegistrationRequest) (user.User, customer.Customer, error) {
	if s.production {
		return user.User{}, customer.Customer{}, apperrors.Disabled(selfRegistrationDisabledMsg)
	}

	fields := map[string]string{}

	req.Email = normalizeEmail(req.Email)
	req.PostalCode = trimPostalCode(req.PostalCode)
	req.Country = countryOrDefault(req.Country)

	if req.Password != req.PasswordConfirm {
		fields["password"] = "Passwords do not match."
	}

	if req.PostalCode == "" {
		fields["postalCode"] = "Postal code is required."
	}

	if req.PhoneNumber != "" && !validPhone(req.PhoneNumber) {
		fields["phoneNumber"] = "Phone number must contain only digits and separators."
	}

	// email must be free in both tables, independently
	_, err := s.users.GetByEmail(ctx, req.Email)

	switch {
	case err == nil:
		fields["email"] = "User with this email already exists."
	case !errors.Is(err, user.ErrNotFound):
		return user.User{}, customer.Customer{}, apperrors.Internal("could not validate email", err)
	}

	_, err = s.customers.GetByEmail(ctx, req.Email)

	switch {
	case err == nil:
		fields["email"] = "Customer with this email already exists."
	case !errors.Is(err, customer.ErrNotFound):
		return user.User{}, customer.Customer{}, apperrors.Internal("could not validate email", err)
	}

	if len(fields) > 0 {
		return user.User{}, customer.Customer{}, apperrors.Validation(fields)
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		return user.User{}, customer.Customer{}, apperrors.Internal("could not hash password", err)
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     req.Email,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         user.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	c := customer.Customer{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.customers.CreateWithUser(ctx, c, u)

	if err != nil {
		return user.User{}, customer.Customer{}, mapCustomerStoreErr(err)
	}

	return u, created, nil
}

// CurrentUser returns the acting account's own record.
func (s *Registration) CurrentUser(ctx context.Context, actor authz.Principal) (user.User, error) {
	if !actor.Authenticated() {
		return user.User{}, apperrors.Unauthenticated("Authentication required.")
	}

	u, err := s.users.GetByID(ctx, actor.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, apperrors.NotFound("User not found.")
		}
		return user.User{}, apperrors.Internal("could not fetch user", err)
	}

	return u, nil
}

// UpdateCurrentUser edits the acting account's own profile. Role is never
// touched here; no operation changes role after assignment.
func (s *Registration) UpdateCurrentUser(ctx context.Context, actor authz.Principal, req user.UpdateProfileRequest) (user.User, error) {
	if !actor.Authenticated() {
		return user.User{}, apperrors.Unauthenticated("Authentication required.")
	}

	req.Email = normalizeEmail(req.Email)

	updated, err := s.users.UpdateProfile(ctx, actor.UserID, req.Username, req.Email, req.FirstName, req.LastName)

	if err != nil {
		return user.User{}, mapUserStoreErr(err)
	}

	return updated, nil
}

func mapUserStoreErr(err error) error {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return apperrors.NotFound("User not found.")
	case errors.Is(err, user.ErrEmailTaken):
		return apperrors.Conflict("A user with this email already exists.")
	case errors.Is(err, user.ErrUsernameTaken):
		return apperrors.Conflict("A user with this username already exists.")
	default:
		return apperrors.Internal("user store failure", err)
	}
}
