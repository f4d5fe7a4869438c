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

// Customers implements the customer operations. Every method takes the
// acting principal; the authorization engine gates access before any
// validation or store call.
type Customers struct {
	store CustomerStore
	users UserStore
}

func NewCustomers(store CustomerStore, users UserStore) *Customers {
	return &Customers{store: store, users: users}
}

func (s *Customers) validateFields(ctx context.Context, req customer.CreateCustomerRequest, excludeID string) (customer.CreateCustomerRequest, error) {
	fields := map[string]string{}

	req.Email = normalizeEmail(req.Email)
	req.PostalCode = trimPostalCode(req.PostalCode)
	req.Country = countryOrDefault(req.Country)

	if req.PostalCode == "" {
		fields["postalCode"] = "Postal code is required."
	}

	if req.PhoneNumber != "" && !validPhone(req.PhoneNumber) {
		fields["phoneNumber"] = "Phone number must contain only digits and separators."
	}

	// email uniqueness is checked against both the customer and user tables;
	// the unique indexes remain the backstop for concurrent creates
	existing, err := s.store.GetByEmail(ctx, req.Email)

	switch {
	case err == nil && existing.ID != excludeID:
		fields["email"] = "A customer with this email already exists."
	case err != nil && !errors.Is(err, customer.ErrNotFound):
		return req, apperrors.Internal("could not validate email", err)
	}

	if excludeID == "" {
		_, err = s.users.GetByEmail(ctx, req.Email)

		switch {
		case err == nil:
			fields["email"] = "A user with this email already exists."
		case !errors.Is(err, user.ErrNotFound):
			return req, apperrors.Internal("could not validate email", err)
		}
	}

	if len(fields) > 0 {
		return req, apperrors.Validation(fields)
	}

	return req, nil
}

// Create makes the customer record and its login-disabled backing account in
// one transaction.
func (s *Customers) Create(ctx context.Context, actor authz.Principal, req customer.CreateCustomerRequest) (customer.Customer, error) {
	if err := authz.CanMutate(actor); err != nil {
		return customer.Customer{}, err
	}

	req, err := s.validateFields(ctx, req, "")

	if err != nil {
		return customer.Customer{}, err
	}

	now := time.Now().UTC()

	backing := user.User{
		ID:           uuid.NewString(),
		Username:     req.Email,
		Email:        req.Email,
		PasswordHash: security.UnusablePassword(),
		Role:         user.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	createdBy := actor.UserID

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
		CreatedBy:    &createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.store.CreateWithUser(ctx, c, backing)

	if err != nil {
		return customer.Customer{}, mapCustomerStoreErr(err)
	}

	return created, nil
}

func (s *Customers) Get(ctx context.Context, actor authz.Principal, id string) (customer.Customer, error) {
	if !actor.Authenticated() {
		return customer.Customer{}, apperrors.Unauthenticated("Authentication required.")
	}

	c, err := s.store.GetByID(ctx, id)

	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return customer.Customer{}, apperrors.NotFound("Customer not found.")
		}
		return customer.Customer{}, apperrors.Internal("could not fetch customer", err)
	}

	// the record exists: a failed ownership check is forbidden, not not-found
	if err := authz.CanRead(actor, c); err != nil {
		return customer.Customer{}, err
	}

	return c, nil
}

func (s *Customers) List(ctx context.Context, actor authz.Principal, filter customer.ListCustomersFilter) ([]customer.Customer, int, error) {
	scope, err := authz.ListScope(actor)

	if err != nil {
		return nil, 0, err
	}

	filter.Limit = limitOrDefault(filter.Limit)

	switch scope {
	case authz.ScopeAll:
		out, total, err := s.store.List(ctx, filter)

		if err != nil {
			return nil, 0, apperrors.Internal("could not list customers", err)
		}
		return out, total, nil

	case authz.ScopeOwn:
		own, err := s.store.GetByID(ctx, actor.ProfileID)

		if err != nil {
			if errors.Is(err, customer.ErrNotFound) {
				return []customer.Customer{}, 0, nil
			}
			return nil, 0, apperrors.Internal("could not list customers", err)
		}

		if !matchesCustomerFilter(own, filter) {
			return []customer.Customer{}, 0, nil
		}

		return []customer.Customer{own}, 1, nil

	default:
		return []customer.Customer{}, 0, nil
	}
}

func matchesCustomerFilter(c customer.Customer, filter customer.ListCustomersFilter) bool {
	if filter.Email != nil && c.Email != *filter.Email {
		return false
	}
	if filter.City != nil && c.City != *filter.City {
		return false
	}
	if filter.State != nil && c.State != *filter.State {
		return false
	}
	return true
}

func (s *Customers) Update(ctx context.Context, actor authz.Principal, id string, req customer.UpdateCustomerRequest) (customer.Customer, error) {
	if err := authz.CanMutate(actor); err != nil {
		return customer.Customer{}, err
	}

	if _, err := s.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return customer.Customer{}, apperrors.NotFound("Customer not found.")
		}
		return customer.Customer{}, apperrors.Internal("could not fetch customer", err)
	}

	req, err := s.validateFields(ctx, req, id)

	if err != nil {
		return customer.Customer{}, err
	}

	updated, err := s.store.Update(ctx, id, customer.Customer{
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
	})

	if err != nil {
		return customer.Customer{}, mapCustomerStoreErr(err)
	}

	return updated, nil
}

func (s *Customers) Delete(ctx context.Context, actor authz.Principal, id string) error {
	if err := authz.CanMutate(actor); err != nil {
		return err
	}

	err := s.store.Delete(ctx, id)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, customer.ErrNotFound):
		return apperrors.NotFound("Customer not found.")
	case errors.Is(err, customer.ErrHasLoanOffer):
		return apperrors.Conflict("Customer cannot be deleted while loan offers exist.")
	default:
		return apperrors.Internal("could not delete customer", err)
	}
}

func mapCustomerStoreErr(err error) error {
	switch {
	case errors.Is(err, customer.ErrNotFound):
		return apperrors.NotFound("Customer not found.")
	case errors.Is(err, customer.ErrEmailTaken):
		return apperrors.Conflict("A customer with this email already exists.")
	case errors.Is(err, user.ErrEmailTaken):
		return apperrors.Conflict("A user with this email already exists.")
	case errors.Is(err, user.ErrUsernameTaken):
		return apperrors.Conflict("Username already in use.")
	default:
		return apperrors.Internal("customer store failure", err)
	}
}
