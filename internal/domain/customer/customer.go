package customer

import (
	"errors"
	"strings"
	"time"
)

type Customer struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	AddressLine1 string    `json:"addressLine1"`
	AddressLine2 string    `json:"addressLine2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postalCode"`
	Country      string    `json:"country"`
	// login account linked to this customer, nil until they register
	UserID *string `json:"userId,omitempty"`
	// installer who created the record, nil if that account was removed
	CreatedBy *string   `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

func (c Customer) FullAddress() string {
	parts := []string{c.AddressLine1, c.AddressLine2, c.City, c.State, c.PostalCode, c.Country}
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// OwnedBy reports whether the principal's linked profile is this record.
func (c Customer) OwnedBy(profileID string) bool {
	return profileID != "" && c.ID == profileID
}

var (
	ErrNotFound     = errors.New("customer not found")
	ErrEmailTaken   = errors.New("customer email already in use")
	ErrHasLoanOffer = errors.New("customer has loan offers")
)

type CreateCustomerRequest struct {
	FirstName    string `json:"firstName" binding:"required,max=100"`
	LastName     string `json:"lastName" binding:"required,max=100"`
	Email        string `json:"email" binding:"required,email"`
	PhoneNumber  string `json:"phoneNumber" binding:"omitempty,max=20"`
	AddressLine1 string `json:"addressLine1" binding:"required,max=255"`
	AddressLine2 string `json:"addressLine2" binding:"omitempty,max=255"`
	City         string `json:"city" binding:"required,max=100"`
	State        string `json:"state" binding:"required,max=100"`
	PostalCode   string `json:"postalCode" binding:"required,max=20"`
	Country      string `json:"country" binding:"omitempty,max=100"`
}

// Updates carry the same required surface as creates; partial updates are
// expressed by the client echoing current values.
type UpdateCustomerRequest = CreateCustomerRequest

// SelfRegistrationRequest creates a login account and a customer profile in
// one shot. Only accepted outside production deployments.
type SelfRegistrationRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
	FirstName       string `json:"firstName" binding:"required,max=100"`
	LastName        string `json:"lastName" binding:"required,max=100"`
	PhoneNumber     string `json:"phoneNumber" binding:"omitempty,max=20"`
	AddressLine1    string `json:"addressLine1" binding:"required,max=255"`
	AddressLine2    string `json:"addressLine2" binding:"omitempty,max=255"`
	City            string `json:"city" binding:"required,max=100"`
	State           string `json:"state" binding:"required,max=100"`
	PostalCode      string `json:"postalCode" binding:"required,max=20"`
	Country         string `json:"country" binding:"omitempty,max=100"`
}

// with pointers if optional, it will be nil
type ListCustomersFilter struct {
	Email  *string
	City   *string
	State  *string
	Limit  int
	Offset int
}
