package service

import (
	"context"

	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/loanoffer"
	"github.com/greenvolt/loanhub/internal/domain/user"
)

// Store interfaces are declared here, at the point of use, so the postgres
// and in-memory repositories can satisfy them without depending on this
// package.

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	UpdateProfile(ctx context.Context, id, username, email, firstName, lastName string) (user.User, error)
}

type CustomerStore interface {
	CreateWithUser(ctx context.Context, c customer.Customer, u user.User) (customer.Customer, error)
	GetByID(ctx context.Context, id string) (customer.Customer, error)
	GetByUserID(ctx context.Context, userID string) (customer.Customer, error)
	GetByEmail(ctx context.Context, email string) (customer.Customer, error)
	List(ctx context.Context, filter customer.ListCustomersFilter) ([]customer.Customer, int, error)
	Update(ctx context.Context, id string, c customer.Customer) (customer.Customer, error)
	Delete(ctx context.Context, id string) error
}

type LoanOfferStore interface {
	Create(ctx context.Context, o loanoffer.LoanOffer) (loanoffer.LoanOffer, error)
	GetByID(ctx context.Context, id string) (loanoffer.LoanOffer, error)
	List(ctx context.Context, filter loanoffer.ListLoanOffersFilter) ([]loanoffer.LoanOffer, int, error)
	Update(ctx context.Context, id string, o loanoffer.LoanOffer) (loanoffer.LoanOffer, error)
	Delete(ctx context.Context, id string) error
}
