package service

import (
	"context"

	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/loanoffer"
	"github.com/greenvolt/loanhub/internal/domain/user"
)

// DBObserver records latency and error class for a logical store operation.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

// InstrumentUserStore wraps a store so every call reports through obs. A nil
// observer returns the store unchanged.
func InstrumentUserStore(s UserStore, obs DBObserver) UserStore {
	if obs == nil {
		return s
	}
	return &instrumentedUsers{next: s, obs: obs}
}

func InstrumentCustomerStore(s CustomerStore, obs DBObserver) CustomerStore {
	if obs == nil {
		return s
	}
	return &instrumentedCustomers{next: s, obs: obs}
}

func InstrumentLoanOfferStore(s LoanOfferStore, obs DBObserver) LoanOfferStore {
	if obs == nil {
		return s
	}
	return &instrumentedLoanOffers{next: s, obs: obs}
}

type instrumentedUsers struct {
	next UserStore
	obs  DBObserver
}

func (s *instrumentedUsers) Create(ctx context.Context, u user.User) (user.User, error) {
	var out user.User
	err := s.obs.ObserveDB("users.create", func() error {
		var err error
		out, err = s.next.Create(ctx, u)
		return err
	})
	return out, err
}

func (s *instrumentedUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	var out user.User
	err := s.obs.ObserveDB("users.get_by_id", func() error {
		var err error
		out, err = s.next.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *instrumentedUsers) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var out user.User
	err := s.obs.ObserveDB("users.get_by_email", func() error {
		var err error
		out, err = s.next.GetByEmail(ctx, email)
		return err
	})
	return out, err
}

func (s *instrumentedUsers) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var out user.User
	err := s.obs.ObserveDB("users.get_by_username", func() error {
		var err error
		out, err = s.next.GetByUsername(ctx, username)
		return err
	})
	return out, err
}

func (s *instrumentedUsers) UpdateProfile(ctx context.Context, id, username, email, firstName, lastName string) (user.User, error) {
	var out user.User
	err := s.obs.ObserveDB("users.update_profile", func() error {
		var err error
		out, err = s.next.UpdateProfile(ctx, id, username, email, firstName, lastName)
		return err
	})
	return out, err
}

type instrumentedCustomers struct {
	next CustomerStore
	obs  DBObserver
}

func (s *instrumentedCustomers) CreateWithUser(ctx context.Context, c customer.Customer, u user.User) (customer.Customer, error) {
	var out customer.Customer
	err := s.obs.ObserveDB("customers.create_with_user", func() error {
		var err error
		out, err = s.next.CreateWithUser(ctx, c, u)
		return err
	})
	return out, err
}

func (s *instrumentedCustomers) GetByID(ctx context.Context, id string) (customer.Customer, error) {
	var out customer.Customer
	err := s.obs.ObserveDB("customers.get_by_id", func() error {
		var err error
		out, err = s.next.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *instrumentedCustomers) GetByUserID(ctx context.Context, userID string) (customer.Customer, error) {
	var out customer.Customer
	err := s.obs.ObserveDB("customers.get_by_user_id", func() error {
		var err error
		out, err = s.next.GetByUserID(ctx, userID)
		return err
	})
	return out, err
}

func (s *instrumentedCustomers) GetByEmail(ctx context.Context, email string) (customer.Customer, error) {
	var out customer.Customer
	err := s.obs.ObserveDB("customers.get_by_email", func() error {
		var err error
		out, err = s.next.GetByEmail(ctx, email)
		return err
	})
	return out, err
}

func (s *instrumentedCustomers) List(ctx context.Context, filter customer.ListCustomersFilter) ([]customer.Customer, int, error) {
	var out []customer.Customer
	var total int
	err := s.obs.ObserveDB("customers.list", func() error {
		var err error
		out, total, err = s.next.List(ctx, filter)
		return err
	})
	return out, total, err
}

func (s *instrumentedCustomers) Update(ctx context.Context, id string, c customer.Customer) (customer.Customer, error) {
	var out customer.Customer
	err := s.obs.ObserveDB("customers.update", func() error {
		var err error
		out, err = s.next.Update(ctx, id, c)
		return err
	})
	return out, err
}

func (s *instrumentedCustomers) Delete(ctx context.Context, id string) error {
	return s.obs.ObserveDB("customers.delete", func() error {
		return s.next.Delete(ctx, id)
	})
}

type instrumentedLoanOffers struct {
	next LoanOfferStore
	obs  DBObserver
}

func (s *instrumentedLoanOffers) Create(ctx context.Context, o loanoffer.LoanOffer) (loanoffer.LoanOffer, error) {
	var out loanoffer.LoanOffer
	err := s.obs.ObserveDB("loan_offers.create", func() error {
		var err error
		out, err = s.next.Create(ctx, o)
		return err
	})
	return out, err
}

func (s *instrumentedLoanOffers) GetByID(ctx context.Context, id string) (loanoffer.LoanOffer, error) {
	var out loanoffer.LoanOffer
	err := s.obs.ObserveDB("loan_offers.get_by_id", func() error {
		var err error
		out, err = s.next.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *instrumentedLoanOffers) List(ctx context.Context, filter loanoffer.ListLoanOffersFilter) ([]loanoffer.LoanOffer, int, error) {
	var out []loanoffer.LoanOffer
	var total int
	err := s.obs.ObserveDB("loan_offers.list", func() error {
		var err error
		out, total, err = s.next.List(ctx, filter)
		return err
	})
	return out, total, err
}

func (s *instrumentedLoanOffers) Update(ctx context.Context, id string, o loanoffer.LoanOffer) (loanoffer.LoanOffer, error) {
	var out loanoffer.LoanOffer
	err := s.obs.ObserveDB("loan_offers.update", func() error {
		var err error
		out, err = s.next.Update(ctx, id, o)
		return err
	})
	return out, err
}

func (s *instrumentedLoanOffers) Delete(ctx context.Context, id string) error {
	return s.obs.ObserveDB("loan_offers.delete", func() error {
		return s.next.Delete(ctx, id)
	})
}
