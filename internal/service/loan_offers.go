package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/greenvolt/loanhub/internal/apperrors"
	"github.com/greenvolt/loanhub/internal/authz"
	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/loanoffer"
	"github.com/greenvolt/loanhub/internal/finance"
	"github.com/shopspring/decimal"
)

// OfferCache is a read-through cache for single-offer fetches. Implementations
// must be safe for concurrent use; a nil cache disables caching.
type OfferCache interface {
	Get(ctx context.Context, id string) (loanoffer.LoanOffer, bool)
	Set(ctx context.Context, o loanoffer.LoanOffer)
	Invalidate(ctx context.Context, id string)
}

type LoanOffers struct {
	store     LoanOfferStore
	customers CustomerStore
	cache     OfferCache
}

func NewLoanOffers(store LoanOfferStore, customers CustomerStore, cache OfferCache) *LoanOffers {
	return &LoanOffers{store: store, customers: customers, cache: cache}
}

// terms is the parsed and range-checked financial input of a request.
type terms struct {
	amount decimal.Decimal
	rate   decimal.Decimal
	term   int
	status loanoffer.Status
}

func (s *LoanOffers) parseTerms(ctx context.Context, req loanoffer.CreateLoanOfferRequest) (terms, error) {
	fields := map[string]string{}

	var t terms
	var err error

	t.amount, err = decimal.NewFromString(req.LoanAmount)

	switch {
	case err != nil:
		fields["loanAmount"] = "Loan amount must be a decimal number."
	case t.amount.Sign() <= 0:
		fields["loanAmount"] = "Loan amount must be greater than zero."
	case t.amount.GreaterThan(loanoffer.MaxLoanAmount):
		fields["loanAmount"] = "Loan amount cannot exceed 1,000,000.00."
	}

	t.rate, err = decimal.NewFromString(req.InterestRate)

	switch {
	case err != nil:
		fields["interestRate"] = "Interest rate must be a decimal number."
	case t.rate.Sign() < 0:
		fields["interestRate"] = "Interest rate cannot be negative. Use 0 for interest-free loans."
	case t.rate.GreaterThan(loanoffer.MaxInterestRate):
		fields["interestRate"] = "Interest rate cannot exceed 50%."
	}

	t.term = req.LoanTerm

	switch {
	case t.term < 1:
		fields["loanTerm"] = "Loan term must be at least 1 month."
	case t.term > loanoffer.MaxLoanTermMonths:
		fields["loanTerm"] = "Loan term cannot exceed 360 months (30 years)."
	}

	t.status = loanoffer.StatusPending

	if req.Status != "" {
		t.status, err = loanoffer.ParseStatus(req.Status)

		if err != nil {
			fields["status"] = "Unknown status."
		}
	}

	// the customer reference must resolve before anything is written
	_, err = s.customers.GetByID(ctx, req.CustomerID)

	switch {
	case errors.Is(err, customer.ErrNotFound):
		fields["customerId"] = "Customer not found."
	case err != nil:
		return terms{}, apperrors.Internal("could not validate customer reference", err)
	}

	if len(fields) > 0 {
		return terms{}, apperrors.Validation(fields)
	}

	return t, nil
}

func (s *LoanOffers) Create(ctx context.Context, actor authz.Principal, req loanoffer.CreateLoanOfferRequest) (loanoffer.LoanOffer, error) {
	if err := authz.CanMutate(actor); err != nil {
		return loanoffer.LoanOffer{}, err
	}

	t, err := s.parseTerms(ctx, req)

	if err != nil {
		return loanoffer.LoanOffer{}, err
	}

	monthly, err := finance.MonthlyPayment(t.amount, t.rate, t.term)

	if err != nil {
		// range checks above make this unreachable for valid input
		return loanoffer.LoanOffer{}, apperrors.Internal("payment calculation failed", err)
	}

	now := time.Now().UTC()
	createdBy := actor.UserID

	o := loanoffer.LoanOffer{
		ID:             uuid.NewString(),
		CustomerID:     req.CustomerID,
		LoanAmount:     t.amount,
		InterestRate:   t.rate,
		LoanTerm:       t.term,
		MonthlyPayment: monthly,
		Status:         t.status,
		CreatedBy:      &createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.store.Create(ctx, o)

	if err != nil {
		return loanoffer.LoanOffer{}, apperrors.Internal("could not create loan offer", err)
	}

	return created, nil
}

func (s *LoanOffers) Get(ctx context.Context, actor authz.Principal, id string) (loanoffer.LoanOffer, error) {
	if !actor.Authenticated() {
		return loanoffer.LoanOffer{}, apperrors.Unauthenticated("Authentication required.")
	}

	o, ok := s.cacheGet(ctx, id)

	if !ok {
		var err error
		o, err = s.store.GetByID(ctx, id)

		if err != nil {
			if errors.Is(err, loanoffer.ErrNotFound) {
				return loanoffer.LoanOffer{}, apperrors.NotFound("Loan offer not found.")
			}
			return loanoffer.LoanOffer{}, apperrors.Internal("could not fetch loan offer", err)
		}

		s.cacheSet(ctx, o)
	}

	if err := authz.CanRead(actor, o); err != nil {
		return loanoffer.LoanOffer{}, err
	}

	return o, nil
}

func (s *LoanOffers) List(ctx context.Context, actor authz.Principal, filter loanoffer.ListLoanOffersFilter) ([]loanoffer.LoanOffer, int, error) {
	scope, err := authz.ListScope(actor)

	if err != nil {
		return nil, 0, err
	}

	filter.Limit = limitOrDefault(filter.Limit)

	switch scope {
	case authz.ScopeAll:
		// keep the caller's filter as-is
	case authz.ScopeOwn:
		// pin the filter to the principal's own profile regardless of what
		// the request asked for
		own := actor.ProfileID
		filter.CustomerID = &own
	default:
		return []loanoffer.LoanOffer{}, 0, nil
	}

	out, total, err := s.store.List(ctx, filter)

	if err != nil {
		return nil, 0, apperrors.Internal("could not list loan offers", err)
	}

	return out, total, nil
}

func (s *LoanOffers) Update(ctx context.Context, actor authz.Principal, id string, req loanoffer.UpdateLoanOfferRequest) (loanoffer.LoanOffer, error) {
	if err := authz.CanMutate(actor); err != nil {
		return loanoffer.LoanOffer{}, err
	}

	existing, err := s.store.GetByID(ctx, id)

	if err != nil {
		if errors.Is(err, loanoffer.ErrNotFound) {
			return loanoffer.LoanOffer{}, apperrors.NotFound("Loan offer not found.")
		}
		return loanoffer.LoanOffer{}, apperrors.Internal("could not fetch loan offer", err)
	}

	t, err := s.parseTerms(ctx, req)

	if err != nil {
		return loanoffer.LoanOffer{}, err
	}

	// an update that restates only the financial terms keeps the stored
	// status; PENDING is the default for new offers, not for edits
	if req.Status == "" {
		t.status = existing.Status
	}

	// the monthly payment is derived state: recomputed here and persisted in
	// the same statement as its inputs
	monthly, err := finance.MonthlyPayment(t.amount, t.rate, t.term)

	if err != nil {
		return loanoffer.LoanOffer{}, apperrors.Internal("payment calculation failed", err)
	}

	updated, err := s.store.Update(ctx, id, loanoffer.LoanOffer{
		CustomerID:     req.CustomerID,
		LoanAmount:     t.amount,
		InterestRate:   t.rate,
		LoanTerm:       t.term,
		MonthlyPayment: monthly,
		Status:         t.status,
	})

	if err != nil {
		if errors.Is(err, loanoffer.ErrNotFound) {
			return loanoffer.LoanOffer{}, apperrors.NotFound("Loan offer not found.")
		}
		return loanoffer.LoanOffer{}, apperrors.Internal("could not update loan offer", err)
	}

	s.cacheInvalidate(ctx, id)

	return updated, nil
}

func (s *LoanOffers) Delete(ctx context.Context, actor authz.Principal, id string) error {
	if err := authz.CanMutate(actor); err != nil {
		return err
	}

	err := s.store.Delete(ctx, id)

	switch {
	case err == nil:
		s.cacheInvalidate(ctx, id)
		return nil
	case errors.Is(err, loanoffer.ErrNotFound):
		return apperrors.NotFound("Loan offer not found.")
	default:
		return apperrors.Internal("could not delete loan offer", err)
	}
}

func (s *LoanOffers) cacheGet(ctx context.Context, id string) (loanoffer.LoanOffer, bool) {
	if s.cache == nil {
		return loanoffer.LoanOffer{}, false
	}
	return s.cache.Get(ctx, id)
}

func (s *LoanOffers) cacheSet(ctx context.Context, o loanoffer.LoanOffer) {
	if s.cache != nil {
		s.cache.Set(ctx, o)
	}
}

func (s *LoanOffers) cacheInvalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}
