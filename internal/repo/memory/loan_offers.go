package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/greenvolt/loanhub/internal/domain/loanoffer"
)

type LoanOffersRepo struct {
	mu    sync.RWMutex
	items map[string]loanoffer.LoanOffer
}

func NewLoanOffersRepo() *LoanOffersRepo {
	return &LoanOffersRepo{
		items: make(map[string]loanoffer.LoanOffer),
	}
}

func (r *LoanOffersRepo) Create(ctx context.Context, o loanoffer.LoanOffer) (loanoffer.LoanOffer, error) {
	r.mu.Lock()
	r.items[o.ID] = o
	r.mu.Unlock()

	return o, nil
}

func (r *LoanOffersRepo) GetByID(ctx context.Context, id string) (loanoffer.LoanOffer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.items[id]
	if !ok {
		return loanoffer.LoanOffer{}, loanoffer.ErrNotFound
	}
	return o, nil
}

func (r *LoanOffersRepo) List(ctx context.Context, filter loanoffer.ListLoanOffersFilter) ([]loanoffer.LoanOffer, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]loanoffer.LoanOffer, 0, len(r.items))

	for _, o := range r.items {
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		matched = append(matched, o)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Limit, filter.Offset)
}

func (r *LoanOffersRepo) Update(ctx context.Context, id string, o loanoffer.LoanOffer) (loanoffer.LoanOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[id]
	if !ok {
		return loanoffer.LoanOffer{}, loanoffer.ErrNotFound
	}

	existing.CustomerID = o.CustomerID
	existing.LoanAmount = o.LoanAmount
	existing.InterestRate = o.InterestRate
	existing.LoanTerm = o.LoanTerm
	existing.MonthlyPayment = o.MonthlyPayment
	existing.Status = o.Status
	existing.UpdatedAt = time.Now().UTC()

	r.items[id] = existing
	return existing, nil
}

func (r *LoanOffersRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return loanoffer.ErrNotFound
	}

	delete(r.items, id)
	return nil
}

func (r *LoanOffersRepo) existsForCustomer(customerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.items {
		if o.CustomerID == customerID {
			return true
		}
	}
	return false
}
