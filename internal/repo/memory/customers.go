package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/user"
)

type CustomersRepo struct {
	mu     sync.RWMutex
	items  map[string]customer.Customer
	users  *UsersRepo
	offers *LoanOffersRepo
}

func NewCustomersRepo(users *UsersRepo, offers *LoanOffersRepo) *CustomersRepo {
	return &CustomersRepo{
		items:  make(map[string]customer.Customer),
		users:  users,
		offers: offers,
	}
}

func (r *CustomersRepo) CreateWithUser(ctx context.Context, c customer.Customer, u user.User) (customer.Customer, error) {
	created, err := r.users.Create(ctx, u)

	if err != nil {
		return customer.Customer{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == c.Email {
			// undo the user insert, matching the transactional postgres path
			_ = r.users.Remove(ctx, created.ID)
			return customer.Customer{}, customer.ErrEmailTaken
		}
	}

	c.UserID = &created.ID
	r.items[c.ID] = c

	return c, nil
}

func (r *CustomersRepo) GetByID(ctx context.Context, id string) (customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

func (r *CustomersRepo) GetByUserID(ctx context.Context, userID string) (customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.items {
		if c.UserID != nil && *c.UserID == userID {
			return c, nil
		}
	}
	return customer.Customer{}, customer.ErrNotFound
}

func (r *CustomersRepo) GetByEmail(ctx context.Context, email string) (customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.items {
		if c.Email == email {
			return c, nil
		}
	}
	return customer.Customer{}, customer.ErrNotFound
}

func (r *CustomersRepo) List(ctx context.Context, filter customer.ListCustomersFilter) ([]customer.Customer, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]customer.Customer, 0, len(r.items))

	for _, c := range r.items {
		if filter.Email != nil && c.Email != *filter.Email {
			continue
		}
		if filter.City != nil && c.City != *filter.City {
			continue
		}
		if filter.State != nil && c.State != *filter.State {
			continue
		}
		matched = append(matched, c)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Limit, filter.Offset)
}

func (r *CustomersRepo) Update(ctx context.Context, id string, c customer.Customer) (customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[id]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}

	for otherID, other := range r.items {
		if otherID != id && other.Email == c.Email {
			return customer.Customer{}, customer.ErrEmailTaken
		}
	}

	existing.FirstName = c.FirstName
	existing.LastName = c.LastName
	existing.Email = c.Email
	existing.PhoneNumber = c.PhoneNumber
	existing.AddressLine1 = c.AddressLine1
	existing.AddressLine2 = c.AddressLine2
	existing.City = c.City
	existing.State = c.State
	existing.PostalCode = c.PostalCode
	existing.Country = c.Country
	existing.UpdatedAt = time.Now().UTC()

	r.items[id] = existing
	return existing, nil
}

func (r *CustomersRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return customer.ErrNotFound
	}

	if r.offers != nil && r.offers.existsForCustomer(id) {
		return customer.ErrHasLoanOffer
	}

	delete(r.items, id)
	return nil
}

func paginate[T any](items []T, limit, offset int) ([]T, int, error) {
	total := len(items)

	if offset >= total {
		return []T{}, total, nil
	}

	items = items[offset:]

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items, total, nil
}
