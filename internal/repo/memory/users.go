package memory

import (
	"context"
	"sync"
	"time"

	"github.com/greenvolt/loanhub/internal/domain/user"
)

// UsersRepo mirrors the postgres repository, including its uniqueness
// sentinels, so services can run against it in tests.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) insertLocked(u user.User) (user.User, error) {
	for _, existing := range r.items {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
		if existing.Username == u.Username {
			return user.User{}, user.ErrUsernameTaken
		}
	}

	r.items[u.ID] = u
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(u)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id, username, email, firstName, lastName string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	for otherID, other := range r.items {
		if otherID == id {
			continue
		}
		if other.Email == email {
			return user.User{}, user.ErrEmailTaken
		}
		if other.Username == username {
			return user.User{}, user.ErrUsernameTaken
		}
	}

	u.Username = username
	u.Email = email
	u.FirstName = firstName
	u.LastName = lastName
	u.UpdatedAt = time.Now().UTC()

	r.items[id] = u
	return u, nil
}

func (r *UsersRepo) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return user.ErrNotFound
	}

	delete(r.items, id)
	return nil
}
