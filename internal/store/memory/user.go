// internal/store/memory/user.go
package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
)

type userStore struct {
	s *Store
}

func (us *userStore) Create(ctx context.Context, user *models.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	for _, existing := range us.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return store.ErrDuplicate
		}
	}

	us.s.prepare(&user.BaseModel)
	us.s.users[user.ID] = *user
	return nil
}

func (us *userStore) Update(ctx context.Context, user *models.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	if _, ok := us.s.users[user.ID]; !ok {
		return store.ErrNotFound
	}

	us.s.prepare(&user.BaseModel)
	us.s.users[user.ID] = *user
	return nil
}

func (us *userStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	user, ok := us.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (us *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	for _, user := range us.s.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (us *userStore) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	var count int64
	for _, user := range us.s.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}
