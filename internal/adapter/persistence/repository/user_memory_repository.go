package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase/interfaces"
)

var ErrUserNotFound = errors.New("user not found")

// UserMemoryRepository backs the entitlement store in demo deployments and
// tests. The production variant is the DynamoDB repository.
type UserMemoryRepository struct {
	mu    sync.Mutex
	users map[string]entities.User
}

var _ interfaces.IUserRepository = (*UserMemoryRepository)(nil)

func NewUserMemoryRepository() *UserMemoryRepository {
	return &UserMemoryRepository{users: make(map[string]entities.User)}
}

// Seed inserts or replaces a user. Demo/test helper.
func (r *UserMemoryRepository) Seed(u entities.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *UserMemoryRepository) GetByID(_ context.Context, id string) (entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return entities.User{}, nil
	}
	return u, nil
}

func (r *UserMemoryRepository) GetByPhone(_ context.Context, phone string) (entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Phone != "" && u.Phone == phone {
			return u, nil
		}
	}
	return entities.User{}, nil
}

func (r *UserMemoryRepository) UpdateVip(_ context.Context, id string, expiresAt time.Time) (entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return entities.User{}, ErrUserNotFound
	}
	u.IsVip = true
	u.VipExpiresAt = &expiresAt
	r.users[id] = u
	return u, nil
}
