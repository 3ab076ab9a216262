package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/freebetlabs/match-engine/internal/domain/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	items map[int64]user.User
}

func NewUserRepository(seed []user.User) *UserRepository {
	items := make(map[int64]user.User, len(seed))
	for _, item := range seed {
		items[item.ID] = item
	}
	return &UserRepository{items: items}
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, found := r.items[id]
	return item, found, nil
}

func (r *UserRepository) DebitStake(_ context.Context, id int64, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be greater than zero")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, found := r.items[id]
	if !found || item.Balance < amount {
		return fmt.Errorf("user %d has insufficient balance", id)
	}
	item.Balance -= amount
	r.items[id] = item
	return nil
}

func (r *UserRepository) credit(id int64, amount float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, found := r.items[id]
	if !found {
		return
	}
	item.Balance += amount
	r.items[id] = item
}
