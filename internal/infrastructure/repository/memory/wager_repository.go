package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/freebetlabs/match-engine/internal/domain/wager"
)

// WagerRepository keeps wagers in memory and credits winners against the
// memory user repository, mirroring the postgres settlement transaction.
type WagerRepository struct {
	mu     sync.Mutex
	items  []wager.Wager
	users  *UserRepository
	nextID int64
}

func NewWagerRepository(users *UserRepository) *WagerRepository {
	return &WagerRepository{users: users}
}

func (r *WagerRepository) Place(_ context.Context, w wager.Wager) (wager.Wager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	w.ID = r.nextID
	w.CreatedAt = time.Now().UTC()
	r.items = append(r.items, w)
	return w, nil
}

func (r *WagerRepository) ListByUser(_ context.Context, userID int64) ([]wager.Wager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]wager.Wager, 0, len(r.items))
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *WagerRepository) SettleForMatch(_ context.Context, matchExternalID, result string) ([]wager.Settled, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	settled := make([]wager.Settled, 0, 4)
	for i, item := range r.items {
		if item.MatchExternalID != matchExternalID || item.Status != wager.StatusPending {
			continue
		}

		status := wager.StatusLost
		if item.Selection == result {
			status = wager.StatusWon
		}
		r.items[i].Status = status

		settled = append(settled, wager.Settled{
			WagerID:         item.ID,
			UserID:          item.UserID,
			Status:          status,
			PotentialPayout: item.PotentialPayout,
		})
		if status == wager.StatusWon && r.users != nil {
			r.users.credit(item.UserID, item.PotentialPayout)
		}
	}
	return settled, nil
}
