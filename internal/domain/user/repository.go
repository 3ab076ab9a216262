package user

import "context"

// Repository exposes balance reads and stake debits. Settlement credits
// happen inside the wager repository's transaction, not here.
type Repository interface {
	GetByID(ctx context.Context, id int64) (User, bool, error)
	DebitStake(ctx context.Context, id int64, amount float64) error
}
