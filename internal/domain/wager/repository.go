package wager

import "context"

// Repository exposes wager persistence. SettleForMatch runs in a single
// transaction: pending wagers flip to won/lost against the result and
// each winner's balance is credited with the potential payout.
type Repository interface {
	Place(ctx context.Context, w Wager) (Wager, error)
	ListByUser(ctx context.Context, userID int64) ([]Wager, error)
	SettleForMatch(ctx context.Context, matchExternalID, result string) ([]Settled, error)
}
