package memory

import (
	"github.com/freebetlabs/match-engine/internal/domain/user"
)

// SeedUsers returns the demo bettors used when the service runs on the
// in-memory store.
func SeedUsers() []user.User {
	return []user.User{
		{ID: 1, Name: "alice", Balance: 1000},
		{ID: 2, Name: "bob", Balance: 1000},
		{ID: 3, Name: "carol", Balance: 500},
	}
}
