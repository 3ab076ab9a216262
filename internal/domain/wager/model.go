package wager

import "time"

// Status of a wager through its lifecycle.
const (
	StatusPending = "pending"
	StatusWon     = "won"
	StatusLost    = "lost"
)

// Selections mirror match results: a wager backs one of the three.
const (
	SelectionHome = "home"
	SelectionAway = "away"
	SelectionDraw = "draw"
)

// Wager is a stake placed by a user on a match outcome. The odds are
// frozen at placement time so later feed updates never change the payout.
// Team names are denormalized from the match so listings render without
// a join.
type Wager struct {
	ID              int64
	UserID          int64
	MatchExternalID string
	HomeTeam        string
	AwayTeam        string
	Selection       string
	Stake           float64
	Odds            float64
	PotentialPayout float64
	Status          string
	CreatedAt       time.Time
}

// Settled describes one wager resolved during settlement, with the user
// credit applied for winners.
type Settled struct {
	WagerID         int64
	UserID          int64
	Status          string
	PotentialPayout float64
}

// ValidSelection reports whether s is one of the three backable outcomes.
func ValidSelection(s string) bool {
	switch s {
	case SelectionHome, SelectionAway, SelectionDraw:
		return true
	default:
		return false
	}
}

// PotentialPayout computes the gross payout for a stake at decimal odds.
func PotentialPayout(stake, odds float64) float64 {
	return stake * odds
}
