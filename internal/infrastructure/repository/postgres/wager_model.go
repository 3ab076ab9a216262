package postgres

import (
	"time"

	"github.com/freebetlabs/match-engine/internal/domain/wager"
)

type wagerTableModel struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	MatchExternalID string    `db:"match_external_id"`
	HomeTeam        string    `db:"home_team"`
	AwayTeam        string    `db:"away_team"`
	Selection       string    `db:"selection"`
	Stake           float64   `db:"stake"`
	Odds            float64   `db:"odds"`
	PotentialPayout float64   `db:"potential_payout"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
}

type wagerInsertModel struct {
	UserID          int64   `db:"user_id"`
	MatchExternalID string  `db:"match_external_id"`
	HomeTeam        string  `db:"home_team"`
	AwayTeam        string  `db:"away_team"`
	Selection       string  `db:"selection"`
	Stake           float64 `db:"stake"`
	Odds            float64 `db:"odds"`
	PotentialPayout float64 `db:"potential_payout"`
	Status          string  `db:"status"`
}

func (m wagerTableModel) toDomain() wager.Wager {
	return wager.Wager{
		ID:              m.ID,
		UserID:          m.UserID,
		MatchExternalID: m.MatchExternalID,
		HomeTeam:        m.HomeTeam,
		AwayTeam:        m.AwayTeam,
		Selection:       m.Selection,
		Stake:           m.Stake,
		Odds:            m.Odds,
		PotentialPayout: m.PotentialPayout,
		Status:          m.Status,
		CreatedAt:       m.CreatedAt,
	}
}
