package postgres

import (
	"time"

	"github.com/freebetlabs/match-engine/internal/domain/match"
)

type matchTableModel struct {
	ID           int64     `db:"id"`
	ExternalID   string    `db:"external_id"`
	SportKey     string    `db:"sport_key"`
	HomeTeam     string    `db:"home_team"`
	AwayTeam     string    `db:"away_team"`
	CommenceTime time.Time `db:"commence_time"`
	HomeOdds     *float64  `db:"home_odds"`
	DrawOdds     *float64  `db:"draw_odds"`
	AwayOdds     *float64  `db:"away_odds"`
	Completed    bool      `db:"completed"`
	HomeScore    *int      `db:"home_score"`
	AwayScore    *int      `db:"away_score"`
	Calculated   bool      `db:"calculated"`
	Result       *string   `db:"result"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type matchInsertModel struct {
	ExternalID   string    `db:"external_id"`
	SportKey     string    `db:"sport_key"`
	HomeTeam     string    `db:"home_team"`
	AwayTeam     string    `db:"away_team"`
	CommenceTime time.Time `db:"commence_time"`
	HomeOdds     *float64  `db:"home_odds"`
	DrawOdds     *float64  `db:"draw_odds"`
	AwayOdds     *float64  `db:"away_odds"`
	Completed    bool      `db:"completed"`
	HomeScore    *int      `db:"home_score"`
	AwayScore    *int      `db:"away_score"`
}

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:           m.ID,
		ExternalID:   m.ExternalID,
		SportKey:     m.SportKey,
		HomeTeam:     m.HomeTeam,
		AwayTeam:     m.AwayTeam,
		CommenceTime: m.CommenceTime,
		HomeOdds:     m.HomeOdds,
		DrawOdds:     m.DrawOdds,
		AwayOdds:     m.AwayOdds,
		Completed:    m.Completed,
		HomeScore:    m.HomeScore,
		AwayScore:    m.AwayScore,
		Calculated:   m.Calculated,
		Result:       m.Result,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func factToInsertModel(fact match.Fact) matchInsertModel {
	completed := fact.Completed != nil && *fact.Completed
	return matchInsertModel{
		ExternalID:   fact.ExternalID,
		SportKey:     fact.SportKey,
		HomeTeam:     fact.HomeTeam,
		AwayTeam:     fact.AwayTeam,
		CommenceTime: fact.CommenceTime,
		HomeOdds:     fact.HomeOdds,
		DrawOdds:     fact.DrawOdds,
		AwayOdds:     fact.AwayOdds,
		Completed:    completed,
		HomeScore:    fact.HomeScore,
		AwayScore:    fact.AwayScore,
	}
}
