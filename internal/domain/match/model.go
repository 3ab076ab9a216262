package match

import "time"

// Result values stored on a settled match.
const (
	ResultHome = "home"
	ResultAway = "away"
	ResultDraw = "draw"
)

// Match is a single fixture tracked by the engine. Odds and scores are
// pointers because the feed delivers them independently: nil means the
// feed has not said anything yet, which is different from zero.
type Match struct {
	ID           int64
	ExternalID   string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	HomeOdds     *float64
	DrawOdds     *float64
	AwayOdds     *float64
	Completed    bool
	HomeScore    *int
	AwayScore    *int
	Calculated   bool
	Result       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Fact is one presence-aware observation about a match coming from the
// feed. Absent fields stay nil and never overwrite stored values on merge.
type Fact struct {
	ExternalID   string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	HomeOdds     *float64
	DrawOdds     *float64
	AwayOdds     *float64
	Completed    *bool
	HomeScore    *int
	AwayScore    *int
}

// HasAllOdds reports whether the fact carries all three h2h prices.
func (f Fact) HasAllOdds() bool {
	return f.HomeOdds != nil && f.DrawOdds != nil && f.AwayOdds != nil
}

// Outcome computes the settlement result from final scores.
func Outcome(homeScore, awayScore int) string {
	switch {
	case homeScore > awayScore:
		return ResultHome
	case homeScore < awayScore:
		return ResultAway
	default:
		return ResultDraw
	}
}

// ReadyForSettlement reports whether the match can be settled: finished,
// not yet calculated, and both final scores known.
func (m Match) ReadyForSettlement() bool {
	return m.Completed && !m.Calculated && m.HomeScore != nil && m.AwayScore != nil
}
