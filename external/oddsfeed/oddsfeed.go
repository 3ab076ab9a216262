package oddsfeed

// Wire payloads for The Odds API v4. Odds events nest the quoted prices
// under bookmaker -> market -> outcome; score events carry per-side
// score strings that may be absent for matches still in play.

type oddsEventPayload struct {
	ID           string             `json:"id"`
	SportKey     string             `json:"sport_key"`
	CommenceTime string             `json:"commence_time"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Bookmakers   []bookmakerPayload `json:"bookmakers"`
}

type bookmakerPayload struct {
	Key     string          `json:"key"`
	Title   string          `json:"title"`
	Markets []marketPayload `json:"markets"`
}

type marketPayload struct {
	Key      string           `json:"key"`
	Outcomes []outcomePayload `json:"outcomes"`
}

type outcomePayload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type scoreEventPayload struct {
	ID           string              `json:"id"`
	SportKey     string              `json:"sport_key"`
	CommenceTime string              `json:"commence_time"`
	Completed    bool                `json:"completed"`
	HomeTeam     string              `json:"home_team"`
	AwayTeam     string              `json:"away_team"`
	Scores       []scoreEntryPayload `json:"scores"`
}

type scoreEntryPayload struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}
