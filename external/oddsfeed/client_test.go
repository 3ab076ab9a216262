package oddsfeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/freebetlabs/match-engine/internal/platform/logging"
	"github.com/freebetlabs/match-engine/internal/platform/resilience"
	"github.com/freebetlabs/match-engine/internal/usecase"
)

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		SportKey:       "soccer_epl",
		Bookmakers:     "marathonbet",
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestFetchOddsEvents_MapsOutcomesAndUsage(t *testing.T) {
	t.Parallel()

	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sports/soccer_epl/odds") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery.Store(r.URL.Query().Encode())

		w.Header().Set("x-requests-used", "42")
		w.Header().Set("x-requests-remaining", "458")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "evt-1",
				"sport_key": "soccer_epl",
				"commence_time": "2026-09-01T14:00:00Z",
				"home_team": "Arsenal",
				"away_team": "Chelsea",
				"bookmakers": [
					{
						"key": "marathonbet",
						"markets": [
							{
								"key": "h2h",
								"outcomes": [
									{"name": "Arsenal", "price": 1.85},
									{"name": "Chelsea", "price": 4.1},
									{"name": "Draw", "price": 3.6}
								]
							}
						]
					}
				]
			}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	events, usage, err := client.FetchOddsEvents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got=%d", len(events))
	}

	event := events[0]
	if event.ExternalID != "evt-1" {
		t.Fatalf("expected external id evt-1, got=%s", event.ExternalID)
	}
	if event.HomeOdds == nil || *event.HomeOdds != 1.85 {
		t.Fatalf("expected home odds 1.85, got=%v", event.HomeOdds)
	}
	if event.AwayOdds == nil || *event.AwayOdds != 4.1 {
		t.Fatalf("expected away odds 4.1, got=%v", event.AwayOdds)
	}
	if event.DrawOdds == nil || *event.DrawOdds != 3.6 {
		t.Fatalf("expected draw odds 3.6, got=%v", event.DrawOdds)
	}
	if usage.Used != 42 || usage.Remaining != 458 {
		t.Fatalf("expected usage 42/458, got=%d/%d", usage.Used, usage.Remaining)
	}

	query, _ := gotQuery.Load().(string)
	for _, expected := range []string{"apiKey=test-key", "regions=us", "markets=h2h", "oddsFormat=decimal", "bookmakers=marathonbet"} {
		if !strings.Contains(query, expected) {
			t.Fatalf("expected query to contain %q, got=%s", expected, query)
		}
	}
}

func TestFetchOddsEvents_MissingAPIKeyFailsBeforeNetwork(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	_, _, err := client.FetchOddsEvents(context.Background())
	if err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no network call, got=%d", calls.Load())
	}
}

func TestFetchScoreEvents_ParsesScores(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sports/soccer_epl/scores") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("daysFrom") != "3" {
			t.Errorf("expected daysFrom=3, got=%s", r.URL.Query().Get("daysFrom"))
		}
		w.Header().Set("x-requests-used", "43")
		w.Header().Set("x-requests-remaining", "457")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "evt-1",
				"sport_key": "soccer_epl",
				"commence_time": "2026-08-28T14:00:00Z",
				"completed": true,
				"home_team": "Arsenal",
				"away_team": "Chelsea",
				"scores": [
					{"name": "Arsenal", "score": "2"},
					{"name": "Chelsea", "score": "1"}
				]
			},
			{
				"id": "evt-2",
				"sport_key": "soccer_epl",
				"commence_time": "2026-08-29T14:00:00Z",
				"completed": false,
				"home_team": "Liverpool",
				"away_team": "Everton",
				"scores": null
			}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	events, usage, err := client.FetchScoreEvents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected two events, got=%d", len(events))
	}

	finished := events[0]
	if !finished.Completed {
		t.Fatalf("expected first event completed")
	}
	if finished.HomeScore == nil || *finished.HomeScore != 2 {
		t.Fatalf("expected home score 2, got=%v", finished.HomeScore)
	}
	if finished.AwayScore == nil || *finished.AwayScore != 1 {
		t.Fatalf("expected away score 1, got=%v", finished.AwayScore)
	}

	live := events[1]
	if live.Completed {
		t.Fatalf("expected second event not completed")
	}
	if live.HomeScore != nil || live.AwayScore != nil {
		t.Fatalf("expected nil scores for live event, got=%v/%v", live.HomeScore, live.AwayScore)
	}

	if usage.Used != 43 || usage.Remaining != 457 {
		t.Fatalf("expected usage 43/457, got=%d/%d", usage.Used, usage.Remaining)
	}
}

func TestFetchOddsEvents_NonRetryableStatusDoesNotRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		APIKey:         "bad-key",
		MaxRetries:     3,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	_, _, err := client.FetchOddsEvents(context.Background())
	if err == nil {
		t.Fatalf("expected error for 401 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got=%d", calls.Load())
	}
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected rejected credentials to map to dependency unavailable, got=%v", err)
	}
	if strings.Contains(err.Error(), "bad-key") {
		t.Fatalf("expected api key to be redacted from error: %v", err)
	}
}

func TestFetchOddsEvents_MalformedRecordSkipped(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "",
				"sport_key": "soccer_epl",
				"commence_time": "2026-09-01T14:00:00Z",
				"home_team": "Arsenal",
				"away_team": "Chelsea"
			},
			{
				"id": "evt-ok",
				"sport_key": "soccer_epl",
				"commence_time": "not-a-timestamp",
				"home_team": "Spurs",
				"away_team": "West Ham"
			},
			{
				"id": "evt-2",
				"sport_key": "soccer_epl",
				"commence_time": "2026-09-01T16:00:00Z",
				"home_team": "Liverpool",
				"away_team": "Everton"
			}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	events, _, err := client.FetchOddsEvents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected malformed records dropped, got=%d events", len(events))
	}
	if events[0].ExternalID != "evt-2" {
		t.Fatalf("expected surviving event evt-2, got=%s", events[0].ExternalID)
	}
}

func TestMapOddsEvent_PartialOutcomes(t *testing.T) {
	t.Parallel()

	event, ok := mapOddsEvent(oddsEventPayload{
		ID:           "evt-9",
		SportKey:     "soccer_epl",
		CommenceTime: "2026-09-02T19:00:00Z",
		HomeTeam:     "Spurs",
		AwayTeam:     "West Ham",
		Bookmakers: []bookmakerPayload{
			{
				Key: "marathonbet",
				Markets: []marketPayload{
					{
						Key: "h2h",
						Outcomes: []outcomePayload{
							{Name: "Spurs", Price: 2.0},
							{Name: "West Ham", Price: 3.8},
						},
					},
				},
			},
		},
	})
	if !ok {
		t.Fatalf("expected event to map")
	}
	if event.HomeOdds == nil || event.AwayOdds == nil {
		t.Fatalf("expected both side prices to be set")
	}
	if event.DrawOdds != nil {
		t.Fatalf("expected missing draw price to stay nil")
	}
}

func TestParseScoreValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want *int
		ok   bool
	}{
		{raw: "2", want: intRef(2), ok: true},
		{raw: " 0 ", want: intRef(0), ok: true},
		{raw: "", want: nil, ok: true},
		{raw: "abandoned", want: nil, ok: false},
		{raw: "-1", want: nil, ok: false},
	}
	for _, tc := range cases {
		got, ok := parseScoreValue(tc.raw)
		if ok != tc.ok {
			t.Fatalf("parseScoreValue(%q): expected ok=%v, got=%v", tc.raw, tc.ok, ok)
		}
		if (got == nil) != (tc.want == nil) || (got != nil && *got != *tc.want) {
			t.Fatalf("parseScoreValue(%q): expected %v, got=%v", tc.raw, tc.want, got)
		}
	}
}

func TestMapScoreEvent_UnparseableScoreTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	event, ok := mapScoreEvent(scoreEventPayload{
		ID:           "evt-5",
		SportKey:     "soccer_epl",
		CommenceTime: "2026-09-03T12:00:00Z",
		HomeTeam:     "Arsenal",
		AwayTeam:     "Chelsea",
		Completed:    false,
		Scores: []scoreEntryPayload{
			{Name: "Arsenal", Score: "postponed"},
			{Name: "Chelsea", Score: "1"},
		},
	})
	if !ok {
		t.Fatalf("expected event to map")
	}
	if event.HomeScore != nil {
		t.Fatalf("expected unparseable home score to stay nil, got=%v", event.HomeScore)
	}
	if event.AwayScore == nil || *event.AwayScore != 1 {
		t.Fatalf("expected away score 1, got=%v", event.AwayScore)
	}
}

func intRef(v int) *int { return &v }
