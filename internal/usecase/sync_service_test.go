package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/freebetlabs/match-engine/internal/infrastructure/repository/memory"
	"github.com/freebetlabs/match-engine/internal/platform/logging"
)

type fakeFeedProvider struct {
	oddsEvents  []ExternalOddsEvent
	scoreEvents []ExternalScoreEvent
	usage       FeedUsage
	oddsErr     error
	scoresErr   error
}

func (p *fakeFeedProvider) FetchOddsEvents(context.Context) ([]ExternalOddsEvent, FeedUsage, error) {
	if p.oddsErr != nil {
		return nil, FeedUsage{}, p.oddsErr
	}
	return p.oddsEvents, p.usage, nil
}

func (p *fakeFeedProvider) FetchScoreEvents(context.Context) ([]ExternalScoreEvent, FeedUsage, error) {
	if p.scoresErr != nil {
		return nil, FeedUsage{}, p.scoresErr
	}
	return p.scoreEvents, p.usage, nil
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func oddsEvent(id string, home, draw, away *float64) ExternalOddsEvent {
	return ExternalOddsEvent{
		ExternalID:   id,
		SportKey:     "soccer_epl",
		HomeTeam:     "Home " + id,
		AwayTeam:     "Away " + id,
		CommenceTime: time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC),
		HomeOdds:     home,
		DrawOdds:     draw,
		AwayOdds:     away,
	}
}

func TestSyncOdds_CountersAndSkips(t *testing.T) {
	t.Parallel()

	matches := memory.NewMatchRepository()
	provider := &fakeFeedProvider{
		oddsEvents: []ExternalOddsEvent{
			oddsEvent("evt-1", floatPtr(1.8), floatPtr(3.4), floatPtr(4.2)),
			oddsEvent("evt-2", floatPtr(2.1), nil, floatPtr(3.1)),
			oddsEvent("evt-3", floatPtr(1.5), floatPtr(4.0), floatPtr(6.0)),
		},
		usage: FeedUsage{Used: 10, Remaining: 490},
	}
	svc := NewSyncService(provider, matches, logging.NewNop())

	report, err := svc.SyncOdds(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Created != 2 || report.Updated != 0 || report.Skipped != 1 {
		t.Fatalf("expected created=2 updated=0 skipped=1, got=%+v", report)
	}
	if report.Created+report.Updated+report.Skipped != len(provider.oddsEvents) {
		t.Fatalf("counters do not add up to processed events: %+v", report)
	}
	if report.Usage.Used != 10 || report.Usage.Remaining != 490 {
		t.Fatalf("expected usage from provider, got=%+v", report.Usage)
	}

	// The incomplete event must not have created a match.
	if _, found, _ := matches.GetByExternalID(context.Background(), "evt-2"); found {
		t.Fatalf("expected skipped event to create no match")
	}

	// A second pass over the same events updates instead of creating.
	report, err = svc.SyncOdds(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Created != 0 || report.Updated != 2 || report.Skipped != 1 {
		t.Fatalf("expected created=0 updated=2 skipped=1, got=%+v", report)
	}
}

func TestSyncScores_MergeKeepsOdds(t *testing.T) {
	t.Parallel()

	matches := memory.NewMatchRepository()
	provider := &fakeFeedProvider{
		oddsEvents: []ExternalOddsEvent{
			oddsEvent("evt-1", floatPtr(1.8), floatPtr(3.4), floatPtr(4.2)),
		},
		scoreEvents: []ExternalScoreEvent{
			{
				ExternalID:   "evt-1",
				SportKey:     "soccer_epl",
				HomeTeam:     "Home evt-1",
				AwayTeam:     "Away evt-1",
				CommenceTime: time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC),
				Completed:    true,
				HomeScore:    intPtr(2),
				AwayScore:    intPtr(0),
			},
			{
				ExternalID:   "evt-7",
				SportKey:     "soccer_epl",
				HomeTeam:     "Home evt-7",
				AwayTeam:     "Away evt-7",
				CommenceTime: time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC),
				Completed:    false,
			},
		},
	}
	svc := NewSyncService(provider, matches, logging.NewNop())

	if _, err := svc.SyncOdds(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := svc.SyncScores(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Created != 1 || report.Updated != 1 {
		t.Fatalf("expected created=1 updated=1, got=%+v", report)
	}

	merged, found, _ := matches.GetByExternalID(context.Background(), "evt-1")
	if !found {
		t.Fatalf("expected match evt-1 to exist")
	}
	if !merged.Completed {
		t.Fatalf("expected score merge to mark match completed")
	}
	if merged.HomeScore == nil || *merged.HomeScore != 2 {
		t.Fatalf("expected home score 2, got=%v", merged.HomeScore)
	}
	// The score event carried no odds; the stored prices must survive.
	if merged.HomeOdds == nil || *merged.HomeOdds != 1.8 {
		t.Fatalf("expected stored home odds to survive score merge, got=%v", merged.HomeOdds)
	}
	if merged.DrawOdds == nil || merged.AwayOdds == nil {
		t.Fatalf("expected stored draw/away odds to survive score merge")
	}
}

func TestSyncOdds_ProviderErrorPropagates(t *testing.T) {
	t.Parallel()

	svc := NewSyncService(&fakeFeedProvider{oddsErr: fmt.Errorf("feed down")}, memory.NewMatchRepository(), logging.NewNop())
	if _, err := svc.SyncOdds(context.Background()); err == nil {
		t.Fatalf("expected provider error to propagate")
	}
}
