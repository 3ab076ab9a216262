package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/freebetlabs/match-engine/internal/domain/match"
	"github.com/freebetlabs/match-engine/internal/platform/logging"
)

// ExternalOddsEvent is one upcoming-match observation from the odds feed
// after provider-specific extraction. Prices are nil when the configured
// bookmaker did not quote them.
type ExternalOddsEvent struct {
	ExternalID   string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	HomeOdds     *float64
	DrawOdds     *float64
	AwayOdds     *float64
}

// ExternalScoreEvent is one score observation from the feed. Scores are
// nil until the provider publishes them.
type ExternalScoreEvent struct {
	ExternalID   string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Completed    bool
	HomeScore    *int
	AwayScore    *int
}

// FeedUsage carries the provider's request-quota counters, read from
// response headers on every call.
type FeedUsage struct {
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// OddsFeedProvider pulls odds and scores from the external feed.
type OddsFeedProvider interface {
	FetchOddsEvents(ctx context.Context) ([]ExternalOddsEvent, FeedUsage, error)
	FetchScoreEvents(ctx context.Context) ([]ExternalScoreEvent, FeedUsage, error)
}

// OddsSyncReport summarizes one odds sync pass. Created + Updated +
// Skipped always equals the number of events the feed returned.
type OddsSyncReport struct {
	Created int       `json:"created"`
	Updated int       `json:"updated"`
	Skipped int       `json:"skipped"`
	Usage   FeedUsage `json:"usage"`
}

// ScoresSyncReport summarizes one scores sync pass.
type ScoresSyncReport struct {
	Created int       `json:"created"`
	Updated int       `json:"updated"`
	Usage   FeedUsage `json:"usage"`
}

type SyncService struct {
	provider OddsFeedProvider
	matches  match.Repository
	logger   *logging.Logger
}

func NewSyncService(provider OddsFeedProvider, matches match.Repository, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		provider: provider,
		matches:  matches,
		logger:   logger,
	}
}

// SyncOdds pulls upcoming-match odds and merges them into the store.
// Events missing any of the three prices are skipped and never create a
// match. When a stored match already carries a price the merge keeps it
// unless the feed sent a replacement.
func (s *SyncService) SyncOdds(ctx context.Context) (OddsSyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncOdds")
	defer span.End()

	events, usage, err := s.provider.FetchOddsEvents(ctx)
	if err != nil {
		return OddsSyncReport{}, fmt.Errorf("fetch odds events: %w", err)
	}

	report := OddsSyncReport{Usage: usage}
	for _, event := range events {
		fact, ok := oddsEventToFact(event)
		if !ok {
			report.Skipped++
			s.logger.InfoContext(ctx, "skip odds event with incomplete prices",
				"external_id", event.ExternalID,
				"home_team", event.HomeTeam,
				"away_team", event.AwayTeam,
			)
			continue
		}

		outcome, err := s.matches.Upsert(ctx, fact)
		if err != nil {
			s.logger.ErrorContext(ctx, "upsert odds event failed",
				"external_id", event.ExternalID,
				"error", err,
			)
			report.Skipped++
			continue
		}
		if outcome == match.UpsertCreated {
			report.Created++
		} else {
			report.Updated++
		}
	}

	s.logger.InfoContext(ctx, "odds sync finished",
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"requests_used", usage.Used,
		"requests_remaining", usage.Remaining,
	)
	return report, nil
}

// SyncScores pulls recent score events and merges them into the store.
// The scores pipeline is the only writer of the completed flag.
func (s *SyncService) SyncScores(ctx context.Context) (ScoresSyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncScores")
	defer span.End()

	events, usage, err := s.provider.FetchScoreEvents(ctx)
	if err != nil {
		return ScoresSyncReport{}, fmt.Errorf("fetch score events: %w", err)
	}

	report := ScoresSyncReport{Usage: usage}
	for _, event := range events {
		outcome, err := s.matches.Upsert(ctx, scoreEventToFact(event))
		if err != nil {
			s.logger.ErrorContext(ctx, "upsert score event failed",
				"external_id", event.ExternalID,
				"error", err,
			)
			continue
		}
		if outcome == match.UpsertCreated {
			report.Created++
		} else {
			report.Updated++
		}
	}

	s.logger.InfoContext(ctx, "scores sync finished",
		"created", report.Created,
		"updated", report.Updated,
		"requests_used", usage.Used,
		"requests_remaining", usage.Remaining,
	)
	return report, nil
}

func oddsEventToFact(event ExternalOddsEvent) (match.Fact, bool) {
	fact := match.Fact{
		ExternalID:   event.ExternalID,
		SportKey:     event.SportKey,
		HomeTeam:     event.HomeTeam,
		AwayTeam:     event.AwayTeam,
		CommenceTime: event.CommenceTime,
		HomeOdds:     event.HomeOdds,
		DrawOdds:     event.DrawOdds,
		AwayOdds:     event.AwayOdds,
	}
	if !fact.HasAllOdds() {
		return match.Fact{}, false
	}
	return fact, true
}

func scoreEventToFact(event ExternalScoreEvent) match.Fact {
	completed := event.Completed
	return match.Fact{
		ExternalID:   event.ExternalID,
		SportKey:     event.SportKey,
		HomeTeam:     event.HomeTeam,
		AwayTeam:     event.AwayTeam,
		CommenceTime: event.CommenceTime,
		Completed:    &completed,
		HomeScore:    event.HomeScore,
		AwayScore:    event.AwayScore,
	}
}
