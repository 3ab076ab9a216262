package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/freebetlabs/match-engine/internal/domain/match"
	"github.com/freebetlabs/match-engine/internal/domain/wager"
	"github.com/freebetlabs/match-engine/internal/platform/logging"
)

// SettlementNotifier announces settlement outcomes to operators.
// Delivery is best-effort and must never fail the settlement.
type SettlementNotifier interface {
	Announce(ctx context.Context, title, message string)
}

// SettlementItem describes one match resolved during a settlement pass.
type SettlementItem struct {
	Match  string `json:"match"`
	Score  string `json:"score"`
	Result string `json:"result"`
	Wagers int    `json:"wagers"`
}

// SettlementReport summarizes one settlement pass.
type SettlementReport struct {
	SettledCount int              `json:"settled_count"`
	Items        []SettlementItem `json:"items"`
}

type SettlementService struct {
	matches  match.Repository
	wagers   wager.Repository
	notifier SettlementNotifier
	logger   *logging.Logger
}

func NewSettlementService(
	matches match.Repository,
	wagers wager.Repository,
	notifier SettlementNotifier,
	logger *logging.Logger,
) *SettlementService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SettlementService{
		matches:  matches,
		wagers:   wagers,
		notifier: notifier,
		logger:   logger,
	}
}

// Settle resolves every completed, uncalculated match with both scores
// present. Wagers flip to won/lost and winners are credited inside one
// transaction per match; the calculated flag then flips behind a
// calculated=false guard, so a concurrent pass silently skips matches it
// lost the race on. A summary notification goes out after the loop.
func (s *SettlementService) Settle(ctx context.Context) (SettlementReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.Settle")
	defer span.End()

	candidates, err := s.matches.ListSettleCandidates(ctx)
	if err != nil {
		return SettlementReport{}, fmt.Errorf("list settlement candidates: %w", err)
	}

	report := SettlementReport{Items: make([]SettlementItem, 0, len(candidates))}
	for _, m := range candidates {
		if !m.ReadyForSettlement() {
			continue
		}
		result := match.Outcome(*m.HomeScore, *m.AwayScore)

		settled, err := s.wagers.SettleForMatch(ctx, m.ExternalID, result)
		if err != nil {
			s.logger.ErrorContext(ctx, "settle wagers failed",
				"external_id", m.ExternalID,
				"result", result,
				"error", err,
			)
			continue
		}

		flipped, err := s.matches.MarkCalculated(ctx, m.ExternalID, result)
		if err != nil {
			s.logger.ErrorContext(ctx, "mark match calculated failed",
				"external_id", m.ExternalID,
				"error", err,
			)
			continue
		}
		if !flipped {
			// Lost the race to a concurrent pass; the wager update above
			// was a no-op because nothing was pending anymore.
			continue
		}

		report.SettledCount++
		report.Items = append(report.Items, SettlementItem{
			Match:  m.HomeTeam + " vs " + m.AwayTeam,
			Score:  fmt.Sprintf("%d-%d", *m.HomeScore, *m.AwayScore),
			Result: result,
			Wagers: len(settled),
		})

		s.logger.InfoContext(ctx, "match settled",
			"external_id", m.ExternalID,
			"result", result,
			"wagers_settled", len(settled),
		)
	}

	if report.SettledCount > 0 && s.notifier != nil {
		s.notifier.Announce(ctx, "Settlement finished", settlementMessage(report))
	}
	return report, nil
}

func settlementMessage(report SettlementReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d match(es) settled", report.SettledCount)
	for _, item := range report.Items {
		fmt.Fprintf(&b, "\n%s %s -> %s (%d wagers)", item.Match, item.Score, item.Result, item.Wagers)
	}
	return b.String()
}
