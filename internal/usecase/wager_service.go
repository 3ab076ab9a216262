package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/freebetlabs/match-engine/internal/domain/match"
	"github.com/freebetlabs/match-engine/internal/domain/user"
	"github.com/freebetlabs/match-engine/internal/domain/wager"
	"github.com/freebetlabs/match-engine/internal/platform/logging"
)

// PlaceWagerInput carries a new stake on a match outcome.
type PlaceWagerInput struct {
	UserID          int64
	MatchExternalID string
	Selection       string
	Stake           float64
}

type WagerService struct {
	matches match.Repository
	wagers  wager.Repository
	users   user.Repository
	logger  *logging.Logger
}

func NewWagerService(
	matches match.Repository,
	wagers wager.Repository,
	users user.Repository,
	logger *logging.Logger,
) *WagerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &WagerService{
		matches: matches,
		wagers:  wagers,
		users:   users,
		logger:  logger,
	}
}

// PlaceWager validates the stake, freezes the current odds for the chosen
// selection, debits the user's balance and stores a pending wager.
func (s *WagerService) PlaceWager(ctx context.Context, input PlaceWagerInput) (wager.Wager, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.PlaceWager")
	defer span.End()

	input.MatchExternalID = strings.TrimSpace(input.MatchExternalID)
	input.Selection = strings.ToLower(strings.TrimSpace(input.Selection))

	if input.UserID <= 0 {
		return wager.Wager{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.MatchExternalID == "" {
		return wager.Wager{}, fmt.Errorf("%w: match external id is required", ErrInvalidInput)
	}
	if !wager.ValidSelection(input.Selection) {
		return wager.Wager{}, fmt.Errorf("%w: selection must be home, away or draw", ErrInvalidInput)
	}
	if input.Stake <= 0 {
		return wager.Wager{}, fmt.Errorf("%w: stake must be greater than zero", ErrInvalidInput)
	}

	m, found, err := s.matches.GetByExternalID(ctx, input.MatchExternalID)
	if err != nil {
		return wager.Wager{}, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return wager.Wager{}, fmt.Errorf("%w: match %s", ErrNotFound, input.MatchExternalID)
	}
	if m.Completed || m.Calculated {
		return wager.Wager{}, fmt.Errorf("%w: match %s is closed for betting", ErrInvalidInput, input.MatchExternalID)
	}

	odds, err := selectionOdds(m, input.Selection)
	if err != nil {
		return wager.Wager{}, err
	}

	bettor, found, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return wager.Wager{}, fmt.Errorf("get user: %w", err)
	}
	if !found {
		return wager.Wager{}, fmt.Errorf("%w: user %d", ErrNotFound, input.UserID)
	}
	if bettor.Balance < input.Stake {
		return wager.Wager{}, fmt.Errorf("%w: insufficient balance", ErrInvalidInput)
	}

	if err := s.users.DebitStake(ctx, input.UserID, input.Stake); err != nil {
		return wager.Wager{}, fmt.Errorf("debit stake: %w", err)
	}

	placed, err := s.wagers.Place(ctx, wager.Wager{
		UserID:          input.UserID,
		MatchExternalID: input.MatchExternalID,
		HomeTeam:        m.HomeTeam,
		AwayTeam:        m.AwayTeam,
		Selection:       input.Selection,
		Stake:           input.Stake,
		Odds:            odds,
		PotentialPayout: wager.PotentialPayout(input.Stake, odds),
		Status:          wager.StatusPending,
	})
	if err != nil {
		return wager.Wager{}, fmt.Errorf("place wager: %w", err)
	}

	s.logger.InfoContext(ctx, "wager placed",
		"user_id", placed.UserID,
		"match_external_id", placed.MatchExternalID,
		"selection", placed.Selection,
		"stake", placed.Stake,
		"odds", placed.Odds,
	)
	return placed, nil
}

// ListUserWagers returns the user's wagers, newest first.
func (s *WagerService) ListUserWagers(ctx context.Context, userID int64) ([]wager.Wager, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.ListUserWagers")
	defer span.End()

	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	items, err := s.wagers.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wagers: %w", err)
	}
	return items, nil
}

func selectionOdds(m match.Match, selection string) (float64, error) {
	var odds *float64
	switch selection {
	case wager.SelectionHome:
		odds = m.HomeOdds
	case wager.SelectionAway:
		odds = m.AwayOdds
	case wager.SelectionDraw:
		odds = m.DrawOdds
	}
	if odds == nil {
		return 0, fmt.Errorf("%w: match %s has no odds for %s", ErrInvalidInput, m.ExternalID, selection)
	}
	return *odds, nil
}
