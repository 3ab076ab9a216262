package usecase

import (
	"context"
	"fmt"

	"github.com/freebetlabs/match-engine/internal/domain/match"
	"github.com/freebetlabs/match-engine/internal/platform/cache"
	"github.com/freebetlabs/match-engine/internal/platform/logging"
)

const upcomingMatchesCacheKey = "matches:upcoming"

type MatchService struct {
	matches match.Repository
	cache   *cache.Store
	logger  *logging.Logger
}

// NewMatchService builds the read side for the match board. The cache is
// optional; pass nil to hit the repository on every call.
func NewMatchService(matches match.Repository, store *cache.Store, logger *logging.Logger) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchService{
		matches: matches,
		cache:   store,
		logger:  logger,
	}
}

// ListUpcoming returns matches that have not completed yet, soonest
// kickoff first.
func (s *MatchService) ListUpcoming(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListUpcoming")
	defer span.End()

	if s.cache == nil {
		return s.matches.ListUpcoming(ctx)
	}

	out, err := s.cache.GetOrLoad(ctx, upcomingMatchesCacheKey, func(ctx context.Context) (any, error) {
		return s.matches.ListUpcoming(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list upcoming matches: %w", err)
	}

	items, ok := out.([]match.Match)
	if !ok {
		return nil, fmt.Errorf("unexpected cache payload type %T", out)
	}
	return items, nil
}

// GetByExternalID fetches a single match by its feed identifier.
func (s *MatchService) GetByExternalID(ctx context.Context, externalID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.GetByExternalID")
	defer span.End()

	if externalID == "" {
		return match.Match{}, fmt.Errorf("%w: match external id is required", ErrInvalidInput)
	}
	m, found, err := s.matches.GetByExternalID(ctx, externalID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return match.Match{}, fmt.Errorf("%w: match %s", ErrNotFound, externalID)
	}
	return m, nil
}

// InvalidateUpcoming drops the cached board after a sync writes new rows.
func (s *MatchService) InvalidateUpcoming(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, upcomingMatchesCacheKey)
}
