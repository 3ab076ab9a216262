package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/freebetlabs/match-engine/internal/domain/match"
)

// MatchRepository is a map-backed match store with the same merge
// semantics as the postgres one. Used by tests and local runs without a
// database.
type MatchRepository struct {
	mu     sync.RWMutex
	items  map[string]match.Match
	nextID int64
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{items: make(map[string]match.Match)}
}

func (r *MatchRepository) Upsert(_ context.Context, fact match.Fact) (match.UpsertOutcome, error) {
	if strings.TrimSpace(fact.ExternalID) == "" {
		return match.UpsertUpdated, fmt.Errorf("match external id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, found := r.items[fact.ExternalID]
	if !found {
		r.nextID++
		created := match.Match{
			ID:           r.nextID,
			ExternalID:   fact.ExternalID,
			SportKey:     fact.SportKey,
			HomeTeam:     fact.HomeTeam,
			AwayTeam:     fact.AwayTeam,
			CommenceTime: fact.CommenceTime,
			HomeOdds:     fact.HomeOdds,
			DrawOdds:     fact.DrawOdds,
			AwayOdds:     fact.AwayOdds,
			Completed:    fact.Completed != nil && *fact.Completed,
			HomeScore:    fact.HomeScore,
			AwayScore:    fact.AwayScore,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		r.items[fact.ExternalID] = created
		return match.UpsertCreated, nil
	}

	existing.SportKey = fact.SportKey
	existing.HomeTeam = fact.HomeTeam
	existing.AwayTeam = fact.AwayTeam
	existing.CommenceTime = fact.CommenceTime
	if fact.HomeOdds != nil {
		existing.HomeOdds = fact.HomeOdds
	}
	if fact.DrawOdds != nil {
		existing.DrawOdds = fact.DrawOdds
	}
	if fact.AwayOdds != nil {
		existing.AwayOdds = fact.AwayOdds
	}
	if fact.Completed != nil && *fact.Completed {
		existing.Completed = true
	}
	if fact.HomeScore != nil {
		existing.HomeScore = fact.HomeScore
	}
	if fact.AwayScore != nil {
		existing.AwayScore = fact.AwayScore
	}
	existing.UpdatedAt = now
	r.items[fact.ExternalID] = existing
	return match.UpsertUpdated, nil
}

func (r *MatchRepository) GetByExternalID(_ context.Context, externalID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, found := r.items[externalID]
	return item, found, nil
}

func (r *MatchRepository) ListUpcoming(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.items))
	for _, item := range r.items {
		if item.Completed {
			continue
		}
		out = append(out, item)
	}
	sortMatches(out)
	return out, nil
}

func (r *MatchRepository) ListSettleCandidates(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.items))
	for _, item := range r.items {
		if item.ReadyForSettlement() {
			out = append(out, item)
		}
	}
	sortMatches(out)
	return out, nil
}

func (r *MatchRepository) MarkCalculated(_ context.Context, externalID, result string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, found := r.items[externalID]
	if !found || item.Calculated {
		return false, nil
	}
	item.Calculated = true
	item.Result = &result
	item.UpdatedAt = time.Now().UTC()
	r.items[externalID] = item
	return true, nil
}

func sortMatches(items []match.Match) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CommenceTime.Equal(items[j].CommenceTime) {
			return items[i].CommenceTime.Before(items[j].CommenceTime)
		}
		return items[i].ExternalID < items[j].ExternalID
	})
}
