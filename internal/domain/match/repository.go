package match

import "context"

// UpsertOutcome tells the caller whether a merge created a new row or
// touched an existing one.
type UpsertOutcome int

const (
	UpsertCreated UpsertOutcome = iota
	UpsertUpdated
)

// Repository exposes match persistence. Upsert merges a fact into the
// store keyed by external ID: absent fact fields keep the stored values.
type Repository interface {
	Upsert(ctx context.Context, fact Fact) (UpsertOutcome, error)
	GetByExternalID(ctx context.Context, externalID string) (Match, bool, error)
	ListUpcoming(ctx context.Context) ([]Match, error)
	ListSettleCandidates(ctx context.Context) ([]Match, error)
	MarkCalculated(ctx context.Context, externalID, result string) (bool, error)
}
