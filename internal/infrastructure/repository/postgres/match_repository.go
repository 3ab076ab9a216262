package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/freebetlabs/match-engine/internal/domain/match"
	qb "github.com/freebetlabs/match-engine/internal/platform/querybuilder"
)

// matchUpsertSuffix merges a feed fact into an existing row. COALESCE on
// EXCLUDED keeps every stored value the incoming fact did not mention,
// and completed only ever flips forward. xmax = 0 distinguishes a fresh
// insert from a conflict update.
const matchUpsertSuffix = `ON CONFLICT (external_id)
DO UPDATE SET
    sport_key = EXCLUDED.sport_key,
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    commence_time = EXCLUDED.commence_time,
    home_odds = COALESCE(EXCLUDED.home_odds, matches.home_odds),
    draw_odds = COALESCE(EXCLUDED.draw_odds, matches.draw_odds),
    away_odds = COALESCE(EXCLUDED.away_odds, matches.away_odds),
    completed = matches.completed OR EXCLUDED.completed,
    home_score = COALESCE(EXCLUDED.home_score, matches.home_score),
    away_score = COALESCE(EXCLUDED.away_score, matches.away_score),
    updated_at = NOW()
RETURNING (xmax = 0) AS inserted`

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Upsert(ctx context.Context, fact match.Fact) (match.UpsertOutcome, error) {
	if strings.TrimSpace(fact.ExternalID) == "" {
		return match.UpsertUpdated, fmt.Errorf("match external id is required")
	}

	query, args, err := qb.InsertModel("matches", factToInsertModel(fact), matchUpsertSuffix)
	if err != nil {
		return match.UpsertUpdated, fmt.Errorf("build upsert match query: %w", err)
	}

	var inserted bool
	if err := r.db.GetContext(ctx, &inserted, query, args...); err != nil {
		return match.UpsertUpdated, fmt.Errorf("upsert match: %w", err)
	}
	if inserted {
		return match.UpsertCreated, nil
	}
	return match.UpsertUpdated, nil
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").
		From("matches").
		Where(qb.Eq("external_id", externalID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) ListUpcoming(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").
		From("matches").
		Where(qb.Eq("completed", false)).
		OrderBy("commence_time", "external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list upcoming matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list upcoming matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchRepository) ListSettleCandidates(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").
		From("matches").
		Where(
			qb.Eq("completed", true),
			qb.Eq("calculated", false),
			qb.Expr("home_score IS NOT NULL"),
			qb.Expr("away_score IS NOT NULL"),
		).
		OrderBy("commence_time", "external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list settle candidates query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list settle candidates: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// MarkCalculated flips the calculated flag exactly once. The
// calculated = FALSE guard makes the loser of a concurrent settlement
// race report zero rows instead of double-settling.
func (r *MatchRepository) MarkCalculated(ctx context.Context, externalID, result string) (bool, error) {
	query, args, err := qb.Update("matches").
		Set("calculated", true).
		Set("result", result).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("external_id", externalID),
			qb.Eq("calculated", false),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build mark calculated query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark match calculated: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark match calculated rows affected: %w", err)
	}
	return affected > 0, nil
}
