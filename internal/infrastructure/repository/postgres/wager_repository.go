package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/freebetlabs/match-engine/internal/domain/wager"
	qb "github.com/freebetlabs/match-engine/internal/platform/querybuilder"
)

type WagerRepository struct {
	db *sqlx.DB
}

func NewWagerRepository(db *sqlx.DB) *WagerRepository {
	return &WagerRepository{db: db}
}

func (r *WagerRepository) Place(ctx context.Context, w wager.Wager) (wager.Wager, error) {
	insertModel := wagerInsertModel{
		UserID:          w.UserID,
		MatchExternalID: w.MatchExternalID,
		HomeTeam:        w.HomeTeam,
		AwayTeam:        w.AwayTeam,
		Selection:       w.Selection,
		Stake:           w.Stake,
		Odds:            w.Odds,
		PotentialPayout: w.PotentialPayout,
		Status:          w.Status,
	}
	query, args, err := qb.InsertModel("wagers", insertModel, "RETURNING id, created_at")
	if err != nil {
		return wager.Wager{}, fmt.Errorf("build place wager query: %w", err)
	}

	var placed struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &placed, query, args...); err != nil {
		return wager.Wager{}, fmt.Errorf("place wager: %w", err)
	}

	w.ID = placed.ID
	w.CreatedAt = placed.CreatedAt
	return w, nil
}

func (r *WagerRepository) ListByUser(ctx context.Context, userID int64) ([]wager.Wager, error) {
	query, args, err := qb.Select("*").
		From("wagers").
		Where(qb.Eq("user_id", userID)).
		OrderBy("created_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list wagers query: %w", err)
	}

	var rows []wagerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list wagers: %w", err)
	}

	out := make([]wager.Wager, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// SettleForMatch resolves every pending wager on the match in one
// transaction. The status = 'pending' predicate makes the bulk update
// idempotent, and winner credits commit atomically with the flips: a
// wager can never be marked won without its payout landing.
func (r *WagerRepository) SettleForMatch(ctx context.Context, matchExternalID, result string) ([]wager.Settled, error) {
	settleQuery, settleArgs, err := qb.Update("wagers").
		SetExpr("status", "CASE WHEN selection = ? THEN 'won' ELSE 'lost' END", result).
		Where(
			qb.Eq("match_external_id", matchExternalID),
			qb.EqLiteral("status", wager.StatusPending),
		).
		Suffix("RETURNING id, user_id, status, potential_payout").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build settle wagers query: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settlement tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryxContext(ctx, settleQuery, settleArgs...)
	if err != nil {
		return nil, fmt.Errorf("settle wagers: %w", err)
	}

	settled := make([]wager.Settled, 0, 8)
	for rows.Next() {
		var row struct {
			ID              int64   `db:"id"`
			UserID          int64   `db:"user_id"`
			Status          string  `db:"status"`
			PotentialPayout float64 `db:"potential_payout"`
		}
		if err := rows.StructScan(&row); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan settled wager: %w", err)
		}
		settled = append(settled, wager.Settled{
			WagerID:         row.ID,
			UserID:          row.UserID,
			Status:          row.Status,
			PotentialPayout: row.PotentialPayout,
		})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate settled wagers: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close settled wagers: %w", err)
	}

	for _, item := range settled {
		if item.Status != wager.StatusWon {
			continue
		}
		creditQuery, creditArgs, err := qb.Update("users").
			SetExpr("balance", "balance + ?", item.PotentialPayout).
			Where(qb.Eq("id", item.UserID)).
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build credit winner query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, creditQuery, creditArgs...); err != nil {
			return nil, fmt.Errorf("credit winner user_id=%d: %w", item.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settlement tx: %w", err)
	}
	return settled, nil
}
