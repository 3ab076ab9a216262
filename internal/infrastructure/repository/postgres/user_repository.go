package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freebetlabs/match-engine/internal/domain/user"
	qb "github.com/freebetlabs/match-engine/internal/platform/querybuilder"
)

type userTableModel struct {
	ID      int64   `db:"id"`
	Name    string  `db:"name"`
	Balance float64 `db:"balance"`
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (user.User, bool, error) {
	query, args, err := qb.Select("id", "name", "balance").
		From("users").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user: %w", err)
	}
	return user.User{ID: row.ID, Name: row.Name, Balance: row.Balance}, true, nil
}

// DebitStake takes the stake from the user's balance. The balance >= ?
// predicate rejects overdrafts at the database, not just in the service,
// so two concurrent placements can't both spend the same funds.
func (r *UserRepository) DebitStake(ctx context.Context, id int64, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be greater than zero")
	}

	query, args, err := qb.Update("users").
		SetExpr("balance", "balance - ?", amount).
		Where(
			qb.Eq("id", id),
			qb.Expr("balance >= ?", amount),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build debit stake query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("debit stake: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit stake rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d has insufficient balance", id)
	}
	return nil
}
