package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freebetlabs/match-engine/internal/infrastructure/repository/memory"
)

// BootstrapSeed inserts the demo bettors on an empty database. Existing
// rows win; reruns are no-ops.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM users`); err != nil {
		return fmt.Errorf("count users for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, u := range memory.SeedUsers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO users (id, name, balance)
VALUES (:id, :name, :balance)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":      u.ID,
			"name":    u.Name,
			"balance": u.Balance,
		})
		if err != nil {
			return fmt.Errorf("bind seed user %s query: %w", u.Name, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT MAX(id) FROM users))`); err != nil {
		return fmt.Errorf("advance users id sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
