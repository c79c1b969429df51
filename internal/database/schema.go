package database

import (
	"context"
	"fmt"
)

// EnsureSchema creates the jobs table and its indexes when they are missing.
// It is safe to call before every unit of work.
func (d *DB) EnsureSchema(ctx context.Context) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin schema tx: %v", ErrConnection, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range d.dialect.schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %v", ErrConnection, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit schema: %v", ErrConnection, err)
	}
	return nil
}
