package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// rowScanner is satisfied by both [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

// expectAffected returns [shared.ErrNotFound] when the statement touched no rows.
func expectAffected(result sql.Result, entity, key string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, entity, key)
	}
	return nil
}
