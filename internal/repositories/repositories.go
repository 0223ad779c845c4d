// package repositories provides the sqlite persistence layer.
//
// Rows carry a generated id and a per-table sequence number used for ordering and debugging.
package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence increments and returns the next sequence number for the given table inside tx.
//
// Sequence numbers are NOT exposed in CLI output; they exist for ordering rows.
func NextSequence(tx *sql.Tx, table string) (int, error) {
	sequenceTable := table + "_sequence"

	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}
