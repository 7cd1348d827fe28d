// ./internal/state/position_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kongswap/treasury-adaptor/internal/book"
)

// SavePosition upserts the single-row position cell.
func SavePosition(p *book.Position) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to serialize position: %w", err)
	}

	_, err = DB.Exec(`
		INSERT INTO position (id, position, updated_at)
		VALUES (1, $1, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE
		SET position = EXCLUDED.position, updated_at = CURRENT_TIMESTAMP
	`, raw)
	if err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

// LoadPosition reads the position cell. Returns (nil, nil) when no position
// has ever been saved.
func LoadPosition() (*book.Position, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var raw []byte
	err := DB.QueryRow(`SELECT position FROM position WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load position: %w", err)
	}

	var p book.Position
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to deserialize position: %w", err)
	}
	return &p, nil
}
