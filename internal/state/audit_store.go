// ./internal/state/audit_store.go
package state

import (
	"fmt"

	"github.com/kongswap/treasury-adaptor/internal/audit"
)

// AuditStore persists audit records into the append-only audit_trail table.
// It implements audit.Store.
type AuditStore struct{}

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) AppendRecord(record *audit.Record) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := DB.Exec(`
		INSERT INTO audit_trail (timestamp_ns, canister_id, operation, step_index, is_final, rendered)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		int64(record.TimestampNS),
		record.CanisterID.String(),
		record.Operation.String(),
		int64(record.Step.Index),
		record.Step.IsFinal,
		audit.Render(record),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// LoadRenderedTrail returns every persisted record's rendering, oldest first.
func LoadRenderedTrail() ([]string, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query(`SELECT rendered FROM audit_trail ORDER BY record_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var rendered string
		if err := rows.Scan(&rendered); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		out = append(out, rendered)
	}
	return out, rows.Err()
}
