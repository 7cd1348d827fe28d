package audit

import (
	"sync"

	"github.com/kongswap/treasury-adaptor/internal/logger"
	"github.com/kongswap/treasury-adaptor/internal/types"
)

// Record is one audited outbound call: who was called, within which operation
// step, and what came back.
type Record struct {
	TimestampNS uint64          `json:"timestamp_ns"`
	CanisterID  types.Principal `json:"canister_id"`
	Operation   types.Operation `json:"operation"`
	Step        types.Step      `json:"step"`
	Description string          `json:"description"`

	// Exactly one of Witness and Failure is set.
	Witness *types.Witness `json:"witness,omitempty"`
	Failure *types.Error   `json:"failure,omitempty"`
}

// Succeeded reports whether the call produced a witness.
func (r *Record) Succeeded() bool {
	return r.Witness != nil
}

// Store persists records durably, in append order.
type Store interface {
	AppendRecord(record *Record) error
}

// Trail is the in-memory append-only audit log, mirrored into a Store.
type Trail struct {
	mu      sync.Mutex
	records []*Record
	store   Store
}

// NewTrail builds a trail mirroring into store. A nil store keeps the trail
// memory-only (used in tests).
func NewTrail(store Store) *Trail {
	return &Trail{store: store}
}

// Append adds the record to the trail and persists it. Persistence failures
// are logged; the in-memory trail stays authoritative for queries.
func (t *Trail) Append(record *Record) {
	t.mu.Lock()
	t.records = append(t.records, record)
	t.mu.Unlock()

	if t.store == nil {
		return
	}
	if err := t.store.AppendRecord(record); err != nil {
		log := logger.GetForComponent("audit_trail")
		log.Error().Err(err).Msg("Failed to persist audit record")
	}
}

// Records returns a snapshot of the trail in append order.
func (t *Trail) Records() []*Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len returns the number of appended records.
func (t *Trail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}
