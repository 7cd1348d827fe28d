package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

type recordingStore struct {
	appended []*Record
	err      error
}

func (s *recordingStore) AppendRecord(r *Record) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, r)
	return nil
}

func TestTrailAppendOrder(t *testing.T) {
	store := &recordingStore{}
	trail := NewTrail(store)

	for i := 0; i < 3; i++ {
		trail.Append(&Record{
			Operation:   types.OperationDeposit,
			Step:        types.Step{Index: uint64(i)},
			Description: "step",
		})
	}

	records := trail.Records()
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, uint64(i), r.Step.Index)
	}
	assert.Len(t, store.appended, 3)
}

func TestTrailSurvivesStoreFailure(t *testing.T) {
	trail := NewTrail(&recordingStore{err: assert.AnError})
	trail.Append(&Record{Description: "still recorded"})
	assert.Equal(t, 1, trail.Len())
}

func TestClampTextEscapesNonASCII(t *testing.T) {
	out := ClampText("ok\x00\xff")
	assert.Equal(t, `ok\x00\xff`, out)
}

func TestClampTextMiddleEllipsis(t *testing.T) {
	long := strings.Repeat("a", 5000)
	out := ClampText(long)
	require.Len(t, out, MaxTextBytes)
	assert.True(t, strings.HasPrefix(out, "aaa"))
	assert.True(t, strings.HasSuffix(out, "aaa"))
	assert.Contains(t, out, "...")
}

func TestClampTextShortUnchanged(t *testing.T) {
	assert.Equal(t, "hello", ClampText("hello"))
}

func TestRenderBoundsRecord(t *testing.T) {
	w := types.NonLedgerWitness(strings.Repeat("x", 10_000))
	r := &Record{
		CanisterID:  "kong-backend",
		Operation:   types.OperationWithdraw,
		Step:        types.Step{Index: 4, IsFinal: true},
		Description: strings.Repeat("d", 3000),
		Witness:     &w,
	}
	out := Render(r)
	assert.LessOrEqual(t, len(out), MaxRecordBytes)
	for i := 0; i < len(out); i++ {
		assert.True(t, out[i] >= ' ' && out[i] <= '~', "non-ascii byte at %d", i)
	}
}

func TestRenderFailureRecord(t *testing.T) {
	r := &Record{
		CanisterID:  "ledger-0",
		Operation:   types.OperationDeposit,
		Description: "approve",
		Failure:     types.BackendError("InsufficientFunds"),
	}
	out := Render(r)
	assert.Contains(t, out, "InsufficientFunds")
	assert.False(t, r.Succeeded())
}
