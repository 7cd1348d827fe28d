package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kongswap/treasury-adaptor/internal/agent"
	"github.com/kongswap/treasury-adaptor/internal/audit"
	"github.com/kongswap/treasury-adaptor/internal/dex"
	"github.com/kongswap/treasury-adaptor/internal/types"
)

type call struct {
	canisterID types.Principal
	method     string
}

type scriptedAgent struct {
	calls   []call
	replies map[string][]byte
	failOn  map[string]error
}

func newScriptedAgent() *scriptedAgent {
	return &scriptedAgent{
		replies: make(map[string][]byte),
		failOn:  make(map[string]error),
	}
}

func (a *scriptedAgent) Call(_ context.Context, canisterID types.Principal, req agent.Request) ([]byte, error) {
	a.calls = append(a.calls, call{canisterID: canisterID, method: req.Method()})
	if err, ok := a.failOn[req.Method()]; ok {
		return nil, err
	}
	if raw, ok := a.replies[req.Method()]; ok {
		return raw, nil
	}
	return []byte(`{"Ok":{}}`), nil
}

func TestEmitJournalsAndCommits(t *testing.T) {
	ag := newScriptedAgent()
	ag.replies["add_token"] = []byte(`{"Ok":{"token_id":7,"symbol":"DAO"}}`)
	trail := audit.NewTrail(nil)
	e := New(ag, trail, "self")
	e.NowNS = func() uint64 { return 42 }

	opCtx := types.NewOperationContext(types.OperationDeposit)
	reply, err := Emit(context.Background(), e, opCtx, "kong",
		&dex.AddTokenRequest{Token: "IC.ledger-0"}, "register token 0")

	require.Nil(t, err)
	assert.Equal(t, uint64(7), reply.TokenID)

	records := trail.Records()
	require.Len(t, records, 1)
	assert.Equal(t, uint64(42), records[0].TimestampNS)
	assert.Equal(t, types.Principal("kong"), records[0].CanisterID)
	assert.Equal(t, uint64(0), records[0].Step.Index)
	assert.True(t, records[0].Succeeded())

	// one outbound call plus the commit boundary self call
	require.Len(t, ag.calls, 2)
	assert.Equal(t, "add_token", ag.calls[0].method)
	assert.Equal(t, call{canisterID: "self", method: "commit_state"}, ag.calls[1])
}

func TestEmitRecordsCallFailure(t *testing.T) {
	ag := newScriptedAgent()
	ag.failOn["add_token"] = errors.New("gateway unreachable")
	trail := audit.NewTrail(nil)
	e := New(ag, trail, "self")

	opCtx := types.NewOperationContext(types.OperationDeposit)
	_, err := Emit(context.Background(), e, opCtx, "kong",
		&dex.AddTokenRequest{Token: "IC.ledger-0"}, "register token 0")

	require.NotNil(t, err)
	assert.Equal(t, types.KindCall, err.Kind)
	assert.Equal(t, "add_token", err.Method)

	records := trail.Records()
	require.Len(t, records, 1)
	assert.False(t, records[0].Succeeded())

	// the failed call still gets a commit boundary
	assert.Equal(t, "commit_state", ag.calls[len(ag.calls)-1].method)
}

func TestEmitRecordsBackendFailure(t *testing.T) {
	ag := newScriptedAgent()
	ag.replies["add_token"] = []byte(`{"Err":"Token IC.ledger-0 already exists"}`)
	trail := audit.NewTrail(nil)
	e := New(ag, trail, "self")

	opCtx := types.NewOperationContext(types.OperationDeposit)
	_, err := Emit(context.Background(), e, opCtx, "kong",
		&dex.AddTokenRequest{Token: "IC.ledger-0"}, "register token 0")

	require.NotNil(t, err)
	assert.Equal(t, types.KindBackend, err.Kind)
	assert.True(t, dex.IsTokenAlreadyRegistered(err, "IC.ledger-0"))
}

func TestEmitStepNumbering(t *testing.T) {
	ag := newScriptedAgent()
	ag.replies["add_token"] = []byte(`{"Ok":{"token_id":1,"symbol":"DAO"}}`)
	trail := audit.NewTrail(nil)
	e := New(ag, trail, "self")

	opCtx := types.NewOperationContext(types.OperationDeposit)
	for i := 0; i < 3; i++ {
		if i == 2 {
			opCtx.MarkFinal()
		}
		_, err := Emit(context.Background(), e, opCtx, "kong",
			&dex.AddTokenRequest{Token: "IC.ledger-0"}, "step")
		require.Nil(t, err)
	}

	records := trail.Records()
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, uint64(i), r.Step.Index)
		assert.Equal(t, i == 2, r.Step.IsFinal)
	}
}
