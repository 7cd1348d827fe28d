// Package engine is the audited RPC layer: every outbound call produces an
// audit record and is followed by a self-addressed commit call that makes the
// record durable before the next suspension point.
package engine

import (
	"context"
	"time"

	"github.com/kongswap/treasury-adaptor/internal/agent"
	"github.com/kongswap/treasury-adaptor/internal/audit"
	"github.com/kongswap/treasury-adaptor/internal/logger"
	"github.com/kongswap/treasury-adaptor/internal/metrics"
	"github.com/kongswap/treasury-adaptor/internal/types"
)

// commitStateRequest is the no-op self call. Its completion forces the
// runtime to persist everything appended before it; a panic later can no
// longer roll the journal back past this point.
type commitStateRequest struct{}

func (commitStateRequest) Method() string           { return "commit_state" }
func (commitStateRequest) Update() bool             { return true }
func (commitStateRequest) Payload() ([]byte, error) { return []byte("{}"), nil }

// Engine drives audited calls through an Agent and journals them.
type Engine struct {
	agent  agent.Agent
	trail  *audit.Trail
	selfID types.Principal

	// NowNS is the clock stamped onto records; replaceable in tests.
	NowNS func() uint64
}

func New(ag agent.Agent, trail *audit.Trail, selfID types.Principal) *Engine {
	return &Engine{
		agent:  ag,
		trail:  trail,
		selfID: selfID,
		NowNS:  func() uint64 { return uint64(time.Now().UnixNano()) },
	}
}

// Trail returns the engine's audit trail.
func (e *Engine) Trail() *audit.Trail {
	return e.trail
}

// Emit performs one outbound call within an operation: call, journal the
// witnessed result or the failure, commit, and hand the typed result back.
func Emit[Ok any](
	ctx context.Context,
	e *Engine,
	opCtx *types.OperationContext,
	canisterID types.Principal,
	req agent.TypedRequest[Ok],
	description string,
) (Ok, *types.Error) {
	log := logger.GetForComponent("engine")
	step := opCtx.NextStep()

	var ok Ok
	var witness types.Witness
	var failure *types.Error

	raw, callErr := e.agent.Call(ctx, canisterID, req)
	if callErr != nil {
		failure = types.CallError(req.Method(), canisterID, callErr)
	} else {
		witness, ok, failure = req.Decode(canisterID, raw)
	}

	record := &audit.Record{
		TimestampNS: e.NowNS(),
		CanisterID:  canisterID,
		Operation:   opCtx.Operation(),
		Step:        step,
		Description: description,
	}
	if failure != nil {
		record.Failure = failure
		metrics.AuditRecordsTotal.WithLabelValues("failure").Inc()
		log.Warn().
			Str("canister_id", canisterID.String()).
			Str("method", req.Method()).
			Uint64("step", step.Index).
			Err(failure).
			Msg("Audited call failed")
	} else {
		record.Witness = &witness
		metrics.AuditRecordsTotal.WithLabelValues("success").Inc()
		log.Info().
			Str("canister_id", canisterID.String()).
			Str("method", req.Method()).
			Uint64("step", step.Index).
			Bool("is_final", step.IsFinal).
			Msg("Audited call succeeded")
	}
	e.trail.Append(record)

	e.commit(ctx)

	return ok, failure
}

// commit performs the self-addressed durability call. Its failure never
// changes an operation's result.
func (e *Engine) commit(ctx context.Context) {
	if _, err := e.agent.Call(ctx, e.selfID, commitStateRequest{}); err != nil {
		metrics.CommitFailuresTotal.Inc()
		log := logger.GetForComponent("engine")
		log.Error().Err(err).Msg("Commit boundary call failed")
	}
}
