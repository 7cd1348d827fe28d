package adaptor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kongswap/treasury-adaptor/internal/dex"
	"github.com/kongswap/treasury-adaptor/internal/engine"
	"github.com/kongswap/treasury-adaptor/internal/metrics"
	"github.com/kongswap/treasury-adaptor/internal/types"
	"github.com/kongswap/treasury-adaptor/internal/validation"
)

// Refresh reconciles the cached position against the outside world: re-read
// ledger metadata for both assets, then estimate the underlying value of the
// LP holding and write it to the external party.
func (s *Service) Refresh(ctx context.Context) []*types.Error {
	if err := s.lock.TryAcquire(types.OperationBalances); err != nil {
		return []*types.Error{err}
	}
	defer s.lock.Release()

	opID := uuid.New().String()
	log := s.opLogger("refresh", opID)
	log.Info().Msg("Starting position refresh")

	var errs []*types.Error
	opCtx := types.NewOperationContext(types.OperationBalances)

	s.refreshMetadata(ctx, opCtx, log, &errs)

	lpBalance, err := s.queryLPBalance(ctx, opCtx)
	if err != nil {
		errs = append(errs, err)
		s.finishOperation(log)
		recordOutcome(types.OperationBalances, errs)
		return errs
	}

	var external0, external1 uint64
	if lpBalance > 0 {
		opCtx.MarkFinal()
		estimate, err := engine.Emit(ctx, s.engine, opCtx, s.cfg.KongID,
			&dex.RemoveLiquidityAmountsRequest{
				Token0:              dex.TokenName(s.position.Asset0.LedgerID),
				Token1:              dex.TokenName(s.position.Asset1.LedgerID),
				RemoveLPTokenAmount: lpBalance,
			},
			"estimate the underlying value of the LP holding")
		if err != nil {
			errs = append(errs, err)
			s.finishOperation(log)
			recordOutcome(types.OperationBalances, errs)
			return errs
		}
		if external0, err = validation.DecodeUint64(estimate.Amount0, "estimated amount_0"); err != nil {
			errs = append(errs, err)
		}
		if external1, err = validation.DecodeUint64(estimate.Amount1, "estimated amount_1"); err != nil {
			errs = append(errs, err)
		}
	}

	s.posMu.Lock()
	s.position.SetExternal(s.position.Asset0.LedgerID, external0)
	s.position.SetExternal(s.position.Asset1.LedgerID, external1)
	s.posMu.Unlock()

	s.finishOperation(log)
	metrics.LastReconciliationTS.Set(float64(time.Now().Unix()))
	recordOutcome(types.OperationBalances, errs)
	log.Info().
		Uint64("lp_balance", lpBalance).
		Uint64("external_0", external0).
		Uint64("external_1", external1).
		Msg("Position refresh finished")
	return errs
}
