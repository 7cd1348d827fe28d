package adaptor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kongswap/treasury-adaptor/internal/book"
	"github.com/kongswap/treasury-adaptor/internal/dex"
	"github.com/kongswap/treasury-adaptor/internal/engine"
	"github.com/kongswap/treasury-adaptor/internal/types"
)

// Withdraw unwinds the whole position: burn the LP balance, retry any pending
// claims, and forward everything on the self account to the withdraw
// accounts. Missing entries in withdrawAccounts fall back to the owner
// accounts captured at init.
func (s *Service) Withdraw(ctx context.Context, withdrawAccounts map[types.Principal]types.Account) (*book.Position, []*types.Error) {
	if err := s.lock.TryAcquire(types.OperationWithdraw); err != nil {
		return nil, []*types.Error{err}
	}
	defer s.lock.Release()

	opID := uuid.New().String()
	log := s.opLogger("withdraw", opID)
	log.Info().Msg("Starting withdraw")

	var errs []*types.Error
	opCtx := types.NewOperationContext(types.OperationWithdraw)

	lpBalance, err := s.queryLPBalance(ctx, opCtx)
	if err != nil {
		errs = append(errs, err)
	}

	// A zero LP balance is not an error; whatever sits on the self account
	// is still returned below.
	if lpBalance > 0 {
		s.removeLiquidity(ctx, opCtx, lpBalance, &errs)
	} else {
		log.Info().Msg("No LP balance to unwind")
	}

	s.retryPendingClaims(ctx, opCtx, &errs)

	s.posMu.Lock()
	managerBefore := map[types.Principal]uint64{
		s.position.Asset0.LedgerID: s.position.Book0.Balance(book.TreasuryManager),
		s.position.Asset1.LedgerID: s.position.Book1.Balance(book.TreasuryManager),
	}
	s.posMu.Unlock()

	observed := s.returnRemainder(ctx, opCtx, log, withdrawAccounts, &errs)

	// The self account should hold at least what the backend claims to have
	// delivered, minus one fee per delivery leg.
	for ledgerID, balance := range observed {
		s.posMu.Lock()
		s.position.FindWithdrawDiscrepancy(ledgerID, 0, balance, managerBefore[ledgerID])
		s.posMu.Unlock()
	}

	s.finishOperation(log)
	recordOutcome(types.OperationWithdraw, errs)
	log.Info().Int("errors", len(errs)).Msg("Withdraw finished")
	return s.Balances(), errs
}

// removeLiquidity burns the LP balance and books every delivery the backend
// reports. Pending claim ids mean a partial withdrawal: recorded as an error,
// but the operation keeps going.
func (s *Service) removeLiquidity(ctx context.Context, opCtx *types.OperationContext, lpBalance uint64, errs *[]*types.Error) {
	sym0 := s.position.Asset0.Symbol.String()
	sym1 := s.position.Asset1.Symbol.String()

	reply, err := engine.Emit(ctx, s.engine, opCtx, s.cfg.KongID,
		&dex.RemoveLiquidityRequest{
			Token0:              dex.TokenName(s.position.Asset0.LedgerID),
			Token1:              dex.TokenName(s.position.Asset1.LedgerID),
			RemoveLPTokenAmount: lpBalance,
		},
		fmt.Sprintf("remove %d LP of pool %s", lpBalance, dex.LPTokenSymbol(sym0, sym1)))
	if err != nil {
		*errs = append(*errs, err)
		return
	}

	s.applyDeliveries(reply.TransferIDs, errs)

	if len(reply.ClaimIDs) > 0 {
		*errs = append(*errs, types.BackendError(fmt.Sprintf(
			"Withdrawal is incomplete, pending claim ids: %v", reply.ClaimIDs)))
	}
}

// retryPendingClaims asks the backend for outstanding claims and retries each
// one. Per-claim failures accumulate without stopping the rest.
func (s *Service) retryPendingClaims(ctx context.Context, opCtx *types.OperationContext, errs *[]*types.Error) {
	claims, err := engine.Emit(ctx, s.engine, opCtx, s.cfg.KongID,
		&dex.ClaimsRequest{Principal: s.cfg.SelfID},
		"list pending claims")
	if err != nil {
		*errs = append(*errs, err)
		return
	}

	for _, c := range claims {
		reply, err := engine.Emit(ctx, s.engine, opCtx, s.cfg.KongID,
			&dex.ClaimRequest{ClaimID: c.ClaimID},
			fmt.Sprintf("claim pending delivery %d (%s)", c.ClaimID, c.Symbol))
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		s.applyDeliveries(reply.TransferIDs, errs)
	}
}
