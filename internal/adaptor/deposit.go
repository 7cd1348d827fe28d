package adaptor

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kongswap/treasury-adaptor/internal/book"
	"github.com/kongswap/treasury-adaptor/internal/config"
	"github.com/kongswap/treasury-adaptor/internal/dex"
	"github.com/kongswap/treasury-adaptor/internal/engine"
	"github.com/kongswap/treasury-adaptor/internal/ledger"
	"github.com/kongswap/treasury-adaptor/internal/types"
	"github.com/kongswap/treasury-adaptor/internal/validation"
)

// Deposit grants the backend allowances over both assets and contributes
// them to the pool, creating it if needed. Whatever could not be contributed
// flows back to the owner accounts; the final position and every accumulated
// error are returned together.
func (s *Service) Deposit(ctx context.Context, allowances []validation.Allowance) (*book.Position, []*types.Error) {
	if err := s.lock.TryAcquire(types.OperationDeposit); err != nil {
		return nil, []*types.Error{err}
	}
	defer s.lock.Release()

	opID := uuid.New().String()
	log := s.opLogger("deposit", opID)
	log.Info().Msg("Starting deposit")

	a0, a1, errs := validation.ValidateAllowances(allowances, s.cfg.ICPLedgerID)
	if len(errs) > 0 {
		recordOutcome(types.OperationDeposit, errs)
		return nil, errs
	}

	// The allowances must target the pair this instance manages.
	if a0.Asset.LedgerID != s.position.Asset0.LedgerID || a1.Asset.LedgerID != s.position.Asset1.LedgerID {
		err := types.Preconditionf(
			"allowance ledgers (%s, %s) do not match the managed pair %s/%s on ledgers (%s, %s)",
			a0.Asset.LedgerID, a1.Asset.LedgerID,
			s.position.Asset0.Symbol, s.position.Asset1.Symbol,
			s.position.Asset0.LedgerID, s.position.Asset1.LedgerID)
		errs = []*types.Error{err}
		recordOutcome(types.OperationDeposit, errs)
		return nil, errs
	}

	opCtx := types.NewOperationContext(types.OperationDeposit)
	allow := [2]validation.Allowance{a0, a1}

	// Step 1: approvals. Each asset is independent; a failure on one does
	// not stop the other, but any failure skips the contribution and goes
	// straight to returning funds.
	approved := true
	for _, al := range allow {
		fee := al.Asset.LedgerFee
		req := &ledger.ApproveRequest{
			Spender:           types.Account{Owner: s.cfg.KongID},
			Amount:            al.Amount - fee,
			ExpectedAllowance: 0,
			ExpiresAtNS:       s.nowNS() + uint64(config.ApproveExpiry.Nanoseconds()),
			Fee:               fee,
		}
		_, err := engine.Emit(ctx, s.engine, opCtx, al.Asset.LedgerID, req,
			fmt.Sprintf("approve %d %s for the backend", al.Amount-fee, al.Asset.Symbol))
		if err != nil {
			errs = append(errs, err)
			approved = false
			continue
		}
		s.posMu.Lock()
		s.position.AddManager(al.Asset.LedgerID, al.Amount)
		s.position.ChargeFee(al.Asset.LedgerID)
		s.posMu.Unlock()
	}

	var pulled [2]uint64
	if approved {
		pulled = s.contribute(ctx, opCtx, log, allow, &errs)
	}

	// Return remainder always runs, even after failures: a partial approval
	// leaves funds that must flow back to the owner.
	observed := s.returnRemainder(ctx, opCtx, log, nil, &errs)

	for i, al := range allow {
		balance, ok := observed[al.Asset.LedgerID]
		if !ok {
			continue
		}
		explained := al.Asset.LedgerFee // the approve fee
		if pulled[i] > 0 {
			explained += pulled[i] + al.Asset.LedgerFee
		}
		s.posMu.Lock()
		s.position.FindDepositDiscrepancy(al.Asset.LedgerID, al.Amount, balance, explained)
		s.posMu.Unlock()
	}

	s.finishOperation(log)
	recordOutcome(types.OperationDeposit, errs)
	log.Info().Int("errors", len(errs)).Msg("Deposit finished")
	return s.Balances(), errs
}

// contribute registers the tokens, refreshes metadata, and pushes both
// amounts into the pool, creating it or topping it up. It returns the amount
// the backend pulled per asset (zero when nothing was pulled).
func (s *Service) contribute(
	ctx context.Context,
	opCtx *types.OperationContext,
	log zerolog.Logger,
	allow [2]validation.Allowance,
	errs *[]*types.Error,
) [2]uint64 {
	var pulled [2]uint64

	// Step 2: register both tokens. An already-registered token is fine.
	for _, al := range allow {
		token := dex.TokenName(al.Asset.LedgerID)
		_, err := engine.Emit(ctx, s.engine, opCtx, s.cfg.KongID,
			&dex.AddTokenRequest{Token: token},
			"register "+al.Asset.Symbol.String()+" with the backend")
		if err != nil && !dex.IsTokenAlreadyRegistered(err, token) {
			*errs = append(*errs, err)
			return pulled
		}
	}

	// Step 3: refresh metadata so the fees used below are current.
	s.refreshMetadata(ctx, opCtx, log, errs)

	sym0 := s.position.Asset0.Symbol.String()
	sym1 := s.position.Asset1.Symbol.String()
	token0 := dex.TokenName(allow[0].Asset.LedgerID)
	token1 := dex.TokenName(allow[1].Asset.LedgerID)

	// One approve fee and one pull fee per asset never reach the pool. The
	// refreshed fee may exceed the allowance, so the subtraction saturates.
	amount0 := validation.SaturatingSub(allow[0].Amount, 2*s.position.Asset0.LedgerFee)
	amount1 := validation.SaturatingSub(allow[1].Amount, 2*s.position.Asset1.LedgerFee)

	// Step 4: try creating the pool.
	poolReply, err := engine.Emit(ctx, s.engine, opCtx, s.cfg.KongID,
		&dex.AddPoolRequest{
			Token0:   token0,
			Amount0:  amount0,
			Token1:   token1,
			Amount1:  amount1,
			LPFeeBPS: config.LPFeeBPS,
		},
		fmt.Sprintf("create pool %s with %d %s and %d %s",
			dex.LPTokenSymbol(sym0, sym1), amount0, sym0, amount1, sym1))
	if err == nil {
		pulled[0] = s.bookPull(allow[0].Asset.LedgerID, poolReply.Amount0, errs)
		pulled[1] = s.bookPull(allow[1].Asset.LedgerID, poolReply.Amount1, errs)
		return pulled
	}
	if !dex.IsPoolAlreadyCreated(err, sym0, sym1) {
		*errs = append(*errs, err)
		return pulled
	}

	// Step 5: the pool exists; top it up. The backend decides how much of
	// asset 1 a proportional contribution of amount_0 requires.
	log.Info().Msg("Pool already exists, switching to top-up")
	quote, err := engine.Emit(ctx, s.engine, opCtx, s.cfg.KongID,
		&dex.AddLiquidityAmountsRequest{Token0: token0, Amount0: amount0, Token1: token1},
		fmt.Sprintf("estimate the %s amount needed to top up with %d %s", sym1, amount0, sym0))
	if err != nil {
		*errs = append(*errs, err)
		return pulled
	}
	amount1Derived, derr := validation.DecodeUint64(quote.Amount1, "top-up amount_1")
	if derr != nil {
		*errs = append(*errs, derr)
		return pulled
	}
	if amount1 < amount1Derived {
		*errs = append(*errs, types.BackendError(fmt.Sprintf(
			"Got top-up amount_1 = %d (must be at least %d)", amount1, amount1Derived)))
		return pulled
	}

	liqReply, err := engine.Emit(ctx, s.engine, opCtx, s.cfg.KongID,
		&dex.AddLiquidityRequest{
			Token0:  token0,
			Amount0: amount0,
			Token1:  token1,
			Amount1: amount1Derived,
		},
		fmt.Sprintf("top up pool %s with %d %s and %d %s",
			dex.LPTokenSymbol(sym0, sym1), amount0, sym0, amount1Derived, sym1))
	if err != nil {
		*errs = append(*errs, err)
		return pulled
	}
	pulled[0] = s.bookPull(allow[0].Asset.LedgerID, liqReply.Amount0, errs)
	pulled[1] = s.bookPull(allow[1].Asset.LedgerID, liqReply.Amount1, errs)
	return pulled
}

// bookPull books one confirmed pull into the pool: the pulled amount plus its
// transfer fee leave the manager, the pool is credited with the pulled
// amount, and the fee goes to the collector.
func (s *Service) bookPull(ledgerID types.Principal, amount sdkmath.Int, errs *[]*types.Error) uint64 {
	pulled, err := validation.DecodeUint64(amount, "pulled amount")
	if err != nil {
		*errs = append(*errs, err)
		return 0
	}
	s.posMu.Lock()
	fee := s.position.Asset(ledgerID).LedgerFee
	s.position.Move(ledgerID, book.TreasuryManager, book.External, pulled+fee)
	s.posMu.Unlock()
	return pulled
}
