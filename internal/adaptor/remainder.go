package adaptor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kongswap/treasury-adaptor/internal/book"
	"github.com/kongswap/treasury-adaptor/internal/engine"
	"github.com/kongswap/treasury-adaptor/internal/ledger"
	"github.com/kongswap/treasury-adaptor/internal/types"
	"github.com/kongswap/treasury-adaptor/internal/validation"
)

// returnRemainder forwards whatever sits on the adaptor's own account back to
// the per-ledger destination accounts. overrides may replace the default
// owner account per ledger. It returns the observed self-account balance per
// ledger, for reconciliation by the caller.
func (s *Service) returnRemainder(
	ctx context.Context,
	opCtx *types.OperationContext,
	log zerolog.Logger,
	overrides map[types.Principal]types.Account,
	errs *[]*types.Error,
) map[types.Principal]uint64 {
	observed := make(map[types.Principal]uint64, 2)

	type pendingTransfer struct {
		asset   validation.Asset
		to      types.Account
		balance uint64
	}
	var pending []pendingTransfer

	for _, asset := range []validation.Asset{s.position.Asset0, s.position.Asset1} {
		reply, err := engine.Emit(ctx, s.engine, opCtx, asset.LedgerID,
			&ledger.BalanceOfRequest{Account: s.selfAccount()},
			"read the remaining "+asset.Symbol.String()+" balance")
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		balance, derr := validation.DecodeUint64(reply, "self balance")
		if derr != nil {
			*errs = append(*errs, derr)
			continue
		}
		observed[asset.LedgerID] = balance

		if balance <= asset.LedgerFee {
			log.Debug().
				Str("asset", asset.Symbol.String()).
				Uint64("balance", balance).
				Msg("Nothing worth returning")
			continue
		}
		pending = append(pending, pendingTransfer{
			asset:   asset,
			to:      s.destinationAccount(asset.LedgerID, overrides),
			balance: balance,
		})
	}

	for i, p := range pending {
		if i == len(pending)-1 {
			opCtx.MarkFinal()
		}
		memo := types.Memo(opCtx.Operation(), opCtx.PeekStep())
		req := &ledger.TransferRequest{
			To:     p.to,
			Amount: p.balance - p.asset.LedgerFee,
			Fee:    p.asset.LedgerFee,
			Memo:   memo,
		}
		_, err := engine.Emit(ctx, s.engine, opCtx, p.asset.LedgerID, req,
			fmt.Sprintf("return %d %s to %s", p.balance-p.asset.LedgerFee, p.asset.Symbol, p.to))
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		s.posMu.Lock()
		s.position.Move(p.asset.LedgerID, book.TreasuryManager, book.TreasuryOwner, p.balance)
		s.posMu.Unlock()
	}

	return observed
}

// destinationAccount resolves where an asset's remainder goes: the caller's
// override for that ledger, or the owner account captured at init.
func (s *Service) destinationAccount(ledgerID types.Principal, overrides map[types.Principal]types.Account) types.Account {
	if account, ok := overrides[ledgerID]; ok {
		return account
	}
	if ledgerID == s.position.Asset0.LedgerID {
		return s.cfg.Owner0Account
	}
	return s.cfg.Owner1Account
}
