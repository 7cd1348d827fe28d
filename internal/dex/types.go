// Package dex models the KongSwap backend calls the adaptor issues, the
// witness each reply yields, and the small allow-list of tolerated backend
// errors.
package dex

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

// TokenName is how the backend addresses a token on the target network.
func TokenName(ledgerID types.Principal) string {
	return fmt.Sprintf("IC.%s", ledgerID)
}

// LPTokenSymbol is the backend's name for the pool's liquidity token.
func LPTokenSymbol(symbol0, symbol1 string) string {
	return fmt.Sprintf("%s_%s", symbol0, symbol1)
}

// TransferReply is one ledger movement reported inside a backend reply.
type TransferReply struct {
	LedgerID   types.Principal `json:"ledger_id"`
	Amount     sdkmath.Int     `json:"amount"`
	BlockIndex sdkmath.Int     `json:"block_index"`
}

// TransferIDReply wraps a reported transfer with the backend's own id for it.
type TransferIDReply struct {
	TransferID uint64        `json:"transfer_id"`
	Transfer   TransferReply `json:"transfer"`
}

func ledgerWitness(transfers []TransferIDReply) types.Witness {
	out := make([]types.Transfer, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, types.Transfer{
			LedgerID:   t.Transfer.LedgerID,
			Amount:     t.Transfer.Amount,
			BlockIndex: t.Transfer.BlockIndex,
		})
	}
	return types.LedgerWitness(out...)
}

// AddTokenReply acknowledges token registration.
type AddTokenReply struct {
	TokenID uint64 `json:"token_id"`
	Symbol  string `json:"symbol"`
}

// AddPoolReply reports the pool creation and the pulls it performed.
type AddPoolReply struct {
	Amount0     sdkmath.Int       `json:"amount_0"`
	Amount1     sdkmath.Int       `json:"amount_1"`
	LPTokenSym  string            `json:"lp_token_symbol"`
	TransferIDs []TransferIDReply `json:"transfer_ids"`
}

// AddLiquidityAmountsReply is the backend's quote for a proportional top-up.
type AddLiquidityAmountsReply struct {
	Amount0 sdkmath.Int `json:"amount_0"`
	Amount1 sdkmath.Int `json:"amount_1"`
}

// AddLiquidityReply reports a top-up and the pulls it performed.
type AddLiquidityReply struct {
	Amount0     sdkmath.Int       `json:"amount_0"`
	Amount1     sdkmath.Int       `json:"amount_1"`
	TransferIDs []TransferIDReply `json:"transfer_ids"`
}

// RemoveLiquidityReply reports an unwind. Non-empty ClaimIDs mean part of the
// funds could not be delivered yet and must be claimed separately.
type RemoveLiquidityReply struct {
	Amount0     sdkmath.Int       `json:"amount_0"`
	Amount1     sdkmath.Int       `json:"amount_1"`
	ClaimIDs    []uint64          `json:"claim_ids"`
	TransferIDs []TransferIDReply `json:"transfer_ids"`
}

// RemoveLiquidityAmountsReply is the backend's estimate of the underlying
// amounts an LP balance is worth.
type RemoveLiquidityAmountsReply struct {
	Amount0 sdkmath.Int `json:"amount_0"`
	Amount1 sdkmath.Int `json:"amount_1"`
}

// UserBalanceReply is one LP holding of the adaptor. Balance is the backend's
// floating-point representation.
type UserBalanceReply struct {
	Symbol  string  `json:"symbol"`
	Balance float64 `json:"balance"`
}

// ClaimEntry is one pending delivery owed to the adaptor.
type ClaimEntry struct {
	ClaimID uint64      `json:"claim_id"`
	Symbol  string      `json:"symbol"`
	Amount  sdkmath.Int `json:"amount"`
}

// ClaimReply reports the delivery of one pending claim.
type ClaimReply struct {
	ClaimID     uint64            `json:"claim_id"`
	TransferIDs []TransferIDReply `json:"transfer_ids"`
}
