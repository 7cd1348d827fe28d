package validation

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

// SymbolMaxBytes caps token symbols at 10 printable ASCII bytes.
const SymbolMaxBytes = 10

// MinAllowanceFeeMultiple is the minimum allowance expressed in ledger fees.
// An allowance below ten fees cannot survive the approve + pull fee chain with
// anything meaningful left over.
const MinAllowanceFeeMultiple = 10

// Symbol is a fixed-size token symbol, NUL padded on the right.
type Symbol [SymbolMaxBytes]byte

func (s Symbol) String() string {
	return strings.TrimRight(string(s[:]), "\x00")
}

// ParseSymbol validates and normalizes a token symbol: 1 to 10 bytes, every
// byte an ASCII graphic character.
func ParseSymbol(raw string) (Symbol, *types.Error) {
	var sym Symbol
	if len(raw) == 0 {
		return sym, types.Preconditionf("token symbol must not be empty")
	}
	if len(raw) > SymbolMaxBytes {
		return sym, types.Preconditionf(
			"token symbol %q exceeds %d bytes", raw, SymbolMaxBytes)
	}
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b <= ' ' || b > '~' {
			return sym, types.Preconditionf(
				"token symbol %q contains non-printable byte at position %d", raw, i)
		}
	}
	copy(sym[:], raw)
	return sym, nil
}

// Asset is a validated token: its symbol, ledger canister and the ledger's
// flat transfer fee in decimals.
type Asset struct {
	Symbol   Symbol          `json:"symbol"`
	LedgerID types.Principal `json:"ledger_id"`
	// LedgerFee is charged by the ledger on every transfer and approval.
	LedgerFee uint64 `json:"ledger_fee"`
}

func (a Asset) String() string {
	return fmt.Sprintf("%s (ledger %s, fee %d)", a.Symbol, a.LedgerID, a.LedgerFee)
}

// NewAsset validates the symbol and builds an Asset.
func NewAsset(symbol string, ledgerID types.Principal, ledgerFee uint64) (Asset, *types.Error) {
	sym, err := ParseSymbol(symbol)
	if err != nil {
		return Asset{}, err
	}
	if ledgerID == "" {
		return Asset{}, types.Preconditionf("asset %q has an empty ledger id", symbol)
	}
	return Asset{Symbol: sym, LedgerID: ledgerID, LedgerFee: ledgerFee}, nil
}

// Allowance is a validated permission to pull funds from an owner account.
type Allowance struct {
	Asset        Asset         `json:"asset"`
	Amount       uint64        `json:"amount"`
	OwnerAccount types.Account `json:"owner_account"`
}

// ValidateAllowance checks the allowance floor against the asset's ledger fee.
func ValidateAllowance(asset Asset, amount uint64, owner types.Account) (Allowance, *types.Error) {
	floor := MinAllowanceFeeMultiple * asset.LedgerFee
	if amount < floor {
		return Allowance{}, types.Preconditionf(
			"allowance for %s is %d, below the minimum of %d (%d ledger fees)",
			asset.Symbol, amount, floor, MinAllowanceFeeMultiple)
	}
	if owner.Owner == "" {
		return Allowance{}, types.Preconditionf(
			"allowance for %s names no owner account", asset.Symbol)
	}
	return Allowance{Asset: asset, Amount: amount, OwnerAccount: owner}, nil
}

// ICPSymbol is the required symbol of the second asset of every pair.
const ICPSymbol = "ICP"

// ValidateAllowances enforces the pair shape: exactly two allowances, where
// asset 0 is any non-ICP token and asset 1 is ICP on the ICP ledger.
func ValidateAllowances(allowances []Allowance, icpLedgerID types.Principal) (Allowance, Allowance, []*types.Error) {
	var errs []*types.Error
	if len(allowances) != 2 {
		errs = append(errs, types.Preconditionf(
			"expected exactly 2 allowances, got %d", len(allowances)))
		return Allowance{}, Allowance{}, errs
	}

	a0, a1 := allowances[0], allowances[1]

	if a0.Asset.Symbol.String() == ICPSymbol {
		errs = append(errs, types.Preconditionf("asset 0 must not be ICP"))
	}
	if a0.Asset.LedgerID == icpLedgerID {
		errs = append(errs, types.Preconditionf(
			"asset 0 must not live on the ICP ledger %s", icpLedgerID))
	}
	if a1.Asset.Symbol.String() != ICPSymbol {
		errs = append(errs, types.Preconditionf(
			"asset 1 must be ICP, got %s", a1.Asset.Symbol))
	}
	if a1.Asset.LedgerID != icpLedgerID {
		errs = append(errs, types.Preconditionf(
			"asset 1 must live on the ICP ledger %s, got %s", icpLedgerID, a1.Asset.LedgerID))
	}
	if a0.Asset.LedgerID == a1.Asset.LedgerID {
		errs = append(errs, types.Preconditionf(
			"the two assets must live on distinct ledgers, both use %s", a0.Asset.LedgerID))
	}

	if len(errs) > 0 {
		return Allowance{}, Allowance{}, errs
	}
	return a0, a1, nil
}

// DecodeUint64 narrows an arbitrary-precision wire amount to uint64. Values
// outside the uint64 range are a postcondition failure: the ledgers and the
// DEX operate in u64 decimals, so anything wider is a malformed reply.
func DecodeUint64(value sdkmath.Int, what string) (uint64, *types.Error) {
	if value.IsNegative() || !value.IsUint64() {
		return 0, types.Postconditionf("%s value %s does not fit into 64 bits", what, value)
	}
	return value.Uint64(), nil
}

// SaturatingSub returns a-b, clamped at zero.
func SaturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
