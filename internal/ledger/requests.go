// Package ledger models the ICRC-1/ICRC-2 calls the adaptor issues against
// token ledgers, including the audit witness each successful reply yields.
package ledger

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

// result is the ledgers' reply envelope: exactly one of Ok and Err is set.
type result[T any] struct {
	Ok  *T      `json:"Ok,omitempty"`
	Err *string `json:"Err,omitempty"`
}

func decodeResult[T any](method string, raw []byte) (T, *types.Error) {
	var zero T
	var res result[T]
	if err := json.Unmarshal(raw, &res); err != nil {
		return zero, types.Postconditionf("malformed %s reply: %v", method, err)
	}
	if res.Err != nil {
		return zero, types.BackendError(*res.Err)
	}
	if res.Ok == nil {
		return zero, types.Postconditionf("%s reply carries neither Ok nor Err", method)
	}
	return *res.Ok, nil
}

// ApproveRequest is icrc2_approve: grant the DEX an allowance to pull funds
// from the adaptor's account.
type ApproveRequest struct {
	Spender           types.Account `json:"spender"`
	Amount            uint64        `json:"amount"`
	ExpectedAllowance uint64        `json:"expected_allowance"`
	ExpiresAtNS       uint64        `json:"expires_at"`
	Fee               uint64        `json:"fee"`
}

func (r *ApproveRequest) Method() string { return "icrc2_approve" }
func (r *ApproveRequest) Update() bool   { return true }

func (r *ApproveRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *ApproveRequest) Decode(canisterID types.Principal, raw []byte) (types.Witness, sdkmath.Int, *types.Error) {
	blockIndex, err := decodeResult[sdkmath.Int](r.Method(), raw)
	if err != nil {
		return types.Witness{}, sdkmath.Int{}, err
	}
	witness := types.LedgerWitness(types.Transfer{
		LedgerID:   canisterID,
		Amount:     sdkmath.NewIntFromUint64(r.Amount),
		BlockIndex: blockIndex,
	})
	return witness, blockIndex, nil
}

// TransferRequest is icrc1_transfer: move funds off the adaptor's account.
type TransferRequest struct {
	To     types.Account `json:"to"`
	Amount uint64        `json:"amount"`
	Fee    uint64        `json:"fee"`
	Memo   []byte        `json:"memo"`
}

func (r *TransferRequest) Method() string { return "icrc1_transfer" }
func (r *TransferRequest) Update() bool   { return true }

func (r *TransferRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *TransferRequest) Decode(canisterID types.Principal, raw []byte) (types.Witness, sdkmath.Int, *types.Error) {
	blockIndex, err := decodeResult[sdkmath.Int](r.Method(), raw)
	if err != nil {
		return types.Witness{}, sdkmath.Int{}, err
	}
	witness := types.LedgerWitness(types.Transfer{
		LedgerID:   canisterID,
		Amount:     sdkmath.NewIntFromUint64(r.Amount),
		BlockIndex: blockIndex,
	})
	return witness, blockIndex, nil
}

// BalanceOfRequest is the icrc1_balance_of query.
type BalanceOfRequest struct {
	Account types.Account `json:"account"`
}

func (r *BalanceOfRequest) Method() string { return "icrc1_balance_of" }
func (r *BalanceOfRequest) Update() bool   { return false }

func (r *BalanceOfRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *BalanceOfRequest) Decode(_ types.Principal, raw []byte) (types.Witness, sdkmath.Int, *types.Error) {
	var balance sdkmath.Int
	if err := json.Unmarshal(raw, &balance); err != nil {
		return types.Witness{}, sdkmath.Int{}, types.Postconditionf(
			"malformed %s reply: %v", r.Method(), err)
	}
	witness := types.NonLedgerWitness(fmt.Sprintf("balance_of(%s) = %s", r.Account, balance))
	return witness, balance, nil
}

// MetadataEntry is one icrc1_metadata key/value pair. Values are either text
// or a nat; other variants are not consumed and unmarshal to nil.
type MetadataEntry struct {
	Key  string       `json:"key"`
	Text *string      `json:"text,omitempty"`
	Nat  *sdkmath.Int `json:"nat,omitempty"`
}

// MetadataRequest is the icrc1_metadata query.
type MetadataRequest struct{}

func (r *MetadataRequest) Method() string { return "icrc1_metadata" }
func (r *MetadataRequest) Update() bool   { return false }

func (r *MetadataRequest) Payload() ([]byte, error) {
	return []byte("{}"), nil
}

func (r *MetadataRequest) Decode(_ types.Principal, raw []byte) (types.Witness, []MetadataEntry, *types.Error) {
	var entries []MetadataEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return types.Witness{}, nil, types.Postconditionf(
			"malformed %s reply: %v", r.Method(), err)
	}
	witness := types.NonLedgerWitness(fmt.Sprintf("%+v", entries))
	return witness, entries, nil
}

const (
	metadataSymbolKey = "icrc1:symbol"
	metadataFeeKey    = "icrc1:fee"
)

// ExtractSymbolAndFee pulls the symbol and transfer fee out of an
// icrc1_metadata reply. Both keys are mandatory.
func ExtractSymbolAndFee(entries []MetadataEntry) (string, sdkmath.Int, *types.Error) {
	var symbol *string
	var fee *sdkmath.Int
	for i := range entries {
		switch entries[i].Key {
		case metadataSymbolKey:
			symbol = entries[i].Text
		case metadataFeeKey:
			fee = entries[i].Nat
		}
	}
	if symbol == nil {
		return "", sdkmath.Int{}, types.Postconditionf(
			"ledger metadata is missing a textual %s", metadataSymbolKey)
	}
	if fee == nil {
		return "", sdkmath.Int{}, types.Postconditionf(
			"ledger metadata is missing a nat %s", metadataFeeKey)
	}
	return *symbol, *fee, nil
}
