package dex

import (
	"encoding/json"
	"fmt"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

// result is the backend's reply envelope: exactly one of Ok and Err is set.
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

// AddTokenRequest registers a token with the backend.
type AddTokenRequest struct {
	Token string `json:"token"`
}

func (r *AddTokenRequest) Method() string { return "add_token" }
func (r *AddTokenRequest) Update() bool   { return true }

func (r *AddTokenRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *AddTokenRequest) Decode(_ types.Principal, raw []byte) (types.Witness, AddTokenReply, *types.Error) {
	reply, err := decodeResult[AddTokenReply](r.Method(), raw)
	if err != nil {
		return types.Witness{}, AddTokenReply{}, err
	}
	return types.NonLedgerWitness(fmt.Sprintf("add_token(%s)", r.Token)), reply, nil
}

// UpdateTokenRequest refreshes the backend's view of a token.
type UpdateTokenRequest struct {
	Token string `json:"token"`
}

func (r *UpdateTokenRequest) Method() string { return "update_token" }
func (r *UpdateTokenRequest) Update() bool   { return true }

func (r *UpdateTokenRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *UpdateTokenRequest) Decode(_ types.Principal, raw []byte) (types.Witness, AddTokenReply, *types.Error) {
	reply, err := decodeResult[AddTokenReply](r.Method(), raw)
	if err != nil {
		return types.Witness{}, AddTokenReply{}, err
	}
	return types.NonLedgerWitness(fmt.Sprintf("update_token(%s)", r.Token)), reply, nil
}

// AddPoolRequest creates the pool, pulling both initial amounts.
type AddPoolRequest struct {
	Token0   string `json:"token_0"`
	Amount0  uint64 `json:"amount_0"`
	Token1   string `json:"token_1"`
	Amount1  uint64 `json:"amount_1"`
	LPFeeBPS uint16 `json:"lp_fee_bps"`
}

func (r *AddPoolRequest) Method() string { return "add_pool" }
func (r *AddPoolRequest) Update() bool   { return true }

func (r *AddPoolRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *AddPoolRequest) Decode(_ types.Principal, raw []byte) (types.Witness, AddPoolReply, *types.Error) {
	reply, err := decodeResult[AddPoolReply](r.Method(), raw)
	if err != nil {
		return types.Witness{}, AddPoolReply{}, err
	}
	return ledgerWitness(reply.TransferIDs), reply, nil
}

// AddLiquidityAmountsRequest quotes the second amount for a proportional
// top-up of amount_0.
type AddLiquidityAmountsRequest struct {
	Token0  string `json:"token_0"`
	Amount0 uint64 `json:"amount"`
	Token1  string `json:"token_1"`
}

func (r *AddLiquidityAmountsRequest) Method() string { return "add_liquidity_amounts" }
func (r *AddLiquidityAmountsRequest) Update() bool   { return false }

func (r *AddLiquidityAmountsRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *AddLiquidityAmountsRequest) Decode(_ types.Principal, raw []byte) (types.Witness, AddLiquidityAmountsReply, *types.Error) {
	reply, err := decodeResult[AddLiquidityAmountsReply](r.Method(), raw)
	if err != nil {
		return types.Witness{}, AddLiquidityAmountsReply{}, err
	}
	witness := types.NonLedgerWitness(fmt.Sprintf(
		"add_liquidity_amounts(%s, %d, %s) = (%s, %s)",
		r.Token0, r.Amount0, r.Token1, reply.Amount0, reply.Amount1))
	return witness, reply, nil
}

// AddLiquidityRequest tops up an existing pool, pulling both amounts.
type AddLiquidityRequest struct {
	Token0  string `json:"token_0"`
	Amount0 uint64 `json:"amount_0"`
	Token1  string `json:"token_1"`
	Amount1 uint64 `json:"amount_1"`
}

func (r *AddLiquidityRequest) Method() string { return "add_liquidity" }
func (r *AddLiquidityRequest) Update() bool   { return true }

func (r *AddLiquidityRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *AddLiquidityRequest) Decode(_ types.Principal, raw []byte) (types.Witness, AddLiquidityReply, *types.Error) {
	reply, err := decodeResult[AddLiquidityReply](r.Method(), raw)
	if err != nil {
		return types.Witness{}, AddLiquidityReply{}, err
	}
	return ledgerWitness(reply.TransferIDs), reply, nil
}

// RemoveLiquidityRequest unwinds the position by burning LP tokens.
type RemoveLiquidityRequest struct {
	Token0              string `json:"token_0"`
	Token1              string `json:"token_1"`
	RemoveLPTokenAmount uint64 `json:"remove_lp_token_amount"`
}

func (r *RemoveLiquidityRequest) Method() string { return "remove_liquidity" }
func (r *RemoveLiquidityRequest) Update() bool   { return true }

func (r *RemoveLiquidityRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *RemoveLiquidityRequest) Decode(_ types.Principal, raw []byte) (types.Witness, RemoveLiquidityReply, *types.Error) {
	reply, err := decodeResult[RemoveLiquidityReply](r.Method(), raw)
	if err != nil {
		return types.Witness{}, RemoveLiquidityReply{}, err
	}
	return ledgerWitness(reply.TransferIDs), reply, nil
}

// RemoveLiquidityAmountsRequest estimates the underlying value of an LP
// balance without unwinding it.
type RemoveLiquidityAmountsRequest struct {
	Token0              string `json:"token_0"`
	Token1              string `json:"token_1"`
	RemoveLPTokenAmount uint64 `json:"remove_lp_token_amount"`
}

func (r *RemoveLiquidityAmountsRequest) Method() string { return "remove_liquidity_amounts" }
func (r *RemoveLiquidityAmountsRequest) Update() bool   { return false }

func (r *RemoveLiquidityAmountsRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *RemoveLiquidityAmountsRequest) Decode(_ types.Principal, raw []byte) (types.Witness, RemoveLiquidityAmountsReply, *types.Error) {
	reply, err := decodeResult[RemoveLiquidityAmountsReply](r.Method(), raw)
	if err != nil {
		return types.Witness{}, RemoveLiquidityAmountsReply{}, err
	}
	witness := types.NonLedgerWitness(fmt.Sprintf(
		"remove_liquidity_amounts(%d LP) = (%s, %s)",
		r.RemoveLPTokenAmount, reply.Amount0, reply.Amount1))
	return witness, reply, nil
}

// UserBalancesRequest queries the adaptor's LP holdings.
type UserBalancesRequest struct {
	Principal types.Principal `json:"principal_id"`
}

func (r *UserBalancesRequest) Method() string { return "user_balances" }
func (r *UserBalancesRequest) Update() bool   { return false }

func (r *UserBalancesRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *UserBalancesRequest) Decode(_ types.Principal, raw []byte) (types.Witness, []UserBalanceReply, *types.Error) {
	reply, err := decodeResult[[]UserBalanceReply](r.Method(), raw)
	if err != nil {
		return types.Witness{}, nil, err
	}
	return types.NonLedgerWitness(fmt.Sprintf("user_balances = %+v", reply)), reply, nil
}

// ClaimsRequest lists the adaptor's pending claims.
type ClaimsRequest struct {
	Principal types.Principal `json:"principal_id"`
}

func (r *ClaimsRequest) Method() string { return "claims" }
func (r *ClaimsRequest) Update() bool   { return false }

func (r *ClaimsRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *ClaimsRequest) Decode(_ types.Principal, raw []byte) (types.Witness, []ClaimEntry, *types.Error) {
	reply, err := decodeResult[[]ClaimEntry](r.Method(), raw)
	if err != nil {
		return types.Witness{}, nil, err
	}
	return types.NonLedgerWitness(fmt.Sprintf("claims = %+v", reply)), reply, nil
}

// ClaimRequest retries delivery of one pending claim.
type ClaimRequest struct {
	ClaimID uint64 `json:"claim_id"`
}

func (r *ClaimRequest) Method() string { return "claim" }
func (r *ClaimRequest) Update() bool   { return true }

func (r *ClaimRequest) Payload() ([]byte, error) {
	return json.Marshal(r)
}

func (r *ClaimRequest) Decode(_ types.Principal, raw []byte) (types.Witness, ClaimReply, *types.Error) {
	reply, err := decodeResult[ClaimReply](r.Method(), raw)
	if err != nil {
		return types.Witness{}, ClaimReply{}, err
	}
	return ledgerWitness(reply.TransferIDs), reply, nil
}
