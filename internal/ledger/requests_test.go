package ledger

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

func TestApproveDecode(t *testing.T) {
	req := &ApproveRequest{
		Spender: types.Account{Owner: "kong"},
		Amount:  50_000_000_000,
		Fee:     10_500,
	}

	witness, blockIndex, err := req.Decode("ledger-0", []byte(`{"Ok":"731"}`))
	require.Nil(t, err)
	assert.Equal(t, sdkmath.NewInt(731), blockIndex)

	require.Equal(t, types.WitnessLedger, witness.Kind)
	require.Len(t, witness.Transfers, 1)
	transfer := witness.Transfers[0]
	assert.Equal(t, types.Principal("ledger-0"), transfer.LedgerID)
	assert.Equal(t, sdkmath.NewIntFromUint64(req.Amount), transfer.Amount)
	assert.Equal(t, sdkmath.NewInt(731), transfer.BlockIndex)
}

func TestApproveDecodeBackendError(t *testing.T) {
	req := &ApproveRequest{Amount: 100}

	_, _, err := req.Decode("ledger-0", []byte(`{"Err":"InsufficientFunds { balance: 42 }"}`))
	require.NotNil(t, err)
	assert.Equal(t, types.KindBackend, err.Kind)
	assert.Contains(t, err.Message, "InsufficientFunds")
}

func TestApproveDecodeMalformedReply(t *testing.T) {
	req := &ApproveRequest{Amount: 100}

	_, _, err := req.Decode("ledger-0", []byte(`not json`))
	require.NotNil(t, err)
	assert.Equal(t, types.KindPostcondition, err.Kind)

	_, _, err = req.Decode("ledger-0", []byte(`{}`))
	require.NotNil(t, err)
	assert.Equal(t, types.KindPostcondition, err.Kind)
	assert.Contains(t, err.Message, "neither Ok nor Err")
}

func TestBalanceOfDecode(t *testing.T) {
	req := &BalanceOfRequest{Account: types.Account{Owner: "self"}}

	witness, balance, err := req.Decode("ledger-0", []byte(`"49999989500"`))
	require.Nil(t, err)
	assert.Equal(t, uint64(49_999_989_500), balance.Uint64())
	assert.Equal(t, types.WitnessNonLedger, witness.Kind)
	assert.Contains(t, witness.Text, "49999989500")
}

func TestExtractSymbolAndFee(t *testing.T) {
	symbol := "DAO"
	fee := sdkmath.NewInt(10_500)
	decimals := sdkmath.NewInt(8)
	entries := []MetadataEntry{
		{Key: "icrc1:decimals", Nat: &decimals},
		{Key: "icrc1:symbol", Text: &symbol},
		{Key: "icrc1:fee", Nat: &fee},
	}

	gotSymbol, gotFee, err := ExtractSymbolAndFee(entries)
	require.Nil(t, err)
	assert.Equal(t, "DAO", gotSymbol)
	assert.Equal(t, fee, gotFee)
}

func TestExtractSymbolAndFeeMissingKeys(t *testing.T) {
	fee := sdkmath.NewInt(10_500)
	symbol := "DAO"

	_, _, err := ExtractSymbolAndFee([]MetadataEntry{{Key: "icrc1:fee", Nat: &fee}})
	require.NotNil(t, err)
	assert.Equal(t, types.KindPostcondition, err.Kind)
	assert.Contains(t, err.Message, "icrc1:symbol")

	_, _, err = ExtractSymbolAndFee([]MetadataEntry{{Key: "icrc1:symbol", Text: &symbol}})
	require.NotNil(t, err)
	assert.Equal(t, types.KindPostcondition, err.Kind)
	assert.Contains(t, err.Message, "icrc1:fee")
}

func TestMetadataDecode(t *testing.T) {
	req := &MetadataRequest{}
	raw := `[
		{"key":"icrc1:symbol","text":"DAO"},
		{"key":"icrc1:fee","nat":"10500"}
	]`

	witness, entries, err := req.Decode("ledger-0", []byte(raw))
	require.Nil(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, types.WitnessNonLedger, witness.Kind)

	symbol, fee, err := ExtractSymbolAndFee(entries)
	require.Nil(t, err)
	assert.Equal(t, "DAO", symbol)
	assert.Equal(t, uint64(10_500), fee.Uint64())
}
