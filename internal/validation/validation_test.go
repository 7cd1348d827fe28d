package validation

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "simple", raw: "CHAT", want: "CHAT"},
		{name: "exactly ten bytes", raw: "ABCDEFGHIJ", want: "ABCDEFGHIJ"},
		{name: "eleven bytes rejected", raw: "ABCDEFGHIJK", wantErr: true},
		{name: "empty rejected", raw: "", wantErr: true},
		{name: "space rejected", raw: "A B", wantErr: true},
		{name: "non-ascii rejected", raw: "T\xc3\xa9", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, err := ParseSymbol(tt.raw)
			if tt.wantErr {
				require.NotNil(t, err)
				assert.Equal(t, types.KindPrecondition, err.Kind)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, tt.want, sym.String())
		})
	}
}

func TestValidateAllowanceFloor(t *testing.T) {
	asset, err := NewAsset("CHAT", "ledger-0", 10_500)
	require.Nil(t, err)
	owner := types.Account{Owner: "treasury"}

	_, err = ValidateAllowance(asset, 104_999, owner)
	require.NotNil(t, err)
	assert.Equal(t, types.KindPrecondition, err.Kind)

	allowance, err := ValidateAllowance(asset, 105_000, owner)
	require.Nil(t, err)
	assert.Equal(t, uint64(105_000), allowance.Amount)
}

func TestValidateAllowancesPairShape(t *testing.T) {
	icpLedger := types.Principal("icp-ledger")
	chat, aErr := NewAsset("CHAT", "chat-ledger", 10_500)
	require.Nil(t, aErr)
	icp, aErr := NewAsset("ICP", icpLedger, 9_500)
	require.Nil(t, aErr)
	owner := types.Account{Owner: "treasury"}

	mk := func(a Asset) Allowance {
		al, err := ValidateAllowance(a, 1_000_000_000, owner)
		require.Nil(t, err)
		return al
	}

	t.Run("valid pair", func(t *testing.T) {
		a0, a1, errs := ValidateAllowances([]Allowance{mk(chat), mk(icp)}, icpLedger)
		require.Empty(t, errs)
		assert.Equal(t, "CHAT", a0.Asset.Symbol.String())
		assert.Equal(t, "ICP", a1.Asset.Symbol.String())
	})

	t.Run("wrong count", func(t *testing.T) {
		_, _, errs := ValidateAllowances([]Allowance{mk(chat)}, icpLedger)
		require.Len(t, errs, 1)
	})

	t.Run("swapped pair", func(t *testing.T) {
		_, _, errs := ValidateAllowances([]Allowance{mk(icp), mk(chat)}, icpLedger)
		assert.NotEmpty(t, errs)
	})

	t.Run("same ledger twice", func(t *testing.T) {
		chatOnICP := chat
		chatOnICP.LedgerID = icpLedger
		_, _, errs := ValidateAllowances([]Allowance{mk(chatOnICP), mk(icp)}, icpLedger)
		assert.NotEmpty(t, errs)
	})
}

func TestDecodeUint64(t *testing.T) {
	v, err := DecodeUint64(sdkmath.NewIntFromUint64(^uint64(0)), "amount")
	require.Nil(t, err)
	assert.Equal(t, ^uint64(0), v)

	tooBig := sdkmath.NewIntFromUint64(^uint64(0)).AddRaw(1)
	_, err = DecodeUint64(tooBig, "amount")
	require.NotNil(t, err)
	assert.Equal(t, types.KindPostcondition, err.Kind)

	_, err = DecodeUint64(sdkmath.NewInt(-1), "amount")
	require.NotNil(t, err)
}

func TestSaturatingSub(t *testing.T) {
	assert.Equal(t, uint64(5), SaturatingSub(10, 5))
	assert.Equal(t, uint64(0), SaturatingSub(5, 10))
	assert.Equal(t, uint64(0), SaturatingSub(7, 7))
}
