package dex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

func TestLPBalanceToDecimals(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		want    uint64
		wantErr bool
	}{
		{name: "whole tokens", balance: 100.0, want: 100 * E8},
		{name: "zero", balance: 0, want: 0},
		{name: "fractional rounds", balance: 0.123456789, want: 12_345_679},
		{name: "negative rejected", balance: -1, wantErr: true},
		{name: "nan rejected", balance: math.NaN(), wantErr: true},
		{name: "inf rejected", balance: math.Inf(1), wantErr: true},
		{name: "overflow rejected", balance: 1e30, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LPBalanceToDecimals(tt.balance)
			if tt.wantErr {
				require.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToleratedErrorMatching(t *testing.T) {
	token := TokenName("ledger-0")
	assert.Equal(t, "IC.ledger-0", token)

	err := decodeErr(t, `{"Err":"Token IC.ledger-0 already exists"}`)
	assert.True(t, IsTokenAlreadyRegistered(err, token))
	assert.False(t, IsTokenAlreadyRegistered(err, TokenName("ledger-1")))

	err = decodeErr(t, `{"Err":"LP token DAO_ICP already exists"}`)
	assert.True(t, IsPoolAlreadyCreated(err, "DAO", "ICP"))

	err = decodeErr(t, `{"Err":"Pool DAO_ICP already exists"}`)
	assert.True(t, IsPoolAlreadyCreated(err, "DAO", "ICP"))

	err = decodeErr(t, `{"Err":"Pool DAO_ICP is empty"}`)
	assert.False(t, IsPoolAlreadyCreated(err, "DAO", "ICP"))
}

func decodeErr(t *testing.T, raw string) *types.Error {
	t.Helper()
	req := &AddTokenRequest{Token: "IC.ledger-0"}
	_, _, err := req.Decode("kong", []byte(raw))
	require.NotNil(t, err)
	return err
}
