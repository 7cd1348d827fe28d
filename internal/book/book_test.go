package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kongswap/treasury-adaptor/internal/types"
	"github.com/kongswap/treasury-adaptor/internal/validation"
)

const (
	e8     = 100_000_000
	feeSNS = 10_500
	feeICP = 9_500
)

func newTestPosition(t *testing.T) *Position {
	t.Helper()
	asset0, err := validation.NewAsset("DAO", "ledger-0", feeSNS)
	require.Nil(t, err)
	asset1, err := validation.NewAsset("ICP", "ledger-1", feeICP)
	require.Nil(t, err)
	owner := types.Account{Owner: "governance"}
	manager := types.Account{Owner: "adaptor"}
	return NewPosition(asset0, asset1, owner, owner, manager, 0)
}

func TestMoveChargesFeeToCollector(t *testing.T) {
	p := newTestPosition(t)
	p.AddManager("ledger-0", 500*e8)

	p.Move("ledger-0", TreasuryManager, External, 500*e8)

	b := p.Book0
	assert.Equal(t, uint64(0), b.Balance(TreasuryManager))
	assert.Equal(t, uint64(500*e8-feeSNS), b.Balance(External))
	assert.Equal(t, uint64(feeSNS), b.Balance(FeeCollector))
}

func TestMoveConservesTotal(t *testing.T) {
	p := newTestPosition(t)
	p.AddManager("ledger-1", 400*e8)
	before := p.Book1.Total()

	p.Move("ledger-1", TreasuryManager, External, 100*e8)
	p.Move("ledger-1", External, TreasuryManager, 50*e8)
	p.Move("ledger-1", TreasuryManager, TreasuryOwner, 10*e8)

	assert.Equal(t, before, p.Book1.Total())
}

func TestMoveRejectsIllegalPairs(t *testing.T) {
	p := newTestPosition(t)
	p.AddManager("ledger-0", e8)

	assert.Panics(t, func() { p.Move("ledger-0", TreasuryOwner, External, 1) })
	assert.Panics(t, func() { p.Move("ledger-0", External, TreasuryOwner, 1) })
	assert.Panics(t, func() { p.Move("ledger-0", FeeCollector, TreasuryManager, 1) })
}

func TestUnknownLedgerPanics(t *testing.T) {
	p := newTestPosition(t)
	assert.Panics(t, func() { p.AddManager("no-such-ledger", 1) })
}

func TestChargeFee(t *testing.T) {
	p := newTestPosition(t)
	p.AddManager("ledger-0", 500*e8)

	p.ChargeFee("ledger-0")
	p.ChargeFee("ledger-0")

	assert.Equal(t, uint64(500*e8-2*feeSNS), p.Book0.Balance(TreasuryManager))
	assert.Equal(t, uint64(2*feeSNS), p.Book0.Balance(FeeCollector))
}

func TestFeeCollectorTracksDebitedFees(t *testing.T) {
	p := newTestPosition(t)
	p.AddManager("ledger-0", 500*e8)

	p.ChargeFee("ledger-0")
	p.Move("ledger-0", TreasuryManager, External, 100*e8)
	p.Move("ledger-0", External, TreasuryManager, 50*e8)
	p.Move("ledger-0", TreasuryManager, TreasuryOwner, 10*e8)

	// one charge plus three fee-bearing moves
	assert.Equal(t, uint64(4*feeSNS), p.Book0.Balance(FeeCollector))
}

func TestSetExternalOverwrites(t *testing.T) {
	p := newTestPosition(t)
	p.SetExternal("ledger-1", 123)
	p.SetExternal("ledger-1", 77)
	assert.Equal(t, uint64(77), p.Book1.Balance(External))
}

func TestFindDepositDiscrepancy(t *testing.T) {
	p := newTestPosition(t)

	// balance changed by exactly what was transferred: nothing unexplained
	p.FindDepositDiscrepancy("ledger-0", 10*e8, 6*e8, 4*e8)
	assert.Equal(t, uint64(0), p.Book0.Balance(Suspense))

	// balance changed by more than the reported transfer
	p.FindDepositDiscrepancy("ledger-0", 10*e8, 5*e8, 4*e8)
	assert.Equal(t, uint64(e8), p.Book0.Balance(Suspense))
}

func TestFindWithdrawDiscrepancy(t *testing.T) {
	p := newTestPosition(t)

	// delivered the transfer minus one fee: nothing unexplained
	p.FindWithdrawDiscrepancy("ledger-0", 0, 4*e8-feeSNS, 4*e8)
	assert.Equal(t, uint64(0), p.Book0.Balance(Suspense))

	// delivered one whole token short
	p.FindWithdrawDiscrepancy("ledger-0", 0, 3*e8-feeSNS, 4*e8)
	assert.Equal(t, uint64(e8), p.Book0.Balance(Suspense))
}

func TestRefreshAsset(t *testing.T) {
	p := newTestPosition(t)
	sym, err := validation.ParseSymbol("DAO2")
	require.Nil(t, err)

	p.RefreshAsset("ledger-0", sym, 12_000)

	assert.Equal(t, "DAO2", p.Asset0.Symbol.String())
	assert.Equal(t, uint64(12_000), p.Asset0.LedgerFee)
	assert.Equal(t, types.Principal("ledger-0"), p.Asset0.LedgerID)
}

func TestCloneIsDeep(t *testing.T) {
	p := newTestPosition(t)
	p.AddManager("ledger-0", 100)

	snapshot := p.Clone()
	p.AddManager("ledger-0", 900)

	assert.Equal(t, uint64(100), snapshot.Book0.Balance(TreasuryManager))
	assert.Equal(t, uint64(1000), p.Book0.Balance(TreasuryManager))
}
