package book

import (
	"fmt"

	"github.com/kongswap/treasury-adaptor/internal/logger"
	"github.com/kongswap/treasury-adaptor/internal/types"
	"github.com/kongswap/treasury-adaptor/internal/validation"
)

// Party is one of the entities whose holdings the balance book tracks.
type Party uint8

const (
	TreasuryOwner Party = iota
	TreasuryManager
	External
	FeeCollector
	Payees
	Payers
	// Suspense absorbs unexplained differences found during reconciliation.
	Suspense
)

var partyNames = map[Party]string{
	TreasuryOwner:   "treasury_owner",
	TreasuryManager: "treasury_manager",
	External:        "external",
	FeeCollector:    "fee_collector",
	Payees:          "payees",
	Payers:          "payers",
	Suspense:        "suspense",
}

func (p Party) String() string {
	if name, ok := partyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("party_%d", uint8(p))
}

// AllParties lists every party in rendering order.
var AllParties = []Party{
	TreasuryOwner, TreasuryManager, External, FeeCollector, Payees, Payers, Suspense,
}

// AssetBook tracks one asset's holdings per party, plus identity metadata for
// the two named treasury parties.
type AssetBook struct {
	Balances map[Party]uint64 `json:"balances"`

	OwnerAccount   types.Account `json:"owner_account"`
	OwnerName      string        `json:"owner_name,omitempty"`
	ManagerAccount types.Account `json:"manager_account"`
	ManagerName    string        `json:"manager_name,omitempty"`
}

func NewAssetBook(owner, manager types.Account) *AssetBook {
	b := &AssetBook{
		Balances:       make(map[Party]uint64, len(AllParties)),
		OwnerAccount:   owner,
		OwnerName:      "treasury owner",
		ManagerAccount: manager,
		ManagerName:    "treasury manager",
	}
	for _, p := range AllParties {
		b.Balances[p] = 0
	}
	return b
}

// Balance returns the party's current holding.
func (b *AssetBook) Balance(p Party) uint64 {
	return b.Balances[p]
}

// Total sums all parties' holdings. Every mutator conserves this total except
// the explicit credits documented on AddManager and SetExternal.
func (b *AssetBook) Total() uint64 {
	var total uint64
	for _, amount := range b.Balances {
		total += amount
	}
	return total
}

func (b *AssetBook) credit(p Party, amount uint64) {
	b.Balances[p] += amount
}

func (b *AssetBook) debit(p Party, amount uint64) {
	b.Balances[p] = validation.SaturatingSub(b.Balances[p], amount)
}

// Position is the authoritative cached state of the instance: the two assets,
// their balance books, and the reconciliation timestamp.
type Position struct {
	Asset0 validation.Asset `json:"asset_0"`
	Asset1 validation.Asset `json:"asset_1"`
	Book0  *AssetBook       `json:"book_0"`
	Book1  *AssetBook       `json:"book_1"`

	TimestampNS uint64 `json:"timestamp_ns"`
}

func logMove(asset, from, to string, amount, fee uint64) {
	log := logger.GetForComponent("balance_book")
	log.Debug().
		Str("asset", asset).
		Str("from", from).
		Str("to", to).
		Uint64("amount", amount).
		Uint64("fee", fee).
		Msg("Balance moved")
}

func logSuspense(asset string, amount uint64, reason string) {
	log := logger.GetForComponent("balance_book")
	log.Warn().
		Str("asset", asset).
		Uint64("amount", amount).
		Str("reason", reason).
		Msg("Unexplained difference credited to suspense")
}

func NewPosition(asset0, asset1 validation.Asset, owner0, owner1 types.Account, manager types.Account, nowNS uint64) *Position {
	return &Position{
		Asset0:      asset0,
		Asset1:      asset1,
		Book0:       NewAssetBook(owner0, manager),
		Book1:       NewAssetBook(owner1, manager),
		TimestampNS: nowNS,
	}
}

// bookFor resolves an asset by its immutable ledger id. Unknown ledgers are a
// programming error.
func (p *Position) bookFor(ledgerID types.Principal) (*validation.Asset, *AssetBook) {
	switch ledgerID {
	case p.Asset0.LedgerID:
		return &p.Asset0, p.Book0
	case p.Asset1.LedgerID:
		return &p.Asset1, p.Book1
	default:
		panic(fmt.Sprintf("balance book holds no asset on ledger %s", ledgerID))
	}
}

// Asset returns the asset tracked on the given ledger.
func (p *Position) Asset(ledgerID types.Principal) validation.Asset {
	asset, _ := p.bookFor(ledgerID)
	return *asset
}

// Book returns the balance book of the asset on the given ledger.
func (p *Position) Book(ledgerID types.Principal) *AssetBook {
	_, book := p.bookFor(ledgerID)
	return book
}

// Move debits from by amount, credits to by amount minus the ledger fee, and
// credits FeeCollector with the fee. Only the three transitions that real
// token flows produce are permitted; any other pair is a programming error.
func (p *Position) Move(ledgerID types.Principal, from, to Party, amount uint64) {
	permitted := (from == External && to == TreasuryManager) ||
		(from == TreasuryManager && to == TreasuryOwner) ||
		(from == TreasuryManager && to == External)
	if !permitted {
		panic(fmt.Sprintf("illegal balance move %s -> %s", from, to))
	}

	asset, book := p.bookFor(ledgerID)
	fee := asset.LedgerFee
	book.debit(from, amount)
	book.credit(to, validation.SaturatingSub(amount, fee))
	book.credit(FeeCollector, fee)

	logMove(asset.Symbol.String(), from.String(), to.String(), amount, fee)
}

// ChargeFee debits TreasuryManager by one ledger fee and credits FeeCollector.
// Used for fee-only transactions such as approvals.
func (p *Position) ChargeFee(ledgerID types.Principal) {
	asset, book := p.bookFor(ledgerID)
	book.debit(TreasuryManager, asset.LedgerFee)
	book.credit(FeeCollector, asset.LedgerFee)
}

// SetExternal overwrites the External party's balance with the DEX-reported
// pool value.
func (p *Position) SetExternal(ledgerID types.Principal, value uint64) {
	_, book := p.bookFor(ledgerID)
	book.Balances[External] = value
}

// AddManager credits TreasuryManager after a confirmed pull from the owner.
func (p *Position) AddManager(ledgerID types.Principal, amount uint64) {
	_, book := p.bookFor(ledgerID)
	book.credit(TreasuryManager, amount)
}

// FindDepositDiscrepancy compares the self-account balance around a deposit
// pull against the amount the backend claims to have transferred. Any excess
// change is unexplained and goes to Suspense.
func (p *Position) FindDepositDiscrepancy(ledgerID types.Principal, before, after, transferred uint64) {
	asset, book := p.bookFor(ledgerID)
	delta := absDiff(after, before)
	if delta > transferred {
		excess := delta - transferred
		book.credit(Suspense, excess)
		logSuspense(asset.Symbol.String(), excess, "deposit moved more than reported")
	}
}

// FindWithdrawDiscrepancy checks that a withdrawal delivered at least the
// transferred amount minus one fee. Any shortfall goes to Suspense.
func (p *Position) FindWithdrawDiscrepancy(ledgerID types.Principal, before, after, transferred uint64) {
	asset, book := p.bookFor(ledgerID)
	delta := absDiff(after, before)
	expected := validation.SaturatingSub(transferred, asset.LedgerFee)
	if delta < expected {
		shortfall := expected - delta
		book.credit(Suspense, shortfall)
		logSuspense(asset.Symbol.String(), shortfall, "withdraw delivered less than reported")
	}
}

// RefreshAsset updates the symbol and fee of the asset on the given ledger in
// place, logging any delta. The ledger id never changes.
func (p *Position) RefreshAsset(ledgerID types.Principal, symbol validation.Symbol, fee uint64) {
	asset, _ := p.bookFor(ledgerID)
	log := logger.GetForComponent("balance_book")
	if asset.Symbol != symbol {
		log.Info().Msg(fmt.Sprintf(
			"Asset on ledger %s changed symbol %s -> %s", ledgerID, asset.Symbol, symbol))
		asset.Symbol = symbol
	}
	if asset.LedgerFee != fee {
		log.Info().Msg(fmt.Sprintf(
			"Asset %s changed ledger fee %d -> %d", symbol, asset.LedgerFee, fee))
		asset.LedgerFee = fee
	}
}

// Clone returns a deep copy, so callers can hand out snapshots without
// exposing the live books.
func (p *Position) Clone() *Position {
	cloneBook := func(b *AssetBook) *AssetBook {
		c := *b
		c.Balances = make(map[Party]uint64, len(b.Balances))
		for party, amount := range b.Balances {
			c.Balances[party] = amount
		}
		return &c
	}
	return &Position{
		Asset0:      p.Asset0,
		Asset1:      p.Asset1,
		Book0:       cloneBook(p.Book0),
		Book1:       cloneBook(p.Book1),
		TimestampNS: p.TimestampNS,
	}
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
