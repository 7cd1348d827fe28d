package types

import (
	"encoding/binary"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Principal identifies a canister or user on the target network, in its
// textual representation (e.g. "2ipq2-uqaaa-aaaar-qailq-cai").
type Principal string

func (p Principal) String() string {
	return string(p)
}

// Account is an ICRC-1 account: a principal plus an optional 32-byte
// subaccount (hex-encoded when present).
type Account struct {
	Owner      Principal `json:"owner"`
	Subaccount string    `json:"subaccount,omitempty"`
}

func (a Account) String() string {
	if a.Subaccount == "" {
		return string(a.Owner)
	}
	return fmt.Sprintf("%s.%s", a.Owner, a.Subaccount)
}

// Operation tags one of the four treasury operations. A single operation may
// span many audited steps.
type Operation uint8

const (
	OperationDeposit Operation = iota
	OperationWithdraw
	OperationBalances
	OperationIssueReward
)

func (o Operation) String() string {
	switch o {
	case OperationDeposit:
		return "deposit"
	case OperationWithdraw:
		return "withdraw"
	case OperationBalances:
		return "balances"
	case OperationIssueReward:
		return "issue_reward"
	default:
		return fmt.Sprintf("operation_%d", uint8(o))
	}
}

// Step is the position of one audited outbound call within an operation.
type Step struct {
	Index   uint64 `json:"index"`
	IsFinal bool   `json:"is_final"`
}

// OperationContext assigns monotone step indices within one operation.
// It is not safe for concurrent use; the operation lock guarantees a single
// goroutine drives an operation at a time.
type OperationContext struct {
	operation Operation
	next      uint64
	final     bool
}

func NewOperationContext(op Operation) *OperationContext {
	return &OperationContext{operation: op}
}

func (c *OperationContext) Operation() Operation {
	return c.operation
}

// NextStep returns the next step of this operation. If MarkFinal was called
// since the previous step, the returned step carries the final flag.
func (c *OperationContext) NextStep() Step {
	step := Step{Index: c.next, IsFinal: c.final}
	c.next++
	return step
}

// PeekStep returns the step NextStep would hand out, without consuming it.
// Transfer memos are built from it before the call is emitted.
func (c *OperationContext) PeekStep() Step {
	return Step{Index: c.next, IsFinal: c.final}
}

// MarkFinal flags the next (and every subsequent) step as the operation's
// final step. Callers invoke it right before the last outbound call they
// intend to make.
func (c *OperationContext) MarkFinal() {
	c.final = true
}

// Memo encodes (operation, step) for ledger transfers, so that downstream
// indexers can reconcile a transfer back to the audited step that caused it.
// Layout: 1 tag byte, 8 bytes big-endian step index, 1 final-flag byte.
func Memo(op Operation, step Step) []byte {
	memo := make([]byte, 10)
	memo[0] = byte(op)
	binary.BigEndian.PutUint64(memo[1:9], step.Index)
	if step.IsFinal {
		memo[9] = 1
	}
	return memo
}

// Transfer is one ledger-visible movement extracted from a successful reply.
type Transfer struct {
	LedgerID   Principal   `json:"ledger_id"`
	Amount     sdkmath.Int `json:"amount"`
	BlockIndex sdkmath.Int `json:"block_index"`
}

// Witness is the structured proof of a successful external call: either a
// list of ledger transfers, or an opaque textual description for queries and
// non-ledger mutations.
type Witness struct {
	Kind      WitnessKind `json:"kind"`
	Transfers []Transfer  `json:"transfers,omitempty"`
	Text      string      `json:"text,omitempty"`
}

type WitnessKind string

const (
	WitnessLedger    WitnessKind = "ledger"
	WitnessNonLedger WitnessKind = "non_ledger"
)

// LedgerWitness builds a witness from ledger transfers.
func LedgerWitness(transfers ...Transfer) Witness {
	return Witness{Kind: WitnessLedger, Transfers: transfers}
}

// NonLedgerWitness builds a witness from an opaque textual description.
func NonLedgerWitness(text string) Witness {
	return Witness{Kind: WitnessNonLedger, Text: text}
}
