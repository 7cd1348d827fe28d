// Package adaptor hosts the treasury operations: the deposit, withdraw,
// refresh and reward state machines, serialized by the position lock and
// journaled through the audited engine.
package adaptor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kongswap/treasury-adaptor/internal/audit"
	"github.com/kongswap/treasury-adaptor/internal/book"
	"github.com/kongswap/treasury-adaptor/internal/dex"
	"github.com/kongswap/treasury-adaptor/internal/engine"
	"github.com/kongswap/treasury-adaptor/internal/ledger"
	"github.com/kongswap/treasury-adaptor/internal/logger"
	"github.com/kongswap/treasury-adaptor/internal/metrics"
	"github.com/kongswap/treasury-adaptor/internal/types"
	"github.com/kongswap/treasury-adaptor/internal/validation"
)

// Config wires a Service to its collaborators and identities.
type Config struct {
	SelfID      types.Principal
	KongID      types.Principal
	ICPLedgerID types.Principal

	// Owner0Account and Owner1Account receive remainders when the caller
	// supplies no withdraw accounts.
	Owner0Account types.Account
	Owner1Account types.Account

	// SavePosition persists the position cell after every completed
	// operation. May be nil in tests.
	SavePosition func(*book.Position) error
}

// Service drives the managed position. One operation runs at a time.
type Service struct {
	engine *engine.Engine
	lock   *Lock
	cfg    Config

	posMu    sync.Mutex
	position *book.Position

	nowNS func() uint64
}

func NewService(eng *engine.Engine, position *book.Position, cfg Config) *Service {
	return &Service{
		engine:   eng,
		lock:     NewLock(),
		cfg:      cfg,
		position: position,
		nowNS:    func() uint64 { return uint64(time.Now().UnixNano()) },
	}
}

// Balances returns the last reconciled position. It never blocks on an
// in-flight operation.
func (s *Service) Balances() *book.Position {
	s.posMu.Lock()
	defer s.posMu.Unlock()
	return s.position.Clone()
}

// AuditTrail returns the full ordered audit log.
func (s *Service) AuditTrail() []*audit.Record {
	return s.engine.Trail().Records()
}

func (s *Service) selfAccount() types.Account {
	return types.Account{Owner: s.cfg.SelfID}
}

func (s *Service) opLogger(component, opID string) zerolog.Logger {
	return logger.GetForComponent(component).With().Str("op_id", opID).Logger()
}

// finishOperation stamps and persists the position after an operation.
func (s *Service) finishOperation(log zerolog.Logger) {
	s.posMu.Lock()
	s.position.TimestampNS = s.nowNS()
	snapshot := s.position.Clone()
	s.posMu.Unlock()

	if s.cfg.SavePosition == nil {
		return
	}
	if err := s.cfg.SavePosition(snapshot); err != nil {
		log.Error().Err(err).Msg("Failed to persist position")
	}
}

// refreshMetadata re-reads both assets from the backend and their ledgers and
// applies symbol or fee changes in place. Errors accumulate; one asset's
// failure does not block the other.
func (s *Service) refreshMetadata(ctx context.Context, opCtx *types.OperationContext, log zerolog.Logger, errs *[]*types.Error) {
	for _, asset := range []validation.Asset{s.position.Asset0, s.position.Asset1} {
		token := dex.TokenName(asset.LedgerID)

		if _, err := engine.Emit(ctx, s.engine, opCtx, s.cfg.KongID,
			&dex.UpdateTokenRequest{Token: token},
			"refresh the backend's view of "+asset.Symbol.String()); err != nil {
			*errs = append(*errs, err)
		}

		entries, err := engine.Emit(ctx, s.engine, opCtx, asset.LedgerID,
			&ledger.MetadataRequest{},
			"read ledger metadata of "+asset.Symbol.String())
		if err != nil {
			*errs = append(*errs, err)
			continue
		}

		rawSymbol, rawFee, err := ledger.ExtractSymbolAndFee(entries)
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		symbol, err := validation.ParseSymbol(rawSymbol)
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		fee, err := validation.DecodeUint64(rawFee, "ledger fee")
		if err != nil {
			*errs = append(*errs, err)
			continue
		}

		s.posMu.Lock()
		s.position.RefreshAsset(asset.LedgerID, symbol, fee)
		s.posMu.Unlock()
	}
}

// queryLPBalance reads the adaptor's LP holding for the managed pool. An
// empty holdings list means a zero balance, not an error.
func (s *Service) queryLPBalance(ctx context.Context, opCtx *types.OperationContext) (uint64, *types.Error) {
	holdings, err := engine.Emit(ctx, s.engine, opCtx, s.cfg.KongID,
		&dex.UserBalancesRequest{Principal: s.cfg.SelfID},
		"query LP holdings")
	if err != nil {
		return 0, err
	}

	lpSymbol := dex.LPTokenSymbol(s.position.Asset0.Symbol.String(), s.position.Asset1.Symbol.String())
	for _, h := range holdings {
		if h.Symbol == lpSymbol {
			return dex.LPBalanceToDecimals(h.Balance)
		}
	}
	return 0, nil
}

// applyDeliveries books each ledger movement a backend reply reports as funds
// arriving from the pool.
func (s *Service) applyDeliveries(transfers []dex.TransferIDReply, errs *[]*types.Error) {
	for _, t := range transfers {
		amount, err := validation.DecodeUint64(t.Transfer.Amount, "delivered amount")
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		s.posMu.Lock()
		s.position.Move(t.Transfer.LedgerID, book.External, book.TreasuryManager, amount)
		s.posMu.Unlock()
	}
}

func recordOutcome(op types.Operation, errs []*types.Error) {
	outcome := "success"
	if len(errs) > 0 {
		outcome = "failure"
	}
	metrics.OperationsTotal.WithLabelValues(op.String(), outcome).Inc()
}
