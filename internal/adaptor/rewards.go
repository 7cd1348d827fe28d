package adaptor

import (
	"context"

	"github.com/google/uuid"

	"github.com/kongswap/treasury-adaptor/internal/book"
	"github.com/kongswap/treasury-adaptor/internal/types"
)

// IssueRewards forwards any rewards that accumulated on the adaptor's own
// account to the owner accounts. It is the return-remainder stage running as
// an operation of its own.
func (s *Service) IssueRewards(ctx context.Context) (*book.Position, []*types.Error) {
	if err := s.lock.TryAcquire(types.OperationIssueReward); err != nil {
		return nil, []*types.Error{err}
	}
	defer s.lock.Release()

	opID := uuid.New().String()
	log := s.opLogger("issue_rewards", opID)
	log.Info().Msg("Issuing accumulated rewards")

	var errs []*types.Error
	opCtx := types.NewOperationContext(types.OperationIssueReward)

	s.returnRemainder(ctx, opCtx, log, nil, &errs)

	s.finishOperation(log)
	recordOutcome(types.OperationIssueReward, errs)
	log.Info().Int("errors", len(errs)).Msg("Reward issuance finished")
	return s.Balances(), errs
}

// RunPeriodicTasks is the 24 hour tick: reconcile the position, then forward
// rewards. A held lock turns the whole tick into a no-op.
func (s *Service) RunPeriodicTasks(ctx context.Context) {
	if errs := s.Refresh(ctx); len(errs) > 0 {
		for _, err := range errs {
			if err.Kind == types.KindTemporarilyUnavailable {
				return
			}
		}
	}
	s.IssueRewards(ctx)
}
