package adaptor

import (
	"sync"
	"time"

	"github.com/kongswap/treasury-adaptor/internal/config"
	"github.com/kongswap/treasury-adaptor/internal/logger"
	"github.com/kongswap/treasury-adaptor/internal/metrics"
	"github.com/kongswap/treasury-adaptor/internal/types"
)

// Lock grants exclusive access to the position. Operations suspend across
// many outbound calls, so plain mutual exclusion is not enough: a crashed
// holder must not wedge the instance forever. A holder past its deadline is
// forcibly replaced by the next acquirer.
type Lock struct {
	mu         sync.Mutex
	holder     *types.Operation
	acquiredNS uint64
	deadlineNS uint64

	nowNS func() uint64
}

func NewLock() *Lock {
	return &Lock{
		nowNS: func() uint64 { return uint64(time.Now().UnixNano()) },
	}
}

// TryAcquire takes the lock for op. While a live holder exists it fails with
// TemporarilyUnavailable carrying the seconds until that holder's deadline.
func (l *Lock) TryAcquire(op types.Operation) *types.Error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowNS()
	if l.holder != nil && now < l.deadlineNS {
		metrics.LockContentionTotal.WithLabelValues(op.String()).Inc()
		remaining := (l.deadlineNS - now) / uint64(time.Second)
		return types.TemporarilyUnavailable(l.holder.String(), remaining)
	}

	if l.holder != nil {
		log := logger.GetForComponent("operation_lock")
		log.Warn().
			Str("stale_holder", l.holder.String()).
			Str("new_holder", op.String()).
			Msg("Stealing lock from holder past its deadline")
	}

	holder := op
	l.holder = &holder
	l.acquiredNS = now
	l.deadlineNS = now + uint64(config.LockDeadline.Nanoseconds())
	return nil
}

// Release clears the holder. It must run on every exit path of an operation.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holder = nil
	l.acquiredNS = 0
	l.deadlineNS = 0
}

// Holder returns the current holder, if any.
func (l *Lock) Holder() *types.Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder == nil {
		return nil
	}
	holder := *l.holder
	return &holder
}
