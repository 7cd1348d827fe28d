package adaptor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kongswap/treasury-adaptor/internal/config"
	"github.com/kongswap/treasury-adaptor/internal/types"
)

func newTestLock(now *uint64) *Lock {
	l := NewLock()
	l.nowNS = func() uint64 { return *now }
	return l
}

func TestLockRejectsSecondHolder(t *testing.T) {
	now := uint64(1_000)
	l := newTestLock(&now)

	require.Nil(t, l.TryAcquire(types.OperationDeposit))

	err := l.TryAcquire(types.OperationWithdraw)
	require.NotNil(t, err)
	assert.Equal(t, types.KindTemporarilyUnavailable, err.Kind)
	assert.LessOrEqual(t, err.SecondsRemaining, uint64(45*60))
	assert.Contains(t, err.Message, "deposit")
}

func TestLockReleaseAllowsReacquire(t *testing.T) {
	now := uint64(1_000)
	l := newTestLock(&now)

	require.Nil(t, l.TryAcquire(types.OperationDeposit))
	l.Release()
	require.Nil(t, l.TryAcquire(types.OperationWithdraw))
}

func TestLockStolenAfterDeadline(t *testing.T) {
	now := uint64(1_000)
	l := newTestLock(&now)

	require.Nil(t, l.TryAcquire(types.OperationDeposit))

	now += uint64(config.LockDeadline.Nanoseconds()) - 1
	require.NotNil(t, l.TryAcquire(types.OperationWithdraw))

	now += 1
	require.Nil(t, l.TryAcquire(types.OperationWithdraw))

	holder := l.Holder()
	require.NotNil(t, holder)
	assert.Equal(t, types.OperationWithdraw, *holder)
}

func TestLockSecondsRemainingShrinks(t *testing.T) {
	now := uint64(0)
	l := newTestLock(&now)

	require.Nil(t, l.TryAcquire(types.OperationDeposit))

	now += uint64(40 * time.Minute.Nanoseconds())
	err := l.TryAcquire(types.OperationWithdraw)
	require.NotNil(t, err)
	assert.Equal(t, uint64(5*60), err.SecondsRemaining)
}
