package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softex1/tably-paket1/hub"
	"github.com/softex1/tably-paket1/models"
	"github.com/softex1/tably-paket1/utils"
)

func TestCreateCallCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.seedTable(t, "T1")

	first, err := f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
	require.NoError(t, err)
	assert.False(t, first.Resolved)
	assert.Equal(t, table.ID, first.TableID)

	f.clock.Advance(time.Minute)
	_, err = f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
	require.Error(t, err)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindRateLimited, appErr.Kind)
	assert.Equal(t, 2*time.Minute, appErr.RetryAfter)
	assert.Equal(t, "You can only call waiter once every 3 minutes.", appErr.Message)

	// other types and other tables are independent
	_, err = f.calls.CreateCall(ctx, table, models.CallTypeBill)
	require.NoError(t, err)
	other := f.seedTable(t, "T2")
	_, err = f.calls.CreateCall(ctx, other, models.CallTypeWaiter)
	require.NoError(t, err)
}

func TestCreateCallBlocksUntilCooldownEnds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.seedTable(t, "T1")

	_, err := f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
	require.NoError(t, err)

	f.clock.Advance(3*time.Minute - time.Second)
	_, err = f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
	assert.Equal(t, utils.KindRateLimited, utils.KindOf(err))

	f.clock.Advance(time.Second)
	_, err = f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
	assert.NoError(t, err)
}

func TestCreateCallAfterCooldownKeepsPriorOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.seedTable(t, "T1")

	first, err := f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
	require.NoError(t, err)

	f.clock.Advance(4 * time.Minute)
	second, err := f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
	require.NoError(t, err)

	active, err := f.calls.ListActiveCalls(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, first.ID, active[1].ID)
	assert.Empty(t, f.pub.events(hub.EventCallResolved))
}

func TestCreateCallAutoResolvesStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.seedTable(t, "T1")

	first, err := f.calls.CreateCall(ctx, table, models.CallTypeBill)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	second, err := f.calls.CreateCall(ctx, table, models.CallTypeBill)
	require.NoError(t, err)

	var stored models.Call
	require.NoError(t, f.db.First(&stored, first.ID).Error)
	assert.True(t, stored.Resolved)

	active, err := f.calls.ListActiveCalls(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	resolved := f.pub.events(hub.EventCallResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, first.ID, resolved[0].Data.(*models.Call).ID)
	assert.Len(t, f.pub.events(hub.EventCallCreated), 2)
}

func TestCreateCallOnlyChecksNewestUnresolved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.seedTable(t, "T1")

	first, err := f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
	require.NoError(t, err)
	_, err = f.calls.Resolve(ctx, first.ID)
	require.NoError(t, err)

	// a resolved call never blocks a new one
	_, err = f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
	assert.NoError(t, err)
}

// spyLocker wraps a Locker and tracks how many holders are inside each key.
type spyLocker struct {
	inner Locker
	hold  time.Duration

	mu        sync.Mutex
	keys      []string
	inside    map[string]int
	maxInside map[string]int
}

func newSpyLocker(inner Locker, hold time.Duration) *spyLocker {
	return &spyLocker{inner: inner, hold: hold, inside: map[string]int{}, maxInside: map[string]int{}}
}

func (l *spyLocker) Lock(ctx context.Context, key string) (func(), error) {
	unlock, err := l.inner.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.inside[key]++
	if l.inside[key] > l.maxInside[key] {
		l.maxInside[key] = l.inside[key]
	}
	l.mu.Unlock()

	time.Sleep(l.hold)
	return func() {
		l.mu.Lock()
		l.inside[key]--
		l.mu.Unlock()
		unlock()
	}, nil
}

func (l *spyLocker) snapshot() ([]string, map[string]int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	maxInside := make(map[string]int, len(l.maxInside))
	for k, v := range l.maxInside {
		maxInside[k] = v
	}
	return append([]string(nil), l.keys...), maxInside
}

func TestCreateCallConcurrentDoubleTap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.seedTable(t, "T1")
	spy := newSpyLocker(NewKeyedMutex(), 5*time.Millisecond)
	f.calls.Locker = spy

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		limited int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case utils.KindOf(err) == utils.KindRateLimited:
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, limited)

	key := callLockKey(table.ID, models.CallTypeWaiter)
	keys, maxInside := spy.snapshot()
	require.Len(t, keys, n)
	for _, k := range keys {
		assert.Equal(t, key, k)
	}
	assert.Equal(t, 1, maxInside[key], "holders of one key overlapped")

	var count int64
	require.NoError(t, f.db.Model(&models.Call{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateCallLockIsPerTableAndType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.seedTable(t, "T1")
	t2 := f.seedTable(t, "T2")

	unlock, err := f.calls.Locker.Lock(ctx, callLockKey(t1.ID, models.CallTypeWaiter))
	require.NoError(t, err)

	// other keys go through while T1/WAITER is held
	otherCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err = f.calls.CreateCall(otherCtx, t1, models.CallTypeBill)
	require.NoError(t, err)
	_, err = f.calls.CreateCall(otherCtx, t2, models.CallTypeWaiter)
	require.NoError(t, err)

	blockedCtx, cancelBlocked := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancelBlocked()
	_, err = f.calls.CreateCall(blockedCtx, t1, models.CallTypeWaiter)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var waiting int64
	require.NoError(t, f.db.Model(&models.Call{}).
		Where("table_id = ? AND type = ?", t1.ID, models.CallTypeWaiter).
		Count(&waiting).Error)
	assert.Zero(t, waiting)

	unlock()
	_, err = f.calls.CreateCall(ctx, t1, models.CallTypeWaiter)
	assert.NoError(t, err)
}

func TestCreateCallCooldownMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.seedTable(t, "T1")

	for _, tc := range []struct {
		cooldown time.Duration
		want     string
	}{
		{45 * time.Second, "You can only call bill once every 45s."},
		{90 * time.Second, "You can only call bill once every 1m30s."},
		{time.Minute, "You can only call bill once every 1 minute."},
		{5 * time.Minute, "You can only call bill once every 5 minutes."},
	} {
		f.calls.Cooldown = tc.cooldown
		_, err := f.calls.CreateCall(ctx, table, models.CallTypeBill)
		require.NoError(t, err)

		_, err = f.calls.CreateCall(ctx, table, models.CallTypeBill)
		requireAppError(t, err, utils.KindRateLimited, tc.want)

		f.clock.Advance(6 * time.Minute)
	}
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.seedTable(t, "T1")

	_, err := f.calls.Resolve(ctx, 4242)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
	assert.Empty(t, f.pub.events(hub.EventCallResolved))

	call, err := f.calls.CreateCall(ctx, table, models.CallTypeWaiter)
	require.NoError(t, err)

	resolved, err := f.calls.Resolve(ctx, call.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "T1", resolved.Table.Code)

	events := f.pub.events(hub.EventCallResolved)
	require.Len(t, events, 1)
	assert.Equal(t, call.ID, events[0].Data.(*models.Call).ID)

	active, err := f.calls.ListActiveCalls(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestListRecentActiveCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.seedTable(t, "T1")
	t2 := f.seedTable(t, "T2")

	old, err := f.calls.CreateCall(ctx, t1, models.CallTypeWaiter)
	require.NoError(t, err)
	f.clock.Advance(8 * time.Minute)
	mid, err := f.calls.CreateCall(ctx, t2, models.CallTypeBill)
	require.NoError(t, err)
	f.clock.Advance(4 * time.Minute)
	recent, err := f.calls.CreateCall(ctx, t2, models.CallTypeWaiter)
	require.NoError(t, err)

	calls, err := f.calls.ListRecentActiveCalls(ctx, 10*time.Minute)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, recent.ID, calls[0].ID)
	assert.Equal(t, mid.ID, calls[1].ID)

	// the straggler is still active, just outside the window
	all, err := f.calls.ListActiveCalls(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, old.ID, all[2].ID)

	_, err = f.calls.ListRecentActiveCalls(ctx, 0)
	assert.Equal(t, utils.KindInvalidArgument, utils.KindOf(err))
}
