package workflow

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/shared/models"
)

func newTestRun(t *testing.T, store Store, clock *fakeClock) *Run {
	t.Helper()

	instance := &Instance{
		ID:      models.GenerateUUID(),
		OrderID: models.GenerateUUID(),
		Status:  StatusRunning,
	}
	require.NoError(t, store.CreateInstance(context.Background(), instance))

	steps, err := store.Steps(context.Background(), instance.ID)
	require.NoError(t, err)

	return newRun(instance, store, steps, clock.Now, 3)
}

func TestExecute_RecordsAndReplays(t *testing.T) {
	store := NewMemoryStore()
	clock := newFakeClock()
	run := newTestRun(t, store, clock)
	ctx := context.Background()

	calls := 0
	activity := func(ctx context.Context) (string, error) {
		calls++
		return "charged", nil
	}

	result, err := Execute(ctx, run, "step-1", activity)
	require.NoError(t, err)
	assert.Equal(t, "charged", result)
	assert.Equal(t, 1, calls)

	// Same run serves the cached result.
	result, err = Execute(ctx, run, "step-1", activity)
	require.NoError(t, err)
	assert.Equal(t, "charged", result)
	assert.Equal(t, 1, calls)

	// A fresh run over the same store replays from the persisted log.
	steps, err := store.Steps(ctx, run.InstanceID())
	require.NoError(t, err)
	replay := newRun(run.instance, store, steps, clock.Now, 3)

	result, err = Execute(ctx, replay, "step-1", activity)
	require.NoError(t, err)
	assert.Equal(t, "charged", result)
	assert.Equal(t, 1, calls)
}

func TestExecute_RetriesTransientFailures(t *testing.T) {
	store := NewMemoryStore()
	run := newTestRun(t, store, newFakeClock())

	calls := 0
	result, err := Execute(context.Background(), run, "flaky", func(ctx context.Context) (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("connection reset")
		}
		return true, nil
	})

	require.NoError(t, err)
	assert.True(t, result)
	assert.Equal(t, 3, calls)
}

func TestExecute_ExhaustsRetryBudget(t *testing.T) {
	store := NewMemoryStore()
	run := newTestRun(t, store, newFakeClock())

	calls := 0
	_, err := Execute(context.Background(), run, "down", func(ctx context.Context) (bool, error) {
		calls++
		return false, errors.New("connection reset")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "step down failed")
	assert.Equal(t, 4, calls) // first attempt plus the retry budget

	// The failed step is not recorded, a later resume runs it again.
	steps, err := store.Steps(context.Background(), run.InstanceID())
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestSleep_SchedulesThenFires(t *testing.T) {
	store := NewMemoryStore()
	clock := newFakeClock()
	run := newTestRun(t, store, clock)
	ctx := context.Background()

	// First pass schedules the timer and suspends.
	err := run.Sleep(ctx, "wait", time.Hour)
	assert.ErrorIs(t, err, ErrSuspended)

	timer, err := store.Timer(ctx, run.InstanceID(), "wait")
	require.NoError(t, err)
	require.NotNil(t, timer)
	assert.Equal(t, clock.Now().Add(time.Hour), timer.FireAt)

	// Still before the deadline.
	clock.Advance(30 * time.Minute)
	assert.ErrorIs(t, run.Sleep(ctx, "wait", time.Hour), ErrSuspended)

	// Past the deadline the step records and the timer is cleaned up.
	clock.Advance(31 * time.Minute)
	require.NoError(t, run.Sleep(ctx, "wait", time.Hour))

	timer, err = store.Timer(ctx, run.InstanceID(), "wait")
	require.NoError(t, err)
	assert.Nil(t, timer)

	// Replay falls through without touching the store clock.
	require.NoError(t, run.Sleep(ctx, "wait", time.Hour))
}

func TestAwaitSignal(t *testing.T) {
	t.Run("delivers a pending signal", func(t *testing.T) {
		store := NewMemoryStore()
		clock := newFakeClock()
		run := newTestRun(t, store, clock)
		ctx := context.Background()

		payload, _ := json.Marshal(true)
		require.NoError(t, store.SaveSignal(ctx, Signal{
			InstanceID: run.InstanceID(),
			Name:       SignalOrderApproval,
			Payload:    payload,
			ReceivedAt: clock.Now(),
		}))

		got, timedOut, err := run.AwaitSignal(ctx, "gate", SignalOrderApproval, time.Hour)
		require.NoError(t, err)
		assert.False(t, timedOut)
		assert.JSONEq(t, "true", string(got))
	})

	t.Run("suspends until the signal or the deadline", func(t *testing.T) {
		store := NewMemoryStore()
		clock := newFakeClock()
		run := newTestRun(t, store, clock)
		ctx := context.Background()

		_, _, err := run.AwaitSignal(ctx, "gate", SignalOrderApproval, time.Hour)
		assert.ErrorIs(t, err, ErrSuspended)

		clock.Advance(30 * time.Minute)
		_, _, err = run.AwaitSignal(ctx, "gate", SignalOrderApproval, time.Hour)
		assert.ErrorIs(t, err, ErrSuspended)

		clock.Advance(31 * time.Minute)
		_, timedOut, err := run.AwaitSignal(ctx, "gate", SignalOrderApproval, time.Hour)
		require.NoError(t, err)
		assert.True(t, timedOut)

		// The timeout outcome is durable.
		_, timedOut, err = run.AwaitSignal(ctx, "gate", SignalOrderApproval, time.Hour)
		require.NoError(t, err)
		assert.True(t, timedOut)
	})

	t.Run("signal wins over an unexpired deadline", func(t *testing.T) {
		store := NewMemoryStore()
		clock := newFakeClock()
		run := newTestRun(t, store, clock)
		ctx := context.Background()

		_, _, err := run.AwaitSignal(ctx, "gate", SignalOrderApproval, time.Hour)
		assert.ErrorIs(t, err, ErrSuspended)

		payload, _ := json.Marshal(false)
		require.NoError(t, store.SaveSignal(ctx, Signal{
			InstanceID: run.InstanceID(),
			Name:       SignalOrderApproval,
			Payload:    payload,
			ReceivedAt: clock.Now(),
		}))

		got, timedOut, err := run.AwaitSignal(ctx, "gate", SignalOrderApproval, time.Hour)
		require.NoError(t, err)
		assert.False(t, timedOut)
		assert.JSONEq(t, "false", string(got))

		// The timeout timer is gone, the poller will not resume this step.
		timer, err := store.Timer(ctx, run.InstanceID(), "gate")
		require.NoError(t, err)
		assert.Nil(t, timer)
	})
}
