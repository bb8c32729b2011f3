package workflow

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"github.com/swiftcart/order-system/shared/logger"
	"github.com/swiftcart/order-system/shared/models"
	"go.uber.org/zap"
)

// ErrSuspended signals that the instance parked on a timer or an external
// event. The runner persists the instance and resumes it later, replaying
// the step log from the top.
var ErrSuspended = errors.New("workflow execution suspended")

// Run is the replay context of one execution attempt. It hands recorded
// step results back to the orchestrator instead of re-running activities,
// and persists new results as they complete. Safe for the concurrent
// fan-out sections of the workflow.
type Run struct {
	instance    *Instance
	store       Store
	now         func() time.Time
	maxAttempts uint64

	mu    sync.Mutex
	steps map[string]StepRecord
}

func newRun(instance *Instance, store Store, steps map[string]StepRecord, now func() time.Time, maxAttempts uint64) *Run {
	if steps == nil {
		steps = make(map[string]StepRecord)
	}
	return &Run{
		instance:    instance,
		store:       store,
		now:         now,
		maxAttempts: maxAttempts,
		steps:       steps,
	}
}

// Input returns the immutable workflow input
func (r *Run) Input() OrderProcessingInput {
	return r.instance.Input
}

// InstanceID returns the id of the executing instance
func (r *Run) InstanceID() models.ID {
	return r.instance.ID
}

func (r *Run) recorded(stepID string) (StepRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.steps[stepID]
	return record, ok
}

func (r *Run) record(ctx context.Context, stepID string, result interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal result of step %s", stepID)
	}

	record := StepRecord{
		InstanceID:  r.instance.ID,
		StepID:      stepID,
		Result:      raw,
		CompletedAt: r.now(),
	}
	if err := r.store.RecordStep(ctx, record); err != nil {
		return errors.Wrapf(err, "failed to record step %s", stepID)
	}

	r.mu.Lock()
	r.steps[stepID] = record
	r.mu.Unlock()
	return nil
}

// Execute runs an activity once per instance. On replay the recorded
// result is returned without touching the activity. Errors returned by fn
// are treated as transient and retried with exponential backoff up to the
// run's attempt budget.
func Execute[T any](ctx context.Context, r *Run, stepID string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if record, ok := r.recorded(stepID); ok {
		var result T
		if err := json.Unmarshal(record.Result, &result); err != nil {
			return zero, errors.Wrapf(err, "failed to decode recorded step %s", stepID)
		}
		return result, nil
	}

	var result T
	backoff := retry.WithMaxRetries(r.maxAttempts, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		value, err := fn(ctx)
		if err != nil {
			logger.Warn("activity failed, retrying",
				zap.String("instance_id", r.instance.ID.String()),
				zap.String("step_id", stepID),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		result = value
		return nil
	})
	if err != nil {
		return zero, errors.Wrapf(err, "step %s failed", stepID)
	}

	if err := r.record(ctx, stepID, result); err != nil {
		return zero, err
	}
	return result, nil
}

type timerFired struct {
	FiredAt time.Time `json:"fired_at"`
}

// Sleep is a durable timer. The first pass persists the deadline and
// suspends; once the runner observes the deadline the step is recorded and
// replay falls through.
func (r *Run) Sleep(ctx context.Context, stepID string, d time.Duration) error {
	if _, ok := r.recorded(stepID); ok {
		return nil
	}

	timer, err := r.store.Timer(ctx, r.instance.ID, stepID)
	if err != nil {
		return errors.Wrapf(err, "failed to load timer for step %s", stepID)
	}

	if timer == nil {
		err := r.store.SaveTimer(ctx, Timer{
			InstanceID: r.instance.ID,
			StepID:     stepID,
			FireAt:     r.now().Add(d),
		})
		if err != nil {
			return errors.Wrapf(err, "failed to schedule timer for step %s", stepID)
		}
		return ErrSuspended
	}

	if r.now().Before(timer.FireAt) {
		return ErrSuspended
	}

	if err := r.record(ctx, stepID, timerFired{FiredAt: r.now()}); err != nil {
		return err
	}
	if err := r.store.DeleteTimer(ctx, r.instance.ID, stepID); err != nil {
		logger.Warn("failed to delete fired timer",
			zap.String("instance_id", r.instance.ID.String()),
			zap.String("step_id", stepID),
			zap.Error(err),
		)
	}
	return nil
}

type signalOutcome struct {
	TimedOut bool            `json:"timed_out"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// AwaitSignal waits for an external event with a durable timeout. It
// returns the signal payload, or timedOut=true when the deadline passed
// without a signal. While neither happened the instance suspends.
func (r *Run) AwaitSignal(ctx context.Context, stepID, name string, timeout time.Duration) (json.RawMessage, bool, error) {
	if record, ok := r.recorded(stepID); ok {
		var outcome signalOutcome
		if err := json.Unmarshal(record.Result, &outcome); err != nil {
			return nil, false, errors.Wrapf(err, "failed to decode recorded step %s", stepID)
		}
		return outcome.Payload, outcome.TimedOut, nil
	}

	signal, err := r.store.Signal(ctx, r.instance.ID, name)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to load signal %s", name)
	}

	if signal != nil {
		if err := r.record(ctx, stepID, signalOutcome{Payload: signal.Payload}); err != nil {
			return nil, false, err
		}
		if err := r.store.DeleteTimer(ctx, r.instance.ID, stepID); err != nil {
			logger.Warn("failed to delete signal timeout timer",
				zap.String("instance_id", r.instance.ID.String()),
				zap.String("step_id", stepID),
				zap.Error(err),
			)
		}
		return signal.Payload, false, nil
	}

	timer, err := r.store.Timer(ctx, r.instance.ID, stepID)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to load timer for step %s", stepID)
	}

	if timer == nil {
		err := r.store.SaveTimer(ctx, Timer{
			InstanceID: r.instance.ID,
			StepID:     stepID,
			FireAt:     r.now().Add(timeout),
		})
		if err != nil {
			return nil, false, errors.Wrapf(err, "failed to schedule timeout for step %s", stepID)
		}
		return nil, false, ErrSuspended
	}

	if r.now().Before(timer.FireAt) {
		return nil, false, ErrSuspended
	}

	if err := r.record(ctx, stepID, signalOutcome{TimedOut: true}); err != nil {
		return nil, false, err
	}
	if err := r.store.DeleteTimer(ctx, r.instance.ID, stepID); err != nil {
		logger.Warn("failed to delete signal timeout timer",
			zap.String("instance_id", r.instance.ID.String()),
			zap.String("step_id", stepID),
			zap.Error(err),
		)
	}
	return nil, true, nil
}
