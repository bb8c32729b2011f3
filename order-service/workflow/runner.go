package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/logger"
	"github.com/swiftcart/order-system/shared/models"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxRetries   = 3
)

// Runner executes workflow instances against the store. It resumes
// instances on demand and polls for due timers in the background, making
// durable sleeps schedule-and-resume rather than blocked goroutines.
type Runner struct {
	store        Store
	orchestrator *Orchestrator
	publisher    events.Publisher

	pollInterval time.Duration
	now          func() time.Time
	maxAttempts  uint64

	mu    sync.Mutex
	locks map[models.ID]*sync.Mutex

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithPollInterval sets how often the runner scans for due timers
func WithPollInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.pollInterval = d }
}

// WithClock replaces the runner's time source, used by tests to advance
// durable timers without waiting
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithMaxActivityRetries caps the transient-failure retries per activity
func WithMaxActivityRetries(attempts uint64) RunnerOption {
	return func(r *Runner) { r.maxAttempts = attempts }
}

// NewRunner creates a Runner
func NewRunner(store Store, orchestrator *Orchestrator, publisher events.Publisher, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:        store,
		orchestrator: orchestrator,
		publisher:    publisher,
		pollInterval: defaultPollInterval,
		now:          time.Now,
		maxAttempts:  defaultMaxRetries,
		locks:        make(map[models.ID]*sync.Mutex),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// instanceLock serializes resumptions of the same instance. Different
// instances resume concurrently.
func (r *Runner) instanceLock(id models.ID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

// Resume replays the instance from its step log and runs it forward to the
// next suspension point or to a terminal state.
func (r *Runner) Resume(ctx context.Context, instanceID models.ID) error {
	lock := r.instanceLock(instanceID)
	lock.Lock()
	defer lock.Unlock()

	instance, err := r.store.Instance(ctx, instanceID)
	if err != nil {
		return errors.Wrapf(err, "failed to load instance %s", instanceID)
	}
	if instance.Terminal() {
		return nil
	}

	steps, err := r.store.Steps(ctx, instanceID)
	if err != nil {
		return errors.Wrapf(err, "failed to load step log of instance %s", instanceID)
	}

	run := newRun(instance, r.store, steps, r.now, r.maxAttempts)
	result, err := r.orchestrator.Execute(ctx, run)

	switch {
	case errors.Is(err, ErrSuspended):
		instance.LastUpdatedAt = r.now()
		if err := r.store.UpdateInstance(ctx, instance); err != nil {
			return errors.Wrapf(err, "failed to persist suspended instance %s", instanceID)
		}
		logger.Debug("workflow instance suspended",
			zap.String("instance_id", instanceID.String()),
		)
		return nil

	case err != nil:
		instance.Status = StatusFailed
		instance.LastUpdatedAt = r.now()
		instance.Output = &OrderProcessingResult{Message: err.Error()}
		if updateErr := r.store.UpdateInstance(ctx, instance); updateErr != nil {
			logger.Error("failed to persist failed instance",
				zap.String("instance_id", instanceID.String()),
				zap.Error(updateErr),
			)
		}
		logger.Error("workflow instance failed",
			zap.String("instance_id", instanceID.String()),
			zap.Error(err),
		)
		return err

	default:
		instance.Status = StatusCompleted
		instance.LastUpdatedAt = r.now()
		instance.Output = result
		if err := r.store.UpdateInstance(ctx, instance); err != nil {
			return errors.Wrapf(err, "failed to persist completed instance %s", instanceID)
		}

		r.publishCompleted(ctx, instance)

		logger.Info("workflow instance completed",
			zap.String("instance_id", instanceID.String()),
			zap.String("order_id", instance.OrderID.String()),
			zap.Bool("success", result.Success),
			zap.String("final_status", string(result.FinalStatus)),
		)
		return nil
	}
}

func (r *Runner) publishCompleted(ctx context.Context, instance *Instance) {
	event := events.NewEvent(instance.OrderID, events.WorkflowCompletedEvent, instance.Output).
		WithCorrelationID(instance.OrderID).
		WithMetadata("instance_id", instance.ID.String())

	if err := r.publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish workflow completion event",
			zap.String("instance_id", instance.ID.String()),
			zap.Error(err),
		)
	}
}

// Start resumes instances left running by a previous process, then
// launches the background timer poller. Stop shuts the poller down.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.recoverRunning(ctx)

		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.fireDueTimers(ctx)
			}
		}
	}()
}

// recoverRunning resumes every instance still marked running. An instance
// that crashed between creation and its first suspension point has no
// timer or signal to trigger it again, so the restart has to pick it up.
// Instances parked on a pending timer or signal replay to the same
// suspension point and park again.
func (r *Runner) recoverRunning(ctx context.Context) {
	ids, err := r.store.RunningInstances(ctx)
	if err != nil {
		logger.Error("failed to scan running instances", zap.Error(err))
		return
	}

	for _, id := range ids {
		if err := r.Resume(ctx, id); err != nil {
			logger.Error("failed to recover running instance",
				zap.String("instance_id", id.String()),
				zap.Error(err),
			)
		}
	}
}

// fireDueTimers resumes every instance with a due timer. The resumed run
// observes the elapsed deadline and records the timer step itself.
func (r *Runner) fireDueTimers(ctx context.Context) {
	due, err := r.store.DueTimers(ctx, r.now())
	if err != nil {
		logger.Error("failed to scan due timers", zap.Error(err))
		return
	}

	resumed := make(map[models.ID]bool, len(due))
	for _, timer := range due {
		if resumed[timer.InstanceID] {
			continue
		}
		resumed[timer.InstanceID] = true

		if err := r.Resume(ctx, timer.InstanceID); err != nil {
			logger.Error("failed to resume instance on timer",
				zap.String("instance_id", timer.InstanceID.String()),
				zap.String("step_id", timer.StepID),
				zap.Error(err),
			)
		}
	}
}

// Stop halts the timer poller and waits for it to drain
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}
