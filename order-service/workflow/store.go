package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/shared/models"
)

// ErrInstanceNotFound is returned when no instance matches the id
var ErrInstanceNotFound = errors.New("workflow instance not found")

// StepRecord is one completed step of an instance. Replay returns the
// recorded result instead of re-executing the activity.
type StepRecord struct {
	InstanceID  models.ID       `json:"instance_id" db:"instance_id"`
	StepID      string          `json:"step_id" db:"step_id"`
	Result      json.RawMessage `json:"result" db:"result"`
	CompletedAt time.Time       `json:"completed_at" db:"completed_at"`
}

// Timer is a durable schedule-and-resume point. The runner polls due
// timers and resumes the owning instance, it never blocks a goroutine for
// the duration.
type Timer struct {
	InstanceID models.ID `json:"instance_id" db:"instance_id"`
	StepID     string    `json:"step_id" db:"step_id"`
	FireAt     time.Time `json:"fire_at" db:"fire_at"`
}

// Signal is an external event delivered into a suspended instance
type Signal struct {
	InstanceID models.ID       `json:"instance_id" db:"instance_id"`
	Name       string          `json:"name" db:"name"`
	Payload    json.RawMessage `json:"payload" db:"payload"`
	ReceivedAt time.Time       `json:"received_at" db:"received_at"`
}

// Store persists workflow instances, their step log, timers and signals
type Store interface {
	CreateInstance(ctx context.Context, instance *Instance) error
	Instance(ctx context.Context, id models.ID) (*Instance, error)
	// RunningInstanceByOrder returns the running instance for the order, or
	// nil when there is none
	RunningInstanceByOrder(ctx context.Context, orderID models.ID) (*Instance, error)
	// RunningInstances lists the ids of every instance still marked
	// running, so a restarted runner can pick up orphaned work
	RunningInstances(ctx context.Context) ([]models.ID, error)
	UpdateInstance(ctx context.Context, instance *Instance) error

	RecordStep(ctx context.Context, record StepRecord) error
	Steps(ctx context.Context, instanceID models.ID) (map[string]StepRecord, error)

	SaveTimer(ctx context.Context, timer Timer) error
	Timer(ctx context.Context, instanceID models.ID, stepID string) (*Timer, error)
	DueTimers(ctx context.Context, now time.Time) ([]Timer, error)
	DeleteTimer(ctx context.Context, instanceID models.ID, stepID string) error

	SaveSignal(ctx context.Context, signal Signal) error
	Signal(ctx context.Context, instanceID models.ID, name string) (*Signal, error)
}
