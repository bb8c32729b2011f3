package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/workflow"
	"github.com/swiftcart/order-system/shared/models"
)

var _ workflow.Store = (*PostgresWorkflowStore)(nil)

// PostgresWorkflowStore implements workflow.Store using PostgreSQL. Step
// records, timers and signals are idempotent upserts so a crashed resumption
// can safely repeat its last write.
type PostgresWorkflowStore struct {
	db *sqlx.DB
}

// NewPostgresWorkflowStore creates a new PostgresWorkflowStore
func NewPostgresWorkflowStore(db *sqlx.DB) *PostgresWorkflowStore {
	return &PostgresWorkflowStore{db: db}
}

type postgresInstance struct {
	ID            string          `db:"id"`
	OrderID       string          `db:"order_id"`
	Status        string          `db:"status"`
	Input         json.RawMessage `db:"input"`
	Output        json.RawMessage `db:"output"`
	CreatedAt     time.Time       `db:"created_at"`
	LastUpdatedAt time.Time       `db:"last_updated_at"`
}

// CreateInstance inserts a new workflow instance
func (s *PostgresWorkflowStore) CreateInstance(ctx context.Context, instance *workflow.Instance) error {
	query := `
		INSERT INTO workflow_instances (
			id, order_id, status, input, output, created_at, last_updated_at
		) VALUES (
			:id, :order_id, :status, :input, :output, :created_at, :last_updated_at
		)`

	pgInstance, err := s.toPostgres(instance)
	if err != nil {
		return err
	}

	_, err = s.db.NamedExecContext(ctx, query, pgInstance)
	if err != nil {
		return errors.Wrap(err, "failed to insert workflow instance")
	}

	return nil
}

// Instance finds an instance by ID
func (s *PostgresWorkflowStore) Instance(ctx context.Context, id models.ID) (*workflow.Instance, error) {
	query := `
		SELECT id, order_id, status, input, output, created_at, last_updated_at
		FROM workflow_instances
		WHERE id = $1`

	var pgInstance postgresInstance
	err := s.db.GetContext(ctx, &pgInstance, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, workflow.ErrInstanceNotFound
		}
		return nil, errors.Wrap(err, "failed to find workflow instance")
	}

	return s.toDomain(&pgInstance)
}

// RunningInstanceByOrder returns the running instance for the order, or nil
func (s *PostgresWorkflowStore) RunningInstanceByOrder(ctx context.Context, orderID models.ID) (*workflow.Instance, error) {
	query := `
		SELECT id, order_id, status, input, output, created_at, last_updated_at
		FROM workflow_instances
		WHERE order_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var pgInstance postgresInstance
	err := s.db.GetContext(ctx, &pgInstance, query, orderID.String(), string(workflow.StatusRunning))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find running workflow instance")
	}

	return s.toDomain(&pgInstance)
}

// RunningInstances lists the ids of every instance still marked running
func (s *PostgresWorkflowStore) RunningInstances(ctx context.Context) ([]models.ID, error) {
	query := `
		SELECT id
		FROM workflow_instances
		WHERE status = $1
		ORDER BY created_at`

	var rawIDs []string
	err := s.db.SelectContext(ctx, &rawIDs, query, string(workflow.StatusRunning))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan running instances")
	}

	ids := make([]models.ID, len(rawIDs))
	for i, raw := range rawIDs {
		ids[i] = models.ID(raw)
	}
	return ids, nil
}

// UpdateInstance updates status, output and last update time
func (s *PostgresWorkflowStore) UpdateInstance(ctx context.Context, instance *workflow.Instance) error {
	query := `
		UPDATE workflow_instances
		SET status = :status, output = :output, last_updated_at = :last_updated_at
		WHERE id = :id`

	pgInstance, err := s.toPostgres(instance)
	if err != nil {
		return err
	}

	result, err := s.db.NamedExecContext(ctx, query, pgInstance)
	if err != nil {
		return errors.Wrap(err, "failed to update workflow instance")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if rows == 0 {
		return workflow.ErrInstanceNotFound
	}

	return nil
}

// RecordStep upserts one completed step of an instance
func (s *PostgresWorkflowStore) RecordStep(ctx context.Context, record workflow.StepRecord) error {
	query := `
		INSERT INTO workflow_steps (instance_id, step_id, result, completed_at)
		VALUES (:instance_id, :step_id, :result, :completed_at)
		ON CONFLICT (instance_id, step_id) DO UPDATE
		SET result = EXCLUDED.result, completed_at = EXCLUDED.completed_at`

	_, err := s.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return errors.Wrap(err, "failed to record workflow step")
	}

	return nil
}

// Steps loads the full step log of an instance
func (s *PostgresWorkflowStore) Steps(ctx context.Context, instanceID models.ID) (map[string]workflow.StepRecord, error) {
	query := `
		SELECT instance_id, step_id, result, completed_at
		FROM workflow_steps
		WHERE instance_id = $1`

	var records []workflow.StepRecord
	err := s.db.SelectContext(ctx, &records, query, instanceID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load workflow steps")
	}

	steps := make(map[string]workflow.StepRecord, len(records))
	for _, record := range records {
		steps[record.StepID] = record
	}

	return steps, nil
}

// SaveTimer upserts a durable timer
func (s *PostgresWorkflowStore) SaveTimer(ctx context.Context, timer workflow.Timer) error {
	query := `
		INSERT INTO workflow_timers (instance_id, step_id, fire_at)
		VALUES (:instance_id, :step_id, :fire_at)
		ON CONFLICT (instance_id, step_id) DO UPDATE
		SET fire_at = EXCLUDED.fire_at`

	_, err := s.db.NamedExecContext(ctx, query, timer)
	if err != nil {
		return errors.Wrap(err, "failed to save workflow timer")
	}

	return nil
}

// Timer loads the timer of a step, nil when none is scheduled
func (s *PostgresWorkflowStore) Timer(ctx context.Context, instanceID models.ID, stepID string) (*workflow.Timer, error) {
	query := `
		SELECT instance_id, step_id, fire_at
		FROM workflow_timers
		WHERE instance_id = $1 AND step_id = $2`

	var timer workflow.Timer
	err := s.db.GetContext(ctx, &timer, query, instanceID.String(), stepID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to load workflow timer")
	}

	return &timer, nil
}

// DueTimers lists every timer whose deadline has passed
func (s *PostgresWorkflowStore) DueTimers(ctx context.Context, now time.Time) ([]workflow.Timer, error) {
	query := `
		SELECT instance_id, step_id, fire_at
		FROM workflow_timers
		WHERE fire_at <= $1
		ORDER BY fire_at`

	var timers []workflow.Timer
	err := s.db.SelectContext(ctx, &timers, query, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan due timers")
	}

	return timers, nil
}

// DeleteTimer removes a fired or superseded timer
func (s *PostgresWorkflowStore) DeleteTimer(ctx context.Context, instanceID models.ID, stepID string) error {
	query := `DELETE FROM workflow_timers WHERE instance_id = $1 AND step_id = $2`

	_, err := s.db.ExecContext(ctx, query, instanceID.String(), stepID)
	if err != nil {
		return errors.Wrap(err, "failed to delete workflow timer")
	}

	return nil
}

// SaveSignal upserts an external signal. A repeated decision overwrites the
// previous one until the workflow consumes it.
func (s *PostgresWorkflowStore) SaveSignal(ctx context.Context, signal workflow.Signal) error {
	query := `
		INSERT INTO workflow_signals (instance_id, name, payload, received_at)
		VALUES (:instance_id, :name, :payload, :received_at)
		ON CONFLICT (instance_id, name) DO UPDATE
		SET payload = EXCLUDED.payload, received_at = EXCLUDED.received_at`

	_, err := s.db.NamedExecContext(ctx, query, signal)
	if err != nil {
		return errors.Wrap(err, "failed to save workflow signal")
	}

	return nil
}

// Signal loads a delivered signal, nil when none arrived
func (s *PostgresWorkflowStore) Signal(ctx context.Context, instanceID models.ID, name string) (*workflow.Signal, error) {
	query := `
		SELECT instance_id, name, payload, received_at
		FROM workflow_signals
		WHERE instance_id = $1 AND name = $2`

	var signal workflow.Signal
	err := s.db.GetContext(ctx, &signal, query, instanceID.String(), name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to load workflow signal")
	}

	return &signal, nil
}

func (s *PostgresWorkflowStore) toPostgres(instance *workflow.Instance) (*postgresInstance, error) {
	input, err := json.Marshal(instance.Input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode workflow input")
	}

	var output json.RawMessage
	if instance.Output != nil {
		output, err = json.Marshal(instance.Output)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode workflow output")
		}
	}

	return &postgresInstance{
		ID:            instance.ID.String(),
		OrderID:       instance.OrderID.String(),
		Status:        string(instance.Status),
		Input:         input,
		Output:        output,
		CreatedAt:     instance.CreatedAt,
		LastUpdatedAt: instance.LastUpdatedAt,
	}, nil
}

func (s *PostgresWorkflowStore) toDomain(pgInstance *postgresInstance) (*workflow.Instance, error) {
	instance := &workflow.Instance{
		ID:            models.ID(pgInstance.ID),
		OrderID:       models.ID(pgInstance.OrderID),
		Status:        workflow.RuntimeStatus(pgInstance.Status),
		CreatedAt:     pgInstance.CreatedAt,
		LastUpdatedAt: pgInstance.LastUpdatedAt,
	}

	if err := json.Unmarshal(pgInstance.Input, &instance.Input); err != nil {
		return nil, errors.Wrap(err, "failed to decode workflow input")
	}

	if len(pgInstance.Output) > 0 {
		var output workflow.OrderProcessingResult
		if err := json.Unmarshal(pgInstance.Output, &output); err != nil {
			return nil, errors.Wrap(err, "failed to decode workflow output")
		}
		instance.Output = &output
	}

	return instance, nil
}
