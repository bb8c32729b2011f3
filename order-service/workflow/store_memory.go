package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/swiftcart/order-system/shared/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store for local development and tests. It
// keeps the same semantics as the Postgres store, including copy-on-read
// instances so callers cannot mutate stored state behind the lock.
type MemoryStore struct {
	mu        sync.RWMutex
	instances map[models.ID]*Instance
	steps     map[models.ID]map[string]StepRecord
	timers    map[models.ID]map[string]Timer
	signals   map[models.ID]map[string]Signal
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		instances: make(map[models.ID]*Instance),
		steps:     make(map[models.ID]map[string]StepRecord),
		timers:    make(map[models.ID]map[string]Timer),
		signals:   make(map[models.ID]map[string]Signal),
	}
}

func (s *MemoryStore) CreateInstance(_ context.Context, instance *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *instance
	s.instances[instance.ID] = &copied
	return nil
}

func (s *MemoryStore) Instance(_ context.Context, id models.ID) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instance, ok := s.instances[id]
	if !ok {
		return nil, ErrInstanceNotFound
	}
	copied := *instance
	return &copied, nil
}

func (s *MemoryStore) RunningInstanceByOrder(_ context.Context, orderID models.ID) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, instance := range s.instances {
		if instance.OrderID == orderID && instance.Status == StatusRunning {
			copied := *instance
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) RunningInstances(_ context.Context) ([]models.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []models.ID
	for id, instance := range s.instances {
		if instance.Status == StatusRunning {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) UpdateInstance(_ context.Context, instance *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[instance.ID]; !ok {
		return ErrInstanceNotFound
	}
	copied := *instance
	s.instances[instance.ID] = &copied
	return nil
}

func (s *MemoryStore) RecordStep(_ context.Context, record StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.steps[record.InstanceID] == nil {
		s.steps[record.InstanceID] = make(map[string]StepRecord)
	}
	s.steps[record.InstanceID][record.StepID] = record
	return nil
}

func (s *MemoryStore) Steps(_ context.Context, instanceID models.ID) (map[string]StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps := make(map[string]StepRecord, len(s.steps[instanceID]))
	for stepID, record := range s.steps[instanceID] {
		steps[stepID] = record
	}
	return steps, nil
}

func (s *MemoryStore) SaveTimer(_ context.Context, timer Timer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timers[timer.InstanceID] == nil {
		s.timers[timer.InstanceID] = make(map[string]Timer)
	}
	s.timers[timer.InstanceID][timer.StepID] = timer
	return nil
}

func (s *MemoryStore) Timer(_ context.Context, instanceID models.ID, stepID string) (*Timer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	timer, ok := s.timers[instanceID][stepID]
	if !ok {
		return nil, nil
	}
	return &timer, nil
}

func (s *MemoryStore) DueTimers(_ context.Context, now time.Time) ([]Timer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []Timer
	for _, timers := range s.timers {
		for _, timer := range timers {
			if !timer.FireAt.After(now) {
				due = append(due, timer)
			}
		}
	}
	return due, nil
}

func (s *MemoryStore) DeleteTimer(_ context.Context, instanceID models.ID, stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.timers[instanceID], stepID)
	return nil
}

func (s *MemoryStore) SaveSignal(_ context.Context, signal Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signals[signal.InstanceID] == nil {
		s.signals[signal.InstanceID] = make(map[string]Signal)
	}
	s.signals[signal.InstanceID][signal.Name] = signal
	return nil
}

func (s *MemoryStore) Signal(_ context.Context, instanceID models.ID, name string) (*Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	signal, ok := s.signals[instanceID][name]
	if !ok {
		return nil, nil
	}
	return &signal, nil
}
