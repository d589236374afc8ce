// Package taskstore keeps the in-process registry of tasks handled by one
// agent. Tasks live for the lifetime of the process; there is no eviction
// and no persistence across restarts.
package taskstore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/triadflow/triad/internal/protocol"
)

// Task is one unit of work tied to a conversational context id.
type Task struct {
	ID        string
	ContextID string
	State     protocol.TaskState
}

// Store is an in-memory task registry, safe for concurrent inbound
// requests. Get-or-create under one lock so two requests carrying the same
// context id cannot both insert it.
type Store struct {
	mu        sync.RWMutex
	tasks     map[string]*Task
	byContext map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tasks:     make(map[string]*Task),
		byContext: make(map[string]string),
	}
}

// Get returns a snapshot of the task with the given id.
func (s *Store) Get(taskID string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// GetOrCreateByContext returns the task owning contextID, creating and
// registering one if none exists yet.
func (s *Store) GetOrCreateByContext(contextID string) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byContext[contextID]; ok {
		return *s.tasks[id]
	}

	task := &Task{
		ID:        uuid.New().String(),
		ContextID: contextID,
		State:     protocol.TaskStateSubmitted,
	}
	s.tasks[task.ID] = task
	s.byContext[contextID] = task.ID
	return *task
}

// SetState updates a task's lifecycle state.
func (s *Store) SetState(taskID string, state protocol.TaskState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[taskID]; ok {
		task.State = state
	}
}

// Len returns the number of registered tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
