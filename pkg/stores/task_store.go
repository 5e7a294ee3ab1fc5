package stores

import (
	"sync"
	"time"

	"github.com/agentbridge/a2acore/pkg/a2a"
	"github.com/agentbridge/a2acore/pkg/errors"
)

// TaskStore is the persistence interface for task records. Records are owned exclusively by the
// store; callers receive immutable snapshots, never the live record.
type TaskStore interface {
	Create(task *a2a.Task) error
	Get(taskID string) (*a2a.Task, error)
	UpdateStatus(taskID string, state a2a.TaskState, message *a2a.Message) (*a2a.Task, error)
	Fail(taskID string, kind string, cause error) (*a2a.Task, error)
	AppendHistory(taskID string, message a2a.Message) error
	AppendArtifact(taskID string, artifact a2a.Artifact) error
	ListByContext(contextID string) []*a2a.Task
}

/*
InMemoryTaskStore is a concurrency-safe in-memory TaskStore. One
store-wide RWMutex guards the map and every record in it, so updates to
one task are linearized; there is no per-record lock, and updates to
different tasks contend on that same lock.
*/
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
}

func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{tasks: make(map[string]*a2a.Task)}
}

func (s *InMemoryTaskStore) Create(task *a2a.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.ID] = task.Snapshot()
	return nil
}

func (s *InMemoryTaskStore) Get(taskID string) (*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, errors.TaskNotFound(taskID)
	}

	return task.Snapshot(), nil
}

// UpdateStatus rejects transitions out of a terminal state with
// TaskNotCancelable.
func (s *InMemoryTaskStore) UpdateStatus(taskID string, state a2a.TaskState, message *a2a.Message) (*a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, errors.TaskNotFound(taskID)
	}

	if task.Status.State.Terminal() {
		return nil, errors.TaskNotCancelable(taskID, string(task.Status.State))
	}

	task.Status = a2a.TaskStatus{
		State:     state,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	return task.Snapshot(), nil
}

// Fail transitions taskID to Failed and records the error kind/message in
// the same locked critical section, so a concurrent Get can never observe
// the Failed state without its Error populated.
func (s *InMemoryTaskStore) Fail(taskID string, kind string, cause error) (*a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, errors.TaskNotFound(taskID)
	}

	if task.Status.State.Terminal() {
		return nil, errors.TaskNotCancelable(taskID, string(task.Status.State))
	}

	task.Status = a2a.TaskStatus{
		State:     a2a.TaskStateFailed,
		Timestamp: time.Now().UTC(),
	}
	task.Error = &a2a.TaskError{Kind: kind, Message: cause.Error()}

	return task.Snapshot(), nil
}

func (s *InMemoryTaskStore) AppendHistory(taskID string, message a2a.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return errors.TaskNotFound(taskID)
	}

	task.AppendHistory(message)
	return nil
}

func (s *InMemoryTaskStore) AppendArtifact(taskID string, artifact a2a.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return errors.TaskNotFound(taskID)
	}

	task.AppendArtifact(artifact)
	return nil
}

// ListByContext returns every task sharing contextID. The order of the
// returned tasks is not defined.
func (s *InMemoryTaskStore) ListByContext(contextID string) []*a2a.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*a2a.Task, 0)
	for _, task := range s.tasks {
		if task.ContextID == contextID {
			out = append(out, task.Snapshot())
		}
	}

	return out
}
