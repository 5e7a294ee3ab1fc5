package stores

import (
	"sync"

	"github.com/agentbridge/a2acore/pkg/a2a"
	"github.com/agentbridge/a2acore/pkg/security"
)

// WebhookConfigStore is the persistence interface for per-task push notification configuration.
type WebhookConfigStore interface {
	Set(taskID string, config a2a.PushNotificationConfig) (*a2a.PushNotificationConfig, error)
	Get(taskID string) (*a2a.PushNotificationConfig, bool)
	List() []a2a.TaskPushNotificationConfig
	Delete(taskID string) bool
}

// InMemoryWebhookConfigStore is a concurrency-safe in-memory
// WebhookConfigStore. Set revalidates the URL against the SSRF blocklist
// before storing, matching the PushNotificationConfig invariant that webhook URLs must not target internal networks.
type InMemoryWebhookConfigStore struct {
	mu      sync.RWMutex
	configs map[string]a2a.PushNotificationConfig
}

func NewInMemoryWebhookConfigStore() *InMemoryWebhookConfigStore {
	return &InMemoryWebhookConfigStore{configs: make(map[string]a2a.PushNotificationConfig)}
}

func (s *InMemoryWebhookConfigStore) Set(taskID string, config a2a.PushNotificationConfig) (*a2a.PushNotificationConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := security.ValidateWebhookURL(config.URL); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[taskID] = config

	stored := config
	return &stored, nil
}

func (s *InMemoryWebhookConfigStore) Get(taskID string) (*a2a.PushNotificationConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[taskID]
	if !ok {
		return nil, false
	}

	return &cfg, true
}

// List returns a snapshot of all (task_id, config) pairs; order unspecified.
func (s *InMemoryWebhookConfigStore) List() []a2a.TaskPushNotificationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]a2a.TaskPushNotificationConfig, 0, len(s.configs))
	for taskID, cfg := range s.configs {
		out = append(out, a2a.TaskPushNotificationConfig{TaskID: taskID, Config: cfg})
	}

	return out
}

// Delete is idempotent: it always returns true, whether or not a config was
// present. It only prevents future enqueues — an attempt already
// dequeued by the pipeline was captured by value and completes or fails on
// its own.
func (s *InMemoryWebhookConfigStore) Delete(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.configs, taskID)
	return true
}
