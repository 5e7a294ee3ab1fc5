package sse

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DisconnectGrace is how long the registry waits after a broadcaster's last
// subscriber leaves before closing it, in case the client reconnects.
const DisconnectGrace = 30 * time.Second

/*
Registry owns the set of per-task Broadcasters, created lazily on first use
and closed on terminal task state or disconnect-grace expiry. It is owned
exclusively by the engine handler — stores and the
webhook pipeline never reference it.
*/
type Registry struct {
	mu          sync.Mutex
	byTask      map[string]*Broadcaster
	timers      map[string]*time.Timer
	gracePeriod time.Duration
}

func NewRegistry() *Registry {
	return &Registry{
		byTask:      make(map[string]*Broadcaster),
		timers:      make(map[string]*time.Timer),
		gracePeriod: DisconnectGrace,
	}
}

// GetOrCreate returns the existing broadcaster for taskID, creating one if
// this is the first time the task needs streaming.
func (r *Registry) GetOrCreate(taskID string) *Broadcaster {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.byTask[taskID]; ok {
		return b
	}

	b := NewBroadcaster()
	r.byTask[taskID] = b
	return b
}

// Get returns the broadcaster for taskID if one exists, without creating it.
func (r *Registry) Get(taskID string) (*Broadcaster, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byTask[taskID]
	return b, ok
}

// Close closes and removes the broadcaster for taskID immediately, used
// when a task reaches a terminal state.
func (r *Registry) Close(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.timers[taskID]; ok {
		timer.Stop()
		delete(r.timers, taskID)
	}

	if b, ok := r.byTask[taskID]; ok {
		b.Close()
		delete(r.byTask, taskID)
		log.Debug("sse broadcaster closed", "taskId", taskID)
	}
}

// ScheduleEvictionIfIdle arms a grace-period timer that closes the task's
// broadcaster if it still has zero subscribers when the timer fires. Called
// whenever a subscriber disconnects from a non-terminal task.
func (r *Registry) ScheduleEvictionIfIdle(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byTask[taskID]
	if !ok || b.SubscriberCount() > 0 {
		return
	}

	if _, exists := r.timers[taskID]; exists {
		return
	}

	r.timers[taskID] = time.AfterFunc(r.gracePeriod, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		delete(r.timers, taskID)

		if b, ok := r.byTask[taskID]; ok && b.SubscriberCount() == 0 {
			b.Close()
			delete(r.byTask, taskID)
			log.Debug("sse broadcaster evicted after disconnect grace", "taskId", taskID)
		}
	})
}
