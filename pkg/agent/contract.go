package agent

import (
	"context"

	"github.com/agentbridge/a2acore/pkg/a2a"
)

/*
Agent is the single user-supplied capability the engine invokes. The
contract says nothing about concurrency: callbacks may be invoked from
multiple tasks concurrently, but within one task invocation the Sink passed
to ProcessStreaming is single-producer.
*/
type Agent interface {
	// Process produces a single reply message. The engine calls it for
	// message/send tasks that have no SSE stream attached.
	Process(ctx context.Context, message *a2a.Message) (*a2a.Message, error)

	// ProcessStreaming drives a task that has an SSE stream attached to
	// completion, writing incremental events into sink. It returns once the task has reached a terminal
	// state (or ctx is canceled).
	ProcessStreaming(ctx context.Context, message *a2a.Message, sink Sink) error

	// Initialize and Shutdown are optional lifecycle hooks; implementations
	// that need no setup/teardown may embed NopLifecycle.
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// EventKind discriminates the Sink's incremental event union.
type EventKind string

const (
	EventPartialMessage EventKind = "partial_message"
	EventArtifactChunk  EventKind = "artifact_chunk"
	EventStatusHint     EventKind = "status_hint"
)

// Event is one incremental unit an Agent writes to a Sink during
// ProcessStreaming. Exactly one of the typed fields is populated, selected
// by Kind.
type Event struct {
	Kind EventKind

	PartialMessage *a2a.Message
	ArtifactChunk  *a2a.Artifact
	StatusHint     *a2a.TaskState
}

func PartialMessageEvent(msg *a2a.Message) Event {
	return Event{Kind: EventPartialMessage, PartialMessage: msg}
}

func ArtifactChunkEvent(artifact *a2a.Artifact) Event {
	return Event{Kind: EventArtifactChunk, ArtifactChunk: artifact}
}

func StatusHintEvent(state a2a.TaskState) Event {
	return Event{Kind: EventStatusHint, StatusHint: &state}
}

/*
Sink accepts incremental events from a streaming Agent; the handler
translates each into an SSE publication and, for StatusHint, a task state
transition. Write returns an error once the task has been canceled — the
Agent MUST observe this and stop (cooperative cancellation during failure
semantics).
*/
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// NopLifecycle satisfies Initialize/Shutdown with no-ops, for Agents with no
// setup/teardown needs.
type NopLifecycle struct{}

func (NopLifecycle) Initialize(ctx context.Context) error { return nil }
func (NopLifecycle) Shutdown(ctx context.Context) error    { return nil }
