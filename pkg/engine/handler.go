package engine

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/agentbridge/a2acore/pkg/a2a"
	"github.com/agentbridge/a2acore/pkg/agent"
	"github.com/agentbridge/a2acore/pkg/config"
	"github.com/agentbridge/a2acore/pkg/errors"
	"github.com/agentbridge/a2acore/pkg/jsonrpc"
	"github.com/agentbridge/a2acore/pkg/metrics"
	"github.com/agentbridge/a2acore/pkg/security"
	"github.com/agentbridge/a2acore/pkg/sse"
	"github.com/agentbridge/a2acore/pkg/stores"
	"github.com/agentbridge/a2acore/pkg/webhook"
)

/*
Handler is the task-aware orchestrator: it owns the broadcaster
registry and the webhook queue exclusively (the
stores and pipeline never reference it back), and translates RPC calls
into task lifecycle operations, invoking the agent callback and applying
the webhook fan-out rule on every transition.
*/
type Handler struct {
	tasks         stores.TaskStore
	webhooks      stores.WebhookConfigStore
	streams       *sse.Registry
	pipeline      *webhook.Pipeline
	agent         agent.Agent
	cfg           config.Config
	streamMetrics *metrics.StreamingMetrics

	staticCard *a2a.AgentCard

	cancelMu  sync.Mutex
	cancelFns map[string]context.CancelFunc
}

func NewHandler(tasks stores.TaskStore, webhooks stores.WebhookConfigStore, streams *sse.Registry, pipeline *webhook.Pipeline, ag agent.Agent, cfg config.Config, staticCard *a2a.AgentCard) *Handler {
	return &Handler{
		tasks:         tasks,
		webhooks:      webhooks,
		streams:       streams,
		pipeline:      pipeline,
		agent:         ag,
		cfg:           cfg,
		staticCard:    staticCard,
		cancelFns:     make(map[string]context.CancelFunc),
		streamMetrics: metrics.NewStreamingMetrics(),
	}
}

// StreamMetrics exposes the handler's SSE connection/event counters so a
// host can surface them (e.g. on a /health endpoint) without the engine
// depending on any particular metrics transport.
func (h *Handler) StreamMetrics() *metrics.StreamingMetrics {
	return h.streamMetrics
}

// RegisterRPC wires every non-streaming method onto s. The
// streaming methods (message/stream, task/resubscribe) are deliberately not
// registered here — see StreamHandler.
func (h *Handler) RegisterRPC(s *jsonrpc.Server) {
	s.Register("message/send", h.handleMessageSend)
	s.Register("task/get", h.handleTaskGet)
	s.Register("task/status", h.handleTaskStatus)
	s.Register("task/cancel", h.handleTaskCancel)
	s.Register("agent/card", h.handleAgentCard)
	s.Register("tasks/pushNotificationConfig/set", h.handlePushSet)
	s.Register("tasks/pushNotificationConfig/get", h.handlePushGet)
	s.Register("tasks/pushNotificationConfig/list", h.handlePushList)
	s.Register("tasks/pushNotificationConfig/delete", h.handlePushDelete)
}

type sendParams struct {
	Message   a2a.Message `json:"message"`
	Immediate bool        `json:"immediate,omitempty"`
	ContextID string      `json:"contextId,omitempty"`
}

// handleMessageSend implements message/send: an immediate reply when
// requested and the agent can answer synchronously, otherwise a durable
// Task that is driven to completion in the background.
func (h *Handler) handleMessageSend(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
	var p sendParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.ErrInvalidParams
	}

	if v := p.Message.Validate(); !v.Valid() {
		return nil, errors.InvalidParams(v.Error().Error())
	}

	if p.Immediate {
		reply, err := h.agent.Process(ctx, &p.Message)
		if err != nil {
			return nil, errors.ErrInvalidAgentResponse.WithMessagef("%v", err)
		}
		return reply, nil
	}

	task := a2a.NewTask(p.ContextID)
	if p.Message.TaskID != "" {
		task.ID = p.Message.TaskID
	}

	if err := h.tasks.Create(task); err != nil {
		return nil, errors.ErrInternal.WithMessagef("%v", err)
	}

	if err := h.tasks.AppendHistory(task.ID, p.Message); err != nil {
		log.Error("append history failed", "taskId", task.ID, "error", err)
	}

	go h.runToCompletion(task.ID, p.Message)

	return task, nil
}

// runToCompletion drives one task from Submitted to a terminal state,
// invoking the agent callback and applying the webhook fan-out rule
// on every transition. Runs detached from the originating request context.
func (h *Handler) runToCompletion(taskID string, message a2a.Message) {
	ctx, cancel := context.WithCancel(context.Background())
	h.setCancelFn(taskID, cancel)
	defer h.clearCancelFn(taskID)
	defer cancel()

	working, err := h.tasks.UpdateStatus(taskID, a2a.TaskStateWorking, nil)
	if err != nil {
		log.Error("task transition to working failed", "taskId", taskID, "error", err)
		return
	}
	h.publishStatus(working, false)
	h.fanout(working, transitionEvents(a2a.TaskStateWorking))

	_, hasStream := h.streams.Get(taskID)

	var (
		reply   *a2a.Message
		procErr error
	)

	if hasStream {
		sink := &taskSink{ctx: ctx, taskID: taskID, tasks: h.tasks, streams: h.streams, fanout: h.fanout}
		procErr = h.agent.ProcessStreaming(ctx, &message, sink)
	} else {
		reply, procErr = h.agent.Process(ctx, &message)
	}

	if ctx.Err() != nil {
		// task/cancel already transitioned the task; discard further output.
		return
	}

	if procErr != nil {
		failed, err := h.tasks.Fail(taskID, "agent_error", procErr)
		if err != nil {
			log.Error("task fail transition rejected", "taskId", taskID, "error", err)
			return
		}
		h.publishStatus(failed, true)
		h.fanout(failed, transitionEvents(a2a.TaskStateFailed))
		h.closeStream(taskID)
		return
	}

	if reply != nil {
		if err := h.tasks.AppendHistory(taskID, *reply); err != nil {
			log.Error("append reply history failed", "taskId", taskID, "error", err)
		}
		artifact := a2a.NewArtifact("reply", reply.Parts...)
		if err := h.tasks.AppendArtifact(taskID, artifact); err != nil {
			log.Error("append reply artifact failed", "taskId", taskID, "error", err)
		} else if task, err := h.tasks.Get(taskID); err == nil {
			h.fanout(task, []a2a.TaskEvent{a2a.TaskEventArtifactAdded})
		}
	}

	completed, err := h.tasks.UpdateStatus(taskID, a2a.TaskStateCompleted, nil)
	if err != nil {
		log.Error("task transition to completed failed", "taskId", taskID, "error", err)
		return
	}
	h.publishStatus(completed, true)
	h.fanout(completed, transitionEvents(a2a.TaskStateCompleted))
	h.closeStream(taskID)
}

func (h *Handler) publishStatus(task *a2a.Task, final bool) {
	broadcaster, ok := h.streams.Get(task.ID)
	if !ok {
		return
	}

	evt := a2a.TaskStatusUpdateEvent{TaskID: task.ID, Status: task.Status, Final: final}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Error("marshal status event failed", "taskId", task.ID, "error", err)
		return
	}

	broadcaster.Publish("status", data)
}

func (h *Handler) closeStream(taskID string) {
	if _, ok := h.streams.Get(taskID); ok {
		h.streams.Close(taskID)
	}
}

// fanout enqueues a webhook attempt for every triggered event the task's
// config subscribes to.
func (h *Handler) fanout(task *a2a.Task, triggered []a2a.TaskEvent) {
	cfg, ok := h.webhooks.Get(task.ID)
	if !ok {
		return
	}

	configured := make(map[a2a.TaskEvent]bool, len(cfg.Events))
	for _, e := range cfg.Events {
		configured[e] = true
	}

	for _, e := range triggered {
		if configured[e] {
			h.pipeline.Enqueue(task.ID, e, task, *cfg)
		}
	}
}

// transitionEvents maps a status transition to the webhook events it triggers.
func transitionEvents(newState a2a.TaskState) []a2a.TaskEvent {
	switch newState {
	case a2a.TaskStateCompleted:
		return []a2a.TaskEvent{a2a.TaskEventStatusChanged, a2a.TaskEventCompleted}
	case a2a.TaskStateFailed:
		return []a2a.TaskEvent{a2a.TaskEventStatusChanged, a2a.TaskEventFailed}
	case a2a.TaskStateCanceled:
		return []a2a.TaskEvent{a2a.TaskEventStatusChanged, a2a.TaskEventCancelled}
	default:
		return []a2a.TaskEvent{a2a.TaskEventStatusChanged}
	}
}

type taskIDParams struct {
	TaskID string `json:"taskId"`
}

func (h *Handler) handleTaskGet(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
	var p taskIDParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.ErrInvalidParams
	}

	task, err := h.tasks.Get(p.TaskID)
	if err != nil {
		if rpcErr, ok := err.(*errors.RpcError); ok {
			return nil, rpcErr
		}
		return nil, errors.ErrInternal.WithMessagef("%v", err)
	}

	return task, nil
}

func (h *Handler) handleTaskStatus(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
	var p taskIDParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.ErrInvalidParams
	}

	task, err := h.tasks.Get(p.TaskID)
	if err != nil {
		if rpcErr, ok := err.(*errors.RpcError); ok {
			return nil, rpcErr
		}
		return nil, errors.ErrInternal.WithMessagef("%v", err)
	}

	return task.Status, nil
}

// handleTaskCancel implements task/cancel: non-terminal tasks are
// transitioned to Canceled and their running callback is signaled
// cooperatively; terminal tasks return TaskNotCancelable.
func (h *Handler) handleTaskCancel(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
	var p taskIDParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.ErrInvalidParams
	}

	task, err := h.tasks.Get(p.TaskID)
	if err != nil {
		if rpcErr, ok := err.(*errors.RpcError); ok {
			return nil, rpcErr
		}
		return nil, errors.ErrInternal.WithMessagef("%v", err)
	}

	if task.Status.State.Terminal() {
		return nil, errors.TaskNotCancelable(p.TaskID, string(task.Status.State))
	}

	h.signalCancel(p.TaskID)

	canceled, err := h.tasks.UpdateStatus(p.TaskID, a2a.TaskStateCanceled, nil)
	if err != nil {
		if rpcErr, ok := err.(*errors.RpcError); ok {
			return nil, rpcErr
		}
		return nil, errors.ErrInternal.WithMessagef("%v", err)
	}

	h.publishStatus(canceled, true)
	h.fanout(canceled, transitionEvents(a2a.TaskStateCanceled))
	h.closeStream(p.TaskID)

	return canceled.Status, nil
}

func (h *Handler) setCancelFn(taskID string, cancel context.CancelFunc) {
	h.cancelMu.Lock()
	defer h.cancelMu.Unlock()
	h.cancelFns[taskID] = cancel
}

func (h *Handler) clearCancelFn(taskID string) {
	h.cancelMu.Lock()
	defer h.cancelMu.Unlock()
	delete(h.cancelFns, taskID)
}

func (h *Handler) signalCancel(taskID string) {
	h.cancelMu.Lock()
	cancel, ok := h.cancelFns[taskID]
	h.cancelMu.Unlock()

	if ok {
		cancel()
	}
}

func (h *Handler) handleAgentCard(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
	card := h.AssembleCard()
	return card, nil
}

func (h *Handler) handlePushSet(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
	var p struct {
		TaskID string                     `json:"taskId"`
		Config a2a.PushNotificationConfig `json:"config"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.ErrInvalidParams
	}

	stored, err := h.webhooks.Set(p.TaskID, p.Config)
	if err != nil {
		if vErr, ok := err.(*security.ValidationError); ok {
			return nil, errors.InvalidParams(vErr)
		}
		return nil, errors.InvalidParams(err.Error())
	}

	return stored, nil
}

func (h *Handler) handlePushGet(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
	var p taskIDParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.ErrInvalidParams
	}

	cfg, ok := h.webhooks.Get(p.TaskID)
	if !ok {
		return nil, nil
	}

	return cfg, nil
}

func (h *Handler) handlePushList(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
	return h.webhooks.List(), nil
}

func (h *Handler) handlePushDelete(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
	var p taskIDParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.ErrInvalidParams
	}

	return h.webhooks.Delete(p.TaskID), nil
}

// taskSink bridges the agent callback's incremental Event writes to SSE
// publications and task-state transitions. Write returns an
// error once the task's context has been canceled, so a cooperative agent
// stops producing further output.
type taskSink struct {
	ctx     context.Context
	taskID  string
	tasks   stores.TaskStore
	streams *sse.Registry
	fanout  func(*a2a.Task, []a2a.TaskEvent)
}

func (s *taskSink) Write(ctx context.Context, event agent.Event) error {
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}

	broadcaster, ok := s.streams.Get(s.taskID)

	switch event.Kind {
	case agent.EventPartialMessage:
		if event.PartialMessage == nil {
			return nil
		}
		if err := s.tasks.AppendHistory(s.taskID, *event.PartialMessage); err != nil {
			return err
		}
		if ok {
			data, err := json.Marshal(event.PartialMessage)
			if err == nil {
				broadcaster.Publish("message", data)
			}
		}

	case agent.EventArtifactChunk:
		if event.ArtifactChunk == nil {
			return nil
		}
		if err := s.tasks.AppendArtifact(s.taskID, *event.ArtifactChunk); err != nil {
			return err
		}
		task, err := s.tasks.Get(s.taskID)
		if err == nil {
			s.fanout(task, []a2a.TaskEvent{a2a.TaskEventArtifactAdded})
		}
		if ok {
			evt := a2a.TaskArtifactUpdateEvent{TaskID: s.taskID, Artifact: *event.ArtifactChunk}
			data, err := json.Marshal(evt)
			if err == nil {
				broadcaster.Publish("artifact", data)
			}
		}

	case agent.EventStatusHint:
		if event.StatusHint == nil {
			return nil
		}
		task, err := s.tasks.UpdateStatus(s.taskID, *event.StatusHint, nil)
		if err != nil {
			return err
		}
		if ok {
			evt := a2a.TaskStatusUpdateEvent{TaskID: s.taskID, Status: task.Status, Final: false}
			data, merr := json.Marshal(evt)
			if merr == nil {
				broadcaster.Publish("status", data)
			}
		}
		s.fanout(task, transitionEvents(*event.StatusHint))
	}

	return nil
}
