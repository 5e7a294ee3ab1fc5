package engine

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agentbridge/a2acore/pkg/a2a"
	"github.com/agentbridge/a2acore/pkg/jsonrpc"
	"github.com/agentbridge/a2acore/pkg/sse"
	"github.com/agentbridge/a2acore/pkg/transport"
)

/*
StreamHandler serves the canonical /stream endpoint: it accepts the
same JSON-RPC envelope shape as /rpc but for the two methods that reply
with an SSE stream instead of a single JSON-RPC result — message/stream
and task/resubscribe.
*/
func (h *Handler) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "only POST supported", http.StatusMethodNotAllowed)
			return
		}

		var req jsonrpc.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		switch req.Method {
		case "message/stream":
			h.serveMessageStream(w, r, req)
		case "task/resubscribe":
			h.serveResubscribe(w, r, req)
		default:
			http.Error(w, "unknown streaming method", http.StatusNotFound)
		}
	}
}

func (h *Handler) serveMessageStream(w http.ResponseWriter, r *http.Request, req jsonrpc.Request) {
	var p sendParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		http.Error(w, "invalid params", http.StatusBadRequest)
		return
	}

	if v := p.Message.Validate(); !v.Valid() {
		http.Error(w, v.Error().Error(), http.StatusBadRequest)
		return
	}

	task := a2a.NewTask(p.ContextID)
	if p.Message.TaskID != "" {
		task.ID = p.Message.TaskID
	}

	if err := h.tasks.Create(task); err != nil {
		http.Error(w, "failed to create task", http.StatusInternalServerError)
		return
	}

	if err := h.tasks.AppendHistory(task.ID, p.Message); err != nil {
		log.Error("append history failed", "taskId", task.ID, "error", err)
	}

	broadcaster := h.streams.GetOrCreate(task.ID)

	taskData, err := json.Marshal(task)
	if err == nil {
		broadcaster.Publish("task", taskData)
	}

	go h.runToCompletion(task.ID, p.Message)

	h.pumpSSE(w, r, task.ID, broadcaster, 0)
}

func (h *Handler) serveResubscribe(w http.ResponseWriter, r *http.Request, req jsonrpc.Request) {
	var p struct {
		TaskID      string `json:"taskId"`
		LastEventID *int64 `json:"lastEventId,omitempty"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		http.Error(w, "invalid params", http.StatusBadRequest)
		return
	}

	task, err := h.tasks.Get(p.TaskID)
	if err != nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	lastEventID := int64(0)
	if p.LastEventID != nil {
		lastEventID = *p.LastEventID
	} else if hdr := r.Header.Get("Last-Event-ID"); hdr != "" {
		if n, err := strconv.ParseInt(hdr, 10, 64); err == nil {
			lastEventID = n
		}
	}

	broadcaster, ok := h.streams.Get(p.TaskID)
	if !ok {
		// broadcaster closed but the task record survives — synthesize a
		// one-shot stream carrying the final state, id=0 per the design note.
		h.serveSynthesizedFinalState(w, task)
		return
	}

	h.pumpSSE(w, r, p.TaskID, broadcaster, lastEventID)
}

func (h *Handler) serveSynthesizedFinalState(w http.ResponseWriter, task *a2a.Task) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	evt := a2a.TaskStatusUpdateEvent{TaskID: task.ID, Status: task.Status, Final: true}

	stream := transport.NewStream(&evt)
	data, err := io.ReadAll(stream)
	if err != nil {
		return
	}
	data = bytes.TrimRight(data, "\n")

	_ = sse.Encode(w, sse.Event{ID: "0", Event: "status", Data: data})

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// pumpSSE writes the SSE response headers, subscribes to broadcaster at
// lastEventID, and copies events to w until the client disconnects or the
// broadcaster closes. A keepalive comment is emitted on the configured
// interval so idle connections survive intermediary timeouts.
func (h *Handler) pumpSSE(w http.ResponseWriter, r *http.Request, taskID string, broadcaster *sse.Broadcaster, lastEventID int64) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := broadcaster.Subscribe(lastEventID)
	defer func() {
		cancel()
		h.streams.ScheduleEvictionIfIdle(taskID)
	}()

	if lastEventID > 0 {
		h.streamMetrics.RecordReconnection()
	}

	keepalive := h.cfg.SSEKeepaliveInterval
	if keepalive <= 0 {
		keepalive = 15 * time.Second
	}

	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	ctx := r.Context()
	start := time.Now()
	connected := true

	defer func() {
		h.streamMetrics.RecordConnection(connected, time.Since(start))
	}()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			sendStart := time.Now()
			if err := sse.Encode(w, evt); err != nil {
				connected = false
				h.streamMetrics.RecordEvent(true, time.Since(sendStart), 0)
				return
			}
			flusher.Flush()
			h.streamMetrics.RecordEvent(false, time.Since(sendStart), time.Since(sendStart))

		case <-ticker.C:
			if err := sse.EncodeComment(w, "keepalive"); err != nil {
				connected = false
				return
			}
			flusher.Flush()

		case <-ctx.Done():
			return
		}
	}
}
