package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agentbridge/a2acore/pkg/a2a"
	"github.com/agentbridge/a2acore/pkg/sse"
)

func postStreamRequest(t *testing.T, method string, params any) *http.Request {
	t.Helper()
	body := rpcRaw(t, map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	return httptest.NewRequest(http.MethodPost, "/stream", bytes.NewReader(body))
}

func TestStreamHandlerOnlyAllowsPOST(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeAgent{})

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	rec := httptest.NewRecorder()
	h.StreamHandler()(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestStreamHandlerUnknownMethodReturns404(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeAgent{})

	req := postStreamRequest(t, "not/a/method", map[string]any{})
	rec := httptest.NewRecorder()
	h.StreamHandler()(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestServeMessageStreamPublishesTaskAndRunsToCompletion(t *testing.T) {
	// streamBlock holds the agent callback open until the test confirms the
	// SSE subscriber has registered, so the task can't race ahead and close
	// the broadcaster before Subscribe replays the initial task frame.
	streamBlock := make(chan struct{})
	h, taskStore, _ := newTestHandler(t, &fakeAgent{streamBlock: streamBlock})

	msg := a2a.NewTextMessage(a2a.RoleUser, "hello")
	req := postStreamRequest(t, "message/stream", map[string]any{"message": msg})
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.StreamHandler()(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	close(streamBlock)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the stream to close after task completion")
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: task") {
		t.Fatalf("expected an initial task frame, got %q", body)
	}

	events, err := sse.Decode(bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("failed to decode sse stream: %v", err)
	}

	var taskID string
	for _, evt := range events {
		if evt.Event == "task" {
			var task a2a.Task
			if err := json.Unmarshal(evt.Data, &task); err != nil {
				t.Fatalf("failed to decode task frame: %v", err)
			}
			taskID = task.ID
		}
	}
	if taskID == "" {
		t.Fatal("expected to find a task frame carrying the created task's id")
	}

	waitUntil(t, time.Second, func() bool {
		got, err := taskStore.Get(taskID)
		return err == nil && got.Status.State == a2a.TaskStateCompleted
	})
}

func TestServeMessageStreamRejectsInvalidMessage(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeAgent{})

	req := postStreamRequest(t, "message/stream", map[string]any{"message": a2a.Message{}})
	rec := httptest.NewRecorder()
	h.StreamHandler()(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an invalid message, got %d", rec.Code)
	}
}

func TestServeResubscribeUnknownTaskReturns404(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeAgent{})

	req := postStreamRequest(t, "task/resubscribe", map[string]any{"taskId": "missing"})
	rec := httptest.NewRecorder()
	h.StreamHandler()(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestServeResubscribeAfterBroadcasterClosedSynthesizesFinalState(t *testing.T) {
	h, taskStore, _ := newTestHandler(t, &fakeAgent{})

	task := a2a.NewTask("")
	if err := taskStore.Create(task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := taskStore.UpdateStatus(task.ID, a2a.TaskStateCompleted, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := postStreamRequest(t, "task/resubscribe", map[string]any{"taskId": task.ID})
	rec := httptest.NewRecorder()
	h.StreamHandler()(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "event: status") {
		t.Fatalf("expected a synthesized status frame, got %q", body)
	}
	if !strings.Contains(body, `"final":true`) {
		t.Fatalf("expected the synthesized frame to be marked final, got %q", body)
	}
}

func TestServeResubscribeActiveBroadcasterStreamsBufferedEvents(t *testing.T) {
	h, taskStore, _ := newTestHandler(t, &fakeAgent{})

	task := a2a.NewTask("")
	if err := taskStore.Create(task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	broadcaster := h.streams.GetOrCreate(task.ID)
	broadcaster.Publish("message", []byte(`{"text":"hi"}`))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	req := postStreamRequest(t, "task/resubscribe", map[string]any{"taskId": task.ID}).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.StreamHandler()(rec, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resubscribe stream to stop after context cancellation")
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: message") {
		t.Fatalf("expected the buffered message event to be replayed, got %q", body)
	}
}
