package errors

import "testing"

func TestWithMessagefDoesNotMutateSentinel(t *testing.T) {
	original := ErrInternal.Message

	derived := ErrInternal.WithMessagef("wrapped: %s", "boom")

	if ErrInternal.Message != original {
		t.Fatalf("sentinel was mutated: %s", ErrInternal.Message)
	}
	if derived.Message != "wrapped: boom" {
		t.Fatalf("expected formatted message, got %s", derived.Message)
	}
	if derived.Code != ErrInternal.Code {
		t.Fatalf("expected code to be preserved, got %d", derived.Code)
	}
}

func TestWithDataDoesNotMutateSentinel(t *testing.T) {
	derived := ErrInvalidParams.WithData(map[string]any{"field": "role"})

	if ErrInvalidParams.Data != nil {
		t.Fatal("sentinel Data was mutated")
	}
	if derived.Data == nil {
		t.Fatal("expected derived error to carry data")
	}
}

func TestTaskNotFoundCarriesTaskID(t *testing.T) {
	err := TaskNotFound("task-1")

	if err.Code != -32001 {
		t.Fatalf("expected code -32001, got %d", err.Code)
	}

	data, ok := err.Data.(map[string]any)
	if !ok || data["taskId"] != "task-1" {
		t.Fatalf("expected data to carry taskId, got %v", err.Data)
	}
}

func TestTaskNotCancelableCarriesState(t *testing.T) {
	err := TaskNotCancelable("task-1", "completed")

	data, ok := err.Data.(map[string]any)
	if !ok || data["state"] != "completed" {
		t.Fatalf("expected data to carry state, got %v", err.Data)
	}
}

func TestRpcErrorImplementsError(t *testing.T) {
	var err error = ErrMethodNotFound
	if err.Error() == "" {
		t.Fatal("expected non-empty error string")
	}
}
