package transport

import (
	"encoding/json"
	"io"
	"testing"
)

type streamPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStreamReadEncodesWrappedObject(t *testing.T) {
	obj := &streamPayload{Name: "hello", Count: 3}
	s := NewStream(obj)

	data, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got streamPayload
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to decode stream output: %v", err)
	}
	if got != *obj {
		t.Fatalf("expected %+v, got %+v", *obj, got)
	}
}

func TestStreamReadReturnsEOFAfterFullRead(t *testing.T) {
	s := NewStream(&streamPayload{Name: "x"})

	if _, err := io.ReadAll(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buf := make([]byte, 16)
	if _, err := s.Read(buf); err != io.EOF {
		t.Fatalf("expected io.EOF on a second read, got %v", err)
	}
}

func TestStreamWriteDecodesIntoWrappedObject(t *testing.T) {
	obj := &streamPayload{}
	s := NewStream(obj)

	payload, err := json.Marshal(streamPayload{Name: "written", Count: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := s.Write(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("expected Write to report %d bytes, got %d", len(payload), n)
	}
	if obj.Name != "written" || obj.Count != 7 {
		t.Fatalf("expected obj to be decoded into, got %+v", obj)
	}
}

func TestStreamWriteAfterCloseReturnsErrClosedPipe(t *testing.T) {
	s := NewStream(&streamPayload{})
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error closing stream: %v", err)
	}

	if _, err := s.Write([]byte(`{}`)); err != io.ErrClosedPipe {
		t.Fatalf("expected io.ErrClosedPipe, got %v", err)
	}
}

func TestStreamReadAfterCloseReturnsEOF(t *testing.T) {
	s := NewStream(&streamPayload{Name: "x"})
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error closing stream: %v", err)
	}

	buf := make([]byte, 16)
	if _, err := s.Read(buf); err != io.EOF {
		t.Fatalf("expected io.EOF after Close, got %v", err)
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	s := NewStream(&streamPayload{})

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("expected second Close to also succeed, got %v", err)
	}
}
