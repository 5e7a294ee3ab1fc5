package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
)

/*
Stream adapts any JSON-serializable object to an io.Reader/io.Writer pair,
encoding lazily on first Read. Used to serve the one-shot synthesized stream
for task/resubscribe against a closed broadcaster: the final
TaskStatusUpdateEvent is wrapped in a Stream and read out as a single SSE
data frame.
*/
type Stream[T any] struct {
	obj     *T
	buffer  *bytes.Buffer
	mu      sync.Mutex
	closed  bool
	encoded bool
}

func NewStream[T any](obj *T) *Stream[T] {
	return &Stream[T]{obj: obj, buffer: bytes.NewBuffer(nil)}
}

func (stream *Stream[T]) Read(p []byte) (n int, err error) {
	stream.mu.Lock()
	defer stream.mu.Unlock()

	if stream.closed {
		return 0, io.EOF
	}

	if !stream.encoded {
		encoder := json.NewEncoder(stream.buffer)

		if err := encoder.Encode(stream.obj); err != nil {
			return 0, err
		}
		stream.encoded = true
	}

	if n, err = stream.buffer.Read(p); err == io.EOF {
		stream.closed = true
	}

	return n, err
}

func (stream *Stream[T]) Write(p []byte) (n int, err error) {
	stream.mu.Lock()
	defer stream.mu.Unlock()

	if stream.closed {
		return 0, io.ErrClosedPipe
	}

	decoder := json.NewDecoder(bytes.NewReader(p))

	if err = decoder.Decode(stream.obj); err != nil {
		return 0, err
	}

	return len(p), nil
}

func (stream *Stream[T]) Close() error {
	stream.mu.Lock()
	defer stream.mu.Unlock()

	stream.closed = true
	return nil
}
