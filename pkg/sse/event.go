package sse

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Event is one W3C text/event-stream frame. ID is a decimal string rendering
// of the broadcaster's monotonic per-task counter.
type Event struct {
	ID    string
	Event string
	Data  []byte
}

// Encode renders an Event as `id:`/`event:`/`data:` lines terminated by a
// blank line, splitting multi-line Data across repeated `data:` lines per
// the W3C format.
func Encode(w io.Writer, e Event) error {
	var buf bytes.Buffer

	if e.ID != "" {
		fmt.Fprintf(&buf, "id: %s\n", e.ID)
	}

	if e.Event != "" {
		fmt.Fprintf(&buf, "event: %s\n", e.Event)
	}

	for _, line := range bytes.Split(e.Data, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}

	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}

// EncodeComment writes a `: comment\n\n` frame, used for keepalives. These
// carry no id/event/data and are ignored by conformant SSE clients.
func EncodeComment(w io.Writer, comment string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", comment)
	return err
}

// Decode reads one event-stream frame at a time from r, accumulating
// multi-line `data:` fields, until EOF. Used by test harnesses, mirroring
// the engine's own encode side.
func Decode(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		events  []Event
		current Event
		data    []string
		has     bool
	)

	flush := func() {
		if has {
			current.Data = []byte(strings.Join(data, "\n"))
			events = append(events, current)
		}
		current = Event{}
		data = nil
		has = false
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			flush()
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "id":
			current.ID = value
			has = true
		case "event":
			current.Event = value
			has = true
		case "data":
			data = append(data, value)
			has = true
		}
	}

	flush()

	if err := scanner.Err(); err != nil {
		return events, err
	}

	return events, nil
}

// ParseID parses an Event.ID back into its integer counter value; returns 0
// if ID is empty (the synthesized one-shot terminal-state event uses id 0,
// per the resubscribe-after-close design note).
func ParseID(id string) (int64, error) {
	if id == "" {
		return 0, nil
	}
	return strconv.ParseInt(id, 10, 64)
}
