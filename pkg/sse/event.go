// Package sse implements the wire framing and the event-converter step of
// the streaming request lifecycle: turning an engine's annotated output
// items into Server-Sent-Events blocks, or into a terminal transport error.
package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DoneData is the literal payload of the terminal sentinel event that
// signals clean end-of-stream to OpenAI-compatible clients.
const DoneData = "[DONE]"

// Event is a single SSE block: an optional event name, zero or more comment
// lines (rendered as `: ...`), and optional data. A nil Data with no Event
// name and no comments is a no-op frame and should not be written.
type Event struct {
	Event   string
	Comment []string
	Data    []byte
}

// NewData builds an Event whose Data is the JSON encoding of v.
func NewData(v any) (*Event, error) {
	bs, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	return &Event{Data: bs}, nil
}

// Done returns the terminal "[DONE]" sentinel event.
func Done() *Event {
	return &Event{Data: []byte(DoneData)}
}

// ErrorEvent builds the mid-stream error frame described by spec §4.3/§7:
// event name "error", with the message carried as a single comment line.
func ErrorEvent(message string) *Event {
	if message == "" {
		message = "unspecified error"
	}

	return &Event{Event: "error", Comment: []string{message}}
}

// MarshalTo writes the standard SSE block: optional `event:` line, ordered
// `:` comment lines, a `data:` line, terminated by a blank line.
func (e *Event) MarshalTo(w io.Writer) error {
	var buf bytes.Buffer

	if e.Event != "" {
		fmt.Fprintf(&buf, "event: %s\n", e.Event)
	}

	for _, c := range e.Comment {
		fmt.Fprintf(&buf, ": %s\n", c)
	}

	if e.Data != nil {
		fmt.Fprintf(&buf, "data: %s\n", e.Data)
	}

	buf.WriteString("\n")

	_, err := w.Write(buf.Bytes())

	return err
}

// IsEmpty reports whether the event carries nothing worth sending.
func (e *Event) IsEmpty() bool {
	return e.Event == "" && len(e.Comment) == 0 && e.Data == nil
}
