package sse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMarshalTo(t *testing.T) {
	t.Run("DataOnly", func(t *testing.T) {
		var buf bytes.Buffer

		event := &Event{Data: []byte(`{"a":1}`)}
		require.NoError(t, event.MarshalTo(&buf))
		assert.Equal(t, "data: {\"a\":1}\n\n", buf.String())
	})

	t.Run("EventAndComment", func(t *testing.T) {
		var buf bytes.Buffer

		event := &Event{Event: "error", Comment: []string{"boom"}}
		require.NoError(t, event.MarshalTo(&buf))
		assert.Equal(t, "event: error\n: boom\n\n", buf.String())
	})

	t.Run("Done", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, Done().MarshalTo(&buf))
		assert.Equal(t, "data: [DONE]\n\n", buf.String())
	})
}

func TestErrorEvent(t *testing.T) {
	event := ErrorEvent("boom")
	assert.Equal(t, "error", event.Event)
	assert.Equal(t, []string{"boom"}, event.Comment)

	fallback := ErrorEvent("")
	assert.Equal(t, []string{"unspecified error"}, fallback.Comment)
}

func TestEventIsEmpty(t *testing.T) {
	assert.True(t, (&Event{}).IsEmpty())
	assert.False(t, (&Event{Data: []byte("x")}).IsEmpty())
	assert.False(t, (&Event{Event: "error"}).IsEmpty())
	assert.False(t, (&Event{Comment: []string{"x"}}).IsEmpty())
}
