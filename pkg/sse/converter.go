package sse

import (
	"errors"
	"strings"

	"knoway.dev/pkg/metrics"
)

// ErrTransport wraps a terminal error signal produced by the converter: a
// mid-stream "error" tagged item. The disconnect monitor turns this into an
// in-band SSE error event per spec §4.4/§7 rather than crashing.
type ErrTransport struct {
	Message string
}

func (e *ErrTransport) Error() string {
	return e.Message
}

// Convert implements the pure AnnotatedItem[T] -> (Event, error) transform
// of spec §4.3, in the order specified there. collector may be nil only in
// tests that don't care about metrics; production callers always supply
// one.
func Convert[T any](item AnnotatedItem[T], collector *metrics.ResponseMetricCollector, metricOf func(T) (*MetricAnnotation, bool)) (*Event, error) {
	event := item.Event
	comment := item.Comment

	if item.Data != nil && metricOf != nil {
		if m, ok := metricOf(*item.Data); ok {
			if collector != nil {
				collector.ObserveCurrentOSL(m.OutputTokens)
				collector.ObserveResponse(m.InputTokens, m.ChunkTokens)
			}

			if event == MetricsAnnotationTag {
				event = ""
				comment = nil
			}
		}
	}

	out := &Event{}

	if item.Data != nil {
		data, err := NewData(*item.Data)
		if err != nil {
			return nil, err
		}

		out.Data = data.Data
	}

	if event == ErrorTag {
		msg := "unspecified error"
		if len(comment) > 0 {
			msg = strings.Join(comment, " -- ")
		}

		return nil, &ErrTransport{Message: msg}
	}

	if event != "" {
		out.Event = event
	}

	out.Comment = append(out.Comment, comment...)

	return out, nil
}

// AsTransportError reports whether err is a mid-stream error signal from
// Convert, as opposed to a different kind of failure.
func AsTransportError(err error) (*ErrTransport, bool) {
	var t *ErrTransport

	ok := errors.As(err, &t)

	return t, ok
}
