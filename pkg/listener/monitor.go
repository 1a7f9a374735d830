package listener

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"knoway.dev/pkg/engine"
	"knoway.dev/pkg/metrics"
	"knoway.dev/pkg/reqctx"
	"knoway.dev/pkg/sse"
)

// outboundQueueCapacity bounds the channel between the stream producer and
// the HTTP writer (spec §4.4): a slow client throttles the engine via
// cooperative suspension on the sender side rather than unbounded
// buffering.
const outboundQueueCapacity = 8

// PipeStream is the Disconnect Monitor (spec §4.4). It drains source,
// converts each item with convert, and forwards the result onto writer as
// SSE frames through a bounded queue. A dropped client cancels rc exactly
// once and halts consumption; a clean end-of-stream followed by an
// accepted `[DONE]` sentinel is the only path that marks guard successful.
func PipeStream[Req, Item any](
	rc *reqctx.RequestContext[Req],
	guard *metrics.InflightGuard,
	source engine.Stream[Item],
	convert func(sse.AnnotatedItem[Item]) (*sse.Event, error),
	writer http.ResponseWriter,
) {
	defer guard.Release()

	outbound := make(chan *sse.Event, outboundQueueCapacity)
	clientGone := make(chan struct{})

	var writeFailed atomic.Bool

	go func() {
		defer close(clientGone)

		flusher, _ := writer.(http.Flusher)

		for event := range outbound {
			if err := event.MarshalTo(writer); err != nil {
				writeFailed.Store(true)
				slog.Warn("client disconnected mid-stream", "correlation_id", rc.CorrelationID(), "error", err)

				return
			}

			if flusher != nil {
				flusher.Flush()
			}
		}
	}()

	sentDone := false

	for {
		item, ok, err := source.Next(rc.Context())
		if err != nil {
			sendOrStop(outbound, clientGone, rc, sse.ErrorEvent(err.Error()))
			break
		}

		if !ok {
			sentDone = sendOrStop(outbound, clientGone, rc, sse.Done())
			break
		}

		event, cerr := convert(*item)
		if cerr != nil {
			if terr, isTransport := sse.AsTransportError(cerr); isTransport {
				sendOrStop(outbound, clientGone, rc, sse.ErrorEvent(terr.Message))
			} else {
				slog.Error("stream item conversion failed", "correlation_id", rc.CorrelationID(), "error", cerr)
			}

			rc.StopGenerating()

			break
		}

		if event.IsEmpty() {
			continue
		}

		if !sendOrStop(outbound, clientGone, rc, event) {
			break
		}
	}

	close(outbound)
	<-clientGone

	// A write can fail after every event, [DONE] included, already fit in
	// the queue; sendOrStop never saw the drop, so cancel here instead.
	if writeFailed.Load() {
		rc.StopGenerating()
	}

	if sentDone && !writeFailed.Load() {
		guard.MarkOK()
	}
}

// sendOrStop enqueues event, or — if the writer goroutine has already
// given up on the client — calls rc.StopGenerating() and reports failure.
func sendOrStop[Req any](outbound chan<- *sse.Event, clientGone <-chan struct{}, rc *reqctx.RequestContext[Req], event *sse.Event) bool {
	select {
	case outbound <- event:
		return true
	case <-clientGone:
		rc.StopGenerating()
		return false
	}
}
