package llm

import (
	"context"
	"net/http"
	"time"

	"knoway.dev/pkg/engine"
	"knoway.dev/pkg/listener"
	"knoway.dev/pkg/metrics"
	"knoway.dev/pkg/reqctx"
	"knoway.dev/pkg/sse"
	"knoway.dev/pkg/utils"
)

// listenerPipeStream writes SSE headers and hands off to the disconnect
// monitor, optionally wrapping source with a keep-alive ticker first (spec
// §4.5 step 10).
func listenerPipeStream[Req, Item any](
	rc *reqctx.RequestContext[Req],
	guard *metrics.InflightGuard,
	source engine.Stream[Item],
	convert func(sse.AnnotatedItem[Item]) (*sse.Event, error),
	writer http.ResponseWriter,
	keepAlive time.Duration,
) {
	utils.WriteEventStreamHeadersForHTTP(writer)

	if keepAlive > 0 {
		source = newKeepAliveStream(rc.Context(), source, keepAlive)
	}

	listener.PipeStream(rc, guard, source, convert, writer)
}

// keepAliveStream wraps an engine.Stream, injecting a comment-only item
// whenever interval elapses without a real item becoming available. The
// wrapped source is pulled from a single background goroutine, preserving
// its single-reader contract even though Next may be called more often
// than the source actually produces.
type keepAliveStream[T any] struct {
	interval time.Duration
	results  chan streamResult[T]
}

type streamResult[T any] struct {
	item *sse.AnnotatedItem[T]
	ok   bool
	err  error
}

func newKeepAliveStream[T any](ctx context.Context, inner engine.Stream[T], interval time.Duration) *keepAliveStream[T] {
	k := &keepAliveStream[T]{interval: interval, results: make(chan streamResult[T])}

	go func() {
		defer close(k.results)

		for {
			item, ok, err := inner.Next(ctx)

			select {
			case k.results <- streamResult[T]{item: item, ok: ok, err: err}:
			case <-ctx.Done():
				return
			}

			if !ok || err != nil {
				return
			}
		}
	}()

	return k
}

func (k *keepAliveStream[T]) Next(ctx context.Context) (*sse.AnnotatedItem[T], bool, error) {
	timer := time.NewTimer(k.interval)
	defer timer.Stop()

	select {
	case r, open := <-k.results:
		if !open {
			return nil, false, nil
		}

		return r.item, r.ok, r.err
	case <-timer.C:
		return &sse.AnnotatedItem[T]{Comment: []string{"keep-alive"}}, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
