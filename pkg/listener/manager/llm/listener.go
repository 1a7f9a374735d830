// Package llm implements the Endpoint Handler component (spec §4.5/§4.6):
// the four OpenAI-compatible routes, each composing the engine registry,
// request context, event converter, and disconnect monitor.
package llm

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"knoway.dev/pkg/engine"
	"knoway.dev/pkg/listener"
	"knoway.dev/pkg/metrics"
	"knoway.dev/pkg/types/openai"
)

// Config wires per-deployment knobs that aren't part of the streaming core
// proper: the chat-completions request template and an optional SSE
// keep-alive interval.
type Config struct {
	Registry        engine.Registry
	ChatTemplate    *openai.RequestTemplate
	KeepAlive       time.Duration
	AccessLog       bool
	CorrelationHead string              // inbound header to read a trace id from, if any
	RedisStore      *metrics.RedisStore // optional cross-replica in-flight mirror
}

// drainWaitTime bounds how long a draining listener gives in-flight
// requests to finish on their own before cancelling them outright.
const drainWaitTime = 5 * time.Second

type Listener struct {
	cfg         Config
	drained     atomic.Bool
	cancellable *listener.CancellableRequestMap
}

func New(cfg Config) (listener.Listener, error) {
	return &Listener{cfg: cfg, cancellable: listener.NewCancellableRequestMap()}, nil
}

func (l *Listener) Drain(ctx context.Context) error {
	l.drained.Store(true)
	l.cancellable.CancelAllAfterWithContext(ctx, drainWaitTime)

	return nil
}

func (l *Listener) HasDrained() bool {
	return l.drained.Load()
}

func (l *Listener) chain(fn listener.HandlerFunc) listener.HandlerFunc {
	return listener.Chain(fn,
		listener.WithInitMetadata(),
		listener.WithOptions(),
		listener.WithRecoverWithError(),
		listener.WithRejectAfterDrainedWithError(l),
		listener.WithCancellable(l.cancellable),
		listener.WithRequestTimer(),
		listener.WithAccessLog(l.cfg.AccessLog),
		listener.WithResponseHandler(openai.ResponseHandler()),
	)
}

// correlationID generates a per-request correlation id (spec §4.5 step 2),
// optionally seeded from an inbound trace header when cfg.CorrelationHead
// names one; reqctx.New falls back to a fresh UUID v4 when given "".
func (l *Listener) correlationID(request *http.Request) string {
	if l.cfg.CorrelationHead == "" {
		return ""
	}

	return request.Header.Get(l.cfg.CorrelationHead)
}

// newGuard acquires an InflightGuard, mirroring into l.cfg.RedisStore when
// one is configured.
func (l *Listener) newGuard(model string, endpoint metrics.Endpoint, streaming bool) *metrics.InflightGuard {
	return metrics.NewInflightGuardWithStore(l.cfg.RedisStore, model, endpoint, streaming)
}

func (l *Listener) RegisterRoutes(router *mux.Router) error {
	router.HandleFunc("/v1/completions", listener.AsHTTPHandler(l.chain(l.handleCompletions))).Methods("POST", "OPTIONS")
	router.HandleFunc("/v1/chat/completions", listener.AsHTTPHandler(l.chain(l.handleChatCompletions))).Methods("POST", "OPTIONS")
	router.HandleFunc("/v1/embeddings", listener.AsHTTPHandler(l.chain(l.handleEmbeddings))).Methods("POST", "OPTIONS")
	router.HandleFunc("/v1/models", listener.AsHTTPHandler(l.chain(l.handleModels))).Methods("GET", "OPTIONS")

	return nil
}
