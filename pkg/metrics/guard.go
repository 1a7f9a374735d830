// Package metrics implements the per-request accounting owned by the
// Disconnect Monitor: an InflightGuard (scoped in-flight gauge with a
// one-shot success flag) and a ResponseMetricCollector (running token
// accounting across a streamed response), backed by Prometheus and OTel
// instruments.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Endpoint identifies which route an InflightGuard/ResponseMetricCollector
// was created for.
type Endpoint string

const (
	EndpointCompletions     Endpoint = "completions"
	EndpointChatCompletions Endpoint = "chat_completions"
	EndpointEmbeddings      Endpoint = "embeddings"
)

var (
	inflightGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gateway",
		Name:      "inflight_requests",
		Help:      "Number of in-flight requests per model and endpoint.",
	}, []string{"model", "endpoint", "streaming"})

	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "requests_total",
		Help:      "Completed requests per model, endpoint and outcome.",
	}, []string{"model", "endpoint", "streaming", "outcome"})
)

func init() {
	prometheus.MustRegister(inflightGauge, requestsTotal)
}

// InflightGuard is acquired once per request before the engine is invoked
// and released exactly once when the handling task ends, regardless of
// success, error, or panic. Outcome is settable only once: the first of
// MarkOK or an implicit release-without-MarkOK wins.
type InflightGuard struct {
	model     string
	endpoint  Endpoint
	streaming bool
	store     *RedisStore

	mu       sync.Mutex
	ok       bool
	released bool
}

// NewInflightGuard increments the in-flight gauge and returns a guard that
// must be released (via Release) on every exit path.
func NewInflightGuard(model string, endpoint Endpoint, streaming bool) *InflightGuard {
	return NewInflightGuardWithStore(nil, model, endpoint, streaming)
}

// NewInflightGuardWithStore is NewInflightGuard plus a best-effort mirror of
// the in-flight count into store, so it stays accurate across gateway
// replicas rather than only within this process. store may be nil, in
// which case this is exactly NewInflightGuard. A mirror failure is logged,
// never returned: the Prometheus gauge and the request itself must not
// depend on Redis being reachable.
func NewInflightGuardWithStore(store *RedisStore, model string, endpoint Endpoint, streaming bool) *InflightGuard {
	inflightGauge.WithLabelValues(model, string(endpoint), streamingLabel(streaming)).Inc()

	g := &InflightGuard{
		model:     model,
		endpoint:  endpoint,
		streaming: streaming,
		store:     store,
	}

	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := store.Incr(ctx, model, endpoint); err != nil {
			slog.Warn("failed to mirror in-flight increment to redis", "model", model, "endpoint", endpoint, "error", err)
		}
	}

	return g
}

// MarkOK records a successful outcome. Safe to call at most meaningfully
// once; later calls, and any call after Release, are no-ops.
func (g *InflightGuard) MarkOK() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return
	}

	g.ok = true
}

// IsOK reports whether MarkOK was called before Release.
func (g *InflightGuard) IsOK() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.ok
}

// Release decrements the in-flight gauge and records the final outcome.
// Idempotent: only the first call has an effect.
func (g *InflightGuard) Release() {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}

	g.released = true
	ok := g.ok
	g.mu.Unlock()

	inflightGauge.WithLabelValues(g.model, string(g.endpoint), streamingLabel(g.streaming)).Dec()

	if g.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := g.store.Decr(ctx, g.model, g.endpoint); err != nil {
			slog.Warn("failed to mirror in-flight decrement to redis", "model", g.model, "endpoint", g.endpoint, "error", err)
		}
	}

	outcome := "fail"
	if ok {
		outcome = "ok"
	}

	requestsTotal.WithLabelValues(g.model, string(g.endpoint), streamingLabel(g.streaming), outcome).Inc()
}

func streamingLabel(streaming bool) string {
	if streaming {
		return "true"
	}

	return "false"
}
