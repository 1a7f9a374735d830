package metrics

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

var (
	chunkTokensHist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gateway",
		Name:      "chunk_tokens",
		Help:      "Token count observed per streamed chunk.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"model"})

	outputTokensGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gateway",
		Name:      "response_output_tokens",
		Help:      "Running output-sequence-length of the current response.",
	}, []string{"model"})

	meter             = otel.Meter("knoway.dev/gateway")
	otelInputTokens, _  = meter.Int64Counter("gateway.input_tokens")
	otelOutputTokens, _ = meter.Int64Counter("gateway.output_tokens")
)

func init() {
	prometheus.MustRegister(chunkTokensHist, outputTokensGauge)
}

// ResponseMetricCollector observes per-chunk token counts for the duration
// of a single streaming request. It is owned exclusively by the Disconnect
// Monitor's forwarding goroutine, so no internal locking is needed.
type ResponseMetricCollector struct {
	model string

	currentOSL  atomic.Uint64
	inputTokens atomic.Uint64
	chunkTokens atomic.Uint64
}

// NewResponseMetricCollector creates a collector scoped to one request.
func NewResponseMetricCollector(model string) *ResponseMetricCollector {
	return &ResponseMetricCollector{model: model}
}

// ObserveCurrentOSL records the cumulative output-token count reported by
// the engine so far.
func (c *ResponseMetricCollector) ObserveCurrentOSL(outputTokens uint64) {
	c.currentOSL.Store(outputTokens)
	outputTokensGauge.WithLabelValues(c.model).Set(float64(outputTokens))
	otelOutputTokens.Add(context.Background(), int64(outputTokens))
}

// ObserveResponse records one chunk's input/chunk token counts.
func (c *ResponseMetricCollector) ObserveResponse(inputTokens, chunkTokens uint64) {
	c.inputTokens.Store(inputTokens)
	c.chunkTokens.Add(chunkTokens)

	chunkTokensHist.WithLabelValues(c.model).Observe(float64(chunkTokens))
	otelInputTokens.Add(context.Background(), int64(inputTokens))
}

// CurrentOSL returns the last observed output-sequence-length.
func (c *ResponseMetricCollector) CurrentOSL() uint64 {
	return c.currentOSL.Load()
}

// InputTokens returns the last observed input-sequence-length.
func (c *ResponseMetricCollector) InputTokens() uint64 {
	return c.inputTokens.Load()
}

// ChunkTokens returns the cumulative chunk-token count observed so far.
func (c *ResponseMetricCollector) ChunkTokens() uint64 {
	return c.chunkTokens.Load()
}
