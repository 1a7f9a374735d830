package sse

// MetricsAnnotationTag is the reserved event tag carrying sideband token
// accounting; once observed, an item's tag and comments are stripped before
// it reaches the client, while its data, if any, is still forwarded.
const MetricsAnnotationTag = "llm_metrics"

// ErrorTag is the reserved event tag signaling a mid-stream engine failure.
const ErrorTag = "error"

// AnnotatedItem is a single engine output: an optional payload, an optional
// event tag used for in-band signaling, and ordered comment lines. T is the
// per-endpoint response-delta type (completions, chat-completions chunk,
// ...).
type AnnotatedItem[T any] struct {
	Data    *T
	Event   string
	Comment []string
	ID      string
}

// MetricAnnotation is the sideband payload carried by an AnnotatedItem whose
// Event equals MetricsAnnotationTag. It never surfaces to the client.
type MetricAnnotation struct {
	InputTokens  uint64
	OutputTokens uint64
	ChunkTokens  uint64
}
