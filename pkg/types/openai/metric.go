package openai

import (
	openaiapi "github.com/sashabaranov/go-openai"

	"knoway.dev/pkg/engine"
	"knoway.dev/pkg/sse"
)

// ChatCompletionsMetric extracts the sideband token accounting a chunk
// might carry (only the final chunk, when stream_options.include_usage is
// set, carries Usage) for the Event Converter's metric-observation step.
func ChatCompletionsMetric(chunk engine.ChatCompletionsChunk) (*sse.MetricAnnotation, bool) {
	if chunk.Usage == nil {
		return nil, false
	}

	return usageAnnotation(*chunk.Usage), true
}

func CompletionsMetric(chunk engine.CompletionsChunk) (*sse.MetricAnnotation, bool) {
	if chunk.Usage.TotalTokens == 0 {
		return nil, false
	}

	return usageAnnotation(chunk.Usage), true
}

func usageAnnotation(usage openaiapi.Usage) *sse.MetricAnnotation {
	return &sse.MetricAnnotation{
		InputTokens:  uint64(usage.PromptTokens),
		OutputTokens: uint64(usage.CompletionTokens),
		ChunkTokens:  uint64(usage.CompletionTokens),
	}
}
