package engine

import (
	openaiapi "github.com/sashabaranov/go-openai"
)

// The per-endpoint request/response delta types an engine handle works
// with. These are the go-openai wire types directly: the gateway never
// needs a richer type than what it forwards to, and from, the client.
type (
	CompletionsRequest     = openaiapi.CompletionRequest
	CompletionsChunk       = openaiapi.CompletionResponse
	ChatCompletionsRequest = openaiapi.ChatCompletionRequest
	ChatCompletionsChunk   = openaiapi.ChatCompletionStreamResponse
	EmbeddingsRequest      = openaiapi.EmbeddingRequest
	EmbeddingsResponse     = openaiapi.EmbeddingResponse
)
