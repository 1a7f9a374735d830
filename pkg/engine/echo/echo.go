// Package echo is a reference engine implementation: it never calls an
// upstream, instead streaming the request's own prompt back word by word.
// It exists so the gateway has at least one registered model and is
// runnable standalone, grounded on the teacher's cluster.Handle shape
// (knoway.dev/pkg/clusters/cluster) minus the HTTP proxy call it makes to
// a real upstream.
package echo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	openaiapi "github.com/sashabaranov/go-openai"

	"knoway.dev/pkg/engine"
	"knoway.dev/pkg/reqctx"
	"knoway.dev/pkg/sse"
)

// wordStream yields one AnnotatedItem per word of text, built by next.
type wordStream[T any] struct {
	words []string
	idx   int
	next  func(word string, last bool) *T
}

func (w *wordStream[T]) Next(ctx context.Context) (*sse.AnnotatedItem[T], bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if w.idx >= len(w.words) {
		return nil, false, nil
	}

	word := w.words[w.idx]
	last := w.idx == len(w.words)-1
	w.idx++

	return &sse.AnnotatedItem[T]{Data: w.next(word, last)}, true, nil
}

func splitWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		words = []string{""}
	}

	return words
}

func lastUserMessage(messages []openaiapi.ChatCompletionMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == openaiapi.ChatMessageRoleUser {
			return messages[i].Content
		}
	}

	return ""
}

func promptText(prompt any) string {
	switch p := prompt.(type) {
	case string:
		return p
	case []string:
		return strings.Join(p, " ")
	default:
		return ""
	}
}

// ChatHandle implements engine.Handle for chat completions.
type ChatHandle struct {
	Model string
}

func NewChatHandle(model string) *ChatHandle {
	return &ChatHandle{Model: model}
}

func (h *ChatHandle) Generate(rc *reqctx.RequestContext[engine.ChatCompletionsRequest]) (engine.Stream[engine.ChatCompletionsChunk], error) {
	words := splitWords(lastUserMessage(rc.Request().Messages))
	id := "echo-" + uuid.NewString()
	created := time.Now().Unix()

	return &wordStream[engine.ChatCompletionsChunk]{
		words: words,
		next: func(word string, last bool) *engine.ChatCompletionsChunk {
			choice := openaiapi.ChatCompletionStreamChoice{
				Index: 0,
				Delta: openaiapi.ChatCompletionStreamChoiceDelta{
					Role:    openaiapi.ChatMessageRoleAssistant,
					Content: word + " ",
				},
			}

			chunk := &engine.ChatCompletionsChunk{
				ID:      id,
				Object:  "chat.completion.chunk",
				Created: created,
				Model:   h.Model,
				Choices: []openaiapi.ChatCompletionStreamChoice{choice},
			}

			if last {
				chunk.Choices[0].FinishReason = openaiapi.FinishReasonStop
				chunk.Usage = &openaiapi.Usage{
					PromptTokens:     len(words),
					CompletionTokens: len(words),
					TotalTokens:      len(words) * 2, //nolint:mnd
				}
			}

			return chunk
		},
	}, nil
}

// CompletionsHandle implements engine.Handle for legacy completions.
type CompletionsHandle struct {
	Model string
}

func NewCompletionsHandle(model string) *CompletionsHandle {
	return &CompletionsHandle{Model: model}
}

func (h *CompletionsHandle) Generate(rc *reqctx.RequestContext[engine.CompletionsRequest]) (engine.Stream[engine.CompletionsChunk], error) {
	words := splitWords(promptText(rc.Request().Prompt))
	id := "echo-" + uuid.NewString()
	created := time.Now().Unix()

	return &wordStream[engine.CompletionsChunk]{
		words: words,
		next: func(word string, last bool) *engine.CompletionsChunk {
			choice := openaiapi.CompletionChoice{
				Index: 0,
				Text:  word + " ",
			}

			chunk := &engine.CompletionsChunk{
				ID:      id,
				Object:  "text_completion",
				Created: created,
				Model:   h.Model,
				Choices: []openaiapi.CompletionChoice{choice},
			}

			if last {
				chunk.Choices[0].FinishReason = "stop"
				chunk.Usage = openaiapi.Usage{
					PromptTokens:     len(words),
					CompletionTokens: len(words),
					TotalTokens:      len(words) * 2, //nolint:mnd
				}
			}

			return chunk
		},
	}, nil
}

// EmbeddingsHandle implements engine.Handle for embeddings. It derives a
// deterministic, low-dimensional vector from the input text's length and
// byte sum rather than anything semantically meaningful.
type EmbeddingsHandle struct {
	Model openaiapi.EmbeddingModel
}

func NewEmbeddingsHandle(model string) *EmbeddingsHandle {
	return &EmbeddingsHandle{Model: openaiapi.EmbeddingModel(model)}
}

const embeddingDimensions = 8

func (h *EmbeddingsHandle) Generate(rc *reqctx.RequestContext[engine.EmbeddingsRequest]) (engine.Stream[engine.EmbeddingsResponse], error) {
	text := promptText(rc.Request().Input)

	vector := make([]float32, embeddingDimensions)
	for i, b := range []byte(text) {
		vector[i%embeddingDimensions] += float32(b) / 255 //nolint:mnd
	}

	resp := &engine.EmbeddingsResponse{
		Object: "list",
		Model:  h.Model,
		Data: []openaiapi.Embedding{
			{Object: "embedding", Embedding: vector, Index: 0},
		},
		Usage: openaiapi.Usage{
			PromptTokens: len(strings.Fields(text)),
			TotalTokens:  len(strings.Fields(text)),
		},
	}

	return &singleItemStream[engine.EmbeddingsResponse]{item: resp}, nil
}

// singleItemStream yields exactly one item, matching the non-streaming
// shape of an embeddings call.
type singleItemStream[T any] struct {
	item *T
	done bool
}

func (s *singleItemStream[T]) Next(ctx context.Context) (*sse.AnnotatedItem[T], bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if s.done {
		return nil, false, nil
	}

	s.done = true

	return &sse.AnnotatedItem[T]{Data: s.item}, true, nil
}
