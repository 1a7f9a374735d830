package openai

import (
	"context"
	"fmt"
	"strings"

	openaiapi "github.com/sashabaranov/go-openai"

	"knoway.dev/pkg/engine"
	"knoway.dev/pkg/sse"
)

// errIfErrorTagged returns the transport error for a mid-stream "error"
// tagged item, matching the behavior sse.Convert applies on the streaming
// path: the fold path must fail the same way instead of silently dropping
// the item.
func errIfErrorTagged[T any](item *sse.AnnotatedItem[T]) error {
	if item.Event != sse.ErrorTag {
		return nil
	}

	msg := "unspecified error"
	if len(item.Comment) > 0 {
		msg = strings.Join(item.Comment, " -- ")
	}

	return &sse.ErrTransport{Message: msg}
}

// FoldChatCompletions aggregates a chat-completions delta stream into a
// single response (spec §4.5 step 10, non-streaming branch). Text deltas
// are concatenated per choice index; the final non-empty finish_reason and
// usage observed on the stream are retained.
func FoldChatCompletions(ctx context.Context, stream engine.Stream[engine.ChatCompletionsChunk]) (*openaiapi.ChatCompletionResponse, error) {
	resp := &openaiapi.ChatCompletionResponse{}
	content := map[int]*openaiapi.ChatCompletionMessage{}
	order := []int{}

	for {
		item, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("chat completions stream failed: %w", err)
		}

		if !ok {
			break
		}

		if err := errIfErrorTagged(item); err != nil {
			return nil, err
		}

		if item.Data == nil {
			continue
		}

		chunk := *item.Data

		if resp.ID == "" {
			resp.ID = chunk.ID
			resp.Object = "chat.completion"
			resp.Created = chunk.Created
			resp.Model = chunk.Model
		}

		if chunk.Usage != nil {
			resp.Usage = *chunk.Usage
		}

		for _, choice := range chunk.Choices {
			msg, seen := content[choice.Index]
			if !seen {
				msg = &openaiapi.ChatCompletionMessage{Role: openaiapi.ChatMessageRoleAssistant}
				content[choice.Index] = msg
				order = append(order, choice.Index)
			}

			msg.Content += choice.Delta.Content

			if choice.FinishReason != "" {
				resp.Choices = ensureChoice(resp.Choices, choice.Index, string(choice.FinishReason))
			}
		}
	}

	if resp.Object == "" {
		return nil, fmt.Errorf("chat completions stream produced no chunks")
	}

	for i, idx := range order {
		if i >= len(resp.Choices) {
			resp.Choices = append(resp.Choices, openaiapi.ChatCompletionChoice{Index: idx})
		}

		resp.Choices[i].Index = idx
		resp.Choices[i].Message = *content[idx]
	}

	return resp, nil
}

func ensureChoice(choices []openaiapi.ChatCompletionChoice, index int, finishReason string) []openaiapi.ChatCompletionChoice {
	for i := range choices {
		if choices[i].Index == index {
			choices[i].FinishReason = openaiapi.FinishReason(finishReason)
			return choices
		}
	}

	return append(choices, openaiapi.ChatCompletionChoice{
		Index:        index,
		FinishReason: openaiapi.FinishReason(finishReason),
	})
}

// FoldCompletions aggregates a legacy completions delta stream the same way
// FoldChatCompletions does for chat.
func FoldCompletions(ctx context.Context, stream engine.Stream[engine.CompletionsChunk]) (*openaiapi.CompletionResponse, error) {
	resp := &openaiapi.CompletionResponse{}
	text := map[int]string{}
	finish := map[int]string{}
	order := []int{}

	for {
		item, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("completions stream failed: %w", err)
		}

		if !ok {
			break
		}

		if err := errIfErrorTagged(item); err != nil {
			return nil, err
		}

		if item.Data == nil {
			continue
		}

		chunk := *item.Data

		if resp.ID == "" {
			resp.ID = chunk.ID
			resp.Object = "text_completion"
			resp.Created = chunk.Created
			resp.Model = chunk.Model
		}

		resp.Usage = chunk.Usage

		for _, choice := range chunk.Choices {
			if _, seen := text[choice.Index]; !seen {
				order = append(order, choice.Index)
			}

			text[choice.Index] += choice.Text

			if choice.FinishReason != "" {
				finish[choice.Index] = choice.FinishReason
			}
		}
	}

	if resp.Object == "" {
		return nil, fmt.Errorf("completions stream produced no chunks")
	}

	for _, idx := range order {
		resp.Choices = append(resp.Choices, openaiapi.CompletionChoice{
			Index:        idx,
			Text:         text[idx],
			FinishReason: finish[idx],
		})
	}

	return resp, nil
}

// FoldEmbeddings reads the single item an embeddings engine stream yields.
// Embeddings are never forwarded as an SSE stream (spec §1): this is the
// only consumption path for an embeddings Handle.
func FoldEmbeddings(ctx context.Context, stream engine.Stream[engine.EmbeddingsResponse]) (*openaiapi.EmbeddingResponse, error) {
	item, ok, err := stream.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("embeddings call failed: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("embeddings engine returned no response")
	}

	if err := errIfErrorTagged(item); err != nil {
		return nil, err
	}

	if item.Data == nil {
		return nil, fmt.Errorf("embeddings engine returned no response")
	}

	return item.Data, nil
}
