package engine

import (
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// StaticRegistry is a read-mostly Registry populated once at startup by
// Register* calls in the process wiring. Concurrent reads are safe; there is no supported mutation
// path once Register* has been called during wiring, matching spec §4.1's
// "mutation out of scope."
type StaticRegistry struct {
	mu sync.RWMutex

	completions     map[string]Handle[CompletionsRequest, CompletionsChunk]
	chatCompletions map[string]Handle[ChatCompletionsRequest, ChatCompletionsChunk]
	embeddings      map[string]Handle[EmbeddingsRequest, EmbeddingsResponse]
}

// NewStaticRegistry returns an empty registry ready for RegisterX calls.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		completions:     make(map[string]Handle[CompletionsRequest, CompletionsChunk]),
		chatCompletions: make(map[string]Handle[ChatCompletionsRequest, ChatCompletionsChunk]),
		embeddings:      make(map[string]Handle[EmbeddingsRequest, EmbeddingsResponse]),
	}
}

func (r *StaticRegistry) RegisterCompletions(model string, h Handle[CompletionsRequest, CompletionsChunk]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completions[normalizeModelName(model)] = h
}

func (r *StaticRegistry) RegisterChatCompletions(model string, h Handle[ChatCompletionsRequest, ChatCompletionsChunk]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chatCompletions[normalizeModelName(model)] = h
}

func (r *StaticRegistry) RegisterEmbeddings(model string, h Handle[EmbeddingsRequest, EmbeddingsResponse]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.embeddings[normalizeModelName(model)] = h
}

func (r *StaticRegistry) CompletionsEngine(model string) mo.Option[Handle[CompletionsRequest, CompletionsChunk]] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.completions[normalizeModelName(model)]
	if !ok {
		return mo.None[Handle[CompletionsRequest, CompletionsChunk]]()
	}

	return mo.Some(h)
}

func (r *StaticRegistry) ChatCompletionsEngine(model string) mo.Option[Handle[ChatCompletionsRequest, ChatCompletionsChunk]] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.chatCompletions[normalizeModelName(model)]
	if !ok {
		return mo.None[Handle[ChatCompletionsRequest, ChatCompletionsChunk]]()
	}

	return mo.Some(h)
}

func (r *StaticRegistry) EmbeddingsEngine(model string) mo.Option[Handle[EmbeddingsRequest, EmbeddingsResponse]] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.embeddings[normalizeModelName(model)]
	if !ok {
		return mo.None[Handle[EmbeddingsRequest, EmbeddingsResponse]]()
	}

	return mo.Some(h)
}

func (r *StaticRegistry) ModelDisplayNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})

	for _, m := range [][]string{keysOf(r.completions), keysOf(r.chatCompletions), keysOf(r.embeddings)} {
		for _, k := range m {
			seen[k] = struct{}{}
		}
	}

	return lo.Keys(seen)
}

func keysOf[V any](m map[string]V) []string {
	return lo.Keys(m)
}
