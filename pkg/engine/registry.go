// Package engine implements the Engine Registry component (spec §4.1): a
// read-mostly lookup from model name to a typed engine handle, plus the
// handle contract itself.
package engine

import (
	"context"

	"github.com/samber/mo"
	"github.com/stoewer/go-strcase"

	"knoway.dev/pkg/reqctx"
	"knoway.dev/pkg/sse"
)

// Stream is the lazy, async stream of annotated items an engine handle
// produces. Items are consumed once, in order. Next returns ok=false with a
// nil error on a clean end of stream; a non-nil error is a transport-level
// failure the disconnect monitor surfaces as a mid-stream SSE error event.
type Stream[Resp any] interface {
	Next(ctx context.Context) (*sse.AnnotatedItem[Resp], bool, error)
}

// Handle is a single registered engine: one model, one operation.
type Handle[Req, Resp any] interface {
	// Generate issues the call. It may fail synchronously with a structured
	// object.LLMError (spec's HttpError) or an opaque internal error.
	Generate(rc *reqctx.RequestContext[Req]) (Stream[Resp], error)
}

// Registry is the read-mostly model -> engine-handle lookup. Mutation
// (registration, deregistration) is out of scope for the streaming core;
// a StaticRegistry satisfies it, filled by Register* calls at startup.
type Registry interface {
	CompletionsEngine(model string) mo.Option[Handle[CompletionsRequest, CompletionsChunk]]
	ChatCompletionsEngine(model string) mo.Option[Handle[ChatCompletionsRequest, ChatCompletionsChunk]]
	EmbeddingsEngine(model string) mo.Option[Handle[EmbeddingsRequest, EmbeddingsResponse]]

	// ModelDisplayNames returns the set of currently-registered model
	// identifiers, deduplicated, for GET /v1/models.
	ModelDisplayNames() []string
}

// normalizeModelName matches engine-provided identifiers against
// registrations regardless of kebab/snake casing drift between config
// authors and client requests.
func normalizeModelName(name string) string {
	return strcase.KebabCase(name)
}
