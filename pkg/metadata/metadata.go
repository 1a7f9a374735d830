// Package metadata carries per-request bookkeeping (timing, status, model
// names) through a request's context so that middleware layered around the
// handler (access logging, response writing) can observe it without
// threading extra return values through the call chain.
package metadata

import (
	"context"
	"net/http"
	"time"
)

type contextKey struct{}

// RequestMetadata is attached to a request's context once, at the top of
// the middleware chain, and mutated in place by later middleware and the
// endpoint handler itself.
type RequestMetadata struct {
	CorrelationID string

	RequestAt  time.Time
	RespondAt  time.Time
	StatusCode int

	RequestModel  string
	ResponseModel string
	ErrorMessage  string
	Streaming     bool
}

// InitMetadataContext returns a context derived from request's, carrying a
// freshly zeroed RequestMetadata.
func InitMetadataContext(request *http.Request) context.Context {
	return context.WithValue(request.Context(), contextKey{}, &RequestMetadata{})
}

// RequestMetadataFromCtx returns the RequestMetadata attached to ctx,
// allocating a throwaway one if none is present so callers never need a nil
// check. That only happens for requests that bypassed WithInitMetadata,
// which is a wiring bug, not a request the client can trigger.
func RequestMetadataFromCtx(ctx context.Context) *RequestMetadata {
	meta, ok := ctx.Value(contextKey{}).(*RequestMetadata)
	if !ok {
		return &RequestMetadata{}
	}

	return meta
}
