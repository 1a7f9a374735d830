// Package reqctx implements the Request Context component (spec §4.2): a
// per-request correlation id plus a one-shot cancellation handle bound to
// the engine stream it wraps.
package reqctx

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// RequestContext wraps an inbound request payload of type Req with a
// correlation id and a cancellation handle. Its lifetime is at least the
// lifetime of the stream the engine returns for it.
type RequestContext[Req any] struct {
	ctx           context.Context
	correlationID string
	request       Req

	mu       sync.Mutex
	cancel   context.CancelFunc
	canceled bool
}

// New wraps req in a RequestContext derived from parent, tagged with
// correlationID. If correlationID is empty, a UUID v4 is generated; callers
// that read a trace id from an inbound header pass it in as correlationID.
func New[Req any](parent context.Context, correlationID string, req Req) *RequestContext[Req] {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(parent)

	return &RequestContext[Req]{
		ctx:           ctx,
		correlationID: correlationID,
		request:       req,
		cancel:        cancel,
	}
}

// Context returns the context bound to this request; it is canceled after
// StopGenerating is called.
func (c *RequestContext[Req]) Context() context.Context {
	return c.ctx
}

// CorrelationID returns the request's correlation id.
func (c *RequestContext[Req]) CorrelationID() string {
	return c.correlationID
}

// Request returns the wrapped request payload.
func (c *RequestContext[Req]) Request() Req {
	return c.request
}

// StopGenerating instructs the backend to cease producing items. One-shot
// and idempotent: only the first call has an effect, matching spec §9's
// cancellation contract.
func (c *RequestContext[Req]) StopGenerating() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.canceled {
		return
	}

	c.canceled = true
	c.cancel()
}

// Canceled reports whether StopGenerating has been called.
func (c *RequestContext[Req]) Canceled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.canceled
}
