package listener

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
)

// HandlerFunc is the gateway's internal handler shape: it returns a
// response value and an error instead of writing directly to writer, so
// that ambient middleware (access log, recover, response encoding) can
// observe the outcome uniformly. A handler that already wrote the response
// itself (e.g. a streaming endpoint) signals that via a sentinel error.
type HandlerFunc func(writer http.ResponseWriter, request *http.Request) (any, error)

// Middleware wraps a HandlerFunc with cross-cutting behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Drainable is implemented by anything that can be asked to stop accepting
// new work ahead of a graceful shutdown.
type Drainable interface {
	Drain(ctx context.Context) error
	HasDrained() bool
}

// Listener registers its routes onto a shared router and can be drained
// independently of the HTTP server it's mounted on.
type Listener interface {
	Drainable
	RegisterRoutes(router *mux.Router) error
}

// Mux collects Listeners and middleware and turns them into a single
// http.Server. Register is commonly called with the (Listener, error)
// tuple a listener constructor returns directly: `m.Register(New(...))`.
type Mux struct {
	router    *mux.Router
	listeners []Listener
}

func NewMux() *Mux {
	return &Mux{router: mux.NewRouter()}
}

func (m *Mux) Register(l Listener, err error) error {
	if err != nil {
		return fmt.Errorf("failed to construct listener: %w", err)
	}

	m.listeners = append(m.listeners, l)

	return nil
}

func (m *Mux) Listeners() []Listener {
	return m.listeners
}

// Chain composes middlewares around fn, in registration order (the first
// middleware passed is outermost). Listeners call this themselves while
// building the HandlerFunc they hand to a *mux.Router route, since
// RegisterRoutes only receives the bare router.
func Chain(fn HandlerFunc, middlewares ...Middleware) HandlerFunc {
	wrapped := fn
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

// AsHTTPHandler adapts a HandlerFunc to http.HandlerFunc, discarding the
// (any, error) result — a WithResponseHandler middleware is expected
// further in to have already written the response.
func AsHTTPHandler(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = fn(w, r)
	}
}

// BuildServer finalizes routing (invoking RegisterRoutes on every
// registered listener) and returns a ready-to-serve http.Server using
// base's non-handler fields (Addr, timeouts, ...).
func (m *Mux) BuildServer(base *http.Server) (*http.Server, error) {
	for _, l := range m.listeners {
		if err := l.RegisterRoutes(m.router); err != nil {
			return nil, fmt.Errorf("failed to register routes: %w", err)
		}
	}

	server := *base
	server.Handler = m.router

	return &server, nil
}

// DrainAll drains every registered listener independently, so one
// listener's drain failure doesn't stop the others from being asked to
// drain too; all failures are returned together.
func (m *Mux) DrainAll(ctx context.Context) error {
	var drainErrs *multierror.Error

	for _, l := range m.listeners {
		if err := l.Drain(ctx); err != nil {
			drainErrs = multierror.Append(drainErrs, fmt.Errorf("failed to drain listener: %w", err))
		}
	}

	return drainErrs.ErrorOrNil()
}
