package bootkit

import "context"

// LifeCycleHook pairs a startup action with its matching shutdown action.
// Either field may be nil.
type LifeCycleHook struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (h LifeCycleHook) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}

	return h.OnStart(ctx)
}

func (h LifeCycleHook) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}

	return h.OnStop(ctx)
}

type lifeCycler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// LifeCycle lets a Runnable register hooks to be driven by BootKit's own
// start/stop sequencing, rather than managing its own goroutine lifetime.
type LifeCycle interface {
	Append(hook LifeCycleHook)
}

type lifeCycle struct {
	hooks []lifeCycler
}

func newLifeCycle() *lifeCycle {
	return &lifeCycle{hooks: make([]lifeCycler, 0)}
}

func (l *lifeCycle) Append(hook LifeCycleHook) {
	l.hooks = append(l.hooks, hook)
}

func (l *lifeCycle) GetHooks() []lifeCycler {
	return l.hooks
}
