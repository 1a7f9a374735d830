package bootkit

import "time"

type bootkitOptions struct {
	startTimeout time.Duration
	stopTimeout  time.Duration
}

type bootkitApplyOptions struct {
	bootkit *bootkitOptions
}

type Option interface {
	apply(*bootkitApplyOptions)
}

type optionFunc func(*bootkitApplyOptions)

func (f optionFunc) apply(o *bootkitApplyOptions) { f(o) }

// StartTimeout bounds how long BootKit.Start waits for all registered
// Runnables to finish before giving up. LifeCycle start hooks receive a
// context with the same deadline, but Start keeps waiting for them after
// it has passed.
func StartTimeout(d time.Duration) Option {
	return optionFunc(func(o *bootkitApplyOptions) {
		o.bootkit.startTimeout = d
	})
}

// StopTimeout bounds how long the reversed LifeCycle stop hooks are given
// to run during shutdown.
func StopTimeout(d time.Duration) Option {
	return optionFunc(func(o *bootkitApplyOptions) {
		o.bootkit.stopTimeout = d
	})
}
