package evcore

import (
	"time"

	"github.com/joeycumines/go-utilpkg/logiface"
	"github.com/joeycumines/go-utilpkg/logiface/stumpy"
)

// loopOptions holds configuration resolved from a set of Option values.
type loopOptions struct {
	logger         *logiface.Logger[*stumpy.Event]
	maxPollTimeout time.Duration
	checkOwner     bool
}

// Option configures an EventLoop at construction time.
type Option func(*loopOptions) error

// WithLogger sets the logger used for loop lifecycle and error events. The
// default is a package-level stumpy-backed logiface.Logger writing to
// stderr.
func WithLogger(logger *logiface.Logger[*stumpy.Event]) Option {
	return func(o *loopOptions) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

// WithMaxPollTimeout caps how long a single WaitForEvents call is allowed to
// block even when no timer is pending, so a backend never blocks the loop
// forever on a spuriously silent descriptor set. Defaults to 10 seconds.
func WithMaxPollTimeout(d time.Duration) Option {
	return func(o *loopOptions) error {
		if d > 0 {
			o.maxPollTimeout = d
		}
		return nil
	}
}

// WithOwnerCheck enables or disables the cheap owner-goroutine check made by
// FdWatcher.Init and FdWatcher.UpdateEvents. Enabled by default; disabling it
// removes a small amount of overhead once a program is known to be correct.
func WithOwnerCheck(enabled bool) Option {
	return func(o *loopOptions) error {
		o.checkOwner = enabled
		return nil
	}
}

func resolveOptions(opts []Option) (*loopOptions, error) {
	cfg := &loopOptions{
		logger:         log,
		maxPollTimeout: 10 * time.Second,
		checkOwner:     true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
