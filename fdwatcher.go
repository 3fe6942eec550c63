package evcore

// FdEventHandler is invoked when a watched descriptor becomes ready. It runs
// on the owning EventLoop's goroutine.
type FdEventHandler func(events IOEvents)

// FdWatcher watches a single file descriptor for readiness via the loop's
// backend. It is a thin adapter: all state-machine and multiplexing logic
// lives in the backend, not here.
//
// All methods are owner-thread-only.
type FdWatcher struct {
	loop    *EventLoop
	handler FdEventHandler
	fd      int
	events  IOEvents
}

// NewFdWatcher creates an unbound FdWatcher. Call Init to bind a descriptor.
func NewFdWatcher(loop *EventLoop, handler FdEventHandler) *FdWatcher {
	if handler == nil {
		panic("evcore: NewFdWatcher requires a non-nil handler")
	}
	return &FdWatcher{
		loop:    loop,
		handler: handler,
		fd:      -1,
	}
}

// HasFD reports whether a descriptor is currently bound.
func (w *FdWatcher) HasFD() bool { return w.fd >= 0 }

// FD returns the bound descriptor, or -1 if none is bound.
func (w *FdWatcher) FD() int { return w.fd }

// Events returns the currently requested event mask.
func (w *FdWatcher) Events() IOEvents { return w.events }

// Init binds fd to this watcher with the given initial event mask. fd must
// not already be bound to this watcher.
func (w *FdWatcher) Init(fd int, events IOEvents) error {
	if err := w.loop.checkOwner(); err != nil {
		return err
	}
	if w.fd >= 0 {
		return ErrFDAlreadyBound
	}
	if events & ^eventsAll != 0 {
		return ErrInvalidEvents
	}
	if err := w.loop.backend.InitFD(fd, events); err != nil {
		return err
	}
	w.loop.registerWatcher(fd, w)
	w.fd = fd
	w.events = events
	return nil
}

// UpdateEvents changes the requested event mask for the bound descriptor. A
// no-op if events already equals the current mask.
func (w *FdWatcher) UpdateEvents(events IOEvents) error {
	if err := w.loop.checkOwner(); err != nil {
		return err
	}
	if w.fd < 0 {
		return ErrFDNotBound
	}
	if events & ^eventsAll != 0 {
		return ErrInvalidEvents
	}
	if events == w.events {
		return nil
	}
	if err := w.loop.backend.UpdateEvents(w.fd, events); err != nil {
		return err
	}
	w.events = events
	return nil
}

// Reset unbinds the descriptor, if any. The descriptor itself is not
// closed; the caller owns its lifetime.
func (w *FdWatcher) Reset() {
	if w.fd < 0 {
		return
	}
	_ = w.loop.backend.ResetFD(w.fd)
	w.loop.unregisterWatcher(w.fd)
	w.fd = -1
	w.events = 0
}

// Close is equivalent to Reset.
func (w *FdWatcher) Close() error {
	w.Reset()
	return nil
}
