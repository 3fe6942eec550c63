package evcore

import "time"

// IOEvents is a bitmask of readiness conditions an FdWatcher can watch for
// or report.
type IOEvents uint32

const (
	// EventRead indicates the descriptor is ready for reading, or (for a
	// listening socket) has a connection ready to accept.
	EventRead IOEvents = 1 << iota
	// EventWrite indicates the descriptor is ready for writing.
	EventWrite
	// EventError indicates an error condition; always reported regardless
	// of the requested mask.
	EventError
	// EventHangup indicates the peer closed its end; always reported
	// regardless of the requested mask.
	EventHangup

	// eventsAll is the set of bits a caller may request via Init or
	// UpdateEvents. EventError and EventHangup are backend-reported only.
	eventsAll = EventRead | EventWrite
)

// readinessBackend is the seam between EventLoop and a concrete OS
// readiness multiplexer. EventLoop holds exactly one and never inspects its
// concrete type, so alternate backends (a test fake, a future kqueue or
// IOCP implementation) plug in without changing the core.
type readinessBackend interface {
	// DispatchEvents delivers any readiness events already collected by
	// the previous WaitForEvents call, calling each registered
	// FdWatcher's handler in turn. It returns false if the loop should
	// stop (Stop was called from within a handler).
	DispatchEvents() bool

	// WaitForEvents blocks until at least one descriptor is ready, the
	// async-signal eventfd fires, or deadline elapses, whichever is
	// first. deadlineChanged reports whether deadline differs from the
	// value passed on the previous call, letting a backend skip
	// recomputing a derived timeout when nothing changed.
	WaitForEvents(deadline time.Time, deadlineChanged bool) error

	// SignalToCheckAsync wakes a WaitForEvents call currently blocked, so
	// the loop notices a newly signaled AsyncSignal without waiting for
	// an unrelated descriptor or the deadline.
	SignalToCheckAsync()

	// InitFD begins watching fd for the given event mask.
	InitFD(fd int, mask IOEvents) error

	// UpdateEvents changes the event mask for a descriptor already passed
	// to InitFD.
	UpdateEvents(fd int, mask IOEvents) error

	// ResetFD stops watching a descriptor previously passed to InitFD.
	ResetFD(fd int) error

	// Close releases all backend resources. The backend must not be used
	// afterward.
	Close() error
}
