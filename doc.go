// Package evcore provides a single-threaded event loop core: a monotonic
// timer scheduler, a cross-goroutine async-signal wakeup queue, and a
// file-descriptor readiness watcher layered over a pluggable OS backend.
//
// # Architecture
//
// [EventLoop] alternates, once per iteration of [EventLoop.Run], between
// firing due [Timer]s, dispatching descriptor readiness reported by its
// backend, and draining signaled [AsyncSignal]s. [FdWatcher] is a thin
// adapter over the backend; all actual multiplexing lives there. On Linux
// the shipped backend is epoll, with an eventfd used to wake a blocked
// EventLoop.Run when an AsyncSignal fires from another goroutine.
//
// # Thread Safety
//
// The loop and everything bound to it (Timer, FdWatcher, and every
// AsyncSignal method except Signal) is single-threaded: methods must be
// called from the goroutine currently executing Run. AsyncSignal.Signal is
// the sole exception, safe to call from any goroutine, which is what makes
// it useful as a wakeup primitive for handing work back to the loop.
//
// # Platform Support
//
// Only Linux ships a working [EventLoop] backend, matching the reference
// implementation this package's core algorithms are drawn from. NewLoop
// returns ErrUnsupportedPlatform on other platforms.
package evcore
