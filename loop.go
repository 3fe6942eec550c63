package evcore

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// EventLoop is a single-threaded event loop alternating between firing due
// timers, dispatching descriptor readiness, and draining signaled
// AsyncSignals. All exported types in this package (Timer, AsyncSignal,
// FdWatcher) are bound to exactly one EventLoop for their lifetime.
//
// Every method is documented as either owner-thread-only (call only from
// the goroutine currently running Run) or safe from any goroutine.
// AsyncSignal.Signal is the only method safe from any goroutine.
type EventLoop struct {
	opts *loopOptions

	timers   timerHeap
	backend  readinessBackend
	watchers map[int]*FdWatcher

	asyncMu      sync.Mutex
	pendingHead  *AsyncSignal
	dispatchHead *AsyncSignal

	eventTime    time.Time
	lastWaitTime time.Time

	stop    bool
	running atomic.Bool
	closed  atomic.Bool

	ownerGoroutine atomic.Uint64
}

// NewLoop constructs an EventLoop with the given options. The returned loop
// owns no goroutine until Run is called.
func NewLoop(opts ...Option) (*EventLoop, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	watchers := make(map[int]*FdWatcher)

	l := &EventLoop{
		opts:      cfg,
		watchers:  watchers,
		eventTime: time.Now(),
	}
	l.pendingHead = &AsyncSignal{}
	l.dispatchHead = &AsyncSignal{}
	l.pendingHead.prev, l.pendingHead.next = l.pendingHead, l.pendingHead
	l.dispatchHead.prev, l.dispatchHead.next = l.dispatchHead, l.dispatchHead

	backend, err := newPlatformBackend(watchers, l)
	if err != nil {
		return nil, err
	}
	l.backend = backend

	return l, nil
}

// EventTime returns the time the current dispatch round started, i.e. the
// value of time.Now captured at the top of the current (or most recently
// completed) loop iteration. Timer.SetAfter measures relative to this, not
// wall-clock time at the moment of the call.
func (l *EventLoop) EventTime() time.Time {
	return l.eventTime
}

// Stop requests that Run return once the current handler (if any) finishes.
// Owner-thread-only: the stop flag is a plain field, so Stop is normally
// called from a handler running on the loop goroutine itself.
func (l *EventLoop) Stop() {
	l.stop = true
}

// runHandler invokes fn, recovering and logging any panic so one
// misbehaving Timer, AsyncSignal, or FdWatcher handler cannot take down the
// whole loop; the dispatch round then proceeds exactly as if the handler
// had returned normally.
func (l *EventLoop) runHandler(category string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.opts.logger.Err().Err(fmt.Errorf("%v", r)).
				Str("category", category).
				Log("evcore: handler panicked")
		}
	}()
	fn()
}

func (l *EventLoop) checkOwner() error {
	if !l.opts.checkOwner {
		return nil
	}
	id := l.ownerGoroutine.Load()
	if id == 0 {
		return nil
	}
	if id != goroutineID() {
		return ErrNotOwnerThread
	}
	return nil
}

// Run drives the loop until Stop is called, a handler requests it, or an
// unrecoverable backend error occurs. It is not reentrant: calling Run while
// already running on this EventLoop returns ErrReentrantRun.
func (l *EventLoop) Run() error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	if l.stop {
		return nil
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrReentrantRun
	}
	defer l.running.Store(false)

	l.ownerGoroutine.Store(goroutineID())
	defer l.ownerGoroutine.Store(0)

	for {
		l.eventTime = time.Now()

		l.prepareTimersForDispatch(l.eventTime)

		if !l.dispatchTimers() {
			return nil
		}

		if !l.backend.DispatchEvents() {
			return nil
		}

		if !l.dispatchAsyncSignals() {
			return nil
		}

		deadline := l.prepareTimersForWait()

		if err := l.waitForEvents(deadline); err != nil {
			l.opts.logger.Err().Err(err).Log("evcore: backend wait failed")
			return err
		}
	}
}

func (l *EventLoop) waitForEvents(deadline time.Time) error {
	capped := deadline
	if maxPoll := l.opts.maxPollTimeout; maxPoll > 0 {
		ceiling := l.eventTime.Add(maxPoll)
		if capped.IsZero() || capped.After(ceiling) {
			capped = ceiling
		}
	}
	changed := !capped.Equal(l.lastWaitTime)
	l.lastWaitTime = capped
	return l.backend.WaitForEvents(capped, changed)
}

// prepareTimersForDispatch moves every timer whose deadline is due into the
// Dispatch phase, so dispatchTimers can fire them in deadline order without
// racing new arrivals inserted mid-round.
//
// Promoting a timer to Dispatch only lowers its heap key (Dispatch sorts
// before Pending), so it never leaves the root after being marked: the due
// prefix has to be popped off first and re-inserted afterward, rather than
// fixed up in place, or every round after the first would only ever promote
// one timer.
func (l *EventLoop) prepareTimersForDispatch(now time.Time) {
	var due []*Timer
	for {
		t := l.timers.first()
		if t == nil || t.state != timerPending || t.deadline.After(now) {
			break
		}
		due = append(due, l.timers.popMin())
	}
	for _, t := range due {
		t.state = timerDispatch
		l.timers.insert(t)
	}
}

// dispatchTimers fires every timer currently in the Dispatch phase, in
// deadline order, moving each to TempUnset immediately before its handler
// runs so a handler's own Unset/SetAt calls are deferred rather than
// mutating the heap mid-iteration.
func (l *EventLoop) dispatchTimers() bool {
	for {
		t := l.timers.first()
		if t == nil || t.state != timerDispatch {
			break
		}

		t.state = timerTempUnset
		l.timers.fixup(t)

		l.runHandler("timer", func() { t.handler(t) })

		if l.stop {
			return false
		}
	}
	return true
}

// prepareTimersForWait resolves every TempUnset/TempSet timer left over from
// the last dispatch round (removing the former, promoting the latter back to
// Pending) and returns the next real deadline, or the zero time if none is
// pending.
func (l *EventLoop) prepareTimersForWait() time.Time {
	for {
		t := l.timers.first()
		if t == nil {
			return time.Time{}
		}
		switch t.state {
		case timerTempUnset:
			l.timers.remove(t)
			t.state = timerIdle
		case timerTempSet:
			t.state = timerPending
			l.timers.fixup(t)
		default:
			return t.deadline
		}
	}
}

// dispatchAsyncSignals splices the pending list into the dispatch list under
// the lock, then drains the dispatch list without holding it, so a Signal
// call from another goroutine mid-drain only ever touches the pending list.
func (l *EventLoop) dispatchAsyncSignals() bool {
	l.asyncMu.Lock()
	if l.pendingHead.next == l.pendingHead {
		l.asyncMu.Unlock()
		return true
	}

	// Splice pending onto dispatch (currently empty/lonely) and reset
	// pending to empty.
	l.dispatchHead.next = l.pendingHead.next
	l.dispatchHead.prev = l.pendingHead.prev
	l.dispatchHead.next.prev = l.dispatchHead
	l.dispatchHead.prev.next = l.dispatchHead
	l.pendingHead.prev, l.pendingHead.next = l.pendingHead, l.pendingHead
	l.asyncMu.Unlock()

	for {
		l.asyncMu.Lock()
		node := l.dispatchHead.next
		if node == l.dispatchHead {
			l.asyncMu.Unlock()
			break
		}
		listRemove(node)
		node.prev, node.next = nil, nil
		l.asyncMu.Unlock()

		l.runHandler("async-signal", func() { node.handler(node) })

		if l.stop {
			return false
		}
	}

	return true
}

func (l *EventLoop) registerWatcher(fd int, w *FdWatcher) {
	l.watchers[fd] = w
}

func (l *EventLoop) unregisterWatcher(fd int) {
	delete(l.watchers, fd)
}

// Close releases the loop's backend resources. Run must not be in progress.
// Callers are expected to Close timers, watchers, and async signals first,
// mirroring the original's destructor assertions; Close does not enforce
// this, it only logs a warning if timers are still set, watchers still
// bound, or async signals still pending.
func (l *EventLoop) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	if len(l.timers) != 0 || len(l.watchers) != 0 || l.pendingHead.next != l.pendingHead {
		l.opts.logger.Warning().Log("evcore: loop closed with timers, watchers, or async signals still attached")
	}
	return l.backend.Close()
}

// goroutineID returns an identifier for the calling goroutine, used only for
// the cheap owner-thread sanity check; it is not otherwise meaningful.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
