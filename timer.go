package evcore

import "time"

// TimerHandler is invoked when a Timer expires. It runs on the owning
// EventLoop's goroutine.
type TimerHandler func(t *Timer)

// Timer is a one-shot deadline callback scheduled on an EventLoop. A Timer
// must be created with NewTimer and, once no longer needed, released with
// Close so the loop can free its heap slot.
//
// All methods must be called from the goroutine running the owning loop's
// Run, except where noted.
type Timer struct {
	loop     *EventLoop
	handler  TimerHandler
	deadline time.Time
	state    timerState
	index    int // position in the loop's timerHeap, -1 when not present
}

// NewTimer creates a Timer bound to loop. The timer starts unset; call SetAt
// or SetAfter to arm it.
func NewTimer(loop *EventLoop, handler TimerHandler) *Timer {
	if handler == nil {
		panic("evcore: NewTimer requires a non-nil handler")
	}
	return &Timer{
		loop:    loop,
		handler: handler,
		state:   timerIdle,
		index:   -1,
	}
}

// IsSet reports whether the timer currently has a pending deadline. A timer
// selected for dispatch (state Dispatch) is considered set until its handler
// starts; inside its own handler it reports false unless the handler re-arms
// it, matching EventLoopTimer::isSet's Idle/TempUnset exclusion.
func (t *Timer) IsSet() bool {
	return t.state != timerIdle && t.state != timerTempUnset
}

// Deadline returns the time last passed to SetAt or SetAfter. The value is
// meaningless while IsSet is false.
func (t *Timer) Deadline() time.Time {
	return t.deadline
}

// Unset cancels a pending timer. It is a no-op if the timer is not set. Safe
// to call from within the timer's own handler.
func (t *Timer) Unset() {
	switch t.state {
	case timerTempUnset, timerTempSet:
		// Mid-dispatch: defer the unset until prepareTimersForWait
		// resolves it, rather than mutating the heap while the
		// dispatch loop still holds a pointer into it.
		t.state = timerTempUnset
	case timerIdle:
		// already unset
	default:
		t.loop.timers.remove(t)
		t.state = timerIdle
	}
}

// SetAt arms the timer to fire at the given absolute time, replacing any
// previously scheduled deadline.
func (t *Timer) SetAt(deadline time.Time) {
	t.deadline = deadline

	switch t.state {
	case timerTempUnset, timerTempSet:
		t.state = timerTempSet
	default:
		old := t.state
		t.state = timerPending
		if old == timerIdle {
			t.loop.timers.insert(t)
		} else {
			t.loop.timers.fixup(t)
		}
	}
}

// SetAfter arms the timer to fire after duration has elapsed, measured from
// the loop's current tick time (EventLoop.EventTime), not from wall time.
func (t *Timer) SetAfter(duration time.Duration) {
	t.SetAt(t.loop.EventTime().Add(duration))
}

// Close releases the timer, removing it from the loop's heap if still set.
// A Timer must not be used after Close.
func (t *Timer) Close() error {
	if t.state != timerIdle {
		t.loop.timers.remove(t)
		t.state = timerIdle
	}
	return nil
}
