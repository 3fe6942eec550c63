package evcore

import "container/heap"

// timerState mirrors the phase-ordered state machine of the original
// EventLoopTimer::TimerState: Idle is never in the heap, and the remaining
// four states are ordered so a heap comparison first orders by phase, then
// by deadline within a phase.
type timerState uint8

const (
	timerStateOrderMask uint8 = 0b11

	timerIdle      timerState = 0
	timerDispatch  timerState = 1
	timerTempUnset timerState = 2
	timerTempSet   timerState = 2 | (1 << 2)
	timerPending   timerState = 3
)

// phase returns the heap ordering key for a state. TempUnset and TempSet
// carry distinct state values (so the two remain distinguishable) but the
// same phase: while a timer is being dispatched, further unset/set-at calls
// only need to be remembered, not reordered, until prepareTimersForWait
// resolves them.
func (s timerState) phase() uint8 {
	return uint8(s) & timerStateOrderMask
}

func (s timerState) String() string {
	switch s {
	case timerIdle:
		return "idle"
	case timerDispatch:
		return "dispatch"
	case timerTempUnset:
		return "temp-unset"
	case timerTempSet:
		return "temp-set"
	case timerPending:
		return "pending"
	}
	return "unknown"
}

// timerHeap is a container/heap realization of the intrusive LinkedHeap the
// original keeps timers in. Each Timer carries its own index field, giving
// O(log n) fixup/remove exactly as the intrusive node would.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	ti, tj := h[i], h[j]
	pi, pj := ti.state.phase(), tj.state.phase()
	if pi != pj {
		return pi < pj
	}
	return ti.deadline.Before(tj.deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

func (h *timerHeap) insert(t *Timer) {
	heap.Push(h, t)
}

func (h *timerHeap) fixup(t *Timer) {
	heap.Fix(h, t.index)
}

func (h *timerHeap) remove(t *Timer) {
	heap.Remove(h, t.index)
}

// popMin removes and returns the current root, maintaining the heap
// invariant over what remains. Used by prepareTimersForDispatch to collect a
// due prefix without a promoted entry masking the ones behind it.
func (h *timerHeap) popMin() *Timer {
	return heap.Pop(h).(*Timer)
}

func (h timerHeap) first() *Timer {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
