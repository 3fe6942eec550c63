package evcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// assertValidHeap fails the test unless h satisfies the heap ordering
// invariant (no child sorts before its parent) and every element's index
// field matches its actual slice position, mirroring the "heap validity
// after every public operation" property.
func assertValidHeap(t *testing.T, h timerHeap) {
	t.Helper()
	for i := range h {
		if h[i].index != i {
			t.Fatalf("timer at position %d has stale index %d", i, h[i].index)
		}
		for _, c := range [2]int{2*i + 1, 2*i + 2} {
			if c < len(h) && h.Less(c, i) {
				t.Fatalf("heap invariant violated: child %d sorts before parent %d", c, i)
			}
		}
	}
}

func TestTimerHeapOrdersByPhaseThenDeadline(t *testing.T) {
	base := time.Now()
	h := timerHeap{}
	tA := &Timer{state: timerPending, deadline: base.Add(5 * time.Second)}
	tB := &Timer{state: timerPending, deadline: base.Add(1 * time.Second)}
	tC := &Timer{state: timerDispatch, deadline: base.Add(10 * time.Second)}

	h.insert(tA)
	h.insert(tB)
	h.insert(tC)
	assertValidHeap(t, h)

	// tC is in the Dispatch phase, which sorts before Pending regardless
	// of deadline.
	assert.Same(t, tC, h.first())
	h.remove(tC)
	assertValidHeap(t, h)

	assert.Same(t, tB, h.first())
	h.remove(tB)
	assertValidHeap(t, h)

	assert.Same(t, tA, h.first())
	h.remove(tA)
	assertValidHeap(t, h)

	assert.Nil(t, h.first())
}

func TestTimerHeapFixupReordersOnDeadlineChange(t *testing.T) {
	base := time.Now()
	h := timerHeap{}
	t1 := &Timer{state: timerPending, deadline: base.Add(1 * time.Second)}
	t2 := &Timer{state: timerPending, deadline: base.Add(2 * time.Second)}
	h.insert(t1)
	h.insert(t2)

	assert.Same(t, t1, h.first())

	t2.deadline = base.Add(0)
	h.fixup(t2)
	assertValidHeap(t, h)

	assert.Same(t, t2, h.first())
}

func TestTimerStatePhaseCollapsesTempStates(t *testing.T) {
	assert.Equal(t, timerTempUnset.phase(), timerTempSet.phase())
	assert.NotEqual(t, timerTempUnset, timerTempSet)
	assert.Less(t, timerDispatch.phase(), timerTempUnset.phase())
	assert.Less(t, timerTempSet.phase(), timerPending.phase())
}
