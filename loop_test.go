//go:build linux

package evcore

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLoopInBackground(t *testing.T, l *EventLoop) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- l.Run() }()
	return done
}

func TestNewLoopReturnsWorkingBackend(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()
	assert.NotNil(t, l.backend)
}

func TestRunFiresTimerAndStops(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	var fired atomic.Bool
	tm := NewTimer(l, func(t *Timer) {
		fired.Store(true)
		l.Stop()
	})
	defer tm.Close()
	tm.SetAfter(10 * time.Millisecond)

	done := runLoopInBackground(t, l)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop in time")
	}

	assert.True(t, fired.Load())
}

func TestRunWakesForCrossGoroutineSignal(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	var received atomic.Bool
	var sig *AsyncSignal
	sig = NewAsyncSignal(l, func(*AsyncSignal) {
		received.Store(true)
		l.Stop()
	})
	defer sig.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		sig.Signal()
	}()

	done := runLoopInBackground(t, l)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not wake for signal in time")
	}

	assert.True(t, received.Load())
}

func TestRunFiresFdWatcherOnPipeWrite(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	var mu sync.Mutex
	var gotEvents IOEvents
	w := NewFdWatcher(l, func(events IOEvents) {
		mu.Lock()
		gotEvents = events
		mu.Unlock()
		l.Stop()
	})
	defer w.Close()

	// Watch the read end of a pipe and write to its other end, so the test
	// doesn't reach into the backend's own wake eventfd.
	r, wr, err := pipeFDs()
	require.NoError(t, err)
	defer unixClose(r)
	defer unixClose(wr)

	require.NoError(t, w.Init(r, EventRead))

	go func() {
		time.Sleep(20 * time.Millisecond)
		writeByte(wr)
	}()

	done := runLoopInBackground(t, l)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not observe fd readiness in time")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.NotZero(t, gotEvents&EventRead)
}

func TestRunStopsMidFdBatchWithoutFiringLaterHandlers(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	r1, w1, err := pipeFDs()
	require.NoError(t, err)
	defer unixClose(r1)
	defer unixClose(w1)
	r2, w2, err := pipeFDs()
	require.NoError(t, err)
	defer unixClose(r2)
	defer unixClose(w2)

	var mu sync.Mutex
	var fired []int

	fw1 := NewFdWatcher(l, func(IOEvents) {
		mu.Lock()
		fired = append(fired, 1)
		mu.Unlock()
		l.Stop()
	})
	defer fw1.Close()
	fw2 := NewFdWatcher(l, func(IOEvents) {
		mu.Lock()
		fired = append(fired, 2)
		mu.Unlock()
	})
	defer fw2.Close()

	require.NoError(t, fw1.Init(r1, EventRead))
	require.NoError(t, fw2.Init(r2, EventRead))

	// Both fds are readable before Run starts, so a single EpollWait call
	// should return both in one batch.
	writeByte(w1)
	writeByte(w2)

	require.NoError(t, l.Run())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, fired, 1)
}

func TestRunReentrantReturnsError(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	started := make(chan struct{})
	var once sync.Once
	tm := NewTimer(l, func(t *Timer) {
		once.Do(func() { close(started) })
	})
	defer tm.Close()
	tm.SetAfter(0)

	stopper := NewTimer(l, func(*Timer) { l.Stop() })
	defer stopper.Close()
	stopper.SetAfter(50 * time.Millisecond)

	done := runLoopInBackground(t, l)
	<-started

	err = l.Run()
	assert.ErrorIs(t, err, ErrReentrantRun)

	select {
	case runErr := <-done:
		require.NoError(t, runErr)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop in time")
	}
}

func TestCloseTwiceIsSafe(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}
