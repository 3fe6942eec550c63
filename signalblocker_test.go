//go:build linux

package evcore

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockSignalsOpensReadableFD(t *testing.T) {
	b, err := BlockSignals(syscall.SIGUSR1)
	require.NoError(t, err)
	defer b.Close()

	assert.GreaterOrEqual(t, b.FD(), 0)
}

func TestBlockSignalsDeliversViaSignalfd(t *testing.T) {
	b, err := BlockSignals(syscall.SIGUSR1)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	var got IOEvents
	w := NewFdWatcher(l, func(events IOEvents) {
		got = events
		l.Stop()
	})
	defer w.Close()
	require.NoError(t, w.Init(b.FD(), EventRead))

	done := make(chan error, 1)
	go func() { done <- l.Run() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("signal was not delivered through the loop in time")
	}

	assert.NotZero(t, got&EventRead)
}

func TestBlockSignalsRejectsUnsupportedSignalType(t *testing.T) {
	_, err := BlockSignals(fakeSignal{})
	assert.Error(t, err)
}

type fakeSignal struct{}

func (fakeSignal) String() string { return "fake" }
func (fakeSignal) Signal()        {}
