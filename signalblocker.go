//go:build linux

package evcore

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// SignalBlocker blocks a set of POSIX signals on the calling OS thread and
// exposes them through a signalfd, so a program built on EventLoop can
// consume them via an ordinary FdWatcher instead of Go's os/signal channel
// delivery.
//
// A SignalBlocker affects only the calling OS thread's signal mask;
// goroutines are not pinned to OS threads by default, so callers that need
// this to hold reliably should call runtime.LockOSThread first.
type SignalBlocker struct {
	fd       int
	origMask unix.Sigset_t
}

// BlockSignals blocks sigs on the calling thread and opens a non-blocking
// signalfd for them.
func BlockSignals(sigs ...os.Signal) (*SignalBlocker, error) {
	var set unix.Sigset_t
	for _, s := range sigs {
		sn, ok := s.(syscall.Signal)
		if !ok {
			return nil, fmt.Errorf("evcore: unsupported signal %v", s)
		}
		addSignal(&set, unix.Signal(sn))
	}

	var orig unix.Sigset_t
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, &orig); err != nil {
		return nil, fmt.Errorf("evcore: pthread_sigmask block: %w", err)
	}

	fd, err := unix.Signalfd(-1, &set, unix.SFD_NONBLOCK|unix.SFD_CLOEXEC)
	if err != nil {
		_ = unix.PthreadSigmask(unix.SIG_SETMASK, &orig, nil)
		return nil, fmt.Errorf("evcore: signalfd: %w", err)
	}

	return &SignalBlocker{fd: fd, origMask: orig}, nil
}

// FD returns the signalfd descriptor, suitable for FdWatcher.Init with
// EventRead.
func (b *SignalBlocker) FD() int { return b.fd }

// Close closes the signalfd and restores the calling thread's original
// signal mask.
func (b *SignalBlocker) Close() error {
	err := unix.Close(b.fd)
	if maskErr := unix.PthreadSigmask(unix.SIG_SETMASK, &b.origMask, nil); maskErr != nil && err == nil {
		err = fmt.Errorf("evcore: pthread_sigmask restore: %w", maskErr)
	}
	return err
}

func addSignal(set *unix.Sigset_t, sig unix.Signal) {
	set.Val[(sig-1)/64] |= 1 << (uint(sig-1) % 64)
}
