//go:build linux

package evcore

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// maxEpollEvents bounds a single EpollWait call, matching the buffer size
// most epoll-based loops in the ecosystem preallocate.
const maxEpollEvents = 256

// epollBackend is the Linux readinessBackend, built on epoll for descriptor
// readiness and an eventfd for cross-goroutine wakeups.
type epollBackend struct {
	epfd   int
	wakeFD int
	// watchers is the same map instance EventLoop registers FdWatchers
	// into, shared rather than duplicated so DispatchEvents can look up a
	// handler by fd without a separate synchronization path.
	watchers map[int]*FdWatcher
	// loop lets DispatchEvents notice a Stop() called from within a
	// handler partway through a batch, matching the per-handler stop
	// check dispatchTimers and dispatchAsyncSignals already do.
	loop     *EventLoop
	eventBuf [maxEpollEvents]unix.EpollEvent
	ready    []unix.EpollEvent
}

func newPlatformBackend(watchers map[int]*FdWatcher, loop *EventLoop) (readinessBackend, error) {
	return newEpollBackend(watchers, loop)
}

func newEpollBackend(watchers map[int]*FdWatcher, loop *EventLoop) (*epollBackend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("evcore: epoll_create1: %w", err)
	}

	wakeFD, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("evcore: eventfd: %w", err)
	}

	b := &epollBackend{
		epfd:     epfd,
		wakeFD:   wakeFD,
		watchers: watchers,
		loop:     loop,
	}

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFD, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wakeFD),
	}); err != nil {
		_ = unix.Close(wakeFD)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("evcore: epoll_ctl add wake fd: %w", err)
	}

	return b, nil
}

func eventsToEpoll(events IOEvents) uint32 {
	var e uint32
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func epollToEvents(e uint32) IOEvents {
	var events IOEvents
	if e&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if e&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if e&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		events |= EventHangup
	}
	return events
}

func (b *epollBackend) InitFD(fd int, mask IOEvents) error {
	ev := &unix.EpollEvent{Events: eventsToEpoll(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return fmt.Errorf("evcore: epoll_ctl add fd %d: %w", fd, err)
	}
	return nil
}

func (b *epollBackend) UpdateEvents(fd int, mask IOEvents) error {
	ev := &unix.EpollEvent{Events: eventsToEpoll(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return fmt.Errorf("evcore: epoll_ctl mod fd %d: %w", fd, err)
	}
	return nil
}

func (b *epollBackend) ResetFD(fd int) error {
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("evcore: epoll_ctl del fd %d: %w", fd, err)
	}
	return nil
}

// SignalToCheckAsync wakes a blocked WaitForEvents by writing to the
// eventfd. Concurrent writes coalesce, which is fine: dispatchAsyncSignals
// only needs to know "something changed," not how many times.
func (b *epollBackend) SignalToCheckAsync() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(b.wakeFD, buf[:])
}

// WaitForEvents blocks in epoll_wait until a descriptor is ready, the wake
// eventfd fires, or deadline elapses. A zero deadline means no timer is
// pending, so epoll_wait blocks indefinitely. deadlineChanged is accepted
// for interface symmetry with backends that must recompute a derived timer
// (e.g. a timerfd); epoll_wait's timeout parameter is cheap to recompute
// every call, so this backend ignores it.
func (b *epollBackend) WaitForEvents(deadline time.Time, deadlineChanged bool) error {
	timeoutMS := -1
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d < 0 {
			d = 0
		}
		timeoutMS = int(d / time.Millisecond)
		if timeoutMS == 0 && d > 0 {
			timeoutMS = 1
		}
	}

	n, err := unix.EpollWait(b.epfd, b.eventBuf[:], timeoutMS)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("evcore: epoll_wait: %w", err)
	}
	b.ready = b.eventBuf[:n]
	return nil
}

// DispatchEvents delivers the readiness events collected by the last
// WaitForEvents call to their registered FdWatchers, stopping partway
// through the batch if a handler calls Stop.
func (b *epollBackend) DispatchEvents() bool {
	ok := true
	for _, ev := range b.ready {
		fd := int(ev.Fd)
		if fd == b.wakeFD {
			drainWakeFD(b.wakeFD)
			continue
		}
		if w, ok := b.watchers[fd]; ok {
			events := epollToEvents(ev.Events)
			b.loop.runHandler("fd", func() { w.handler(events) })
		}
		if b.loop.stop {
			ok = false
			break
		}
	}
	b.ready = nil
	return ok
}

func drainWakeFD(fd int) {
	var buf [8]byte
	for {
		_, err := unix.Read(fd, buf[:])
		if err != nil {
			return
		}
	}
}

func (b *epollBackend) Close() error {
	err1 := unix.Close(b.wakeFD)
	err2 := unix.Close(b.epfd)
	if err1 != nil {
		return err1
	}
	return err2
}
