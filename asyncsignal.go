package evcore

// AsyncSignalHandler is invoked when a signaled AsyncSignal is drained. It
// runs on the owning EventLoop's goroutine.
type AsyncSignalHandler func(s *AsyncSignal)

// AsyncSignal is a cross-goroutine wakeup: any goroutine may call Signal to
// request that the owning loop invoke the handler, once, on its own
// goroutine. Repeated calls to Signal before the handler runs coalesce into
// a single dispatch.
//
// Signal is the sole method safe to call from a goroutine other than the
// loop's owner. Every other method, including Close, is owner-thread-only.
type AsyncSignal struct {
	loop    *EventLoop
	handler AsyncSignalHandler

	// prev/next realize the intrusive circular list node the signal lives
	// on. Both nil means the signal is on neither list ("removed" in the
	// original's terms); this package never uses container/list because
	// splicing one list into another there copies elements instead of
	// moving them, which would invalidate the O(1) removal this queue
	// depends on.
	prev, next *AsyncSignal
}

// NewAsyncSignal creates an AsyncSignal bound to loop, initially unsignaled.
func NewAsyncSignal(loop *EventLoop, handler AsyncSignalHandler) *AsyncSignal {
	if handler == nil {
		panic("evcore: NewAsyncSignal requires a non-nil handler")
	}
	return &AsyncSignal{
		loop:    loop,
		handler: handler,
	}
}

// removed reports whether the signal is on neither list.
func (s *AsyncSignal) removed() bool {
	return s.prev == nil && s.next == nil
}

// listInsertBefore splices s into the circular list immediately before head,
// i.e. at the tail of the list rooted at head.
func listInsertBefore(s, head *AsyncSignal) {
	s.prev = head.prev
	s.next = head
	head.prev.next = s
	head.prev = s
}

// listRemove unlinks s from whatever circular list it is currently on. s
// must not already be removed.
func listRemove(s *AsyncSignal) {
	s.prev.next = s.next
	s.next.prev = s.prev
}

// Signal requests that the handler run on the loop's goroutine. Safe to call
// from any goroutine, including the loop's own. If this call transitions the
// pending queue from empty to non-empty, the backend is woken so the loop
// notices even if it is currently blocked in WaitForEvents.
func (s *AsyncSignal) Signal() {
	loop := s.loop
	insertedFirst := false

	loop.asyncMu.Lock()
	if s.removed() {
		insertedFirst = loop.pendingHead.next == loop.pendingHead
		listInsertBefore(s, loop.pendingHead)
	}
	loop.asyncMu.Unlock()

	if insertedFirst {
		loop.backend.SignalToCheckAsync()
	}
}

// Reset cancels a pending signal, preventing its handler from running if it
// has not already started. It is a no-op if the signal is not pending.
// Owner-thread-only, matching the original's ~EventLoopAsyncSignal/reset,
// which run only from the loop's own destructor or user code on the loop
// goroutine.
func (s *AsyncSignal) Reset() {
	loop := s.loop
	loop.asyncMu.Lock()
	if !s.removed() {
		listRemove(s)
		s.prev, s.next = nil, nil
	}
	loop.asyncMu.Unlock()
}

// Close releases the signal, equivalent to Reset.
func (s *AsyncSignal) Close() error {
	s.Reset()
	return nil
}
