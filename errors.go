package evcore

import "errors"

// Sentinel errors returned by package evcore. Callers should compare with
// errors.Is rather than direct equality where a value may be wrapped.
var (
	// ErrLoopClosed is returned by EventLoop.Run once Close has been called
	// on the loop. Timer, AsyncSignal, and FdWatcher methods do not check
	// for a closed loop.
	ErrLoopClosed = errors.New("evcore: loop closed")

	// ErrReentrantRun is returned by Run if it is called while already
	// running on the same EventLoop.
	ErrReentrantRun = errors.New("evcore: Run is not reentrant")

	// ErrFDAlreadyBound is returned by FdWatcher.Init if the watcher
	// already has a descriptor bound.
	ErrFDAlreadyBound = errors.New("evcore: fd watcher already has a bound descriptor")

	// ErrFDNotBound is returned by FdWatcher.UpdateEvents if no descriptor
	// is currently bound.
	ErrFDNotBound = errors.New("evcore: fd watcher has no bound descriptor")

	// ErrUnsupportedPlatform is returned by NewLoop on platforms without a
	// readiness backend.
	ErrUnsupportedPlatform = errors.New("evcore: no readiness backend for this platform")

	// ErrNotOwnerThread is returned by FdWatcher.Init and
	// FdWatcher.UpdateEvents when called, while Run is in progress, from a
	// goroutine other than the one running it and the loop's owner-check is
	// enabled. Other owner-goroutine-only methods are not checked.
	ErrNotOwnerThread = errors.New("evcore: called from a goroutine other than the loop's owner")

	// ErrInvalidEvents is returned when a caller passes an IOEvents mask
	// containing bits other than EventRead and EventWrite; EventError and
	// EventHangup are reported by the backend and cannot be requested.
	ErrInvalidEvents = errors.New("evcore: invalid IOEvents mask")
)
