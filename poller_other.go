//go:build !linux

package evcore

func newPlatformBackend(watchers map[int]*FdWatcher, loop *EventLoop) (readinessBackend, error) {
	return nil, ErrUnsupportedPlatform
}
