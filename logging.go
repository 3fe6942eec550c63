package evcore

import (
	"os"

	"github.com/joeycumines/go-utilpkg/logiface/stumpy"
)

// log is the package default logger, used whenever an EventLoop is
// constructed without WithLogger. It logs backend wait failures that end
// Run, a Close with objects still attached, and recovered handler panics —
// never individual timer fires or signal dispatches.
var log = stumpy.L.New(stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)))
