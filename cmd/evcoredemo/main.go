//go:build linux

// Command evcoredemo exercises a Timer, an AsyncSignal fired from a worker
// goroutine, and a signalfd-driven shutdown, all on one evcore.EventLoop.
package main

import (
	"fmt"
	"os"
	"syscall"
	"time"
	"unsafe"

	"github.com/loopforge/evcore"
	"golang.org/x/sys/unix"
)

func main() {
	loop, err := evcore.NewLoop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "evcoredemo:", err)
		os.Exit(1)
	}
	defer loop.Close()

	ticks := 0
	var tick *evcore.Timer
	tick = evcore.NewTimer(loop, func(t *evcore.Timer) {
		ticks++
		fmt.Println("tick", ticks)
		t.SetAfter(500 * time.Millisecond)
	})
	tick.SetAfter(500 * time.Millisecond)
	defer tick.Close()

	worker := evcore.NewAsyncSignal(loop, func(s *evcore.AsyncSignal) {
		fmt.Println("worker result received")
	})
	defer worker.Close()

	go func() {
		time.Sleep(1200 * time.Millisecond)
		worker.Signal()
	}()

	blocker, err := evcore.BlockSignals(syscall.SIGINT, syscall.SIGTERM)
	if err != nil {
		fmt.Fprintln(os.Stderr, "evcoredemo:", err)
		os.Exit(1)
	}
	defer blocker.Close()

	sigWatcher := evcore.NewFdWatcher(loop, func(events evcore.IOEvents) {
		var buf [unsafe.Sizeof(unix.SignalfdSiginfo{})]byte
		_, _ = unix.Read(blocker.FD(), buf[:])
		fmt.Println("shutdown signal received")
		loop.Stop()
	})
	defer sigWatcher.Close()
	if err := sigWatcher.Init(blocker.FD(), evcore.EventRead); err != nil {
		fmt.Fprintln(os.Stderr, "evcoredemo:", err)
		os.Exit(1)
	}

	if err := loop.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "evcoredemo:", err)
		os.Exit(1)
	}
}
