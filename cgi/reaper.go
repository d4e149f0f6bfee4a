package cgi

import (
	"log/slog"
	"time"

	"golang.org/x/sys/unix"
)

// Reaper collects exit statuses of killed children without blocking the
// event loop. Children that are not gone yet are retried on every Poll.
type Reaper struct {
	logger  *slog.Logger
	pending []int
}

func NewReaper(logger *slog.Logger) *Reaper {
	return &Reaper{logger: logger}
}

// Reap tries to collect pid once and queues it otherwise. It reports whether
// the child is gone.
func (r *Reaper) Reap(pid int) bool {
	if tryWait(pid) {
		return true
	}
	r.pending = append(r.pending, pid)
	r.logger.Debug("reap-deferred", slog.Int("pid", pid))
	return false
}

// Poll retries all queued children and returns how many are still pending.
func (r *Reaper) Poll() int {
	if len(r.pending) == 0 {
		return 0
	}
	remaining := r.pending[:0]
	for _, pid := range r.pending {
		if !tryWait(pid) {
			remaining = append(remaining, pid)
		}
	}
	r.pending = remaining
	return len(r.pending)
}

func (r *Reaper) Pending() int {
	return len(r.pending)
}

// Drain polls until every queued child is collected or timeout elapses.
func (r *Reaper) Drain(timeout time.Duration) int {
	deadline := time.Now().Add(timeout)
	for r.Poll() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := r.Pending(); n > 0 {
		r.logger.Info("children-not-reaped", slog.Int("count", n))
		return n
	}
	return 0
}

func tryWait(pid int) bool {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			// ECHILD: already collected
			return true
		}
		return wpid == pid
	}
}

func waitBlocking(pid int) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &ws, 0, nil)
		if err != unix.EINTR {
			return
		}
	}
}
