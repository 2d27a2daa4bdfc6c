// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build unix

package interp

import (
	"golang.org/x/sys/unix"
)

// reapLoop drains child-exit notifications. It is the only goroutine
// besides the main line that touches the job table, and it never
// writes to the shell's output: reporting is deferred to the next
// notification pass on the main line.
func (r *Runner) reapLoop() {
	for range r.sigchld {
		r.jobs.mu.Lock()
		r.reap()
		r.jobs.mu.Unlock()
	}
}

// reap polls for child status changes without blocking and updates the
// owning job for each one. Children the table does not know are
// discarded. The table mutex must be held.
func (r *Runner) reap() {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
		if err == unix.EINTR {
			continue
		}
		if pid <= 0 || err != nil {
			break
		}
		j := r.jobs.byPid(pid)
		if j == nil {
			continue
		}
		switch {
		case ws.Stopped():
			j.state = stateStopped
			j.notified = false
		case ws.Continued():
			j.state = stateRunning
			j.notified = false
		default: // exited or signaled
			if pid == j.lastPid {
				j.lastCode, j.lastCodeValid = exitCode(ws), true
			}
			j.alive--
			if j.alive == 0 {
				j.state = stateDone
				j.notified = false
			}
		}
	}
	r.jobs.cond.Broadcast()
}

// exitCode maps a raw wait status onto the shell's exit-code
// conventions: the low 8 bits for a normal exit, 128 plus the signal
// number for a signal death.
func exitCode(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	}
	return 0
}
