// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build unix

package interp

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"mvdan.cc/tinysh/syntax"
)

// runPipeline launches every stage of pl into one shared process
// group, registers the job, and then either reports it (background) or
// waits for it to leave the Running state (foreground).
//
// The table mutex is held from before the first start until the job is
// registered, so the reaper cannot observe a child that the table does
// not know about yet.
func (r *Runner) runPipeline(pl *syntax.Pipeline) error {
	if len(pl.Cmds) > maxProcs {
		r.printErr("", "pipeline too long", nil)
		r.Exit = 1
		return nil
	}
	t := &r.jobs
	t.mu.Lock()

	var (
		pgid     int
		pids     []int
		lastPid  int
		prevRead *os.File

		// status of a final stage that never started
		lastCode      int
		lastCodeValid bool
	)
	foreground := !pl.Background
	for i, c := range pl.Cmds {
		last := i == len(pl.Cmds)-1
		var pr, pw *os.File
		if !last {
			var err error
			if pr, pw, err = os.Pipe(); err != nil {
				t.mu.Unlock()
				r.abortPipeline(pgid, pids, prevRead, foreground)
				r.printErr("pipe", "", err)
				r.Exit = 1
				return nil
			}
		}
		pid, code, started := r.startStage(c, prevRead, pw, pgid)
		if started {
			// Redundant with Setpgid in the child: whichever call
			// runs first wins, and the loser's error means the child
			// already joined or is already gone.
			unix.Setpgid(pid, pgid)
			if pgid == 0 {
				pgid = pid
				if foreground && r.interactive {
					tcSetForeground(r.stdin, pgid)
				}
			}
			pids = append(pids, pid)
			if last {
				lastPid = pid
			}
		} else if last {
			lastCode, lastCodeValid = code, true
		}
		// Each parent-side pipe end has exactly one use left once the
		// stage holding it has been dealt with.
		if prevRead != nil {
			prevRead.Close()
		}
		if pw != nil {
			pw.Close()
		}
		prevRead = pr
	}

	if len(pids) == 0 {
		// No stage started; there is no job to track.
		t.mu.Unlock()
		r.Exit = 0
		if lastCodeValid {
			r.Exit = lastCode
		}
		return nil
	}
	j := t.add(pgid, pids, lastPid, pl.String())
	if j == nil {
		t.mu.Unlock()
		r.abortPipeline(pgid, pids, nil, foreground)
		r.printErr("", "too many jobs", nil)
		r.Exit = 1
		return nil
	}
	if lastCodeValid {
		j.lastCode, j.lastCodeValid = lastCode, true
	}

	if pl.Background {
		fmt.Fprintf(r.stdout, "[%d] %d\n", j.jid, j.pgid)
		r.Exit = 0
		t.mu.Unlock()
		return nil
	}
	r.waitJob(j)
	r.finalizeForeground(j)
	t.mu.Unlock()
	r.notifyJobs()
	return nil
}

// startStage starts one pipeline stage. Its stdio is the shell's own,
// overridden first by the adjacent pipe ends and then by the stage's
// redirections. When the stage cannot start at all, started is false
// and code holds the status the stage counts as having exited with:
// 127 for an unresolvable name, 126 for a start failure, 1 for a
// redirection failure.
func (r *Runner) startStage(c *syntax.Command, pipeIn, pipeOut *os.File, pgid int) (pid, code int, started bool) {
	stdin, stdout, stderr := r.stdin, r.stdout, r.stderr
	if pipeIn != nil {
		stdin = pipeIn
	}
	if pipeOut != nil {
		stdout = pipeOut
	}
	var opened []*os.File
	defer func() {
		// Opened just long enough to be inherited by the child.
		for _, f := range opened {
			f.Close()
		}
	}()
	if target := c.Redir[syntax.RedirIn]; target != "" {
		f, err := os.Open(target)
		if err != nil {
			r.printErr(target, "", err)
			return 0, 1, false
		}
		opened = append(opened, f)
		stdin = f
	}
	if target := c.Redir[syntax.RedirOut]; target != "" {
		f, err := openRedir(target, c.Append[syntax.RedirOut])
		if err != nil {
			r.printErr(target, "", err)
			return 0, 1, false
		}
		opened = append(opened, f)
		stdout = f
	}
	if target := c.Redir[syntax.RedirErr]; target != "" {
		f, err := openRedir(target, c.Append[syntax.RedirErr])
		if err != nil {
			r.printErr(target, "", err)
			return 0, 1, false
		}
		opened = append(opened, f)
		stderr = f
	}

	name := c.Args[0]
	path := ""
	argv := c.Args
	if name == "cd" || name == "exit" {
		// A builtin in a forked context still needs its own process
		// in the group; the shell re-executes itself to provide one.
		exe, err := os.Executable()
		if err != nil {
			r.printErr(name, "", err)
			return 0, 1, false
		}
		path = exe
		argv = append([]string{exe, "-b", strconv.Itoa(r.Exit)}, c.Args...)
	} else {
		p, err := lookPath(name)
		if err != nil {
			r.printErr(name, err.Error(), nil)
			return 0, 127, false
		}
		path = p
	}
	cmd := exec.Cmd{
		Path:   path,
		Args:   argv,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		SysProcAttr: &syscall.SysProcAttr{
			Setpgid: true,
			Pgid:    pgid,
		},
	}
	if err := cmd.Start(); err != nil {
		r.printErr(name, "", err)
		return 0, 126, false
	}
	return cmd.Process.Pid, 0, true
}

// openRedir opens an output redirection target: created if missing,
// truncated or appended to per the parsed operator.
func openRedir(target string, appendMode bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	return os.OpenFile(target, flags, 0o644)
}

// waitJob blocks until j leaves the Running state. The table mutex
// must be held; it is released while waiting, which is when the reaper
// gets to run.
func (r *Runner) waitJob(j *job) {
	for j.state == stateRunning {
		r.jobs.cond.Wait()
	}
}

// finalizeForeground settles the shell after a foreground job has
// stopped or finished: the terminal comes back to the shell on every
// path, and the job's status becomes the shell's exit code. The table
// mutex must be held.
func (r *Runner) finalizeForeground(j *job) {
	if r.interactive {
		tcSetForeground(r.stdin, r.pgid)
	}
	if j.state == stateDone {
		r.Exit = 0
		if j.lastCodeValid {
			r.Exit = j.lastCode
		}
		r.jobs.remove(j)
		return
	}
	// Stopped: keep the job and report it on the next pass.
	r.Exit = 0
	j.notified = false
}

// abortPipeline tears down a partially launched pipeline after a fatal
// setup error. The children already started are killed and reaped
// directly here, since no job was ever registered for the reaper.
func (r *Runner) abortPipeline(pgid int, pids []int, prevRead *os.File, foreground bool) {
	if prevRead != nil {
		prevRead.Close()
	}
	if pgid != 0 {
		unix.Kill(-pgid, unix.SIGKILL)
	}
	for _, pid := range pids {
		var ws unix.WaitStatus
		unix.Wait4(pid, &ws, 0, nil)
	}
	if foreground && r.interactive {
		tcSetForeground(r.stdin, r.pgid)
	}
}
