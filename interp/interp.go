// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package interp executes parsed pipelines. It wires up pipes and
// redirections, launches the stages of a pipeline into a shared
// process group, moves terminal ownership between the shell and its
// foreground jobs, and keeps the job table that jobs, fg and bg work
// against.
package interp

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"mvdan.cc/tinysh/syntax"
)

// A Runner executes parsed pipelines and owns the shell's job-control
// state. It is tied to the process and its controlling terminal, so a
// program normally carries exactly one. Create it with New and release
// it with Close.
type Runner struct {
	stdin  *os.File
	stdout *os.File
	stderr *os.File

	// name prefixes every diagnostic the runner prints.
	name string

	// Exit is the status of the last command.
	Exit int

	// interactive is set when stdin is a terminal; only then does the
	// runner move terminal ownership between process groups.
	interactive bool
	pgid        int // the shell's own process group

	jobs jobTable

	sigchld chan os.Signal
}

// New builds a Runner and starts its child-status reaper. When stdin
// is a terminal, the shell also claims its own process group and the
// terminal foreground, the way an interactive shell must before it can
// hand the terminal to jobs.
func New(opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		name:   "tinysh",
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.jobs.init()
	r.pgid = unix.Getpgrp()
	if term.IsTerminal(int(r.stdin.Fd())) {
		r.interactive = true
		// Setpgid fails with EPERM when we already lead a session;
		// either way the group below is our own.
		unix.Setpgid(0, 0)
		r.pgid = unix.Getpgrp()
		tcSetForeground(r.stdin, r.pgid)
		// Taking the terminal back after a foreground job, the shell
		// is briefly in the background; SIGTTOU must not stop it.
		signal.Ignore(unix.SIGTTOU)
	}
	r.sigchld = make(chan os.Signal, 1)
	signal.Notify(r.sigchld, unix.SIGCHLD)
	go r.reapLoop()
	return r, nil
}

// Close stops the runner's reaper. Jobs that are still alive are left
// running; an exiting shell does not take its background jobs along.
func (r *Runner) Close() error {
	signal.Stop(r.sigchld)
	close(r.sigchld)
	return nil
}

// RunnerOption configures a Runner; see New.
type RunnerOption func(*Runner) error

// StdIO sets the runner's standard input, output and error. The files
// are handed directly to child processes, which is why they cannot be
// plain readers or writers.
func StdIO(in, out, err *os.File) RunnerOption {
	return func(r *Runner) error {
		if in != nil {
			r.stdin = in
		}
		if out != nil {
			r.stdout = out
		}
		if err != nil {
			r.stderr = err
		}
		return nil
	}
}

// Name sets the program name used as the prefix of every diagnostic.
func Name(name string) RunnerOption {
	return func(r *Runner) error {
		r.name = name
		return nil
	}
}

// ExitStatus is returned by Run once the exit builtin asks the shell
// to terminate; its value is the status to exit with.
type ExitStatus uint8

func (s ExitStatus) Error() string { return fmt.Sprintf("exit status %d", s) }

// Run executes one parsed pipeline: pending job notifications are
// reported first, then either a builtin handles the command in the
// shell itself, or the pipeline is launched as a job.
func (r *Runner) Run(pl *syntax.Pipeline) error {
	r.notifyJobs()
	if pl == nil || len(pl.Cmds) == 0 {
		return nil
	}
	if handled, err := r.builtin(pl); handled {
		return err
	}
	return r.runPipeline(pl)
}

// builtin runs pl in the shell process when it is a lone foreground
// command without redirections and its name is a builtin. Job-control
// builtins are tried before cd and exit.
func (r *Runner) builtin(pl *syntax.Pipeline) (bool, error) {
	if len(pl.Cmds) != 1 || pl.Background {
		return false, nil
	}
	c := pl.Cmds[0]
	if c.Redir != [3]string{} {
		return false, nil
	}
	switch c.Args[0] {
	case "jobs":
		r.builtinJobs()
	case "fg":
		r.builtinFg(c.Args[1:])
	case "bg":
		r.builtinBg(c.Args[1:])
	case "cd":
		r.builtinCd(c.Args[1:])
	case "exit":
		return true, r.builtinExit(c.Args[1:])
	default:
		return false, nil
	}
	return true, nil
}

// notifyJobs reports pending Stopped and Done state changes; Done jobs
// leave the table once reported. Notifications only ever come from the
// main line, never from the reaper.
func (r *Runner) notifyJobs() {
	r.jobs.mu.Lock()
	defer r.jobs.mu.Unlock()
	for _, j := range r.jobs.slots {
		if j == nil || j.notified {
			continue
		}
		switch j.state {
		case stateStopped:
			fmt.Fprintln(r.stdout, r.jobs.format(j))
			j.notified = true
		case stateDone:
			fmt.Fprintln(r.stdout, r.jobs.format(j))
			r.jobs.remove(j)
		}
	}
}

// printErr emits one diagnostic line in the shell's shared format:
// "<prog>: [<op>: ]<msg>[: <os-error-text>]".
func (r *Runner) printErr(op, msg string, err error) {
	s := r.name
	if op != "" {
		s += ": " + op
	}
	if msg != "" {
		s += ": " + msg
	}
	if err != nil {
		s += ": " + errText(err)
	}
	fmt.Fprintln(r.stderr, s)
}

// errText prefers the bare OS error string over Go's wrapped forms, so
// a message reads "cd: /x: permission denied" rather than
// "cd: /x: stat /x: permission denied".
func errText(err error) string {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno.Error()
	}
	return err.Error()
}
