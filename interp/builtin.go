// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"fmt"
	"os"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// builtinCd implements cd: no argument goes to HOME, "-" goes to
// OLDPWD and echoes the new directory, anything else is the target
// itself. The target must exist, be a directory, and be searchable.
// On success OLDPWD holds the directory we left and PWD the one we
// entered.
func (r *Runner) builtinCd(args []string) {
	var path string
	echo := false
	switch {
	case len(args) > 1:
		r.printErr("cd", "too many arguments", nil)
		r.Exit = 1
		return
	case len(args) == 0:
		home, ok := os.LookupEnv("HOME")
		if !ok {
			r.printErr("cd", `"HOME" not set`, nil)
			r.Exit = 1
			return
		}
		path = home
	case args[0] == "-":
		old, ok := os.LookupEnv("OLDPWD")
		if !ok {
			r.printErr("cd", `"OLDPWD" not set`, nil)
			r.Exit = 1
			return
		}
		path = old
		echo = true
	default:
		path = args[0]
	}
	info, err := os.Stat(path)
	if err != nil {
		r.printErr("cd", path, err)
		r.Exit = 1
		return
	}
	if !info.IsDir() {
		r.printErr("cd", path, syscall.ENOTDIR)
		r.Exit = 1
		return
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		r.printErr("cd", path, err)
		r.Exit = 1
		return
	}
	cwd, err := os.Getwd()
	if err != nil {
		r.printErr("cd", "getwd", err)
		r.Exit = 1
		return
	}
	if err := os.Chdir(path); err != nil {
		r.printErr("cd", path, err)
		r.Exit = 1
		return
	}
	if echo {
		fmt.Fprintln(r.stdout, path)
	}
	os.Setenv("OLDPWD", cwd)
	if cwd, err := os.Getwd(); err == nil {
		os.Setenv("PWD", cwd)
	}
	r.Exit = 0
}

// builtinExit asks the shell to terminate by returning an ExitStatus.
// Usage errors keep the shell running: a non-numeric argument sets the
// exit code to 2, extra arguments to 1.
func (r *Runner) builtinExit(args []string) error {
	switch len(args) {
	case 0:
		r.Exit = 0
		return ExitStatus(0)
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			r.printErr("exit", args[0]+": numeric argument required", nil)
			r.Exit = 2
			return nil
		}
		r.Exit = n & 0xff
		return ExitStatus(r.Exit)
	}
	r.printErr("exit", "too many arguments", nil)
	r.Exit = 1
	return nil
}

// builtinJobs prints the table in jid order. Unlike the notification
// pass, it consumes nothing: pending state changes stay pending.
func (r *Runner) builtinJobs() {
	r.jobs.mu.Lock()
	defer r.jobs.mu.Unlock()
	for _, j := range r.jobs.slots {
		if j != nil {
			fmt.Fprintln(r.stdout, r.jobs.format(j))
		}
	}
	r.Exit = 0
}

// builtinFg resumes a job in the foreground: the job becomes current,
// its group is continued and given the terminal, and the shell waits
// for it the same way it waits for a fresh foreground pipeline.
func (r *Runner) builtinFg(args []string) {
	t := &r.jobs
	t.mu.Lock()
	j := r.resolveJob("fg", args)
	if j == nil {
		t.mu.Unlock()
		return
	}
	t.promote(j)
	// A job with nothing left alive finished between the last
	// notification pass and now; there is nothing to resume or wait
	// for, only state to settle.
	if j.alive > 0 {
		j.state = stateRunning
		j.notified = false
		unix.Kill(-j.pgid, unix.SIGCONT)
		if r.interactive {
			tcSetForeground(r.stdin, j.pgid)
		}
		r.waitJob(j)
	}
	r.finalizeForeground(j)
	t.mu.Unlock()
	r.notifyJobs()
}

// builtinBg resumes a job in the background: the job becomes current,
// its group is continued, and a job line with a trailing "&" reminds
// the user where it went.
func (r *Runner) builtinBg(args []string) {
	t := &r.jobs
	t.mu.Lock()
	j := r.resolveJob("bg", args)
	if j == nil {
		t.mu.Unlock()
		return
	}
	t.promote(j)
	if j.alive > 0 {
		j.state = stateRunning
		j.notified = false
		unix.Kill(-j.pgid, unix.SIGCONT)
	}
	fmt.Fprintf(r.stdout, "%s &\n", t.format(j))
	t.mu.Unlock()
	r.Exit = 0
}

// resolveJob parses a job spec and resolves it in the table, reporting
// the failure itself under the builtin's name. The table mutex must be
// held.
func (r *Runner) resolveJob(op string, args []string) *job {
	spec, err := parseJobSpec(args)
	var j *job
	if err == nil {
		j = r.jobs.find(spec)
	}
	if j == nil {
		msg := "no such job"
		if len(args) > 0 {
			msg = args[0] + ": no such job"
		}
		r.printErr(op, msg, nil)
		r.Exit = 1
		return nil
	}
	return j
}

// ForkedBuiltin runs a builtin that appears as a pipeline stage, in
// place of the run-in-forked-child flow a Go program cannot express:
// the shell re-executes itself with a hidden flag, and this is the
// other side. args is the raw argv after the flag: the shell's exit
// code at launch time, then the builtin's own argv. The return value
// is the helper process's exit code.
func ForkedBuiltin(args []string) int {
	if len(args) < 2 {
		return 1
	}
	code, err := strconv.Atoi(args[0])
	if err != nil {
		return 1
	}
	r := &Runner{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		name:   "tinysh",
		Exit:   code,
	}
	switch args[1] {
	case "cd":
		r.builtinCd(args[2:])
	case "exit":
		if st, ok := r.builtinExit(args[2:]).(ExitStatus); ok {
			return int(st)
		}
	default:
		return 1
	}
	return r.Exit
}
