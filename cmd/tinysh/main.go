// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// tinysh is an interactive POSIX-like shell with job control: one
// command line per prompt, pipelines, redirections, and background
// jobs tracked with jobs, fg and bg.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"mvdan.cc/tinysh/interp"
	"mvdan.cc/tinysh/syntax"
)

var (
	command     = flag.String("c", "", "command to be executed")
	forkBuiltin = flag.Bool("b", false, "run a builtin pipeline stage (internal use)")
)

var parser = syntax.NewParser()

func main() { os.Exit(main1()) }

func main1() int {
	flag.Parse()
	if *forkBuiltin {
		return interp.ForkedBuiltin(flag.Args())
	}
	name := "tinysh"
	if len(os.Args) > 0 && os.Args[0] != "" {
		name = filepath.Base(os.Args[0])
	}
	runner, err := interp.New(
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
		interp.Name(name),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		return 1
	}
	defer runner.Close()
	if *command != "" {
		return runLine(runner, name, *command)
	}
	return mainLoop(runner, name)
}

// runLine parses and runs a single line, returning the code the shell
// should exit with.
func runLine(r *interp.Runner, name, src string) int {
	pl, err := parser.Parse(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		return 2
	}
	if pl == nil {
		return 0
	}
	switch err := r.Run(pl).(type) {
	case nil:
		return exitCode(r.Exit)
	case interp.ExitStatus:
		return int(err)
	default:
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		return 1
	}
}

// mainLoop is the shell's read-eval loop. Lines come in over a channel
// from a reader goroutine so that a Ctrl-C while waiting for input
// abandons the line and redraws the prompt instead of killing the
// shell. Reads are requested one at a time, between pipelines, so the
// reader never competes with a foreground child for stdin.
func mainLoop(r *interp.Runner, name string) int {
	req := make(chan struct{}, 1)
	lines := make(chan string)
	go readLines(req, lines)

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)
	// SIGTSTP and SIGTTIN must not stop the shell. Catching them via
	// Notify, rather than ignoring them, keeps children on default
	// dispositions after exec.
	tstp := make(chan os.Signal, 1)
	signal.Notify(tstp, unix.SIGTSTP, unix.SIGTTIN)
	go func() {
		for range tstp {
		}
	}()

	pending := false
	for {
		if err := printPrompt(os.Stdout, r.Exit); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			return 255
		}
		if !pending {
			req <- struct{}{}
			pending = true
		}
		select {
		case line, ok := <-lines:
			pending = false
			if !ok {
				fmt.Println()
				return exitCode(r.Exit)
			}
			pl, err := parser.Parse(line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
				continue
			}
			// Run even a nil pipeline: a blank line still flushes
			// pending job notifications before the next prompt.
			switch err := r.Run(pl).(type) {
			case nil:
			case interp.ExitStatus:
				return int(err)
			default:
				fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			}
		case <-sigint:
			// Interrupted while reading; the pending read stays
			// pending and picks up the next full line.
			fmt.Println()
		}
	}
}

// readLines serves one line per request. The channel closes at EOF,
// after delivering any final unterminated line.
func readLines(req <-chan struct{}, lines chan<- string) {
	rd := bufio.NewReader(os.Stdin)
	for range req {
		line, err := rd.ReadString('\n')
		if line != "" {
			lines <- line
		}
		if err != nil {
			close(lines)
			return
		}
	}
}

// printPrompt writes the two-line prompt:
//
//	<user>@<host>: <path>
//	[<code>]->
//
// with a HOME prefix of the working directory shortened to "~".
func printPrompt(w io.Writer, code int) error {
	home, ok := os.LookupEnv("HOME")
	if !ok {
		return fmt.Errorf(`"HOME" not set`)
	}
	user, ok := os.LookupEnv("USER")
	if !ok {
		return fmt.Errorf(`"USER" not set`)
	}
	host, err := os.Hostname()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s@%s: %s\n[%d]-> ", user, host, shortenHome(cwd, home), code)
	return nil
}

// shortenHome replaces a leading home prefix with "~" when the
// boundary falls on a "/" or the end of the path.
func shortenHome(cwd, home string) string {
	if cwd == home {
		return "~"
	}
	if strings.HasPrefix(cwd, home) && cwd[len(home)] == '/' {
		return "~" + cwd[len(home):]
	}
	return cwd
}

// exitCode caps a shell status at what the OS can report.
func exitCode(code int) int {
	if code < 0 {
		return 1
	}
	if code > 255 {
		return 255
	}
	return code
}
