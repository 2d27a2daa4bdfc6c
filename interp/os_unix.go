// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build unix

package interp

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// tcSetForeground hands the terminal's foreground over to pgid.
// Errors are not reported: a shell without terminal control still
// works, just with limited Ctrl-C and Ctrl-Z forwarding.
func tcSetForeground(f *os.File, pgid int) {
	unix.IoctlSetPointerInt(int(f.Fd()), unix.TIOCSPGRP, pgid)
}

// tcForeground returns the terminal's current foreground group.
func tcForeground(f *os.File) (int, error) {
	return unix.IoctlGetInt(int(f.Fd()), unix.TIOCGPGRP)
}

var errNotFound = errors.New("command not found")

// lookPath resolves a command name to an executable path. A name
// holding a slash is taken literally; anything else is searched for in
// the PATH list, and the first entry with execute permission wins. The
// resolved path must fit in PATH_MAX.
func lookPath(name string) (string, error) {
	if strings.Contains(name, "/") {
		if len(name) >= unix.PathMax {
			return "", errNotFound
		}
		if err := unix.Access(name, unix.X_OK); err != nil {
			return "", errNotFound
		}
		return name, nil
	}
	pathEnv, ok := os.LookupEnv("PATH")
	if !ok {
		return "", errors.New(`"PATH" not set`)
	}
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			// otherwise "foo" won't be "./foo"
			dir = "."
		}
		file := filepath.Join(dir, name)
		if len(file) >= unix.PathMax {
			continue
		}
		if err := unix.Access(file, unix.X_OK); err == nil {
			return file, nil
		}
	}
	return "", errNotFound
}
