// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build unix

package interp

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestLookPath(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	exe1 := filepath.Join(dir1, "tool")
	exe2 := filepath.Join(dir2, "tool")
	qt.Assert(t, os.WriteFile(exe1, []byte("#!/bin/sh\n"), 0o755), qt.IsNil)
	qt.Assert(t, os.WriteFile(exe2, []byte("#!/bin/sh\n"), 0o755), qt.IsNil)
	plain := filepath.Join(dir2, "plain")
	qt.Assert(t, os.WriteFile(plain, []byte("data"), 0o644), qt.IsNil)

	t.Setenv("PATH", dir1+string(filepath.ListSeparator)+dir2)

	// the first PATH entry wins
	got, err := lookPath("tool")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, exe1)

	// execute permission is required
	_, err = lookPath("plain")
	qt.Assert(t, err, qt.Equals, errNotFound)

	_, err = lookPath("tinysh-no-such-command")
	qt.Assert(t, err, qt.Equals, errNotFound)

	// a slash bypasses the search entirely
	got, err = lookPath(exe2)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, exe2)
	_, err = lookPath(plain)
	qt.Assert(t, err, qt.Equals, errNotFound)
	_, err = lookPath("./nope/nope")
	qt.Assert(t, err, qt.Equals, errNotFound)
}

func TestLookPathUnset(t *testing.T) {
	t.Setenv("PATH", "placeholder")
	os.Unsetenv("PATH")

	_, err := lookPath("tool")
	qt.Assert(t, err, qt.Not(qt.IsNil))
	qt.Assert(t, err.Error(), qt.Equals, `"PATH" not set`)
}
