// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"tinysh": main1,
	}))
}

func TestScript(t *testing.T) {
	t.Parallel()
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
	})
}

func TestShortenHome(t *testing.T) {
	t.Parallel()
	tests := [...]struct {
		cwd, home, want string
	}{
		{"/home/u", "/home/u", "~"},
		{"/home/u/src", "/home/u", "~/src"},
		{"/home/unrelated", "/home/u", "/home/unrelated"},
		{"/srv/data", "/home/u", "/srv/data"},
		{"/", "/home/u", "/"},
	}
	for _, test := range tests {
		got := shortenHome(test.cwd, test.home)
		qt.Assert(t, got, qt.Equals, test.want)
	}
}

func TestExitCodeCap(t *testing.T) {
	t.Parallel()
	qt.Assert(t, exitCode(0), qt.Equals, 0)
	qt.Assert(t, exitCode(137), qt.Equals, 137)
	qt.Assert(t, exitCode(255), qt.Equals, 255)
	qt.Assert(t, exitCode(256), qt.Equals, 255)
	qt.Assert(t, exitCode(-5), qt.Equals, 1)
}

func TestPrintPrompt(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USER", "tester")
	cwd, err := os.Getwd()
	qt.Assert(t, err, qt.IsNil)
	host, err := os.Hostname()
	qt.Assert(t, err, qt.IsNil)

	var buf bytes.Buffer
	qt.Assert(t, printPrompt(&buf, 3), qt.IsNil)
	want := fmt.Sprintf("\ntester@%s: %s\n[3]-> ", host, cwd)
	qt.Assert(t, buf.String(), qt.Equals, want)
}

func TestPrintPromptNoUser(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USER", "placeholder")
	os.Unsetenv("USER")

	var buf bytes.Buffer
	err := printPrompt(&buf, 0)
	qt.Assert(t, err, qt.Not(qt.IsNil))
	qt.Assert(t, strings.Contains(err.Error(), "USER"), qt.IsTrue)
}
