// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"os"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func lit(args ...string) *Command {
	return &Command{Args: args}
}

func TestParse(t *testing.T) {
	tests := [...]struct {
		in   string
		want *Pipeline
	}{
		{"echo hello", &Pipeline{Cmds: []*Command{lit("echo", "hello")}}},
		{"  echo \t hello \r\n", &Pipeline{Cmds: []*Command{lit("echo", "hello")}}},
		{"ls -la | grep .c | wc -l", &Pipeline{Cmds: []*Command{
			lit("ls", "-la"),
			lit("grep", ".c"),
			lit("wc", "-l"),
		}}},
		{"sleep 100 &", &Pipeline{
			Cmds:       []*Command{lit("sleep", "100")},
			Background: true,
		}},
		{"sleep 100&", &Pipeline{
			Cmds:       []*Command{lit("sleep", "100")},
			Background: true,
		}},
		{"cat < in.txt > out.txt", &Pipeline{Cmds: []*Command{{
			Args:  []string{"cat"},
			Redir: [3]string{"in.txt", "out.txt", ""},
		}}}},
		{"cmd>out", &Pipeline{Cmds: []*Command{{
			Args:  []string{"cmd"},
			Redir: [3]string{"", "out", ""},
		}}}},
		{"cmd >> out", &Pipeline{Cmds: []*Command{{
			Args:   []string{"cmd"},
			Redir:  [3]string{"", "out", ""},
			Append: [3]bool{false, true, false},
		}}}},
		{"cmd 2> err", &Pipeline{Cmds: []*Command{{
			Args:  []string{"cmd"},
			Redir: [3]string{"", "", "err"},
		}}}},
		{"cmd 2>>err", &Pipeline{Cmds: []*Command{{
			Args:   []string{"cmd"},
			Redir:  [3]string{"", "", "err"},
			Append: [3]bool{false, false, true},
		}}}},
		// "2" is a literal word unless directly followed by ">".
		{"echo 2 > f", &Pipeline{Cmds: []*Command{{
			Args:  []string{"echo", "2"},
			Redir: [3]string{"", "f", ""},
		}}}},
		{"echo 2x", &Pipeline{Cmds: []*Command{lit("echo", "2x")}}},
		{"echo 22>f", &Pipeline{Cmds: []*Command{{
			Args:  []string{"echo", "22"},
			Redir: [3]string{"", "f", ""},
		}}}},
		{"echo 'a b'", &Pipeline{Cmds: []*Command{lit("echo", "a b")}}},
		{"echo 'a'b'c'", &Pipeline{Cmds: []*Command{lit("echo", "abc")}}},
		{`echo "a b"`, &Pipeline{Cmds: []*Command{lit("echo", "a b")}}},
		{`echo "a\"b"`, &Pipeline{Cmds: []*Command{lit("echo", `a"b`)}}},
		{`echo "\\"`, &Pipeline{Cmds: []*Command{lit("echo", `\`)}}},
		// a backslash outside double quotes is just a byte
		{`echo a\b`, &Pipeline{Cmds: []*Command{lit("echo", `a\b`)}}},
		{`echo "'"`, &Pipeline{Cmds: []*Command{lit("echo", "'")}}},
		{`echo '"'`, &Pipeline{Cmds: []*Command{lit("echo", `"`)}}},
		{"echo ''", &Pipeline{Cmds: []*Command{lit("echo", "")}}},
		{"echo '|' 'a&b'", &Pipeline{Cmds: []*Command{lit("echo", "|", "a&b")}}},
	}
	p := NewParser()
	for _, test := range tests {
		test := test
		t.Run("", func(t *testing.T) {
			got, err := p.Parse(test.in)
			qt.Assert(t, err, qt.IsNil)
			qt.Assert(t, got, qt.DeepEquals, test.want)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	p := NewParser()
	for _, in := range []string{"", "   ", "\t", "\n", " \r\n"} {
		got, err := p.Parse(in)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, got, qt.IsNil)
	}
}

func TestParseErr(t *testing.T) {
	tests := [...]struct {
		in   string
		want string
	}{
		{"| foo", "parse error near '|'"},
		{"foo | | bar", "parse error near '|'"},
		{"foo |", "empty command"},
		{"foo | bar |", "empty command"},
		{"> out", "empty command"},
		{"&", "empty command"},
		{"foo > ", "parse error near '>'"},
		{"foo <", "parse error near '<'"},
		{"foo 2>", "parse error near '2>'"},
		{"foo > a > b", "parse error near '>'"},
		{"foo >> a > b", "parse error near '>'"},
		{"foo < a < b", "parse error near '<'"},
		{"foo 2> a 2>> b", "parse error near '2>>'"},
		{"foo > | bar", "parse error near '>'"},
		{"foo & bar", "parse error near '&'"},
		{"foo & &", "parse error near '&'"},
		{"foo & > out", "parse error near '&'"},
		{"echo 'unclosed", "unclosed quote"},
		{`echo "unclosed`, "unclosed quote"},
		{`echo "end\"`, "unclosed quote"},
	}
	p := NewParser()
	for _, test := range tests {
		test := test
		t.Run("", func(t *testing.T) {
			_, err := p.Parse(test.in)
			qt.Assert(t, err, qt.Not(qt.IsNil))
			qt.Assert(t, err.Error(), qt.Equals, test.want)
		})
	}
}

func TestParseWordLength(t *testing.T) {
	p := NewParser()

	long := strings.Repeat("a", 4095)
	got, err := p.Parse(long)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got.Cmds[0].Args[0], qt.Equals, long)

	_, err = p.Parse(strings.Repeat("a", 4096))
	qt.Assert(t, err, qt.Not(qt.IsNil))
	qt.Assert(t, err.Error(), qt.Equals, "word too long")
}

func TestParseTilde(t *testing.T) {
	t.Setenv("HOME", "/home/someone")
	p := NewParser()

	tests := [...]struct {
		in, want string
	}{
		{"~", "/home/someone"},
		{"~/", "/home/someone/"},
		{"~/file", "/home/someone/file"},
		// "~user" is not implemented and passes through
		{"~user", "~user"},
		{"~~", "~~"},
		// quotes are stripped before the expansion check
		{"'~'", "/home/someone"},
		{"x~", "x~"},
	}
	for _, test := range tests {
		got, err := p.Parse("echo " + test.in)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, got.Cmds[0].Args[1], qt.Equals, test.want)
	}
}

func TestParseTildeNoHome(t *testing.T) {
	t.Setenv("HOME", "placeholder")
	os.Unsetenv("HOME")
	p := NewParser()

	_, err := p.Parse("echo ~")
	qt.Assert(t, err, qt.Not(qt.IsNil))
	qt.Assert(t, err.Error(), qt.Equals, "HOME not set")

	// a passed-through word never needs HOME
	got, err := p.Parse("echo ~user")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got.Cmds[0].Args[1], qt.Equals, "~user")
}
