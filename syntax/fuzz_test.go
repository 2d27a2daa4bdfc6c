// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build go1.18

package syntax

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// FuzzParsePrint checks that printing any parsed pipeline gives a line
// that parses back into the same pipeline.
func FuzzParsePrint(f *testing.F) {
	f.Add("echo hello")
	f.Add("ls -la | grep .c | wc -l")
	f.Add("cat < in.txt > out.txt 2>> err.txt")
	f.Add("sleep 100 &")
	f.Add(`echo 'a b' '' "x'y" 'a|b'`)
	f.Add("~user x~ '~'")
	f.Add("a\\b \"\\\\\" \"\\\"\"")
	f.Fuzz(func(t *testing.T, src string) {
		p := NewParser()
		pl, err := p.Parse(src)
		if err != nil || pl == nil {
			// Not a valid line; nothing to round-trip.
			t.Skip()
		}
		printed := pl.String()
		again, err := p.Parse(printed)
		if err != nil {
			t.Fatalf("%q printed as %q, which fails to reparse: %v", src, printed, err)
		}
		if diff := cmp.Diff(pl, again); diff != "" {
			t.Fatalf("%q printed as %q, which parses differently:\n%s", src, printed, diff)
		}
	})
}

func FuzzQuote(f *testing.F) {
	f.Add("foo")
	f.Add("a b")
	f.Add(`"won't"`)
	f.Add("~/home")
	f.Add("a|b&c")
	f.Add("nonprint-\x0b\x1b")
	f.Fuzz(func(t *testing.T, s string) {
		if s == "~" || strings.HasPrefix(s, "~/") {
			// Tilde expansion runs after quote stripping, so
			// these words have no literal spelling at all.
			t.Skip()
		}
		lex := &lexer{src: Quote(s)}
		tok, val, err := lex.next()
		if err != nil {
			// over-long words cannot round-trip either
			t.Skip()
		}
		if tok != _Word || val != s {
			t.Fatalf("%q quoted as %q reads back as %q", s, Quote(s), val)
		}
		if tok, _, _ := lex.next(); tok != _EOF {
			t.Fatalf("%q quoted as %q reads back as more than one token", s, Quote(s))
		}
	})
}
