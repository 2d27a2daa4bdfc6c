// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "strings"

// Quote returns s in a form that the lexer reads back as exactly one
// word with the value s. Plain words are returned unchanged; words
// holding metacharacters are single-quoted, falling back to double
// quotes with escapes when the word itself holds a single quote.
//
// The one exception is a word that tilde expansion applies to: the
// expansion runs after quotes are stripped, so "~" and "~/..." have no
// literal spelling.
func Quote(s string) string {
	if !needsQuoting(s) {
		return s
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	sb.WriteByte('"')
	return sb.String()
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	// "~" only expands at the start of a word.
	if s[0] == '~' {
		return true
	}
	return strings.ContainsAny(s, " \t\n\r|<>&'\"")
}

func (c *Command) String() string {
	parts := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		parts = append(parts, Quote(a))
	}
	if t := c.Redir[RedirIn]; t != "" {
		parts = append(parts, "<", Quote(t))
	}
	if t := c.Redir[RedirOut]; t != "" {
		op := ">"
		if c.Append[RedirOut] {
			op = ">>"
		}
		parts = append(parts, op, Quote(t))
	}
	if t := c.Redir[RedirErr]; t != "" {
		op := "2>"
		if c.Append[RedirErr] {
			op = "2>>"
		}
		parts = append(parts, op, Quote(t))
	}
	return strings.Join(parts, " ")
}

// String reconstructs a command line that parses back into an
// equivalent pipeline.
func (p *Pipeline) String() string {
	var sb strings.Builder
	for i, c := range p.Cmds {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(c.String())
	}
	if p.Background {
		sb.WriteString(" &")
	}
	return sb.String()
}
