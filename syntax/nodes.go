// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package syntax holds the tokenizer, the parser, and the printer for
// the shell's one-line command language: pipelines of commands with
// file redirections and an optional background marker.
package syntax

// Redirection slots on a command. Each maps to the standard file
// descriptor of the same number.
const (
	RedirIn  = iota // <
	RedirOut        // > or >>
	RedirErr        // 2> or 2>>
)

// Command is a single stage of a pipeline: an argument vector plus any
// file redirections attached to it.
type Command struct {
	// Args holds the command name and its arguments, in order. A
	// parsed command always has at least one element.
	Args []string

	// Redir holds the target path for each redirected file
	// descriptor. An empty string leaves the descriptor alone.
	Redir [3]string

	// Append marks an output redirection as appending rather than
	// truncating. Append[RedirIn] is never set.
	Append [3]bool
}

// Pipeline is a non-empty sequence of commands whose outputs feed the
// next command's input.
type Pipeline struct {
	Cmds []*Command

	// Background reports whether the line ended with "&".
	Background bool
}
