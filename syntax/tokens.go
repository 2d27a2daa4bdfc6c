// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

type token uint8

// The list of all possible tokens.
const (
	illegalTok token = iota
	_EOF
	_Word

	or     // |
	and    // &
	rdrIn  // <
	rdrOut // >
	appOut // >>
	rdrErr // 2>
	appErr // 2>>
)

func (t token) String() string {
	switch t {
	case _Word:
		return "word"
	case or:
		return "|"
	case and:
		return "&"
	case rdrIn:
		return "<"
	case rdrOut:
		return ">"
	case appOut:
		return ">>"
	case rdrErr:
		return "2>"
	case appErr:
		return "2>>"
	case _EOF:
		return "EOF"
	}
	return "illegal"
}

// bytes that end an unquoted word; all of them either separate words
// or start an operator
func wordBreak(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '|', '<', '>', '&':
		return true
	}
	return false
}

func space(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
