// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"os"
	"strings"
)

// maxWordLen bounds a single word, including the terminating byte, so
// the longest accepted word is maxWordLen-1 bytes.
const maxWordLen = 4096

type lexer struct {
	src string
	pos int
}

// next scans the following token, returning the word's value when the
// token is _Word. The position advances past the consumed token.
func (l *lexer) next() (token, string, error) {
	for l.pos < len(l.src) && space(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return _EOF, "", nil
	}
	switch b := l.src[l.pos]; b {
	case '|':
		l.pos++
		return or, "", nil
	case '&':
		l.pos++
		return and, "", nil
	case '<':
		l.pos++
		return rdrIn, "", nil
	case '>':
		if l.peek(1) == '>' {
			l.pos += 2
			return appOut, "", nil
		}
		l.pos++
		return rdrOut, "", nil
	case '2':
		// "2" is an operator only when directly followed by ">".
		if l.peek(1) == '>' {
			if l.peek(2) == '>' {
				l.pos += 3
				return appErr, "", nil
			}
			l.pos += 2
			return rdrErr, "", nil
		}
	}
	return l.word()
}

// peek returns the byte n positions ahead, or 0 at the end of input.
func (l *lexer) peek(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

// word assembles one word token. Single quotes disable all
// interpretation until the closing quote; double quotes do too, except
// that \" and \\ stand for the escaped character. Quoting never
// carries over into the next token.
func (l *lexer) word() (token, string, error) {
	var buf []byte
	sq, dq := false, false
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		switch {
		case b == '\'' && !dq:
			sq = !sq
			l.pos++
			continue
		case b == '"' && !sq:
			dq = !dq
			l.pos++
			continue
		case b == '\\' && dq && (l.peek(1) == '"' || l.peek(1) == '\\'):
			l.pos++
			b = l.src[l.pos]
		case !sq && !dq && wordBreak(b):
			goto done
		}
		if len(buf) >= maxWordLen-1 {
			return illegalTok, "", &ParseError{Text: "word too long"}
		}
		buf = append(buf, b)
		l.pos++
	}
	if sq || dq {
		return illegalTok, "", &ParseError{Text: "unclosed quote"}
	}
done:
	word, err := expandTilde(string(buf))
	if err != nil {
		return illegalTok, "", err
	}
	return _Word, word, nil
}

// expandTilde replaces a leading "~" or "~/" with the value of HOME.
// "~user" is not implemented and passes through unchanged.
func expandTilde(word string) (string, error) {
	if !strings.HasPrefix(word, "~") {
		return word, nil
	}
	if len(word) > 1 && word[1] != '/' {
		return word, nil
	}
	home, ok := os.LookupEnv("HOME")
	if !ok {
		return "", &ParseError{Text: "HOME not set"}
	}
	return home + word[1:], nil
}
