// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

// Parser turns input lines into pipelines. A zero value is ready to
// use, and a single Parser may be reused across lines.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// ParseError reports a syntax error in an input line.
type ParseError struct {
	Text string
}

func (e *ParseError) Error() string { return e.Text }

// Parse consumes one line and builds the pipeline it describes. A line
// holding no command at all, such as one made up entirely of
// whitespace, results in a nil Pipeline and a nil error.
func (p *Parser) Parse(src string) (*Pipeline, error) {
	lex := &lexer{src: src}
	cur := &Command{}
	pl := &Pipeline{Cmds: []*Command{cur}}
	for {
		tok, val, err := lex.next()
		if err != nil {
			return nil, err
		}
		if tok == _EOF {
			break
		}
		if pl.Background {
			// "&" is only valid as the final token.
			return nil, &ParseError{Text: "parse error near '&'"}
		}
		switch tok {
		case _Word:
			cur.Args = append(cur.Args, val)
		case or:
			if len(cur.Args) == 0 {
				return nil, &ParseError{Text: "parse error near '|'"}
			}
			cur = &Command{}
			pl.Cmds = append(pl.Cmds, cur)
		case and:
			pl.Background = true
		default:
			if err := p.redirect(lex, cur, tok); err != nil {
				return nil, err
			}
		}
	}
	if len(cur.Args) == 0 {
		if len(pl.Cmds) == 1 && !pl.Background && cur.Redir == [3]string{} {
			return nil, nil
		}
		return nil, &ParseError{Text: "empty command"}
	}
	return pl, nil
}

// redirect attaches one redirection operator and its target word to
// cmd. Setting a slot twice is an error, as is a target that is
// missing or not a word.
func (p *Parser) redirect(lex *lexer, cmd *Command, tok token) error {
	slot := RedirIn
	switch tok {
	case rdrOut, appOut:
		slot = RedirOut
	case rdrErr, appErr:
		slot = RedirErr
	}
	if cmd.Redir[slot] != "" {
		return &ParseError{Text: "parse error near '" + tok.String() + "'"}
	}
	target, val, err := lex.next()
	if err != nil {
		return err
	}
	if target != _Word {
		return &ParseError{Text: "parse error near '" + tok.String() + "'"}
	}
	cmd.Redir[slot] = val
	if tok == appOut || tok == appErr {
		cmd.Append[slot] = true
	}
	return nil
}
