package expression

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// specialChars cannot appear in an unquoted value.
const specialChars = `(),=|>" `

// ParseError reports malformed expression text.
type ParseError struct {
	Input string
	Pos   int // byte offset into Input
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse expression %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

// Parse parses expression text. The input is NFC-normalized first, so
// visually identical names compare equal.
func Parse(text string) (*Expression, error) {
	p := &parser{input: norm.NFC.String(text)}
	return p.parse()
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level constants.
func MustParse(text string) *Expression {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parse() (*Expression, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("empty expression")
	}
	term, err := p.term()
	if err != nil {
		return nil, err
	}
	expr := &Expression{Term: term}
	for {
		p.skipSpace()
		if p.eof() {
			return expr, nil
		}
		var op Operator
		switch p.peek() {
		case '>':
			op = Translate
		case '|':
			op = Edit
		default:
			return nil, p.errorf("unexpected %q, want '>' or '|'", p.peek())
		}
		p.pos++
		p.skipSpace()
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		expr.Operations = append(expr.Operations, Operation{Operator: op, Term: t})
	}
}

func (p *parser) term() (Term, error) {
	name := p.identifier()
	if name == "" {
		if p.eof() {
			return Term{}, p.errorf("unexpected end of input, want identifier")
		}
		return Term{}, p.errorf("unexpected %q, want identifier", p.peek())
	}
	t := Term{Identifier: name, Options: map[string]string{}}
	p.skipSpace()
	if p.eof() || p.peek() != '(' {
		return t, nil
	}
	p.pos++
	p.skipSpace()
	if !p.eof() && p.peek() == ')' {
		p.pos++
		return t, nil
	}
	for {
		p.skipSpace()
		keyPos := p.pos
		key := p.identifier()
		if key == "" {
			return Term{}, p.errorf("missing option name in %s(...)", name)
		}
		p.skipSpace()
		if p.eof() || p.peek() != '=' {
			return Term{}, p.errorf("option %q has no '='", key)
		}
		p.pos++
		p.skipSpace()
		value, err := p.value()
		if err != nil {
			return Term{}, err
		}
		if _, dup := t.Options[key]; dup {
			p.pos = keyPos
			return Term{}, p.errorf("option %q given twice", key)
		}
		t.Options[key] = value
		p.skipSpace()
		if p.eof() {
			return Term{}, p.errorf("unclosed '(' after %s", name)
		}
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return t, nil
		default:
			return Term{}, p.errorf("unexpected %q in options of %s", p.peek(), name)
		}
	}
}

func (p *parser) identifier() string {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if !isIdentRune(r) {
			break
		}
		p.pos += size
	}
	return p.input[start:p.pos]
}

func (p *parser) value() (string, error) {
	if p.eof() {
		return "", p.errorf("unexpected end of input, want value")
	}
	if p.peek() == '"' {
		return p.quoted()
	}
	start := p.pos
	for !p.eof() && !strings.ContainsRune(specialChars, rune(p.peek())) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if unicode.IsSpace(r) {
			break
		}
		p.pos += size
	}
	if p.pos == start {
		return "", p.errorf("empty value")
	}
	return p.input[start:p.pos], nil
}

func (p *parser) quoted() (string, error) {
	open := p.pos
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			if p.pos+1 >= len(p.input) {
				p.pos = open
				return "", p.errorf("unterminated quoted value")
			}
			b.WriteByte(p.input[p.pos+1])
			p.pos += 2
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	p.pos = open
	return "", p.errorf("unterminated quoted value")
}

func (p *parser) skipSpace() {
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *parser) eof() bool  { return p.pos >= len(p.input) }
func (p *parser) peek() byte { return p.input[p.pos] }

func isIdentRune(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
