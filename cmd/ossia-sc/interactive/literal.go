package interactive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/ossia/ossia-sc/pkg/host"
)

// Literal errors.
var (
	ErrUnbound      = errors.New("unbound variable")
	ErrSyntax       = errors.New("syntax error")
	ErrUnterminated = errors.New("unterminated literal")
)

// ParseArgs parses a line of host literals.
//
// Accepted forms:
//   - $name     a bound variable
//   - nil, true, false
//   - 42, -1.5  integers and floats
//   - "text"    a string (Go escapes)
//   - 'text'    a symbol, also 'text without the closing quote; bare
//     lowercase words are symbols too
//   - #c        a character
//   - Float     a class literal (capitalized bare word)
//   - [a, b]    an Array; commas are optional
func ParseArgs(text string, env *Env) ([]host.Slot, error) {
	p := &literalParser{src: text, env: env}
	var out []host.Slot
	for {
		p.skipSpace()
		if p.done() {
			return out, nil
		}
		s, err := p.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

type literalParser struct {
	src string
	pos int
	env *Env
}

func (p *literalParser) done() bool { return p.pos >= len(p.src) }

func (p *literalParser) peek() byte { return p.src[p.pos] }

func (p *literalParser) skipSpace() {
	for !p.done() && (p.peek() == ',' || unicode.IsSpace(rune(p.peek()))) {
		p.pos++
	}
}

func (p *literalParser) parse() (host.Slot, error) {
	switch c := p.peek(); c {
	case '[':
		return p.parseArray()
	case '"':
		return p.parseString()
	case '\'':
		return p.parseSymbol()
	case ']':
		return host.Nil(), fmt.Errorf("%w: unexpected ']' at %d", ErrSyntax, p.pos)
	}

	start := p.pos
	word := p.word()
	switch {
	case word == "":
		return host.Nil(), fmt.Errorf("%w: at %d", ErrSyntax, start)
	case word[0] == '$':
		s, ok := p.env.Lookup(word[1:])
		if !ok {
			return host.Nil(), fmt.Errorf("%w: %s", ErrUnbound, word[1:])
		}
		return s, nil
	case word[0] == '#':
		if len(word) != 2 {
			return host.Nil(), fmt.Errorf("%w: bad character %q", ErrSyntax, word)
		}
		return host.Char(word[1]), nil
	case word == "nil":
		return host.Nil(), nil
	case word == "true":
		return host.Bool(true), nil
	case word == "false":
		return host.Bool(false), nil
	}

	if i, err := strconv.ParseInt(word, 10, 64); err == nil {
		return host.Int(i), nil
	}
	if f, err := strconv.ParseFloat(word, 64); err == nil {
		return host.Float(f), nil
	}
	if unicode.IsUpper(rune(word[0])) {
		return host.Class(word), nil
	}
	return host.Symbol(word), nil
}

// word scans up to the next separator.
func (p *literalParser) word() string {
	start := p.pos
	for !p.done() {
		c := p.peek()
		if c == ',' || c == '[' || c == ']' || c == '"' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *literalParser) parseArray() (host.Slot, error) {
	start := p.pos
	p.pos++ // [
	var elems []host.Slot
	for {
		p.skipSpace()
		if p.done() {
			return host.Nil(), fmt.Errorf("%w: array at %d", ErrUnterminated, start)
		}
		if p.peek() == ']' {
			p.pos++
			return host.Array(elems...), nil
		}
		s, err := p.parse()
		if err != nil {
			return host.Nil(), err
		}
		elems = append(elems, s)
	}
}

func (p *literalParser) parseString() (host.Slot, error) {
	start := p.pos
	p.pos++
	for !p.done() {
		switch p.peek() {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return host.Nil(), fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			return host.String(s), nil
		}
		p.pos++
	}
	return host.Nil(), fmt.Errorf("%w: string at %d", ErrUnterminated, start)
}

func (p *literalParser) parseSymbol() (host.Slot, error) {
	start := p.pos
	if end := strings.IndexByte(p.src[start+1:], '\''); end >= 0 {
		p.pos = start + 1 + end + 1
		return host.Symbol(p.src[start+1 : start+1+end]), nil
	}
	// 'sym without a closing quote runs to the next separator.
	p.pos++
	word := p.word()
	if word == "" {
		return host.Nil(), fmt.Errorf("%w: symbol at %d", ErrUnterminated, start)
	}
	return host.Symbol(word), nil
}
