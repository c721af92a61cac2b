package vtt

import (
	"fmt"
	"strconv"
	"strings"
)

// flagDigits maps VTT's mnemonic flag letters to binary digits.
var flagDigits = map[string]string{
	"X": "1", "Y": "0", // direction
	"O": "1", "N": "0", // original or grid-fitted outline
	"R": "1", "r": "0", // round distance, or perpendicular to line
	"M": "1", "m": "0", // set rp0
	"1": "1", "2": "0", // use rp1 or rp2
	">": "1", "<": "0", // obey minimum distance
	"Gr": "00", "Bl": "01", "Wh": "10", // distance type
	"0": "0",
}

type scanState struct {
	pos       int
	line      int
	lineStart int
}

type scanner struct {
	src string
	scanState
}

// Tokenize parses VTT assembly into a sequence of tokens.
// Empty input or input consisting of whitespace and comments only results
// in an empty sequence.
func Tokenize(text string) ([]Token, error) {
	s := &scanner{src: text, scanState: scanState{line: 1}}
	var tokens []Token
	for {
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		if s.eof() {
			break
		}
		line, col := s.line, s.col()
		var tok Token
		var err error
		switch c := s.peek(); {
		case c == '#':
			tok, err = s.hashToken()
		case isUpper(c):
			tok, err = s.instruction()
		default:
			err = s.errorf("unexpected character %q", c)
		}
		if err != nil {
			return nil, err
		}
		tok.Line, tok.Col = line, col
		tokens = append(tokens, tok)
	}
	tracer().Debugf("tokenized %d lines into %d tokens", s.line, len(tokens))
	return tokens, nil
}

// --- Scanner primitives ----------------------------------------------------

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) col() int { return s.pos - s.lineStart + 1 }

func (s *scanner) advance() {
	if s.src[s.pos] == '\n' {
		s.line++
		s.lineStart = s.pos + 1
	}
	s.pos++
}

func (s *scanner) skipSpace() error {
	for !s.eof() {
		switch c := s.peek(); {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			s.advance()
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			start := *s
			end := strings.Index(s.src[s.pos+2:], "*/")
			if end < 0 {
				return start.errorf("unterminated comment")
			}
			for stop := s.pos + 2 + end + 2; s.pos < stop; {
				s.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (s *scanner) expect(c byte) error {
	if err := s.skipSpace(); err != nil {
		return err
	}
	if s.peek() != c {
		if s.eof() {
			return s.errorf("expected '%c', found end of input", c)
		}
		return s.errorf("expected '%c', found %q", c, s.peek())
	}
	s.advance()
	return nil
}

func (s *scanner) word(first, body func(byte) bool) string {
	start := s.pos
	if s.eof() || !first(s.peek()) {
		return ""
	}
	s.advance()
	for !s.eof() && body(s.peek()) {
		s.advance()
	}
	return s.src[start:s.pos]
}

func (s *scanner) integer(signed bool) (int, error) {
	start := *s
	begin := s.pos
	if signed && (s.peek() == '+' || s.peek() == '-') {
		s.advance()
	}
	if s.word(isDigit, isDigit) == "" {
		return 0, start.errorf("integer expected")
	}
	n, err := strconv.Atoi(s.src[begin:s.pos])
	if err != nil {
		return 0, start.errorf("malformed integer %s", s.src[begin:s.pos])
	}
	return n, nil
}

func (s scanner) errorf(format string, v ...interface{}) error {
	end := strings.IndexByte(s.src[s.lineStart:], '\n')
	if end < 0 {
		end = len(s.src) - s.lineStart
	}
	return ParseError{
		Line: s.line,
		Col:  s.col(),
		Msg:  fmt.Sprintf(format, v...),
		Text: strings.TrimRight(s.src[s.lineStart:s.lineStart+end], "\r"),
	}
}

// --- Grammar ---------------------------------------------------------------

// hashToken reads a label definition (#LABEL:) or a pragma (#PUSH, …).
func (s *scanner) hashToken() (Token, error) {
	start := *s
	name := s.word(func(c byte) bool { return c == '#' }, isAlnum)
	if s.peek() == ':' {
		s.advance()
		return Token{Mnemonic: name + ":"}, nil
	}
	if len(name) < 2 || strings.IndexFunc(name[1:], func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
		return Token{}, start.errorf("malformed pragma %s", name)
	}
	items, err := s.stackItems()
	return Token{Mnemonic: name, Items: items}, err
}

func (s *scanner) instruction() (Token, error) {
	tok := Token{Mnemonic: s.word(isUpper, func(c byte) bool { return isUpper(c) || isDigit(c) })}
	if err := s.expect('['); err != nil {
		return tok, err
	}
	if isJumpInstruction(tok.Mnemonic) {
		saved := s.scanState
		if assign, ok := s.jumpAssignment(); ok {
			tok.Assign = assign
			return tok, nil
		}
		s.scanState = saved
	}
	if err := s.skipSpace(); err != nil {
		return tok, err
	}
	var err error
	if s.peek() == '(' {
		tok.Deltas, err = s.deltas()
	} else {
		tok.Flags, err = s.flags()
	}
	if err != nil {
		return tok, err
	}
	if err = s.expect(']'); err != nil {
		return tok, err
	}
	tok.Items, err = s.stackItems()
	return tok, err
}

// jumpAssignment reads "], (variable = #LABEL)" following a jump mnemonic.
func (s *scanner) jumpAssignment() (*Assignment, bool) {
	for _, c := range []byte{']', ',', '('} {
		if s.expect(c) != nil {
			return nil, false
		}
	}
	if s.skipSpace() != nil {
		return nil, false
	}
	variable := s.word(isAlpha, isAlnum)
	if variable == "" || s.expect('=') != nil || s.skipSpace() != nil {
		return nil, false
	}
	label := s.word(func(c byte) bool { return c == '#' }, isAlnum)
	if label == "" || s.expect(')') != nil {
		return nil, false
	}
	return &Assignment{Variable: variable, Label: label}, true
}

func (s *scanner) flags() (string, error) {
	var b strings.Builder
	for !s.eof() && s.peek() != ']' {
		rest := s.src[s.pos:]
		if len(rest) >= 2 {
			if digits, ok := flagDigits[rest[:2]]; ok {
				b.WriteString(digits)
				s.advance()
				s.advance()
				continue
			}
		}
		digits, ok := flagDigits[rest[:1]]
		if !ok {
			break
		}
		b.WriteString(digits)
		s.advance()
	}
	return b.String(), nil
}

// deltas reads one or more "(point @ppem step[/8])" tuples.
func (s *scanner) deltas() ([]Delta, error) {
	var deltas []Delta
	for {
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		if s.peek() != '(' {
			break
		}
		s.advance()
		var d Delta
		var err error
		if err = s.skipSpace(); err != nil {
			return nil, err
		}
		if d.Point, err = s.integer(false); err != nil {
			return nil, err
		}
		if err = s.expect('@'); err != nil {
			return nil, err
		}
		if err = s.skipSpace(); err != nil {
			return nil, err
		}
		if d.RelPPEM, err = s.integer(false); err != nil {
			return nil, err
		}
		if err = s.skipSpace(); err != nil {
			return nil, err
		}
		if d.Step, err = s.integer(true); err != nil {
			return nil, err
		}
		if err = s.skipSpace(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(s.src[s.pos:], "/8") {
			s.advance()
			s.advance()
		}
		if err = s.expect(')'); err != nil {
			return nil, s.errorf("unterminated delta list")
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}

// stackItems reads a list of ", item" operands. Items may be signed
// integers, jump variables or '*', the latter denoting an operand already
// on the stack.
func (s *scanner) stackItems() ([]StackItem, error) {
	var items []StackItem
	for {
		saved := s.scanState
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		if s.peek() != ',' {
			s.scanState = saved
			return items, nil
		}
		s.advance()
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		switch c := s.peek(); {
		case c == '*':
			s.advance()
		case c == '+' || c == '-' || isDigit(c):
			n, err := s.integer(true)
			if err != nil {
				return nil, err
			}
			items = append(items, Literal(n))
		case isAlpha(c):
			items = append(items, JumpRef(s.word(isAlpha, isAlnum)))
		default:
			return nil, s.errorf("stack item expected")
		}
	}
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return isUpper(c) || c >= 'a' && c <= 'z' }
func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }
