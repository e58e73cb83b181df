package json

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/acolita/ommjson/internal/textio"
)

// DefaultMaxDepth is the default maximum nesting of arrays and objects.
const DefaultMaxDepth = 1000

// ReaderOption configures a text reader.
type ReaderOption func(*textSource)

// ReaderComments enables /* ... */ comments wherever whitespace is allowed.
func ReaderComments(enabled bool) ReaderOption {
	return func(s *textSource) {
		s.comments = enabled
	}
}

// ReaderMaxDepth sets the maximum nesting depth (default 1000).
func ReaderMaxDepth(depth int) ReaderOption {
	return func(s *textSource) {
		s.maxDepth = depth
	}
}

type lexState uint8

const (
	stateBeforeValue lexState = iota
	stateString
	stateNumber
	stateSymbol
	stateBeforeName
	stateAfterName
	stateAfterValue
	stateName
)

func (s lexState) skipsSpace() bool {
	switch s {
	case stateBeforeValue, stateBeforeName, stateAfterName, stateAfterValue:
		return true
	}
	return false
}

type commentState uint8

const (
	commentNone commentState = iota
	commentStart
	commentBody
	commentEnd
)

type escapeState uint8

const (
	escapeNone escapeState = iota
	escapeStart
	escapeHex
)

// textSource tokenizes JSON text one character at a time. Characters that
// end a number or a bare symbol are held back and processed again in the
// next state.
type textSource struct {
	src      *textio.Source
	comments bool
	maxDepth int

	state   lexState
	comment commentState
	stack   []Kind
	first   bool
	text    strings.Builder

	escape escapeState
	hex    rune
	digits int
	high   rune

	held    rune
	hasHeld bool

	peeked  Token
	hasPeek bool
	err     error
}

func newTextSource(in io.RuneReader, opts ...ReaderOption) *textSource {
	s := &textSource{
		src:      textio.NewSource(in),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *textSource) Position() (line, col int) {
	return s.src.Position()
}

func (s *textSource) Peek() (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}
	if !s.hasPeek {
		tok, err := s.scan()
		if err != nil {
			s.err = err
			return Token{}, err
		}
		s.peeked, s.hasPeek = tok, true
	}
	return s.peeked, nil
}

func (s *textSource) Read() (Token, error) {
	tok, err := s.Peek()
	if err != nil {
		return tok, err
	}
	if tok.kind != KindEOF {
		s.hasPeek = false
	}
	return tok, nil
}

func (s *textSource) next() (rune, error) {
	if s.hasHeld {
		s.hasHeld = false
		return s.held, nil
	}
	return s.src.Next()
}

func (s *textSource) hold(c rune) {
	s.held, s.hasHeld = c, true
}

func (s *textSource) errorf(format string, args ...interface{}) error {
	line, col := s.src.Position()
	return readErrorf(line, col, ErrSyntax, format, args...)
}

func (s *textSource) scan() (Token, error) {
	for {
		c, err := s.next()
		if err != nil {
			return Token{}, err
		}
		if s.state.skipsSpace() {
			skip, err := s.skipComment(c)
			if err != nil {
				return Token{}, err
			}
			if skip {
				continue
			}
			if isSpace(c) {
				continue
			}
		}
		tok, ok, err := s.step(c)
		if err != nil {
			return Token{}, err
		}
		if ok {
			return tok, nil
		}
	}
}

func (s *textSource) skipComment(c rune) (bool, error) {
	switch s.comment {
	case commentNone:
		if c == '/' && s.comments {
			s.comment = commentStart
			return true, nil
		}
		return false, nil
	case commentStart:
		if c != '*' {
			return false, s.errorf("expected '*' after '/'")
		}
		s.comment = commentBody
	case commentBody:
		if c == '*' {
			s.comment = commentEnd
		}
	case commentEnd:
		switch c {
		case '/':
			s.comment = commentNone
		case '*':
		default:
			s.comment = commentBody
		}
	}
	if c == textio.EOF {
		return false, s.errorf("unterminated comment")
	}
	return true, nil
}

func (s *textSource) step(c rune) (Token, bool, error) {
	switch s.state {
	case stateBeforeValue:
		return s.beforeValue(c)
	case stateString, stateName:
		return s.inString(c)
	case stateNumber:
		if isNumberChar(c) {
			s.text.WriteRune(c)
			return Token{}, false, nil
		}
		s.hold(c)
		s.state = stateAfterValue
		return NumberToken(s.text.String()), true, nil
	case stateSymbol:
		if isSymbolChar(c) {
			s.text.WriteRune(c)
			return Token{}, false, nil
		}
		s.hold(c)
		s.state = stateAfterValue
		switch sym := s.text.String(); sym {
		case "null":
			return TokenNull, true, nil
		case "true":
			return TokenTrue, true, nil
		case "false":
			return TokenFalse, true, nil
		default:
			return Token{}, false, s.errorf("illegal symbol %q", sym)
		}
	case stateBeforeName:
		switch {
		case c == '"':
			s.first = false
			s.text.Reset()
			s.state = stateName
			return Token{}, false, nil
		case c == '}' && s.first:
			return s.pop(KindBeginObject, TokenEndObject)
		case c == textio.EOF:
			return Token{}, false, s.errorf("unexpected end of input")
		}
		return Token{}, false, s.errorf("expected a member name, got %q", c)
	case stateAfterName:
		if c != ':' {
			if c == textio.EOF {
				return Token{}, false, s.errorf("unexpected end of input")
			}
			return Token{}, false, s.errorf("expected ':', got %q", c)
		}
		s.state = stateBeforeValue
		return Token{}, false, nil
	case stateAfterValue:
		return s.afterValue(c)
	}
	return Token{}, false, s.errorf("invalid reader state %d", s.state)
}

func (s *textSource) beforeValue(c rune) (Token, bool, error) {
	if c == ']' && s.first && s.top() == KindBeginArray {
		return s.pop(KindBeginArray, TokenEndArray)
	}
	s.first = false
	switch {
	case c == '"':
		s.text.Reset()
		s.state = stateString
		return Token{}, false, nil
	case c == '{':
		if err := s.push(KindBeginObject); err != nil {
			return Token{}, false, err
		}
		s.state = stateBeforeName
		return TokenBeginObject, true, nil
	case c == '[':
		if err := s.push(KindBeginArray); err != nil {
			return Token{}, false, err
		}
		return TokenBeginArray, true, nil
	case c == '-' || (c >= '0' && c <= '9'):
		s.text.Reset()
		s.text.WriteRune(c)
		s.state = stateNumber
		return Token{}, false, nil
	case isSymbolChar(c):
		s.text.Reset()
		s.text.WriteRune(c)
		s.state = stateSymbol
		return Token{}, false, nil
	case c == textio.EOF:
		return Token{}, false, s.errorf("unexpected end of input")
	}
	return Token{}, false, s.errorf("unexpected character %q", c)
}

func (s *textSource) afterValue(c rune) (Token, bool, error) {
	if len(s.stack) == 0 {
		if c == textio.EOF {
			return TokenEOF, true, nil
		}
		return Token{}, false, s.errorf("unexpected character %q after the root value", c)
	}
	switch c {
	case ',':
		if s.top() == KindBeginObject {
			s.state = stateBeforeName
		} else {
			s.state = stateBeforeValue
		}
		return Token{}, false, nil
	case '}':
		return s.pop(KindBeginObject, TokenEndObject)
	case ']':
		return s.pop(KindBeginArray, TokenEndArray)
	case textio.EOF:
		return Token{}, false, s.errorf("unexpected end of input")
	}
	return Token{}, false, s.errorf("expected ',' or a closing bracket, got %q", c)
}

func (s *textSource) inString(c rune) (Token, bool, error) {
	if s.escape != escapeNone {
		return Token{}, false, s.inEscape(c)
	}
	switch c {
	case '\\':
		s.escape = escapeStart
		return Token{}, false, nil
	case '"':
		if s.high != 0 {
			return Token{}, false, s.errorf("high surrogate \\u%04X not followed by a low surrogate", s.high)
		}
		if s.state == stateName {
			s.state = stateAfterName
			return NameToken(s.text.String()), true, nil
		}
		s.state = stateAfterValue
		return StringToken(s.text.String()), true, nil
	case textio.EOF:
		return Token{}, false, s.errorf("unterminated string")
	}
	if s.high != 0 {
		return Token{}, false, s.errorf("high surrogate \\u%04X not followed by a low surrogate", s.high)
	}
	s.text.WriteRune(c)
	return Token{}, false, nil
}

func (s *textSource) inEscape(c rune) error {
	if c == textio.EOF {
		return s.errorf("unterminated string")
	}
	if s.escape == escapeHex {
		v := hexValue(c)
		if v < 0 {
			return s.errorf("invalid hex digit %q in \\u escape", c)
		}
		s.hex = s.hex<<4 | v
		s.digits++
		if s.digits == 4 {
			s.escape = escapeNone
			return s.codeUnit(s.hex)
		}
		return nil
	}

	if c == 'u' {
		s.escape = escapeHex
		s.hex, s.digits = 0, 0
		return nil
	}
	s.escape = escapeNone
	if s.high != 0 {
		return s.errorf("high surrogate \\u%04X not followed by a low surrogate", s.high)
	}
	switch c {
	case '"', '/', '\\':
		s.text.WriteRune(c)
	case 'b':
		s.text.WriteByte('\b')
	case 'f':
		s.text.WriteByte('\f')
	case 'n':
		s.text.WriteByte('\n')
	case 'r':
		s.text.WriteByte('\r')
	case 't':
		s.text.WriteByte('\t')
	default:
		return s.errorf("invalid escape sequence '\\%c'", c)
	}
	return nil
}

func (s *textSource) codeUnit(u rune) error {
	switch {
	case s.high != 0:
		if u < 0xdc00 || u > 0xdfff {
			return s.errorf("high surrogate \\u%04X not followed by a low surrogate", s.high)
		}
		s.text.WriteRune(utf16.DecodeRune(s.high, u))
		s.high = 0
	case u >= 0xd800 && u < 0xdc00:
		s.high = u
	case u >= 0xdc00 && u <= 0xdfff:
		return s.errorf("unexpected low surrogate \\u%04X", u)
	default:
		s.text.WriteRune(u)
	}
	return nil
}

func (s *textSource) push(k Kind) error {
	if s.maxDepth > 0 && len(s.stack) >= s.maxDepth {
		line, col := s.src.Position()
		return readErrorf(line, col, ErrMaxDepthExceeded, "%v: depth %d", ErrMaxDepthExceeded, len(s.stack)+1)
	}
	s.stack = append(s.stack, k)
	s.first = true
	return nil
}

func (s *textSource) pop(k Kind, tok Token) (Token, bool, error) {
	if s.top() != k {
		return Token{}, false, s.errorf("unexpected %q", tok.text)
	}
	s.stack = s.stack[:len(s.stack)-1]
	s.first = false
	s.state = stateAfterValue
	return tok, true, nil
}

func (s *textSource) top() Kind {
	if len(s.stack) == 0 {
		return KindEOF
	}
	return s.stack[len(s.stack)-1]
}

func isNumberChar(c rune) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
}

// isSpace accepts Unicode white space outside of strings, except the
// no-break spaces.
func isSpace(c rune) bool {
	switch c {
	case 0xa0, 0x2007, 0x202f:
		return false
	}
	return unicode.IsSpace(c)
}

func isSymbolChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func hexValue(c rune) rune {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return -1
}
