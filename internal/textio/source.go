// Package textio holds the character plumbing under the JSON reader and
// writer: a positioned rune source, UTF-16 input and the output buffer.
package textio

import (
	"errors"
	"fmt"
	"io"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// EOF is returned by Source.Next once the input is exhausted.
const EOF rune = -1

// ErrRead matches every positioned read error via errors.Is.
var ErrRead = errors.New("read error")

// Error is a read failure at a 1-based line and column.
type Error struct {
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d:%d] %s", e.Line, e.Column, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrRead.
func (e *Error) Is(target error) bool { return target == ErrRead }

// Source reads code points from a character stream and tracks the position
// of the last one returned.
//
// CR and CRLF are reported as a single '\n', NUL characters are dropped and
// UTF-16 surrogate pairs delivered as separate runes are joined. Illegal
// code points fail with a positioned error.
type Source struct {
	in      io.RuneReader
	line    int
	col     int
	newline bool
	lastCR  bool
}

// NewSource creates a Source over in.
func NewSource(in io.RuneReader) *Source {
	return &Source{in: in, line: 1}
}

// Position returns the line and column of the last character read.
func (s *Source) Position() (line, col int) {
	return s.line, s.col
}

// Errorf builds an Error at the current position.
func (s *Source) Errorf(format string, args ...interface{}) *Error {
	return &Error{Line: s.line, Column: s.col, Msg: fmt.Sprintf(format, args...)}
}

// Next returns the next code point, or EOF.
func (s *Source) Next() (rune, error) {
	for {
		r, err := s.raw()
		if err != nil {
			return 0, err
		}
		if r == EOF {
			return EOF, nil
		}
		if r == 0 {
			continue
		}
		if r == '\n' && s.lastCR {
			s.lastCR = false
			continue
		}
		s.lastCR = r == '\r'
		s.advance()
		if r == '\r' || r == '\n' {
			s.newline = true
			return '\n', nil
		}

		if utf16.IsSurrogate(r) {
			if r >= 0xdc00 {
				return 0, s.Errorf("unexpected low surrogate U+%04X", r)
			}
			low, err := s.raw()
			if err != nil {
				return 0, err
			}
			if low < 0xdc00 || low > 0xdfff {
				return 0, s.Errorf("high surrogate U+%04X not followed by a low surrogate", r)
			}
			r = utf16.DecodeRune(r, low)
		}
		if !ValidCodePoint(r) {
			return 0, s.Errorf("illegal character U+%04X", r)
		}
		return r, nil
	}
}

func (s *Source) advance() {
	if s.newline {
		s.newline = false
		s.line++
		s.col = 0
	}
	s.col++
}

func (s *Source) raw() (rune, error) {
	r, size, err := s.in.ReadRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return EOF, nil
		}
		return 0, &Error{Line: s.line, Column: s.col, Msg: err.Error(), Err: err}
	}
	if r == utf8.RuneError && size == 1 {
		s.advance()
		return 0, s.Errorf("invalid UTF-8 encoding")
	}
	return r, nil
}

// ValidCodePoint reports whether r may appear in a document: control
// characters other than tab, LF, FF and CR are rejected, as are the C1 range,
// Unicode non-characters and values beyond the Unicode range.
func ValidCodePoint(r rune) bool {
	switch {
	case r >= 0x1 && r <= 0x8, r == 0xb, r >= 0xe && r <= 0x1f:
		return false
	case r >= 0x7f && r <= 0x9f:
		return false
	case r >= 0xfdd0 && r <= 0xfdef:
		return false
	case r < 0 || r > unicode.MaxRune:
		return false
	case r&0xfffe == 0xfffe:
		return false
	}
	return true
}
