package json

import (
	"fmt"
	"strconv"
)

// Kind identifies the type of a Token.
type Kind uint8

const (
	KindEOF Kind = iota
	KindName
	KindNull
	KindString
	KindNumber
	KindBool
	KindBeginObject
	KindEndObject
	KindBeginArray
	KindEndArray
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindName:
		return "NAME"
	case KindNull:
		return "NULL"
	case KindString:
		return "STRING"
	case KindNumber:
		return "NUMBER"
	case KindBool:
		return "BOOLEAN"
	case KindBeginObject:
		return "BEGIN_OBJECT"
	case KindEndObject:
		return "END_OBJECT"
	case KindBeginArray:
		return "BEGIN_ARRAY"
	case KindEndArray:
		return "END_ARRAY"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Token is one element of a JSON token stream. The zero Token is EOF.
type Token struct {
	kind Kind
	text string
}

// Shared tokens for the kinds that carry no text of their own.
var (
	TokenEOF         = Token{kind: KindEOF}
	TokenNull        = Token{kind: KindNull, text: "null"}
	TokenTrue        = Token{kind: KindBool, text: "true"}
	TokenFalse       = Token{kind: KindBool, text: "false"}
	TokenBeginObject = Token{kind: KindBeginObject, text: "{"}
	TokenEndObject   = Token{kind: KindEndObject, text: "}"}
	TokenBeginArray  = Token{kind: KindBeginArray, text: "["}
	TokenEndArray    = Token{kind: KindEndArray, text: "]"}
)

// NameToken returns an object member name token.
func NameToken(name string) Token { return Token{kind: KindName, text: name} }

// StringToken returns a string value token.
func StringToken(s string) Token { return Token{kind: KindString, text: s} }

// ValidNumber reports whether text follows the JSON number grammar: an
// optional minus, an integer part without leading zeros, then an optional
// fraction and exponent.
func ValidNumber(text string) bool {
	i, n := 0, len(text)
	digits := func() int {
		start := i
		for i < n && text[i] >= '0' && text[i] <= '9' {
			i++
		}
		return i - start
	}
	if i < n && text[i] == '-' {
		i++
	}
	switch {
	case i < n && text[i] == '0':
		i++
	case digits() == 0:
		return false
	}
	if i < n && text[i] == '.' {
		i++
		if digits() == 0 {
			return false
		}
	}
	if i < n && (text[i] == 'e' || text[i] == 'E') {
		i++
		if i < n && (text[i] == '+' || text[i] == '-') {
			i++
		}
		if digits() == 0 {
			return false
		}
	}
	return i == n
}

// NumberToken returns a number token holding the raw number text.
func NumberToken(text string) Token { return Token{kind: KindNumber, text: text} }

// BoolToken returns TokenTrue or TokenFalse.
func BoolToken(b bool) Token {
	if b {
		return TokenTrue
	}
	return TokenFalse
}

// Kind returns the token kind.
func (t Token) Kind() Kind { return t.kind }

// Text returns the raw text: the unescaped name or string, the number text,
// or the literal spelling of a structural token.
func (t Token) Text() string { return t.text }

// IsNull reports whether t is the null token.
func (t Token) IsNull() bool { return t.kind == KindNull }

// Equal reports whether t and o are the same token. Text only takes part in
// the comparison for names, strings, numbers and booleans.
func (t Token) Equal(o Token) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindName, KindString, KindNumber, KindBool:
		return t.text == o.text
	}
	return true
}

// String formats the token for diagnostics, e.g. NUMBER[42].
func (t Token) String() string {
	switch t.kind {
	case KindName, KindString:
		return fmt.Sprintf("%s[%q]", t.kind, t.text)
	case KindNumber, KindBool:
		return fmt.Sprintf("%s[%s]", t.kind, t.text)
	}
	return t.kind.String()
}

func (t Token) expect(k Kind) error {
	if t.kind != k {
		return fmt.Errorf("%w: expected %s, have %s", ErrUnexpectedToken, k, t)
	}
	return nil
}

// Name returns the member name of a NAME token.
func (t Token) Name() (string, error) {
	if err := t.expect(KindName); err != nil {
		return "", err
	}
	return t.text, nil
}

// Str returns the value of a STRING token.
func (t Token) Str() (string, error) {
	if err := t.expect(KindString); err != nil {
		return "", err
	}
	return t.text, nil
}

// Bool returns the value of a BOOLEAN token.
func (t Token) Bool() (bool, error) {
	if err := t.expect(KindBool); err != nil {
		return false, err
	}
	return t == TokenTrue, nil
}

// Int returns the value of a NUMBER token as an int.
func (t Token) Int() (int, error) {
	n, err := t.intBits(strconv.IntSize)
	return int(n), err
}

// Int32 returns the value of a NUMBER token as an int32.
func (t Token) Int32() (int32, error) {
	n, err := t.intBits(32)
	return int32(n), err
}

// Int64 returns the value of a NUMBER token as an int64.
func (t Token) Int64() (int64, error) {
	return t.intBits(64)
}

// Uint64 returns the value of a NUMBER token as a uint64.
func (t Token) Uint64() (uint64, error) {
	return t.uintBits(64)
}

// Float64 returns the value of a NUMBER token as a float64.
func (t Token) Float64() (float64, error) {
	return t.floatBits(64)
}

func (t Token) intBits(bits int) (int64, error) {
	if err := t.expect(KindNumber); err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(t.text, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an int%d", ErrNumber, t.text, bits)
	}
	return n, nil
}

func (t Token) uintBits(bits int) (uint64, error) {
	if err := t.expect(KindNumber); err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(t.text, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a uint%d", ErrNumber, t.text, bits)
	}
	return n, nil
}

func (t Token) floatBits(bits int) (float64, error) {
	if err := t.expect(KindNumber); err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(t.text, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a float%d", ErrNumber, t.text, bits)
	}
	return f, nil
}
