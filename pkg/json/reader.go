package json

import (
	"errors"
	"io"
	"strings"
)

// TokenSource produces a restartable token stream: Peek returns the next
// token without consuming it.
type TokenSource interface {
	Peek() (Token, error)
	Read() (Token, error)
	Position() (line, col int)
}

// Reader adds typed helpers on top of a TokenSource. Every failure is
// returned as a *ReadError carrying the current position.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	src TokenSource
}

// NewReader wraps src.
func NewReader(src TokenSource) *Reader {
	return &Reader{src: src}
}

// NewTextReader creates a Reader tokenizing JSON text from in.
func NewTextReader(in io.RuneReader, opts ...ReaderOption) *Reader {
	return NewReader(newTextSource(in, opts...))
}

// NewStringReader creates a Reader tokenizing s.
func NewStringReader(s string, opts ...ReaderOption) *Reader {
	return NewTextReader(strings.NewReader(s), opts...)
}

// Peek returns the next token without consuming it.
func (r *Reader) Peek() (Token, error) {
	tok, err := r.src.Peek()
	if err != nil {
		return Token{}, r.positioned(err)
	}
	return tok, nil
}

// Read consumes and returns the next token. Once the end of input has been
// reached Read keeps returning TokenEOF.
func (r *Reader) Read() (Token, error) {
	tok, err := r.src.Read()
	if err != nil {
		return Token{}, r.positioned(err)
	}
	return tok, nil
}

// Position returns the line and column of the last character consumed.
func (r *Reader) Position() (line, col int) {
	return r.src.Position()
}

// Errorf returns a *ReadError at the current position wrapping kind.
func (r *Reader) Errorf(kind error, format string, args ...interface{}) error {
	line, col := r.src.Position()
	return readErrorf(line, col, kind, format, args...)
}

func (r *Reader) positioned(err error) error {
	var re *ReadError
	if errors.As(err, &re) {
		return err
	}
	line, col := r.src.Position()
	return &ReadError{Line: line, Column: col, Msg: err.Error(), Err: err}
}

func (r *Reader) expect(k Kind) (Token, error) {
	tok, err := r.Read()
	if err != nil {
		return tok, err
	}
	if err := tok.expect(k); err != nil {
		return tok, r.positioned(err)
	}
	return tok, nil
}

// ReadName reads an object member name.
func (r *Reader) ReadName() (string, error) {
	tok, err := r.expect(KindName)
	return tok.text, err
}

// BeginObject consumes '{'.
func (r *Reader) BeginObject() error {
	_, err := r.expect(KindBeginObject)
	return err
}

// EndObject consumes '}'.
func (r *Reader) EndObject() error {
	_, err := r.expect(KindEndObject)
	return err
}

// BeginArray consumes '['.
func (r *Reader) BeginArray() error {
	_, err := r.expect(KindBeginArray)
	return err
}

// EndArray consumes ']'.
func (r *Reader) EndArray() error {
	_, err := r.expect(KindEndArray)
	return err
}

// ReadNull consumes a null.
func (r *Reader) ReadNull() error {
	_, err := r.expect(KindNull)
	return err
}

// ReadString reads a string value.
func (r *Reader) ReadString() (string, error) {
	tok, err := r.expect(KindString)
	return tok.text, err
}

// ReadBool reads a boolean value.
func (r *Reader) ReadBool() (bool, error) {
	tok, err := r.expect(KindBool)
	return tok == TokenTrue, err
}

// ReadInt reads a number that fits an int.
func (r *Reader) ReadInt() (int, error) {
	tok, err := r.expect(KindNumber)
	if err != nil {
		return 0, err
	}
	n, err := tok.Int()
	if err != nil {
		return 0, r.positioned(err)
	}
	return n, nil
}

// ReadInt32 reads a number that fits an int32.
func (r *Reader) ReadInt32() (int32, error) {
	n, err := r.readInt(32)
	return int32(n), err
}

// ReadInt64 reads a number that fits an int64.
func (r *Reader) ReadInt64() (int64, error) {
	return r.readInt(64)
}

// ReadUint64 reads a non-negative number that fits a uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	return r.readUint(64)
}

// ReadFloat64 reads a number as a float64.
func (r *Reader) ReadFloat64() (float64, error) {
	return r.readFloat(64)
}

func (r *Reader) readInt(bits int) (int64, error) {
	tok, err := r.expect(KindNumber)
	if err != nil {
		return 0, err
	}
	n, err := tok.intBits(bits)
	if err != nil {
		return 0, r.positioned(err)
	}
	return n, nil
}

func (r *Reader) readUint(bits int) (uint64, error) {
	tok, err := r.expect(KindNumber)
	if err != nil {
		return 0, err
	}
	n, err := tok.uintBits(bits)
	if err != nil {
		return 0, r.positioned(err)
	}
	return n, nil
}

func (r *Reader) readFloat(bits int) (float64, error) {
	tok, err := r.expect(KindNumber)
	if err != nil {
		return 0, err
	}
	f, err := tok.floatBits(bits)
	if err != nil {
		return 0, r.positioned(err)
	}
	return f, nil
}

// HasNext reports whether the enclosing array or object has more elements.
func (r *Reader) HasNext() (bool, error) {
	tok, err := r.Peek()
	if err != nil {
		return false, err
	}
	switch tok.kind {
	case KindEndArray, KindEndObject, KindEOF:
		return false, nil
	}
	return true, nil
}

// SkipValue discards the next value, including nested arrays and objects.
func (r *Reader) SkipValue() error {
	tok, err := r.Read()
	if err != nil {
		return err
	}
	switch tok.kind {
	case KindNull, KindString, KindNumber, KindBool:
		return nil
	case KindBeginArray:
		for {
			more, err := r.HasNext()
			if err != nil {
				return err
			}
			if !more {
				return r.EndArray()
			}
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
	case KindBeginObject:
		for {
			more, err := r.HasNext()
			if err != nil {
				return err
			}
			if !more {
				return r.EndObject()
			}
			if _, err := r.ReadName(); err != nil {
				return err
			}
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
	}
	return r.Errorf(ErrUnexpectedToken, "%v: expected a value, have %s", ErrUnexpectedToken, tok)
}

// AssertFullConsumption fails unless only the end of input remains.
func (r *Reader) AssertFullConsumption() error {
	tok, err := r.Peek()
	if err != nil {
		return err
	}
	if tok.kind != KindEOF {
		return r.Errorf(ErrTrailingData, "%v, next token is %s", ErrTrailingData, tok)
	}
	return nil
}

// Copy reads one value from r and writes it to w token by token. Member
// order and number text are preserved.
func Copy(w *Writer, r *Reader) error {
	tok, err := r.Read()
	if err != nil {
		return err
	}
	switch tok.kind {
	case KindNull:
		return w.WriteNull()
	case KindBool:
		return w.WriteBool(tok == TokenTrue)
	case KindNumber:
		if !ValidNumber(tok.text) {
			return r.Errorf(ErrInvalidValue, "%v: malformed number %s", ErrInvalidValue, tok.text)
		}
		return w.WriteNumber(tok.text)
	case KindString:
		return w.WriteString(tok.text)
	case KindBeginArray:
		if err := w.BeginArray(); err != nil {
			return err
		}
		for {
			more, err := r.HasNext()
			if err != nil {
				return err
			}
			if !more {
				break
			}
			if err := Copy(w, r); err != nil {
				return err
			}
		}
		if err := r.EndArray(); err != nil {
			return err
		}
		return w.EndArray()
	case KindBeginObject:
		if err := w.BeginObject(); err != nil {
			return err
		}
		for {
			more, err := r.HasNext()
			if err != nil {
				return err
			}
			if !more {
				break
			}
			name, err := r.ReadName()
			if err != nil {
				return err
			}
			if err := w.WriteName(name); err != nil {
				return err
			}
			if err := Copy(w, r); err != nil {
				return err
			}
		}
		if err := r.EndObject(); err != nil {
			return err
		}
		return w.EndObject()
	}
	return r.Errorf(ErrUnexpectedToken, "%v: expected a value, have %s", ErrUnexpectedToken, tok)
}
