package json

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/acolita/ommjson/internal/textio"
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WriterIndent enables pretty printing with the given number of spaces per
// nesting level. Zero or less writes compact output.
func WriterIndent(width int) WriterOption {
	return func(w *Writer) {
		w.indent = width
	}
}

type frameKind uint8

const (
	frameRoot frameKind = iota
	frameObject
	frameArray
)

type frame struct {
	kind         frameKind
	keyWritten   bool
	valueWritten bool
}

// Writer produces JSON text while enforcing document structure: inside an
// object every value must follow a name, and the root holds exactly one
// value. A call made in the wrong state fails before anything is written,
// and the first error is returned by every later call.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	buf    *textio.Buffer
	out    io.Writer
	indent int
	stack  []frame
	err    error
}

// NewWriter creates a Writer. The text is buffered and flushed to out by
// Finish; out may be nil when the caller only needs String.
func NewWriter(out io.Writer, opts ...WriterOption) *Writer {
	w := &Writer{
		buf:   textio.NewBuffer(256),
		out:   out,
		stack: make([]frame, 1, 8),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// String returns the text written so far.
func (w *Writer) String() string {
	return w.buf.String()
}

func (w *Writer) top() *frame {
	return &w.stack[len(w.stack)-1]
}

func (w *Writer) pretty() bool {
	return w.indent > 0
}

func (w *Writer) fail(format string, args ...interface{}) error {
	w.err = fmt.Errorf("%w: "+format, append([]interface{}{ErrWriterState}, args...)...)
	return w.err
}

// WriteName writes an object member name.
func (w *Writer) WriteName(name string) error {
	if w.err != nil {
		return w.err
	}
	f := w.top()
	if f.kind != frameObject {
		return w.fail("name %q outside of an object", name)
	}
	if f.keyWritten {
		return w.fail("name %q written twice without a value", name)
	}
	if f.valueWritten {
		w.buf.WriteByte(',')
	}
	if w.pretty() {
		w.buf.WriteIndent(len(w.stack)-1, w.indent)
	}
	w.buf.WriteQuoted(name)
	w.buf.WriteByte(':')
	if w.pretty() {
		w.buf.WriteByte(' ')
	}
	f.keyWritten = true
	return nil
}

func (w *Writer) beginValue() error {
	if w.err != nil {
		return w.err
	}
	f := w.top()
	switch f.kind {
	case frameRoot:
		if f.valueWritten {
			return w.fail("more than one root value")
		}
	case frameObject:
		if !f.keyWritten {
			return w.fail("value inside an object without a name")
		}
		f.keyWritten = false
	case frameArray:
		if f.valueWritten {
			w.buf.WriteByte(',')
		}
		if w.pretty() {
			w.buf.WriteIndent(len(w.stack)-1, w.indent)
		}
	}
	f.valueWritten = true
	return nil
}

// BeginObject writes '{'.
func (w *Writer) BeginObject() error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.buf.WriteByte('{')
	w.stack = append(w.stack, frame{kind: frameObject})
	return nil
}

// EndObject writes '}'.
func (w *Writer) EndObject() error {
	if w.err != nil {
		return w.err
	}
	f := w.top()
	if f.kind != frameObject {
		return w.fail("EndObject outside of an object")
	}
	if f.keyWritten {
		return w.fail("EndObject after a name without a value")
	}
	w.end(f.valueWritten, '}')
	return nil
}

// BeginArray writes '['.
func (w *Writer) BeginArray() error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.buf.WriteByte('[')
	w.stack = append(w.stack, frame{kind: frameArray})
	return nil
}

// EndArray writes ']'.
func (w *Writer) EndArray() error {
	if w.err != nil {
		return w.err
	}
	if w.top().kind != frameArray {
		return w.fail("EndArray outside of an array")
	}
	w.end(w.top().valueWritten, ']')
	return nil
}

func (w *Writer) end(nonEmpty bool, bracket byte) {
	w.stack = w.stack[:len(w.stack)-1]
	if w.pretty() && nonEmpty {
		w.buf.WriteIndent(len(w.stack)-1, w.indent)
	}
	w.buf.WriteByte(bracket)
}

// WriteNull writes null.
func (w *Writer) WriteNull() error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.buf.WriteString("null")
	return nil
}

// WriteBool writes true or false.
func (w *Writer) WriteBool(b bool) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.buf.WriteString(strconv.FormatBool(b))
	return nil
}

// WriteInt writes a signed integer.
func (w *Writer) WriteInt(n int64) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.buf.Append(func(b []byte) []byte { return strconv.AppendInt(b, n, 10) })
	return nil
}

// WriteUint writes an unsigned integer.
func (w *Writer) WriteUint(n uint64) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.buf.Append(func(b []byte) []byte { return strconv.AppendUint(b, n, 10) })
	return nil
}

// WriteFloat64 writes a double. NaN and infinities are rejected.
func (w *Writer) WriteFloat64(f float64) error {
	return w.writeFloat(f, 64)
}

// WriteFloat32 writes a float with the shortest representation that reads
// back as the same float32.
func (w *Writer) WriteFloat32(f float32) error {
	return w.writeFloat(float64(f), 32)
}

func (w *Writer) writeFloat(f float64, bits int) error {
	if w.err != nil {
		return w.err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
	}
	if err := w.beginValue(); err != nil {
		return err
	}
	w.buf.Append(func(b []byte) []byte { return appendFloat(b, f, bits) })
	return nil
}

// WriteNumber writes number text as is. Text that is not a JSON number is
// rejected without affecting later calls.
func (w *Writer) WriteNumber(text string) error {
	if w.err != nil {
		return w.err
	}
	if !ValidNumber(text) {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidValue, text)
	}
	if err := w.beginValue(); err != nil {
		return err
	}
	w.buf.WriteString(text)
	return nil
}

// WriteString writes a string value. Only backslash and double quote are
// escaped.
func (w *Writer) WriteString(s string) error {
	if err := w.beginValue(); err != nil {
		return err
	}
	w.buf.WriteQuoted(s)
	return nil
}

// Finish checks that exactly one complete root value was written and
// flushes the text to the destination.
func (w *Writer) Finish() error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) != 1 {
		return w.fail("unterminated %s", frameName(w.top().kind))
	}
	if !w.top().valueWritten {
		return w.fail("no root value")
	}
	if w.out == nil {
		return nil
	}
	if _, err := w.buf.WriteTo(w.out); err != nil {
		w.err = err
		return err
	}
	return nil
}

func frameName(k frameKind) string {
	switch k {
	case frameObject:
		return "object"
	case frameArray:
		return "array"
	}
	return "root"
}

// appendFloat formats like ECMAScript number-to-string: plain notation for
// magnitudes in [1e-6, 1e21), exponent notation outside.
func appendFloat(b []byte, f float64, bits int) []byte {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b = strconv.AppendFloat(b, f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return b
}
