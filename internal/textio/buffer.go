package textio

import "io"

// Buffer accumulates output text before it is flushed to a destination.
type Buffer struct {
	buf []byte
}

// NewBuffer creates a new Buffer with an initial capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, 0, capacity)}
}

// String returns the written text.
func (b *Buffer) String() string {
	return string(b.buf)
}

// WriteByte writes a single byte. Implements io.ByteWriter.
// Always returns nil error for in-memory buffer.
func (b *Buffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends s.
func (b *Buffer) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// WriteQuoted appends s between double quotes, escaping only backslash and
// double quote. Every other character is copied as is.
func (b *Buffer) WriteQuoted(s string) {
	b.buf = append(b.buf, '"')
	start := 0
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == '"' || c == '\\' {
			b.buf = append(b.buf, s[start:i]...)
			b.buf = append(b.buf, '\\', c)
			start = i + 1
		}
	}
	b.buf = append(b.buf, s[start:]...)
	b.buf = append(b.buf, '"')
}

// WriteIndent starts a new line indented by level*width spaces.
func (b *Buffer) WriteIndent(level, width int) {
	b.buf = append(b.buf, '\n')
	for i := 0; i < level*width; i++ {
		b.buf = append(b.buf, ' ')
	}
}

// Append appends raw bytes, as strconv.Append* results.
func (b *Buffer) Append(fn func([]byte) []byte) {
	b.buf = fn(b.buf)
}

// WriteTo flushes the buffer to w and resets it. Implements io.WriterTo.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.buf)
	b.buf = b.buf[:0]
	return int64(n), err
}
