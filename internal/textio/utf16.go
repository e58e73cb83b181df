package textio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// ErrOddLength is returned when UTF-16 input ends in the middle of a code unit.
var ErrOddLength = errors.New("textio: odd number of bytes in UTF-16 input")

// UTF16Reader delivers UTF-16 code units as runes. Surrogate halves are
// passed through unpaired; Source joins and validates them.
type UTF16Reader struct {
	in    *bufio.Reader
	order binary.ByteOrder
	unit  [2]byte
}

// NewUTF16Reader creates a reader decoding in with the given byte order.
func NewUTF16Reader(in io.Reader, order binary.ByteOrder) *UTF16Reader {
	return &UTF16Reader{in: bufio.NewReader(in), order: order}
}

// ReadRune implements io.RuneReader. The size is always 2.
func (u *UTF16Reader) ReadRune() (rune, int, error) {
	n, err := io.ReadFull(u.in, u.unit[:])
	switch {
	case n == 0 && errors.Is(err, io.EOF):
		return 0, 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return 0, 0, ErrOddLength
	case err != nil:
		return 0, 0, err
	}
	return rune(u.order.Uint16(u.unit[:])), 2, nil
}

// AppendUTF16 appends s to buf as UTF-16 in the given byte order.
// Characters outside the BMP are written as surrogate pairs.
func AppendUTF16(buf []byte, s string, order binary.ByteOrder) []byte {
	var unit [2]byte
	for _, r := range s {
		if r <= 0xFFFF {
			order.PutUint16(unit[:], uint16(r))
			buf = append(buf, unit[:]...)
			continue
		}
		r -= 0x10000
		order.PutUint16(unit[:], uint16(0xD800+(r>>10)))
		buf = append(buf, unit[:]...)
		order.PutUint16(unit[:], uint16(0xDC00+(r&0x3FF)))
		buf = append(buf, unit[:]...)
	}
	return buf
}
