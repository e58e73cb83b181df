package json

import (
	"io"
	"reflect"
	"strings"
)

// Serializer reads and writes values of one type with a codec resolved
// once.
type Serializer[T any] struct {
	reg   *Registry
	t     reflect.Type
	codec Codec
}

// NewSerializer resolves the codec of T.
func NewSerializer[T any](r *Registry) (*Serializer[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	c, err := r.Codec(t)
	if err != nil {
		return nil, err
	}
	return &Serializer[T]{reg: r, t: t, codec: c}, nil
}

// Write writes v to w.
func (s *Serializer[T]) Write(w *Writer, v T) error {
	return WriteValue(w, s.codec, reflect.ValueOf(&v).Elem())
}

// ToJSON returns the JSON text of v.
func (s *Serializer[T]) ToJSON(v T) (string, error) {
	w := s.reg.NewWriter(nil)
	if err := s.Write(w, v); err != nil {
		return "", err
	}
	if err := w.Finish(); err != nil {
		return "", err
	}
	return w.String(), nil
}

// Read reads one value from r.
func (s *Serializer[T]) Read(r *Reader) (T, error) {
	var out T
	v, err := ReadValue(r, s.codec, s.t)
	if err != nil {
		return out, err
	}
	reflect.ValueOf(&out).Elem().Set(v)
	return out, nil
}

// FromJSON decodes the JSON text str, which must hold exactly one value.
func (s *Serializer[T]) FromJSON(str string) (T, error) {
	return s.decode(s.reg.NewReader(strings.NewReader(str)))
}

// Decode decodes one value from in and checks that nothing follows it.
func (s *Serializer[T]) Decode(in io.RuneReader) (T, error) {
	return s.decode(s.reg.NewReader(in))
}

func (s *Serializer[T]) decode(r *Reader) (T, error) {
	v, err := s.Read(r)
	if err != nil {
		return v, err
	}
	if err := r.AssertFullConsumption(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
