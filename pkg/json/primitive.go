package json

import (
	"reflect"
)

type boolCodec struct{ t reflect.Type }

func (c boolCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	return w.WriteBool(v.Bool())
}

func (c boolCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	b, err := r.ReadBool()
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.New(c.t).Elem()
	v.SetBool(b)
	return v, nil
}

type stringCodec struct{ t reflect.Type }

func (c stringCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	return w.WriteString(v.String())
}

func (c stringCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	s, err := r.ReadString()
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.New(c.t).Elem()
	v.SetString(s)
	return v, nil
}

// intCodec handles every signed integer kind; the width comes from the type.
type intCodec struct{ t reflect.Type }

func (c intCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	return w.WriteInt(v.Int())
}

func (c intCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	n, err := r.readInt(c.t.Bits())
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.New(c.t).Elem()
	v.SetInt(n)
	return v, nil
}

type uintCodec struct{ t reflect.Type }

func (c uintCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	return w.WriteUint(v.Uint())
}

func (c uintCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	n, err := r.readUint(c.t.Bits())
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.New(c.t).Elem()
	v.SetUint(n)
	return v, nil
}

type floatCodec struct{ t reflect.Type }

func (c floatCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	if c.t.Bits() == 32 {
		return w.WriteFloat32(float32(v.Float()))
	}
	return w.WriteFloat64(v.Float())
}

func (c floatCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	f, err := r.readFloat(c.t.Bits())
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.New(c.t).Elem()
	v.SetFloat(f)
	return v, nil
}

// primitiveCodec returns the codec of a bool, integer or float kind, or nil.
func primitiveCodec(t reflect.Type) Codec {
	switch t.Kind() {
	case reflect.Bool:
		return boolCodec{t}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intCodec{t}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintCodec{t}
	case reflect.Float32, reflect.Float64:
		return floatCodec{t}
	}
	return nil
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}
