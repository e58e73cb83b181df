// Package json reads and writes JSON text and maps it to Go values.
//
// The low-level API is a token Reader and a structural Writer. On top of
// them a Registry resolves every Go type to a Codec: primitives, pointers,
// slices, arrays, maps, enums, interfaces and structs, whose fields are
// described by package omm.
//
// Basic usage:
//
//	reg := json.New(json.WithPrettyPrint(true))
//	text, err := reg.ToJSON(v)
//
//	var out T
//	err = reg.FromJSON(text, &out)
//
// A Registry is safe for concurrent use once registration is done. Readers
// and Writers are not.
package json

import (
	"reflect"
)

// Codec binds a Go type to its JSON representation. Codecs are stateless
// once initialized and may be shared between goroutines.
type Codec interface {
	// WriteNonNull writes v, which is never null.
	WriteNonNull(w *Writer, v reflect.Value) error
	// ReadNonNull reads a value that is known not to be null. The result
	// is assignable to the codec's type.
	ReadNonNull(r *Reader) (reflect.Value, error)
}

// Initializer is implemented by codecs that depend on other codecs. The
// registry calls Initialize once, after the codec has been cached, so a
// codec may look up its own type while initializing.
type Initializer interface {
	Initialize(res Resolver) error
}

// Resolver looks up codecs while a codec is being initialized.
type Resolver interface {
	Codec(t reflect.Type) (Codec, error)
	Registry() *Registry
}

// CodecProvider lets a type declare its own codec. The method is called on
// the zero value.
type CodecProvider interface {
	JSONCodec() Codec
}

// CodecFactory builds a codec for a registered type or one of its
// subtypes.
type CodecFactory func(t reflect.Type, res Resolver) (Codec, error)

// IsNull reports whether v is written as null: an invalid value or a nil
// pointer, interface, slice or map.
func IsNull(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return v.IsNil()
	}
	return false
}

// Nullable reports whether values of t can be null.
func Nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	}
	return false
}

// WriteValue writes v with c, or null.
func WriteValue(w *Writer, c Codec, v reflect.Value) error {
	if IsNull(v) {
		return w.WriteNull()
	}
	return c.WriteNonNull(w, v)
}

// ReadValue reads a value of type t with c. A null reads as the zero value.
func ReadValue(r *Reader, c Codec, t reflect.Type) (reflect.Value, error) {
	tok, err := r.Peek()
	if err != nil {
		return reflect.Value{}, err
	}
	if tok.kind == KindNull {
		if _, err := r.Read(); err != nil {
			return reflect.Value{}, err
		}
		return reflect.Zero(t), nil
	}
	return c.ReadNonNull(r)
}
