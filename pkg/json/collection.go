package json

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// innerReader is implemented by codecs that can pass an enclosing instance
// down to an inner class.
type innerReader interface {
	readInner(r *Reader, outer reflect.Value) (reflect.Value, error)
}

func readWithOuter(r *Reader, c Codec, t reflect.Type, outer reflect.Value) (reflect.Value, error) {
	in, ok := c.(innerReader)
	if !ok || !outer.IsValid() {
		return ReadValue(r, c, t)
	}
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
	return in.readInner(r, outer)
}

type ptrCodec struct {
	t    reflect.Type
	elem Codec
}

func (c *ptrCodec) Initialize(res Resolver) error {
	if c.elem != nil {
		return nil
	}
	elem, err := res.Codec(c.t.Elem())
	if err != nil {
		return err
	}
	c.elem = elem
	return nil
}

func (c *ptrCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	return WriteValue(w, c.elem, v.Elem())
}

func (c *ptrCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	return c.readInner(r, reflect.Value{})
}

func (c *ptrCodec) readInner(r *Reader, outer reflect.Value) (reflect.Value, error) {
	v, err := readWithOuter(r, c.elem, c.t.Elem(), outer)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(c.t.Elem())
	p.Elem().Set(v)
	return p, nil
}

type listCodec struct {
	t    reflect.Type
	elem Codec
}

func (c *listCodec) Initialize(res Resolver) error {
	elem, err := res.Codec(c.t.Elem())
	if err != nil {
		return err
	}
	c.elem = elem
	return nil
}

func (c *listCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	if err := w.BeginArray(); err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := WriteValue(w, c.elem, v.Index(i)); err != nil {
			return err
		}
	}
	return w.EndArray()
}

func (c *listCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	return c.readInner(r, reflect.Value{})
}

func (c *listCodec) readInner(r *Reader, outer reflect.Value) (reflect.Value, error) {
	if err := r.BeginArray(); err != nil {
		return reflect.Value{}, err
	}
	s := reflect.MakeSlice(c.t, 0, 4)
	et := c.t.Elem()
	for {
		more, err := r.HasNext()
		if err != nil {
			return reflect.Value{}, err
		}
		if !more {
			break
		}
		v, err := readWithOuter(r, c.elem, et, outer)
		if err != nil {
			return reflect.Value{}, err
		}
		s = reflect.Append(s, v)
	}
	return s, r.EndArray()
}

// arrayCodec handles fixed-size arrays. The input must hold exactly as many
// elements as the array.
type arrayCodec struct {
	t    reflect.Type
	elem Codec
}

func (c *arrayCodec) Initialize(res Resolver) error {
	elem, err := res.Codec(c.t.Elem())
	if err != nil {
		return err
	}
	c.elem = elem
	return nil
}

func (c *arrayCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	if err := w.BeginArray(); err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := WriteValue(w, c.elem, v.Index(i)); err != nil {
			return err
		}
	}
	return w.EndArray()
}

func (c *arrayCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	return readArray(r, c.t, func(dst reflect.Value) error {
		v, err := ReadValue(r, c.elem, c.t.Elem())
		if err != nil {
			return err
		}
		dst.Set(v)
		return nil
	})
}

var (
	int32Type   = reflect.TypeOf(int32(0))
	int64Type   = reflect.TypeOf(int64(0))
	float64Type = reflect.TypeOf(float64(0))
)

// numArrayCodec is the specialization for [N]int32, [N]int64 and
// [N]float64. Elements are read and written without a codec lookup.
type numArrayCodec struct {
	t reflect.Type
}

func newNumArrayCodec(t reflect.Type) Codec {
	switch t.Elem() {
	case int32Type, int64Type, float64Type:
		return numArrayCodec{t}
	}
	return nil
}

func (c numArrayCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	if err := w.BeginArray(); err != nil {
		return err
	}
	isFloat := c.t.Elem() == float64Type
	for i := 0; i < v.Len(); i++ {
		var err error
		if isFloat {
			err = w.WriteFloat64(v.Index(i).Float())
		} else {
			err = w.WriteInt(v.Index(i).Int())
		}
		if err != nil {
			return err
		}
	}
	return w.EndArray()
}

func (c numArrayCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	et := c.t.Elem()
	return readArray(r, c.t, func(dst reflect.Value) error {
		tok, err := r.Peek()
		if err != nil {
			return err
		}
		if tok.kind == KindNull {
			_, err := r.Read()
			return err
		}
		switch et {
		case int32Type:
			n, err := r.ReadInt32()
			dst.SetInt(int64(n))
			return err
		case int64Type:
			n, err := r.ReadInt64()
			dst.SetInt(n)
			return err
		default:
			f, err := r.ReadFloat64()
			dst.SetFloat(f)
			return err
		}
	})
}

func readArray(r *Reader, t reflect.Type, readElem func(dst reflect.Value) error) (reflect.Value, error) {
	if err := r.BeginArray(); err != nil {
		return reflect.Value{}, err
	}
	arr := reflect.New(t).Elem()
	n := 0
	for {
		more, err := r.HasNext()
		if err != nil {
			return reflect.Value{}, err
		}
		if !more {
			break
		}
		if n == t.Len() {
			return reflect.Value{}, r.Errorf(ErrInvalidValue, "%v: more than %d elements for %v", ErrInvalidValue, t.Len(), t)
		}
		if err := readElem(arr.Index(n)); err != nil {
			return reflect.Value{}, err
		}
		n++
	}
	if n != t.Len() {
		return reflect.Value{}, r.Errorf(ErrInvalidValue, "%v: %d elements for %v", ErrInvalidValue, n, t)
	}
	return arr, r.EndArray()
}

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

type keyKind uint8

const (
	keyString keyKind = iota
	keyText
	keyInt
	keyUint
)

// mapCodec writes maps as objects with keys in sorted order. Keys are
// strings, integers or encoding.TextMarshaler implementations. When a key
// repeats on input the last value wins.
type mapCodec struct {
	t    reflect.Type
	key  keyKind
	elem Codec
}

func newMapCodec(t reflect.Type) (*mapCodec, error) {
	kt := t.Key()
	c := &mapCodec{t: t}
	switch {
	case kt.Kind() == reflect.String:
		c.key = keyString
	case kt.Kind() != reflect.Ptr && kt.Implements(textMarshalerType) && reflect.PointerTo(kt).Implements(textUnmarshalerType):
		c.key = keyText
	case isSigned(kt.Kind()):
		c.key = keyInt
	case isInteger(kt.Kind()):
		c.key = keyUint
	default:
		return nil, fmt.Errorf("%w: map key type %v", ErrUnsupportedType, kt)
	}
	return c, nil
}

func (c *mapCodec) Initialize(res Resolver) error {
	elem, err := res.Codec(c.t.Elem())
	if err != nil {
		return err
	}
	c.elem = elem
	return nil
}

type mapEntry struct {
	name  string
	value reflect.Value
}

func (c *mapCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	entries := make([]mapEntry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		name, err := c.keyName(iter.Key())
		if err != nil {
			return err
		}
		entries = append(entries, mapEntry{name, iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	if err := w.BeginObject(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.WriteName(e.name); err != nil {
			return err
		}
		if err := WriteValue(w, c.elem, e.value); err != nil {
			return err
		}
	}
	return w.EndObject()
}

func (c *mapCodec) keyName(k reflect.Value) (string, error) {
	switch c.key {
	case keyString:
		return k.String(), nil
	case keyText:
		b, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		return string(b), err
	case keyInt:
		return strconv.FormatInt(k.Int(), 10), nil
	default:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
}

func (c *mapCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	if err := r.BeginObject(); err != nil {
		return reflect.Value{}, err
	}
	m := reflect.MakeMap(c.t)
	et := c.t.Elem()
	for {
		more, err := r.HasNext()
		if err != nil {
			return reflect.Value{}, err
		}
		if !more {
			break
		}
		name, err := r.ReadName()
		if err != nil {
			return reflect.Value{}, err
		}
		k, err := c.parseKey(name)
		if err != nil {
			return reflect.Value{}, r.Errorf(ErrInvalidValue, "%v: map key %q: %v", ErrInvalidValue, name, err)
		}
		v, err := ReadValue(r, c.elem, et)
		if err != nil {
			return reflect.Value{}, err
		}
		m.SetMapIndex(k, v)
	}
	return m, r.EndObject()
}

func (c *mapCodec) parseKey(name string) (reflect.Value, error) {
	kt := c.t.Key()
	switch c.key {
	case keyString:
		return reflect.ValueOf(name).Convert(kt), nil
	case keyText:
		k := reflect.New(kt)
		if err := k.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(name)); err != nil {
			return reflect.Value{}, err
		}
		return k.Elem(), nil
	case keyInt:
		n, err := strconv.ParseInt(name, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(kt), nil
	default:
		n, err := strconv.ParseUint(name, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(kt), nil
	}
}
