package json

import (
	"reflect"

	"github.com/acolita/ommjson/pkg/omm"
)

// fieldDesc is a mapped field together with the codec of its values.
type fieldDesc struct {
	*omm.Field
	codec Codec
}

// classCodec reads and writes a struct through its omm class descriptor.
// With a delegate the struct is represented by the delegate's value alone;
// otherwise by an object holding one member per field.
type classCodec struct {
	t     reflect.Type
	class *omm.Class[*fieldDesc]
}

func (c *classCodec) Initialize(res Resolver) error {
	class, err := omm.Build(c.t, res.Registry().params, func(f *omm.Field) (*fieldDesc, error) {
		codec, err := fieldCodec(res, f)
		if err != nil {
			return nil, err
		}
		return &fieldDesc{Field: f, codec: codec}, nil
	})
	if err != nil {
		return err
	}
	c.class = class
	return nil
}

// fieldCodec resolves the codec of one field. Enum fields without a
// registered codec follow the enum mode of the field rather than the
// registry default.
func fieldCodec(res Resolver, f *omm.Field) (Codec, error) {
	t := f.Type
	if res.Registry().registered(t) {
		return res.Codec(t)
	}
	byName := f.Enum == omm.EnumName
	if ec, ok := newEnumCodec(t, byName); ok {
		return ec, nil
	}
	if t.Kind() == reflect.Ptr {
		if ec, ok := newEnumCodec(t.Elem(), byName); ok {
			return &ptrCodec{t: t, elem: ec}, nil
		}
	}
	return res.Codec(t)
}

func (c *classCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	if c.class.Hidden() && !v.CanAddr() {
		cp := reflect.New(c.t).Elem()
		cp.Set(v)
		v = cp
	}
	if d, ok := c.class.Delegate(); ok {
		return WriteValue(w, d.codec, d.Get(v))
	}

	if err := w.BeginObject(); err != nil {
		return err
	}
	for _, f := range c.class.Fields() {
		fv := f.Get(v)
		if !f.SerializeNull && IsNull(fv) {
			continue
		}
		if err := w.WriteName(f.Name); err != nil {
			return err
		}
		if err := WriteValue(w, f.codec, fv); err != nil {
			return err
		}
	}
	return w.EndObject()
}

func (c *classCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	return c.readInner(r, reflect.Value{})
}

// readInner decodes an instance. outer is the enclosing instance handed to
// the factory of an inner type.
func (c *classCodec) readInner(r *Reader, outer reflect.Value) (reflect.Value, error) {
	s, err := c.class.Spawn(outer)
	if err != nil {
		return reflect.Value{}, err
	}
	if d, ok := c.class.Delegate(); ok {
		if err := c.readField(r, s, d); err != nil {
			return reflect.Value{}, err
		}
		return s.Finalize()
	}

	if err := r.BeginObject(); err != nil {
		return reflect.Value{}, err
	}
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
		f, ok := c.class.Field(name)
		if !ok {
			if !c.class.AllowUnmatchedFields() {
				return reflect.Value{}, omm.NewMappingError(c.t, name, omm.ErrUnmatchedField, "")
			}
			if err := r.SkipValue(); err != nil {
				return reflect.Value{}, err
			}
			continue
		}
		if err := c.readField(r, s, f); err != nil {
			return reflect.Value{}, err
		}
	}
	if err := r.EndObject(); err != nil {
		return reflect.Value{}, err
	}
	return s.Finalize()
}

func (c *classCodec) readField(r *Reader, s *omm.Setter[*fieldDesc], f *fieldDesc) error {
	tok, err := r.Peek()
	if err != nil {
		return err
	}
	if tok.kind == KindNull {
		if _, err := r.Read(); err != nil {
			return err
		}
		return s.Set(f, reflect.Value{})
	}
	v, err := readWithOuter(r, f.codec, f.Type, s.Instance())
	if err != nil {
		return err
	}
	return s.Set(f, v)
}
