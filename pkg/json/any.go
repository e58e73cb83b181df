package json

import (
	"fmt"
	"reflect"
)

// anyCodec handles interface types. Values are written with the codec of
// their dynamic type. Input is decoded into bool, float64, string,
// []interface{} and map[string]interface{}, which must satisfy the
// interface.
type anyCodec struct {
	t   reflect.Type
	reg *Registry
}

func (c *anyCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() {
		return w.WriteNull()
	}
	codec, err := c.reg.Codec(v.Type())
	if err != nil {
		return err
	}
	return WriteValue(w, codec, v)
}

func (c *anyCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	x, err := c.read(r)
	if err != nil {
		return reflect.Value{}, err
	}
	if x == nil {
		return reflect.Zero(c.t), nil
	}
	v := reflect.ValueOf(x)
	if !v.Type().AssignableTo(c.t) {
		return reflect.Value{}, r.Errorf(ErrUnsupportedType, "%v: cannot decode %v into %v", ErrUnsupportedType, v.Type(), c.t)
	}
	return v, nil
}

func (c *anyCodec) read(r *Reader) (interface{}, error) {
	tok, err := r.Read()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return tok == TokenTrue, nil
	case KindString:
		return tok.text, nil
	case KindNumber:
		f, err := tok.Float64()
		if err != nil {
			return nil, r.positioned(err)
		}
		return f, nil
	case KindBeginArray:
		list := []interface{}{}
		for {
			more, err := r.HasNext()
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
			x, err := c.read(r)
			if err != nil {
				return nil, err
			}
			list = append(list, x)
		}
		return list, r.EndArray()
	case KindBeginObject:
		obj := map[string]interface{}{}
		for {
			more, err := r.HasNext()
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
			name, err := r.ReadName()
			if err != nil {
				return nil, err
			}
			x, err := c.read(r)
			if err != nil {
				return nil, err
			}
			obj[name] = x
		}
		return obj, r.EndObject()
	}
	return nil, r.positioned(fmt.Errorf("%w: expected a value, have %s", ErrUnexpectedToken, tok))
}
