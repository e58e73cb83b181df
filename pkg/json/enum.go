package json

import (
	"reflect"

	"github.com/acolita/ommjson/pkg/omm"
)

var enumType = reflect.TypeOf((*omm.Enum)(nil)).Elem()

// enumNames returns the value names of an integer type implementing
// omm.Enum.
func enumNames(t reflect.Type) ([]string, bool) {
	if !isInteger(t.Kind()) {
		return nil, false
	}
	switch {
	case t.Implements(enumType):
		return reflect.Zero(t).Interface().(omm.Enum).EnumNames(), true
	case reflect.PointerTo(t).Implements(enumType):
		return reflect.New(t).Interface().(omm.Enum).EnumNames(), true
	}
	return nil, false
}

// enumCodec writes an enum as the name of its value or as its ordinal.
type enumCodec struct {
	t      reflect.Type
	names  []string
	byName bool
	index  map[string]int
}

func newEnumCodec(t reflect.Type, byName bool) (*enumCodec, bool) {
	names, ok := enumNames(t)
	if !ok {
		return nil, false
	}
	c := &enumCodec{t: t, names: names, byName: byName, index: make(map[string]int, len(names))}
	for i, name := range names {
		if _, dup := c.index[name]; !dup {
			c.index[name] = i
		}
	}
	return c, true
}

func (c *enumCodec) ordinal(v reflect.Value) int64 {
	if isSigned(v.Kind()) {
		return v.Int()
	}
	if u := v.Uint(); u <= uint64(len(c.names)) {
		return int64(u)
	}
	return -1
}

func (c *enumCodec) WriteNonNull(w *Writer, v reflect.Value) error {
	n := c.ordinal(v)
	if n < 0 || n >= int64(len(c.names)) {
		return omm.NewMappingError(c.t, "", omm.ErrEnumValue, "ordinal %d out of range", n)
	}
	if c.byName {
		return w.WriteString(c.names[n])
	}
	return w.WriteInt(n)
}

func (c *enumCodec) ReadNonNull(r *Reader) (reflect.Value, error) {
	var n int
	if c.byName {
		name, err := r.ReadString()
		if err != nil {
			return reflect.Value{}, err
		}
		i, ok := c.index[name]
		if !ok {
			return reflect.Value{}, omm.NewMappingError(c.t, "", omm.ErrEnumValue, "unrecognized enum value name %q", name)
		}
		n = i
	} else {
		i, err := r.ReadInt()
		if err != nil {
			return reflect.Value{}, err
		}
		if i < 0 || i >= len(c.names) {
			return reflect.Value{}, omm.NewMappingError(c.t, "", omm.ErrEnumValue, "ordinal %d out of range", i)
		}
		n = i
	}
	v := reflect.New(c.t).Elem()
	if isSigned(c.t.Kind()) {
		v.SetInt(int64(n))
	} else {
		v.SetUint(uint64(n))
	}
	return v, nil
}
