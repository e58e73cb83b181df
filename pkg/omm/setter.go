package omm

import (
	"reflect"
)

type pendingValue struct {
	field *Field
	value reflect.Value
}

// Setter accumulates the field values of one instance. It is single-use:
// after Finalize every call fails.
type Setter[F FieldNode] struct {
	class *Class[F]
	inst  reflect.Value
	seen  []bool
	slots []reflect.Value
	late  []pendingValue
	done  bool
}

// Spawn starts building an instance. For the field-assignment strategy the
// instance is allocated immediately. outer is the enclosing instance, used
// by inner types only; pass the zero Value otherwise.
func (c *Class[F]) Spawn(outer reflect.Value) (*Setter[F], error) {
	s := &Setter[F]{class: c}
	if c.delegate < 0 {
		s.seen = make([]bool, len(c.fields))
	}
	if c.ctor != nil {
		s.slots = make([]reflect.Value, len(c.ctor.params))
		return s, nil
	}
	if c.factory == nil {
		s.inst = reflect.New(c.typ)
		return s, nil
	}

	ft := c.factory.fn.Type()
	args := make([]reflect.Value, len(c.factory.params))
	for i, prm := range c.factory.params {
		if !prm.Outer {
			args[i] = reflect.Zero(ft.In(i))
			continue
		}
		if !outer.IsValid() {
			return nil, NewMappingError(c.typ, "", ErrConstruction, "inner type needs an enclosing instance")
		}
		if !outer.Type().AssignableTo(ft.In(i)) {
			return nil, NewMappingError(c.typ, "", ErrConstruction, "enclosing instance %v is not a %v", outer.Type(), ft.In(i))
		}
		args[i] = outer
	}
	inst, err := c.call(c.factory.fn, args)
	if err != nil {
		return nil, err
	}
	s.inst = inst
	return s, nil
}

// call invokes a constructor or factory and returns a pointer to the
// result.
func (c *Class[F]) call(fn reflect.Value, args []reflect.Value) (reflect.Value, error) {
	out := fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, &MappingError{Type: c.typ, Kind: ErrConstruction, Err: out[1].Interface().(error)}
	}
	if out[0].Kind() == reflect.Ptr && out[0].Type().Elem() == c.typ {
		if out[0].IsNil() {
			return reflect.Value{}, NewMappingError(c.typ, "", ErrConstruction, "constructor returned nil")
		}
		return out[0], nil
	}
	p := reflect.New(c.typ)
	p.Elem().Set(out[0])
	return p, nil
}

// Instance returns a pointer to the instance under construction, or the
// zero Value when the type is built by a constructor.
func (s *Setter[F]) Instance() reflect.Value {
	return s.inst
}

// Set records the value of one field. An invalid v stands for null.
func (s *Setter[F]) Set(field F, v reflect.Value) error {
	f := field.Base()
	c := s.class
	if s.done {
		return NewMappingError(c.typ, f.Name, ErrFinalized, "")
	}
	if !v.IsValid() {
		if !f.Nullable {
			return NewMappingError(c.typ, f.Name, ErrNullField, "")
		}
		v = reflect.Zero(f.Type)
	}
	if s.seen != nil {
		if s.seen[f.Ordinal] {
			return NewMappingError(c.typ, f.Name, ErrDuplicateField, "")
		}
		s.seen[f.Ordinal] = true
	}
	if !f.Settable() {
		return NewMappingError(c.typ, f.Name, ErrReadOnlyField, "")
	}
	if f.Slot >= 0 {
		s.slots[f.Slot] = v
		return nil
	}
	if c.ctor != nil {
		s.late = append(s.late, pendingValue{f, v})
		return nil
	}
	assign(f.Get(s.inst.Elem()), f, v)
	return nil
}

func assign(target reflect.Value, f *Field, v reflect.Value) {
	if !f.inPlace {
		target.Set(v)
		return
	}
	switch target.Kind() {
	case reflect.Slice:
		target.Set(reflect.AppendSlice(target.Slice(0, 0), v))
	case reflect.Map:
		if target.IsNil() {
			target.Set(reflect.MakeMapWithSize(target.Type(), v.Len()))
		} else {
			target.Clear()
		}
		iter := v.MapRange()
		for iter.Next() {
			target.SetMapIndex(iter.Key(), iter.Value())
		}
	}
}

// Finalize checks that every required field was set, builds the instance
// and runs the finalizers. It returns the struct value.
func (s *Setter[F]) Finalize() (reflect.Value, error) {
	c := s.class
	if s.done {
		return reflect.Value{}, NewMappingError(c.typ, "", ErrFinalized, "")
	}
	s.done = true

	if s.seen != nil {
		for i, node := range c.fields {
			if f := node.Base(); f.Required && !s.seen[i] {
				return reflect.Value{}, NewMappingError(c.typ, f.Name, ErrRequiredField, "")
			}
		}
	}

	inst := s.inst
	if c.ctor != nil {
		ft := c.ctor.fn.Type()
		args := make([]reflect.Value, len(s.slots))
		for i, v := range s.slots {
			in := ft.In(i)
			switch {
			case !v.IsValid():
				args[i] = reflect.Zero(in)
			case v.Type().AssignableTo(in):
				args[i] = v
			default:
				return reflect.Value{}, NewMappingError(c.typ, c.ctor.params[i].Field, ErrConstruction, "%v is not assignable to %v", v.Type(), in)
			}
		}
		var err error
		if inst, err = c.call(c.ctor.fn, args); err != nil {
			return reflect.Value{}, err
		}
		for _, p := range s.late {
			assign(p.field.Get(inst.Elem()), p.field, p.value)
		}
	}

	for _, idx := range c.finalizers {
		out := inst.Method(idx).Call(nil)
		if len(out) == 1 && !out[0].IsNil() {
			return reflect.Value{}, &MappingError{Type: c.typ, Kind: ErrConstruction, Reason: "finalizer", Err: out[0].Interface().(error)}
		}
	}
	return inst.Elem(), nil
}
