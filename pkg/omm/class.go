package omm

import (
	"reflect"
	"unsafe"
)

// Field describes one mapped struct field.
type Field struct {
	// Name is the external name.
	Name string
	// GoName is the name of the struct field.
	GoName string
	// Index is the path passed to reflect.Value.FieldByIndex.
	Index []int
	Type  reflect.Type
	// Ordinal is the position of the field in Class.Fields.
	Ordinal int

	Required      bool
	Nullable      bool
	ReadOnly      bool
	SerializeNull bool
	// Enum is the resolved representation of enum-typed values.
	Enum EnumMode
	// Slot is the constructor parameter the field initializes, or -1.
	Slot int
	// Hidden fields are unexported and accessed through unsafe.
	Hidden bool

	inPlace bool
}

// Base returns f. It lets codec-specific field types embedding *Field
// satisfy FieldNode.
func (f *Field) Base() *Field { return f }

// Get returns the field of the struct value v. Hidden fields require v to
// be addressable.
func (f *Field) Get(v reflect.Value) reflect.Value {
	for _, i := range f.Index {
		v = v.Field(i)
	}
	if f.Hidden {
		v = reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
	}
	return v
}

// Settable reports whether the field can be read from input.
func (f *Field) Settable() bool {
	return !f.ReadOnly || f.Slot >= 0 || f.inPlace
}

// InPlace reports whether the field is a read-only slice or map that is
// refilled instead of replaced.
func (f *Field) InPlace() bool { return f.inPlace }

// FieldNode is the field type of a Class. Wire formats wrap *Field to carry
// their own per-field state.
type FieldNode interface {
	Base() *Field
}

// Class is the reusable mapping of one struct type. It is immutable once
// built and safe for concurrent use.
type Class[F FieldNode] struct {
	typ        reflect.Type
	fields     []F
	byName     map[string]int
	delegate   int
	finalizers []int
	ctor       *ctorSpec
	factory    *ctorSpec
	inner      bool
	hidden     bool
	unmatched  bool
}

// Type returns the mapped struct type.
func (c *Class[F]) Type() reflect.Type { return c.typ }

// Fields returns the fields in declaration order. With a delegate the only
// field is the delegate.
func (c *Class[F]) Fields() []F { return c.fields }

// Len returns the number of fields.
func (c *Class[F]) Len() int { return len(c.fields) }

// Field looks a field up by external name.
func (c *Class[F]) Field(name string) (F, bool) {
	i, ok := c.byName[name]
	if !ok {
		var zero F
		return zero, false
	}
	return c.fields[i], true
}

// Delegate returns the field that represents the whole value, if any.
func (c *Class[F]) Delegate() (F, bool) {
	if c.delegate < 0 {
		var zero F
		return zero, false
	}
	return c.fields[c.delegate], true
}

// Immutable reports whether instances are built by a constructor after all
// fields have been read.
func (c *Class[F]) Immutable() bool { return c.ctor != nil }

// Inner reports whether instances need the enclosing instance.
func (c *Class[F]) Inner() bool { return c.inner }

// Hidden reports whether any field is unexported.
func (c *Class[F]) Hidden() bool { return c.hidden }

// AllowUnmatchedFields reports whether unknown input members are skipped.
func (c *Class[F]) AllowUnmatchedFields() bool { return c.unmatched }
