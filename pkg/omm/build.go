package omm

import (
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// classParams are Params merged with the class options of one type.
type classParams struct {
	requireAll      bool
	annotatedOnly   bool
	walkEmbedded    bool
	requireDeferred bool
	enumByName      bool
	serializeNulls  bool
	unmatched       bool
}

type candidate struct {
	sf        reflect.StructField
	owner     reflect.Type
	index     []int
	opts      FieldOptions
	annotated bool
}

type builder struct {
	t  reflect.Type
	p  *Params
	cp classParams
}

// Build derives the mapping of struct type t. newField wraps each *Field in
// the caller's field type. Every inconsistency in the metadata is reported
// as a *ConfigError.
func Build[F FieldNode](t reflect.Type, p Params, newField func(*Field) (F, error)) (*Class[F], error) {
	if t.Kind() != reflect.Struct {
		return nil, configErrorf(t, "", "not a struct type")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	co, err := p.classOptions(t)
	if err != nil {
		return nil, err
	}
	b := &builder{t: t, p: &p, cp: classParams{
		requireAll:      co.RequireAllFields.Or(p.RequireAllFields),
		annotatedOnly:   co.AnnotatedOnlyFields.Or(p.AnnotatedOnlyFields),
		walkEmbedded:    co.WalkEmbedded.Or(p.WalkEmbedded),
		requireDeferred: co.RequireDeferredFields.Or(p.RequireDeferredFields),
		enumByName:      co.EnumByName.Or(p.EnumByName),
		serializeNulls:  co.SerializeNulls.Or(p.SerializeNulls),
		unmatched:       co.AllowUnmatchedFields.Or(p.AllowUnmatchedFields),
	}}

	c := &Class[F]{typ: t, delegate: -1, unmatched: b.cp.unmatched}

	ctor, hasCtor := p.Overrides.constructor(t)
	slots := map[string]int{}
	if hasCtor {
		if err := b.checkFunc(ctor, "constructor"); err != nil {
			return nil, err
		}
		for i, prm := range ctor.params {
			if prm.Outer {
				return nil, configErrorf(t, "", "constructor parameter %d cannot be an outer instance", i)
			}
			if _, dup := slots[prm.Field]; dup {
				return nil, configErrorf(t, prm.Field, "bound to two constructor parameters")
			}
			slots[prm.Field] = i
		}
		c.ctor = &ctor
	}

	candidates, err := b.collect(t, nil)
	if err != nil {
		return nil, err
	}

	// The delegate is found first: when present, it is the only field.
	var delegate *candidate
	for i := range candidates {
		if !candidates[i].opts.Delegate {
			continue
		}
		if delegate != nil {
			return nil, configErrorf(t, candidates[i].sf.Name, "more than one delegated field (also %s)", delegate.sf.Name)
		}
		delegate = &candidates[i]
	}
	if delegate != nil {
		candidates = []candidate{*delegate}
		c.delegate = 0
	}

	c.byName = make(map[string]int, len(candidates))
	bound := make([]bool, len(slots))
	for _, cand := range candidates {
		f, err := b.field(cand, len(c.fields), slots, ctor.params)
		if err != nil {
			return nil, err
		}
		if _, dup := c.byName[f.Name]; dup {
			return nil, configErrorf(t, cand.sf.Name, "duplicate field name %q", f.Name)
		}
		if f.Slot >= 0 {
			if in := ctor.fn.Type().In(f.Slot); !f.Type.AssignableTo(in) {
				return nil, configErrorf(t, f.GoName, "field type %v does not match constructor parameter type %v", f.Type, in)
			}
			bound[f.Slot] = true
		}
		c.hidden = c.hidden || f.Hidden
		node, err := newField(f)
		if err != nil {
			return nil, err
		}
		c.byName[f.Name] = len(c.fields)
		c.fields = append(c.fields, node)
	}
	if len(c.fields) == 0 {
		return nil, configErrorf(t, "", "no mapped fields")
	}
	for i, ok := range bound {
		if !ok {
			return nil, configErrorf(t, ctor.params[i].Field, "constructor parameter %d matches no mapped field", i)
		}
	}

	if err := b.finalizers(c, co.Finalizers); err != nil {
		return nil, err
	}
	if err := b.factory(c); err != nil {
		return nil, err
	}

	if p.Logger != nil {
		p.Logger.Debug("class descriptor built",
			"type", t.String(),
			"fields", len(c.fields),
			"delegate", delegate != nil,
			"immutable", c.ctor != nil,
			"qualifier", p.Qualifier)
	}
	return c, nil
}

// collect lists the mappable fields of t in declaration order, expanding
// embedded structs in place.
func (b *builder) collect(t reflect.Type, index []int) ([]candidate, error) {
	var out []candidate
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		opts, annotated, err := b.p.fieldOptions(t, sf)
		if err != nil {
			return nil, err
		}
		if sf.Name == "_" {
			if annotated {
				return nil, configErrorf(t, sf.Name, "blank field cannot be mapped")
			}
			continue
		}
		if opts.Ignore {
			continue
		}
		idx := make([]int, len(index)+1)
		copy(idx, index)
		idx[len(index)] = i

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && b.cp.walkEmbedded && !annotated {
			sub, err := b.collect(sf.Type, idx)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		switch sf.Type.Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer:
			if annotated {
				return nil, configErrorf(t, sf.Name, "cannot map a %s field", sf.Type.Kind())
			}
			continue
		}
		if !sf.IsExported() && b.p.Visibility < All {
			if annotated {
				return nil, configErrorf(t, sf.Name, "annotated field is not exported")
			}
			continue
		}
		if b.cp.annotatedOnly && !annotated {
			continue
		}
		out = append(out, candidate{sf: sf, owner: t, index: idx, opts: opts, annotated: annotated})
	}
	return out, nil
}

func (b *builder) field(c candidate, ordinal int, slots map[string]int, params []Param) (*Field, error) {
	sf, opts := c.sf, c.opts
	f := &Field{
		Name:     sf.Name,
		GoName:   sf.Name,
		Index:    c.index,
		Type:     sf.Type,
		Ordinal:  ordinal,
		Nullable: nullable(sf.Type),
		ReadOnly: opts.ReadOnly,
		Slot:     -1,
		Hidden:   !sf.IsExported(),
	}
	if opts.Name != "" {
		f.Name = opts.Name
	}
	if b.p.FieldName != nil {
		if name := b.p.FieldName(sf); name != "" {
			f.Name = name
		}
	}

	slot, hasSlot := slots[sf.Name]
	if hasSlot {
		f.Slot = slot
	}
	f.inPlace = f.ReadOnly && !hasSlot && (sf.Type.Kind() == reflect.Slice || sf.Type.Kind() == reflect.Map)

	required := b.cp.requireAll
	if opts.Deferred && b.cp.requireDeferred {
		required = true
	}
	if hasSlot {
		required = !params[slot].Optional
	}
	switch opts.Required {
	case Yes:
		if f.ReadOnly && !hasSlot && !f.inPlace {
			return nil, configErrorf(c.owner, sf.Name, "read-only field cannot be required")
		}
		required = true
	case No:
		if opts.Deferred {
			return nil, configErrorf(c.owner, sf.Name, "deferred field cannot be optional")
		}
		if hasSlot && !params[slot].Optional {
			return nil, configErrorf(c.owner, sf.Name, "mandatory constructor parameter cannot be optional")
		}
		required = false
	}
	f.Required = required && f.Settable()

	f.SerializeNull = opts.SerializeNull.Or(b.cp.serializeNulls)
	f.Enum = opts.Enum
	if f.Enum == EnumDefault {
		f.Enum = EnumOrdinal
		if b.cp.enumByName {
			f.Enum = EnumName
		}
	}
	return f, nil
}

// checkFunc validates a constructor or factory: a function taking one
// argument per param and returning T or *T, optionally followed by error.
func (b *builder) checkFunc(spec ctorSpec, what string) error {
	if !spec.fn.IsValid() || spec.fn.Kind() != reflect.Func || spec.fn.IsNil() {
		return configErrorf(b.t, "", "%s is not a function", what)
	}
	ft := spec.fn.Type()
	if ft.IsVariadic() || ft.NumIn() != len(spec.params) {
		return configErrorf(b.t, "", "%s takes %d parameters, %d bound", what, ft.NumIn(), len(spec.params))
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return configErrorf(b.t, "", "%s must return %v or (%v, error)", what, b.t, b.t)
	}
	if out := ft.Out(0); out != b.t && out != reflect.PointerTo(b.t) {
		return configErrorf(b.t, "", "%s returns %v", what, out)
	}
	return nil
}

func (b *builder) finalizers(c finalizerSink, names []string) error {
	pt := reflect.PointerTo(b.t)
	for _, name := range names {
		m, ok := pt.MethodByName(name)
		if !ok {
			return configErrorf(b.t, "", "finalizer %s is not a method of %v", name, pt)
		}
		mt := m.Type
		if mt.NumIn() != 1 || mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
			return configErrorf(b.t, "", "finalizer %s must take no arguments and return nothing or error", name)
		}
		c.addFinalizer(m.Index)
	}
	return nil
}

func (b *builder) factory(c factorySink) error {
	spec, ok := b.p.Overrides.factory(b.t)
	if !ok {
		return nil
	}
	if err := b.checkFunc(spec, "factory"); err != nil {
		return err
	}
	inner := false
	for i, prm := range spec.params {
		switch {
		case prm.Outer:
			if inner {
				return configErrorf(b.t, "", "factory declares two outer parameters")
			}
			if !b.p.AllowInnerClasses {
				return configErrorf(b.t, "", "inner types are not allowed")
			}
			inner = true
		case !prm.Optional:
			return configErrorf(b.t, "", "no usable constructor: factory parameter %d is required", i)
		}
	}
	c.setFactory(&spec, inner)
	return nil
}

type finalizerSink interface {
	addFinalizer(index int)
}

type factorySink interface {
	setFactory(spec *ctorSpec, inner bool)
}

func (c *Class[F]) addFinalizer(index int) {
	c.finalizers = append(c.finalizers, index)
}

func (c *Class[F]) setFactory(spec *ctorSpec, inner bool) {
	c.factory = spec
	c.inner = inner
}

func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	}
	return false
}
