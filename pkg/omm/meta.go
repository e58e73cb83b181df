package omm

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

const unqualifiedKey = "omm"

// FieldOptions are the per-field rules declared by a tag or an override.
type FieldOptions struct {
	Qualifier     string
	Name          string
	Ignore        bool
	Required      Option
	Delegate      bool
	Deferred      bool
	ReadOnly      bool
	Enum          EnumMode
	SerializeNull Option
}

// ClassOptions are the per-type rules declared by ClassOptioner or an
// override. Unset options fall back to Params.
type ClassOptions struct {
	Qualifier             string
	RequireAllFields      Option
	AnnotatedOnlyFields   Option
	WalkEmbedded          Option
	RequireDeferredFields Option
	EnumByName            Option
	SerializeNulls        Option
	AllowUnmatchedFields  Option

	// Finalizers name methods of *T run after construction, in order.
	// Each takes no arguments and returns nothing or an error.
	Finalizers []string
}

// ClassOptioner is implemented by types that declare their class options.
// At most one entry per qualifier is allowed.
type ClassOptioner interface {
	OMMClassOptions() []ClassOptions
}

// Param binds one constructor or factory parameter.
type Param struct {
	// Field is the Go name of the field the parameter initializes.
	// Factories leave it empty.
	Field string
	// Optional parameters receive the zero value when the field is absent.
	Optional bool
	// Outer marks the factory parameter receiving the enclosing instance.
	Outer bool
}

type ctorSpec struct {
	fn     reflect.Value
	params []Param
}

type classKey struct {
	t reflect.Type
	q string
}

type fieldKey struct {
	t     reflect.Type
	field string
	q     string
}

// Overrides is an explicit metadata table keyed by type, field and
// qualifier. Entries take precedence over struct tags. Populate it before
// the first use of the affected types; it is not safe for concurrent
// modification.
type Overrides struct {
	classes   map[classKey]ClassOptions
	fields    map[fieldKey]FieldOptions
	ctors     map[reflect.Type]ctorSpec
	factories map[reflect.Type]ctorSpec
}

// NewOverrides creates an empty table.
func NewOverrides() *Overrides {
	return &Overrides{
		classes:   make(map[classKey]ClassOptions),
		fields:    make(map[fieldKey]FieldOptions),
		ctors:     make(map[reflect.Type]ctorSpec),
		factories: make(map[reflect.Type]ctorSpec),
	}
}

// SetClass records class options for t under opts.Qualifier.
func (o *Overrides) SetClass(t reflect.Type, opts ClassOptions) *Overrides {
	o.classes[classKey{t, opts.Qualifier}] = opts
	return o
}

// SetField records options for the field with Go name field of t under
// opts.Qualifier.
func (o *Overrides) SetField(t reflect.Type, field string, opts FieldOptions) *Overrides {
	o.fields[fieldKey{t, field, opts.Qualifier}] = opts
	return o
}

// SetConstructor makes t use an immutable constructor. fn returns T or *T,
// optionally followed by an error; params bind its parameters to fields.
func (o *Overrides) SetConstructor(t reflect.Type, fn interface{}, params ...Param) *Overrides {
	o.ctors[t] = ctorSpec{fn: reflect.ValueOf(fn), params: params}
	return o
}

// SetFactory replaces reflect.New for t. Every parameter must be optional,
// except one marked Outer, which makes t an inner type.
func (o *Overrides) SetFactory(t reflect.Type, fn interface{}, params ...Param) *Overrides {
	o.factories[t] = ctorSpec{fn: reflect.ValueOf(fn), params: params}
	return o
}

func (o *Overrides) class(t reflect.Type, q string) (ClassOptions, bool) {
	if o == nil {
		return ClassOptions{}, false
	}
	opts, ok := o.classes[classKey{t, q}]
	return opts, ok
}

func (o *Overrides) field(t reflect.Type, field, q string) (FieldOptions, bool) {
	if o == nil {
		return FieldOptions{}, false
	}
	opts, ok := o.fields[fieldKey{t, field, q}]
	return opts, ok
}

func (o *Overrides) constructor(t reflect.Type) (ctorSpec, bool) {
	if o == nil {
		return ctorSpec{}, false
	}
	spec, ok := o.ctors[t]
	return spec, ok
}

func (o *Overrides) factory(t reflect.Type) (ctorSpec, bool) {
	if o == nil {
		return ctorSpec{}, false
	}
	spec, ok := o.factories[t]
	return spec, ok
}

var classOptionerType = reflect.TypeOf((*ClassOptioner)(nil)).Elem()

func (p *Params) classOptions(t reflect.Type) (ClassOptions, error) {
	var declared []ClassOptions
	switch {
	case t.Implements(classOptionerType):
		declared = reflect.Zero(t).Interface().(ClassOptioner).OMMClassOptions()
	case reflect.PointerTo(t).Implements(classOptionerType):
		declared = reflect.New(t).Interface().(ClassOptioner).OMMClassOptions()
	}
	byQualifier := make(map[string]ClassOptions, len(declared))
	for _, opts := range declared {
		if _, dup := byQualifier[opts.Qualifier]; dup {
			return ClassOptions{}, configErrorf(t, "", "class options declared twice for qualifier %q", opts.Qualifier)
		}
		byQualifier[opts.Qualifier] = opts
	}

	if p.Qualifier != "" {
		if opts, ok := p.Overrides.class(t, p.Qualifier); ok {
			return opts, nil
		}
		if opts, ok := byQualifier[p.Qualifier]; ok {
			return opts, nil
		}
	}
	if !p.QualifiedOnly {
		if opts, ok := p.Overrides.class(t, ""); ok {
			return opts, nil
		}
		if opts, ok := byQualifier[""]; ok {
			return opts, nil
		}
	}
	return ClassOptions{}, nil
}

// EnumByNameFor resolves how the enum type t is written outside of a mapped
// field: by its own class options when they set EnumByName, otherwise by
// the EnumByName default.
func (p *Params) EnumByNameFor(t reflect.Type) (bool, error) {
	co, err := p.classOptions(t)
	if err != nil {
		return false, err
	}
	return co.EnumByName.Or(p.EnumByName), nil
}

// fieldOptions resolves the metadata of one field declared by owner and
// reports whether the field counts as annotated.
func (p *Params) fieldOptions(owner reflect.Type, sf reflect.StructField) (FieldOptions, bool, error) {
	var qualified, unqualified []string
	if p.Qualifier != "" {
		qualified = tagValues(sf.Tag, p.Qualifier)
	}
	unqualified = tagValues(sf.Tag, unqualifiedKey)
	if len(qualified) > 1 || len(unqualified) > 1 {
		return FieldOptions{}, false, configErrorf(owner, sf.Name, "duplicated tag")
	}

	extra := p.IsAnnotated != nil && p.IsAnnotated(sf)
	if p.Qualifier != "" {
		if opts, ok := p.Overrides.field(owner, sf.Name, p.Qualifier); ok {
			return opts, true, nil
		}
		if len(qualified) == 1 {
			opts, err := parseTag(p.Qualifier, qualified[0])
			if err != nil {
				return opts, false, configErrorf(owner, sf.Name, "%v", err)
			}
			return opts, true, nil
		}
	}
	if !p.QualifiedOnly {
		if opts, ok := p.Overrides.field(owner, sf.Name, ""); ok {
			return opts, true, nil
		}
		if len(unqualified) == 1 {
			opts, err := parseTag("", unqualified[0])
			if err != nil {
				return opts, false, configErrorf(owner, sf.Name, "%v", err)
			}
			return opts, true, nil
		}
	}
	return FieldOptions{}, extra, nil
}

func parseTag(qualifier, value string) (FieldOptions, error) {
	opts := FieldOptions{Qualifier: qualifier}
	if value == "-" {
		opts.Ignore = true
		return opts, nil
	}
	parts := strings.Split(value, ",")
	opts.Name = parts[0]
	for _, part := range parts[1:] {
		switch part {
		case "":
		case "required":
			opts.Required = Yes
		case "optional":
			opts.Required = No
		case "delegate":
			opts.Delegate = true
		case "deferred":
			opts.Deferred = true
		case "readonly":
			opts.ReadOnly = true
		case "omitempty", "null=no":
			opts.SerializeNull = No
		case "null=yes":
			opts.SerializeNull = Yes
		case "enum=name":
			opts.Enum = EnumName
		case "enum=ordinal":
			opts.Enum = EnumOrdinal
		default:
			return opts, fmt.Errorf("unknown tag option %q", part)
		}
	}
	return opts, nil
}

// tagValues returns every value stored under key. The parsing follows
// reflect.StructTag.Lookup, which only reports the first.
func tagValues(tag reflect.StructTag, key string) []string {
	var values []string
	for tag != "" {
		i := 0
		for i < len(tag) && tag[i] == ' ' {
			i++
		}
		tag = tag[i:]
		if tag == "" {
			break
		}

		i = 0
		for i < len(tag) && tag[i] > ' ' && tag[i] != ':' && tag[i] != '"' && tag[i] != 0x7f {
			i++
		}
		if i == 0 || i+1 >= len(tag) || tag[i] != ':' || tag[i+1] != '"' {
			break
		}
		name := string(tag[:i])
		tag = tag[i+1:]

		i = 1
		for i < len(tag) && tag[i] != '"' {
			if tag[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(tag) {
			break
		}
		quoted := string(tag[:i+1])
		tag = tag[i+1:]

		if name == key {
			value, err := strconv.Unquote(quoted)
			if err != nil {
				break
			}
			values = append(values, value)
		}
	}
	return values
}
