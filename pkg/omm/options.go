// Package omm maps Go struct types to ordered field descriptors and builds
// instances field by field. It knows nothing about any wire format: codec
// packages embed *Field in their own field type and drive a Setter while
// decoding.
//
// # Metadata
//
// Field rules come from struct tags and from an Overrides table. Two tag
// keys are consulted: the unqualified key "omm" and the key named by
// Params.Qualifier (by default "json"). The qualified tag wins; the
// unqualified tag is ignored when Params.QualifiedOnly is set, which lets
// two wire formats attach different rules to the same field:
//
//	type Point struct {
//	    X int `omm:"x,required"`
//	    Y int `omm:"y" bson:"yy,optional"`
//	}
//
// The tag value is a name followed by options: required, optional,
// delegate, deferred, readonly, omitempty, enum=name, enum=ordinal,
// null=yes, null=no. A lone "-" ignores the field.
//
// # Construction
//
// By default an instance is allocated with reflect.New before any field is
// set. A type registered with Overrides.SetConstructor is instead built by
// calling the constructor once all fields have been read, with constructor
// parameters bound to fields by Go field name.
package omm

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Option is a tri-state override. Unset defers to the enclosing default.
type Option uint8

const (
	Unset Option = iota
	Yes
	No
)

// Or resolves the option against a default.
func (o Option) Or(def bool) bool {
	switch o {
	case Yes:
		return true
	case No:
		return false
	}
	return def
}

// Visibility is the lowest field visibility the mapper accepts.
type Visibility uint8

const (
	// Exported maps exported fields only.
	Exported Visibility = iota
	// All also maps unexported fields.
	All
)

// String returns the visibility name.
func (v Visibility) String() string {
	switch v {
	case Exported:
		return "exported"
	case All:
		return "all"
	default:
		return fmt.Sprintf("Visibility(%d)", v)
	}
}

// ParseVisibility parses "exported" or "all".
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "", "exported":
		return Exported, nil
	case "all":
		return All, nil
	}
	return 0, fmt.Errorf("omm: unknown visibility %q", s)
}

// EnumMode selects how an enum field is represented.
type EnumMode uint8

const (
	EnumDefault EnumMode = iota
	EnumName
	EnumOrdinal
)

// String returns the mode name.
func (m EnumMode) String() string {
	switch m {
	case EnumDefault:
		return "default"
	case EnumName:
		return "name"
	case EnumOrdinal:
		return "ordinal"
	default:
		return fmt.Sprintf("EnumMode(%d)", m)
	}
}

// Enum is implemented by integer types with a fixed set of named values.
// The value i is named EnumNames()[i].
type Enum interface {
	EnumNames() []string
}

// Params holds the mapper-wide defaults. Class and field metadata override
// them per type.
type Params struct {
	RequireAllFields      bool
	AnnotatedOnlyFields   bool
	Visibility            Visibility
	WalkEmbedded          bool
	AllowInnerClasses     bool
	RequireDeferredFields bool
	EnumByName            bool
	SerializeNulls        bool
	AllowUnmatchedFields  bool

	// Qualifier names the tag key and override layer of the wire format
	// using the mapper.
	Qualifier     string
	QualifiedOnly bool

	Overrides *Overrides

	// IsAnnotated marks additional fields as annotated, for wire formats
	// with field conventions of their own (an identifier field, say).
	IsAnnotated func(reflect.StructField) bool
	// FieldName overrides every other naming rule when it returns a
	// non-empty name.
	FieldName func(reflect.StructField) string

	Logger *slog.Logger
}

// DefaultParams returns the defaults used by the json package.
func DefaultParams() Params {
	return Params{
		Visibility:            Exported,
		WalkEmbedded:          true,
		AllowInnerClasses:     true,
		RequireDeferredFields: true,
		EnumByName:            true,
		SerializeNulls:        true,
		Qualifier:             "json",
	}
}

// Validate checks the parameters for contradictions.
func (p Params) Validate() error {
	if p.QualifiedOnly && p.Qualifier == "" {
		return fmt.Errorf("%w: QualifiedOnly requires a Qualifier", ErrConfig)
	}
	if p.Qualifier == unqualifiedKey {
		return fmt.Errorf("%w: qualifier %q is reserved", ErrConfig, unqualifiedKey)
	}
	if p.Visibility > All {
		return fmt.Errorf("%w: invalid visibility %d", ErrConfig, p.Visibility)
	}
	return nil
}
