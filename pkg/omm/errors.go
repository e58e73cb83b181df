package omm

import (
	"errors"
	"fmt"
	"reflect"
)

// Common errors.
var (
	ErrConfig  = errors.New("omm: invalid mapping configuration")
	ErrMapping = errors.New("omm: mapping failed")

	ErrDuplicateField = errors.New("omm: duplicate field")
	ErrRequiredField  = errors.New("omm: required field not set")
	ErrNullField      = errors.New("omm: null value for non-nullable field")
	ErrUnmatchedField = errors.New("omm: unmatched field")
	ErrReadOnlyField  = errors.New("omm: field is read-only")
	ErrEnumValue      = errors.New("omm: invalid enum value")
	ErrConstruction   = errors.New("omm: construction failed")
	ErrFinalized      = errors.New("omm: setter already finalized")
)

// ConfigError reports a type that cannot be mapped with the current
// metadata. It is raised while building a class descriptor.
type ConfigError struct {
	Type   reflect.Type
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("omm: cannot map %v.%s: %s", e.Type, e.Field, e.Reason)
	}
	return fmt.Sprintf("omm: cannot map %v: %s", e.Type, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

func configErrorf(t reflect.Type, field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Type: t, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// MappingError reports decoded data that does not fit a type: duplicate or
// missing fields, nulls in non-nullable fields and the like. Kind is one of
// the Err* sentinels.
type MappingError struct {
	Type   reflect.Type
	Field  string
	Kind   error
	Reason string
	Err    error
}

func (e *MappingError) Error() string {
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (%v.%s)", msg, e.Type, e.Field)
	}
	return fmt.Sprintf("%s (%v)", msg, e.Type)
}

func (e *MappingError) Unwrap() []error {
	errs := []error{ErrMapping, e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewMappingError creates a MappingError of the given kind.
func NewMappingError(t reflect.Type, field string, kind error, format string, args ...interface{}) *MappingError {
	return &MappingError{Type: t, Field: field, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
