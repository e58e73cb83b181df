package json

import (
	"log/slog"

	"github.com/acolita/ommjson/pkg/omm"
)

// Option configures a Registry.
type Option func(*Registry)

// WithConfig replaces every setting covered by Config.
func WithConfig(cfg Config) Option {
	return func(r *Registry) {
		r.cfg = cfg
	}
}

// WithPrettyPrint enables indented output.
func WithPrettyPrint(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.PrettyPrint = enabled
	}
}

// WithIndent sets the number of spaces per nesting level of pretty output.
func WithIndent(width int) Option {
	return func(r *Registry) {
		r.cfg.Indent = width
	}
}

// WithSerializeNulls sets whether null fields are written. Fields tagged
// null=yes or null=no keep their own setting.
func WithSerializeNulls(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.SerializeNulls = enabled
	}
}

// WithComments sets whether /* */ comments are accepted on input.
func WithComments(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.Comments = enabled
	}
}

// WithAllowUnmatchedFields makes decoding skip object members that match no
// field.
func WithAllowUnmatchedFields(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.AllowUnmatchedFields = enabled
	}
}

// WithRequireAllFields makes fields required unless tagged optional.
func WithRequireAllFields(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.RequireAllFields = enabled
	}
}

// WithAnnotatedOnlyFields maps tagged fields only.
func WithAnnotatedOnlyFields(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.AnnotatedOnlyFields = enabled
	}
}

// WithVisibility sets the lowest field visibility that is mapped.
func WithVisibility(v omm.Visibility) Option {
	return func(r *Registry) {
		r.cfg.Visibility = v.String()
	}
}

// WithInnerClasses allows types built by a factory taking the enclosing
// instance.
func WithInnerClasses(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.InnerClasses = enabled
	}
}

// WithEnumByName sets whether enums are written by name or by ordinal.
func WithEnumByName(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.EnumByName = enabled
	}
}

// WithQualifier sets the struct tag key read besides "omm".
func WithQualifier(q string) Option {
	return func(r *Registry) {
		r.cfg.Qualifier = q
	}
}

// WithQualifiedOnly ignores "omm" tags and unqualified overrides.
func WithQualifiedOnly(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.QualifiedOnly = enabled
	}
}

// WithRequireDeferredFields sets whether fields tagged deferred are
// required.
func WithRequireDeferredFields(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.RequireDeferredFields = enabled
	}
}

// WithWalkEmbedded sets whether the fields of embedded structs are mapped
// as fields of the embedding struct.
func WithWalkEmbedded(enabled bool) Option {
	return func(r *Registry) {
		r.cfg.WalkEmbedded = enabled
	}
}

// WithMaxDepth limits the nesting depth of input. Zero means no limit.
func WithMaxDepth(depth int) Option {
	return func(r *Registry) {
		r.cfg.MaxDepth = depth
	}
}

// WithOverrides supplies explicit mapping metadata.
func WithOverrides(o *omm.Overrides) Option {
	return func(r *Registry) {
		r.overrides = o
	}
}

// WithLogger sets the logger for codec and descriptor builds.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}
