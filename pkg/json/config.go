package json

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/acolita/ommjson/pkg/omm"
)

// ErrConfig is returned for invalid registry configuration.
var ErrConfig = errors.New("json: invalid configuration")

// Config is the serializable form of the registry options. The zero value
// is not usable; start from DefaultConfig.
type Config struct {
	// PrettyPrint writes newlines and Indent spaces per nesting level.
	PrettyPrint bool `yaml:"pretty_print"`
	Indent      int  `yaml:"indent"`

	// SerializeNulls writes null fields instead of omitting them.
	SerializeNulls bool `yaml:"serialize_nulls"`
	// Comments accepts /* */ comments wherever whitespace is allowed.
	Comments bool `yaml:"comments"`
	MaxDepth int  `yaml:"max_depth"`

	AllowUnmatchedFields  bool   `yaml:"allow_unmatched_fields"`
	RequireAllFields      bool   `yaml:"require_all_fields"`
	AnnotatedOnlyFields   bool   `yaml:"annotated_only_fields"`
	RequireDeferredFields bool   `yaml:"require_deferred_fields"`
	WalkEmbedded          bool   `yaml:"walk_embedded"`
	InnerClasses          bool   `yaml:"inner_classes"`
	EnumByName            bool   `yaml:"enum_by_name"`
	Visibility            string `yaml:"visibility"`

	// Qualifier is the struct tag key consulted besides "omm".
	Qualifier     string `yaml:"qualifier"`
	QualifiedOnly bool   `yaml:"qualified_only"`
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return Config{
		Indent:                2,
		SerializeNulls:        true,
		Comments:              true,
		MaxDepth:              DefaultMaxDepth,
		RequireDeferredFields: true,
		WalkEmbedded:          true,
		InnerClasses:          true,
		EnumByName:            true,
		Visibility:            omm.Exported.String(),
		Qualifier:             "json",
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Indent < 0 {
		return fmt.Errorf("%w: negative indent %d", ErrConfig, c.Indent)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: negative max depth %d", ErrConfig, c.MaxDepth)
	}
	if _, err := omm.ParseVisibility(c.Visibility); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if c.QualifiedOnly && c.Qualifier == "" {
		return fmt.Errorf("%w: qualified_only requires a qualifier", ErrConfig)
	}
	if c.Qualifier == "omm" {
		return fmt.Errorf("%w: qualifier %q is reserved", ErrConfig, c.Qualifier)
	}
	return nil
}

// ParseConfig reads a YAML configuration. Keys that are absent keep their
// default values; unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}
