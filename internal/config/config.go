// Package config holds the settings of mkresources: built-in defaults, an
// optional YAML file on top of them, and command-line overrides applied by
// the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/damischa1/uqm-resource-tools/internal/cpp"
	"github.com/damischa1/uqm-resource-tools/internal/locdata"
	"github.com/damischa1/uqm-resource-tools/internal/resources"
)

// Config is the complete run configuration.
type Config struct {
	Marker       string              `yaml:"marker"`
	CountField   string              `yaml:"count_field"`
	ArrayField   string              `yaml:"array_field"`
	OneSecond    int                 `yaml:"one_second"`
	OutputDir    string              `yaml:"output_dir"`
	LookupOrder  string              `yaml:"lookup_order"`
	Preprocessor Preprocessor        `yaml:"preprocessor"`
	Formatter    Formatter           `yaml:"formatter"`
	Aliases      map[string][]string `yaml:"aliases"`
}

// Preprocessor selects and configures the C preprocessor.
type Preprocessor struct {
	Mode        string   `yaml:"mode"`
	Program     string   `yaml:"program"`
	Args        []string `yaml:"args"`
	IncludeDirs []string `yaml:"include_dirs"`
}

// Formatter configures the pretty-printer run on every written file.
type Formatter struct {
	Enabled bool     `yaml:"enabled"`
	Program string   `yaml:"program"`
	Args    []string `yaml:"args"`
}

// Default returns the configuration that reproduces the historical tool.
func Default() Config {
	return Config{
		Marker:      locdata.DefaultMarker,
		CountField:  locdata.DefaultCountField,
		ArrayField:  locdata.DefaultArrayField,
		OneSecond:   cpp.DefaultOneSecond,
		OutputDir:   ".",
		LookupOrder: string(resources.Ascending),
		Preprocessor: Preprocessor{
			Mode:        string(cpp.External),
			Program:     cpp.DefaultProgram,
			Args:        slices.Clone(cpp.DefaultArgs),
			IncludeDirs: slices.Clone(cpp.DefaultIncludeDirs),
		},
		Formatter: Formatter{
			Enabled: true,
			Program: resources.DefaultFormatter,
			Args:    slices.Clone(resources.DefaultFormatterArgs),
		},
	}
}

// Load reads the YAML file at path over the defaults. Unknown keys are
// rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r over the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be checked by the YAML decoder.
func (c Config) Validate() error {
	if c.Marker == "" {
		return errors.New("marker must not be empty")
	}
	if c.CountField == "" || c.ArrayField == "" {
		return errors.New("count_field and array_field must not be empty")
	}
	if c.OneSecond <= 0 {
		return fmt.Errorf("one_second must be positive, got %d", c.OneSecond)
	}
	if _, err := cpp.ParseMode(c.Preprocessor.Mode); err != nil {
		return err
	}
	if _, err := resources.ParseLookupOrder(c.LookupOrder); err != nil {
		return err
	}
	return nil
}

// Session returns the preprocessor options for c.
func (c Config) Session() cpp.Options {
	mode, _ := cpp.ParseMode(c.Preprocessor.Mode)
	return cpp.Options{
		Mode:        mode,
		Program:     c.Preprocessor.Program,
		Args:        c.Preprocessor.Args,
		IncludeDirs: c.Preprocessor.IncludeDirs,
		OneSecond:   c.OneSecond,
	}
}

// Fields returns the descriptor members to read.
func (c Config) Fields() locdata.Fields {
	return locdata.Fields{Count: c.CountField, Array: c.ArrayField}
}

// Order returns the lookup order.
func (c Config) Order() resources.LookupOrder {
	o, _ := resources.ParseLookupOrder(c.LookupOrder)
	return o
}

// AliasTable returns the built-in aliases with the configured ones merged in.
func (c Config) AliasTable() resources.Aliases {
	return resources.DefaultAliases().Merge(c.Aliases)
}
