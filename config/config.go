// Package config loads the YAML run file for a remapping run.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/jar-remapper/errors"
	"github.com/wippyai/jar-remapper/relocate"
)

// EnvVar names the run file when --config is not given.
const EnvVar = "JARREMAP_CONFIG"

// Mixin configures mixin target detection.
type Mixin struct {
	// Annotations restricts detection to these annotation types. Empty
	// means any class-valued "value" array counts.
	Annotations []string `yaml:"annotations"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`
}

// Config is one remapping run.
type Config struct {
	Input           string          `yaml:"input"`
	Output          string          `yaml:"output"`
	Mappings        string          `yaml:"mappings"`
	Report          string          `yaml:"report"`
	Log             Log             `yaml:"log"`
	FlatMappings    []string        `yaml:"flat_mappings"`
	Classpath       []string        `yaml:"classpath"`
	Relocations     []relocate.Rule `yaml:"relocations"`
	Mixin           Mixin           `yaml:"mixin"`
	Workers         int             `yaml:"workers"`
	StripSignatures bool            `yaml:"strip_signatures"`
}

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Path picks the run file: the flag value, then EnvVar. Empty means none.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(EnvVar)
}

// Parse decodes a run file. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode run file")
	}
	c.applyDefaults()
	return c, nil
}

// Load reads the run file at path. Relative paths inside it resolve
// against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Path(path).
			Cause(err).
			Detail("read run file").
			Build()
	}
	c, err := Parse(bytes.NewReader(data))
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.Path = []string{path}
		}
		return nil, err
	}
	c.resolve(filepath.Dir(path))
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Relocations == nil {
		c.Relocations = relocate.Default().Rules()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Input = abs(c.Input)
	c.Output = abs(c.Output)
	c.Mappings = abs(c.Mappings)
	c.Report = abs(c.Report)
	for i := range c.FlatMappings {
		c.FlatMappings[i] = abs(c.FlatMappings[i])
	}
	for i := range c.Classpath {
		c.Classpath[i] = abs(c.Classpath[i])
	}
}

// Validate checks that the config describes a runnable job.
func (c *Config) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path(field).
			Detail(format, args...).
			Build()
	}
	switch {
	case c.Input == "":
		return invalid("input", "input jar is required")
	case c.Output == "":
		return invalid("output", "output jar is required")
	case c.Mappings == "":
		return invalid("mappings", "mapping file is required")
	case filepath.Clean(c.Input) == filepath.Clean(c.Output):
		return invalid("output", "output %q would overwrite the input", c.Output)
	case c.Workers < 0:
		return invalid("workers", "workers must not be negative, got %d", c.Workers)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if _, err := c.RelocationTable(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("log", "level").
			Value(c.Log.Level).
			Cause(err).
			Detail("unknown log level").
			Build()
	}
	return lvl, nil
}

// RelocationTable builds the relocation table. An explicitly empty list
// disables relocation.
func (c *Config) RelocationTable() (relocate.Table, error) {
	return relocate.New(c.Relocations...)
}

func (c *Config) String() string {
	return fmt.Sprintf("%s -> %s (mappings %s, %d workers)", c.Input, c.Output, c.Mappings, c.Workers)
}
