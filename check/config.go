package check

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/brouwer-lang/brouwer/scanner"
)

// DefaultConfigFile is the configuration file looked up in the project root.
const DefaultConfigFile = ".brouwer.yaml"

// Config represents the contents of a .brouwer.yaml file. A file with a
// .toml extension is read as TOML instead.
type Config struct {
	Name       string       `yaml:"name" toml:"name"`
	Extensions []string     `yaml:"extensions" toml:"extensions"`
	Ignore     []string     `yaml:"ignore" toml:"ignore"`
	Output     OutputConfig `yaml:"output" toml:"output"`
	Cache      CacheConfig  `yaml:"cache" toml:"cache"`
}

type OutputConfig struct {
	// Format is one of tree, sexpr or json.
	Format string `yaml:"format" toml:"format"`
	Color  bool   `yaml:"color" toml:"color"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Dir     string `yaml:"dir" toml:"dir"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Name:       "brouwer",
		Extensions: []string{scanner.DefaultExtension},
		Ignore:     []string{},
		Output: OutputConfig{
			Format: "tree",
			Color:  true,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".brouwer-cache",
		},
	}
}

// LoadConfig reads the configuration at path. Settings missing from the
// file keep their defaults; a missing file yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if isTOML(path) {
		err = decodeTOML(f, &config)
	} else {
		err = decodeYAML(f, &config)
	}
	if err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}

	if len(config.Extensions) == 0 {
		config.Extensions = []string{scanner.DefaultExtension}
	}
	return config, config.Validate()
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func decodeYAML(r io.Reader, config *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(r io.Reader, config *Config) error {
	meta, err := toml.NewDecoder(r).Decode(config)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown field %q", undecoded[0].String())
	}
	return nil
}

// Validate reports settings that cannot be honoured.
func (c Config) Validate() error {
	switch c.Output.Format {
	case "tree", "sexpr", "json":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	for _, ext := range c.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return errors.New("cache enabled without a directory")
	}
	return nil
}

// WriteConfig writes config to path as YAML, or as TOML when path has a
// .toml extension.
func WriteConfig(path string, config Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(config)
	} else {
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
