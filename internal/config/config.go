package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/schema"
)

// FileNames are the config file names searched for, in order
var FileNames = []string{"movegen.yaml", "movegen.yml", "movegen.json"}

const (
	DefaultLanguage = "typescript"
	DefaultRuntime  = "@mysten/sui/bcs"
	DefaultOutput   = "./generated"
)

// Config represents the movegen configuration file. JSON documents are read
// as YAML.
type Config struct {
	Language string   `yaml:"language" json:"language"`
	Runtime  string   `yaml:"runtime" json:"runtime"`
	Watch    []string `yaml:"watch,omitempty" json:"watch,omitempty"`
	Exclude  []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Targets  []Target `yaml:"targets" json:"targets"`
}

// Target is one independent generation run with its own output root
type Target struct {
	Name   string `yaml:"name" json:"name"`
	Output string `yaml:"output" json:"output"`
	// Barrel writes an index file per package directory; on by default
	Barrel   *bool           `yaml:"barrel,omitempty" json:"barrel,omitempty"`
	Packages []PackageConfig `yaml:"packages" json:"packages"`
}

// BarrelEnabled reports whether the target writes barrel files.
func (t Target) BarrelEnabled() bool {
	return t.Barrel == nil || *t.Barrel
}

// PackageConfig describes one package of a target
type PackageConfig struct {
	Address string `yaml:"address" json:"address"`
	// Alias names the package's output directory
	Alias string `yaml:"alias,omitempty" json:"alias,omitempty"`
	// Input is a description file; optional for external packages
	Input  string        `yaml:"input,omitempty" json:"input,omitempty"`
	Format schema.Format `yaml:"format,omitempty" json:"format,omitempty"`
	// External is the module specifier of a package that is imported rather
	// than generated, e.g. "@mysten/sui/framework"
	External string `yaml:"external,omitempty" json:"external,omitempty"`
}

// LoadConfig loads the config from the current directory or a parent directory
func LoadConfig() (*Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to get current directory")
	}
	return loadConfigFromDir(dir)
}

// LoadConfigFromPath loads the config from a specific path and applies defaults
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", path)
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.Runtime == "" {
		c.Runtime = DefaultRuntime
	}
	if len(c.Watch) == 0 {
		c.Watch = []string{"*.yaml", "*.yml", "*.json"}
	}
	if len(c.Exclude) == 0 {
		c.Exclude = []string{"node_modules", ".git", "movegen.yaml", "movegen.yml", "movegen.json"}
	}
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Name == "" {
			t.Name = "default"
			if i > 0 {
				t.Name = "target" + strconv.Itoa(i+1)
			}
		}
		if t.Output == "" {
			t.Output = DefaultOutput
		}
	}
}

// Validate checks the config for mistakes that would make generation
// ambiguous.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return errors.WithHint(errors.New("no targets configured"), "run movegen init to create a config")
	}
	names := make(map[string]bool)
	for _, t := range c.Targets {
		if names[t.Name] {
			return errors.Newf("target %q declared twice", t.Name)
		}
		names[t.Name] = true
		if err := t.validate(); err != nil {
			return errors.Wrapf(err, "target %q", t.Name)
		}
	}
	return nil
}

func (t Target) validate() error {
	if len(t.Packages) == 0 {
		return errors.New("no packages")
	}
	addresses := make(map[schema.Address]bool)
	aliases := make(map[string]string)
	for _, p := range t.Packages {
		addr, err := schema.ParseAddress(p.Address)
		if err != nil {
			return err
		}
		if addresses[addr] {
			return errors.Newf("package %s listed twice", addr.Short())
		}
		addresses[addr] = true
		if p.Alias != "" {
			if other, ok := aliases[p.Alias]; ok {
				return errors.Newf("alias %q used by %s and %s", p.Alias, other, addr.Short())
			}
			aliases[p.Alias] = addr.Short()
		}
		if p.Input == "" && p.External == "" {
			err := errors.Newf("package %s has no input", addr.Short())
			return errors.WithHint(err, "set input to a description file, or external to the module specifier it is imported from")
		}
		switch p.Format {
		case "", schema.FormatMovegen, schema.FormatNormalized:
		default:
			return errors.Newf("package %s: unknown format %q", addr.Short(), p.Format)
		}
	}
	return nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode config")
	}
	return data, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// FindConfigFile returns the config file in dir, trying FileNames in order.
func FindConfigFile(dir string) (string, bool) {
	for _, name := range FileNames {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, true
		}
	}
	return "", false
}

// loadConfigFromDir searches for a config file in the given directory and its parents
func loadConfigFromDir(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		if configPath, ok := FindConfigFile(dir); ok {
			config, err := LoadConfigFromPath(configPath)
			if err != nil {
				return nil, "", err
			}
			return config, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return nil, "", errors.Newf("no movegen config found in %s or any parent directory", startDir)
}
