package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/fs"
)

const (
	envVarPrefix = "ASSOOFS"
	appName      = "assoofs"

	ErrNoImage common.ConstError = "no image configured"
)

// Config holds the CLI settings. Values come from, in increasing order of
// precedence: the defaults, the YAML config file, ASSOOFS_* environment
// variables, and command-line flags.
type Config struct {
	Image      string `envconfig:"IMAGE"      yaml:"image"`
	Blocks     uint64 `envconfig:"BLOCKS"     yaml:"blocks"`
	Debug      uint64 `envconfig:"DEBUG"      yaml:"debug"`
	Cache      bool   `envconfig:"CACHE"      yaml:"cache"`
	Duplicates bool   `envconfig:"DUPLICATES" yaml:"duplicates"`
}

func DefaultConfig() Config {
	return Config{Blocks: common.MAXOBJECTS, Cache: true}
}

func configFile() string {
	if f := os.Getenv(envVarPrefix + "_CONFIG_FILE"); f != "" {
		return f
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName+".yaml")
}

func LoadConfig() (*Config, error) {
	c := DefaultConfig()
	if f := configFile(); f != "" {
		data, err := os.ReadFile(f)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.UnmarshalStrict(data, &c); err != nil {
				return nil, fmt.Errorf("unmarshaling config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if c.Image == "" {
		return fmt.Errorf("%w: set image / %s_IMAGE or pass --image",
			ErrNoImage, envVarPrefix)
	}
	return nil
}

func (c *Config) MountOptions() []fs.Option {
	opts := []fs.Option{fs.WithCache(c.Cache)}
	if c.Duplicates {
		opts = append(opts, fs.WithDuplicates(fs.AllowDuplicates))
	}
	return opts
}
