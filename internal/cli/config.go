package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when present.
const DefaultConfigFile = "mirgen.yaml"

// Config is the mirgen.yaml file. Flags override every field.
type Config struct {
	CDNBase        string      `yaml:"cdnBase"`
	ImportStrategy string      `yaml:"importStrategy"`
	ProfileDir     string      `yaml:"profileDir"`
	DefaultTarget  string      `yaml:"defaultTarget"`
	ModuleName     string      `yaml:"moduleName"`
	Cache          CacheConfig `yaml:"cache"`
}

// CacheConfig selects the fetch cache store.
type CacheConfig struct {
	Driver string        `yaml:"driver"`
	Path   string        `yaml:"path"`
	TTL    time.Duration `yaml:"ttl"`
}

// LoadConfig reads path. A missing file is an error only when the path was
// given explicitly.
func LoadConfig(path string, explicit bool) (Config, error) {
	var cfg Config
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
