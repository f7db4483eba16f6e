package scmver

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML shape of a scmver configuration.
type FileConfig struct {
	TagRegex      string `yaml:"tag_regex"`
	VersionScheme string `yaml:"version_scheme"`
	LocalScheme   string `yaml:"local_scheme"`
}

// LoadConfig reads an optional YAML configuration file and resolves it
// into a Config. An empty path yields the defaults. Bad patterns and
// unknown scheme names fail here, not when the first tag is parsed.
func LoadConfig(path string) (*Config, error) {
	config := NewConfig()
	if path == "" {
		return config, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := config.apply(&file); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) apply(file *FileConfig) error {
	if file.TagRegex != "" {
		re, err := regexp.Compile(file.TagRegex)
		if err != nil {
			return fmt.Errorf("invalid tag regex: %w", err)
		}
		if err := ValidateTagRegex(re); err != nil {
			return err
		}
		c.TagRegex = re
	}
	if file.VersionScheme != "" {
		if _, err := ResolveVersionScheme(file.VersionScheme); err != nil {
			return err
		}
		c.VersionScheme = file.VersionScheme
	}
	if file.LocalScheme != "" {
		if _, err := ResolveLocalScheme(file.LocalScheme); err != nil {
			return err
		}
		c.LocalScheme = file.LocalScheme
	}
	return nil
}
