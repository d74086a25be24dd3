// Package config loads watchcat defaults from ~/.watchcat/config.yaml and
// resolves them, together with command-line overrides, into a LaunchConfig.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WaitForever is the WaitTimeout meaning "wait until the child exits".
const WaitForever time.Duration = -1

// Config holds defaults loaded from the config file. Every field is optional.
type Config struct {
	Executable  string   `yaml:"executable"`
	Args        []string `yaml:"args"`
	WaitTimeout *Seconds `yaml:"wait_timeout"`
	LaunchDelay *Seconds `yaml:"launch_delay"`
	NoWindow    bool     `yaml:"no_window"`
	LoadProfile bool     `yaml:"load_profile"`
	Verbose     bool     `yaml:"verbose"`
	Journal     string   `yaml:"journal"`
}

// LaunchConfig is the resolved, immutable configuration for every launch.
type LaunchConfig struct {
	Executable  string
	Args        []string
	NoWindow    bool
	LoadProfile bool
	WaitTimeout time.Duration // 0 = don't wait, WaitForever, or a bounded wait
	LaunchDelay time.Duration // 0 = launch per event
	Verbose     bool
	Journal     string
}

// DefaultPath returns the default config file path: ~/.watchcat/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".watchcat", "config.yaml")
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns an empty Config and no error. An empty or all-comment file
// also returns an empty Config with no error.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// LaunchConfig converts file defaults into a LaunchConfig.
func (c *Config) LaunchConfig() LaunchConfig {
	lc := LaunchConfig{
		Executable:  c.Executable,
		Args:        c.Args,
		NoWindow:    c.NoWindow,
		LoadProfile: c.LoadProfile,
		Verbose:     c.Verbose,
		Journal:     expandHome(c.Journal),
	}
	if c.WaitTimeout != nil {
		lc.WaitTimeout = c.WaitTimeout.Duration
	}
	if c.LaunchDelay != nil {
		lc.LaunchDelay = c.LaunchDelay.Duration
	}
	return lc
}

// Validate checks the timing fields.
func (lc LaunchConfig) Validate() error {
	if lc.WaitTimeout < 0 && lc.WaitTimeout != WaitForever {
		return fmt.Errorf("wait timeout must be -1, 0 or positive, got %v", lc.WaitTimeout)
	}
	if lc.LaunchDelay < 0 {
		return fmt.Errorf("launch delay must not be negative, got %v", lc.LaunchDelay)
	}
	return nil
}

// FromSeconds converts a seconds value as given on the command line.
// -1 means WaitForever; any other negative value is rejected.
func FromSeconds(s float64) (time.Duration, error) {
	switch {
	case math.IsNaN(s) || math.IsInf(s, 0):
		return 0, fmt.Errorf("invalid seconds value %v", s)
	case s == -1:
		return WaitForever, nil
	case s < 0:
		return 0, fmt.Errorf("negative seconds value %v (only -1 is allowed)", s)
	}
	return time.Duration(s * float64(time.Second)), nil
}

// Seconds is a duration read from YAML as a number of seconds, a Go duration
// string like "250ms", or "forever".
type Seconds struct {
	time.Duration
}

func (s *Seconds) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err == nil {
		d, err := FromSeconds(f)
		if err != nil {
			return err
		}
		s.Duration = d
		return nil
	}

	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}
	str = strings.TrimSpace(str)
	if strings.EqualFold(str, "forever") {
		s.Duration = WaitForever
		return nil
	}

	parsed, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", str, err)
	}
	switch {
	case parsed == -time.Second:
		parsed = WaitForever
	case parsed < 0:
		return fmt.Errorf("invalid duration %q: negative", str)
	}
	s.Duration = parsed
	return nil
}

func (s Seconds) MarshalYAML() (any, error) {
	if s.Duration == WaitForever {
		return -1, nil
	}
	return s.Duration.Seconds(), nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
