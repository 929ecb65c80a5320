// Package config loads Surge settings from defaults, a TOML file and
// SURGE_* environment variables, with command-line flags bound on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrExists is returned by WriteDefaults when the target file is present
// and overwriting was not requested.
var ErrExists = errors.New("config file already exists")

// Config is the fully resolved configuration.
type Config struct {
	Console ConsoleConfig `mapstructure:"console"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Network NetworkConfig `mapstructure:"network"`
	AI      AIConfig      `mapstructure:"ai"`
	Log     LogConfig     `mapstructure:"log"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	History HistoryConfig `mapstructure:"history"`
	Serve   ServeConfig   `mapstructure:"serve"`
}

type ConsoleConfig struct {
	ForceColor bool `mapstructure:"force_color" json:"force_color" yaml:"force_color"`
	NoColor    bool `mapstructure:"no_color" json:"no_color" yaml:"no_color"`
}

type MonitorConfig struct {
	Interval int  `mapstructure:"interval" json:"interval" yaml:"interval"`
	Load     bool `mapstructure:"load" json:"load" yaml:"load"`
	CPU      bool `mapstructure:"cpu" json:"cpu" yaml:"cpu"`
	RAM      bool `mapstructure:"ram" json:"ram" yaml:"ram"`
	Disk     bool `mapstructure:"disk" json:"disk" yaml:"disk"`
	IO       bool `mapstructure:"io" json:"io" yaml:"io"`
	Verbose  bool `mapstructure:"verbose" json:"verbose" yaml:"verbose"`
}

type NetworkConfig struct {
	Requests int    `mapstructure:"requests" json:"requests" yaml:"requests"`
	DType    string `mapstructure:"dtype" json:"dtype" yaml:"dtype"`
	Sockets  bool   `mapstructure:"sockets" json:"sockets" yaml:"sockets"`
	NoTrace  bool   `mapstructure:"no_trace" json:"no_trace" yaml:"no_trace"`
}

type AIConfig struct {
	Format    string `mapstructure:"format" json:"format" yaml:"format"`
	Verbosity string `mapstructure:"verbosity" json:"verbosity" yaml:"verbosity"`
	AutoFix   bool   `mapstructure:"auto_fix" json:"auto_fix" yaml:"auto_fix"`
	Provider  string `mapstructure:"provider" json:"provider" yaml:"provider"`
	Model     string `mapstructure:"model" json:"model" yaml:"model"`
	Endpoint  string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
}

type RunnerConfig struct {
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

type HistoryConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path"`
	Keep int    `mapstructure:"keep" json:"keep" yaml:"keep"`
}

type ServeConfig struct {
	Listen   string `mapstructure:"listen" json:"listen" yaml:"listen"`
	Interval int    `mapstructure:"interval" json:"interval" yaml:"interval"`
}

// Defaults holds every key with its built-in value.
var Defaults = map[string]any{
	"console.force_color": true,
	"console.no_color":    false,

	"monitor.interval": 5,
	"monitor.load":     true,
	"monitor.cpu":      true,
	"monitor.ram":      true,
	"monitor.disk":     true,
	"monitor.io":       false,
	"monitor.verbose":  false,

	"network.requests": 5,
	"network.dtype":    "A",
	"network.sockets":  false,
	"network.no_trace": false,

	"ai.format":    "hybrid",
	"ai.verbosity": "normal",
	"ai.auto_fix":  false,
	"ai.provider":  "gemini",
	"ai.model":     "",
	"ai.endpoint":  "",

	"log.level": "warn",
	"log.debug": false,

	"runner.timeout": "10s",

	"history.path": "",
	"history.keep": 1000,

	"serve.listen":   ":9109",
	"serve.interval": 15,
}

// Loader owns the viper instance that flags are bound to.
type Loader struct {
	v    *viper.Viper
	file string
}

// NewLoader returns a Loader with defaults and environment overrides
// registered. Nothing is read from disk until Read.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("toml")
	for k, val := range Defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("SURGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Viper exposes the underlying instance for flag binding.
func (l *Loader) Viper() *viper.Viper { return l.v }

// File is the config file that was read, or "" when running on defaults.
func (l *Loader) File() string { return l.file }

// Read loads the first config file found. An explicit path that does not
// exist is an error; a missing implicit file is not.
func (l *Loader) Read(explicit string) error {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return fmt.Errorf("config file %s: %w", explicit, err)
		}
	}
	path := Find(explicit)
	if path == "" {
		return nil
	}
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	l.file = path
	return nil
}

// Config resolves the current values into a Config.
func (l *Loader) Config() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// WriteDefaults writes the built-in defaults as TOML to path.
func WriteDefaults(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w (use --force to overwrite)", path, ErrExists)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	for k, val := range Defaults {
		v.Set(k, val)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
