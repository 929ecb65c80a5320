package config

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LogConfig struct {
	Level string `mapstructure:"level" json:"level" yaml:"level"`
	Debug bool   `mapstructure:"debug" json:"debug" yaml:"debug"`
}

// ParseLevel maps a level name to zerolog, defaulting to warn.
func (c LogConfig) ParseLevel() zerolog.Level {
	if c.Debug {
		return zerolog.DebugLevel
	}
	switch strings.ToLower(c.Level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}

// ConfigureZerolog points the global logger at w using the console writer
// and applies the configured level.
func (c LogConfig) ConfigureZerolog(w io.Writer, noColor bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: noColor})
	zerolog.SetGlobalLevel(c.ParseLevel())
}
