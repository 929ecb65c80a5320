package config

import (
	"os"
	"path/filepath"
)

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "SURGE_CONFIG"

const (
	appDir   = "surge"
	fileName = "config.toml"
)

// homeDir returns the user's home directory or "." when it is unknown.
func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return h
	}
	return "."
}

// configHome returns $XDG_CONFIG_HOME, defaulting to ~/.config.
func configHome() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return d
	}
	return filepath.Join(homeDir(), ".config")
}

// SearchPaths lists candidate config files in lookup order. An explicit
// path, when given, comes first.
func SearchPaths(explicit string) []string {
	var paths []string
	if explicit != "" {
		paths = append(paths, explicit)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		paths = append(paths, env)
	}
	paths = append(paths,
		filepath.Join("config", fileName),
		filepath.Join(configHome(), appDir, fileName),
		filepath.Join(homeDir(), ".config", appDir, fileName),
	)
	return dedupe(paths)
}

// DefaultPath is where `config init` writes when no path is given.
func DefaultPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	return filepath.Join(configHome(), appDir, fileName)
}

// Find returns the first existing file from SearchPaths, or "".
func Find(explicit string) string {
	for _, p := range SearchPaths(explicit) {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, p)
	}
	return out
}
