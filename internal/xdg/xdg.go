// Package xdg resolves XDG Base Directory locations for latexocr.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "latexocr"

// configNames are probed in order by ConfigFile.
var configNames = []string{"config.yaml", "config.yml", "config.toml"}

// ConfigHome returns the XDG config home directory.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// ConfigDir returns the latexocr config directory: ConfigHome()/latexocr.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), appName)
}

// ConfigFile returns the first config file present in ConfigDir, or ""
// when none exists.
func ConfigFile() string {
	dir := ConfigDir()
	for _, name := range configNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
