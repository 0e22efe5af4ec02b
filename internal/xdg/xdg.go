// Package xdg resolves the XDG Base Directory locations used by mathnb:
// the config dir for config.json and the state dir for the diagnostics log.
// Directories are created with private permissions on first use.
package xdg

import (
	"os"
	"path/filepath"
)

// App is the directory name used under every XDG base.
const App = "mathnb"

// ConfigDir returns $XDG_CONFIG_HOME/mathnb, falling back to ~/.config/mathnb.
func ConfigDir() (string, error) {
	return appDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns $XDG_STATE_HOME/mathnb, falling back to ~/.local/state/mathnb.
func StateDir() (string, error) {
	return appDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// LogFile returns the path of the rotating diagnostics log in the state dir.
func LogFile() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mathnb.log"), nil
}

func appDir(env, homeFallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeFallback)
	}
	dir := filepath.Join(base, App)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
