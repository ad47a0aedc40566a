// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/cinegate/cinegate/constant"
	"github.com/cinegate/cinegate/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "CINEGATE_CONFIG_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// It honours XDG_CONFIG_HOME on Linux and the user profile equivalents elsewhere,
// unless CINEGATE_CONFIG_PATH points somewhere else.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Cinegate))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Cinegate))
}

// Logs resolves the directory used for dated log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Resolvers resolves the directory scanned for Lua resolver scripts.
func Resolvers() string {
	return ensureDir(filepath.Join(Config(), "resolvers"))
}

// Resolutions resolves the file backing the resolved manifest cache.
func Resolutions() string {
	return filepath.Join(Cache(), "resolutions.json")
}

// Failures resolves the file backing the short-lived failed resolution cache.
func Failures() string {
	return filepath.Join(Cache(), "failures.json")
}

// Browser resolves the directory a downloaded Chromium is kept in.
func Browser() string {
	return ensureDir(filepath.Join(Cache(), "browser"))
}

// Temp resolves a volatile directory for transient artifacts such as atomic writes.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Cinegate))
}
