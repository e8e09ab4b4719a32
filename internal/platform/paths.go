// Package platform resolves per-user file locations for the grid database, config and logs.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// DefaultAppName is the directory and database stem used without overrides.
const DefaultAppName = "hoshu"

// Environment variables read by OptionsFromEnv and the CLI.
const (
	EnvConfig  = "HOSHU_CONFIG"
	EnvDBPath  = "HOSHU_DB_PATH"
	EnvDevMode = "HOSHU_DEV_MODE"
	EnvAppName = "HOSHU_APP_NAME"
)

// ErrNoBaseDir reports an unresolved config or data base directory.
var ErrNoBaseDir = errors.New("no base directory")

// Paths holds the resolved per-user file locations.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	LogDir     string
}

// BaseDirs are the OS defaults a platform override may replace.
type BaseDirs struct {
	Config string
	Data   string
}

// Options selects the app name and dev-mode suffix.
type Options struct {
	AppName string
	DevMode bool
}

// dirName is the per-app directory and database stem.
func (o Options) dirName() string {
	name := strings.TrimSpace(o.AppName)
	if name == "" {
		name = DefaultAppName
	}
	if o.DevMode {
		name += "-dev"
	}
	return name
}

// OptionsFromEnv resolves Options from lookup, defaulting dev mode on for
// unreleased builds.
func OptionsFromEnv(lookup func(string) string, version string) Options {
	if lookup == nil {
		lookup = os.Getenv
	}
	opts := Options{AppName: DefaultAppName, DevMode: version == "dev"}
	if v := strings.TrimSpace(lookup(EnvAppName)); v != "" {
		opts.AppName = v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(lookup(EnvDevMode))); err == nil {
		opts.DevMode = v
	}
	return opts
}

// overrides lists the env vars that replace each base dir per OS.
var overrides = map[string]struct{ config, data string }{
	"linux":   {config: "XDG_CONFIG_HOME", data: "XDG_DATA_HOME"},
	"windows": {config: "APPDATA", data: "LOCALAPPDATA"},
}

// DefaultPathsWithOptions resolves paths for the running OS and environment.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	base, err := osBaseDirs(runtime.GOOS)
	if err != nil {
		return Paths{}, err
	}
	return PathsFor(runtime.GOOS, os.Getenv, base, opts)
}

// osBaseDirs returns the OS defaults before env overrides.
func osBaseDirs(goos string) (BaseDirs, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return BaseDirs{}, fmt.Errorf("user config dir: %w", err)
	}
	base := BaseDirs{Config: configDir, Data: configDir}
	if goos == "linux" {
		home, err := os.UserHomeDir()
		if err != nil {
			return BaseDirs{}, fmt.Errorf("user home dir: %w", err)
		}
		base.Data = filepath.Join(home, ".local", "share")
	}
	return base, nil
}

// PathsFor resolves paths for goos from explicit inputs. macOS and other
// platforms ignore env overrides.
func PathsFor(goos string, lookup func(string) string, base BaseDirs, opts Options) (Paths, error) {
	if lookup == nil {
		lookup = func(string) string { return "" }
	}
	if vars, ok := overrides[goos]; ok {
		if v := strings.TrimSpace(lookup(vars.config)); v != "" {
			base.Config = v
		}
		if v := strings.TrimSpace(lookup(vars.data)); v != "" {
			base.Data = v
		}
	}
	if base.Config == "" || base.Data == "" {
		return Paths{}, fmt.Errorf("resolve %s paths: %w", goos, ErrNoBaseDir)
	}

	name := opts.dirName()
	dataDir := filepath.Join(base.Data, name)
	return Paths{
		ConfigPath: filepath.Join(base.Config, name, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, name+".db"),
		LogDir:     filepath.Join(dataDir, "log"),
	}, nil
}
