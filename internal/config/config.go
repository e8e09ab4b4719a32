package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ClipboardBackend names the clipboard transport used by the TUI and CLI.
type ClipboardBackend string

// ClipboardBackend values.
const (
	ClipboardSystem ClipboardBackend = "system"
	ClipboardOSC52  ClipboardBackend = "osc52"
	ClipboardMemory ClipboardBackend = "memory"
)

// Config holds persisted runtime settings.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
	Grid      GridConfig      `toml:"grid"`
	Clipboard ClipboardConfig `toml:"clipboard"`
	Serve     ServeConfig     `toml:"serve"`
	Keys      KeyConfig       `toml:"keys"`
}

// DatabaseConfig locates the sqlite file.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig configures runtime log sinks.
type LoggingConfig struct {
	Level   string           `toml:"level"`
	DevFile DevFileLogConfig `toml:"dev_file"`
}

// DevFileLogConfig configures the optional dev-mode log file.
type DevFileLogConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// GridConfig configures grid behavior and sizing bounds.
type GridConfig struct {
	ReadOnly         bool     `toml:"read_only"`
	Overscan         int      `toml:"overscan"`
	DefaultRowHeight int      `toml:"default_row_height"`
	MinColumnWidth   int      `toml:"min_column_width"`
	MaxColumnWidth   int      `toml:"max_column_width"`
	MinRowHeight     int      `toml:"min_row_height"`
	MaxRowHeight     int      `toml:"max_row_height"`
	Periods          []string `toml:"periods"`
}

// ClipboardConfig selects the clipboard transport.
type ClipboardConfig struct {
	Backend ClipboardBackend `toml:"backend"`
}

// ServeConfig configures the HTTP and MCP listener.
type ServeConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// KeyConfig overrides default key bindings. Blank values keep the defaults.
type KeyConfig struct {
	Copy     string `toml:"copy"`
	Paste    string `toml:"paste"`
	Edit     string `toml:"edit"`
	AutoSize string `toml:"autosize"`
	Detail   string `toml:"detail"`
	Reload   string `toml:"reload"`
}

// Default returns the built-in configuration for dbPath.
func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileLogConfig{
				Enabled: true,
				Dir:     ".hoshu/log",
			},
		},
		Grid: GridConfig{
			Overscan:         5,
			DefaultRowHeight: 30,
			MinColumnWidth:   4,
			MaxColumnWidth:   60,
			MinRowHeight:     30,
			MaxRowHeight:     240,
		},
		Clipboard: ClipboardConfig{
			Backend: ClipboardSystem,
		},
		Serve: ServeConfig{
			Bind:        "127.0.0.1:5437",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Keys: KeyConfig{
			Copy:     "y",
			Paste:    "p",
			Edit:     "enter",
			AutoSize: "=",
			Detail:   "i",
			Reload:   "r",
		},
	}
}

// Load reads path over defaults. A missing or empty file yields defaults.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// normalize trims free-form string values in place.
func (c *Config) normalize() {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Clipboard.Backend = ClipboardBackend(strings.ToLower(strings.TrimSpace(string(c.Clipboard.Backend))))
	c.Serve.Bind = strings.TrimSpace(c.Serve.Bind)
	c.Serve.APIEndpoint = strings.TrimSpace(c.Serve.APIEndpoint)
	c.Serve.MCPEndpoint = strings.TrimSpace(c.Serve.MCPEndpoint)
	periods := make([]string, 0, len(c.Grid.Periods))
	for _, period := range c.Grid.Periods {
		if period = strings.TrimSpace(period); period != "" {
			periods = append(periods, period)
		}
	}
	c.Grid.Periods = periods
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.Grid.Overscan < 0 {
		return fmt.Errorf("grid.overscan must be >= 0")
	}
	if c.Grid.DefaultRowHeight <= 0 {
		return fmt.Errorf("grid.default_row_height must be > 0")
	}
	if c.Grid.MinColumnWidth <= 0 {
		return fmt.Errorf("grid.min_column_width must be > 0")
	}
	if c.Grid.MaxColumnWidth < c.Grid.MinColumnWidth {
		return fmt.Errorf("grid.max_column_width must be >= grid.min_column_width")
	}
	if c.Grid.MinRowHeight <= 0 {
		return fmt.Errorf("grid.min_row_height must be > 0")
	}
	if c.Grid.MaxRowHeight < c.Grid.MinRowHeight {
		return fmt.Errorf("grid.max_row_height must be >= grid.min_row_height")
	}
	seenPeriod := map[string]struct{}{}
	for idx, period := range c.Grid.Periods {
		if _, ok := seenPeriod[period]; ok {
			return fmt.Errorf("grid.periods[%d] is duplicated: %s", idx, period)
		}
		seenPeriod[period] = struct{}{}
	}

	switch ClipboardBackend(strings.ToLower(strings.TrimSpace(string(c.Clipboard.Backend)))) {
	case ClipboardSystem, ClipboardOSC52, ClipboardMemory:
	default:
		return fmt.Errorf("invalid clipboard.backend: %q", c.Clipboard.Backend)
	}

	if strings.TrimSpace(c.Serve.Bind) == "" {
		return errors.New("serve.bind is required")
	}
	for name, endpoint := range map[string]string{
		"serve.api_endpoint": c.Serve.APIEndpoint,
		"serve.mcp_endpoint": c.Serve.MCPEndpoint,
	} {
		if !strings.HasPrefix(strings.TrimSpace(endpoint), "/") {
			return fmt.Errorf("%s must start with /: %q", name, endpoint)
		}
	}

	return nil
}

// EnsureConfigDir creates the parent directory of path.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
