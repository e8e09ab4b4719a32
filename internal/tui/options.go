package tui

import (
	"strings"

	"github.com/hylla/hoshu/internal/grid"
)

// KeyConfig holds configurable key overrides. Blank fields keep defaults.
type KeyConfig struct {
	Copy     string
	Paste    string
	Edit     string
	AutoSize string
	Detail   string
	Reload   string
}

// GridConfig holds rendering and sizing bounds. Heights are in grid units.
type GridConfig struct {
	Overscan         int
	DefaultRowHeight int
	MinRowHeight     int
	MaxRowHeight     int
}

// Option configures a Model.
type Option func(*Model)

// DefaultGridConfig returns the baseline grid rendering settings.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Overscan:         5,
		DefaultRowHeight: grid.LineHeight,
		MinRowHeight:     grid.MinRowHeight,
		MaxRowHeight:     grid.MaxRowHeight,
	}
}

// WithGridConfig sets rendering and sizing bounds, keeping defaults for zero fields.
func WithGridConfig(cfg GridConfig) Option {
	return func(m *Model) {
		def := DefaultGridConfig()
		if cfg.Overscan >= 0 {
			def.Overscan = cfg.Overscan
		}
		if cfg.DefaultRowHeight > 0 {
			def.DefaultRowHeight = cfg.DefaultRowHeight
		}
		if cfg.MinRowHeight > 0 {
			def.MinRowHeight = cfg.MinRowHeight
		}
		if cfg.MaxRowHeight >= def.MinRowHeight {
			def.MaxRowHeight = cfg.MaxRowHeight
		}
		m.gridCfg = def
	}
}

// WithKeyConfig applies key overrides.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithClipboard routes copy and paste through port.
func WithClipboard(port grid.ClipboardPort) Option {
	return func(m *Model) {
		if port != nil {
			m.clipboard = grid.NewClipboard(port)
		}
	}
}

// WithTerminalClipboard makes copies also emit the clipboard escape sequence
// through the program renderer. Pair it with a port that does not write to
// the terminal itself.
func WithTerminalClipboard() Option {
	return func(m *Model) {
		m.termClip = true
	}
}

// WithTitle overrides the header title.
func WithTitle(title string) Option {
	return func(m *Model) {
		if title = strings.TrimSpace(title); title != "" {
			m.title = title
		}
	}
}
