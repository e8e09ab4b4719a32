package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/hoshu.db")
	if cfg.Database.Path != "/tmp/hoshu.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Clipboard.Backend != ClipboardSystem {
		t.Fatalf("unexpected clipboard backend %q", cfg.Clipboard.Backend)
	}
	if cfg.Grid.ReadOnly {
		t.Fatal("expected editable grid by default")
	}
	if cfg.Grid.DefaultRowHeight != 30 || cfg.Grid.MinRowHeight != 30 {
		t.Fatalf("unexpected row heights %#v", cfg.Grid)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/hoshu.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[database]
path = "/custom/hoshu.db"

[logging]
level = "DEBUG"

[grid]
read_only = true
overscan = 2
periods = [" 2027 ", "2028", ""]

[clipboard]
backend = "osc52"

[keys]
copy = "c"
`)

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/hoshu.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized log level, got %q", cfg.Logging.Level)
	}
	if !cfg.Grid.ReadOnly || cfg.Grid.Overscan != 2 {
		t.Fatalf("unexpected grid config %#v", cfg.Grid)
	}
	if !slices.Equal(cfg.Grid.Periods, []string{"2027", "2028"}) {
		t.Fatalf("unexpected periods %#v", cfg.Grid.Periods)
	}
	if cfg.Clipboard.Backend != ClipboardOSC52 {
		t.Fatalf("unexpected clipboard backend %q", cfg.Clipboard.Backend)
	}
	if cfg.Keys.Copy != "c" || cfg.Keys.Paste != "p" {
		t.Fatalf("expected copy override with default paste, got %#v", cfg.Keys)
	}
	if cfg.Grid.MaxColumnWidth != 60 {
		t.Fatalf("expected untouched default max width, got %d", cfg.Grid.MaxColumnWidth)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"clipboard": "[clipboard]\nbackend = \"fax\"\n",
		"level":     "[logging]\nlevel = \"loud\"\n",
		"widths":    "[grid]\nmin_column_width = 10\nmax_column_width = 5\n",
		"heights":   "[grid]\nmin_row_height = 0\n",
		"periods":   "[grid]\nperiods = [\"2026\", \"2026\"]\n",
		"endpoint":  "[serve]\napi_endpoint = \"api\"\n",
		"syntax":    "[grid\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, content)
			if _, err := Load(path, Default("/tmp/default.db")); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}
