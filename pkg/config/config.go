// Package config handles loading and saving sc configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/sc/config.yaml
//   - State:   ~/.local/state/sc/ (last export path)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LabelConfig holds the templates used to name categories.
// Each %s receives a threshold formatted at the configured precision.
type LabelConfig struct {
	Below     string `yaml:"below,omitempty"`     // first band, e.g. "Below %s"
	Between   string `yaml:"between,omitempty"`   // inner bands, e.g. "%s ~ %s"
	Above     string `yaml:"above,omitempty"`     // last band, e.g. "Above %s"
	Unbanded  string `yaml:"unbanded,omitempty"`  // the single band when no thresholds exist
	Selection string `yaml:"selection,omitempty"` // auto-named manual category, %d = sequence number
}

// SQLiteConfig names the table and columns read by the SQLite import source.
type SQLiteConfig struct {
	Table       string `yaml:"table,omitempty"`
	LabelColumn string `yaml:"label_column,omitempty"`
	YColumn     string `yaml:"y_column,omitempty"`
	XColumn     string `yaml:"x_column,omitempty"`
}

// WatchConfig controls live reload of the import file.
type WatchConfig struct {
	DebounceMs int  `yaml:"debounce_ms,omitempty"`
	ForcePoll  bool `yaml:"force_poll,omitempty"`
}

// ConverterConfig configures the external script-conversion command.
// "{direction}" in Args is replaced by "t2s" or "s2t".
type ConverterConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	DefaultView string `yaml:"default_view,omitempty"` // tree, report
}

// Config is the top-level configuration for sc.
type Config struct {
	Precision         int             `yaml:"precision"`          // decimals kept when adding a threshold
	ToleranceFraction float64         `yaml:"tolerance_fraction"` // share of the Y range used to remove a threshold
	Palette           []string        `yaml:"palette,omitempty"`
	Labels            LabelConfig     `yaml:"labels,omitempty"`
	SQLite            SQLiteConfig    `yaml:"sqlite,omitempty"`
	Watch             WatchConfig     `yaml:"watch,omitempty"`
	Converter         ConverterConfig `yaml:"converter,omitempty"`
	UI                UIConfig        `yaml:"ui,omitempty"`
}

// DefaultPalette is the cyclic color list for manual categories.
var DefaultPalette = []string{"#FF0000", "#00AA00", "#FF8C00", "#9400D3", "#0000FF", "#00CED1"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	palette := make([]string, len(DefaultPalette))
	copy(palette, DefaultPalette)
	return Config{
		Precision:         1,
		ToleranceFraction: 0.05,
		Palette:           palette,
		Labels: LabelConfig{
			Below:     "Below %s",
			Between:   "%s ~ %s",
			Above:     "Above %s",
			Unbanded:  "Unselected",
			Selection: "Selection %d",
		},
		SQLite: SQLiteConfig{
			Table:       "points",
			LabelColumn: "label",
			YColumn:     "y",
			XColumn:     "x",
		},
		Watch: WatchConfig{
			DebounceMs: 250,
		},
		UI: UIConfig{
			DefaultView: "tree",
		},
	}
}

// ConfigDir returns the XDG config directory for sc.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "sc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sc")
}

// StateDir returns the XDG state directory for sc.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "sc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "sc")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist. Fields missing from the
// file keep their default values.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks value ranges and label templates.
func (c Config) Validate() error {
	if c.Precision < 0 || c.Precision > 12 {
		return fmt.Errorf("precision must be between 0 and 12, got %d", c.Precision)
	}
	if c.ToleranceFraction <= 0 || c.ToleranceFraction > 1 {
		return fmt.Errorf("tolerance_fraction must be in (0, 1], got %g", c.ToleranceFraction)
	}
	checks := []struct {
		name, tmpl, verb string
		want             int
	}{
		{"labels.below", c.Labels.Below, "%s", 1},
		{"labels.between", c.Labels.Between, "%s", 2},
		{"labels.above", c.Labels.Above, "%s", 1},
		{"labels.selection", c.Labels.Selection, "%d", 1},
	}
	for _, chk := range checks {
		if got := strings.Count(chk.tmpl, chk.verb); got != chk.want {
			return fmt.Errorf("%s must contain %d %q verb(s), got %d", chk.name, chk.want, chk.verb, got)
		}
	}
	switch c.UI.DefaultView {
	case "tree", "report":
	default:
		return fmt.Errorf("ui.default_view must be tree or report, got %q", c.UI.DefaultView)
	}
	return nil
}

// fillDefaults restores defaults for fields a partial file blanked out.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if len(c.Palette) == 0 {
		c.Palette = def.Palette
	}
	if c.Labels.Below == "" {
		c.Labels.Below = def.Labels.Below
	}
	if c.Labels.Between == "" {
		c.Labels.Between = def.Labels.Between
	}
	if c.Labels.Above == "" {
		c.Labels.Above = def.Labels.Above
	}
	if c.Labels.Unbanded == "" {
		c.Labels.Unbanded = def.Labels.Unbanded
	}
	if c.Labels.Selection == "" {
		c.Labels.Selection = def.Labels.Selection
	}
	if c.SQLite.Table == "" {
		c.SQLite.Table = def.SQLite.Table
	}
	if c.SQLite.LabelColumn == "" {
		c.SQLite.LabelColumn = def.SQLite.LabelColumn
	}
	if c.SQLite.YColumn == "" {
		c.SQLite.YColumn = def.SQLite.YColumn
	}
	if c.SQLite.XColumn == "" {
		c.SQLite.XColumn = def.SQLite.XColumn
	}
	if c.Watch.DebounceMs <= 0 {
		c.Watch.DebounceMs = def.Watch.DebounceMs
	}
	if c.UI.DefaultView == "" {
		c.UI.DefaultView = def.UI.DefaultView
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

const lastExportFile = "last_export"

// LastExportPath returns the most recent export destination, or "" if none
// was recorded.
func LastExportPath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(dir, lastExportFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveLastExportPath records path so the next export prompt can offer it.
func SaveLastExportPath(path string) error {
	dir := StateDir()
	if dir == "" {
		return fmt.Errorf("cannot determine state directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, lastExportFile), []byte(path+"\n"), 0o644)
}
