package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"nodegen/internal/synth"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the workspace when no path is given.
const DefaultFileName = "nodegen.yaml"

// Config holds all nodegen configuration.
type Config struct {
	Name string `yaml:"name"`

	// Libraries to generate nodes for
	Libraries []LibraryConfig `yaml:"libraries"`

	Output     OutputConfig     `yaml:"output"`
	Generation GenerationConfig `yaml:"generation"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Watch      WatchConfig      `yaml:"watch"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LibraryConfig is one external library and the submodules scraped from it.
type LibraryConfig struct {
	Name       string            `yaml:"name"`
	Submodules []SubmoduleConfig `yaml:"submodules"`
}

// SubmoduleConfig says where a submodule's callables come from. Exactly one
// of SourceDir and CatalogFile is set.
type SubmoduleConfig struct {
	Name           string   `yaml:"name"`
	Namespace      string   `yaml:"namespace,omitempty"` // defaults to <library>.<name>
	SourceDir      string   `yaml:"source_dir,omitempty"`
	CatalogFile    string   `yaml:"catalog_file,omitempty"`
	Exclude        []string `yaml:"exclude,omitempty"`
	IncludePrivate bool     `yaml:"include_private,omitempty"`
}

// OutputConfig configures where artifacts are written.
type OutputConfig struct {
	NodesDir    string `yaml:"nodes_dir"`
	ManifestDir string `yaml:"manifest_dir"`
	WrapperExt  string `yaml:"wrapper_ext"`
	ManifestExt string `yaml:"manifest_ext"`
	IndexFile   string `yaml:"index_file"`
}

// GenerationConfig tunes the generator.
type GenerationConfig struct {
	Workers     int `yaml:"workers"`
	synth.Rules `yaml:",inline"`
}

// LedgerConfig configures the run ledger.
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`                // debug, info, warn, error
	Categories map[string]bool `yaml:"categories,omitempty"` // per-category toggles, all on when unset
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "nodegen",

		Libraries: []LibraryConfig{
			{
				Name: "scipy",
				Submodules: []SubmoduleConfig{
					{Name: "signal", CatalogFile: "catalog/scipy_signal.yaml"},
					{Name: "stats", CatalogFile: "catalog/scipy_stats.yaml"},
				},
			},
		},

		Output: OutputConfig{
			NodesDir:    "nodes",
			ManifestDir: "nodes/MANIFEST",
			WrapperExt:  ".py",
			ManifestExt: ".manifest.yaml",
			IndexFile:   "__init__.py",
		},

		Generation: GenerationConfig{
			Workers: 4,
			Rules:   synth.DefaultRules(),
		},

		Ledger: LedgerConfig{
			Enabled: true,
			Path:    ".nodegen/ledger.db",
		},

		Watch: WatchConfig{
			Debounce: "500ms",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if dir := os.Getenv("NODEGEN_NODES_DIR"); dir != "" {
		c.Output.NodesDir = dir
	}
	if dir := os.Getenv("NODEGEN_MANIFEST_DIR"); dir != "" {
		c.Output.ManifestDir = dir
	}
	if path := os.Getenv("NODEGEN_LEDGER"); path != "" {
		if path == "off" {
			c.Ledger.Enabled = false
		} else {
			c.Ledger.Enabled = true
			c.Ledger.Path = path
		}
	}
	if v := os.Getenv("NODEGEN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NODEGEN_WORKERS %q: %w", v, err)
		}
		c.Generation.Workers = n
	}
	return nil
}

// Resolve makes every relative path absolute against workspace.
func (c *Config) Resolve(workspace string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(workspace, p)
	}

	c.Output.NodesDir = abs(c.Output.NodesDir)
	c.Output.ManifestDir = abs(c.Output.ManifestDir)
	c.Ledger.Path = abs(c.Ledger.Path)
	for i := range c.Libraries {
		for j := range c.Libraries[i].Submodules {
			s := &c.Libraries[i].Submodules[j]
			s.SourceDir = abs(s.SourceDir)
			s.CatalogFile = abs(s.CatalogFile)
		}
	}
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// NamespaceOf returns the dotted module a submodule's callables live in.
func NamespaceOf(lib LibraryConfig, sub SubmoduleConfig) string {
	if sub.Namespace != "" {
		return sub.Namespace
	}
	return lib.Name + "." + sub.Name
}

// ValidLevels lists the accepted logging levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Libraries) == 0 {
		return fmt.Errorf("no libraries configured")
	}
	seen := make(map[string]bool)
	for _, lib := range c.Libraries {
		if lib.Name == "" {
			return fmt.Errorf("library with empty name")
		}
		for _, sub := range lib.Submodules {
			if sub.Name == "" {
				return fmt.Errorf("library %s: submodule with empty name", lib.Name)
			}
			key := lib.Name + "." + sub.Name
			if seen[key] {
				return fmt.Errorf("submodule %s configured twice", key)
			}
			seen[key] = true
			if (sub.SourceDir == "") == (sub.CatalogFile == "") {
				return fmt.Errorf("submodule %s: set exactly one of source_dir and catalog_file", key)
			}
		}
	}

	if c.Output.NodesDir == "" || c.Output.ManifestDir == "" {
		return fmt.Errorf("output.nodes_dir and output.manifest_dir are required")
	}
	if c.Output.WrapperExt == "" || c.Output.ManifestExt == "" || c.Output.IndexFile == "" {
		return fmt.Errorf("output extensions and index_file are required")
	}
	if c.Generation.Workers < 1 {
		return fmt.Errorf("generation.workers must be at least 1, got %d", c.Generation.Workers)
	}
	if c.Ledger.Enabled && c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required when the ledger is enabled")
	}

	validLevel := false
	for _, l := range ValidLevels {
		if strings.EqualFold(c.Logging.Level, l) {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}

	return nil
}
