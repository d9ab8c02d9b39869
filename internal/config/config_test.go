package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"nodegen/internal/synth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"NODEGEN_NODES_DIR", "NODEGEN_MANIFEST_DIR", "NODEGEN_LEDGER", "NODEGEN_WORKERS"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "nodegen", cfg.Name)
	require.Len(t, cfg.Libraries, 1)
	assert.Equal(t, "scipy", cfg.Libraries[0].Name)
	assert.Equal(t, 4, cfg.Generation.Workers)
	assert.Equal(t, synth.DefaultRules(), cfg.Generation.Rules)
	assert.Contains(t, cfg.Generation.ForbiddenTypes, "callable")
	assert.Equal(t, 500*time.Millisecond, cfg.GetDebounce())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "nodegen.yaml")

	cfg := DefaultConfig()
	cfg.Libraries = []LibraryConfig{{
		Name:       "scipy",
		Submodules: []SubmoduleConfig{{Name: "signal", SourceDir: "/src/scipy/signal", Exclude: []string{"windows"}}},
	}}
	cfg.Generation.Workers = 2
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nodegen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation:\n  workers: 8\nwatch:\n  debounce: 2s\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Generation.Workers)
	assert.Equal(t, 2*time.Second, cfg.GetDebounce())
	assert.Equal(t, "nodes", cfg.Output.NodesDir)
}

func TestLoad_RulesOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nodegen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation:\n  forbidden_args: [x, axis]\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "axis"}, cfg.Generation.ForbiddenArgs)
	assert.Equal(t, synth.DefaultRules().ForbiddenTypes, cfg.Generation.ForbiddenTypes)
	assert.Equal(t, 4, cfg.Generation.Workers)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodegen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("libraries: [\n"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("paths and workers", func(t *testing.T) {
		t.Setenv("NODEGEN_NODES_DIR", "/tmp/nodes")
		t.Setenv("NODEGEN_MANIFEST_DIR", "/tmp/manifests")
		t.Setenv("NODEGEN_LEDGER", "/tmp/ledger.db")
		t.Setenv("NODEGEN_WORKERS", "16")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "/tmp/nodes", cfg.Output.NodesDir)
		assert.Equal(t, "/tmp/manifests", cfg.Output.ManifestDir)
		assert.Equal(t, "/tmp/ledger.db", cfg.Ledger.Path)
		assert.Equal(t, 16, cfg.Generation.Workers)
	})

	t.Run("ledger off", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NODEGEN_LEDGER", "off")
		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.False(t, cfg.Ledger.Enabled)
	})

	t.Run("bad workers", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NODEGEN_WORKERS", "many")
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "NODEGEN_WORKERS")
	})
}

func TestResolve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.ManifestDir = "/abs/manifests"
	cfg.Resolve("/work")

	assert.Equal(t, filepath.Join("/work", "nodes"), cfg.Output.NodesDir)
	assert.Equal(t, "/abs/manifests", cfg.Output.ManifestDir)
	assert.Equal(t, filepath.Join("/work", ".nodegen", "ledger.db"), cfg.Ledger.Path)
	assert.Equal(t, filepath.Join("/work", "catalog", "scipy_signal.yaml"), cfg.Libraries[0].Submodules[0].CatalogFile)
	assert.Empty(t, cfg.Libraries[0].Submodules[0].SourceDir)
}

func TestNamespaceOf(t *testing.T) {
	lib := LibraryConfig{Name: "scipy"}
	assert.Equal(t, "scipy.signal", NamespaceOf(lib, SubmoduleConfig{Name: "signal"}))
	assert.Equal(t, "scipy.stats._stats_py", NamespaceOf(lib, SubmoduleConfig{Name: "stats", Namespace: "scipy.stats._stats_py"}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"no libraries", func(c *Config) { c.Libraries = nil }, "no libraries"},
		{"both sources", func(c *Config) { c.Libraries[0].Submodules[0].SourceDir = "src" }, "exactly one"},
		{"no source", func(c *Config) { c.Libraries[0].Submodules[0].CatalogFile = "" }, "exactly one"},
		{"duplicate", func(c *Config) {
			c.Libraries[0].Submodules = append(c.Libraries[0].Submodules, c.Libraries[0].Submodules[0])
		}, "configured twice"},
		{"zero workers", func(c *Config) { c.Generation.Workers = 0 }, "workers"},
		{"ledger without path", func(c *Config) { c.Ledger.Path = "" }, "ledger.path"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "invalid logging level"},
		{"no nodes dir", func(c *Config) { c.Output.NodesDir = "" }, "nodes_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}
