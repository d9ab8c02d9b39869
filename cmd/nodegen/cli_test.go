package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"nodegen/internal/ledger"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCatalog = `namespace: scipy.signal
callables:
  - name: smooth
    doc: |
      Smooth a signal.

      Parameters
      ----------
      x : ndarray
          Input signal.
      width : int
          Window width.

      Returns
      -------
      y : ndarray
    params: [x, width]
    defaults:
      width: {kind: integer, text: "3"}
  - name: apply_window
    doc: |
      Parameters
      ----------
      window : callable
    params: [x, window]
  - name: coherence
    params: [x, y]
`

const testConfig = `libraries:
  - name: scipy
    submodules:
      - name: signal
        catalog_file: catalog/signal.yaml
generation:
  workers: 2
`

// setupWorkspace writes a config and catalog into a temp workspace and
// points the command globals at it.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()
	for _, k := range []string{"NODEGEN_NODES_DIR", "NODEGEN_MANIFEST_DIR", "NODEGEN_LEDGER", "NODEGEN_WORKERS"} {
		t.Setenv(k, "")
	}

	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "catalog"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "catalog", "signal.yaml"), []byte(testCatalog), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "nodegen.yaml"), []byte(testConfig), 0644))

	workspace = ws
	t.Cleanup(func() {
		workspace, configPath = "", ""
		generateLibrary, generateSubmodule = "", ""
		dryRun, noLedger = false, false
		historyLimit, historyRun = 10, ""
	})
	return ws
}

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

func TestGenerateCmd(t *testing.T) {
	ws := setupWorkspace(t)
	cmd, out := newTestCmd()

	require.NoError(t, runGenerate(cmd, nil))

	nodes := filepath.Join(ws, "nodes")
	assert.FileExists(t, filepath.Join(nodes, "SCIPY", "signal", "smooth.py"))
	assert.FileExists(t, filepath.Join(nodes, "MANIFEST", "smooth.manifest.yaml"))
	assert.NoFileExists(t, filepath.Join(nodes, "SCIPY", "signal", "apply_window.py"))
	assert.NoFileExists(t, filepath.Join(nodes, "MANIFEST", "apply_window.manifest.yaml"))
	assert.NoFileExists(t, filepath.Join(nodes, "SCIPY", "signal", "coherence.py"))

	index, err := os.ReadFile(filepath.Join(nodes, "SCIPY", "signal", "__init__.py"))
	require.NoError(t, err)
	assert.Equal(t, "__all__ = [\"SMOOTH\"]\n", string(index))

	assert.Contains(t, out.String(), "1 accepted")
	assert.Contains(t, out.String(), "1 rejected")
	assert.Contains(t, out.String(), "1 skipped")
	assert.Contains(t, out.String(), "forbidden_callable_doc")
	assert.FileExists(t, filepath.Join(ws, ".nodegen", "ledger.db"))
}

func TestGenerateCmd_DryRun(t *testing.T) {
	ws := setupWorkspace(t)
	dryRun = true
	noLedger = true
	cmd, out := newTestCmd()

	require.NoError(t, runGenerate(cmd, nil))

	assert.NoDirExists(t, filepath.Join(ws, "nodes"))
	assert.NoFileExists(t, filepath.Join(ws, ".nodegen", "ledger.db"))
	assert.Contains(t, out.String(), "dry run")
	assert.Contains(t, out.String(), "1 accepted")
}

func TestGenerateCmd_UnknownSubmodule(t *testing.T) {
	setupWorkspace(t)
	generateSubmodule = "stats"
	cmd, _ := newTestCmd()

	err := runGenerate(cmd, nil)
	assert.ErrorContains(t, err, "no configured submodule")
}

func TestGenerateCmd_InvalidConfig(t *testing.T) {
	ws := setupWorkspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(ws, "nodegen.yaml"), []byte("generation:\n  workers: 0\n"), 0644))
	cmd, _ := newTestCmd()

	err := runGenerate(cmd, nil)
	assert.ErrorContains(t, err, "invalid config")
}

func TestInspectCmd(t *testing.T) {
	ws := setupWorkspace(t)
	cmd, out := newTestCmd()

	require.NoError(t, runInspect(cmd, []string{"signal", "smooth"}))
	assert.Contains(t, out.String(), "#smooth, ")
	assert.Contains(t, out.String(), "def SMOOTH(dc, params):")
	assert.Contains(t, out.String(), "#Manifest")
	assert.NoDirExists(t, filepath.Join(ws, "nodes"))

	out.Reset()
	require.NoError(t, runInspect(cmd, []string{"scipy.signal", "apply_window"}))
	assert.Contains(t, out.String(), "#rejected: ")

	assert.ErrorContains(t, runInspect(cmd, []string{"signal", "missing"}), `no callable named "missing"`)
}

func TestHistoryCmd(t *testing.T) {
	ws := setupWorkspace(t)
	cmd, out := newTestCmd()

	require.NoError(t, runHistory(cmd, nil))
	assert.Contains(t, out.String(), "No runs recorded.")

	require.NoError(t, runGenerate(cmd, nil))
	out.Reset()
	require.NoError(t, runHistory(cmd, nil))
	assert.Contains(t, out.String(), "1 accepted")

	store, err := ledger.Open(filepath.Join(ws, ".nodegen", "ledger.db"))
	require.NoError(t, err)
	runs, err := store.Runs(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, runs, 1)

	historyRun = runs[0].ID
	out.Reset()
	require.NoError(t, runHistory(cmd, nil))
	assert.Contains(t, out.String(), "scipy.signal.smooth")
	assert.Contains(t, out.String(), "scipy.signal.coherence")
	assert.Contains(t, out.String(), "forbidden_callable_doc")
}

func TestFindSubmodule(t *testing.T) {
	setupWorkspace(t)
	cfg, _, err := loadConfig()
	require.NoError(t, err)

	sub, err := findSubmodule(cfg, "scipy.signal")
	require.NoError(t, err)
	assert.Equal(t, "SCIPY_SIGNAL", sub.Category())
	assert.Equal(t, "scipy.signal", sub.Namespace)

	_, err = findSubmodule(cfg, "numpy.signal")
	assert.Error(t, err)
}
