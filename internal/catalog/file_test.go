package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	callables, err := LoadFile(filepath.Join("testdata", "catalog.yaml"), "")
	require.NoError(t, err)
	require.Len(t, callables, 2)

	z := callables[0]
	assert.Equal(t, "zscore", z.Name)
	assert.Equal(t, "scipy.stats", z.Namespace)
	assert.Equal(t, []string{"x", "axis", "ddof"}, z.Params)
	assert.Equal(t, Literal{Kind: LiteralInteger, Text: "0"}, z.Defaults["axis"])
	assert.Contains(t, z.Doc, "a : array_like")

	assert.Equal(t, "scipy.stats._stats_py", callables[1].Namespace, "entry namespace wins over file namespace")
}

func TestLoadFile_NamespaceOverride(t *testing.T) {
	callables, err := LoadFile(filepath.Join("testdata", "catalog.yaml"), "scipy.special")
	require.NoError(t, err)
	for _, c := range callables {
		assert.Equal(t, "scipy.special", c.Namespace)
	}
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	content := `{"namespace": "scipy.signal", "callables": [{"name": "detrend", "params": ["data", "type"], "defaults": {"type": {"kind": "string", "text": "'linear'"}}}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	callables, err := LoadFile(path, "")
	require.NoError(t, err)
	require.Len(t, callables, 1)
	assert.Equal(t, "linear", callables[0].Defaults["type"].String())
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"), "")
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("callables:\n  - params: [x]\n"), 0644))
	_, err = LoadFile(bad, "")
	assert.ErrorContains(t, err, "has no name")

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("callables:\n  - name: f\n    params: [x]\n    defaults:\n      k: {kind: integer, text: '1'}\n"), 0644))
	_, err = LoadFile(unknown, "")
	assert.ErrorContains(t, err, "unknown parameter")

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("callables:\n  - name: detrend\n    params: [data]\n  - name: welch\n    params: [x]\n  - name: detrend\n    params: [x]\n"), 0644))
	_, err = LoadFile(dup, "")
	assert.ErrorContains(t, err, "entry 2 duplicates detrend (entry 0)")
}
