// Package emit persists accepted artifacts and the per-submodule index.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"nodegen/internal/logging"
	"nodegen/internal/synth"
)

// Layout decides where artifacts land on disk.
type Layout struct {
	NodesDir    string `yaml:"nodes_dir"`
	ManifestDir string `yaml:"manifest_dir"`
	WrapperExt  string `yaml:"wrapper_ext"`
	ManifestExt string `yaml:"manifest_ext"`
	IndexFile   string `yaml:"index_file"`
}

// DefaultLayout places nodes and manifests under root.
func DefaultLayout(root string) Layout {
	return Layout{
		NodesDir:    root,
		ManifestDir: filepath.Join(root, "MANIFEST"),
		WrapperExt:  ".py",
		ManifestExt: ".manifest.yaml",
		IndexFile:   "__init__.py",
	}
}

// SubmoduleDir is <nodes>/<LIBRARY>/<submodule>.
func (l Layout) SubmoduleDir(library, submodule string) string {
	return filepath.Join(l.NodesDir, strings.ToUpper(library), submodule)
}

// WrapperPath is the wrapper file for a callable.
func (l Layout) WrapperPath(library, submodule, name string) string {
	return filepath.Join(l.SubmoduleDir(library, submodule), name+l.WrapperExt)
}

// ManifestPath is the manifest file for a callable.
func (l Layout) ManifestPath(name string) string {
	return filepath.Join(l.ManifestDir, name+l.ManifestExt)
}

// IndexPath is the index file of a submodule.
func (l Layout) IndexPath(library, submodule string) string {
	return filepath.Join(l.SubmoduleDir(library, submodule), l.IndexFile)
}

// Writer writes artifacts according to a Layout. Index writes are
// serialized; artifact writes for distinct callables may run concurrently.
type Writer struct {
	layout Layout
	dryRun bool
	mu     sync.Mutex
}

// NewWriter creates a writer. With dryRun set nothing touches the disk.
func NewWriter(layout Layout, dryRun bool) *Writer {
	return &Writer{layout: layout, dryRun: dryRun}
}

// Layout returns the writer's layout.
func (w *Writer) Layout() Layout {
	return w.layout
}

// WriteArtifacts persists both artifacts of an accepted callable. The pair is
// staged next to its targets and renamed into place; if the second rename
// fails the first file is removed again.
func (w *Writer) WriteArtifacts(library, submodule, name string, a synth.Artifacts) error {
	if a.Wrapper == "" || a.Manifest == "" {
		return fmt.Errorf("refusing to write %s: %w", name, synth.ErrEmptyArtifact)
	}

	wrapperPath := w.layout.WrapperPath(library, submodule, name)
	manifestPath := w.layout.ManifestPath(name)
	if w.dryRun {
		logging.EmitDebug("dry run: would write %s and %s", wrapperPath, manifestPath)
		return nil
	}

	for _, dir := range []string{filepath.Dir(wrapperPath), filepath.Dir(manifestPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	wrapperTmp, err := stage(wrapperPath, a.Wrapper)
	if err != nil {
		return err
	}
	manifestTmp, err := stage(manifestPath, a.Manifest)
	if err != nil {
		os.Remove(wrapperTmp)
		return err
	}

	if err := os.Rename(wrapperTmp, wrapperPath); err != nil {
		os.Remove(wrapperTmp)
		os.Remove(manifestTmp)
		return fmt.Errorf("failed to write wrapper: %w", err)
	}
	if err := os.Rename(manifestTmp, manifestPath); err != nil {
		os.Remove(manifestTmp)
		os.Remove(wrapperPath)
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	logging.EmitDebug("wrote %s", wrapperPath)
	return nil
}

// stage writes content to a temporary file beside path.
func stage(path, content string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to stage %s: %w", path, err)
	}
	return f.Name(), nil
}

// WriteIndex writes the submodule index listing keys in order.
func (w *Writer) WriteIndex(library, submodule string, keys []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.layout.IndexPath(library, submodule)
	if w.dryRun {
		logging.EmitDebug("dry run: would write %s (%d keys)", path, len(keys))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(RenderIndex(keys)), 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	logging.Emit("wrote index %s with %d nodes", path, len(keys))
	return nil
}

// RenderIndex renders the __all__ declaration for keys.
func RenderIndex(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = `"` + k + `"`
	}
	return "__all__ = [" + strings.Join(quoted, ", ") + "]\n"
}
