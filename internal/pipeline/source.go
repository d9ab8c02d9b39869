package pipeline

import (
	"context"
	"fmt"
	"strings"

	"nodegen/internal/catalog"
)

// Source enumerates the callables of one submodule.
type Source interface {
	Callables(ctx context.Context) ([]catalog.Callable, error)
}

// DirSource scans a Python package directory.
type DirSource struct {
	Root    string
	Options catalog.ScanOptions
}

// Callables implements Source.
func (s DirSource) Callables(ctx context.Context) ([]catalog.Callable, error) {
	scanner := catalog.NewSourceScanner()
	defer scanner.Close()
	return scanner.ScanDir(ctx, s.Root, s.Options)
}

// FileSource reads a catalog file.
type FileSource struct {
	Path      string
	Namespace string
}

// Callables implements Source.
func (s FileSource) Callables(ctx context.Context) ([]catalog.Callable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return catalog.LoadFile(s.Path, s.Namespace)
}

// StaticSource serves a fixed list.
type StaticSource []catalog.Callable

// Callables implements Source.
func (s StaticSource) Callables(ctx context.Context) ([]catalog.Callable, error) {
	return []catalog.Callable(s), nil
}

// Submodule is one unit of generation: the callables of Namespace written
// under <LIBRARY>/<Name>.
type Submodule struct {
	Library   string
	Name      string
	Namespace string
	Source    Source
}

// Category is the manifest type of the submodule's nodes.
func (s Submodule) Category() string {
	return strings.ToUpper(s.Library) + "_" + strings.ToUpper(s.Name)
}

func (s Submodule) String() string {
	return s.Library + "." + s.Name
}

// Find returns the callable called name.
func (s Submodule) Find(ctx context.Context, name string) (catalog.Callable, error) {
	callables, err := s.Source.Callables(ctx)
	if err != nil {
		return catalog.Callable{}, err
	}
	for _, c := range callables {
		if c.Name == name {
			return c, nil
		}
	}
	return catalog.Callable{}, fmt.Errorf("%s: no callable named %q", s, name)
}
