package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk catalog format: a dump of introspected callables for
// one namespace. JSON dumps load as well since JSON is valid YAML.
type File struct {
	Namespace string     `yaml:"namespace" json:"namespace"`
	Callables []Callable `yaml:"callables" json:"callables"`
}

// LoadFile reads a catalog file. Entries without their own namespace inherit
// the file's namespace; namespace, when non-empty, overrides both.
func LoadFile(path, namespace string) ([]Callable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	out := make([]Callable, 0, len(f.Callables))
	seen := make(map[string]int, len(f.Callables))
	for i, c := range f.Callables {
		if c.Name == "" {
			return nil, fmt.Errorf("catalog %s: entry %d has no name", path, i)
		}
		if first, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("catalog %s: entry %d duplicates %s (entry %d)", path, i, c.Name, first)
		}
		seen[c.Name] = i
		for name := range c.Defaults {
			if !c.HasParam(name) {
				return nil, fmt.Errorf("catalog %s: %s: default for unknown parameter %q", path, c.Name, name)
			}
		}
		switch {
		case namespace != "":
			c.Namespace = namespace
		case c.Namespace == "":
			c.Namespace = f.Namespace
		}
		c.File = path
		out = append(out, c)
	}
	return out, nil
}
