package main

import (
	"fmt"
	"strings"

	"nodegen/internal/catalog"
	"nodegen/internal/config"
	"nodegen/internal/emit"
	"nodegen/internal/pipeline"
)

// buildSubmodules turns the configured libraries into pipeline submodules.
// Empty filters match everything.
func buildSubmodules(cfg *config.Config, libFilter, subFilter string) ([]pipeline.Submodule, error) {
	var subs []pipeline.Submodule
	for _, lib := range cfg.Libraries {
		if libFilter != "" && lib.Name != libFilter {
			continue
		}
		for _, sc := range lib.Submodules {
			if subFilter != "" && sc.Name != subFilter {
				continue
			}
			ns := config.NamespaceOf(lib, sc)
			var src pipeline.Source
			if sc.SourceDir != "" {
				src = pipeline.DirSource{
					Root: sc.SourceDir,
					Options: catalog.ScanOptions{
						Namespace:      ns,
						ExcludeDirs:    sc.Exclude,
						IncludePrivate: sc.IncludePrivate,
					},
				}
			} else {
				// Entries in a catalog file may carry their own namespace.
				src = pipeline.FileSource{Path: sc.CatalogFile, Namespace: sc.Namespace}
			}
			subs = append(subs, pipeline.Submodule{
				Library:   lib.Name,
				Name:      sc.Name,
				Namespace: ns,
				Source:    src,
			})
		}
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("no configured submodule matches library=%q submodule=%q", libFilter, subFilter)
	}
	return subs, nil
}

// findSubmodule resolves "lib.sub" or a bare "sub".
func findSubmodule(cfg *config.Config, ref string) (pipeline.Submodule, error) {
	lib, sub := "", ref
	if i := strings.LastIndex(ref, "."); i >= 0 {
		lib, sub = ref[:i], ref[i+1:]
	}
	subs, err := buildSubmodules(cfg, lib, sub)
	if err != nil {
		return pipeline.Submodule{}, err
	}
	if len(subs) > 1 {
		return pipeline.Submodule{}, fmt.Errorf("submodule %q is ambiguous, use library.submodule", ref)
	}
	return subs[0], nil
}

func layoutFrom(cfg *config.Config) emit.Layout {
	return emit.Layout{
		NodesDir:    cfg.Output.NodesDir,
		ManifestDir: cfg.Output.ManifestDir,
		WrapperExt:  cfg.Output.WrapperExt,
		ManifestExt: cfg.Output.ManifestExt,
		IndexFile:   cfg.Output.IndexFile,
	}
}

func newRunner(cfg *config.Config, dry bool) *pipeline.Runner {
	return pipeline.NewRunner(emit.NewWriter(layoutFrom(cfg), dry), pipeline.Options{
		Workers: cfg.Generation.Workers,
		DryRun:  dry,
		Rules:   cfg.Generation.Rules,
	})
}
