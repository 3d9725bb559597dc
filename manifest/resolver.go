package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ResolvedDep represents a dependency that has been resolved to a local path.
type ResolvedDep struct {
	Name      string    // dependency name
	LocalPath string    // local filesystem path
	Manifest  *Manifest // the dependency's own manifest (may be nil)
}

// SourceDirs returns the directories searched for the dependency's modules:
// its manifest's source dirs, or the dependency directory itself.
func (d ResolvedDep) SourceDirs() []string {
	if d.Manifest != nil {
		return d.Manifest.SourceDirPaths()
	}
	return []string{d.LocalPath}
}

// Resolve resolves all dependencies and returns them in load order
// (topologically sorted: dependencies before dependents).
func (m *Manifest) Resolve() ([]ResolvedDep, error) {
	r := &resolver{
		resolved: map[string]bool{},
		visiting: map[string]bool{},
	}
	if err := r.resolveAll(m, m.Dependencies); err != nil {
		return nil, err
	}
	return r.order, nil
}

// ModuleDirs returns the project's source dirs followed by those of every
// dependency, the search path for imported modules.
func (m *Manifest) ModuleDirs() ([]string, error) {
	deps, err := m.Resolve()
	if err != nil {
		return nil, err
	}
	dirs := m.SourceDirPaths()
	for _, d := range deps {
		dirs = append(dirs, d.SourceDirs()...)
	}
	return dirs, nil
}

type resolver struct {
	resolved map[string]bool // by local path
	visiting map[string]bool
	order    []ResolvedDep
}

// resolveAll resolves a set of dependencies recursively, in name order.
func (r *resolver) resolveAll(owner *Manifest, deps map[string]Dependency) error {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rd, err := resolveOne(owner, name, deps[name])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", name, err)
		}
		if r.resolved[rd.LocalPath] {
			continue
		}
		if r.visiting[rd.LocalPath] {
			return fmt.Errorf("dependency cycle through %s", name)
		}

		r.visiting[rd.LocalPath] = true
		if rd.Manifest != nil && len(rd.Manifest.Dependencies) > 0 {
			if err := r.resolveAll(rd.Manifest, rd.Manifest.Dependencies); err != nil {
				return err
			}
		}
		delete(r.visiting, rd.LocalPath)

		r.resolved[rd.LocalPath] = true
		r.order = append(r.order, *rd)
	}
	return nil
}

// resolveOne resolves a single dependency relative to its owner.
func resolveOne(owner *Manifest, name string, dep Dependency) (*ResolvedDep, error) {
	if dep.Path == "" {
		return nil, fmt.Errorf("dependency %q has no path specified", name)
	}

	localPath := dep.Path
	if !filepath.IsAbs(localPath) {
		localPath = filepath.Join(owner.Dir, localPath)
	}
	localPath, err := filepath.Abs(localPath)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", dep.Path, err)
	}

	// Verify it exists
	if _, err := os.Stat(localPath); err != nil {
		return nil, fmt.Errorf("local dependency %q not found at %s: %w", name, localPath, err)
	}

	// Try to load its manifest
	var depManifest *Manifest
	if _, err := os.Stat(filepath.Join(localPath, FileName)); err == nil {
		if depManifest, err = Load(localPath); err != nil {
			return nil, err
		}
	}

	return &ResolvedDep{
		Name:      name,
		LocalPath: localPath,
		Manifest:  depManifest,
	}, nil
}
