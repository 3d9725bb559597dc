package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SourceExt is the file extension of Razen source files.
const SourceExt = ".rzn"

// ModuleResolver finds the source of an imported module.
type ModuleResolver interface {
	Resolve(path string) (string, error)
}

// DirResolver resolves module paths relative to a set of directories,
// adding SourceExt when the path has no extension.
type DirResolver struct {
	Dirs []string
}

// Resolve reads the first file named by path under one of the directories.
func (r DirResolver) Resolve(path string) (string, error) {
	name := path
	if filepath.Ext(name) == "" {
		name += SourceExt
	}
	if filepath.IsAbs(name) {
		data, err := os.ReadFile(name)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	for _, dir := range r.Dirs {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("module %s not found in %s", path, strings.Join(r.Dirs, ", "))
}

// MapResolver resolves modules from an in-memory table.
type MapResolver map[string]string

// Resolve returns the source registered under path.
func (r MapResolver) Resolve(path string) (string, error) {
	src, ok := r[path]
	if !ok {
		return "", fmt.Errorf("module %s not found", path)
	}
	return src, nil
}

// loadModule parses the module at path once. Problems are recorded as
// diagnostics and yield nil.
func (c *Compiler) loadModule(path string, pos Position) *Program {
	if mod, ok := c.modules[path]; ok {
		return mod
	}
	c.modules[path] = nil

	src, err := c.resolver.Resolve(path)
	if err != nil {
		c.errorf(pos, "cannot import %q: %v", path, err)
		return nil
	}
	mod, diags := Parse(src)
	for _, d := range diags {
		d.Message = path + ": " + d.Message
		c.diags = append(c.diags, d)
	}
	if diags.HasErrors() {
		return nil
	}
	c.modules[path] = mod
	c.log.Debugf("loaded module %s (%d statements)", path, len(mod.Statements))
	return mod
}
