package manifest

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveOrder(t *testing.T) {
	root := t.TempDir()
	app := filepath.Join(root, "app")
	util := filepath.Join(root, "util")
	base := filepath.Join(root, "base")

	writeManifest(t, app, `
[project]
name = "app"

[dependencies]
util = { path = "../util" }
base = { path = "../base" }
`)
	writeManifest(t, util, `
[project]
name = "util"

[source]
dirs = ["lib"]

[dependencies]
base = { path = "../base" }
`)
	writeManifest(t, base, `
[project]
name = "base"
`)

	m, err := Load(app)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	deps, err := m.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	var names []string
	for _, d := range deps {
		names = append(names, d.Name)
	}
	if got := strings.Join(names, ","); got != "base,util" {
		t.Errorf("resolve order = %s, want base,util", got)
	}

	dirs, err := m.ModuleDirs()
	if err != nil {
		t.Fatalf("ModuleDirs failed: %v", err)
	}
	want := []string{
		filepath.Join(app, "src"),
		filepath.Join(base, "src"),
		filepath.Join(util, "lib"),
	}
	if strings.Join(dirs, "|") != strings.Join(want, "|") {
		t.Errorf("ModuleDirs() = %v, want %v", dirs, want)
	}
}

func TestResolveEmptyManifest(t *testing.T) {
	root := t.TempDir()
	app := filepath.Join(root, "app")
	plain := filepath.Join(root, "plain")

	writeManifest(t, app, `
[dependencies]
plain = { path = "../plain" }
`)
	writeManifest(t, plain, "")

	m, err := Load(app)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	deps, err := m.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(deps) != 1 || deps[0].Manifest == nil {
		t.Fatalf("deps = %+v, want one dep with a manifest", deps)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		deps    string
		wantErr string
	}{
		{"missing path", `x = { }`, "no path"},
		{"missing directory", `x = { path = "../nowhere" }`, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "app")
			writeManifest(t, dir, "[dependencies]\n"+tt.deps+"\n")
			m, err := Load(dir)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			_, err = m.Resolve()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Resolve() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolveCycle(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	writeManifest(t, a, "[dependencies]\nb = { path = \"../b\" }\n")
	writeManifest(t, b, "[dependencies]\na = { path = \"../a\" }\n")

	m, err := Load(a)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := m.Resolve(); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("Resolve() error = %v, want cycle", err)
	}
}
