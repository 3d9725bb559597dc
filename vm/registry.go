package vm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ---------------------------------------------------------------------------
// Library registry
// ---------------------------------------------------------------------------

// Func is a host function callable from Razen code. An error is raised in
// the program as a catchable exception carrying the error text.
type Func func(args []Value) (Value, error)

// Library is a named set of host functions.
type Library struct {
	Name  string
	funcs map[string]Func
}

// NewLibrary creates an empty library.
func NewLibrary(name string) *Library {
	return &Library{Name: name, funcs: map[string]Func{}}
}

// Define adds a function. Names are case-insensitive.
func (l *Library) Define(name string, fn Func) *Library {
	l.funcs[strings.ToLower(name)] = fn
	return l
}

// Lookup finds a function by name.
func (l *Library) Lookup(name string) (Func, bool) {
	fn, ok := l.funcs[strings.ToLower(name)]
	return fn, ok
}

// Functions returns the sorted function names.
func (l *Library) Functions() []string {
	names := make([]string, 0, len(l.funcs))
	for name := range l.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinsLibrary is the library consulted for calls to names that are not
// defined by the program.
const BuiltinsLibrary = "builtins"

// Registry maps library names to libraries. Lookups are case-insensitive.
// A Registry is safe for concurrent use, so one registry can serve many VMs.
type Registry struct {
	mu   sync.RWMutex
	libs map[string]*Library
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{libs: map[string]*Library{}}
}

// Register adds lib under its name and any aliases.
func (r *Registry) Register(lib *Library, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.libs[strings.ToLower(lib.Name)] = lib
	for _, a := range aliases {
		r.libs[strings.ToLower(a)] = lib
	}
}

// Unregister removes the library registered under name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.libs, strings.ToLower(name))
}

// Lookup finds a library by name or alias.
func (r *Registry) Lookup(name string) (*Library, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	lib, ok := r.libs[strings.ToLower(name)]
	return lib, ok
}

// Call invokes library.function with args.
func (r *Registry) Call(library, function string, args []Value) (Value, error) {
	lib, ok := r.Lookup(library)
	if !ok {
		return Null(), fmt.Errorf("library '%s' not found", library)
	}
	fn, ok := lib.Lookup(function)
	if !ok {
		return Null(), fmt.Errorf("function '%s' not found in library '%s'", function, library)
	}
	return fn(args)
}

// Libraries returns the sorted registered names, aliases included.
func (r *Registry) Libraries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.libs))
	for name := range r.libs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
