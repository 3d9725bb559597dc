package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Symbol tables
// ---------------------------------------------------------------------------

// ValueKind is the statically known kind of a value, used for light type
// checking.
type ValueKind int

const (
	KindUnknown ValueKind = iota
	KindNumber
	KindString
	KindBool
	KindNull
	KindArray
	KindMap
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	}
	return "unknown"
}

// Symbol is a declared name.
type Symbol struct {
	Name     string
	Storage  string // name used by the generated code
	Slot     int    // index within its scope
	Scope    int    // index of the declaring scope
	Declared DeclKind
	Const    bool
	Function bool
}

// scope is one record in the arena. parent is -1 for the global scope.
type scope struct {
	parent   int
	frame    bool // function or global scope: owns its own environment
	symbols  map[string]*Symbol
	numSlots int
}

// SymbolTable is an arena of scopes linked by integer parent indices.
// Scopes are never removed, so indices stay valid for the lifetime of the
// table.
type SymbolTable struct {
	scopes  []scope
	current int
}

// NewSymbolTable creates a table holding only the global scope.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{}
	st.scopes = append(st.scopes, scope{parent: -1, frame: true, symbols: map[string]*Symbol{}})
	return st
}

// Enter opens a child scope of the current scope and returns its index.
// Function scopes start a new runtime environment.
func (st *SymbolTable) Enter(function bool) int {
	st.scopes = append(st.scopes, scope{
		parent:  st.current,
		frame:   function,
		symbols: map[string]*Symbol{},
	})
	st.current = len(st.scopes) - 1
	return st.current
}

// Leave returns to the parent of the current scope.
func (st *SymbolTable) Leave() {
	if parent := st.scopes[st.current].parent; parent >= 0 {
		st.current = parent
	}
}

// Current returns the index of the current scope.
func (st *SymbolTable) Current() int {
	return st.current
}

// Parent returns the parent index of scope i, or -1 for the global scope.
func (st *SymbolTable) Parent(i int) int {
	return st.scopes[i].parent
}

// Depth returns the number of scopes between the current scope and the
// global scope.
func (st *SymbolTable) Depth() int {
	d := 0
	for i := st.current; st.scopes[i].parent >= 0; i = st.scopes[i].parent {
		d++
	}
	return d
}

// Define declares name in the current scope. Redefining a name in the same
// scope replaces it. A name that shadows a declaration from an enclosing
// block of the same frame gets a distinct storage name, so the outer
// variable is never overwritten.
func (st *SymbolTable) Define(name string, kind DeclKind) *Symbol {
	sc := &st.scopes[st.current]
	if existing, ok := sc.symbols[name]; ok {
		existing.Declared = kind
		return existing
	}

	storage := name
	if !sc.frame {
		if _, ok := st.resolveInFrame(name, sc.parent); ok {
			storage = fmt.Sprintf("%s#%d", name, st.current)
		}
	}

	sym := &Symbol{
		Name:     name,
		Storage:  storage,
		Slot:     sc.numSlots,
		Scope:    st.current,
		Declared: kind,
	}
	sc.numSlots++
	sc.symbols[name] = sym
	return sym
}

// Resolve finds name starting at the current scope and walking parents.
func (st *SymbolTable) Resolve(name string) (*Symbol, bool) {
	for i := st.current; i >= 0; i = st.scopes[i].parent {
		if sym, ok := st.scopes[i].symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// ResolveLocal finds name in the current scope only.
func (st *SymbolTable) ResolveLocal(name string) (*Symbol, bool) {
	sym, ok := st.scopes[st.current].symbols[name]
	return sym, ok
}

// resolveInFrame looks for name from scope i up to and including the
// nearest frame scope.
func (st *SymbolTable) resolveInFrame(name string, i int) (*Symbol, bool) {
	for ; i >= 0; i = st.scopes[i].parent {
		if sym, ok := st.scopes[i].symbols[name]; ok {
			return sym, true
		}
		if st.scopes[i].frame {
			break
		}
	}
	return nil, false
}

// StorageName returns the runtime name for an identifier: the storage name
// of its symbol if declared, the identifier itself otherwise.
func (st *SymbolTable) StorageName(name string) string {
	if sym, ok := st.Resolve(name); ok {
		return sym.Storage
	}
	return name
}
