package compiler

import "strings"

// ---------------------------------------------------------------------------
// Light type checking
// ---------------------------------------------------------------------------

// declaredKind returns the value kind a declaration keyword promises, or
// KindUnknown for the generic keywords.
func declaredKind(k DeclKind) ValueKind {
	switch k {
	case DeclNum:
		return KindNumber
	case DeclStr:
		return KindString
	case DeclBool:
		return KindBool
	}
	return KindUnknown
}

// callKinds maps builtins and library functions to the kind they always
// return. Library keys use the canonical library name.
var callKinds = map[string]ValueKind{
	"len":  KindNumber,
	"num":  KindNumber,
	"str":  KindString,
	"type": KindString,
	"keys": KindArray,

	"String.length":     KindNumber,
	"String.contains":   KindBool,
	"String.startswith": KindBool,
	"String.endswith":   KindBool,
	"String.split":      KindArray,
}

// libraryKinds is the result kind of library functions missing from callKinds.
var libraryKinds = map[string]ValueKind{
	"Math":   KindNumber,
	"String": KindString,
}

// callKind returns the result kind of lib.fn, or of the builtin fn when lib
// is empty.
func callKind(lib, fn string) ValueKind {
	name := fn
	if lib != "" {
		name = lib + "." + fn
	}
	if k, ok := callKinds[name]; ok {
		return k
	}
	return libraryKinds[lib]
}

// InferKind guesses the kind an expression evaluates to from its shape.
// Identifiers are looked up in st when it is non-nil.
func InferKind(e Expr, st *SymbolTable) ValueKind {
	switch n := e.(type) {
	case *NumberLiteral:
		return KindNumber
	case *StringLiteral:
		return KindString
	case *BooleanLiteral:
		return KindBool
	case *NullLiteral:
		return KindNull
	case *ArrayLiteral:
		return KindArray
	case *MapLiteral:
		return KindMap
	case *PrefixExpr:
		if n.Operator == "!" {
			return KindBool
		}
		return KindNumber
	case *InfixExpr:
		switch n.Operator {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return KindBool
		case "+":
			left, right := InferKind(n.Left, st), InferKind(n.Right, st)
			switch {
			case left == KindNumber && right == KindNumber:
				return KindNumber
			case left == KindString || right == KindString:
				return KindString
			}
			return KindUnknown
		}
		return KindNumber
	case *AssignExpr:
		return InferKind(n.Value, st)
	case *LibraryCall:
		return callKind(n.Library, n.Function)
	case *NamespaceCall:
		return callKind(n.Namespace, n.Function)
	case *CallExpr:
		id, ok := n.Function.(*Identifier)
		if !ok {
			return KindUnknown
		}
		if st != nil {
			if _, user := st.Resolve(id.Name); user {
				return KindUnknown
			}
		}
		if lib, fn, dotted := strings.Cut(id.Name, "."); dotted {
			return callKind(lib, fn)
		}
		return callKind("", id.Name)
	case *Identifier:
		if st == nil {
			return KindUnknown
		}
		if sym, ok := st.Resolve(n.Name); ok {
			return declaredKind(sym.Declared)
		}
	}
	return KindUnknown
}

// checkDecl warns when an initializer's kind contradicts the declaration.
func (c *Compiler) checkDecl(kind DeclKind, name string, value Expr, pos Position) {
	want := declaredKind(kind)
	if want == KindUnknown {
		return
	}
	got := InferKind(value, c.symbols)
	if got == KindUnknown || got == KindNull || got == want {
		return
	}
	c.warnf(pos, KindType, "%s %s initialized with %s value", kind, name, got)
}

// checkAssign warns when an assigned value contradicts the variable's
// declared kind.
func (c *Compiler) checkAssign(sym *Symbol, value Expr, pos Position) {
	want := declaredKind(sym.Declared)
	if want == KindUnknown {
		return
	}
	got := InferKind(value, c.symbols)
	if got == KindUnknown || got == KindNull || got == want {
		return
	}
	c.warnf(pos, KindType, "assigning %s value to %s %s", got, sym.Declared, sym.Name)
}
