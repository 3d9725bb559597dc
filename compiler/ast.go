package compiler

import "reflect"

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for Razen
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Position
	String() string
	node() // marker method
}

// Program is the root of a parsed source file.
type Program struct {
	Statements []Stmt
	Comments   []Token
}

func (p *Program) String() string { return formatProgram(p) }

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Identifier is a variable or function reference. Dotted member references
// (a.b) are folded into a single identifier.
type Identifier struct {
	PosVal Position
	Name   string
}

func (n *Identifier) Pos() Position  { return n.PosVal }
func (n *Identifier) String() string { return formatExpr(n) }
func (n *Identifier) node()          {}
func (n *Identifier) expr()          {}

// NumberLiteral is a numeric literal.
type NumberLiteral struct {
	PosVal Position
	Value  float64
}

func (n *NumberLiteral) Pos() Position  { return n.PosVal }
func (n *NumberLiteral) String() string { return formatExpr(n) }
func (n *NumberLiteral) node()          {}
func (n *NumberLiteral) expr()          {}

// StringLiteral is a string literal with escapes decoded.
type StringLiteral struct {
	PosVal Position
	Value  string
}

func (n *StringLiteral) Pos() Position  { return n.PosVal }
func (n *StringLiteral) String() string { return formatExpr(n) }
func (n *StringLiteral) node()          {}
func (n *StringLiteral) expr()          {}

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	PosVal Position
	Value  bool
}

func (n *BooleanLiteral) Pos() Position  { return n.PosVal }
func (n *BooleanLiteral) String() string { return formatExpr(n) }
func (n *BooleanLiteral) node()          {}
func (n *BooleanLiteral) expr()          {}

// NullLiteral is null.
type NullLiteral struct {
	PosVal Position
}

func (n *NullLiteral) Pos() Position  { return n.PosVal }
func (n *NullLiteral) String() string { return formatExpr(n) }
func (n *NullLiteral) node()          {}
func (n *NullLiteral) expr()          {}

// PrefixExpr is a unary operation: -x, !x.
type PrefixExpr struct {
	PosVal   Position
	Operator string
	Right    Expr
}

func (n *PrefixExpr) Pos() Position  { return n.PosVal }
func (n *PrefixExpr) String() string { return formatExpr(n) }
func (n *PrefixExpr) node()          {}
func (n *PrefixExpr) expr()          {}

// InfixExpr is a binary operation.
type InfixExpr struct {
	PosVal   Position
	Left     Expr
	Operator string
	Right    Expr
}

func (n *InfixExpr) Pos() Position  { return n.PosVal }
func (n *InfixExpr) String() string { return formatExpr(n) }
func (n *InfixExpr) node()          {}
func (n *InfixExpr) expr()          {}

// AssignExpr is a plain (=) or compound (+= ...) assignment.
type AssignExpr struct {
	PosVal   Position
	Target   Expr
	Operator string
	Value    Expr
}

func (n *AssignExpr) Pos() Position  { return n.PosVal }
func (n *AssignExpr) String() string { return formatExpr(n) }
func (n *AssignExpr) node()          {}
func (n *AssignExpr) expr()          {}

// CallExpr is a function call.
type CallExpr struct {
	PosVal   Position
	Function Expr
	Args     []Expr
}

func (n *CallExpr) Pos() Position  { return n.PosVal }
func (n *CallExpr) String() string { return formatExpr(n) }
func (n *CallExpr) node()          {}
func (n *CallExpr) expr()          {}

// ArrayLiteral is [a, b, c].
type ArrayLiteral struct {
	PosVal   Position
	Elements []Expr
}

func (n *ArrayLiteral) Pos() Position  { return n.PosVal }
func (n *ArrayLiteral) String() string { return formatExpr(n) }
func (n *ArrayLiteral) node()          {}
func (n *ArrayLiteral) expr()          {}

// MapPair is one key/value entry of a map literal.
type MapPair struct {
	Key   Expr
	Value Expr
}

// MapLiteral is {key: value, ...}. Bare identifier keys are string keys.
type MapLiteral struct {
	PosVal Position
	Pairs  []MapPair
}

func (n *MapLiteral) Pos() Position  { return n.PosVal }
func (n *MapLiteral) String() string { return formatExpr(n) }
func (n *MapLiteral) node()          {}
func (n *MapLiteral) expr()          {}

// IndexExpr is left[index].
type IndexExpr struct {
	PosVal Position
	Left   Expr
	Index  Expr
}

func (n *IndexExpr) Pos() Position  { return n.PosVal }
func (n *IndexExpr) String() string { return formatExpr(n) }
func (n *IndexExpr) node()          {}
func (n *IndexExpr) expr()          {}

// LibraryCall is Lib[fn](args).
type LibraryCall struct {
	PosVal   Position
	Library  string
	Function string
	Args     []Expr
}

func (n *LibraryCall) Pos() Position  { return n.PosVal }
func (n *LibraryCall) String() string { return formatExpr(n) }
func (n *LibraryCall) node()          {}
func (n *LibraryCall) expr()          {}

// NamespaceCall is ns::fn(args).
type NamespaceCall struct {
	PosVal    Position
	Namespace string
	Function  string
	Args      []Expr
}

func (n *NamespaceCall) Pos() Position  { return n.PosVal }
func (n *NamespaceCall) String() string { return formatExpr(n) }
func (n *NamespaceCall) node()          {}
func (n *NamespaceCall) expr()          {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// DeclKind is the declared kind of a variable.
type DeclKind int

const (
	DeclVar DeclKind = iota // generic
	DeclNum
	DeclStr
	DeclBool
)

var declKeywords = map[DeclKind]string{
	DeclVar:  "var",
	DeclNum:  "num",
	DeclStr:  "str",
	DeclBool: "bool",
}

func (k DeclKind) String() string { return declKeywords[k] }

// VarDecl is num/str/bool/var name [= value].
type VarDecl struct {
	PosVal Position
	Kind   DeclKind
	Name   string
	Value  Expr // nil when there is no initializer
}

func (n *VarDecl) Pos() Position  { return n.PosVal }
func (n *VarDecl) String() string { return formatStmt(n) }
func (n *VarDecl) node()          {}
func (n *VarDecl) stmt()          {}

// ConstDecl is const NAME = value.
type ConstDecl struct {
	PosVal Position
	Name   string
	Value  Expr
}

func (n *ConstDecl) Pos() Position  { return n.PosVal }
func (n *ConstDecl) String() string { return formatStmt(n) }
func (n *ConstDecl) node()          {}
func (n *ConstDecl) stmt()          {}

// EnumMember is one member of an enum, with an optional explicit value.
type EnumMember struct {
	Name  string
	Value Expr
}

// EnumDecl is enum Name { A, B = 5, C }.
type EnumDecl struct {
	PosVal  Position
	Name    string
	Members []EnumMember
}

func (n *EnumDecl) Pos() Position  { return n.PosVal }
func (n *EnumDecl) String() string { return formatStmt(n) }
func (n *EnumDecl) node()          {}
func (n *EnumDecl) stmt()          {}

// ClassDecl is class Name { declarations }.
type ClassDecl struct {
	PosVal Position
	Name   string
	Body   *BlockStmt
}

func (n *ClassDecl) Pos() Position  { return n.PosVal }
func (n *ClassDecl) String() string { return formatStmt(n) }
func (n *ClassDecl) node()          {}
func (n *ClassDecl) stmt()          {}

// FunctionDecl is fun name(params) { body }.
type FunctionDecl struct {
	PosVal Position
	Name   string
	Params []string
	Body   *BlockStmt
}

func (n *FunctionDecl) Pos() Position  { return n.PosVal }
func (n *FunctionDecl) String() string { return formatStmt(n) }
func (n *FunctionDecl) node()          {}
func (n *FunctionDecl) stmt()          {}

// ReturnStmt is return [value].
type ReturnStmt struct {
	PosVal Position
	Value  Expr
}

func (n *ReturnStmt) Pos() Position  { return n.PosVal }
func (n *ReturnStmt) String() string { return formatStmt(n) }
func (n *ReturnStmt) node()          {}
func (n *ReturnStmt) stmt()          {}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	PosVal Position
	Expr   Expr
}

func (n *ExprStmt) Pos() Position  { return n.PosVal }
func (n *ExprStmt) String() string { return formatStmt(n) }
func (n *ExprStmt) node()          {}
func (n *ExprStmt) stmt()          {}

// BlockStmt is { statements }.
type BlockStmt struct {
	PosVal     Position
	Statements []Stmt
}

func (n *BlockStmt) Pos() Position  { return n.PosVal }
func (n *BlockStmt) String() string { return formatStmt(n) }
func (n *BlockStmt) node()          {}
func (n *BlockStmt) stmt()          {}

// IfStmt is if cond { then } [else { alt }]. An elif chain is an Else block
// holding a single IfStmt.
type IfStmt struct {
	PosVal Position
	Cond   Expr
	Then   *BlockStmt
	Else   *BlockStmt
}

func (n *IfStmt) Pos() Position  { return n.PosVal }
func (n *IfStmt) String() string { return formatStmt(n) }
func (n *IfStmt) node()          {}
func (n *IfStmt) stmt()          {}

// WhileStmt is while cond { body }.
type WhileStmt struct {
	PosVal Position
	Cond   Expr
	Body   *BlockStmt
}

func (n *WhileStmt) Pos() Position  { return n.PosVal }
func (n *WhileStmt) String() string { return formatStmt(n) }
func (n *WhileStmt) node()          {}
func (n *WhileStmt) stmt()          {}

// ForStmt is for (name in iterable) { body }.
type ForStmt struct {
	PosVal   Position
	Var      string
	Iterable Expr
	Body     *BlockStmt
}

func (n *ForStmt) Pos() Position  { return n.PosVal }
func (n *ForStmt) String() string { return formatStmt(n) }
func (n *ForStmt) node()          {}
func (n *ForStmt) stmt()          {}

// BreakStmt exits the innermost loop.
type BreakStmt struct {
	PosVal Position
}

func (n *BreakStmt) Pos() Position  { return n.PosVal }
func (n *BreakStmt) String() string { return formatStmt(n) }
func (n *BreakStmt) node()          {}
func (n *BreakStmt) stmt()          {}

// ContinueStmt restarts the innermost loop.
type ContinueStmt struct {
	PosVal Position
}

func (n *ContinueStmt) Pos() Position  { return n.PosVal }
func (n *ContinueStmt) String() string { return formatStmt(n) }
func (n *ContinueStmt) node()          {}
func (n *ContinueStmt) stmt()          {}

// ShowStmt prints a value, optionally in a color: show(red) value.
type ShowStmt struct {
	PosVal Position
	Color  string
	Value  Expr
}

func (n *ShowStmt) Pos() Position  { return n.PosVal }
func (n *ShowStmt) String() string { return formatStmt(n) }
func (n *ShowStmt) node()          {}
func (n *ShowStmt) stmt()          {}

// ReadStmt reads one input line into a variable.
type ReadStmt struct {
	PosVal Position
	Name   string
}

func (n *ReadStmt) Pos() Position  { return n.PosVal }
func (n *ReadStmt) String() string { return formatStmt(n) }
func (n *ReadStmt) node()          {}
func (n *ReadStmt) stmt()          {}

// ExitStmt halts the program.
type ExitStmt struct {
	PosVal Position
}

func (n *ExitStmt) Pos() Position  { return n.PosVal }
func (n *ExitStmt) String() string { return formatStmt(n) }
func (n *ExitStmt) node()          {}
func (n *ExitStmt) stmt()          {}

// TryStmt is try { } [catch [(name)] { }] [finally { }].
type TryStmt struct {
	PosVal    Position
	Body      *BlockStmt
	CatchName string
	Catch     *BlockStmt
	Finally   *BlockStmt
}

func (n *TryStmt) Pos() Position  { return n.PosVal }
func (n *TryStmt) String() string { return formatStmt(n) }
func (n *TryStmt) node()          {}
func (n *TryStmt) stmt()          {}

// ThrowStmt raises a value.
type ThrowStmt struct {
	PosVal Position
	Value  Expr
}

func (n *ThrowStmt) Pos() Position  { return n.PosVal }
func (n *ThrowStmt) String() string { return formatStmt(n) }
func (n *ThrowStmt) node()          {}
func (n *ThrowStmt) stmt()          {}

// ImportStmt covers both use and import forms:
//
//	use Math as m;
//	use a, b from "util.rzn";
//	import { a, b } from "util.rzn";
//	import "util.rzn";
type ImportStmt struct {
	PosVal  Position
	Keyword string // "use" or "import"
	Names   []string
	Alias   string
	Source  string
}

func (n *ImportStmt) Pos() Position  { return n.PosVal }
func (n *ImportStmt) String() string { return formatStmt(n) }
func (n *ImportStmt) node()          {}
func (n *ImportStmt) stmt()          {}

// ExportStmt is export a, b.
type ExportStmt struct {
	PosVal Position
	Names  []string
}

func (n *ExportStmt) Pos() Position  { return n.PosVal }
func (n *ExportStmt) String() string { return formatStmt(n) }
func (n *ExportStmt) node()          {}
func (n *ExportStmt) stmt()          {}

// LibStmt declares that a program requires a library: lib Math.
type LibStmt struct {
	PosVal Position
	Name   string
}

func (n *LibStmt) Pos() Position  { return n.PosVal }
func (n *LibStmt) String() string { return formatStmt(n) }
func (n *LibStmt) node()          {}
func (n *LibStmt) stmt()          {}

// DocTypeStmt declares the document type: type script.
type DocTypeStmt struct {
	PosVal Position
	Name   string
}

func (n *DocTypeStmt) Pos() Position  { return n.PosVal }
func (n *DocTypeStmt) String() string { return formatStmt(n) }
func (n *DocTypeStmt) node()          {}
func (n *DocTypeStmt) stmt()          {}

// DebugStmt prints a value to the diagnostic stream.
type DebugStmt struct {
	PosVal Position
	Value  Expr
}

func (n *DebugStmt) Pos() Position  { return n.PosVal }
func (n *DebugStmt) String() string { return formatStmt(n) }
func (n *DebugStmt) node()          {}
func (n *DebugStmt) stmt()          {}

// TraceStmt logs a value at trace level.
type TraceStmt struct {
	PosVal Position
	Value  Expr
}

func (n *TraceStmt) Pos() Position  { return n.PosVal }
func (n *TraceStmt) String() string { return formatStmt(n) }
func (n *TraceStmt) node()          {}
func (n *TraceStmt) stmt()          {}

// AssertStmt throws when its condition is falsey: assert(cond[, message]).
type AssertStmt struct {
	PosVal  Position
	Cond    Expr
	Message Expr
}

func (n *AssertStmt) Pos() Position  { return n.PosVal }
func (n *AssertStmt) String() string { return formatStmt(n) }
func (n *AssertStmt) node()          {}
func (n *AssertStmt) stmt()          {}

// ConstructStmt is a compiler-construction declaration. Three shapes exist:
//
//	token NUMBER = "[0-9]+";      (Value)
//	node Binary { left, right }   (Fields)
//	grammar Calc { ... }          (Body)
type ConstructStmt struct {
	PosVal Position
	Kind   TokenType
	Name   string
	Value  Expr
	Fields []string
	Body   *BlockStmt
}

func (n *ConstructStmt) Pos() Position  { return n.PosVal }
func (n *ConstructStmt) String() string { return formatStmt(n) }
func (n *ConstructStmt) node()          {}
func (n *ConstructStmt) stmt()          {}

// ---------------------------------------------------------------------------
// Structural equality
// ---------------------------------------------------------------------------

var positionType = reflect.TypeOf(Position{})

// Equal reports whether two nodes are structurally equal, ignoring source
// positions.
func Equal(a, b Node) bool {
	return equalValues(reflect.ValueOf(a), reflect.ValueOf(b))
}

// EqualPrograms reports whether two programs have structurally equal
// statements. Comments are ignored.
func EqualPrograms(a, b *Program) bool {
	if len(a.Statements) != len(b.Statements) {
		return false
	}
	for i := range a.Statements {
		if !Equal(a.Statements[i], b.Statements[i]) {
			return false
		}
	}
	return true
}

func equalValues(a, b reflect.Value) bool {
	if a.IsValid() != b.IsValid() {
		return false
	}
	if !a.IsValid() {
		return true
	}
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Interface, reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return equalValues(a.Elem(), b.Elem())
	case reflect.Struct:
		if a.Type() == positionType {
			return true
		}
		for i := 0; i < a.NumField(); i++ {
			if !equalValues(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Slice:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !equalValues(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
}
