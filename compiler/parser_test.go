package compiler

import (
	"fmt"
	"strings"
	"testing"
)

func parseOK(t *testing.T, input string) *Program {
	t.Helper()
	prog, diags := Parse(input)
	if diags.HasErrors() {
		t.Fatalf("parse %q:\n%s", input, diags)
	}
	return prog
}

func TestParseFunctionDecl(t *testing.T) {
	prog := parseOK(t, `fun add(x, y) { return x + y; }`)

	if len(prog.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Statements))
	}
	fn, ok := prog.Statements[0].(*FunctionDecl)
	if !ok {
		t.Fatalf("statement is %T, want *FunctionDecl", prog.Statements[0])
	}
	if fn.Name != "add" {
		t.Errorf("name = %q, want add", fn.Name)
	}
	if len(fn.Params) != 2 || fn.Params[0] != "x" || fn.Params[1] != "y" {
		t.Errorf("params = %v, want [x y]", fn.Params)
	}
	if len(fn.Body.Statements) != 1 {
		t.Fatalf("body has %d statements, want 1", len(fn.Body.Statements))
	}
	ret, ok := fn.Body.Statements[0].(*ReturnStmt)
	if !ok {
		t.Fatalf("body statement is %T, want *ReturnStmt", fn.Body.Statements[0])
	}
	infix, ok := ret.Value.(*InfixExpr)
	if !ok {
		t.Fatalf("return value is %T, want *InfixExpr", ret.Value)
	}
	if infix.Operator != "+" {
		t.Errorf("operator = %q, want +", infix.Operator)
	}
	if l, ok := infix.Left.(*Identifier); !ok || l.Name != "x" {
		t.Errorf("left = %v, want x", infix.Left)
	}
	if r, ok := infix.Right.(*Identifier); !ok || r.Name != "y" {
		t.Errorf("right = %v, want y", infix.Right)
	}
}

func TestParseVarDecls(t *testing.T) {
	tests := []struct {
		input string
		kind  DeclKind
		name  string
		value bool
	}{
		{`num x = 5;`, DeclNum, "x", true},
		{`str s = "hi";`, DeclStr, "s", true},
		{`bool ok = true;`, DeclBool, "ok", true},
		{`var v;`, DeclVar, "v", false},
		{`var w = null`, DeclVar, "w", true},
	}

	for _, tt := range tests {
		prog := parseOK(t, tt.input)
		decl, ok := prog.Statements[0].(*VarDecl)
		if !ok {
			t.Errorf("%q: got %T", tt.input, prog.Statements[0])
			continue
		}
		if decl.Kind != tt.kind || decl.Name != tt.name || (decl.Value != nil) != tt.value {
			t.Errorf("%q: got kind=%v name=%q value=%v", tt.input, decl.Kind, decl.Name, decl.Value)
		}
	}
}

// TestParsePrecedence checks grouping through the printed form, which
// parenthesizes every binary operation.
func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a || b && c", "(a || (b && c))"},
		{"-a * b", "((-a) * b)"},
		{"!a == b", "((!a) == b)"},
		{"a is b", "(a == b)"},
		{"not a", "(!a)"},
		{"7 // 2 % 3", "((7 // 2) % 3)"},
		{"a = b = 1", "(a = (b = 1))"},
		{"x += 1 + 2", "(x += (1 + 2))"},
		{"f(1, 2)[0]", "f(1, 2)[0]"},
		{"a.b.c", "a.b.c"},
	}

	for _, tt := range tests {
		p := NewParser(tt.input)
		expr := p.ParseExpression()
		if len(p.Errors()) > 0 {
			t.Errorf("%q: %v", tt.input, p.Errors())
			continue
		}
		if got := formatExpr(expr); got != tt.want {
			t.Errorf("%q = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseCollections(t *testing.T) {
	prog := parseOK(t, `var m = {"a": 1, b: [1, 2, 3]};`)
	decl := prog.Statements[0].(*VarDecl)
	m, ok := decl.Value.(*MapLiteral)
	if !ok {
		t.Fatalf("value is %T, want *MapLiteral", decl.Value)
	}
	if len(m.Pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(m.Pairs))
	}
	if arr, ok := m.Pairs[1].Value.(*ArrayLiteral); !ok || len(arr.Elements) != 3 {
		t.Errorf("second value = %v, want a 3-element array", m.Pairs[1].Value)
	}
}

func TestParseControlFlow(t *testing.T) {
	input := `
if x > 1 {
    show "big";
} elif x > 0 {
    show "small";
} else {
    show "none";
}
while i < 3 { i = i + 1; }
for (item in items) { continue; }
for k in keys { break; }
`
	prog := parseOK(t, input)
	if len(prog.Statements) != 4 {
		t.Fatalf("got %d statements, want 4", len(prog.Statements))
	}

	ifs := prog.Statements[0].(*IfStmt)
	elif, ok := ifs.Else.Statements[0].(*IfStmt)
	if !ok {
		t.Fatalf("elif is %T, want nested *IfStmt", ifs.Else.Statements[0])
	}
	if elif.Else == nil {
		t.Errorf("elif lost its else branch")
	}
	if _, ok := prog.Statements[1].(*WhileStmt); !ok {
		t.Errorf("statement 1 is %T", prog.Statements[1])
	}
	for i, name := range []string{"item", "k"} {
		f, ok := prog.Statements[2+i].(*ForStmt)
		if !ok || f.Var != name {
			t.Errorf("statement %d = %v, want for over %s", 2+i, prog.Statements[2+i], name)
		}
	}
}

func TestParseTry(t *testing.T) {
	prog := parseOK(t, `try { throw "boom"; } catch (e) { show e; } finally { show "done"; }`)
	try, ok := prog.Statements[0].(*TryStmt)
	if !ok {
		t.Fatalf("got %T, want *TryStmt", prog.Statements[0])
	}
	if try.CatchName != "e" || try.Catch == nil || try.Finally == nil {
		t.Errorf("try = %+v", try)
	}
	if _, ok := try.Body.Statements[0].(*ThrowStmt); !ok {
		t.Errorf("body statement is %T, want *ThrowStmt", try.Body.Statements[0])
	}
}

func TestParseShowColor(t *testing.T) {
	tests := []struct {
		input string
		color string
		value string
	}{
		{`show "hi";`, "", `"hi"`},
		{`show(red) "hi";`, "red", `"hi"`},
		{`show (x);`, "", "x"},
		{`show (a + b);`, "", "(a + b)"},
		{`show str(5);`, "", "str(5)"},
		{`show(red) x + 1;`, "red", "(x + 1)"},
		{`show(red) -x;`, "red", "(-x)"},
		{`show(red) !x;`, "red", "(!x)"},
		{`show(red) [1, 2];`, "red", "[1, 2]"},
		{`show(red) (x);`, "red", "x"},
		{`show (x) + 1;`, "", "(x + 1)"},
		{`show (x) * y;`, "", "(x * y)"},
		{`show(red) # note
    x;`, "red", "x"},
	}

	for _, tt := range tests {
		prog := parseOK(t, tt.input)
		show, ok := prog.Statements[0].(*ShowStmt)
		if !ok {
			t.Errorf("%q: got %T", tt.input, prog.Statements[0])
			continue
		}
		if show.Color != tt.color || formatExpr(show.Value) != tt.value {
			t.Errorf("%q: color=%q value=%s", tt.input, show.Color, formatExpr(show.Value))
		}
	}
}

func TestParseLibraryCalls(t *testing.T) {
	prog := parseOK(t, "Math[sqrt](16);\nstrlib::upper(\"a\");\nMath.floor(2.5);")

	lc, ok := prog.Statements[0].(*ExprStmt).Expr.(*LibraryCall)
	if !ok || lc.Library != "Math" || lc.Function != "sqrt" || len(lc.Args) != 1 {
		t.Errorf("statement 0 = %v", prog.Statements[0])
	}
	ns, ok := prog.Statements[1].(*ExprStmt).Expr.(*NamespaceCall)
	if !ok || ns.Function != "upper" {
		t.Errorf("statement 1 = %v", prog.Statements[1])
	}
	call, ok := prog.Statements[2].(*ExprStmt).Expr.(*CallExpr)
	if !ok {
		t.Fatalf("statement 2 is %T", prog.Statements[2].(*ExprStmt).Expr)
	}
	if id, ok := call.Function.(*Identifier); !ok || id.Name != "Math.floor" {
		t.Errorf("callee = %v, want Math.floor", call.Function)
	}
}

func TestParseDeclarations(t *testing.T) {
	input := `
const PI = 3.14;
enum Shade { RED, GREEN = 5, BLUE }
class Point {
    var x = 0;
    fun norm() { return 0; }
}
import { sqrt, floor } from "mathutil";
use "helpers" as h;
export add;
`
	prog := parseOK(t, input)
	want := []string{"*compiler.ConstDecl", "*compiler.EnumDecl", "*compiler.ClassDecl",
		"*compiler.ImportStmt", "*compiler.ImportStmt", "*compiler.ExportStmt"}
	if len(prog.Statements) != len(want) {
		t.Fatalf("got %d statements, want %d", len(prog.Statements), len(want))
	}
	for i, s := range prog.Statements {
		if got := fmt.Sprintf("%T", s); got != want[i] {
			t.Errorf("statement %d is %s, want %s", i, got, want[i])
		}
	}

	enum := prog.Statements[1].(*EnumDecl)
	if len(enum.Members) != 3 || enum.Members[1].Value == nil {
		t.Errorf("enum members = %+v", enum.Members)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`num = 5;`, "expected IDENTIFIER"},
		{`fun f(a, a) { }`, "duplicate parameter a"},
		{`const X;`, "constant X must be initialized"},
		{`try { }`, "try requires catch or finally"},
		{`show ;`, "unexpected"},
		{`var a = 1 @ 2;`, "illegal character"},
		{`enum E { A, A }`, "duplicate enum member A"},
		{`1 + 2 = 3;`, "cannot assign to"},
	}

	for _, tt := range tests {
		_, diags := Parse(tt.input)
		if !diags.HasErrors() {
			t.Errorf("%q: expected an error", tt.input)
			continue
		}
		if !strings.Contains(diags.String(), tt.want) {
			t.Errorf("%q: diagnostics %q do not mention %q", tt.input, diags.String(), tt.want)
		}
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	prog, diags := Parse("num = 1;\nshow 2;")
	if !diags.HasErrors() {
		t.Fatal("expected an error")
	}
	last := prog.Statements[len(prog.Statements)-1]
	if _, ok := last.(*ShowStmt); !ok {
		t.Errorf("last statement is %T, want *ShowStmt", last)
	}
	if diags[0].Pos.Line != 1 {
		t.Errorf("error on line %d, want 1", diags[0].Pos.Line)
	}
}

func TestParseCommentsCollected(t *testing.T) {
	prog := parseOK(t, "# header\nshow 1;")
	if len(prog.Comments) != 1 || prog.Comments[0].Literal != "header" {
		t.Errorf("comments = %v", prog.Comments)
	}
	if len(prog.Statements) != 1 {
		t.Errorf("got %d statements, want 1", len(prog.Statements))
	}
}
