package compiler

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Printer: re-serializes an AST to source text
// ---------------------------------------------------------------------------

// Format renders a program as source text. Parsing the result yields a
// structurally equal program.
func Format(prog *Program) string {
	return formatProgram(prog)
}

const indentUnit = "    "

type printer struct {
	sb     strings.Builder
	indent int
}

func formatProgram(prog *Program) string {
	var pr printer
	for _, s := range prog.Statements {
		pr.stmt(s)
	}
	return pr.sb.String()
}

func formatStmt(s Stmt) string {
	var pr printer
	pr.stmt(s)
	return strings.TrimSuffix(pr.sb.String(), "\n")
}

func formatExpr(e Expr) string {
	return exprString(e)
}

func (pr *printer) line(parts ...string) {
	pr.sb.WriteString(strings.Repeat(indentUnit, pr.indent))
	for _, p := range parts {
		pr.sb.WriteString(p)
	}
	pr.sb.WriteByte('\n')
}

// open writes a line ending in " {" and indents.
func (pr *printer) open(parts ...string) {
	pr.line(append(parts, " {")...)
	pr.indent++
}

// close dedents and writes "}" followed by suffix.
func (pr *printer) close(suffix string) {
	pr.indent--
	pr.line("}", suffix)
}

func (pr *printer) body(b *BlockStmt) {
	if b == nil {
		return
	}
	for _, s := range b.Statements {
		pr.stmt(s)
	}
}

func (pr *printer) stmt(s Stmt) {
	switch n := s.(type) {
	case *VarDecl:
		if n.Value == nil {
			pr.line(n.Kind.String(), " ", n.Name, ";")
		} else {
			pr.line(n.Kind.String(), " ", n.Name, " = ", exprString(n.Value), ";")
		}
	case *ConstDecl:
		pr.line("const ", n.Name, " = ", exprString(n.Value), ";")
	case *EnumDecl:
		members := make([]string, len(n.Members))
		for i, m := range n.Members {
			members[i] = m.Name
			if m.Value != nil {
				members[i] += " = " + exprString(m.Value)
			}
		}
		pr.line("enum ", n.Name, " { ", strings.Join(members, ", "), " }")
	case *ClassDecl:
		pr.open("class ", n.Name)
		pr.body(n.Body)
		pr.close("")
	case *FunctionDecl:
		pr.open("fun ", n.Name, "(", strings.Join(n.Params, ", "), ")")
		pr.body(n.Body)
		pr.close("")
	case *ReturnStmt:
		if n.Value == nil {
			pr.line("return;")
		} else {
			pr.line("return ", exprString(n.Value), ";")
		}
	case *ExprStmt:
		pr.line(stmtExprString(n.Expr), ";")
	case *BlockStmt:
		pr.line("{")
		pr.indent++
		pr.body(n)
		pr.close("")
	case *IfStmt:
		pr.ifChain(n, "")
	case *WhileStmt:
		pr.open("while ", exprString(n.Cond))
		pr.body(n.Body)
		pr.close("")
	case *ForStmt:
		pr.open("for (", n.Var, " in ", exprString(n.Iterable), ")")
		pr.body(n.Body)
		pr.close("")
	case *BreakStmt:
		pr.line("break;")
	case *ContinueStmt:
		pr.line("continue;")
	case *ShowStmt:
		if n.Color != "" {
			pr.line("show(", n.Color, ") ", exprString(n.Value), ";")
		} else {
			pr.line("show ", exprString(n.Value), ";")
		}
	case *ReadStmt:
		pr.line("read ", n.Name, ";")
	case *ExitStmt:
		pr.line("exit;")
	case *TryStmt:
		pr.tryStmt(n)
	case *ThrowStmt:
		pr.line("throw ", exprString(n.Value), ";")
	case *ImportStmt:
		pr.line(importString(n), ";")
	case *ExportStmt:
		pr.line("export ", strings.Join(n.Names, ", "), ";")
	case *LibStmt:
		pr.line("lib ", n.Name, ";")
	case *DocTypeStmt:
		pr.line("type ", n.Name, ";")
	case *DebugStmt:
		pr.line("debug ", exprString(n.Value), ";")
	case *TraceStmt:
		pr.line("trace ", exprString(n.Value), ";")
	case *AssertStmt:
		if n.Message != nil {
			pr.line("assert(", exprString(n.Cond), ", ", exprString(n.Message), ");")
		} else {
			pr.line("assert(", exprString(n.Cond), ");")
		}
	case *ConstructStmt:
		kw := n.Kind.String()
		switch {
		case n.Value != nil:
			pr.line(kw, " ", n.Name, " = ", exprString(n.Value), ";")
		case n.Body != nil:
			pr.open(kw, " ", n.Name)
			pr.body(n.Body)
			pr.close("")
		default:
			pr.line(kw, " ", n.Name, " { ", strings.Join(n.Fields, ", "), " }")
		}
	}
}

// ifChain prints an if statement; an else block holding a lone if is
// printed as "else if".
func (pr *printer) ifChain(n *IfStmt, prefix string) {
	pr.open(prefix, "if ", exprString(n.Cond))
	pr.body(n.Then)
	if n.Else == nil {
		pr.close("")
		return
	}
	if len(n.Else.Statements) == 1 {
		if nested, ok := n.Else.Statements[0].(*IfStmt); ok {
			pr.indent--
			pr.ifChain(nested, "} else ")
			return
		}
	}
	pr.indent--
	pr.open("} else")
	pr.body(n.Else)
	pr.close("")
}

func (pr *printer) tryStmt(n *TryStmt) {
	pr.open("try")
	pr.body(n.Body)
	pr.indent--
	if n.Catch != nil {
		if n.CatchName != "" {
			pr.open("} catch (", n.CatchName, ")")
		} else {
			pr.open("} catch")
		}
		pr.body(n.Catch)
		pr.indent--
	}
	if n.Finally != nil {
		pr.open("} finally")
		pr.body(n.Finally)
		pr.indent--
	}
	pr.line("}")
}

func importString(n *ImportStmt) string {
	var sb strings.Builder
	sb.WriteString(n.Keyword)
	switch {
	case n.Keyword == "import" && len(n.Names) > 0 && n.Source != "":
		sb.WriteString(" { " + strings.Join(n.Names, ", ") + " } from " + quote(n.Source))
		if n.Alias != "" {
			sb.WriteString(" as " + n.Alias)
		}
		return sb.String()
	case len(n.Names) > 0:
		sb.WriteString(" " + strings.Join(n.Names, ", "))
	default:
		sb.WriteString(" " + quote(n.Source))
	}
	if n.Alias != "" {
		sb.WriteString(" as " + n.Alias)
	}
	if len(n.Names) > 0 && n.Source != "" {
		sb.WriteString(" from " + quote(n.Source))
	}
	return sb.String()
}

// stmtExprString prints an expression in statement position. Assignments
// drop their parentheses; a leading map literal is wrapped so it is not
// read back as a block.
func stmtExprString(e Expr) string {
	switch n := e.(type) {
	case *AssignExpr:
		return exprString(n.Target) + " " + n.Operator + " " + exprString(n.Value)
	case *MapLiteral:
		return "(" + exprString(n) + ")"
	}
	return exprString(e)
}

func exprString(e Expr) string {
	switch n := e.(type) {
	case nil:
		return ""
	case *Identifier:
		return n.Name
	case *NumberLiteral:
		return strconv.FormatFloat(n.Value, 'f', -1, 64)
	case *StringLiteral:
		return quote(n.Value)
	case *BooleanLiteral:
		if n.Value {
			return "true"
		}
		return "false"
	case *NullLiteral:
		return "null"
	case *PrefixExpr:
		return "(" + n.Operator + exprString(n.Right) + ")"
	case *InfixExpr:
		return "(" + exprString(n.Left) + " " + n.Operator + " " + exprString(n.Right) + ")"
	case *AssignExpr:
		return "(" + exprString(n.Target) + " " + n.Operator + " " + exprString(n.Value) + ")"
	case *CallExpr:
		return exprString(n.Function) + "(" + exprList(n.Args) + ")"
	case *ArrayLiteral:
		return "[" + exprList(n.Elements) + "]"
	case *MapLiteral:
		pairs := make([]string, len(n.Pairs))
		for i, pair := range n.Pairs {
			pairs[i] = exprString(pair.Key) + ": " + exprString(pair.Value)
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	case *IndexExpr:
		return exprString(n.Left) + "[" + exprString(n.Index) + "]"
	case *LibraryCall:
		return n.Library + "[" + nameOrQuote(n.Function) + "](" + exprList(n.Args) + ")"
	case *NamespaceCall:
		return n.Namespace + "::" + n.Function + "(" + exprList(n.Args) + ")"
	}
	return ""
}

func exprList(list []Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = exprString(e)
	}
	return strings.Join(parts, ", ")
}

func nameOrQuote(s string) string {
	if s != "" && LookupIdent(s) == TokenIdentifier && isNameToken(Token{Type: TokenIdentifier, Literal: s}) {
		for _, r := range s {
			if !isLetter(r) && !isDigit(r) {
				return quote(s)
			}
		}
		return s
	}
	return quote(s)
}

var quoteReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

// quote renders s as a string literal the lexer reads back unchanged.
func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
