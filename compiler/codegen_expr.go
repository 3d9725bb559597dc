package compiler

import (
	"strings"

	"github.com/chazu/razen/vm"
)

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var binaryOps = map[string]vm.Opcode{
	"+":  vm.OpAdd,
	"-":  vm.OpSub,
	"*":  vm.OpMul,
	"/":  vm.OpDiv,
	"%":  vm.OpMod,
	"**": vm.OpPow,
	"//": vm.OpFloorDiv,
	"==": vm.OpEq,
	"!=": vm.OpNe,
	"<":  vm.OpLt,
	"<=": vm.OpLe,
	">":  vm.OpGt,
	">=": vm.OpGe,
	"&&": vm.OpAnd,
	"||": vm.OpOr,
}

// compoundOps maps compound assignment operators to their arithmetic op.
var compoundOps = map[string]vm.Opcode{
	"+=": vm.OpAdd,
	"-=": vm.OpSub,
	"*=": vm.OpMul,
	"/=": vm.OpDiv,
	"%=": vm.OpMod,
}

// compileExpr emits code leaving exactly one value on the stack.
func (c *Compiler) compileExpr(expr Expr) {
	switch e := expr.(type) {
	case *NumberLiteral:
		c.emitNumber(e.Value)
	case *StringLiteral:
		c.emitString(e.Value)
	case *BooleanLiteral:
		arg := 0
		if e.Value {
			arg = 1
		}
		c.emit(vm.Instruction{Op: vm.OpPushBool, Arg: arg})
	case *NullLiteral:
		c.emitOp(vm.OpPushNull)
	case *Identifier:
		c.compileLoad(e.Name)
	case *PrefixExpr:
		c.compilePrefix(e)
	case *InfixExpr:
		op, ok := binaryOps[e.Operator]
		if !ok {
			c.errorf(e.Pos(), "unknown operator %s", e.Operator)
			c.emitOp(vm.OpPushNull)
			return
		}
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.emitOp(op)
	case *AssignExpr:
		c.compileAssign(e)
	case *CallExpr:
		c.compileCall(e)
	case *ArrayLiteral:
		for _, elem := range e.Elements {
			c.compileExpr(elem)
		}
		c.emit(vm.Instruction{Op: vm.OpMakeArray, Arg: len(e.Elements)})
	case *MapLiteral:
		for _, pair := range e.Pairs {
			c.compileExpr(pair.Key)
			c.compileExpr(pair.Value)
		}
		c.emit(vm.Instruction{Op: vm.OpMakeMap, Arg: len(e.Pairs)})
	case *IndexExpr:
		c.compileExpr(e.Left)
		c.compileExpr(e.Index)
		c.emitOp(vm.OpGetIndex)
	case *LibraryCall:
		c.compileLibCall(e.Library, e.Function, e.Args)
	case *NamespaceCall:
		c.compileLibCall(e.Namespace, e.Function, e.Args)
	default:
		c.errorf(expr.Pos(), "cannot compile %T", expr)
		c.emitOp(vm.OpPushNull)
	}
}

func (c *Compiler) compilePrefix(e *PrefixExpr) {
	switch e.Operator {
	case "-":
		if lit, ok := e.Right.(*NumberLiteral); ok {
			c.emitNumber(-lit.Value)
			return
		}
		c.compileExpr(e.Right)
		c.emitOp(vm.OpNeg)
	case "!":
		c.compileExpr(e.Right)
		c.emitOp(vm.OpNot)
	default:
		c.errorf(e.Pos(), "unknown prefix operator %s", e.Operator)
		c.emitOp(vm.OpPushNull)
	}
}

// compileLoad pushes a variable. A dotted name that nothing declares is
// read as a member path when its first segment is a declared variable:
// a.b.c loads a and indexes it with "b" then "c".
func (c *Compiler) compileLoad(name string) {
	if sym, ok := c.symbols.Resolve(name); ok {
		c.emitLoad(sym.Storage)
		return
	}
	if c.functions[name] {
		c.emitLoad(name)
		return
	}
	if base, path, ok := c.memberPath(name); ok {
		c.emitLoad(base.Storage)
		for _, seg := range path {
			c.emitString(seg)
			c.emitOp(vm.OpGetIndex)
		}
		return
	}
	c.emitLoad(name)
}

// memberPath splits a dotted name whose first segment is a declared
// variable into that variable and the remaining segments.
func (c *Compiler) memberPath(name string) (*Symbol, []string, bool) {
	if !strings.Contains(name, ".") {
		return nil, nil, false
	}
	segs := strings.Split(name, ".")
	sym, ok := c.symbols.Resolve(segs[0])
	if !ok || sym.Function {
		return nil, nil, false
	}
	return sym, segs[1:], true
}

// ---------------------------------------------------------------------------
// Assignment
// ---------------------------------------------------------------------------

// compileAssign emits an assignment. The assigned value is left on the stack.
func (c *Compiler) compileAssign(e *AssignExpr) {
	op, compound := compoundOps[e.Operator]
	if !compound && e.Operator != "=" {
		c.errorf(e.Pos(), "unknown assignment operator %s", e.Operator)
		c.emitOp(vm.OpPushNull)
		return
	}

	switch t := e.Target.(type) {
	case *Identifier:
		if _, declared := c.symbols.Resolve(t.Name); !declared {
			if base, path, ok := c.memberPath(t.Name); ok {
				keys := make([]Expr, len(path))
				for i, seg := range path {
					keys[i] = &StringLiteral{PosVal: t.PosVal, Value: seg}
				}
				c.compileIndexAssign(e, base, keys, op, compound)
				return
			}
		}
		sym := c.declare(t.Name, DeclVar)
		if sym.Const {
			c.errorf(e.Pos(), "cannot assign to constant %s", t.Name)
		}
		if compound {
			c.emitLoad(sym.Storage)
			c.compileExpr(e.Value)
			c.emitOp(op)
		} else {
			c.checkAssign(sym, e.Value, e.Pos())
			c.compileExpr(e.Value)
		}
		c.emitOp(vm.OpDup)
		c.emitStore(sym.Storage)

	case *IndexExpr:
		base, keys, ok := c.indexChain(t)
		if !ok {
			c.errorf(e.Pos(), "cannot assign to %s", e.Target)
			c.emitOp(vm.OpPushNull)
			return
		}
		c.compileIndexAssign(e, base, keys, op, compound)

	default:
		c.errorf(e.Pos(), "cannot assign to %s", e.Target)
		c.emitOp(vm.OpPushNull)
	}
}

// indexChain flattens a[i][j] into the variable a and keys [i, j].
func (c *Compiler) indexChain(e *IndexExpr) (*Symbol, []Expr, bool) {
	var keys []Expr
	var cur Expr = e
	for {
		switch n := cur.(type) {
		case *IndexExpr:
			keys = append([]Expr{n.Index}, keys...)
			cur = n.Left
		case *Identifier:
			if _, declared := c.symbols.Resolve(n.Name); !declared {
				if base, path, ok := c.memberPath(n.Name); ok {
					prefix := make([]Expr, len(path))
					for i, seg := range path {
						prefix[i] = &StringLiteral{PosVal: n.PosVal, Value: seg}
					}
					return base, append(prefix, keys...), true
				}
			}
			return c.declare(n.Name, DeclVar), keys, true
		default:
			return nil, nil, false
		}
	}
}

// compileIndexAssign writes value into base[k0][k1]...[kn] and stores the
// rebuilt collection back into base. Collections are values, so every
// level on the path is copied and set in turn:
//
//	c0 = base; c1 = c0[k0]; ... cn = c(n-1)[k(n-1)]
//	cn' = set(cn, kn, value); ... c0' = set(c0, k0, c1')
//	base = c0'
func (c *Compiler) compileIndexAssign(e *AssignExpr, base *Symbol, keys []Expr, op vm.Opcode, compound bool) {
	if base.Const {
		c.errorf(e.Pos(), "cannot assign to constant %s", base.Name)
	}

	keyVars := make([]string, len(keys))
	for i, k := range keys {
		keyVars[i] = c.tmp("key")
		c.compileExpr(k)
		c.emitStore(keyVars[i])
	}

	value := c.tmp("value")
	if compound {
		c.emitLoad(base.Storage)
		for _, k := range keyVars {
			c.emitLoad(k)
			c.emitOp(vm.OpGetIndex)
		}
		c.compileExpr(e.Value)
		c.emitOp(op)
	} else {
		c.compileExpr(e.Value)
	}
	c.emitStore(value)

	last := len(keyVars) - 1
	c.emitLoad(base.Storage)
	for _, k := range keyVars[:last] {
		c.emitOp(vm.OpDup)
		c.emitLoad(k)
		c.emitOp(vm.OpGetIndex)
	}
	c.emitLoad(keyVars[last])
	c.emitLoad(value)
	c.emitOp(vm.OpSetIndex)
	for i := last - 1; i >= 0; i-- {
		c.emitLoad(keyVars[i])
		c.emitOp(vm.OpSwap)
		c.emitOp(vm.OpSetIndex)
	}
	c.emitStore(base.Storage)
	c.emitLoad(value)
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

func (c *Compiler) compileArgs(args []Expr) {
	for _, arg := range args {
		c.compileExpr(arg)
	}
}

// compileCall emits a call. Names in the function table and plain names
// are called directly; other dotted names are library calls. Any other
// callee is evaluated into a hidden variable first.
func (c *Compiler) compileCall(e *CallExpr) {
	id, ok := e.Function.(*Identifier)
	if !ok {
		callee := c.tmp("fn")
		c.compileExpr(e.Function)
		c.emitStore(callee)
		c.compileArgs(e.Args)
		c.emit(vm.Instruction{Op: vm.OpCall, Str: callee, Arg: len(e.Args)})
		return
	}

	name := id.Name
	switch {
	case c.functions[name]:
		c.compileArgs(e.Args)
		c.emit(vm.Instruction{Op: vm.OpCall, Str: name, Arg: len(e.Args)})
	case name == "sleep" && len(e.Args) == 1:
		c.compileExpr(e.Args[0])
		c.emitOp(vm.OpSleep)
	case strings.Contains(name, "."):
		lib, fn, _ := strings.Cut(name, ".")
		c.compileLibCall(lib, fn, e.Args)
	default:
		c.compileArgs(e.Args)
		c.emit(vm.Instruction{Op: vm.OpCall, Str: c.symbols.StorageName(name), Arg: len(e.Args)})
	}
}

func (c *Compiler) compileLibCall(lib, fn string, args []Expr) {
	lib = c.library(lib)
	c.compileArgs(args)
	c.emit(vm.Instruction{Op: vm.OpLibCall, Str: lib, Name: lib + "." + fn, Arg: len(args)})
}
