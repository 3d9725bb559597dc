package compiler

import (
	"strings"

	"github.com/chazu/razen/vm"
)

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (c *Compiler) compileStatements(stmts []Stmt) {
	for _, stmt := range stmts {
		c.compileStmt(stmt)
	}
}

func (c *Compiler) compileStmt(stmt Stmt) {
	c.line = stmt.Pos().Line

	switch s := stmt.(type) {
	case *VarDecl:
		c.compileVarDecl(s)
	case *ConstDecl:
		c.compileConstDecl(s)
	case *EnumDecl:
		c.compileEnumDecl(s)
	case *ClassDecl:
		c.compileClassDecl(s)
	case *FunctionDecl:
		var aliases []string
		if c.moduleAlias != "" && c.symbols.Current() == 0 {
			aliases = []string{c.moduleAlias + "." + s.Name}
		}
		c.symbols.Define(s.Name, DeclVar).Function = true
		c.compileFunction(s.Name, s, aliases...)
	case *ReturnStmt:
		if s.Value != nil {
			c.compileExpr(s.Value)
		} else {
			c.emitOp(vm.OpPushNull)
		}
		c.clearTries(c.tryDepth)
		c.emitOp(vm.OpReturn)
	case *ExprStmt:
		c.compileExpr(s.Expr)
		c.emitOp(vm.OpPop)
	case *BlockStmt:
		c.compileBlock(s)
	case *IfStmt:
		c.compileIf(s)
	case *WhileStmt:
		c.compileWhile(s)
	case *ForStmt:
		c.compileFor(s)
	case *BreakStmt:
		c.compileBreak(s.Pos(), "break")
	case *ContinueStmt:
		c.compileBreak(s.Pos(), "continue")
	case *ShowStmt:
		if s.Color != "" && !vm.IsColor(s.Color) {
			c.warnf(s.Pos(), KindSemantic, "unknown color %s", s.Color)
		}
		c.compileExpr(s.Value)
		c.emit(vm.Instruction{Op: vm.OpPrint, Str: s.Color})
	case *ReadStmt:
		c.emitOp(vm.OpRead)
		c.emitStore(c.declare(s.Name, DeclVar).Storage)
	case *ExitStmt:
		c.emitOp(vm.OpExit)
	case *TryStmt:
		c.compileTry(s)
	case *ThrowStmt:
		c.compileExpr(s.Value)
		c.emitOp(vm.OpThrow)
	case *ImportStmt:
		c.compileImport(s)
	case *ExportStmt:
		c.exports = append(c.exports, s)
	case *LibStmt:
		c.requireLibrary(s.Name)
	case *DocTypeStmt:
		c.prog.DocType = s.Name
	case *DebugStmt:
		c.compileExpr(s.Value)
		c.emitOp(vm.OpDebug)
	case *TraceStmt:
		c.compileExpr(s.Value)
		c.emitOp(vm.OpTrace)
	case *AssertStmt:
		c.compileAssert(s)
	case *ConstructStmt:
		c.compileConstruct(s)
	default:
		c.errorf(stmt.Pos(), "cannot compile %T", stmt)
	}
}

// declare resolves name, defining it in the current scope when nothing
// visible declares it.
func (c *Compiler) declare(name string, kind DeclKind) *Symbol {
	if sym, ok := c.symbols.Resolve(name); ok {
		return sym
	}
	return c.symbols.Define(name, kind)
}

func (c *Compiler) compileBlock(b *BlockStmt) {
	if b == nil {
		return
	}
	c.symbols.Enter(false)
	c.compileStatements(b.Statements)
	c.symbols.Leave()
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (c *Compiler) compileVarDecl(s *VarDecl) {
	if s.Value != nil {
		c.checkDecl(s.Kind, s.Name, s.Value, s.Pos())
		c.compileExpr(s.Value)
	} else {
		c.emitOp(vm.OpPushNull)
	}
	if sym, ok := c.symbols.ResolveLocal(s.Name); ok && sym.Const {
		c.errorf(s.Pos(), "cannot redeclare constant %s", s.Name)
	}
	sym := c.symbols.Define(s.Name, s.Kind)
	c.emitStore(sym.Storage)
}

func (c *Compiler) compileConstDecl(s *ConstDecl) {
	c.compileExpr(s.Value)
	if sym, ok := c.symbols.ResolveLocal(s.Name); ok && sym.Const {
		c.errorf(s.Pos(), "cannot redeclare constant %s", s.Name)
	}
	sym := c.symbols.Define(s.Name, DeclVar)
	sym.Const = true
	c.emitStore(sym.Storage)
}

// compileEnumDecl stores each member under Enum.NAME, numbered from zero or
// from the last explicit number, and the whole enum as a map under its name.
func (c *Compiler) compileEnumDecl(s *EnumDecl) {
	next := 0.0
	for _, m := range s.Members {
		full := s.Name + "." + m.Name
		switch v := m.Value.(type) {
		case nil:
			c.emitNumber(next)
			next++
		case *NumberLiteral:
			c.emitNumber(v.Value)
			next = v.Value + 1
		default:
			c.compileExpr(v)
			next++
		}
		sym := c.symbols.Define(full, DeclVar)
		sym.Const = true
		c.emitStore(sym.Storage)
	}

	for _, m := range s.Members {
		c.emitString(m.Name)
		c.emitLoad(c.symbols.StorageName(s.Name + "." + m.Name))
	}
	c.emit(vm.Instruction{Op: vm.OpMakeMap, Arg: len(s.Members)})
	sym := c.symbols.Define(s.Name, DeclVar)
	sym.Const = true
	c.emitStore(sym.Storage)
}

// compileClassDecl stores fields as Class.field and compiles methods as the
// functions Class.method. The class itself is a descriptor map.
func (c *Compiler) compileClassDecl(s *ClassDecl) {
	var fields, methods []string
	for _, member := range s.Body.Statements {
		c.line = member.Pos().Line
		switch m := member.(type) {
		case *VarDecl:
			full := s.Name + "." + m.Name
			if m.Value != nil {
				c.checkDecl(m.Kind, full, m.Value, m.Pos())
				c.compileExpr(m.Value)
			} else {
				c.emitOp(vm.OpPushNull)
			}
			c.emitStore(c.symbols.Define(full, m.Kind).Storage)
			fields = append(fields, m.Name)
		case *ConstDecl:
			full := s.Name + "." + m.Name
			c.compileExpr(m.Value)
			sym := c.symbols.Define(full, DeclVar)
			sym.Const = true
			c.emitStore(sym.Storage)
			fields = append(fields, m.Name)
		case *FunctionDecl:
			full := s.Name + "." + m.Name
			c.symbols.Define(full, DeclVar).Function = true
			c.compileFunction(full, m)
			methods = append(methods, m.Name)
		default:
			c.errorf(member.Pos(), "class %s may only contain declarations", s.Name)
		}
	}

	c.emitString("class")
	c.emitString(s.Name)
	c.emitString("fields")
	c.emitStrings(fields)
	c.emitString("methods")
	c.emitStrings(methods)
	c.emit(vm.Instruction{Op: vm.OpMakeMap, Arg: 3})
	c.emitStore(c.symbols.Define(s.Name, DeclVar).Storage)
}

func (c *Compiler) emitStrings(items []string) {
	for _, item := range items {
		c.emitString(item)
	}
	c.emit(vm.Instruction{Op: vm.OpMakeArray, Arg: len(items)})
}

// compileConstruct stores a compiler-construction declaration as a
// descriptor map under its name. Block bodies run in their own scope first.
func (c *Compiler) compileConstruct(s *ConstructStmt) {
	if s.Body != nil {
		c.compileBlock(s.Body)
	}

	pairs := 2
	c.emitString("kind")
	c.emitString(s.Kind.String())
	c.emitString("name")
	c.emitString(s.Name)
	if s.Value != nil {
		c.emitString("value")
		c.compileExpr(s.Value)
		pairs++
	}
	if s.Fields != nil {
		c.emitString("fields")
		c.emitStrings(s.Fields)
		pairs++
	}
	c.emit(vm.Instruction{Op: vm.OpMakeMap, Arg: pairs})
	c.emitStore(c.symbols.Define(s.Name, DeclVar).Storage)
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

func (c *Compiler) compileIf(s *IfStmt) {
	c.compileExpr(s.Cond)
	jf := c.emitJump(vm.OpJumpIfFalse)
	c.compileBlock(s.Then)
	if s.Else == nil {
		c.patch(jf)
		return
	}
	end := c.emitJump(vm.OpJump)
	c.patch(jf)
	c.compileBlock(s.Else)
	c.patch(end)
}

func (c *Compiler) pushLoop() *loopContext {
	loop := &loopContext{tryDepth: c.tryDepth}
	c.loops = append(c.loops, loop)
	return loop
}

// popLoop patches the loop's pending jumps: breaks to the next instruction,
// continues to cont.
func (c *Compiler) popLoop(cont int) {
	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	for _, addr := range loop.breaks {
		c.patch(addr)
	}
	for _, addr := range loop.continues {
		c.patchTo(addr, cont)
	}
}

func (c *Compiler) compileWhile(s *WhileStmt) {
	start := len(c.code)
	c.compileExpr(s.Cond)
	jf := c.emitJump(vm.OpJumpIfFalse)

	c.pushLoop()
	c.compileBlock(s.Body)
	c.emit(vm.Instruction{Op: vm.OpJump, Arg: start})
	c.patch(jf)
	c.popLoop(start)
}

// compileFor lowers for (x in e) to an indexed loop over Iterable(e).
func (c *Compiler) compileFor(s *ForStmt) {
	iter := c.tmp("iter")
	idx := c.tmp("idx")

	c.compileExpr(s.Iterable)
	c.emitOp(vm.OpIterable)
	c.emitStore(iter)
	c.emitNumber(0)
	c.emitStore(idx)

	c.symbols.Enter(false)
	sym := c.symbols.Define(s.Var, DeclVar)

	start := len(c.code)
	c.emitLoad(idx)
	c.emitLoad(iter)
	c.emitOp(vm.OpLen)
	c.emitOp(vm.OpLt)
	jf := c.emitJump(vm.OpJumpIfFalse)

	c.emitLoad(iter)
	c.emitLoad(idx)
	c.emitOp(vm.OpGetIndex)
	c.emitStore(sym.Storage)

	c.pushLoop()
	c.compileBlock(s.Body)

	cont := len(c.code)
	c.emitLoad(idx)
	c.emitNumber(1)
	c.emitOp(vm.OpAdd)
	c.emitStore(idx)
	c.emit(vm.Instruction{Op: vm.OpJump, Arg: start})
	c.patch(jf)
	c.popLoop(cont)

	c.symbols.Leave()
}

func (c *Compiler) compileBreak(pos Position, keyword string) {
	if len(c.loops) == 0 {
		c.errorf(pos, "%s outside of a loop", keyword)
		return
	}
	loop := c.loops[len(c.loops)-1]
	c.clearTries(c.tryDepth - loop.tryDepth)
	addr := c.emitJump(vm.OpJump)
	if keyword == "break" {
		loop.breaks = append(loop.breaks, addr)
	} else {
		loop.continues = append(loop.continues, addr)
	}
}

func (c *Compiler) clearTries(n int) {
	for i := 0; i < n; i++ {
		c.emitOp(vm.OpClearTry)
	}
}

// ---------------------------------------------------------------------------
// Exceptions
// ---------------------------------------------------------------------------

// compileTry emits:
//
//	SETUP_TRY catch_N
//	<body>
//	CLEAR_TRY
//	JUMP finally
//	catch_N:
//	STORE_VAR name | POP
//	<catch>
//	finally:
//	<finally>
//
// Without a catch block the thrown value is kept in a hidden variable and
// thrown again after the finally block.
func (c *Compiler) compileTry(s *TryStmt) {
	label := c.newLabel("catch")
	c.emit(vm.Instruction{Op: vm.OpSetupTry, Str: label})

	c.tryDepth++
	c.compileBlock(s.Body)
	c.tryDepth--

	c.emitOp(vm.OpClearTry)
	done := c.emitJump(vm.OpJump)
	c.placeLabel(label)

	if s.Catch != nil {
		c.symbols.Enter(false)
		if s.CatchName != "" {
			c.emitStore(c.symbols.Define(s.CatchName, DeclVar).Storage)
		} else {
			c.emitOp(vm.OpPop)
		}
		c.compileStatements(s.Catch.Statements)
		c.symbols.Leave()
		c.patch(done)
		c.compileBlock(s.Finally)
		return
	}

	pending := c.tmp("pending")
	c.emitStore(pending)
	toFinally := c.emitJump(vm.OpJump)
	c.patch(done)
	c.emitOp(vm.OpPushNull)
	c.emitStore(pending)
	c.patch(toFinally)

	c.compileBlock(s.Finally)

	c.emitLoad(pending)
	c.emitOp(vm.OpPushNull)
	c.emitOp(vm.OpEq)
	skip := c.emitJump(vm.OpJumpIfTrue)
	c.emitLoad(pending)
	c.emitOp(vm.OpThrow)
	c.patch(skip)
}

func (c *Compiler) compileAssert(s *AssertStmt) {
	c.compileExpr(s.Cond)
	ok := c.emitJump(vm.OpJumpIfTrue)
	if s.Message != nil {
		c.compileExpr(s.Message)
	} else {
		c.emitString("Assertion failed")
	}
	c.emitOp(vm.OpThrow)
	c.patch(ok)
}

// ---------------------------------------------------------------------------
// Modules and libraries
// ---------------------------------------------------------------------------

func (c *Compiler) requireLibrary(name string) {
	name = c.library(name)
	for _, lib := range c.prog.Libraries {
		if strings.EqualFold(lib, name) {
			return
		}
	}
	c.prog.Libraries = append(c.prog.Libraries, name)
}

// compileImport handles use and import. Library imports with an alias
// record the alias; imports of a source inline the module's declarations
// the first time the module is seen.
func (c *Compiler) compileImport(s *ImportStmt) {
	if s.Source == "" {
		if s.Alias != "" && len(s.Names) == 1 {
			c.aliases[s.Alias] = c.library(s.Names[0])
		}
		return
	}

	if c.resolver == nil {
		c.warnf(s.Pos(), KindSemantic, "%s %q ignored: no module resolver", s.Keyword, s.Source)
		return
	}
	if c.inlined[s.Source] {
		return
	}
	c.inlined[s.Source] = true

	mod := c.loadModule(s.Source, s.Pos())
	if mod == nil {
		return
	}

	savedScope, savedAlias, savedLine := c.symbols.current, c.moduleAlias, c.line
	c.symbols.current = 0
	c.moduleAlias = s.Alias
	c.compileStatements(mod.Statements)
	c.symbols.current, c.moduleAlias, c.line = savedScope, savedAlias, savedLine

	for _, name := range s.Names {
		if c.functions[name] {
			continue
		}
		if _, ok := c.symbols.Resolve(name); !ok {
			c.warnf(s.Pos(), KindSemantic, "module %q does not declare %s", s.Source, name)
		}
	}
}
