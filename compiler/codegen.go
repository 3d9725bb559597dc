package compiler

import (
	"fmt"

	"github.com/chazu/razen/vm"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Codegen: Compile AST to IR
// ---------------------------------------------------------------------------

// Compiler compiles a parsed program to an IR program.
type Compiler struct {
	resolver ModuleResolver
	aliases  map[string]string // library alias -> library
	name     string
	log      commonlog.Logger

	// Current compilation state
	code      []vm.Instruction
	labels    map[string]int
	functions map[string]bool
	symbols   *SymbolTable
	prog      *vm.Program
	diags     Diagnostics
	line      int
	labelSeq  int
	tmpSeq    int

	loops    []*loopContext
	tryDepth int

	// Modules
	modules     map[string]*Program // parsed modules by path
	collected   map[string]bool     // modules whose functions pass 1 has seen
	inlined     map[string]bool     // modules whose declarations pass 2 emitted
	moduleAlias string              // alias of the module being inlined

	exports []*ExportStmt
}

// loopContext tracks the pending jumps of one enclosing loop.
type loopContext struct {
	breaks    []int
	continues []int
	tryDepth  int
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithModuleResolver sets how import and use statements find module source.
// Without a resolver imports of files are ignored with a warning.
func WithModuleResolver(r ModuleResolver) Option {
	return func(c *Compiler) { c.resolver = r }
}

// WithLibraryAliases predefines library aliases, as if by use Lib as alias.
func WithLibraryAliases(aliases map[string]string) Option {
	return func(c *Compiler) {
		for alias, lib := range aliases {
			c.aliases[alias] = lib
		}
	}
}

// WithName sets the name recorded on compiled programs.
func WithName(name string) Option {
	return func(c *Compiler) { c.name = name }
}

// NewCompiler creates a new compiler.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		aliases: map[string]string{},
		log:     commonlog.GetLogger("razen.compiler"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles prog in two passes. The first registers every function
// so calls may precede definitions; the second emits instructions. The
// returned program is usable only when the diagnostics hold no errors.
func (c *Compiler) Compile(prog *Program) (*vm.Program, Diagnostics) {
	c.reset()

	c.collectFunctions(prog.Statements)
	c.compileStatements(prog.Statements)
	c.checkExports()
	c.resolveLabels()

	c.prog.Instructions = c.code
	c.prog.Labels = c.labels
	c.log.Debugf("compiled %d statements to %d instructions", len(prog.Statements), len(c.code))
	return c.prog, c.diags
}

func (c *Compiler) reset() {
	c.code = nil
	c.labels = map[string]int{}
	c.functions = map[string]bool{}
	c.symbols = NewSymbolTable()
	c.prog = &vm.Program{Functions: map[string]int{}, Name: c.name}
	c.diags = nil
	c.line = 0
	c.labelSeq = 0
	c.tmpSeq = 0
	c.loops = nil
	c.tryDepth = 0
	c.modules = map[string]*Program{}
	c.collected = map[string]bool{}
	c.inlined = map[string]bool{}
	c.moduleAlias = ""
	c.exports = nil
}

// CompileSource parses and compiles src. The error is non-nil only when a
// diagnostic of error severity was recorded; warnings are returned either way.
func CompileSource(src string, opts ...Option) (*vm.Program, Diagnostics, error) {
	ast, diags := Parse(src)
	if diags.HasErrors() {
		return nil, diags, diags.Err()
	}
	prog, cdiags := NewCompiler(opts...).Compile(ast)
	diags = append(diags, cdiags...)
	if diags.HasErrors() {
		return nil, diags, diags.Err()
	}
	return prog, diags, nil
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func (c *Compiler) errorf(pos Position, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Severity: SeverityError,
		Kind:     KindSemantic,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *Compiler) warnf(pos Position, kind DiagnosticKind, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Severity: SeverityWarning,
		Kind:     kind,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ---------------------------------------------------------------------------
// Emission helpers
// ---------------------------------------------------------------------------

func (c *Compiler) emit(in vm.Instruction) int {
	in.Line = c.line
	c.code = append(c.code, in)
	return len(c.code) - 1
}

func (c *Compiler) emitOp(op vm.Opcode) int {
	return c.emit(vm.Instruction{Op: op})
}

func (c *Compiler) emitLoad(name string) {
	c.emit(vm.Instruction{Op: vm.OpLoadVar, Str: name})
}

func (c *Compiler) emitStore(name string) {
	c.emit(vm.Instruction{Op: vm.OpStoreVar, Str: name})
}

func (c *Compiler) emitString(s string) {
	c.emit(vm.Instruction{Op: vm.OpPushString, Str: s})
}

func (c *Compiler) emitNumber(n float64) {
	c.emit(vm.Instruction{Op: vm.OpPushNumber, Num: n})
}

// emitJump emits a jump whose target is patched later.
func (c *Compiler) emitJump(op vm.Opcode) int {
	return c.emit(vm.Instruction{Op: op, Arg: -1})
}

// patch points the jump at addr to the next instruction.
func (c *Compiler) patch(addr int) {
	c.code[addr].Arg = len(c.code)
}

func (c *Compiler) patchTo(addr, target int) {
	c.code[addr].Arg = target
}

func (c *Compiler) newLabel(prefix string) string {
	c.labelSeq++
	return fmt.Sprintf("%s_%d", prefix, c.labelSeq)
}

// placeLabel emits a label marker and records its address.
func (c *Compiler) placeLabel(name string) int {
	addr := c.emit(vm.Instruction{Op: vm.OpLabel, Str: name})
	c.labels[name] = addr
	return addr
}

// tmp returns a fresh hidden variable name. The $ prefix cannot appear in
// source identifiers.
func (c *Compiler) tmp(prefix string) string {
	c.tmpSeq++
	return fmt.Sprintf("$%s%d", prefix, c.tmpSeq)
}

// resolveLabels gives every SetupTry the address of its label.
func (c *Compiler) resolveLabels() {
	for i := range c.code {
		if c.code[i].Op != vm.OpSetupTry {
			continue
		}
		if addr, ok := c.labels[c.code[i].Str]; ok {
			c.code[i].Arg = addr
		}
	}
}

// library maps a library name or alias to the library name.
func (c *Compiler) library(name string) string {
	if lib, ok := c.aliases[name]; ok {
		return lib
	}
	return name
}

// ---------------------------------------------------------------------------
// Pass 1: function table
// ---------------------------------------------------------------------------

func (c *Compiler) collectFunctions(stmts []Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *FunctionDecl:
			c.functions[s.Name] = true
			c.collectFunctions(s.Body.Statements)
		case *ClassDecl:
			for _, member := range s.Body.Statements {
				if fn, ok := member.(*FunctionDecl); ok {
					c.functions[s.Name+"."+fn.Name] = true
				}
			}
		case *ImportStmt:
			c.collectModule(s)
		case *BlockStmt:
			c.collectFunctions(s.Statements)
		case *IfStmt:
			c.collectBlock(s.Then)
			c.collectBlock(s.Else)
		case *WhileStmt:
			c.collectBlock(s.Body)
		case *ForStmt:
			c.collectBlock(s.Body)
		case *TryStmt:
			c.collectBlock(s.Body)
			c.collectBlock(s.Catch)
			c.collectBlock(s.Finally)
		}
	}
}

func (c *Compiler) collectBlock(b *BlockStmt) {
	if b != nil {
		c.collectFunctions(b.Statements)
	}
}

func (c *Compiler) collectModule(s *ImportStmt) {
	if s.Source == "" || c.resolver == nil || c.collected[s.Source] {
		return
	}
	c.collected[s.Source] = true
	mod := c.loadModule(s.Source, s.Pos())
	if mod == nil {
		return
	}
	c.collectFunctions(mod.Statements)
	if s.Alias == "" {
		return
	}
	for _, stmt := range mod.Statements {
		if fn, ok := stmt.(*FunctionDecl); ok {
			c.functions[s.Alias+"."+fn.Name] = true
		}
	}
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

// compileFunction emits a function: a jump over the body, the entry label,
// the DefineFunction marker, parameter binding and the body. aliases get
// extra markers for the same entry.
func (c *Compiler) compileFunction(name string, fn *FunctionDecl, aliases ...string) {
	skip := c.emitJump(vm.OpJump)
	entry := c.placeLabel("fn_" + name)
	c.emit(vm.Instruction{Op: vm.OpDefineFunction, Str: name, Arg: entry, Params: fn.Params})
	c.prog.Functions[name] = entry
	for _, alias := range aliases {
		c.emit(vm.Instruction{Op: vm.OpDefineFunction, Str: alias, Arg: entry, Params: fn.Params})
		c.prog.Functions[alias] = entry
	}

	savedLoops, savedTry := c.loops, c.tryDepth
	c.loops, c.tryDepth = nil, 0
	c.symbols.Enter(true)

	for _, p := range fn.Params {
		c.symbols.Define(p, DeclVar)
	}
	for i := len(fn.Params) - 1; i >= 0; i-- {
		c.emitStore(c.symbols.StorageName(fn.Params[i]))
	}

	c.compileStatements(fn.Body.Statements)
	if !endsWithReturn(fn.Body.Statements) {
		c.emitOp(vm.OpPushNull)
		c.emitOp(vm.OpReturn)
	}

	c.symbols.Leave()
	c.loops, c.tryDepth = savedLoops, savedTry
	c.patch(skip)
}

func endsWithReturn(stmts []Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	_, ok := stmts[len(stmts)-1].(*ReturnStmt)
	return ok
}

// checkExports warns about exported names that nothing declares.
func (c *Compiler) checkExports() {
	for _, s := range c.exports {
		for _, name := range s.Names {
			if c.functions[name] {
				continue
			}
			if _, ok := c.symbols.Resolve(name); ok {
				continue
			}
			c.warnf(s.Pos(), KindSemantic, "export of undeclared name %s", name)
		}
	}
}
