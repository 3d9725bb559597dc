package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/razen/compiler"
	"github.com/chazu/razen/vm"
	"github.com/peterh/liner"
	"github.com/pterm/pterm"
)

const (
	historyFile = ".razen_history"
	promptMain  = "razen> "
	promptCont  = "  ...> "
)

const replHelp = `REPL commands:
  :help      Show this help
  :globals   List global variables
  :disasm    Show the IR of the last entry
  :trace     Toggle instruction tracing
  :reset     Clear all globals
  :quit      Exit the REPL
`

// repl holds one persistent VM; globals and functions survive between
// entries until :reset.
type repl struct {
	cfg     *config
	machine *vm.VM
	last    *vm.Program
}

func cmdRepl(cfg *config, _ []string) int {
	fmt.Println("Razen REPL. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	r := &repl{cfg: cfg, machine: cfg.newVM(cfg.registry(), os.Stdout)}
	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(code, ":") {
			if r.command(code) {
				return 0
			}
			continue
		}
		r.eval(code)
	}
}

// readByParseProbe reads lines until the input no longer has open
// brackets, braces or parentheses.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if !compiler.Incomplete(b.String()) {
			return b.String(), true
		}
	}
}

// command runs a REPL command and reports whether the REPL should exit.
func (r *repl) command(cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":exit", ":q":
		return true
	case ":help":
		fmt.Print(replHelp)
	case ":globals":
		for _, name := range r.machine.Globals() {
			v, _ := r.machine.Global(name)
			fmt.Printf("%s = %s\n", name, pterm.FgLightBlue.Sprint(v.Text()))
		}
	case ":disasm":
		if r.last == nil {
			fmt.Println("nothing compiled yet")
			return false
		}
		fmt.Print(r.last.Disassemble())
	case ":trace":
		r.cfg.trace = !r.cfg.trace
		r.rebuild()
		fmt.Printf("tracing %v\n", r.cfg.trace)
	case ":reset":
		r.machine.Reset()
	default:
		fmt.Println("unknown command; type :help")
	}
	return false
}

// rebuild replaces the VM, carrying globals over.
func (r *repl) rebuild() {
	next := r.cfg.newVM(r.machine.Registry(), os.Stdout)
	for _, name := range r.machine.Globals() {
		v, _ := r.machine.Global(name)
		next.SetGlobal(name, v)
	}
	r.machine = next
}

// eval compiles and runs one entry. A lone expression is shown.
func (r *repl) eval(code string) {
	ast, diags := compiler.Parse(code)
	if diags.HasErrors() {
		printDiagnostics("repl", diags)
		return
	}
	if len(ast.Statements) == 1 {
		if es, ok := ast.Statements[0].(*compiler.ExprStmt); ok {
			if _, assign := es.Expr.(*compiler.AssignExpr); !assign {
				ast.Statements[0] = &compiler.ShowStmt{PosVal: es.PosVal, Value: es.Expr}
			}
		}
	}

	c := compiler.NewCompiler(
		compiler.WithName("repl"),
		compiler.WithModuleResolver(compiler.DirResolver{Dirs: append([]string{"."}, r.cfg.moduleDirs...)}),
		compiler.WithLibraryAliases(r.cfg.aliases),
	)
	prog, cdiags := c.Compile(ast)
	printDiagnostics("repl", cdiags)
	if cdiags.HasErrors() {
		return
	}
	r.last = prog

	if err := r.machine.Execute(prog); err != nil {
		fail(err)
	}
}
