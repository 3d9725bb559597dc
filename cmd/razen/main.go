// Razen CLI - compile and run Razen programs
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/razen/compiler"
	"github.com/chazu/razen/lib/stdlib"
	"github.com/chazu/razen/manifest"
	"github.com/chazu/razen/vm"
	"github.com/chazu/razen/worker"
	"github.com/kr/pretty"
	"github.com/pterm/pterm"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const appName = "razen"

var log = commonlog.GetLogger("razen.cli")

// config is the effective configuration: razen.toml overlaid with flags.
type config struct {
	manifest     *manifest.Manifest
	trace        bool
	color        bool
	maxCallDepth int
	moduleDirs   []string
	aliases      map[string]string
	disabled     []string
}

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity (0 = warnings, 1 = info, 2 = debug)")
	trace := flag.Bool("trace", false, "Trace every executed instruction")
	color := flag.Bool("color", false, "Colored show(color) output")
	flag.Usage = usage
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		os.Exit(fail(err))
	}
	cfg.trace = cfg.trace || *trace
	cfg.color = cfg.color || *color

	args := flag.Args()[1:]
	switch cmd := flag.Arg(0); cmd {
	case "run":
		os.Exit(cmdRun(cfg, args))
	case "compile":
		os.Exit(cmdCompile(cfg, args))
	case "exec":
		os.Exit(cmdExec(cfg, args))
	case "disasm":
		os.Exit(cmdDisasm(cfg, args))
	case "ast":
		os.Exit(cmdAST(args))
	case "fmt":
		os.Exit(cmdFmt(args))
	case "repl":
		os.Exit(cmdRepl(cfg, args))
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %[1]s [options] <command> [arguments]

Commands:
  run [-j N] [files...]     Compile and run files (default: the razen.toml entry)
  compile [-o out] <file>   Compile a file to a program image
  exec <image>              Run a program image
  disasm <file|image>       Print the IR listing of a file or image
  ast <file>                Print the syntax tree of a file
  fmt [-w] <file>           Print (or rewrite) a file in canonical form
  repl                      Start the interactive REPL

Options:
`, appName)
	flag.PrintDefaults()
}

// fail prints err and returns the exit status for a failure.
func fail(err error) int {
	fmt.Fprintf(os.Stderr, "%s %v\n", pterm.FgRed.Sprint("error:"), err)
	return 1
}

// loadConfig reads razen.toml from the working directory or its parents.
func loadConfig() (*config, error) {
	cfg := &config{aliases: map[string]string{}}
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if m == nil {
		return cfg, nil
	}
	log.Infof("using %s", filepath.Join(m.Dir, manifest.FileName))

	cfg.manifest = m
	cfg.trace = m.Run.Trace
	cfg.color = m.Run.Color
	cfg.maxCallDepth = m.Run.MaxCallDepth
	cfg.disabled = m.Libraries.Disabled
	for alias, lib := range m.Libraries.Aliases {
		cfg.aliases[alias] = lib
	}
	if cfg.moduleDirs, err = m.ModuleDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// registry builds the library registry with disabled libraries removed.
func (cfg *config) registry() *vm.Registry {
	r := stdlib.Default()
	for _, name := range cfg.disabled {
		r.Unregister(name)
	}
	return r
}

// newVM creates a VM writing to out.
func (cfg *config) newVM(reg *vm.Registry, out io.Writer) *vm.VM {
	return vm.New(
		vm.WithRegistry(reg),
		vm.WithOutput(out),
		vm.WithTrace(cfg.trace),
		vm.WithColor(cfg.color),
		vm.WithMaxCallDepth(cfg.maxCallDepth),
	)
}

// compileFile compiles a source file, printing its diagnostics. Imports
// resolve against the file's directory, then the configured module dirs.
func (cfg *config) compileFile(path string) (*vm.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dirs := append([]string{filepath.Dir(path)}, cfg.moduleDirs...)
	prog, diags, err := compiler.CompileSource(string(src),
		compiler.WithName(filepath.Base(path)),
		compiler.WithModuleResolver(compiler.DirResolver{Dirs: dirs}),
		compiler.WithLibraryAliases(cfg.aliases),
	)
	printDiagnostics(path, diags)
	if err != nil {
		return nil, fmt.Errorf("%s: compilation failed", path)
	}
	return prog, nil
}

func printDiagnostics(path string, diags compiler.Diagnostics) {
	for _, d := range diags {
		label := pterm.FgRed.Sprint(d.Severity)
		if d.Severity == compiler.SeverityWarning {
			label = pterm.FgYellow.Sprint(d.Severity)
		}
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s: %s\n", path, d.Pos.Line, d.Pos.Column, label, d.Message)
	}
}

// loadProgram reads a program image, or compiles the file when it is not
// an image.
func (cfg *config) loadProgram(path string) (*vm.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, vm.ImageMagic) {
		return vm.UnmarshalProgram(data)
	}
	return cfg.compileFile(path)
}

// runProgram executes prog on a fresh VM attached to the terminal.
func (cfg *config) runProgram(prog *vm.Program) int {
	machine := cfg.newVM(cfg.registry(), os.Stdout)
	if err := machine.Execute(prog); err != nil {
		return fail(err)
	}
	return 0
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

func cmdRun(cfg *config, args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	jobs := fs.Int("j", 0, "Number of programs to run concurrently")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	files := fs.Args()
	if len(files) == 0 && cfg.manifest != nil && cfg.manifest.EntryPath() != "" {
		files = []string{cfg.manifest.EntryPath()}
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s run [-j N] <file.rzn>...\n", appName)
		return 2
	}

	if len(files) == 1 {
		prog, err := cfg.compileFile(files[0])
		if err != nil {
			return fail(err)
		}
		return cfg.runProgram(prog)
	}

	var batch []worker.Job
	for _, file := range files {
		prog, err := cfg.compileFile(file)
		if err != nil {
			return fail(err)
		}
		batch = append(batch, worker.Job{Name: file, Program: prog})
	}

	limit := *jobs
	if limit <= 0 && cfg.manifest != nil {
		limit = cfg.manifest.Run.Jobs
	}
	reg := cfg.registry()
	results, err := worker.RunAll(context.Background(), batch, limit, func(out io.Writer) *vm.VM {
		return cfg.newVM(reg, out)
	})
	if err != nil {
		return fail(err)
	}

	status := 0
	for _, res := range results {
		fmt.Printf("%s\n", pterm.FgLightGreen.Sprintf("== %s", res.Name))
		fmt.Print(res.Output)
		if res.Err != nil {
			status = fail(fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
	return status
}

func cmdCompile(cfg *config, args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	out := fs.String("o", "", "Output image path (default: <file>.rzc)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s compile [-o out] <file.rzn>\n", appName)
		return 2
	}

	file := fs.Arg(0)
	prog, err := cfg.compileFile(file)
	if err != nil {
		return fail(err)
	}
	data, err := vm.MarshalProgram(prog)
	if err != nil {
		return fail(err)
	}

	path := *out
	if path == "" {
		path = strings.TrimSuffix(file, filepath.Ext(file)) + ".rzc"
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fail(err)
	}
	log.Infof("wrote %s (%d instructions, %d bytes)", path, prog.Len(), len(data))
	return 0
}

func cmdExec(cfg *config, args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s exec <image>\n", appName)
		return 2
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fail(err)
	}
	prog, err := vm.UnmarshalProgram(data)
	if err != nil {
		return fail(err)
	}
	return cfg.runProgram(prog)
}

func cmdDisasm(cfg *config, args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s disasm <file|image>\n", appName)
		return 2
	}
	prog, err := cfg.loadProgram(args[0])
	if err != nil {
		return fail(err)
	}
	fmt.Print(prog.Disassemble())
	return 0
}

func cmdAST(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s ast <file>\n", appName)
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fail(err)
	}
	prog, diags := compiler.Parse(string(src))
	printDiagnostics(args[0], diags)
	fmt.Printf("%# v\n", pretty.Formatter(prog.Statements))
	if diags.HasErrors() {
		return 1
	}
	return 0
}

func cmdFmt(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	write := fs.Bool("w", false, "Write the result back to the file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s fmt [-w] <file>\n", appName)
		return 2
	}

	file := fs.Arg(0)
	src, err := os.ReadFile(file)
	if err != nil {
		return fail(err)
	}
	prog, diags := compiler.Parse(string(src))
	if diags.HasErrors() {
		printDiagnostics(file, diags)
		return fail(errors.New("cannot format a file with syntax errors"))
	}

	formatted := compiler.Format(prog)
	if !*write {
		fmt.Print(formatted)
		return 0
	}
	if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
		return fail(err)
	}
	return 0
}
