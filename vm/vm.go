package vm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// VM: executes compiled IR programs
// ---------------------------------------------------------------------------

// DefaultMaxCallDepth bounds nested function calls.
const DefaultMaxCallDepth = 10000

// cancelCheckInterval is how many instructions run between context checks.
const cancelCheckInterval = 1024

// frame is a call frame: where to resume and the caller's environment.
type frame struct {
	returnAddr int
	env        map[string]Value
	program    *Program
	stackBase  int
}

// VM is a stack machine for compiled programs. A VM is single-threaded and
// must not be shared between goroutines; globals persist across Execute
// calls until Reset.
type VM struct {
	registry *Registry
	out      io.Writer
	errOut   io.Writer
	in       *bufio.Reader
	trace    bool
	color    bool
	maxDepth int
	log      commonlog.Logger

	ctx      context.Context
	globals  map[string]Value
	program  *Program
	ip       int
	stack    []Value
	env      map[string]Value
	frames   []frame
	handlers []handler
	steps    int
}

// Option configures a VM.
type Option func(*VM)

// WithRegistry sets the library registry used for library calls.
func WithRegistry(r *Registry) Option {
	return func(vm *VM) { vm.registry = r }
}

// WithOutput sets where show writes.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithErrorOutput sets where debug writes.
func WithErrorOutput(w io.Writer) Option {
	return func(vm *VM) { vm.errOut = w }
}

// WithInput sets where read takes lines from.
func WithInput(r io.Reader) Option {
	return func(vm *VM) { vm.in = bufio.NewReader(r) }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(on bool) Option {
	return func(vm *VM) { vm.trace = on }
}

// WithColor enables colored output for show(color) statements.
func WithColor(on bool) Option {
	return func(vm *VM) { vm.color = on }
}

// WithMaxCallDepth bounds nested calls; n <= 0 keeps the default.
func WithMaxCallDepth(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.maxDepth = n
		}
	}
}

// New creates a VM. Without options it has an empty registry and uses the
// process's standard streams.
func New(opts ...Option) *VM {
	vm := &VM{
		registry: NewRegistry(),
		out:      os.Stdout,
		errOut:   os.Stderr,
		maxDepth: DefaultMaxCallDepth,
		log:      commonlog.GetLogger("razen.vm"),
		ctx:      context.Background(),
		globals:  map[string]Value{},
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.in == nil {
		vm.in = bufio.NewReader(os.Stdin)
	}
	return vm
}

// Registry returns the VM's library registry.
func (vm *VM) Registry() *Registry {
	return vm.registry
}

// Global returns a global variable.
func (vm *VM) Global(name string) (Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// SetGlobal sets a global variable.
func (vm *VM) SetGlobal(name string, v Value) {
	vm.globals[name] = v
}

// Globals returns the sorted names of all globals.
func (vm *VM) Globals() []string {
	names := make([]string, 0, len(vm.globals))
	for name := range vm.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stack returns a copy of the value stack left by the last execution.
func (vm *VM) Stack() []Value {
	return append([]Value{}, vm.stack...)
}

// Steps returns the number of instructions executed by the last Execute.
func (vm *VM) Steps() int {
	return vm.steps
}

// Reset clears globals and all execution state.
func (vm *VM) Reset() {
	vm.globals = map[string]Value{}
	vm.resetState()
}

func (vm *VM) resetState() {
	vm.program = nil
	vm.ip = 0
	vm.stack = vm.stack[:0]
	vm.env = nil
	vm.frames = nil
	vm.handlers = nil
	vm.steps = 0
}

// Execute runs prog to completion. It returns nil on normal completion or
// exit, an *UnhandledException for an uncaught throw, and a *RuntimeError
// for hard failures.
func (vm *VM) Execute(prog *Program) error {
	return vm.ExecuteContext(context.Background(), prog)
}

// ExecuteContext is Execute with cancellation: when ctx ends the program
// stops within a bounded number of instructions, or at once while sleeping,
// with a *RuntimeError wrapping ctx.Err(). A read blocked on input is not
// interrupted.
func (vm *VM) ExecuteContext(ctx context.Context, prog *Program) error {
	vm.resetState()
	vm.ctx = ctx
	defer func() { vm.ctx = context.Background() }()

	for _, lib := range prog.Libraries {
		if _, ok := vm.registry.Lookup(lib); !ok {
			return fmt.Errorf("library '%s' not found", lib)
		}
	}

	vm.program = prog
	vm.env = vm.globals
	vm.defineFunctions(prog)

	vm.log.Debugf("executing %d instructions", len(prog.Instructions))
	err := vm.run()
	if err == errExit {
		return nil
	}
	return err
}

// defineFunctions registers every DefineFunction marker under its name so
// calls may precede definitions.
func (vm *VM) defineFunctions(prog *Program) {
	for _, in := range prog.Instructions {
		if in.Op != OpDefineFunction {
			continue
		}
		vm.globals[in.Str] = FunctionValue(&Function{
			Name:    in.Str,
			Address: in.Arg,
			Params:  in.Params,
			program: prog,
		})
	}
}

// ---------------------------------------------------------------------------
// Stack helpers
// ---------------------------------------------------------------------------

func (vm *VM) push(v Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() (Value, error) {
	if len(vm.stack) == 0 {
		return Null(), ErrStackUnderflow
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// popN pops n values and returns them in push order.
func (vm *VM) popN(n int) ([]Value, error) {
	if n < 0 || len(vm.stack) < n {
		return nil, ErrStackUnderflow
	}
	vals := append([]Value{}, vm.stack[len(vm.stack)-n:]...)
	vm.stack = vm.stack[:len(vm.stack)-n]
	return vals, nil
}

// pop2 pops the right operand, then the left.
func (vm *VM) pop2() (Value, Value, error) {
	right, err := vm.pop()
	if err != nil {
		return Null(), Null(), err
	}
	left, err := vm.pop()
	if err != nil {
		return Null(), Null(), err
	}
	return left, right, nil
}
