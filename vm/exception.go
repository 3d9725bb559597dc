package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Exception handling
// ---------------------------------------------------------------------------

// ErrStackUnderflow is returned when an instruction needs more operands than
// the stack holds. It indicates malformed IR.
var ErrStackUnderflow = errors.New("stack underflow")

// errExit unwinds the run loop on an exit instruction.
var errExit = errors.New("exit")

// handler is an installed try block. Frame and stack depths record where to
// unwind to when a throw lands here.
type handler struct {
	label      string
	address    int
	program    *Program
	frameDepth int
	stackDepth int
}

// RuntimeError is a hard failure that cannot be caught by try/catch:
// division by zero, stack underflow, call depth overflow, malformed IR.
type RuntimeError struct {
	Addr int
	Op   Opcode
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at %04d (%s): %v", e.Addr, e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// UnhandledException is returned when a thrown value reaches the top level
// with no handler installed.
type UnhandledException struct {
	Value Value
	Addr  int
}

func (e *UnhandledException) Error() string {
	return fmt.Sprintf("unhandled exception: %s", e.Value.Text())
}

// ErrDivisionByZero is wrapped by the RuntimeError for / % and // by zero.
var ErrDivisionByZero = errors.New("division by zero")

// ErrCallDepth is wrapped by the RuntimeError raised when calls nest deeper
// than the configured limit.
var ErrCallDepth = errors.New("maximum call depth exceeded")

// throw transfers control to the innermost handler, unwinding frames and
// the value stack to where the handler was installed. With no handler the
// exception escapes as an *UnhandledException.
func (vm *VM) throw(val Value) error {
	if len(vm.handlers) == 0 {
		return &UnhandledException{Value: val, Addr: vm.ip}
	}
	h := vm.handlers[len(vm.handlers)-1]
	vm.handlers = vm.handlers[:len(vm.handlers)-1]

	if len(vm.frames) > h.frameDepth {
		restore := vm.frames[h.frameDepth]
		vm.env = restore.env
		vm.frames = vm.frames[:h.frameDepth]
	}
	if len(vm.stack) > h.stackDepth {
		vm.stack = vm.stack[:h.stackDepth]
	}

	vm.program = h.program
	vm.ip = h.address
	vm.push(val)
	return nil
}

// throwf raises a catchable exception with a formatted message.
func (vm *VM) throwf(format string, args ...any) error {
	return vm.throw(String(fmt.Sprintf(format, args...)))
}
