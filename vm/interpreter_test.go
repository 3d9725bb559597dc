package vm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// Instruction shorthands for hand-assembled programs.
func num(n float64) Instruction  { return Instruction{Op: OpPushNumber, Num: n} }
func str(s string) Instruction   { return Instruction{Op: OpPushString, Str: s} }
func op(o Opcode) Instruction    { return Instruction{Op: o} }
func load(n string) Instruction  { return Instruction{Op: OpLoadVar, Str: n} }
func store(n string) Instruction { return Instruction{Op: OpStoreVar, Str: n} }
func jump(o Opcode, addr int) Instruction {
	return Instruction{Op: o, Arg: addr}
}

func call(name string, argc int) Instruction {
	return Instruction{Op: OpCall, Str: name, Arg: argc}
}

func define(name string, entry int, params ...string) Instruction {
	return Instruction{Op: OpDefineFunction, Str: name, Arg: entry, Params: params}
}

func setupTry(label string, handler int) Instruction {
	return Instruction{Op: OpSetupTry, Str: label, Arg: handler}
}

func boolean(b bool) Instruction {
	if b {
		return Instruction{Op: OpPushBool, Arg: 1}
	}
	return Instruction{Op: OpPushBool}
}

func program(code ...Instruction) *Program {
	return &Program{Instructions: code}
}

// execute runs prog on a fresh VM and returns its output.
func execute(t *testing.T, prog *Program, opts ...Option) (string, *VM, error) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out), WithErrorOutput(&out)}, opts...)
	machine := New(opts...)
	err := machine.Execute(prog)
	return out.String(), machine, err
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name        string
		left, right Instruction
		op          Opcode
		want        string
	}{
		{"add", num(2), num(3), OpAdd, "5"},
		{"add numeric strings", str("1"), str("2"), OpAdd, "3"},
		{"concat", str("a"), num(1), OpAdd, "a1"},
		{"concat null", str("x"), op(OpPushNull), OpAdd, "xnull"},
		{"sub", num(7), num(2), OpSub, "5"},
		{"mul", num(3), num(4), OpMul, "12"},
		{"div", num(7), num(2), OpDiv, "3.5"},
		{"mod", num(7), num(3), OpMod, "1"},
		{"floor div", num(7), num(2), OpFloorDiv, "3"},
		{"floor div negative", num(-7), num(2), OpFloorDiv, "-4"},
		{"pow", num(2), num(10), OpPow, "1024"},
		{"string operand", str("6"), num(2), OpMul, "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, program(tt.left, tt.right, op(tt.op), op(OpPrint)))
			if err != nil {
				t.Fatal(err)
			}
			if got := strings.TrimSuffix(out, "\n"); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNegate(t *testing.T) {
	out, _, err := execute(t, program(num(4), op(OpNeg), op(OpPrint)))
	if err != nil || out != "-4\n" {
		t.Errorf("neg 4 = %q, %v", out, err)
	}

	_, _, err = execute(t, program(str("x"), op(OpNeg)))
	var unhandled *UnhandledException
	if !errors.As(err, &unhandled) || unhandled.Value.Text() != "cannot negate x" {
		t.Errorf("neg x = %v", err)
	}
}

func TestComparison(t *testing.T) {
	tests := []struct {
		left, right Instruction
		op          Opcode
		want        string
	}{
		{num(10), num(9), OpGt, "true"},
		{str("10"), str("9"), OpGt, "true"},
		{str("b"), str("a"), OpGt, "true"},
		{str("10"), str("9a"), OpLt, "true"},
		{num(1), str("1"), OpEq, "true"},
		{str("abc"), str("abd"), OpNe, "true"},
		{num(2), num(2), OpLe, "true"},
		{num(2), num(3), OpGe, "false"},
		{op(OpPushNull), str("null"), OpEq, "true"},
	}

	for _, tt := range tests {
		out, _, err := execute(t, program(tt.left, tt.right, op(tt.op), op(OpPrint)))
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.TrimSuffix(out, "\n"); got != tt.want {
			t.Errorf("%s %s %s = %s, want %s", tt.left, tt.op, tt.right, got, tt.want)
		}
	}
}

func TestLogic(t *testing.T) {
	prog := program(
		str("0"), num(1), op(OpOr), op(OpPrint),
		str("False"), num(1), op(OpAnd), op(OpPrint),
		str("undefined"), op(OpNot), op(OpPrint),
		str("yes"), op(OpNot), op(OpPrint),
	)
	out, _, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if out != "true\nfalse\ntrue\nfalse\n" {
		t.Errorf("got %q", out)
	}
}

func TestStackOps(t *testing.T) {
	prog := program(
		num(1), num(2), op(OpSwap), op(OpPrint), op(OpPrint),
		str("d"), op(OpDup), op(OpAdd), op(OpPrint),
		num(9), op(OpPop),
	)
	out, machine, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\n2\ndd\n" {
		t.Errorf("got %q", out)
	}
	if len(machine.Stack()) != 0 {
		t.Errorf("stack = %v, want empty", machine.Stack())
	}
}

func TestStackUnderflow(t *testing.T) {
	_, _, err := execute(t, program(num(1), op(OpAdd)))
	var rt *RuntimeError
	if !errors.As(err, &rt) {
		t.Fatalf("got %v, want *RuntimeError", err)
	}
	if !errors.Is(err, ErrStackUnderflow) || rt.Addr != 1 || rt.Op != OpAdd {
		t.Errorf("got %+v", rt)
	}
}

func TestUnknownOpcode(t *testing.T) {
	_, _, err := execute(t, program(Instruction{Op: 0xEE}))
	if err == nil || !strings.Contains(err.Error(), "unknown opcode 0xEE") {
		t.Errorf("got %v", err)
	}
}

func TestDivisionByZeroIsNotCatchable(t *testing.T) {
	for _, o := range []Opcode{OpDiv, OpMod, OpFloorDiv} {
		prog := &Program{
			Instructions: []Instruction{
				setupTry("catch_0", 4),
				num(1), num(0), op(o),
				op(OpPrint),
			},
			Labels: map[string]int{"catch_0": 4},
		}
		out, _, err := execute(t, prog)
		if !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("%s: got %v, want division by zero", o, err)
		}
		if out != "" {
			t.Errorf("%s: handler ran and printed %q", o, out)
		}
	}
}

func TestVariables(t *testing.T) {
	prog := program(
		num(5), store("x"),
		load("x"), op(OpPrint),
		load("missing"), op(OpPrint),
	)
	out, machine, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if out != "5\nundefined\n" {
		t.Errorf("got %q", out)
	}
	if v, ok := machine.Global("x"); !ok || v.Text() != "5" {
		t.Errorf("global x = %v, %v", v, ok)
	}
}

func TestConditionalJumps(t *testing.T) {
	// if "" { print "a" } else { print "b" }; if 1 { print "c" }
	prog := program(
		str(""),                // 0
		jump(OpJumpIfFalse, 5), // 1
		str("a"),               // 2
		op(OpPrint),            // 3
		jump(OpJump, 7),        // 4
		str("b"),               // 5
		op(OpPrint),            // 6
		num(1),                 // 7
		jump(OpJumpIfTrue, 10), // 8
		op(OpExit),             // 9
		str("c"),               // 10
		op(OpPrint),            // 11
	)
	out, _, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if out != "b\nc\n" {
		t.Errorf("got %q", out)
	}
}

// incProgram defines inc(n) = n + 1 after a skip jump and calls it.
func incProgram(call ...Instruction) *Program {
	code := []Instruction{
		jump(OpJump, 7),       // 0
		define("inc", 2, "n"), // 1
		store("n"),            // 2
		load("n"),             // 3
		num(1),                // 4
		op(OpAdd),             // 5
		op(OpReturn),          // 6
	}
	return program(append(code, call...)...)
}

func TestCallAndReturn(t *testing.T) {
	prog := incProgram(num(41), call("inc", 1), op(OpPrint))
	out, machine, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if out != "42\n" {
		t.Errorf("got %q", out)
	}
	if _, ok := machine.Global("n"); ok {
		t.Error("parameter n leaked into globals")
	}
	if len(machine.Stack()) != 0 {
		t.Errorf("stack = %v, want empty", machine.Stack())
	}
}

func TestCallPadsAndTruncatesArguments(t *testing.T) {
	// inc() sees n = null, so n + 1 concatenates.
	prog := incProgram(
		call("inc", 0), op(OpPrint),
		num(1), num(2), call("inc", 2), op(OpPrint),
	)
	out, _, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if out != "null1\n2\n" {
		t.Errorf("got %q", out)
	}
}

func TestFunctionsRegisteredBeforeExecution(t *testing.T) {
	prog := program(
		call("one", 0),   // 0
		op(OpPrint),      // 1
		op(OpExit),       // 2
		define("one", 4), // 3
		num(1),           // 4
		op(OpReturn),     // 5
	)
	out, machine, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\n" {
		t.Errorf("got %q", out)
	}
	v, ok := machine.Global("one")
	if fn, isFn := v.Function(); !ok || !isFn || fn.Address != 4 {
		t.Errorf("global one = %s", v.Text())
	}
}

func TestFunctionWritesStayLocal(t *testing.T) {
	prog := program(
		num(1),            // 0
		store("g"),        // 1
		jump(OpJump, 10),  // 2
		define("bump", 4), // 3
		load("g"),         // 4
		num(1),            // 5
		op(OpAdd),         // 6
		store("g"),        // 7
		op(OpPushNull),    // 8
		op(OpReturn),      // 9
		call("bump", 0),   // 10
		op(OpPop),         // 11
		load("g"),         // 12
		op(OpPrint),       // 13
	)
	out, _, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\n" {
		t.Errorf("got %q, want caller's g unchanged", out)
	}
}

func TestTopLevelReturn(t *testing.T) {
	_, machine, err := execute(t, program(num(3), op(OpReturn)))
	if err != nil {
		t.Fatal(err)
	}
	stack := machine.Stack()
	if len(stack) != 1 || stack[0].Text() != "3" {
		t.Errorf("stack = %v", stack)
	}
}

func TestCallDepthLimit(t *testing.T) {
	prog := program(
		define("loop", 1), // 0
		call("loop", 0),   // 1
	)
	_, _, err := execute(t, prog, WithMaxCallDepth(10))
	var rt *RuntimeError
	if !errors.As(err, &rt) || !errors.Is(err, ErrCallDepth) {
		t.Fatalf("got %v, want call depth error", err)
	}
	if rt.Op != OpCall {
		t.Errorf("op = %s", rt.Op)
	}
}

func TestThrowAndCatch(t *testing.T) {
	prog := &Program{
		Instructions: []Instruction{
			setupTry("catch_0", 6), // 0
			num(1),                 // 1: left on the stack by the try body
			num(2),                 // 2
			str("boom"),            // 3
			op(OpThrow),            // 4
			jump(OpJump, 7),        // 5
			op(OpPrint),            // 6: catch prints the thrown value
		},
		Labels: map[string]int{"catch_0": 6},
	}
	out, machine, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if out != "boom\n" {
		t.Errorf("got %q", out)
	}
	if len(machine.Stack()) != 0 {
		t.Errorf("throw did not unwind the stack: %v", machine.Stack())
	}
}

func TestThrowUnwindsFrames(t *testing.T) {
	prog := &Program{
		Instructions: []Instruction{
			num(1),                 // 0
			store("x"),             // 1
			setupTry("catch_0", 9), // 2
			call("fail", 0),        // 3
			op(OpClearTry),         // 4
			jump(OpJump, 12),       // 5
			define("fail", 7),      // 6
			str("deep"),            // 7
			op(OpThrow),            // 8
			op(OpPrint),            // 9: catch
			load("x"),              // 10
			op(OpPrint),            // 11
		},
		Labels: map[string]int{"catch_0": 9},
	}
	out, _, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if out != "deep\n1\n" {
		t.Errorf("got %q", out)
	}
}

func TestUnhandledException(t *testing.T) {
	_, _, err := execute(t, program(str("oops"), op(OpThrow)))
	var unhandled *UnhandledException
	if !errors.As(err, &unhandled) {
		t.Fatalf("got %v, want *UnhandledException", err)
	}
	if unhandled.Value.Text() != "oops" || unhandled.Addr != 1 {
		t.Errorf("got %+v", unhandled)
	}
	if err.Error() != "unhandled exception: oops" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestReturnDropsFrameHandlers(t *testing.T) {
	// guard() installs a handler and returns without clearing it. A later
	// throw at top level must not land in the finished frame's handler.
	prog := &Program{
		Instructions: []Instruction{
			jump(OpJump, 5),               // 0
			define("guard", 2),            // 1
			setupTry("catch_0", 8),        // 2
			op(OpPushNull),                // 3
			op(OpReturn),                  // 4
			call("guard", 0),              // 5
			str("late"),                   // 6
			op(OpThrow),                   // 7
			str("caught in a dead frame"), // 8
			op(OpPrint),                   // 9
		},
		Labels: map[string]int{"catch_0": 8},
	}
	out, _, err := execute(t, prog)
	var unhandled *UnhandledException
	if !errors.As(err, &unhandled) || unhandled.Value.Text() != "late" {
		t.Errorf("got %v, output %q", err, out)
	}
}

func TestClearTryOnEmptyStack(t *testing.T) {
	if _, _, err := execute(t, program(op(OpClearTry))); err != nil {
		t.Errorf("got %v", err)
	}
}

func TestCollections(t *testing.T) {
	prog := program(
		num(1), num(2), Instruction{Op: OpMakeArray, Arg: 2}, store("a"),
		load("a"), num(2), num(3), op(OpSetIndex), store("a"), // append at len
		load("a"), num(0), str("x"), op(OpSetIndex), store("a"),
		load("a"), op(OpPrint),
		load("a"), num(7), op(OpGetIndex), op(OpPrint),
		load("a"), op(OpLen), op(OpPrint),
		str("k"), num(1), str("j"), num(2), Instruction{Op: OpMakeMap, Arg: 2}, store("m"),
		load("m"), str("j"), op(OpGetIndex), op(OpPrint),
		load("m"), str("z"), op(OpGetIndex), op(OpPrint),
		op(OpPushNull), str("new"), num(1), op(OpSetIndex), op(OpPrint),
		str("héllo"), num(1), op(OpGetIndex), op(OpPrint),
	)
	out, _, err := execute(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	want := "[x, 2, 3]\nnull\n3\n2\nnull\n{new: 1}\né\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestCollectionErrorsAreCatchable(t *testing.T) {
	tests := []struct {
		code []Instruction
		want string
	}{
		{[]Instruction{num(1), num(0), op(OpGetIndex)}, "cannot index number"},
		{[]Instruction{num(1), op(OpLen)}, "number has no length"},
		{[]Instruction{{Op: OpMakeArray}, num(5), num(1), op(OpSetIndex)}, "index 5 out of range"},
		{[]Instruction{boolean(true), num(0), num(1), op(OpSetIndex)}, "cannot assign into bool"},
		{[]Instruction{boolean(true), op(OpIterable)}, "cannot iterate over bool"},
	}
	for _, tt := range tests {
		_, _, err := execute(t, program(tt.code...))
		var unhandled *UnhandledException
		if !errors.As(err, &unhandled) || unhandled.Value.Text() != tt.want {
			t.Errorf("got %v, want thrown %q", err, tt.want)
		}
	}
}

func TestIterable(t *testing.T) {
	tests := []struct {
		value Instruction
		want  string
	}{
		{str("ab"), "[a, b]"},
		{num(3), "[0, 1, 2]"},
		{num(-2), "[]"},
		{op(OpPushNull), "[]"},
		{load("m"), "[x, y]"},
		{load("arr"), "[1]"},
	}
	for _, tt := range tests {
		prog := program(
			str("x"), num(1), str("y"), num(2), Instruction{Op: OpMakeMap, Arg: 2}, store("m"),
			num(1), Instruction{Op: OpMakeArray, Arg: 1}, store("arr"),
			tt.value, op(OpIterable), op(OpPrint),
		)
		out, _, err := execute(t, prog)
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.TrimSuffix(out, "\n"); got != tt.want {
			t.Errorf("iterable(%s) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestLibraryCalls(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewLibrary("Util").Define("twice", func(args []Value) (Value, error) {
		n, ok := args[0].ToNumber()
		if !ok {
			return Null(), fmt.Errorf("twice expects a number")
		}
		return Number(2 * n), nil
	}), "utillib")

	prog := &Program{
		Instructions: []Instruction{
			num(21),
			{Op: OpLibCall, Str: "utillib", Name: "utillib.twice", Arg: 1},
			op(OpPrint),
			setupTry("catch_0", 7),
			str("x"),
			{Op: OpLibCall, Str: "Util", Name: "Util.twice", Arg: 1},
			op(OpPrint),
			op(OpPrint), // 7: catch
			{Op: OpLibCall, Str: "Nope", Name: "Nope.f", Arg: 0},
		},
		Labels: map[string]int{"catch_0": 7},
	}
	out, _, err := execute(t, prog, WithRegistry(reg))
	if out != "42\ntwice expects a number\n" {
		t.Errorf("got %q", out)
	}
	var unhandled *UnhandledException
	if !errors.As(err, &unhandled) || unhandled.Value.Text() != "library 'Nope' not found" {
		t.Errorf("got %v", err)
	}
}

func TestBuiltinFallback(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewLibrary(BuiltinsLibrary).Define("hello", func(args []Value) (Value, error) {
		return String("hello " + args[0].Text()), nil
	}))

	prog := program(
		str("world"), call("hello", 1), op(OpPrint),
		call("nope", 0),
	)
	out, _, err := execute(t, prog, WithRegistry(reg))
	if out != "hello world\n" {
		t.Errorf("got %q", out)
	}
	var unhandled *UnhandledException
	if !errors.As(err, &unhandled) || unhandled.Value.Text() != "undefined function: nope" {
		t.Errorf("got %v", err)
	}
}

func TestRequiredLibraries(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewLibrary("Math"), "mathlib")

	prog := &Program{Instructions: []Instruction{str("ran"), op(OpPrint)}, Libraries: []string{"MATHLIB"}}
	if out, _, err := execute(t, prog, WithRegistry(reg)); err != nil || out != "ran\n" {
		t.Errorf("got %q, %v", out, err)
	}

	prog.Libraries = append(prog.Libraries, "Graphics")
	out, _, err := execute(t, prog, WithRegistry(reg))
	if err == nil || err.Error() != "library 'Graphics' not found" {
		t.Errorf("got %v", err)
	}
	if out != "" {
		t.Errorf("program ran despite a missing library: %q", out)
	}
}

func TestExit(t *testing.T) {
	out, _, err := execute(t, program(num(1), op(OpPrint), op(OpExit), num(2), op(OpPrint)))
	if err != nil || out != "1\n" {
		t.Errorf("got %q, %v", out, err)
	}
}

func TestRead(t *testing.T) {
	prog := program(
		op(OpRead), op(OpPrint),
		op(OpRead), op(OpPrint),
		op(OpRead), op(OpPrint),
	)
	out, _, err := execute(t, prog, WithInput(strings.NewReader("first\r\nlast")))
	if err != nil {
		t.Fatal(err)
	}
	if out != "first\nlast\nnull\n" {
		t.Errorf("got %q", out)
	}
}

func TestSleep(t *testing.T) {
	out, _, err := execute(t, program(num(0), op(OpSleep), op(OpPrint)))
	if err != nil || out != "null\n" {
		t.Errorf("got %q, %v", out, err)
	}

	_, _, err = execute(t, program(str("soon"), op(OpSleep)))
	var unhandled *UnhandledException
	if !errors.As(err, &unhandled) || !strings.Contains(unhandled.Value.Text(), "sleep expects milliseconds") {
		t.Errorf("got %v", err)
	}
}

func TestExecuteContextStopsEndlessLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	machine := New(WithOutput(&out))
	err := machine.ExecuteContext(ctx, program(jump(OpJump, 0)))
	var rt *RuntimeError
	if !errors.As(err, &rt) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want a runtime error wrapping the deadline", err)
	}

	// The next run is not affected by the expired context.
	if err := machine.Execute(program(num(1), op(OpPrint))); err != nil {
		t.Fatal(err)
	}
	if out.String() != "1\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestExecuteContextInterruptsSleep(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := New().ExecuteContext(ctx, program(num(60000), op(OpSleep)))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("sleep ran for %s after cancellation", elapsed)
	}
}

func TestDebugAndTrace(t *testing.T) {
	prog := program(str("d"), op(OpDebug), str("t"), op(OpTrace))

	var out, diag bytes.Buffer
	machine := New(WithOutput(&out), WithErrorOutput(&diag))
	if err := machine.Execute(prog); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 || diag.String() != "[DEBUG] d\n" {
		t.Errorf("trace off: out=%q diag=%q", out.String(), diag.String())
	}

	diag.Reset()
	machine = New(WithOutput(&out), WithErrorOutput(&diag), WithTrace(true))
	if err := machine.Execute(prog); err != nil {
		t.Fatal(err)
	}
	if diag.String() != "[DEBUG] d\n[TRACE] t\n" {
		t.Errorf("trace on: diag=%q", diag.String())
	}
}

func TestShowColor(t *testing.T) {
	prog := program(str("plain"), Instruction{Op: OpPrint, Str: "red"})
	out, _, err := execute(t, prog)
	if err != nil || out != "plain\n" {
		t.Errorf("color disabled: got %q, %v", out, err)
	}

	if !IsColor("Bright_Cyan") || IsColor("chartreuse") {
		t.Error("IsColor misclassified a name")
	}
	if got := colorize("chartreuse", "text"); got != "text" {
		t.Errorf("unknown color changed the text: %q", got)
	}
}

func TestGlobalsPersistUntilReset(t *testing.T) {
	machine := New(WithOutput(&bytes.Buffer{}))
	if err := machine.Execute(program(num(7), store("keep"))); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	WithOutput(&out)(machine)
	if err := machine.Execute(program(load("keep"), op(OpPrint))); err != nil {
		t.Fatal(err)
	}
	if out.String() != "7\n" {
		t.Errorf("second run saw %q", out.String())
	}
	if machine.Steps() != 2 {
		t.Errorf("Steps = %d, want 2", machine.Steps())
	}

	machine.SetGlobal("extra", Bool(true))
	if names := machine.Globals(); len(names) != 2 || names[0] != "extra" || names[1] != "keep" {
		t.Errorf("Globals = %v", names)
	}

	machine.Reset()
	if len(machine.Globals()) != 0 {
		t.Errorf("Reset left globals %v", machine.Globals())
	}
}
