package compiler_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/razen/compiler"
	"github.com/chazu/razen/lib/stdlib"
	"github.com/chazu/razen/vm"
	"github.com/nalgeon/be"
)

// run compiles src, executes it on a fresh VM with the standard libraries
// and returns what it printed.
func run(t *testing.T, src string, opts ...compiler.Option) (string, error) {
	t.Helper()
	prog, diags, err := compiler.CompileSource(src, opts...)
	if err != nil {
		t.Fatalf("compile: %v\n%s", err, diags)
	}
	var out bytes.Buffer
	machine := vm.New(vm.WithRegistry(stdlib.Default()), vm.WithOutput(&out), vm.WithErrorOutput(&out))
	err = machine.Execute(prog)
	return out.String(), err
}

func runOK(t *testing.T, src string) string {
	t.Helper()
	out, err := run(t, src)
	be.Err(t, err, nil)
	return out
}

func TestRunArithmetic(t *testing.T) {
	be.Equal(t, runOK(t, `num a = 2; num b = 3; show a + b;`), "5\n")
}

func TestRunConcatenation(t *testing.T) {
	be.Equal(t, runOK(t, `show "a" + "b";`), "ab\n")
	be.Equal(t, runOK(t, `show "n=" + 4;`), "n=4\n")
}

func TestRunForwardCall(t *testing.T) {
	be.Equal(t, runOK(t, `show f(); fun f() { return 1; }`), "1\n")
}

func TestRunTryCatchFinally(t *testing.T) {
	out := runOK(t, `try { throw "boom"; } catch (e) { show e; } finally { show "done"; }`)
	be.Equal(t, out, "boom\ndone\n")
}

func TestRunUnhandledThrow(t *testing.T) {
	out, err := run(t, `show "before"; throw "boom"; show "after";`)
	be.Equal(t, out, "before\n")

	var unhandled *vm.UnhandledException
	be.True(t, errors.As(err, &unhandled))
	be.Equal(t, unhandled.Value.Text(), "boom")
}

func TestRunNestedLoops(t *testing.T) {
	src := `
var out = "";
var i = 0;
while i < 3 {
    i += 1;
    if i == 2 { continue; }
    var j = 0;
    while true {
        j += 1;
        if j > 2 { break; }
        out = out + i + "," + j + " ";
    }
}
show out;
`
	be.Equal(t, runOK(t, src), "1,1 1,2 3,1 3,2 \n")
}

func TestRunForLoop(t *testing.T) {
	src := `
var total = 0;
for (x in [1, 2, 3, 4]) {
    if x == 2 { continue; }
    if x == 4 { break; }
    total += x;
}
show total;
for (k in {"a": 1, "b": 2}) { show k; }
for (c in "hi") { show c; }
for (n in 3) { show n; }
`
	be.Equal(t, runOK(t, src), "4\na\nb\nh\ni\n0\n1\n2\n")
}

func TestRunRecursion(t *testing.T) {
	src := `
fun fib(n) {
    if n < 2 { return n; }
    return fib(n - 1) + fib(n - 2);
}
show fib(15);
`
	be.Equal(t, runOK(t, src), "610\n")
}

func TestRunIfElifElse(t *testing.T) {
	src := `
fun classify(n) {
    if n > 10 {
        return "big";
    } elif n > 0 {
        return "small";
    } else {
        return "none";
    }
}
show classify(50);
show classify(5);
show classify(0);
`
	be.Equal(t, runOK(t, src), "big\nsmall\nnone\n")
}

func TestRunCollections(t *testing.T) {
	src := `
var a = [1, 2, 3];
a[1] = 20;
a[3] = 4;
show a;
show a[9];
var m = {"x": 1};
m["y"] = {"z": [0]};
m["y"]["z"][0] = 7;
m.x += 5;
show m;
show m.y.z;
show len(a) + len(m);
show keys(m);
`
	want := "[1, 20, 3, 4]\nnull\n{x: 6, y: {z: [7]}}\n[7]\n6\n[x, y]\n"
	be.Equal(t, runOK(t, src), want)
}

func TestRunExceptionsAcrossFrames(t *testing.T) {
	src := `
fun inner() { throw "deep"; }
fun outer() { inner(); return "unreached"; }
try {
    outer();
} catch (e) {
    show "caught " + e;
}
show "after";
`
	be.Equal(t, runOK(t, src), "caught deep\nafter\n")
}

func TestRunFinallyWithoutCatch(t *testing.T) {
	src := `
try {
    try { throw "inner"; } finally { show "cleanup"; }
} catch (e) {
    show "outer caught " + e;
}
try { show "ok"; } finally { show "always"; }
`
	be.Equal(t, runOK(t, src), "cleanup\nouter caught inner\nok\nalways\n")
}

func TestRunReturnInsideTry(t *testing.T) {
	src := `
fun f() {
    try { return 1; } catch (e) { return 2; }
}
show f();
try { throw "after return"; } catch (e) { show e; }
`
	be.Equal(t, runOK(t, src), "1\nafter return\n")
}

func TestRunBreakInsideTry(t *testing.T) {
	src := `
while true {
    try { break; } catch (e) { show "wrong"; }
}
try { throw "handler was cleared"; } catch (e) { show e; }
`
	be.Equal(t, runOK(t, src), "handler was cleared\n")
}

func TestRunCatchableTypeError(t *testing.T) {
	out := runOK(t, `try { show [1] - 2; } catch (e) { show e; }`)
	be.Equal(t, out, "cannot apply - to [1] and 2\n")
}

func TestRunDivisionByZero(t *testing.T) {
	_, err := run(t, `try { show 1 / 0; } catch (e) { show "caught"; }`)

	var rt *vm.RuntimeError
	be.True(t, errors.As(err, &rt))
	be.True(t, errors.Is(err, vm.ErrDivisionByZero))
	be.Equal(t, rt.Op, vm.OpDiv)
}

func TestRunAssert(t *testing.T) {
	be.Equal(t, runOK(t, `assert(1 < 2); show "ok";`), "ok\n")

	_, err := run(t, `assert(1 > 2, "math is broken");`)
	be.Err(t, err, "math is broken")

	_, err = run(t, `assert(false);`)
	be.Err(t, err, "Assertion failed")
}

func TestRunLibraries(t *testing.T) {
	src := `
use String as s;
show Math[sqrt](16);
show mathlib::max(3, 9, 4);
show s.upper("razen");
show Array.join([1, 2, 3], "-");
show str(5) + "!";
show num("2") + 1;
show type([]);
`
	be.Equal(t, runOK(t, src), "4\n9\nRAZEN\n1-2-3\n5!\n3\narray\n")
}

func TestRunLibraryErrorIsCatchable(t *testing.T) {
	out := runOK(t, `try { Math.sqrt("x"); } catch (e) { show e; }`)
	be.True(t, strings.Contains(out, "sqrt expects a number"))

	out = runOK(t, `try { nosuch(1); } catch (e) { show e; }`)
	be.Equal(t, out, "undefined function: nosuch\n")
}

func TestRunEnumAndClass(t *testing.T) {
	src := `
enum Shade { RED, GREEN = 5, BLUE }
show Shade.BLUE;
show Shade;
class Counter {
    var start = 10;
    fun next(n) { return n + 1; }
}
show Counter.start;
show Counter.next(1);
show Counter;
`
	want := "6\n{RED: 0, GREEN: 5, BLUE: 6}\n10\n2\n{class: Counter, fields: [start], methods: [next]}\n"
	be.Equal(t, runOK(t, src), want)
}

func TestRunModules(t *testing.T) {
	modules := compiler.MapResolver{
		"util": `fun twice(x) { return x * 2; } var base = 21;`,
	}
	out, err := run(t, `use "util" as u; show u.twice(base);`, compiler.WithModuleResolver(modules))
	be.Err(t, err, nil)
	be.Equal(t, out, "42\n")
}

func TestRunExit(t *testing.T) {
	be.Equal(t, runOK(t, `show 1; exit; show 2;`), "1\n")
}

func TestRunFunctionScope(t *testing.T) {
	src := `
var g = 1;
fun bump() { g = g + 1; return g; }
show bump();
show g;
fun args(a, b) { return b; }
show args(1);
`
	be.Equal(t, runOK(t, src), "2\n1\nnull\n")
}

func TestRunBlockShadowing(t *testing.T) {
	be.Equal(t, runOK(t, `var x = 1; if true { var x = 2; show x; } show x;`), "2\n1\n")
}

func TestRunRead(t *testing.T) {
	prog, _, err := compiler.CompileSource(`read name; show "hello " + name; read more; show more;`)
	be.Err(t, err, nil)

	var out bytes.Buffer
	machine := vm.New(vm.WithOutput(&out), vm.WithInput(strings.NewReader("world\n")))
	be.Err(t, machine.Execute(prog), nil)
	be.Equal(t, out.String(), "hello world\nnull\n")
}

func TestRunColoredShow(t *testing.T) {
	be.Equal(t, runOK(t, `var x = 2; show(red) -x;`), "-2\n")
	be.Equal(t, runOK(t, `var x = 2; show(green) x + 1;`), "3\n")
	be.Equal(t, runOK(t, `var x = 2; show (x) * 3;`), "6\n")
}

func TestRunDebugOutput(t *testing.T) {
	prog, _, err := compiler.CompileSource(`debug 1 + 1; trace "hidden";`)
	be.Err(t, err, nil)

	var out, diag bytes.Buffer
	machine := vm.New(vm.WithOutput(&out), vm.WithErrorOutput(&diag))
	be.Err(t, machine.Execute(prog), nil)
	be.Equal(t, out.String(), "")
	be.Equal(t, diag.String(), "[DEBUG] 2\n")
}

func TestRunCallDepthLimit(t *testing.T) {
	prog, _, err := compiler.CompileSource(`fun down(n) { return down(n + 1); } down(0);`)
	be.Err(t, err, nil)

	machine := vm.New(vm.WithMaxCallDepth(50))
	err = machine.Execute(prog)
	be.True(t, errors.Is(err, vm.ErrCallDepth))
}

func TestRunImageRoundTrip(t *testing.T) {
	prog, _, err := compiler.CompileSource(`fun sq(x) { return x * x; } try { throw sq(7); } catch (e) { show e; }`)
	be.Err(t, err, nil)

	data, err := vm.MarshalProgram(prog)
	be.Err(t, err, nil)
	loaded, err := vm.UnmarshalProgram(data)
	be.Err(t, err, nil)

	var out bytes.Buffer
	be.Err(t, vm.New(vm.WithOutput(&out)).Execute(loaded), nil)
	be.Equal(t, out.String(), "49\n")
}
