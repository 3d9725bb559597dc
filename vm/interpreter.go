package vm

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Interpreter loop
// ---------------------------------------------------------------------------

// run executes instructions until the program ends, exits or fails.
func (vm *VM) run() error {
	for {
		prog := vm.program
		if vm.ip < 0 || vm.ip >= len(prog.Instructions) {
			return nil
		}
		addr := vm.ip
		in := prog.Instructions[addr]
		vm.ip++
		vm.steps++

		if vm.steps%cancelCheckInterval == 0 {
			if err := vm.ctx.Err(); err != nil {
				return &RuntimeError{Addr: addr, Op: in.Op, Err: err}
			}
		}

		if vm.trace {
			vm.log.Debugf("[%04d] %-24s sp=%d fp=%d", addr, in, len(vm.stack), len(vm.frames))
		}

		if err := vm.exec(in); err != nil {
			var unhandled *UnhandledException
			var rt *RuntimeError
			switch {
			case err == errExit:
				return err
			case errors.As(err, &unhandled):
				unhandled.Addr = addr
				return unhandled
			case errors.As(err, &rt):
				return rt
			}
			return &RuntimeError{Addr: addr, Op: in.Op, Err: err}
		}
	}
}

// exec executes one instruction. vm.ip already points past it.
func (vm *VM) exec(in Instruction) error {
	switch in.Op {
	case OpNop, OpLabel, OpDefineFunction:
		return nil

	// Stack manipulation
	case OpPop:
		_, err := vm.pop()
		return err
	case OpDup:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.push(v)
		vm.push(v)
	case OpSwap:
		a, b, err := vm.pop2()
		if err != nil {
			return err
		}
		vm.push(b)
		vm.push(a)

	// Constants
	case OpPushNumber:
		vm.push(Number(in.Num))
	case OpPushString:
		vm.push(String(in.Str))
	case OpPushBool:
		vm.push(Bool(in.Arg != 0))
	case OpPushNull:
		vm.push(Null())

	// Variables
	case OpLoadVar:
		v, ok := vm.env[in.Str]
		if !ok {
			v = Undefined()
		}
		vm.push(v)
	case OpStoreVar:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.env[in.Str] = v

	// Arithmetic
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow, OpFloorDiv:
		left, right, err := vm.pop2()
		if err != nil {
			return err
		}
		return vm.arith(in.Op, left, right)
	case OpNeg:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		n, ok := v.ToNumber()
		if !ok {
			return vm.throwf("cannot negate %s", v.Text())
		}
		vm.push(Number(-n))

	// Comparison and logic
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		left, right, err := vm.pop2()
		if err != nil {
			return err
		}
		vm.push(Bool(compare(in.Op, left, right)))
	case OpAnd, OpOr:
		left, right, err := vm.pop2()
		if err != nil {
			return err
		}
		if in.Op == OpAnd {
			vm.push(Bool(left.Truthy() && right.Truthy()))
		} else {
			vm.push(Bool(left.Truthy() || right.Truthy()))
		}
	case OpNot:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.push(Bool(!v.Truthy()))

	// Control flow
	case OpJump:
		vm.ip = in.Arg
	case OpJumpIfFalse, OpJumpIfTrue:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		if v.Truthy() == (in.Op == OpJumpIfTrue) {
			vm.ip = in.Arg
		}

	// Functions
	case OpCall:
		return vm.call(in)
	case OpReturn:
		return vm.ret()
	case OpLibCall:
		return vm.libCall(in)

	// Collections
	case OpMakeArray:
		elems, err := vm.popN(in.Arg)
		if err != nil {
			return err
		}
		vm.push(Value{kind: KindArray, arr: elems})
	case OpMakeMap:
		pairs, err := vm.popN(2 * in.Arg)
		if err != nil {
			return err
		}
		m := Map()
		for i := 0; i < len(pairs); i += 2 {
			m = m.With(pairs[i].Text(), pairs[i+1])
		}
		vm.push(m)
	case OpGetIndex:
		coll, idx, err := vm.pop2()
		if err != nil {
			return err
		}
		return vm.getIndex(coll, idx)
	case OpSetIndex:
		val, err := vm.pop()
		if err != nil {
			return err
		}
		coll, idx, err := vm.pop2()
		if err != nil {
			return err
		}
		return vm.setIndex(coll, idx, val)
	case OpLen:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		n, ok := v.Len()
		if !ok {
			return vm.throwf("%s has no length", v.Kind())
		}
		vm.push(Number(float64(n)))
	case OpIterable:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.iterable(v)

	// Exceptions
	case OpSetupTry:
		vm.handlers = append(vm.handlers, handler{
			label:      in.Str,
			address:    in.Arg,
			program:    vm.program,
			frameDepth: len(vm.frames),
			stackDepth: len(vm.stack),
		})
	case OpClearTry:
		if len(vm.handlers) > 0 {
			vm.handlers = vm.handlers[:len(vm.handlers)-1]
		}
	case OpThrow:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.throw(v)

	// I/O and host
	case OpPrint:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		text := v.Text()
		if vm.color && in.Str != "" {
			text = colorize(in.Str, text)
		}
		fmt.Fprintln(vm.out, text)
	case OpRead:
		line, err := vm.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if err == io.EOF && line == "" {
			vm.push(Null())
			return nil
		}
		vm.push(String(strings.TrimRight(line, "\r\n")))
	case OpExit:
		return errExit
	case OpSleep:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		ms, ok := v.ToNumber()
		if !ok {
			return vm.throwf("sleep expects milliseconds, got %s", v.Text())
		}
		if ms > 0 {
			timer := time.NewTimer(time.Duration(ms * float64(time.Millisecond)))
			select {
			case <-timer.C:
			case <-vm.ctx.Done():
				timer.Stop()
				return vm.ctx.Err()
			}
		}
		vm.push(Null())
	case OpDebug:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(vm.errOut, "[DEBUG] %s\n", v.Text())
		vm.log.Infof("debug: %s", v.Text())
	case OpTrace:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		if vm.trace {
			fmt.Fprintf(vm.errOut, "[TRACE] %s\n", v.Text())
		}
		vm.log.Debugf("trace: %s", v.Text())

	default:
		return fmt.Errorf("unknown opcode 0x%02X", byte(in.Op))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// call invokes a function. The callee runs in a copy of the caller's
// environment, so its writes to existing globals do not reach the caller.
func (vm *VM) call(in Instruction) error {
	args, err := vm.popN(in.Arg)
	if err != nil {
		return err
	}

	callee, defined := vm.env[in.Str]
	fn, isFn := callee.Function()
	if !defined || !isFn {
		if lib, ok := vm.registry.Lookup(BuiltinsLibrary); ok {
			if f, ok := lib.Lookup(in.Str); ok {
				result, err := f(args)
				if err != nil {
					return vm.throw(String(err.Error()))
				}
				vm.push(result)
				return nil
			}
		}
		return vm.throwf("undefined function: %s", in.Str)
	}

	if len(vm.frames) >= vm.maxDepth {
		return ErrCallDepth
	}

	for len(args) < len(fn.Params) {
		args = append(args, Null())
	}
	args = args[:len(fn.Params)]

	vm.frames = append(vm.frames, frame{
		returnAddr: vm.ip,
		env:        vm.env,
		program:    vm.program,
		stackBase:  len(vm.stack),
	})

	env := make(map[string]Value, len(vm.env)+len(fn.Params))
	for k, v := range vm.env {
		env[k] = v
	}
	vm.env = env

	for _, a := range args {
		vm.push(a)
	}
	vm.program = fn.program
	vm.ip = fn.Address
	return nil
}

// ret returns from the current frame. At top level the value stays on the
// stack and execution continues.
func (vm *VM) ret() error {
	result, err := vm.pop()
	if err != nil {
		return err
	}
	if len(vm.frames) == 0 {
		vm.push(result)
		return nil
	}

	f := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.stack) > f.stackBase {
		vm.stack = vm.stack[:f.stackBase]
	}
	for len(vm.handlers) > 0 && vm.handlers[len(vm.handlers)-1].frameDepth > len(vm.frames) {
		vm.handlers = vm.handlers[:len(vm.handlers)-1]
	}

	vm.env = f.env
	vm.program = f.program
	vm.ip = f.returnAddr
	vm.push(result)
	return nil
}

// libCall dispatches a qualified call to the registry. Str is the library
// and Name the dotted function name.
func (vm *VM) libCall(in Instruction) error {
	args, err := vm.popN(in.Arg)
	if err != nil {
		return err
	}
	fn := in.Name
	if _, after, ok := strings.Cut(in.Name, "."); ok {
		fn = after
	}
	result, err := vm.registry.Call(in.Str, fn, args)
	if err != nil {
		return vm.throw(String(err.Error()))
	}
	vm.push(result)
	return nil
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

var arithSymbols = map[Opcode]string{
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpMod:      "%",
	OpPow:      "**",
	OpFloorDiv: "//",
}

// arith applies a binary arithmetic operator. + concatenates when either
// operand is not numeric; the others raise a catchable type error.
func (vm *VM) arith(op Opcode, left, right Value) error {
	a, aok := left.ToNumber()
	b, bok := right.ToNumber()

	if op == OpAdd {
		if aok && bok {
			vm.push(Number(a + b))
		} else {
			vm.push(String(left.Text() + right.Text()))
		}
		return nil
	}
	if !aok || !bok {
		return vm.throwf("cannot apply %s to %s and %s", arithSymbols[op], left.Text(), right.Text())
	}

	switch op {
	case OpSub:
		vm.push(Number(a - b))
	case OpMul:
		vm.push(Number(a * b))
	case OpDiv:
		if b == 0 {
			return ErrDivisionByZero
		}
		vm.push(Number(a / b))
	case OpMod:
		if b == 0 {
			return ErrDivisionByZero
		}
		vm.push(Number(math.Mod(a, b)))
	case OpFloorDiv:
		if b == 0 {
			return ErrDivisionByZero
		}
		vm.push(Number(math.Floor(a / b)))
	case OpPow:
		vm.push(Number(math.Pow(a, b)))
	}
	return nil
}

// compare applies a relational operator, numerically when both operands
// parse as numbers and by text otherwise.
func compare(op Opcode, left, right Value) bool {
	switch op {
	case OpEq:
		return left.Equal(right)
	case OpNe:
		return !left.Equal(right)
	}

	a, aok := left.ToNumber()
	b, bok := right.ToNumber()
	var c int
	if aok && bok {
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	} else {
		c = strings.Compare(left.Text(), right.Text())
	}

	switch op {
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	default:
		return c >= 0
	}
}

// indexOf converts v to an integer index.
func indexOf(v Value) (int, bool) {
	n, ok := v.ToNumber()
	if !ok || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}

func (vm *VM) getIndex(coll, idx Value) error {
	switch coll.kind {
	case KindArray:
		i, ok := indexOf(idx)
		if !ok || i < 0 || i >= len(coll.arr) {
			vm.push(Null())
			return nil
		}
		vm.push(coll.arr[i])
	case KindMap:
		v, _ := coll.Get(idx.Text())
		vm.push(v)
	case KindString:
		runes := []rune(coll.str)
		i, ok := indexOf(idx)
		if !ok || i < 0 || i >= len(runes) {
			vm.push(Null())
			return nil
		}
		vm.push(String(string(runes[i])))
	default:
		return vm.throwf("cannot index %s", coll.Kind())
	}
	return nil
}

func (vm *VM) setIndex(coll, idx, val Value) error {
	switch coll.kind {
	case KindArray:
		i, ok := indexOf(idx)
		switch {
		case ok && i >= 0 && i < len(coll.arr):
			arr := append([]Value{}, coll.arr...)
			arr[i] = val
			vm.push(Value{kind: KindArray, arr: arr})
		case ok && i == len(coll.arr):
			vm.push(coll.Append(val))
		default:
			return vm.throwf("index %s out of range", idx.Text())
		}
	case KindMap:
		vm.push(coll.With(idx.Text(), val))
	case KindNull, KindUndefined:
		vm.push(Map().With(idx.Text(), val))
	default:
		return vm.throwf("cannot assign into %s", coll.Kind())
	}
	return nil
}

// iterable converts v to an array for for-in loops: maps iterate their
// keys, strings their characters and numbers count from zero.
func (vm *VM) iterable(v Value) error {
	switch v.kind {
	case KindArray:
		vm.push(v)
	case KindMap:
		keys := make([]Value, len(v.m.keys))
		for i, k := range v.m.keys {
			keys[i] = String(k)
		}
		vm.push(Value{kind: KindArray, arr: keys})
	case KindString:
		var chars []Value
		for _, r := range v.str {
			chars = append(chars, String(string(r)))
		}
		vm.push(Array(chars...))
	case KindNumber:
		n := int(v.num)
		items := make([]Value, 0, max(n, 0))
		for i := 0; i < n; i++ {
			items = append(items, Number(float64(i)))
		}
		vm.push(Value{kind: KindArray, arr: items})
	case KindNull, KindUndefined:
		vm.push(Array())
	default:
		return vm.throwf("cannot iterate over %s", v.Kind())
	}
	return nil
}
