// Package stdlib provides the reference host libraries: builtins, Math,
// String, Array and Time.
package stdlib

import (
	"fmt"

	"github.com/chazu/razen/vm"
)

// Default returns a registry holding every library in this package.
func Default() *vm.Registry {
	r := vm.NewRegistry()
	Install(r)
	return r
}

// Install registers every library in this package on r.
func Install(r *vm.Registry) {
	r.Register(Builtins())
	r.Register(Math(), "mathlib")
	r.Register(String(), "strlib")
	r.Register(Array(), "arrlib")
	r.Register(Time(), "timelib")
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

func arity(name string, args []vm.Value, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s expects %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func number(name string, v vm.Value) (float64, error) {
	n, ok := v.ToNumber()
	if !ok {
		return 0, fmt.Errorf("%s expects a number, got %s", name, v.Text())
	}
	return n, nil
}

func integer(name string, v vm.Value) (int, error) {
	n, err := number(name, v)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func array(name string, v vm.Value) ([]vm.Value, error) {
	if v.Kind() != vm.KindArray {
		return nil, fmt.Errorf("%s expects an array, got %s", name, v.Kind())
	}
	return v.Elements(), nil
}

// unary adapts a float function to a one-argument library function.
func unary(name string, f func(float64) float64) vm.Func {
	return func(args []vm.Value) (vm.Value, error) {
		if err := arity(name, args, 1); err != nil {
			return vm.Null(), err
		}
		n, err := number(name, args[0])
		if err != nil {
			return vm.Null(), err
		}
		return vm.Number(f(n)), nil
	}
}
