package stdlib

import (
	"math"

	"github.com/chazu/razen/vm"
)

// Math returns the Math library.
func Math() *vm.Library {
	return vm.NewLibrary("Math").
		Define("abs", unary("abs", math.Abs)).
		Define("sqrt", unary("sqrt", math.Sqrt)).
		Define("floor", unary("floor", math.Floor)).
		Define("ceil", unary("ceil", math.Ceil)).
		Define("round", unary("round", math.Round)).
		Define("sin", unary("sin", math.Sin)).
		Define("cos", unary("cos", math.Cos)).
		Define("tan", unary("tan", math.Tan)).
		Define("log", unary("log", math.Log)).
		Define("exp", unary("exp", math.Exp)).
		Define("pow", mathPow).
		Define("min", mathFold("min", math.Min)).
		Define("max", mathFold("max", math.Max)).
		Define("pi", func([]vm.Value) (vm.Value, error) { return vm.Number(math.Pi), nil }).
		Define("e", func([]vm.Value) (vm.Value, error) { return vm.Number(math.E), nil })
}

func mathPow(args []vm.Value) (vm.Value, error) {
	if err := arity("pow", args, 2); err != nil {
		return vm.Null(), err
	}
	base, err := number("pow", args[0])
	if err != nil {
		return vm.Null(), err
	}
	exp, err := number("pow", args[1])
	if err != nil {
		return vm.Null(), err
	}
	return vm.Number(math.Pow(base, exp)), nil
}

// mathFold reduces its arguments, or the elements of a single array
// argument, with f.
func mathFold(name string, f func(a, b float64) float64) vm.Func {
	return func(args []vm.Value) (vm.Value, error) {
		if len(args) == 1 && args[0].Kind() == vm.KindArray {
			args = args[0].Elements()
		}
		if len(args) == 0 {
			return vm.Null(), nil
		}
		acc, err := number(name, args[0])
		if err != nil {
			return vm.Null(), err
		}
		for _, a := range args[1:] {
			n, err := number(name, a)
			if err != nil {
				return vm.Null(), err
			}
			acc = f(acc, n)
		}
		return vm.Number(acc), nil
	}
}
