package stdlib

import (
	"strings"

	"github.com/chazu/razen/vm"
)

// String returns the String library.
func String() *vm.Library {
	return vm.NewLibrary("String").
		Define("upper", stringMap("upper", strings.ToUpper)).
		Define("lower", stringMap("lower", strings.ToLower)).
		Define("trim", stringMap("trim", strings.TrimSpace)).
		Define("length", stringLength).
		Define("contains", stringPredicate("contains", strings.Contains)).
		Define("startswith", stringPredicate("startswith", strings.HasPrefix)).
		Define("endswith", stringPredicate("endswith", strings.HasSuffix)).
		Define("split", stringSplit).
		Define("replace", stringReplace).
		Define("repeat", stringRepeat)
}

func stringMap(name string, f func(string) string) vm.Func {
	return func(args []vm.Value) (vm.Value, error) {
		if err := arity(name, args, 1); err != nil {
			return vm.Null(), err
		}
		return vm.String(f(args[0].Text())), nil
	}
}

func stringPredicate(name string, f func(s, sub string) bool) vm.Func {
	return func(args []vm.Value) (vm.Value, error) {
		if err := arity(name, args, 2); err != nil {
			return vm.Null(), err
		}
		return vm.Bool(f(args[0].Text(), args[1].Text())), nil
	}
}

func stringLength(args []vm.Value) (vm.Value, error) {
	if err := arity("length", args, 1); err != nil {
		return vm.Null(), err
	}
	return vm.Number(float64(len([]rune(args[0].Text())))), nil
}

func stringSplit(args []vm.Value) (vm.Value, error) {
	if err := arity("split", args, 2); err != nil {
		return vm.Null(), err
	}
	var parts []vm.Value
	for _, p := range strings.Split(args[0].Text(), args[1].Text()) {
		parts = append(parts, vm.String(p))
	}
	return vm.Array(parts...), nil
}

func stringReplace(args []vm.Value) (vm.Value, error) {
	if err := arity("replace", args, 3); err != nil {
		return vm.Null(), err
	}
	return vm.String(strings.ReplaceAll(args[0].Text(), args[1].Text(), args[2].Text())), nil
}

func stringRepeat(args []vm.Value) (vm.Value, error) {
	if err := arity("repeat", args, 2); err != nil {
		return vm.Null(), err
	}
	n, err := integer("repeat", args[1])
	if err != nil {
		return vm.Null(), err
	}
	if n < 0 {
		n = 0
	}
	return vm.String(strings.Repeat(args[0].Text(), n)), nil
}
