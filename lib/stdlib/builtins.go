package stdlib

import (
	"fmt"

	"github.com/chazu/razen/vm"
)

// Builtins returns the library consulted for unqualified calls to names the
// program does not define.
func Builtins() *vm.Library {
	return vm.NewLibrary(vm.BuiltinsLibrary).
		Define("len", builtinLen).
		Define("append", builtinAppend).
		Define("remove", builtinRemove).
		Define("keys", builtinKeys).
		Define("type", builtinType).
		Define("str", builtinStr).
		Define("num", builtinNum)
}

func builtinLen(args []vm.Value) (vm.Value, error) {
	if err := arity("len", args, 1); err != nil {
		return vm.Null(), err
	}
	n, ok := args[0].Len()
	if !ok {
		return vm.Null(), fmt.Errorf("len: %s has no length", args[0].Kind())
	}
	return vm.Number(float64(n)), nil
}

func builtinAppend(args []vm.Value) (vm.Value, error) {
	if len(args) < 1 {
		return vm.Null(), fmt.Errorf("append expects an array and values")
	}
	if args[0].Kind() != vm.KindArray {
		return vm.Null(), fmt.Errorf("append expects an array, got %s", args[0].Kind())
	}
	return args[0].Append(args[1:]...), nil
}

// builtinRemove removes an array element by index or a map entry by key.
func builtinRemove(args []vm.Value) (vm.Value, error) {
	if err := arity("remove", args, 2); err != nil {
		return vm.Null(), err
	}
	switch args[0].Kind() {
	case vm.KindArray:
		elems := args[0].Elements()
		i, err := integer("remove", args[1])
		if err != nil {
			return vm.Null(), err
		}
		if i < 0 || i >= len(elems) {
			return vm.Null(), fmt.Errorf("remove: index %d out of range", i)
		}
		return vm.Array(append(elems[:i], elems[i+1:]...)...), nil
	case vm.KindMap:
		key := args[1].Text()
		out := vm.Map()
		for _, k := range args[0].Keys() {
			if k != key {
				v, _ := args[0].Get(k)
				out = out.With(k, v)
			}
		}
		return out, nil
	}
	return vm.Null(), fmt.Errorf("remove expects an array or map, got %s", args[0].Kind())
}

func builtinKeys(args []vm.Value) (vm.Value, error) {
	if err := arity("keys", args, 1); err != nil {
		return vm.Null(), err
	}
	if args[0].Kind() != vm.KindMap {
		return vm.Null(), fmt.Errorf("keys expects a map, got %s", args[0].Kind())
	}
	var keys []vm.Value
	for _, k := range args[0].Keys() {
		keys = append(keys, vm.String(k))
	}
	return vm.Array(keys...), nil
}

func builtinType(args []vm.Value) (vm.Value, error) {
	if err := arity("type", args, 1); err != nil {
		return vm.Null(), err
	}
	return vm.String(args[0].Kind().String()), nil
}

func builtinStr(args []vm.Value) (vm.Value, error) {
	if err := arity("str", args, 1); err != nil {
		return vm.Null(), err
	}
	return vm.String(args[0].Text()), nil
}

func builtinNum(args []vm.Value) (vm.Value, error) {
	if err := arity("num", args, 1); err != nil {
		return vm.Null(), err
	}
	n, err := number("num", args[0])
	if err != nil {
		return vm.Null(), err
	}
	return vm.Number(n), nil
}
