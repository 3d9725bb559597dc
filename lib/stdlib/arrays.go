package stdlib

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/razen/vm"
)

// Array returns the Array library. Arrays are values: every function
// returns a new array.
func Array() *vm.Library {
	return vm.NewLibrary("Array").
		Define("push", arrayPush).
		Define("pop", arrayPop).
		Define("join", arrayJoin).
		Define("reverse", arrayReverse).
		Define("sort", arraySort).
		Define("contains", arrayContains).
		Define("index", arrayIndex).
		Define("slice", arraySlice).
		Define("range", arrayRange)
}

func arrayPush(args []vm.Value) (vm.Value, error) {
	if len(args) < 1 {
		return vm.Null(), fmt.Errorf("push expects an array and values")
	}
	if _, err := array("push", args[0]); err != nil {
		return vm.Null(), err
	}
	return args[0].Append(args[1:]...), nil
}

// arrayPop returns the array without its last element.
func arrayPop(args []vm.Value) (vm.Value, error) {
	if err := arity("pop", args, 1); err != nil {
		return vm.Null(), err
	}
	elems, err := array("pop", args[0])
	if err != nil {
		return vm.Null(), err
	}
	if len(elems) == 0 {
		return vm.Array(), nil
	}
	return vm.Array(elems[:len(elems)-1]...), nil
}

func arrayJoin(args []vm.Value) (vm.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return vm.Null(), fmt.Errorf("join expects an array and an optional separator")
	}
	elems, err := array("join", args[0])
	if err != nil {
		return vm.Null(), err
	}
	sep := ""
	if len(args) == 2 {
		sep = args[1].Text()
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.Text()
	}
	return vm.String(strings.Join(parts, sep)), nil
}

func arrayReverse(args []vm.Value) (vm.Value, error) {
	if err := arity("reverse", args, 1); err != nil {
		return vm.Null(), err
	}
	elems, err := array("reverse", args[0])
	if err != nil {
		return vm.Null(), err
	}
	for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
		elems[i], elems[j] = elems[j], elems[i]
	}
	return vm.Array(elems...), nil
}

// arraySort sorts numerically when every element is a number, by text
// otherwise.
func arraySort(args []vm.Value) (vm.Value, error) {
	if err := arity("sort", args, 1); err != nil {
		return vm.Null(), err
	}
	elems, err := array("sort", args[0])
	if err != nil {
		return vm.Null(), err
	}
	numeric := true
	for _, e := range elems {
		if _, ok := e.ToNumber(); !ok {
			numeric = false
			break
		}
	}
	sort.SliceStable(elems, func(i, j int) bool {
		if numeric {
			a, _ := elems[i].ToNumber()
			b, _ := elems[j].ToNumber()
			return a < b
		}
		return elems[i].Text() < elems[j].Text()
	})
	return vm.Array(elems...), nil
}

func arrayContains(args []vm.Value) (vm.Value, error) {
	v, err := arrayIndex(args)
	if err != nil {
		return vm.Null(), err
	}
	n, _ := v.ToNumber()
	return vm.Bool(n >= 0), nil
}

func arrayIndex(args []vm.Value) (vm.Value, error) {
	if err := arity("index", args, 2); err != nil {
		return vm.Null(), err
	}
	elems, err := array("index", args[0])
	if err != nil {
		return vm.Null(), err
	}
	for i, e := range elems {
		if e.Equal(args[1]) {
			return vm.Number(float64(i)), nil
		}
	}
	return vm.Number(-1), nil
}

func arraySlice(args []vm.Value) (vm.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return vm.Null(), fmt.Errorf("slice expects an array, a start and an optional end")
	}
	elems, err := array("slice", args[0])
	if err != nil {
		return vm.Null(), err
	}
	start, err := integer("slice", args[1])
	if err != nil {
		return vm.Null(), err
	}
	end := len(elems)
	if len(args) == 3 {
		if end, err = integer("slice", args[2]); err != nil {
			return vm.Null(), err
		}
	}
	start = max(0, min(start, len(elems)))
	end = max(start, min(end, len(elems)))
	return vm.Array(elems[start:end]...), nil
}

// arrayRange returns [start, end) stepping by step, which defaults to 1.
func arrayRange(args []vm.Value) (vm.Value, error) {
	if len(args) < 1 || len(args) > 3 {
		return vm.Null(), fmt.Errorf("range expects 1 to 3 arguments")
	}
	nums := make([]float64, len(args))
	for i, a := range args {
		n, err := number("range", a)
		if err != nil {
			return vm.Null(), err
		}
		nums[i] = n
	}
	start, end, step := 0.0, nums[0], 1.0
	if len(nums) >= 2 {
		start, end = nums[0], nums[1]
	}
	if len(nums) == 3 {
		step = nums[2]
	}
	if step == 0 {
		return vm.Null(), fmt.Errorf("range step must not be zero")
	}
	var out []vm.Value
	for x := start; (step > 0 && x < end) || (step < 0 && x > end); x += step {
		out = append(out, vm.Number(x))
	}
	return vm.Array(out...), nil
}
