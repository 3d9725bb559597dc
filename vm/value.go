package vm

import (
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Value: tagged runtime values
// ---------------------------------------------------------------------------

// Kind identifies the type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindUndefined
	KindBool
	KindNumber
	KindString
	KindArray
	KindMap
	KindFunction
)

var kindNames = [...]string{
	KindNull:      "null",
	KindUndefined: "undefined",
	KindBool:      "bool",
	KindNumber:    "number",
	KindString:    "string",
	KindArray:     "array",
	KindMap:       "map",
	KindFunction:  "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Value is a runtime value. The zero Value is null. Arrays and maps have
// value semantics: operations that change them return a new Value.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  []Value
	m    *orderedMap
	fn   *Function
}

// orderedMap keeps string keys in insertion order.
type orderedMap struct {
	keys   []string
	values map[string]Value
}

func (om *orderedMap) clone() *orderedMap {
	out := &orderedMap{
		keys:   append([]string(nil), om.keys...),
		values: make(map[string]Value, len(om.values)),
	}
	for k, v := range om.values {
		out.values[k] = v
	}
	return out
}

// Function is a compiled function entry point.
type Function struct {
	Name    string
	Address int
	Params  []string
	program *Program
}

// Null returns the null value.
func Null() Value { return Value{} }

// Undefined returns the value pushed for unknown variables.
func Undefined() Value { return Value{kind: KindUndefined} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array returns an array holding a copy of elems.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, arr: append([]Value{}, elems...)}
}

// Map returns an empty map value.
func Map() Value {
	return Value{kind: KindMap, m: &orderedMap{values: map[string]Value{}}}
}

// FunctionValue wraps a function entry point.
func FunctionValue(fn *Function) Value {
	return Value{kind: KindFunction, fn: fn}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null or undefined.
func (v Value) IsNull() bool { return v.kind == KindNull || v.kind == KindUndefined }

// Function returns the function held by v, if any.
func (v Value) Function() (*Function, bool) {
	return v.fn, v.kind == KindFunction
}

// Elements returns a copy of an array's elements; nil for other kinds.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return append([]Value{}, v.arr...)
}

// Keys returns a map's keys in insertion order; nil for other kinds.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	return append([]string{}, v.m.keys...)
}

// Get returns the map entry for key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Null(), false
	}
	val, ok := v.m.values[key]
	return val, ok
}

// With returns a copy of map v with key set to val.
func (v Value) With(key string, val Value) Value {
	if v.kind != KindMap {
		return v
	}
	m := v.m.clone()
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = val
	return Value{kind: KindMap, m: m}
}

// Append returns a copy of array v with vals added.
func (v Value) Append(vals ...Value) Value {
	if v.kind != KindArray {
		return v
	}
	arr := make([]Value, 0, len(v.arr)+len(vals))
	arr = append(arr, v.arr...)
	arr = append(arr, vals...)
	return Value{kind: KindArray, arr: arr}
}

// Len returns the length of an array, map or string, and whether v has one.
func (v Value) Len() (int, bool) {
	switch v.kind {
	case KindArray:
		return len(v.arr), true
	case KindMap:
		return len(v.m.keys), true
	case KindString:
		return len([]rune(v.str)), true
	}
	return 0, false
}

// ToNumber parses v as a number. Numbers convert directly; strings convert
// when their text parses as a float.
func (v Value) ToNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		n, err := strconv.ParseFloat(v.str, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Text returns the textual encoding of v: numbers without trailing zeros,
// arrays as [a, b], maps as {k: v}.
func (v Value) Text() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return FormatNumber(v.num)
	case KindString:
		return v.str
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.Text()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, len(v.m.keys))
		for i, k := range v.m.keys {
			parts[i] = k + ": " + v.m.values[k].Text()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunction:
		return "<fun " + v.fn.Name + ">"
	}
	return "null"
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.Text() }

// Truthy reports whether v counts as true in a condition. The falsey
// encodings are false, 0, the empty string, null, undefined and False.
func (v Value) Truthy() bool {
	switch v.Text() {
	case "false", "0", "", "null", "undefined", "False":
		return false
	}
	return true
}

// Equal reports whether two values are equal: numerically when both parse
// as numbers, by textual encoding otherwise.
func (v Value) Equal(o Value) bool {
	a, aok := v.ToNumber()
	b, bok := o.ToNumber()
	if aok && bok {
		return a == b
	}
	return v.Text() == o.Text()
}

// FormatNumber renders a float the way the language prints numbers.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
