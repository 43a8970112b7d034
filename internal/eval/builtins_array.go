package eval

import (
	"sort"
	"strings"

	"github.com/module/scripthost/internal/value"
)

// arrayMapLike implements the callback-taking Array methods the parser
// lowers at parse time (§4.2), plus `sort`'s optional comparator form.
func (ev *Evaluator) arrayMapLike(arr *value.Array, method string, cb *value.Function, extra []value.Value) (value.Value, error) {
	elems := append([]value.Value{}, arr.Elements()...)
	switch method {
	case "map":
		out := make([]value.Value, len(elems))
		for i, e := range elems {
			v, err := ev.CallFunction(cb, value.Undefined, []value.Value{e, value.Number(i), arr})
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return value.NewArray(out), nil
	case "filter":
		var out []value.Value
		for i, e := range elems {
			v, err := ev.CallFunction(cb, value.Undefined, []value.Value{e, value.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if value.Truthy(v) {
				out = append(out, e)
			}
		}
		return value.NewArray(out), nil
	case "forEach":
		for i, e := range elems {
			if _, err := ev.CallFunction(cb, value.Undefined, []value.Value{e, value.Number(i), arr}); err != nil {
				return nil, err
			}
		}
		return value.Undefined, nil
	case "find":
		for i, e := range elems {
			v, err := ev.CallFunction(cb, value.Undefined, []value.Value{e, value.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if value.Truthy(v) {
				return e, nil
			}
		}
		return value.Undefined, nil
	case "findIndex":
		for i, e := range elems {
			v, err := ev.CallFunction(cb, value.Undefined, []value.Value{e, value.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if value.Truthy(v) {
				return value.Number(i), nil
			}
		}
		return value.Number(-1), nil
	case "some":
		for i, e := range elems {
			v, err := ev.CallFunction(cb, value.Undefined, []value.Value{e, value.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if value.Truthy(v) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	case "every":
		for i, e := range elems {
			v, err := ev.CallFunction(cb, value.Undefined, []value.Value{e, value.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if !value.Truthy(v) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	case "reduce", "reduceRight":
		order := elems
		if method == "reduceRight" {
			order = reversed(elems)
		}
		start := 0
		var acc value.Value
		if len(extra) > 0 {
			acc = extra[0]
		} else if len(order) > 0 {
			acc = order[0]
			start = 1
		} else {
			return nil, runtimeErrf("Reduce of empty array with no initial value")
		}
		for i := start; i < len(order); i++ {
			idx := i
			if method == "reduceRight" {
				idx = len(order) - 1 - i
			}
			v, err := ev.CallFunction(cb, value.Undefined, []value.Value{acc, order[i], value.Number(idx), arr})
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	case "flatMap":
		var out []value.Value
		for i, e := range elems {
			v, err := ev.CallFunction(cb, value.Undefined, []value.Value{e, value.Number(i), arr})
			if err != nil {
				return nil, err
			}
			if sub, ok := v.(*value.Array); ok {
				out = append(out, sub.Elements()...)
			} else {
				out = append(out, v)
			}
		}
		return value.NewArray(out), nil
	case "sort":
		var sortErr error
		sort.SliceStable(elems, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			v, err := ev.CallFunction(cb, value.Undefined, []value.Value{elems[i], elems[j]})
			if err != nil {
				sortErr = err
				return false
			}
			return ToFloat64(v) < 0
		})
		if sortErr != nil {
			return nil, sortErr
		}
		arr.SetElements(elems)
		return arr, nil
	default:
		return nil, runtimeErrf("Array.prototype.%s is not supported here", method)
	}
}

func reversed(in []value.Value) []value.Value {
	out := make([]value.Value, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// dispatchArrayMethod implements the non-callback Array instance methods
// reached through the generic MemberCall fallback (§4.4 "Array built-ins").
func (ev *Evaluator) dispatchArrayMethod(a *value.Array, method string, args []value.Value) (value.Value, bool, error) {
	switch method {
	case "push":
		return value.Number(a.Push(args...)), true, nil
	case "pop":
		v, ok := a.Pop()
		if !ok {
			return value.Undefined, true, nil
		}
		return v, true, nil
	case "shift":
		elems := a.Elements()
		if len(elems) == 0 {
			return value.Undefined, true, nil
		}
		first := elems[0]
		a.SetElements(append([]value.Value{}, elems[1:]...))
		return first, true, nil
	case "unshift":
		a.SetElements(append(append([]value.Value{}, args...), a.Elements()...))
		return value.Number(a.Len()), true, nil
	case "concat":
		out := append([]value.Value{}, a.Elements()...)
		for _, v := range args {
			if sub, ok := v.(*value.Array); ok {
				out = append(out, sub.Elements()...)
			} else {
				out = append(out, v)
			}
		}
		return value.NewArray(out), true, nil
	case "slice":
		elems := a.Elements()
		start, end := sliceRange(len(elems), args)
		out := append([]value.Value{}, elems[start:end]...)
		return value.NewArray(out), true, nil
	case "splice":
		return ev.arraySplice(a, args), true, nil
	case "indexOf":
		if len(args) == 0 {
			return value.Number(-1), true, nil
		}
		for i, e := range a.Elements() {
			if value.StrictEquals(e, args[0]) {
				return value.Number(i), true, nil
			}
		}
		return value.Number(-1), true, nil
	case "lastIndexOf":
		if len(args) == 0 {
			return value.Number(-1), true, nil
		}
		elems := a.Elements()
		for i := len(elems) - 1; i >= 0; i-- {
			if value.StrictEquals(elems[i], args[0]) {
				return value.Number(i), true, nil
			}
		}
		return value.Number(-1), true, nil
	case "includes":
		if len(args) == 0 {
			return value.Bool(false), true, nil
		}
		for _, e := range a.Elements() {
			if value.SameValueZero(e, args[0]) {
				return value.Bool(true), true, nil
			}
		}
		return value.Bool(false), true, nil
	case "join":
		sep := ","
		if len(args) > 0 && !value.IsNullish(args[0]) {
			sep = ToDisplayString(args[0])
		}
		parts := make([]string, a.Len())
		for i, e := range a.Elements() {
			if value.IsNullish(e) {
				parts[i] = ""
			} else {
				parts[i] = ToDisplayString(e)
			}
		}
		return value.String(strings.Join(parts, sep)), true, nil
	case "toString":
		return value.String(arrayToDisplayString(a)), true, nil
	case "reverse":
		elems := a.Elements()
		out := reversed(elems)
		a.SetElements(out)
		return a, true, nil
	case "fill":
		return ev.arrayFill(a, args), true, nil
	case "at":
		idx := 0
		if len(args) > 0 {
			idx = int(ToFloat64(args[0]))
		}
		if idx < 0 {
			idx += a.Len()
		}
		v, ok := a.Get(idx)
		if !ok {
			return value.Undefined, true, nil
		}
		return v, true, nil
	case "flat":
		depth := 1
		if len(args) > 0 {
			depth = int(ToFloat64(args[0]))
		}
		return value.NewArray(flatten(a.Elements(), depth)), true, nil
	case "keys":
		idx := make([]value.Value, a.Len())
		for i := range idx {
			idx[i] = value.Number(i)
		}
		return ev.newArrayIterator(idx), true, nil
	case "values":
		return ev.newArrayIterator(append([]value.Value{}, a.Elements()...)), true, nil
	case "entries":
		pairs := make([]value.Value, a.Len())
		for i, e := range a.Elements() {
			pairs[i] = value.NewArray([]value.Value{value.Number(i), e})
		}
		return ev.newArrayIterator(pairs), true, nil
	default:
		return nil, false, nil
	}
}

func flatten(elems []value.Value, depth int) []value.Value {
	var out []value.Value
	for _, e := range elems {
		if sub, ok := e.(*value.Array); ok && depth > 0 {
			out = append(out, flatten(sub.Elements(), depth-1)...)
		} else {
			out = append(out, e)
		}
	}
	return out
}

func sliceRange(n int, args []value.Value) (int, int) {
	start, end := 0, n
	if len(args) > 0 {
		start = resolveIndex(int(ToFloat64(args[0])), n)
	}
	if len(args) > 1 && !value.IsNullish(args[1]) {
		end = resolveIndex(int(ToFloat64(args[1])), n)
	}
	if end < start {
		end = start
	}
	return start, end
}

func resolveIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func (ev *Evaluator) arraySplice(a *value.Array, args []value.Value) value.Value {
	elems := a.Elements()
	n := len(elems)
	start := 0
	if len(args) > 0 {
		start = resolveIndex(int(ToFloat64(args[0])), n)
	}
	deleteCount := n - start
	if len(args) > 1 {
		deleteCount = int(ToFloat64(args[1]))
		if deleteCount < 0 {
			deleteCount = 0
		}
		if start+deleteCount > n {
			deleteCount = n - start
		}
	}
	removed := append([]value.Value{}, elems[start:start+deleteCount]...)
	var inserted []value.Value
	if len(args) > 2 {
		inserted = args[2:]
	}
	out := append([]value.Value{}, elems[:start]...)
	out = append(out, inserted...)
	out = append(out, elems[start+deleteCount:]...)
	a.SetElements(out)
	return value.NewArray(removed)
}

func (ev *Evaluator) arrayFill(a *value.Array, args []value.Value) value.Value {
	var fillVal value.Value = value.Undefined
	if len(args) > 0 {
		fillVal = args[0]
	}
	n := a.Len()
	start, end := 0, n
	if len(args) > 1 {
		start = resolveIndex(int(ToFloat64(args[1])), n)
	}
	if len(args) > 2 {
		end = resolveIndex(int(ToFloat64(args[2])), n)
	}
	for i := start; i < end; i++ {
		a.Set(i, fillVal)
	}
	return a
}

// newArrayIterator builds a plain iterator object over a fixed snapshot of
// values, backing Array.prototype.keys/values/entries and the for-of path
// over any of them.
func (ev *Evaluator) newArrayIterator(items []value.Value) *value.Object {
	i := 0
	obj := value.NewObject()
	obj.SetOwn("next", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		if i >= len(items) {
			return iterResult(value.Undefined, true), nil
		}
		v := items[i]
		i++
		return iterResult(v, false), nil
	}))
	obj.SetSymbolProp(value.SymbolIterator.ID, ev.nativeFn(func(this value.Value, _ []value.Value) (value.Value, error) {
		return obj, nil
	}))
	return obj
}
