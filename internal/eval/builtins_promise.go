package eval

import "github.com/module/scripthost/internal/value"

// dispatchPromiseMethod implements Promise.prototype.then/catch/finally,
// all expressed in terms of promiseThen (internal/eval/promise.go, §3.2).
func (ev *Evaluator) dispatchPromiseMethod(p *value.Promise, method string, args []value.Value) (value.Value, bool, error) {
	switch method {
	case "then":
		var onFulfilled, onRejected *value.Function
		if len(args) > 0 {
			onFulfilled, _ = args[0].(*value.Function)
		}
		if len(args) > 1 {
			onRejected, _ = args[1].(*value.Function)
		}
		return ev.promiseThen(p, onFulfilled, onRejected), true, nil
	case "catch":
		var onRejected *value.Function
		if len(args) > 0 {
			onRejected, _ = args[0].(*value.Function)
		}
		return ev.promiseThen(p, nil, onRejected), true, nil
	case "finally":
		var fn *value.Function
		if len(args) > 0 {
			fn, _ = args[0].(*value.Function)
		}
		if fn == nil {
			return ev.promiseThen(p, nil, nil), true, nil
		}
		passthrough := ev.nativeFn(func(_ value.Value, cbArgs []value.Value) (value.Value, error) {
			if _, err := ev.CallFunction(fn, value.Undefined, nil); err != nil {
				return nil, err
			}
			return firstArg(cbArgs), nil
		})
		rethrow := ev.nativeFn(func(_ value.Value, cbArgs []value.Value) (value.Value, error) {
			if _, err := ev.CallFunction(fn, value.Undefined, nil); err != nil {
				return nil, err
			}
			return nil, thrown(firstArg(cbArgs))
		})
		return ev.promiseThen(p, passthrough, rethrow), true, nil
	default:
		return nil, false, nil
	}
}

// promiseCombinator implements Promise.all/allSettled/race/any (§3.2's
// combinator family), each driven by attaching a then() reaction to every
// input promise and settling the combined result once the combinator's
// completion rule is met.
func (ev *Evaluator) promiseCombinator(kind string, items []value.Value) *value.Promise {
	switch kind {
	case "all":
		return ev.combinatorAll(items, false)
	case "allSettled":
		return ev.combinatorAllSettled(items)
	case "race":
		return ev.combinatorRace(items)
	case "any":
		return ev.combinatorAny(items)
	default:
		return value.RejectedPromise(value.String("unknown Promise combinator " + kind))
	}
}

func (ev *Evaluator) asPromise(v value.Value) *value.Promise {
	if p, ok := v.(*value.Promise); ok {
		return p
	}
	return value.ResolvedPromise(v)
}

func (ev *Evaluator) combinatorAll(items []value.Value, settled bool) *value.Promise {
	result := value.NewPendingPromise()
	n := len(items)
	if n == 0 {
		ev.settlePromise(result, value.Fulfilled, value.NewArray(nil))
		return result
	}
	values := make([]value.Value, n)
	remaining := n
	for i, it := range items {
		i := i
		p := ev.asPromise(it)
		ev.promiseThen(p,
			ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
				values[i] = firstArg(args)
				remaining--
				if remaining == 0 {
					ev.settlePromise(result, value.Fulfilled, value.NewArray(values))
				}
				return value.Undefined, nil
			}),
			ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
				ev.settlePromise(result, value.Rejected, firstArg(args))
				return value.Undefined, nil
			}),
		)
	}
	return result
}

func (ev *Evaluator) combinatorAllSettled(items []value.Value) *value.Promise {
	result := value.NewPendingPromise()
	n := len(items)
	if n == 0 {
		ev.settlePromise(result, value.Fulfilled, value.NewArray(nil))
		return result
	}
	values := make([]value.Value, n)
	remaining := n
	finish := func() {
		remaining--
		if remaining == 0 {
			ev.settlePromise(result, value.Fulfilled, value.NewArray(values))
		}
	}
	for i, it := range items {
		i := i
		p := ev.asPromise(it)
		ev.promiseThen(p,
			ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
				o := value.NewObject()
				o.SetOwn("status", value.String("fulfilled"))
				o.SetOwn("value", firstArg(args))
				values[i] = o
				finish()
				return value.Undefined, nil
			}),
			ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
				o := value.NewObject()
				o.SetOwn("status", value.String("rejected"))
				o.SetOwn("reason", firstArg(args))
				values[i] = o
				finish()
				return value.Undefined, nil
			}),
		)
	}
	return result
}

func (ev *Evaluator) combinatorRace(items []value.Value) *value.Promise {
	result := value.NewPendingPromise()
	for _, it := range items {
		p := ev.asPromise(it)
		ev.promiseThen(p,
			ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
				ev.settlePromise(result, value.Fulfilled, firstArg(args))
				return value.Undefined, nil
			}),
			ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
				ev.settlePromise(result, value.Rejected, firstArg(args))
				return value.Undefined, nil
			}),
		)
	}
	return result
}

func (ev *Evaluator) combinatorAny(items []value.Value) *value.Promise {
	result := value.NewPendingPromise()
	n := len(items)
	if n == 0 {
		ev.settlePromise(result, value.Rejected, value.String("All promises were rejected"))
		return result
	}
	errors := make([]value.Value, n)
	remaining := n
	for i, it := range items {
		i := i
		p := ev.asPromise(it)
		ev.promiseThen(p,
			ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
				ev.settlePromise(result, value.Fulfilled, firstArg(args))
				return value.Undefined, nil
			}),
			ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
				errors[i] = firstArg(args)
				remaining--
				if remaining == 0 {
					ev.settlePromise(result, value.Rejected, value.NewArray(errors))
				}
				return value.Undefined, nil
			}),
		)
	}
	return result
}
