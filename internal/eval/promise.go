package eval

import "github.com/module/scripthost/internal/value"

// nativeFn wraps a Go closure as a callable Value, used throughout the
// builtin surface (Promise reactions, Array callback plumbing, etc) so
// native and interpreted functions flow through the same CallFunction path.
func (ev *Evaluator) nativeFn(f func(this value.Value, args []value.Value) (value.Value, error)) *value.Function {
	return &value.Function{Native: f, FunctionID: ev.allocFuncID()}
}

// settlePromise transitions p to state/v, per §3.2's promise state machine.
// Resolving with another *value.Promise adopts its eventual state instead of
// nesting promises; adoption recurses, so a chain of promises settles p with
// the innermost outcome. Other objects with a then method are not adopted;
// they fulfil p as plain values. Once settled, every queued reaction is drained as a
// microtask (Invariant I4: reactions never run synchronously with settle).
func (ev *Evaluator) settlePromise(p *value.Promise, state value.PromiseState, v value.Value) {
	if p.State != value.Pending {
		return
	}
	if state == value.Fulfilled {
		if inner, ok := v.(*value.Promise); ok {
			ev.promiseThen(inner,
				ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
					ev.settlePromise(p, value.Fulfilled, firstArg(args))
					return value.Undefined, nil
				}),
				ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
					ev.settlePromise(p, value.Rejected, firstArg(args))
					return value.Undefined, nil
				}),
			)
			return
		}
	}
	p.State = state
	p.Value = v
	cbs := p.Callbacks
	p.Callbacks = nil
	for _, cb := range cbs {
		cb := cb
		ev.Loop.QueueMicrotask(func() { ev.runPromiseCallback(p, cb) })
	}
}

// promiseThen registers a then/catch reaction on p, per §3.2. A pending
// promise queues the callback for settlePromise to drain later; an already
// settled one schedules it as a microtask immediately, since reactions
// never run synchronously with the call that attaches them.
func (ev *Evaluator) promiseThen(p *value.Promise, onFulfilled, onRejected *value.Function) *value.Promise {
	result := value.NewPendingPromise()
	cb := &value.PromiseCallback{OnFulfilled: onFulfilled, OnRejected: onRejected, Result: result}
	if onRejected != nil {
		p.Handled = true
	}
	if p.State == value.Pending {
		p.Callbacks = append(p.Callbacks, cb)
		return result
	}
	ev.Loop.QueueMicrotask(func() { ev.runPromiseCallback(p, cb) })
	return result
}

// runPromiseCallback invokes whichever of cb's handlers matches p's settled
// state, settling cb.Result with the outcome. A missing handler passes the
// value/reason through unchanged, per the standard then() fallback rule.
func (ev *Evaluator) runPromiseCallback(p *value.Promise, cb *value.PromiseCallback) {
	var handler *value.Function
	if p.State == value.Fulfilled {
		handler = cb.OnFulfilled
	} else {
		handler = cb.OnRejected
	}
	if handler == nil {
		ev.settlePromise(cb.Result, p.State, p.Value)
		return
	}
	rv, err := ev.CallFunction(handler, value.Undefined, []value.Value{p.Value})
	if err != nil {
		reason, ok := ThrownValue(err)
		if !ok {
			reason = value.String(err.Error())
		}
		ev.settlePromise(cb.Result, value.Rejected, reason)
		return
	}
	ev.settlePromise(cb.Result, value.Fulfilled, rv)
}

func firstArg(args []value.Value) value.Value {
	if len(args) > 0 {
		return args[0]
	}
	return value.Undefined
}
