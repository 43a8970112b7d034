package eval

import (
	"github.com/module/scripthost/internal/ast"
	"github.com/module/scripthost/internal/value"
)

// coroutine implements generator/async function suspension as a
// goroutine-based cooperative handoff: exactly one of {caller, body} is
// ever runnable at a time, the other blocked on a channel receive, so no
// two goroutines touch Evaluator/Env state concurrently — matching §5's "no
// true parallelism" non-goal while still letting `yield`/`await` suspend
// mid-statement, which a plain tree-walk cannot do on its own call stack.
type coroutine struct {
	resumeCh chan coroResume
	yieldCh  chan coroYield
}

// coroResume is what the caller sends back into a suspended coroutine: the
// value a generator's `.next(v)` passes in, or the resolved/rejected value
// an awaited promise settled with.
type coroResume struct {
	value value.Value
	err   error
}

// coroYield is what a coroutine sends out when it suspends or finishes.
type coroYield struct {
	kind  string // "yield", "await", "return", "throw"
	value value.Value
	err   error
}

func newCoroutine() *coroutine {
	return &coroutine{
		resumeCh: make(chan coroResume),
		yieldCh:  make(chan coroYield),
	}
}

// evalYield implements `yield`/`yield*` inside a generator body, per §4.4.
// It is only reachable while ev.currentCoro is the coroutine running this
// very body, since generator bodies execute on their own goroutine.
func (ev *Evaluator) evalYield(x *ast.YieldExpr, env *value.Env) (value.Value, error) {
	co := ev.currentCoro
	if co == nil {
		return nil, runtimeErrf("yield used outside a generator body")
	}
	var v value.Value = value.Undefined
	if x.Arg != nil {
		av, err := ev.evalExpr(x.Arg, env)
		if err != nil {
			return nil, err
		}
		v = av
	}

	if x.Delegate {
		items, err := ev.iterableElements(v)
		if err != nil {
			return nil, err
		}
		var last value.Value = value.Undefined
		for _, item := range items {
			co.yieldCh <- coroYield{kind: "yield", value: item}
			resume := <-co.resumeCh
			ev.currentCoro = co
			if resume.err != nil {
				return nil, resume.err
			}
			last = resume.value
		}
		return last, nil
	}

	co.yieldCh <- coroYield{kind: "yield", value: v}
	resume := <-co.resumeCh
	ev.currentCoro = co
	if resume.err != nil {
		return nil, resume.err
	}
	return resume.value, nil
}

// newGenerator builds the iterator object returned by calling a generator
// function, per §4.4. The function body does not start running until the
// first `.next()` call, matching generator semantics.
func (ev *Evaluator) newGenerator(fn *value.Function, this value.Value, args []value.Value) value.Value {
	co := newCoroutine()
	finished := false

	go func() {
		<-co.resumeCh
		env := value.NewChildEnv(fn.CapturedEnv)
		if !fn.IsArrow {
			env.SetThis(this)
		}
		if err := ev.bindParams(env, fn.Handler.Params, args); err != nil {
			co.yieldCh <- coroYield{kind: "throw", err: err}
			return
		}
		f, err := ev.execBlock(fn.Handler.Body, env)
		if err != nil {
			co.yieldCh <- coroYield{kind: "throw", err: err}
			return
		}
		var ret value.Value = value.Undefined
		if f.kind == flowReturn {
			ret = f.value
		}
		co.yieldCh <- coroYield{kind: "return", value: ret}
	}()

	step := func(resume coroResume) (value.Value, error) {
		if finished {
			return iterResult(value.Undefined, true), nil
		}
		prev := ev.currentCoro
		ev.currentCoro = co
		co.resumeCh <- resume
		y := <-co.yieldCh
		ev.currentCoro = prev
		switch y.kind {
		case "yield":
			return iterResult(y.value, false), nil
		case "return":
			finished = true
			return iterResult(y.value, true), nil
		default: // "throw"
			finished = true
			return nil, y.err
		}
	}

	obj := value.NewObject()
	obj.SetOwn("next", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		var v value.Value = value.Undefined
		if len(args) > 0 {
			v = args[0]
		}
		return step(coroResume{value: v})
	}))
	obj.SetOwn("return", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		finished = true
		var v value.Value = value.Undefined
		if len(args) > 0 {
			v = args[0]
		}
		return iterResult(v, true), nil
	}))
	obj.SetOwn("throw", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		var v value.Value = value.Undefined
		if len(args) > 0 {
			v = args[0]
		}
		return step(coroResume{err: thrown(v)})
	}))
	obj.SetSymbolProp(value.SymbolIterator.ID, ev.nativeFn(func(this value.Value, _ []value.Value) (value.Value, error) {
		return obj, nil
	}))
	return obj
}

func iterResult(v value.Value, done bool) *value.Object {
	o := value.NewObject()
	o.SetOwn("value", v)
	o.SetOwn("done", value.Bool(done))
	return o
}

// callAsync implements invoking an async function: the body runs on its own
// coroutine starting immediately (unlike generators), `await` suspends it,
// and the call returns a pending Promise settled when the body returns or
// throws, per §4.4 "async functions".
func (ev *Evaluator) callAsync(fn *value.Function, this value.Value, args []value.Value) (value.Value, error) {
	co := newCoroutine()
	result := value.NewPendingPromise()

	// The body goroutine starts running immediately (unlike a generator,
	// which waits for the first .next()), so currentCoro must be set
	// before the `go` statement: the Go memory model guarantees a `go`
	// statement happens-before the spawned goroutine's execution begins,
	// which is what makes this write visible without a data race.
	prev := ev.currentCoro
	ev.currentCoro = co
	go func() {
		env := value.NewChildEnv(fn.CapturedEnv)
		if !fn.IsArrow {
			env.SetThis(this)
		}
		if err := ev.bindParams(env, fn.Handler.Params, args); err != nil {
			co.yieldCh <- coroYield{kind: "throw", err: err}
			return
		}
		f, err := ev.execBlock(fn.Handler.Body, env)
		if err != nil {
			co.yieldCh <- coroYield{kind: "throw", err: err}
			return
		}
		var ret value.Value = value.Undefined
		if f.kind == flowReturn {
			ret = f.value
		}
		co.yieldCh <- coroYield{kind: "return", value: ret}
	}()

	y := <-co.yieldCh
	ev.currentCoro = prev
	ev.handleAsyncYield(co, result, y)
	return result, nil
}

// asyncStep resumes a suspended async coroutine with resume and processes
// whatever it yields next. currentCoro is set before the resume send (not
// after), so the body goroutine never runs concurrently with this one
// touching Evaluator state — mirroring the generator step() handoff.
func (ev *Evaluator) asyncStep(co *coroutine, result *value.Promise, resume coroResume) {
	prev := ev.currentCoro
	ev.currentCoro = co
	co.resumeCh <- resume
	y := <-co.yieldCh
	ev.currentCoro = prev
	ev.handleAsyncYield(co, result, y)
}

// handleAsyncYield settles result on completion, or wires up a continuation
// that resumes the coroutine once the awaited promise settles.
func (ev *Evaluator) handleAsyncYield(co *coroutine, result *value.Promise, y coroYield) {
	switch y.kind {
	case "return":
		ev.settlePromise(result, value.Fulfilled, y.value)
	case "throw":
		reason, ok := ThrownValue(y.err)
		if !ok {
			reason = value.String(y.err.Error())
		}
		ev.settlePromise(result, value.Rejected, reason)
	case "await":
		p, ok := y.value.(*value.Promise)
		if !ok {
			p = value.ResolvedPromise(y.value)
		}
		ev.promiseThen(p,
			ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
				var v value.Value = value.Undefined
				if len(args) > 0 {
					v = args[0]
				}
				ev.asyncStep(co, result, coroResume{value: v})
				return value.Undefined, nil
			}),
			ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
				var v value.Value = value.Undefined
				if len(args) > 0 {
					v = args[0]
				}
				ev.asyncStep(co, result, coroResume{err: thrown(v)})
				return value.Undefined, nil
			}),
		)
	}
}

// evalAwait implements `await expr`, per §4.4. Inside an async function body
// (ev.currentCoro set) it suspends the coroutine until the promise settles.
// At top level (no enclosing coroutine) only an already-settled promise can
// be awaited, since nothing drives the event loop to settle a pending one.
func (ev *Evaluator) evalAwait(x *ast.AwaitExpr, env *value.Env) (value.Value, error) {
	v, err := ev.evalExpr(x.Arg, env)
	if err != nil {
		return nil, err
	}

	co := ev.currentCoro
	if co == nil {
		p, ok := v.(*value.Promise)
		if !ok {
			return v, nil
		}
		switch p.State {
		case value.Fulfilled:
			return p.Value, nil
		case value.Rejected:
			p.Handled = true
			return nil, thrown(p.Value)
		default:
			return nil, runtimeErrf("cannot await a pending promise outside an async function")
		}
	}

	p, ok := v.(*value.Promise)
	if !ok {
		p = value.ResolvedPromise(v)
	}
	co.yieldCh <- coroYield{kind: "await", value: p}
	resume := <-co.resumeCh
	ev.currentCoro = co
	if resume.err != nil {
		return nil, resume.err
	}
	return resume.value, nil
}
