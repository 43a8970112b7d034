package value

import "github.com/module/scripthost/internal/ast"

// Function is the shared handle backing every callable value: plain
// functions, arrows, methods, generators, async functions, and class
// constructors. See §4.4 "Functions".
type Function struct {
	Handler    *ast.FunctionHandler
	Name       string
	CapturedEnv *Env
	// CapturedPendingDecls holds a hoisted-function snapshot (§3.3 item 2,
	// §4.4 "Environments and hoisting"). internal/eval never sets it: a
	// closure sees siblings declared later in the same block through
	// CapturedEnv, into which execBlock hoists them.
	CapturedPendingDecls []*Function

	IsAsync     bool
	IsGenerator bool
	IsArrow     bool
	IsMethod    bool

	// PrototypeObject backs `new F()`/`F.prototype`; absent (nil) for
	// arrow functions and methods per §4.4.
	PrototypeObject *Object

	// FunctionID is a stable key into evaluator-owned side tables of
	// "public properties" so `f.foo = …` persists across calls. The
	// counter lives in eval, this field just stores the assigned id.
	FunctionID int64

	// ClassSuperConstructor, if non-nil, is the constructor this function
	// (when used as a class constructor) chains to via `super(...)`.
	ClassSuperConstructor *Function

	// Native, if non-nil, is a Go-implemented built-in instead of an
	// interpreted body (Math methods, Array method callbacks invoked
	// internally, bound functions, etc). Native functions have no
	// Handler/CapturedEnv.
	Native func(this Value, args []Value) (Value, error)

	// BoundThis/BoundArgs implement Function.prototype.bind.
	BoundTarget *Function
	BoundThis   Value
	BoundArgs   []Value
}

func (*Function) Kind() Kind { return KindFunction }

// IsCallable is a convenience predicate used throughout member-call
// dispatch ("verifies callability" per §4.5.1).
func IsCallable(v Value) bool {
	_, ok := v.(*Function)
	return ok
}
