package eval

import (
	"github.com/module/scripthost/internal/ast"
	"github.com/module/scripthost/internal/value"
)

// CallFunction invokes fn with the given this/args, dispatching to a native
// Go implementation or interpreting its body, per §4.4 "Functions". Bound
// functions (Function.prototype.bind) are unwrapped first.
func (ev *Evaluator) CallFunction(fn *value.Function, this value.Value, args []value.Value) (value.Value, error) {
	if fn.BoundTarget != nil {
		all := append(append([]value.Value{}, fn.BoundArgs...), args...)
		return ev.CallFunction(fn.BoundTarget, fn.BoundThis, all)
	}
	if fn.Native != nil {
		return fn.Native(this, args)
	}
	if fn.IsGenerator {
		return ev.newGenerator(fn, this, args), nil
	}
	if fn.IsAsync {
		return ev.callAsync(fn, this, args)
	}
	v, _, err := ev.runFunctionBody(fn, this, value.Undefined, args)
	return v, err
}

// runFunctionBody sets up the call frame (param binding, `this`/new.target
// install for non-arrows) and executes the body, returning the resolved
// return value (Undefined if the body falls off the end).
func (ev *Evaluator) runFunctionBody(fn *value.Function, this, newTarget value.Value, args []value.Value) (value.Value, flow, error) {
	env := value.NewChildEnv(fn.CapturedEnv)
	if !fn.IsArrow {
		env.SetThis(this)
		env.SetNewTarget(newTarget)
	}
	if err := ev.bindParams(env, fn.Handler.Params, args); err != nil {
		return nil, flow{}, err
	}
	f, err := ev.execBlock(fn.Handler.Body, env)
	if err != nil {
		return nil, flow{}, err
	}
	if f.kind == flowReturn {
		return f.value, f, nil
	}
	return value.Undefined, f, nil
}

// bindParams declares each parameter in env, honoring defaults and a
// trailing rest parameter.
func (ev *Evaluator) bindParams(env *value.Env, params []ast.Param, args []value.Value) error {
	for i, p := range params {
		if p.Rest {
			rest := []value.Value{}
			if i < len(args) {
				rest = append(rest, args[i:]...)
			}
			if err := ev.bindPattern(env, p.Pattern, value.NewArray(rest), false); err != nil {
				return err
			}
			return nil
		}
		var v value.Value = value.Undefined
		if i < len(args) {
			v = args[i]
		}
		if value.IsNullish(v) && v != nil && v.Kind() == value.KindUndefined && p.Default != nil {
			dv, err := ev.evalExpr(p.Default, env)
			if err != nil {
				return err
			}
			v = dv
		}
		if v == nil {
			v = value.Undefined
		}
		if err := ev.bindPattern(env, p.Pattern, v, false); err != nil {
			return err
		}
	}
	return nil
}

// bindPattern declares every name a pattern introduces, per destructuring
// semantics shared by declarations, params, and catch bindings.
func (ev *Evaluator) bindPattern(env *value.Env, pat ast.Pattern, v value.Value, isConst bool) error {
	switch p := pat.(type) {
	case *ast.IdentPattern:
		env.Declare(p.Name, v, isConst)
		return nil
	case *ast.ArrayPattern:
		var elems []value.Value
		switch t := v.(type) {
		case *value.Array:
			elems = t.Elements()
		case value.NodeList:
			for _, id := range t.IDs {
				elems = append(elems, value.Node{ID: id})
			}
		}
		for i, el := range p.Elements {
			if el == nil {
				continue
			}
			var ev2 value.Value = value.Undefined
			if i < len(elems) {
				ev2 = elems[i]
			}
			if value.IsNullish(ev2) && ev2 != nil && ev2.Kind() == value.KindUndefined && el.Default != nil {
				dv, err := ev.evalExpr(el.Default, env)
				if err != nil {
					return err
				}
				ev2 = dv
			}
			if err := ev.bindPattern(env, el.Pattern, ev2, isConst); err != nil {
				return err
			}
		}
		if p.Rest != nil {
			tail := []value.Value{}
			if len(elems) > len(p.Elements) {
				tail = append(tail, elems[len(p.Elements):]...)
			}
			if err := ev.bindPattern(env, p.Rest, value.NewArray(tail), isConst); err != nil {
				return err
			}
		}
		return nil
	case *ast.ObjectPattern:
		o, _ := v.(*value.Object)
		used := map[string]bool{}
		for _, prop := range p.Props {
			key := prop.Key
			if prop.Computed {
				kv, err := ev.evalExpr(prop.KeyExpr, env)
				if err != nil {
					return err
				}
				key = ToDisplayString(kv)
			}
			used[key] = true
			var pv value.Value = value.Undefined
			if o != nil {
				gv, err := ev.objectGet(o, key)
				if err != nil {
					return err
				}
				pv = gv
			}
			if value.IsNullish(pv) && pv != nil && pv.Kind() == value.KindUndefined && prop.Value.Default != nil {
				dv, err := ev.evalExpr(prop.Value.Default, env)
				if err != nil {
					return err
				}
				pv = dv
			}
			if err := ev.bindPattern(env, prop.Value.Pattern, pv, isConst); err != nil {
				return err
			}
		}
		if p.Rest != nil {
			rest := value.NewObject()
			if o != nil {
				for _, k := range o.OwnKeys() {
					if !used[k] {
						v, _ := o.OwnGet(k)
						rest.SetOwn(k, v)
					}
				}
			}
			if err := ev.bindPattern(env, p.Rest, rest, isConst); err != nil {
				return err
			}
		}
		return nil
	default:
		return runtimeErrf("unsupported binding pattern")
	}
}

// assignPattern mirrors bindPattern for destructuring *assignment* (targets
// already exist; this writes through Env.Assign / SetProperty instead of
// declaring).
func (ev *Evaluator) assignPattern(env *value.Env, pat ast.Pattern, v value.Value) error {
	switch p := pat.(type) {
	case *ast.IdentPattern:
		return env.Assign(p.Name, v)
	case *ast.ArrayPattern:
		var elems []value.Value
		if arr, ok := v.(*value.Array); ok {
			elems = arr.Elements()
		}
		for i, el := range p.Elements {
			if el == nil {
				continue
			}
			var ev2 value.Value = value.Undefined
			if i < len(elems) {
				ev2 = elems[i]
			}
			if err := ev.assignPattern(env, el.Pattern, ev2); err != nil {
				return err
			}
		}
		return nil
	case *ast.ObjectPattern:
		o, _ := v.(*value.Object)
		for _, prop := range p.Props {
			var pv value.Value = value.Undefined
			if o != nil {
				gv, err := ev.objectGet(o, prop.Key)
				if err != nil {
					return err
				}
				pv = gv
			}
			if err := ev.assignPattern(env, prop.Value.Pattern, pv); err != nil {
				return err
			}
		}
		return nil
	default:
		return runtimeErrf("unsupported assignment pattern")
	}
}

// makeFunction builds a *value.Function closing over env, per §4.4.
func (ev *Evaluator) makeFunction(lit *ast.FunctionLit, env *value.Env) *value.Function {
	fn := &value.Function{
		Handler:     lit.Handler,
		Name:        lit.Name,
		CapturedEnv: env,
		IsAsync:     lit.IsAsync,
		IsGenerator: lit.IsGenerator,
		IsArrow:     lit.IsArrow,
		IsMethod:    lit.IsMethod,
		FunctionID:  ev.allocFuncID(),
	}
	if !lit.IsArrow && !lit.IsMethod {
		fn.PrototypeObject = value.NewObject()
	}
	return fn
}

// Construct implements `new Callee(args)` for a user-defined (interpreted)
// constructor function: a fresh object is allocated with its prototype
// wired to Callee.prototype, the constructor runs with `this` bound to it,
// and the constructor's own explicit object-returning `return` (if any)
// wins over the allocated instance.
func (ev *Evaluator) Construct(fn *value.Function, args []value.Value) (value.Value, error) {
	if fn.Native != nil {
		return fn.Native(value.Undefined, args)
	}
	inst := value.NewObject()
	if fn.PrototypeObject != nil {
		inst.SetProto(fn.PrototypeObject)
	}
	if fn.ClassSuperConstructor != nil {
		if _, err := ev.runConstructorChain(fn.ClassSuperConstructor, inst, args); err != nil {
			return nil, err
		}
	}
	if err := ev.runInstanceFieldInits(fn, inst); err != nil {
		return nil, err
	}
	v, _, err := ev.runFunctionBody(fn, inst, fn, args)
	if err != nil {
		return nil, err
	}
	if o, ok := v.(*value.Object); ok {
		return o, nil
	}
	return inst, nil
}

func (ev *Evaluator) runConstructorChain(fn *value.Function, inst *value.Object, args []value.Value) (value.Value, error) {
	if fn.Native != nil {
		return fn.Native(inst, args)
	}
	v, _, err := ev.runFunctionBody(fn, inst, fn, args)
	return v, err
}
