package eval

import (
	"github.com/module/scripthost/internal/ast"
	"github.com/module/scripthost/internal/value"
)

// evalClassLit builds a class expression/declaration per §4.4: a
// Function value whose PrototypeObject carries instance methods/getters/
// setters, whose own funcProps (via ev.SetProperty) carry static members,
// and whose ClassSuperConstructor chains `super(...)` to the base class.
// Field initializers run at the top of the (possibly synthesized) default
// constructor body, ahead of any user statements, mirroring class-fields
// semantics without a dedicated AST node for them.
func (ev *Evaluator) evalClassLit(x *ast.ClassLit, env *value.Env) (value.Value, error) {
	var super *value.Function
	if x.SuperClass != nil {
		sv, err := ev.evalExpr(x.SuperClass, env)
		if err != nil {
			return nil, err
		}
		super, _ = sv.(*value.Function)
	}

	proto := value.NewObject()
	if super != nil && super.PrototypeObject != nil {
		proto.SetProto(super.PrototypeObject)
	}

	var ctorMethod *ast.ClassMethod
	var instanceFields []ast.ClassField
	var staticFields []ast.ClassField
	for i := range x.Methods {
		m := &x.Methods[i]
		if m.Kind == "constructor" {
			ctorMethod = m
		}
	}
	for _, f := range x.Fields {
		if f.Static {
			staticFields = append(staticFields, f)
		} else {
			instanceFields = append(instanceFields, f)
		}
	}

	ctorHandler := &ast.FunctionHandler{Body: []ast.Stmt{}}
	if ctorMethod != nil {
		ctorHandler = ctorMethod.Fn.Handler
	} else if super != nil {
		// Implicit default constructor forwards every argument to super.
		ctorHandler = &ast.FunctionHandler{
			Params: []ast.Param{{Pattern: &ast.IdentPattern{Name: "__args__"}, Rest: true}},
		}
	}

	ctor := &value.Function{
		Handler:         ctorHandler,
		Name:            x.Name,
		CapturedEnv:     env,
		PrototypeObject: proto,
		FunctionID:      ev.allocFuncID(),
		ClassSuperConstructor: super,
	}
	ctor.Name = x.Name

	// Stash field initializers + captured env on the side so Construct can
	// run them against the freshly allocated instance before the body.
	ev.classFieldInits[ctor.FunctionID] = classFieldSet{fields: instanceFields, env: env}

	proto.SetOwn("constructor", ctor)

	for i := range x.Methods {
		m := &x.Methods[i]
		if m.Kind == "constructor" {
			continue
		}
		key, err := ev.classMemberKey(m.Key, m.Computed, m.Private, env)
		if err != nil {
			return nil, err
		}
		fn := ev.makeFunction(m.Fn, env)
		fn.IsMethod = true
		target := proto
		if m.Static {
			// Static members live as expando "properties" on the
			// constructor function itself.
			ev.setStaticMember(ctor, key, m.Kind, fn)
			continue
		}
		switch m.Kind {
		case "get":
			target.SetGetter(key, fn)
		case "set":
			target.SetSetter(key, fn)
		default:
			target.SetOwn(key, fn)
		}
	}

	for _, f := range staticFields {
		key, err := ev.classMemberKey(f.Key, f.Computed, f.Private, env)
		if err != nil {
			return nil, err
		}
		var v value.Value = value.Undefined
		if f.Value != nil {
			staticEnv := value.NewChildEnv(env)
			staticEnv.SetThis(ctor)
			fv, err := ev.evalExpr(f.Value, staticEnv)
			if err != nil {
				return nil, err
			}
			v = fv
		}
		ev.funcPropsFor(ctor.FunctionID).Set(key, v)
	}

	return ctor, nil
}

// classFieldSet is the per-class bundle of instance field initializers
// Construct replays against each new instance.
type classFieldSet struct {
	fields []ast.ClassField
	env    *value.Env
}

func (ev *Evaluator) setStaticMember(ctor *value.Function, key, kind string, fn *value.Function) {
	switch kind {
	case "get":
		ev.staticGetters[staticMemberKey(ctor.FunctionID, key)] = fn
	case "set":
		ev.staticSetters[staticMemberKey(ctor.FunctionID, key)] = fn
	default:
		ev.funcPropsFor(ctor.FunctionID).Set(key, fn)
	}
}

func (ev *Evaluator) classMemberKey(key ast.Expr, computed, private bool, env *value.Env) (string, error) {
	if private {
		if id, ok := key.(*ast.Ident); ok {
			return "#" + id.Name, nil
		}
	}
	if !computed {
		switch k := key.(type) {
		case *ast.Ident:
			return k.Name, nil
		case *ast.StringLit:
			return k.Value, nil
		}
	}
	kv, err := ev.evalExpr(key, env)
	if err != nil {
		return "", err
	}
	return ToDisplayString(kv), nil
}

// runInstanceFieldInits initializes every instance field declared on ctor
// (and, transitively, nothing else — JS class fields are not inherited as
// AST, only via the super() call already having run) against inst.
func (ev *Evaluator) runInstanceFieldInits(ctor *value.Function, inst *value.Object) error {
	set, ok := ev.classFieldInits[ctor.FunctionID]
	if !ok {
		return nil
	}
	for _, f := range set.fields {
		key, err := ev.classMemberKey(f.Key, f.Computed, f.Private, set.env)
		if err != nil {
			return err
		}
		var v value.Value = value.Undefined
		if f.Value != nil {
			fieldEnv := value.NewChildEnv(set.env)
			fieldEnv.SetThis(inst)
			fv, err := ev.evalExpr(f.Value, fieldEnv)
			if err != nil {
				return err
			}
			v = fv
		}
		inst.SetOwn(key, v)
	}
	return nil
}
