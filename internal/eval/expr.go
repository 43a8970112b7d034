package eval

import (
	"github.com/module/scripthost/internal/ast"
	"github.com/module/scripthost/internal/value"
)

// evalExpr dispatches over every ast.Expr variant per §4.5.1.
func (ev *Evaluator) evalExpr(e ast.Expr, env *value.Env) (value.Value, error) {
	switch x := e.(type) {
	case *ast.NumberLit:
		return value.Number(x.Value), nil
	case *ast.FloatLit:
		return value.Float(x.Value), nil
	case *ast.BigIntLit:
		return parseBigIntLit(x.Value)
	case *ast.StringLit:
		return value.String(x.Value), nil
	case *ast.BoolLit:
		return value.Bool(x.Value), nil
	case *ast.NullLit:
		return value.Null, nil
	case *ast.UndefinedLit:
		return value.Undefined, nil
	case *ast.RegexLit:
		return ev.compileRegexLiteral(x.Pattern, x.Flags)
	case *ast.Ident:
		v, _, ok := env.Lookup(x.Name)
		if !ok {
			return nil, runtimeErrf("%s is not defined", x.Name)
		}
		return v, nil
	case *ast.ThisExpr:
		return env.This(), nil
	case *ast.SuperExpr:
		return env.This(), nil
	case *ast.UnaryExpr:
		return ev.evalUnary(x, env)
	case *ast.BinaryExpr:
		return ev.evalBinary(x, env)
	case *ast.TernaryExpr:
		c, err := ev.evalExpr(x.Cond, env)
		if err != nil {
			return nil, err
		}
		if value.Truthy(c) {
			return ev.evalExpr(x.Then, env)
		}
		return ev.evalExpr(x.Else, env)
	case *ast.SequenceExpr:
		var last value.Value = value.Undefined
		for _, se := range x.Exprs {
			v, err := ev.evalExpr(se, env)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	case *ast.SpreadExpr:
		return ev.evalExpr(x.Arg, env)
	case *ast.OptionalChain:
		v, err := ev.evalExpr(x.Expr, env)
		if err == errOptionalShortCircuit {
			return value.Undefined, nil
		}
		return v, err
	case *ast.ArrayLit:
		return ev.evalArrayLit(x, env)
	case *ast.ObjectLit:
		return ev.evalObjectLit(x, env)
	case *ast.TemplateLit:
		return ev.evalTemplateLit(x, env)
	case *ast.TaggedTemplate:
		return ev.evalTaggedTemplate(x, env)
	case *ast.FunctionLit:
		return ev.makeFunction(x, env), nil
	case *ast.ClassLit:
		return ev.evalClassLit(x, env)
	case *ast.CallExpr:
		return ev.evalCall(x, env)
	case *ast.MathMethod:
		return ev.evalMathMethod(x, env)
	case *ast.StringCharAt:
		return ev.evalStringCharAt(x, env)
	case *ast.ArrayMapLike:
		return ev.evalArrayMapLike(x, env)
	case *ast.IntlFormatterConstruct:
		return ev.evalIntlFormatterConstruct(x, env)
	case *ast.RegexTest:
		return ev.evalRegexTest(x, env)
	case *ast.DateNew:
		return ev.evalDateNew(x, env)
	case *ast.RegexNew:
		return ev.evalRegexNew(x, env)
	case *ast.PromiseCombinator:
		return ev.evalPromiseCombinator(x, env)
	case *ast.ObjectGet:
		t, err := ev.evalExpr(x.Target, env)
		if err != nil {
			return nil, err
		}
		if x.Optional && value.IsNullish(t) {
			return nil, errOptionalShortCircuit
		}
		return ev.GetProperty(t, x.Key)
	case *ast.ObjectPathGet:
		return ev.evalObjectPathGet(x, env)
	case *ast.MemberExpr:
		t, err := ev.evalExpr(x.Target, env)
		if err != nil {
			return nil, err
		}
		if x.Optional && value.IsNullish(t) {
			return nil, errOptionalShortCircuit
		}
		key, err := ev.memberKey(x, env)
		if err != nil {
			return nil, err
		}
		return ev.GetProperty(t, key)
	case *ast.PrivateMember:
		t, err := ev.evalExpr(x.Target, env)
		if err != nil {
			return nil, err
		}
		return ev.GetProperty(t, "#"+x.Name)
	case *ast.DomPropertyRef:
		t, err := ev.evalExpr(x.Target, env)
		if err != nil {
			return nil, err
		}
		n, ok := t.(value.Node)
		if !ok {
			return value.Undefined, nil
		}
		return ev.domPropertyGet(n.ID, x.Property)
	case *ast.MemberCall:
		return ev.evalMemberCall(x, env)
	case *ast.AwaitExpr:
		return ev.evalAwait(x, env)
	case *ast.YieldExpr:
		return ev.evalYield(x, env)
	case *ast.NewExpr:
		return ev.evalNew(x, env)
	case *ast.NewTargetExpr:
		return env.NewTarget(), nil
	case *ast.ImportMetaExpr:
		return value.NewObject(), nil
	case *ast.DynamicImport:
		return value.ResolvedPromise(value.NewObject()), nil
	default:
		return nil, runtimeErrf("unsupported expression type %T", e)
	}
}

func (ev *Evaluator) memberKey(x *ast.MemberExpr, env *value.Env) (string, error) {
	if !x.Computed {
		if id, ok := x.Property.(*ast.Ident); ok {
			return id.Name, nil
		}
		if sl, ok := x.Property.(*ast.StringLit); ok {
			return sl.Value, nil
		}
	}
	kv, err := ev.evalExpr(x.Property, env)
	if err != nil {
		return "", err
	}
	return ToDisplayString(kv), nil
}

// errOptionalShortCircuit propagates out of a nullish `?.` step so the
// enclosing *ast.OptionalChain can collapse the whole access chain to
// Undefined instead of evaluating the remaining steps against a nullish
// receiver.
var errOptionalShortCircuit = runtimeErrf("optional chain short-circuit")

func (ev *Evaluator) evalUnary(x *ast.UnaryExpr, env *value.Env) (value.Value, error) {
	if x.Op == ast.OpDelete {
		return ev.evalDelete(x.Operand, env)
	}
	if x.Op == ast.OpTypeof {
		if id, ok := x.Operand.(*ast.Ident); ok {
			if v, _, found := env.Lookup(id.Name); found {
				return value.String(typeOf(v)), nil
			}
			return value.String("undefined"), nil
		}
		v, err := ev.evalExpr(x.Operand, env)
		if err != nil {
			return nil, err
		}
		return value.String(typeOf(v)), nil
	}
	if x.Op == ast.OpPreIncr || x.Op == ast.OpPreDecr || x.Op == ast.OpPostIncr || x.Op == ast.OpPostDecr {
		return ev.evalIncrDecr(x, env)
	}
	v, err := ev.evalExpr(x.Operand, env)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case ast.OpPlus:
		return value.Float(ToFloat64(v)), nil
	case ast.OpMinus:
		if b, ok := v.(value.BigInt); ok {
			return negateBigInt(b), nil
		}
		return Arith("*", v, value.Number(-1))
	case ast.OpNot:
		return value.Bool(!value.Truthy(v)), nil
	case ast.OpBitNot:
		n, _ := isIntValued(ToFloat64(v))
		return value.Number(^n), nil
	case ast.OpVoid:
		return value.Undefined, nil
	}
	return nil, runtimeErrf("unsupported unary operator %q", x.Op)
}

func (ev *Evaluator) evalIncrDecr(x *ast.UnaryExpr, env *value.Env) (value.Value, error) {
	id, ok := x.Operand.(*ast.Ident)
	if !ok {
		return nil, runtimeErrf("invalid increment/decrement target")
	}
	cur, _, found := env.Lookup(id.Name)
	if !found {
		return nil, runtimeErrf("%s is not defined", id.Name)
	}
	delta := 1
	if x.Op == ast.OpPreDecr || x.Op == ast.OpPostDecr {
		delta = -1
	}
	nv, err := Arith("+", cur, value.Number(delta))
	if err != nil {
		return nil, err
	}
	if err := env.Assign(id.Name, nv); err != nil {
		return nil, err
	}
	if x.Op == ast.OpPreIncr || x.Op == ast.OpPreDecr {
		return nv, nil
	}
	return cur, nil
}

func (ev *Evaluator) evalDelete(operand ast.Expr, env *value.Env) (value.Value, error) {
	switch t := operand.(type) {
	case *ast.MemberExpr:
		target, err := ev.evalExpr(t.Target, env)
		if err != nil {
			return nil, err
		}
		key, err := ev.memberKey(t, env)
		if err != nil {
			return nil, err
		}
		switch o := target.(type) {
		case *value.Object:
			return value.Bool(o.DeleteOwn(key)), nil
		case *value.Array:
			return value.Bool(o.DeleteProperty(key)), nil
		}
		return value.Bool(true), nil
	default:
		return value.Bool(true), nil
	}
}

func typeOf(v value.Value) string {
	if v == nil || v.Kind() == value.KindUndefined {
		return "undefined"
	}
	switch v.Kind() {
	case value.KindNull:
		return "object"
	case value.KindBool:
		return "boolean"
	case value.KindNumber, value.KindFloat:
		return "number"
	case value.KindBigInt:
		return "bigint"
	case value.KindString:
		return "string"
	case value.KindSymbol:
		return "symbol"
	case value.KindFunction:
		return "function"
	default:
		return "object"
	}
}

func (ev *Evaluator) evalBinary(x *ast.BinaryExpr, env *value.Env) (value.Value, error) {
	switch x.Op {
	case "&&":
		l, err := ev.evalExpr(x.Left, env)
		if err != nil {
			return nil, err
		}
		if !value.Truthy(l) {
			return l, nil
		}
		return ev.evalExpr(x.Right, env)
	case "||":
		l, err := ev.evalExpr(x.Left, env)
		if err != nil {
			return nil, err
		}
		if value.Truthy(l) {
			return l, nil
		}
		return ev.evalExpr(x.Right, env)
	case "??":
		l, err := ev.evalExpr(x.Left, env)
		if err != nil {
			return nil, err
		}
		if !value.IsNullish(l) {
			return l, nil
		}
		return ev.evalExpr(x.Right, env)
	}

	l, err := ev.evalExpr(x.Left, env)
	if err != nil {
		return nil, err
	}
	r, err := ev.evalExpr(x.Right, env)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "+", "-", "*", "/", "%", "**":
		return Arith(x.Op, l, r)
	case "<", "<=", ">", ">=":
		b, err := Compare(x.Op, l, r)
		return value.Bool(b), err
	case "==":
		return value.Bool(LooseEquals(l, r)), nil
	case "!=":
		return value.Bool(!LooseEquals(l, r)), nil
	case "===":
		return value.Bool(value.StrictEquals(l, r)), nil
	case "!==":
		return value.Bool(!value.StrictEquals(l, r)), nil
	case "&", "|", "^", "<<", ">>", ">>>":
		return bitwiseOp(x.Op, l, r)
	case "in":
		return ev.evalIn(l, r)
	case "instanceof":
		return ev.evalInstanceof(l, r)
	default:
		return nil, runtimeErrf("unsupported binary operator %q", x.Op)
	}
}

func bitwiseOp(op string, l, r value.Value) (value.Value, error) {
	li, _ := isIntValued(ToFloat64(l))
	ri, _ := isIntValued(ToFloat64(r))
	li32, ri32 := int32(li), int32(ri)
	switch op {
	case "&":
		return value.Number(li32 & ri32), nil
	case "|":
		return value.Number(li32 | ri32), nil
	case "^":
		return value.Number(li32 ^ ri32), nil
	case "<<":
		return value.Number(li32 << (uint32(ri32) & 31)), nil
	case ">>":
		return value.Number(li32 >> (uint32(ri32) & 31)), nil
	case ">>>":
		return value.Number(uint32(li32) >> (uint32(ri32) & 31)), nil
	}
	return nil, runtimeErrf("unsupported bitwise operator %q", op)
}

func (ev *Evaluator) evalIn(l, r value.Value) (value.Value, error) {
	key := ToDisplayString(l)
	switch o := r.(type) {
	case *value.Object:
		if o.HasOwn(key) {
			return value.Bool(true), nil
		}
		proto := o.Proto()
		for !value.IsNullish(proto) {
			po, ok := proto.(*value.Object)
			if !ok {
				break
			}
			if po.HasOwn(key) {
				return value.Bool(true), nil
			}
			proto = po.Proto()
		}
		return value.Bool(false), nil
	case *value.Array:
		_, ok := o.Get(int(ToFloat64(l)))
		return value.Bool(ok), nil
	default:
		return value.Bool(false), nil
	}
}

func (ev *Evaluator) evalInstanceof(l, r value.Value) (value.Value, error) {
	ctor, ok := r.(*value.Function)
	if !ok || ctor.PrototypeObject == nil {
		return value.Bool(false), nil
	}
	o, ok := l.(*value.Object)
	if !ok {
		return value.Bool(false), nil
	}
	proto := o.Proto()
	for !value.IsNullish(proto) {
		if proto == value.Value(ctor.PrototypeObject) {
			return value.Bool(true), nil
		}
		po, ok := proto.(*value.Object)
		if !ok {
			break
		}
		proto = po.Proto()
	}
	return value.Bool(false), nil
}

func (ev *Evaluator) evalArrayLit(x *ast.ArrayLit, env *value.Env) (value.Value, error) {
	var elems []value.Value
	for _, el := range x.Elements {
		if el == nil {
			elems = append(elems, value.Undefined)
			continue
		}
		if sp, ok := el.(*ast.SpreadExpr); ok {
			sv, err := ev.evalExpr(sp.Arg, env)
			if err != nil {
				return nil, err
			}
			items, err := ev.iterableElements(sv)
			if err != nil {
				return nil, err
			}
			elems = append(elems, items...)
			continue
		}
		v, err := ev.evalExpr(el, env)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return value.NewArray(elems), nil
}

func (ev *Evaluator) evalObjectLit(x *ast.ObjectLit, env *value.Env) (value.Value, error) {
	o := value.NewObject()
	for _, entry := range x.Entries {
		key := ""
		if entry.Kind != ast.ObjSpread {
			if entry.Computed {
				kv, err := ev.evalExpr(entry.Key, env)
				if err != nil {
					return nil, err
				}
				key = ToDisplayString(kv)
			} else {
				key = staticKeyName(entry.Key)
			}
		}
		switch entry.Kind {
		case ast.ObjPair:
			v, err := ev.evalExpr(entry.Value, env)
			if err != nil {
				return nil, err
			}
			o.SetOwn(key, v)
		case ast.ObjProtoSetter:
			v, err := ev.evalExpr(entry.Value, env)
			if err != nil {
				return nil, err
			}
			o.SetProto(v)
		case ast.ObjMethod:
			fn := ev.makeFunction(entry.Method, env)
			o.SetOwn(key, fn)
		case ast.ObjGetter:
			fn := ev.makeFunction(entry.Method, env)
			o.SetGetter(key, fn)
		case ast.ObjSetter:
			fn := ev.makeFunction(entry.Method, env)
			o.SetSetter(key, fn)
		case ast.ObjSpread:
			sv, err := ev.evalExpr(entry.Value, env)
			if err != nil {
				return nil, err
			}
			if so, ok := sv.(*value.Object); ok {
				for _, k := range so.OwnKeys() {
					v, _ := so.OwnGet(k)
					o.SetOwn(k, v)
				}
			}
		}
	}
	return o, nil
}

func staticKeyName(k ast.Expr) string {
	switch t := k.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StringLit:
		return t.Value
	case *ast.NumberLit:
		return ToDisplayString(value.Number(t.Value))
	default:
		return ""
	}
}

func (ev *Evaluator) evalTemplateLit(x *ast.TemplateLit, env *value.Env) (value.Value, error) {
	var out string
	for i, cooked := range x.Cooked {
		out += cooked
		if i < len(x.Interpolations) {
			v, err := ev.evalExpr(x.Interpolations[i], env)
			if err != nil {
				return nil, err
			}
			out += ToDisplayString(v)
		}
	}
	return value.String(out), nil
}

func (ev *Evaluator) evalTaggedTemplate(x *ast.TaggedTemplate, env *value.Env) (value.Value, error) {
	tagv, err := ev.evalExpr(x.Tag, env)
	if err != nil {
		return nil, err
	}
	fn, ok := tagv.(*value.Function)
	if !ok {
		return nil, runtimeErrf("tagged template tag is not a function")
	}
	strs := make([]value.Value, len(x.Template.Cooked))
	for i, s := range x.Template.Cooked {
		strs[i] = value.String(s)
	}
	strsArr := value.NewArray(strs)
	strsArr.SetProperty("raw", value.NewArray(stringsToValues(x.Template.Raw)))
	args := []value.Value{strsArr}
	for _, interp := range x.Template.Interpolations {
		v, err := ev.evalExpr(interp, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return ev.CallFunction(fn, value.Undefined, args)
}

func stringsToValues(ss []string) []value.Value {
	out := make([]value.Value, len(ss))
	for i, s := range ss {
		out[i] = value.String(s)
	}
	return out
}

func (ev *Evaluator) evalStringCharAt(x *ast.StringCharAt, env *value.Env) (value.Value, error) {
	sv, err := ev.evalExpr(x.Value, env)
	if err != nil {
		return nil, err
	}
	iv, err := ev.evalExpr(x.Index, env)
	if err != nil {
		return nil, err
	}
	runes := []rune(ToDisplayString(sv))
	idx := int(ToFloat64(iv))
	if idx < 0 || idx >= len(runes) {
		return value.String(""), nil
	}
	return value.String(string(runes[idx])), nil
}

func (ev *Evaluator) evalObjectPathGet(x *ast.ObjectPathGet, env *value.Env) (value.Value, error) {
	if len(x.Path) == 0 {
		return value.Undefined, nil
	}
	v, _, ok := env.Lookup(x.Path[0])
	if !ok {
		return nil, runtimeErrf("%s is not defined", x.Path[0])
	}
	for _, seg := range x.Path[1:] {
		nv, err := ev.GetProperty(v, seg)
		if err != nil {
			return nil, err
		}
		v = nv
	}
	return v, nil
}

func parseBigIntLit(digits string) (value.Value, error) {
	return value.NewBigInt(bigIntFromDecimal(digits)), nil
}
