package eval

import (
	"github.com/module/scripthost/internal/ast"
	"github.com/module/scripthost/internal/value"
)

// evalCompoundAssign implements `name op= expr` for every compound operator
// recognized by the parser's assignOps table, resolving logical-assignment
// short-circuiting (&&=, ||=, ??=) before touching the environment.
func (ev *Evaluator) evalCompoundAssign(env *value.Env, name, op string, rhs ast.Expr) (value.Value, error) {
	cur, _, ok := env.Lookup(name)
	if !ok {
		return nil, runtimeErrf("%s is not defined", name)
	}

	switch op {
	case "&&=":
		if !value.Truthy(cur) {
			return cur, nil
		}
		v, err := ev.evalExpr(rhs, env)
		if err != nil {
			return nil, err
		}
		return v, env.Assign(name, v)
	case "||=":
		if value.Truthy(cur) {
			return cur, nil
		}
		v, err := ev.evalExpr(rhs, env)
		if err != nil {
			return nil, err
		}
		return v, env.Assign(name, v)
	case "??=":
		if !value.IsNullish(cur) {
			return cur, nil
		}
		v, err := ev.evalExpr(rhs, env)
		if err != nil {
			return nil, err
		}
		return v, env.Assign(name, v)
	}

	rv, err := ev.evalExpr(rhs, env)
	if err != nil {
		return nil, err
	}

	if op == "=" {
		return rv, env.Assign(name, rv)
	}

	nv, err := ev.applyCompound(op, cur, rv)
	if err != nil {
		return nil, err
	}
	return nv, env.Assign(name, nv)
}

// applyCompound computes the new value for a non-"=" compound operator,
// shared by plain VarAssign and DomAssign (the DOM-property flavor of
// compound assignment, §4.2's DomAssign lowering).
func (ev *Evaluator) applyCompound(op string, cur, rv value.Value) (value.Value, error) {
	switch op {
	case "+=":
		return Arith("+", cur, rv)
	case "-=":
		return Arith("-", cur, rv)
	case "*=":
		return Arith("*", cur, rv)
	case "/=":
		return Arith("/", cur, rv)
	case "%=":
		return Arith("%", cur, rv)
	case "**=":
		return Arith("**", cur, rv)
	case "&=":
		return bitwiseOp("&", cur, rv)
	case "|=":
		return bitwiseOp("|", cur, rv)
	case "^=":
		return bitwiseOp("^", cur, rv)
	case "<<=":
		return bitwiseOp("<<", cur, rv)
	case ">>=":
		return bitwiseOp(">>", cur, rv)
	case ">>>=":
		return bitwiseOp(">>>", cur, rv)
	default:
		return nil, runtimeErrf("unsupported compound assignment operator %q", op)
	}
}
