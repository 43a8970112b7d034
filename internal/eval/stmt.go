package eval

import (
	"github.com/module/scripthost/internal/ast"
	"github.com/module/scripthost/internal/value"
)

// flowKind is the control-flow signal a statement can produce, per §4.5.2.
type flowKind int

const (
	flowNormal flowKind = iota
	flowReturn
	flowBreak
	flowContinue
)

type flow struct {
	kind  flowKind
	value value.Value
	label string
}

var normalFlow = flow{kind: flowNormal}

// execBlock hoists every top-level function declaration into env (binding
// the live *value.Env pointer as Function.CapturedEnv, so later mutations to
// sibling bindings are observed for free — no separate pending-declaration
// snapshot is needed, per §3.3/§4.4's hoisting requirement), then executes
// each statement in order.
func (ev *Evaluator) execBlock(stmts []ast.Stmt, env *value.Env) (flow, error) {
	for _, s := range stmts {
		if fd, ok := s.(*ast.FunctionDecl); ok {
			env.Declare(fd.Fn.Name, ev.makeFunction(fd.Fn, env), false)
		}
	}
	for _, s := range stmts {
		f, err := ev.execStmt(s, env)
		if err != nil {
			return flow{}, err
		}
		if f.kind != flowNormal {
			return f, nil
		}
	}
	return normalFlow, nil
}

func (ev *Evaluator) execStmt(s ast.Stmt, env *value.Env) (flow, error) {
	switch st := s.(type) {
	case *ast.VarDecl:
		var v value.Value = value.Undefined
		if st.Expr != nil {
			rv, err := ev.evalExpr(st.Expr, env)
			if err != nil {
				return flow{}, err
			}
			v = rv
		}
		env.Declare(st.Name, v, st.Kind == ast.VarConst)
		return normalFlow, nil

	case *ast.DestructuringDecl:
		v, err := ev.evalExpr(st.Expr, env)
		if err != nil {
			return flow{}, err
		}
		if err := ev.bindPattern(env, st.Pattern, v, st.Kind == ast.VarConst); err != nil {
			return flow{}, err
		}
		return normalFlow, nil

	case *ast.VarAssign:
		v, err := ev.evalCompoundAssign(env, st.Name, st.Op, st.Expr)
		if err != nil {
			return flow{}, err
		}
		_ = v
		return normalFlow, nil

	case *ast.DestructuringAssign:
		v, err := ev.evalExpr(st.Expr, env)
		if err != nil {
			return flow{}, err
		}
		if err := ev.assignPattern(env, st.Pattern, v); err != nil {
			return flow{}, err
		}
		return normalFlow, nil

	case *ast.VarUpdate:
		cur, _, ok := env.Lookup(st.Name)
		if !ok {
			return flow{}, runtimeErrf("%s is not defined", st.Name)
		}
		nv, err := Arith("+", cur, value.Number(st.Delta))
		if err != nil {
			return flow{}, err
		}
		if err := env.Assign(st.Name, nv); err != nil {
			return flow{}, err
		}
		return normalFlow, nil

	case *ast.BlockStmt:
		return ev.execBlock(st.Body, value.NewChildEnv(env))

	case *ast.IfStmt:
		c, err := ev.evalExpr(st.Cond, env)
		if err != nil {
			return flow{}, err
		}
		if value.Truthy(c) {
			return ev.execStmt(st.Then, env)
		}
		if st.Else != nil {
			return ev.execStmt(st.Else, env)
		}
		return normalFlow, nil

	case *ast.WhileStmt:
		return ev.runWhile(st.Cond, st.Body, st.Label, env)

	case *ast.DoWhileStmt:
		return ev.runDoWhile(st.Cond, st.Body, st.Label, env)

	case *ast.ForStmt:
		return ev.runFor(st, env)

	case *ast.ForInStmt:
		return ev.runForIn(st, env)

	case *ast.ForOfStmt:
		return ev.runForOf(st, env)

	case *ast.LabeledStmt:
		f, err := ev.execStmt(st.Body, env)
		if err != nil {
			return flow{}, err
		}
		if (f.kind == flowBreak || f.kind == flowContinue) && f.label == st.Label {
			return normalFlow, nil
		}
		return f, nil

	case *ast.BreakStmt:
		return flow{kind: flowBreak, label: st.Label}, nil

	case *ast.ContinueStmt:
		return flow{kind: flowContinue, label: st.Label}, nil

	case *ast.ReturnStmt:
		var v value.Value = value.Undefined
		if st.Expr != nil {
			rv, err := ev.evalExpr(st.Expr, env)
			if err != nil {
				return flow{}, err
			}
			v = rv
		}
		return flow{kind: flowReturn, value: v}, nil

	case *ast.ThrowStmt:
		v, err := ev.evalExpr(st.Expr, env)
		if err != nil {
			return flow{}, err
		}
		return flow{}, thrown(v)

	case *ast.TryStmt:
		return ev.runTry(st, env)

	case *ast.SwitchStmt:
		return ev.runSwitch(st, env)

	case *ast.FunctionDecl:
		// Already hoisted by execBlock; nothing to do on second pass.
		return normalFlow, nil

	case *ast.ClassDecl:
		cv, err := ev.evalClassLit(st.Class, env)
		if err != nil {
			return flow{}, err
		}
		env.Declare(st.Class.Name, cv, false)
		return normalFlow, nil

	case *ast.DomAssign:
		return normalFlow, ev.execDomAssign(st, env)

	case *ast.ClassListCall:
		return normalFlow, ev.execClassListCall(st, env)

	case *ast.NodeTreeMutation:
		return normalFlow, ev.execNodeTreeMutation(st, env)

	case *ast.InsertAdjacent:
		return normalFlow, ev.execInsertAdjacent(st, env)

	case *ast.ListenerMutation:
		return normalFlow, ev.execListenerMutation(st, env)

	case *ast.DispatchEventStmt:
		return normalFlow, ev.execDispatchEvent(st, env)

	case *ast.DomMethodCall:
		// Never constructed by the parser; kept only so the Stmt switch stays
		// exhaustive against future parser changes.
		return normalFlow, nil

	case *ast.SetTimeoutStmt:
		return normalFlow, ev.execSetTimeout(st, env)

	case *ast.ClearTimeoutStmt:
		idv, err := ev.evalExpr(st.ID, env)
		if err != nil {
			return flow{}, err
		}
		id, _ := isIntValued(ToFloat64(idv))
		ev.Loop.ClearTimeout(id)
		return normalFlow, nil

	case *ast.QueueMicrotaskStmt:
		h, err := ev.evalExpr(st.Handler, env)
		if err != nil {
			return flow{}, err
		}
		fn, ok := h.(*value.Function)
		if !ok {
			return flow{}, runtimeErrf("queueMicrotask argument is not a function")
		}
		ev.Loop.QueueMicrotask(func() {
			if _, err := ev.CallFunction(fn, value.Undefined, nil); err != nil {
				ev.logUncaught("queueMicrotask", err)
			}
		})
		return normalFlow, nil

	case *ast.ArrayForEachStmt:
		return normalFlow, ev.execArrayForEach(st, env)

	case *ast.ForEachQuerySelectorAllStmt:
		return ev.execForEachQuerySelectorAll(st, env)

	case *ast.DebuggerStmt, *ast.EmptyStmt:
		return normalFlow, nil

	case *ast.ImportDecl, *ast.ExportDecl:
		// Module linkage is resolved before evaluation; a top-level script
		// harness never reaches these at runtime.
		return normalFlow, nil

	case *ast.ExprStmt:
		_, err := ev.evalExpr(st.Expr, env)
		return normalFlow, err

	default:
		return flow{}, runtimeErrf("unsupported statement type %T", s)
	}
}

func (ev *Evaluator) runWhile(cond ast.Expr, body ast.Stmt, label string, env *value.Env) (flow, error) {
	for {
		c, err := ev.evalExpr(cond, env)
		if err != nil {
			return flow{}, err
		}
		if !value.Truthy(c) {
			return normalFlow, nil
		}
		f, err := ev.execStmt(body, env)
		if err != nil {
			return flow{}, err
		}
		switch {
		case f.kind == flowBreak && (f.label == "" || f.label == label):
			return normalFlow, nil
		case f.kind == flowContinue && (f.label == "" || f.label == label):
			continue
		case f.kind == flowReturn, f.kind == flowBreak, f.kind == flowContinue:
			return f, nil
		}
	}
}

func (ev *Evaluator) runDoWhile(cond ast.Expr, body ast.Stmt, label string, env *value.Env) (flow, error) {
	for {
		f, err := ev.execStmt(body, env)
		if err != nil {
			return flow{}, err
		}
		switch {
		case f.kind == flowBreak && (f.label == "" || f.label == label):
			return normalFlow, nil
		case f.kind == flowReturn, (f.kind == flowBreak || f.kind == flowContinue) && f.label != "" && f.label != label:
			return f, nil
		}
		c, err := ev.evalExpr(cond, env)
		if err != nil {
			return flow{}, err
		}
		if !value.Truthy(c) {
			return normalFlow, nil
		}
	}
}

// runFor executes a C-style for loop. Per the documented simplification,
// every iteration shares one environment frame rather than a fresh per-
// iteration copy, so closures created in distinct iterations of a `let`
// loop variable observe the final value rather than their own snapshot.
func (ev *Evaluator) runFor(st *ast.ForStmt, outer *value.Env) (flow, error) {
	env := value.NewChildEnv(outer)
	if st.Init != nil {
		if _, err := ev.execStmt(st.Init, env); err != nil {
			return flow{}, err
		}
	}
	for {
		if st.Cond != nil {
			c, err := ev.evalExpr(st.Cond, env)
			if err != nil {
				return flow{}, err
			}
			if !value.Truthy(c) {
				return normalFlow, nil
			}
		}
		f, err := ev.execStmt(st.Body, env)
		if err != nil {
			return flow{}, err
		}
		switch {
		case f.kind == flowBreak && (f.label == "" || f.label == st.Label):
			return normalFlow, nil
		case f.kind == flowReturn:
			return f, nil
		case (f.kind == flowBreak || f.kind == flowContinue) && f.label != "" && f.label != st.Label:
			return f, nil
		}
		if st.Post != nil {
			if _, err := ev.execStmt(st.Post, env); err != nil {
				return flow{}, err
			}
		}
	}
}

func (ev *Evaluator) runForIn(st *ast.ForInStmt, outer *value.Env) (flow, error) {
	target, err := ev.evalExpr(st.Expr, outer)
	if err != nil {
		return flow{}, err
	}
	var keys []string
	switch t := target.(type) {
	case *value.Object:
		keys = t.OwnKeys()
	case *value.Array:
		for i := 0; i < t.Len(); i++ {
			keys = append(keys, ToDisplayString(value.Number(i)))
		}
	}
	for _, k := range keys {
		env := value.NewChildEnv(outer)
		env.Declare(st.Name, value.String(k), false)
		f, err := ev.execStmt(st.Body, env)
		if err != nil {
			return flow{}, err
		}
		switch {
		case f.kind == flowBreak && (f.label == "" || f.label == st.Label):
			return normalFlow, nil
		case f.kind == flowReturn:
			return f, nil
		case f.kind == flowContinue && (f.label == "" || f.label == st.Label):
			continue
		case f.kind == flowBreak || f.kind == flowContinue:
			return f, nil
		}
	}
	return normalFlow, nil
}

func (ev *Evaluator) runForOf(st *ast.ForOfStmt, outer *value.Env) (flow, error) {
	target, err := ev.evalExpr(st.Expr, outer)
	if err != nil {
		return flow{}, err
	}
	items, err := ev.iterableElements(target)
	if err != nil {
		return flow{}, err
	}
	for _, item := range items {
		env := value.NewChildEnv(outer)
		env.Declare(st.Name, item, false)
		f, err := ev.execStmt(st.Body, env)
		if err != nil {
			return flow{}, err
		}
		switch {
		case f.kind == flowBreak && (f.label == "" || f.label == st.Label):
			return normalFlow, nil
		case f.kind == flowReturn:
			return f, nil
		case f.kind == flowContinue && (f.label == "" || f.label == st.Label):
			continue
		case f.kind == flowBreak || f.kind == flowContinue:
			return f, nil
		}
	}
	return normalFlow, nil
}

// iterableElements materializes the elements a for-of loop walks, per the
// small set of iterables §4 models (arrays, strings, Map, Set, NodeList).
func (ev *Evaluator) iterableElements(v value.Value) ([]value.Value, error) {
	switch t := v.(type) {
	case *value.Array:
		return append([]value.Value{}, t.Elements()...), nil
	case value.String:
		runes := []rune(string(t))
		out := make([]value.Value, len(runes))
		for i, r := range runes {
			out[i] = value.String(string(r))
		}
		return out, nil
	case *value.SetObject:
		return t.Values(), nil
	case *value.MapObject:
		var out []value.Value
		for _, pair := range t.Entries() {
			out = append(out, value.NewArray([]value.Value{pair[0], pair[1]}))
		}
		return out, nil
	case value.NodeList:
		out := make([]value.Value, len(t.IDs))
		for i, id := range t.IDs {
			out[i] = value.Node{ID: id}
		}
		return out, nil
	default:
		return nil, runtimeErrf("value is not iterable")
	}
}

func (ev *Evaluator) runTry(st *ast.TryStmt, env *value.Env) (flow, error) {
	f, err := ev.execBlock(st.Try.Body, value.NewChildEnv(env))
	if err != nil && st.Catch != nil {
		catchEnv := value.NewChildEnv(env)
		if st.Catch.Pattern != nil {
			var caught value.Value = value.Undefined
			if cv, ok := ThrownValue(err); ok {
				caught = cv
			} else {
				caught = value.String(err.Error())
			}
			if berr := ev.bindPattern(catchEnv, st.Catch.Pattern, caught, false); berr != nil {
				return flow{}, berr
			}
		}
		f, err = ev.execBlock(st.Catch.Body.Body, catchEnv)
	}
	if st.Finally != nil {
		ff, ferr := ev.execBlock(st.Finally.Body, value.NewChildEnv(env))
		if ferr != nil {
			return flow{}, ferr
		}
		if ff.kind != flowNormal {
			return ff, nil
		}
	}
	return f, err
}

func (ev *Evaluator) runSwitch(st *ast.SwitchStmt, env *value.Env) (flow, error) {
	d, err := ev.evalExpr(st.Discriminant, env)
	if err != nil {
		return flow{}, err
	}
	switchEnv := value.NewChildEnv(env)
	matched := -1
	for i, c := range st.Cases {
		if c.Test == nil {
			continue
		}
		tv, err := ev.evalExpr(c.Test, switchEnv)
		if err != nil {
			return flow{}, err
		}
		if value.StrictEquals(d, tv) {
			matched = i
			break
		}
	}
	if matched == -1 {
		for i, c := range st.Cases {
			if c.Test == nil {
				matched = i
				break
			}
		}
	}
	if matched == -1 {
		return normalFlow, nil
	}
	for i := matched; i < len(st.Cases); i++ {
		f, err := ev.execBlock(st.Cases[i].Body, switchEnv)
		if err != nil {
			return flow{}, err
		}
		if f.kind == flowBreak && f.label == "" {
			return normalFlow, nil
		}
		if f.kind != flowNormal {
			return f, nil
		}
	}
	return normalFlow, nil
}
