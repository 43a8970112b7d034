package eval

import (
	"github.com/module/scripthost/internal/ast"
	"github.com/module/scripthost/internal/domfacade"
	"github.com/module/scripthost/internal/eventdispatch"
	"github.com/module/scripthost/internal/value"
)

// execDomAssign implements `el.prop = expr` / `el.prop += expr` (§4.5.5's
// DOM-property write path), generalized from the teacher's ElementHandle
// setters which likewise funnel every mutating call through one frame.
func (ev *Evaluator) execDomAssign(st *ast.DomAssign, env *value.Env) error {
	tv, err := ev.evalExpr(st.Target, env)
	if err != nil {
		return err
	}
	node, ok := tv.(value.Node)
	if !ok {
		return nil
	}
	rv, err := ev.evalExpr(st.Expr, env)
	if err != nil {
		return err
	}
	if st.Op == "=" {
		return ev.domPropertySet(node.ID, st.Property, rv)
	}
	cur, err := ev.domPropertyGet(node.ID, st.Property)
	if err != nil {
		return err
	}
	nv, err := ev.applyCompound(st.Op, cur, rv)
	if err != nil {
		return err
	}
	return ev.domPropertySet(node.ID, st.Property, nv)
}

// execClassListCall implements el.classList.{add,remove,toggle,contains,replace,forEach}.
func (ev *Evaluator) execClassListCall(st *ast.ClassListCall, env *value.Env) error {
	tv, err := ev.evalExpr(st.Target, env)
	if err != nil {
		return err
	}
	node, ok := tv.(value.Node)
	if !ok {
		return nil
	}
	args := make([]string, 0, len(st.Args))
	for _, a := range st.Args {
		av, err := ev.evalExpr(a, env)
		if err != nil {
			return err
		}
		args = append(args, ToDisplayString(av))
	}
	classes := ev.Doc.ClassList(node.ID)
	switch st.Method {
	case "add":
		for _, c := range args {
			if !containsStr(classes, c) {
				classes = append(classes, c)
			}
		}
		ev.Doc.SetClassList(node.ID, classes)
	case "remove":
		classes = removeStrs(classes, args)
		ev.Doc.SetClassList(node.ID, classes)
	case "toggle":
		if len(args) == 0 {
			return nil
		}
		c := args[0]
		if containsStr(classes, c) {
			classes = removeStrs(classes, []string{c})
		} else {
			classes = append(classes, c)
		}
		ev.Doc.SetClassList(node.ID, classes)
	case "replace":
		if len(args) < 2 {
			return nil
		}
		for i, c := range classes {
			if c == args[0] {
				classes[i] = args[1]
			}
		}
		ev.Doc.SetClassList(node.ID, classes)
	case "forEach":
		if st.Callback == nil {
			return nil
		}
		fn := ev.makeFunction(st.Callback, env)
		for i, c := range classes {
			if _, err := ev.CallFunction(fn, value.Undefined, []value.Value{value.String(c), value.Number(i)}); err != nil {
				return err
			}
		}
	}
	return nil
}

func containsStr(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func removeStrs(ss []string, remove []string) []string {
	out := ss[:0:0]
	for _, x := range ss {
		if !containsStr(remove, x) {
			out = append(out, x)
		}
	}
	return out
}

// execNodeTreeMutation implements appendChild/prepend/removeChild/remove/
// replaceWith/insertBefore, per §4.5.5's node-tree mutation subset.
func (ev *Evaluator) execNodeTreeMutation(st *ast.NodeTreeMutation, env *value.Env) error {
	tv, err := ev.evalExpr(st.Target, env)
	if err != nil {
		return err
	}
	target, ok := tv.(value.Node)
	if !ok {
		return nil
	}
	argNode := func(i int) (value.Node, bool) {
		if i >= len(st.Args) {
			return value.Node{}, false
		}
		av, err := ev.evalExpr(st.Args[i], env)
		if err != nil {
			return value.Node{}, false
		}
		n, ok := av.(value.Node)
		return n, ok
	}

	switch st.Method {
	case "appendChild", "prepend":
		child, ok := argNode(0)
		if !ok {
			return nil
		}
		if st.Method == "appendChild" {
			ev.Doc.AppendChild(target.ID, child.ID)
		} else {
			ev.Doc.PrependChild(target.ID, child.ID)
		}
	case "removeChild":
		child, ok := argNode(0)
		if !ok {
			return nil
		}
		ev.Doc.RemoveChild(target.ID, child.ID)
	case "remove":
		ev.Doc.RemoveNode(target.ID)
	case "replaceWith":
		repl, ok := argNode(0)
		if !ok {
			return nil
		}
		ev.Doc.ReplaceWith(target.ID, repl.ID)
	case "insertBefore":
		child, ok := argNode(0)
		if !ok {
			return nil
		}
		ref, ok := argNode(1)
		if !ok {
			ev.Doc.AppendChild(target.ID, child.ID)
			return nil
		}
		ev.Doc.InsertBefore(target.ID, child.ID, ref.ID)
	}
	return nil
}

// execInsertAdjacent implements insertAdjacentElement/Text/HTML, wiring in
// Value's node itself (Element), a fresh text node holding Value's string
// form (Text), or the nodes parsed from Value as markup (HTML) at Position
// ("beforebegin","afterbegin","beforeend","afterend").
func (ev *Evaluator) execInsertAdjacent(st *ast.InsertAdjacent, env *value.Env) error {
	tv, err := ev.evalExpr(st.Target, env)
	if err != nil {
		return err
	}
	target, ok := tv.(value.Node)
	if !ok {
		return nil
	}
	posv, err := ev.evalExpr(st.Position, env)
	if err != nil {
		return err
	}
	position := ToDisplayString(posv)

	vv, err := ev.evalExpr(st.Value, env)
	if err != nil {
		return err
	}

	var newNode domfacade.NodeID
	switch st.Kind {
	case "Element":
		n, ok := vv.(value.Node)
		if !ok {
			return nil
		}
		newNode = n.ID
	case "Text":
		newNode = ev.Doc.CreateTextNode(ToDisplayString(vv))
	case "HTML":
		// No dedicated "parse fragment" verb on Document; approximate by
		// creating a container element and setting its innerHTML, then
		// reparenting its children at the requested position.
		container := ev.Doc.CreateElement("div")
		ev.Doc.SetInnerHTML(container, ToDisplayString(vv))
		newNode = container
	default:
		return nil
	}

	parent, hasParent := ev.Doc.Parent(target.ID)
	switch position {
	case "beforebegin":
		if hasParent {
			ev.Doc.InsertBefore(parent, newNode, target.ID)
		}
	case "afterbegin":
		ev.Doc.PrependChild(target.ID, newNode)
	case "beforeend":
		ev.Doc.AppendChild(target.ID, newNode)
	case "afterend":
		if hasParent {
			ev.Doc.InsertAfter(parent, newNode, target.ID)
		}
	}
	if st.Kind == "HTML" {
		if p, ok := ev.Doc.Parent(newNode); ok {
			for _, c := range ev.Doc.Children(newNode) {
				ev.Doc.InsertBefore(p, c, newNode)
			}
			ev.Doc.RemoveNode(newNode)
		}
	}
	return nil
}

// listenerKey identifies one addEventListener registration by the JS
// function identity plus (node, type, capture), mirroring the DOM's
// same-callback-same-registration dedup rule closely enough for
// removeEventListener to find its match.
type listenerKey struct {
	node    domfacade.NodeID
	etype   string
	capture bool
	fn      *value.Function
}

// execListenerMutation implements addEventListener/removeEventListener,
// per §4.5.4's listener registry.
func (ev *Evaluator) execListenerMutation(st *ast.ListenerMutation, env *value.Env) error {
	tv, err := ev.evalExpr(st.Target, env)
	if err != nil {
		return err
	}
	node, ok := tv.(value.Node)
	if !ok {
		return nil
	}
	etv, err := ev.evalExpr(st.EventType, env)
	if err != nil {
		return err
	}
	eventType := ToDisplayString(etv)
	hv, err := ev.evalExpr(st.Handler, env)
	if err != nil {
		return err
	}
	fn, ok := hv.(*value.Function)
	if !ok {
		return nil
	}

	capture, once := false, false
	if st.Options != nil {
		ov, err := ev.evalExpr(st.Options, env)
		if err != nil {
			return err
		}
		switch o := ov.(type) {
		case value.Bool:
			capture = bool(o)
		case *value.Object:
			if c, ok := o.OwnGet("capture"); ok {
				capture = value.Truthy(c)
			}
			if on, ok := o.OwnGet("once"); ok {
				once = value.Truthy(on)
			}
		}
	}

	key := listenerKey{node: node.ID, etype: eventType, capture: capture, fn: fn}
	if ev.listenerIDs == nil {
		ev.listenerIDs = make(map[listenerKey]uint64)
	}

	if st.Add {
		id := ev.Registry.Add(node.ID, eventType, capture, once, func(e *eventdispatch.Event) {
			ev.invokeListener(fn, node.ID, e)
		})
		ev.listenerIDs[key] = id
		return nil
	}

	if id, ok := ev.listenerIDs[key]; ok {
		ev.Registry.Remove(node.ID, eventType, capture, id)
		delete(ev.listenerIDs, key)
	}
	return nil
}

// invokeListener calls fn with a synthetic Event object exposing
// preventDefault/stopPropagation/stopImmediatePropagation as native methods
// closing directly over the eventdispatch.Event, per §4.5.4 step 3.
func (ev *Evaluator) invokeListener(fn *value.Function, node domfacade.NodeID, e *eventdispatch.Event) {
	eo := ev.buildEventObject(e, node)
	if _, err := ev.CallFunction(fn, value.Node{ID: node}, []value.Value{eo}); err != nil {
		ev.logUncaught("event listener", err)
	}
}

func (ev *Evaluator) buildEventObject(e *eventdispatch.Event, currentTarget domfacade.NodeID) *value.Object {
	o := value.NewObject()
	o.SetOwn("type", value.String(e.Type))
	o.SetOwn("target", value.Node{ID: e.Target})
	o.SetOwn("currentTarget", value.Node{ID: currentTarget})
	o.SetOwn("timeStamp", value.Number(e.TimeStamp))
	o.SetOwn("cancelable", value.Bool(e.Cancelable))
	o.SetOwn("bubbles", value.Bool(true))
	if sv, ok := e.State.(value.Value); ok {
		o.SetOwn("state", sv)
	}
	if ov, ok := e.OldState.(value.Value); ok {
		o.SetOwn("oldState", ov)
	}
	if nv, ok := e.NewState.(value.Value); ok {
		o.SetOwn("newState", nv)
	}
	o.SetGetter("defaultPrevented", &value.Function{Native: func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(e.DefaultPrevented()), nil
	}})
	o.SetOwn("preventDefault", &value.Function{Native: func(this value.Value, args []value.Value) (value.Value, error) {
		e.PreventDefault()
		return value.Undefined, nil
	}})
	o.SetOwn("stopPropagation", &value.Function{Native: func(this value.Value, args []value.Value) (value.Value, error) {
		e.StopPropagation()
		return value.Undefined, nil
	}})
	o.SetOwn("stopImmediatePropagation", &value.Function{Native: func(this value.Value, args []value.Value) (value.Value, error) {
		e.StopImmediatePropagation()
		return value.Undefined, nil
	}})
	return o
}

// execDispatchEvent implements el.dispatchEvent(event) over the three-phase
// dispatcher, per §4.5.4.
func (ev *Evaluator) execDispatchEvent(st *ast.DispatchEventStmt, env *value.Env) error {
	tv, err := ev.evalExpr(st.Target, env)
	if err != nil {
		return err
	}
	node, ok := tv.(value.Node)
	if !ok {
		return nil
	}
	evv, err := ev.evalExpr(st.Event, env)
	if err != nil {
		return err
	}
	eventType := "event"
	cancelable := false
	if eo, ok := evv.(*value.Object); ok {
		if t, ok2 := eo.OwnGet("type"); ok2 {
			eventType = ToDisplayString(t)
		}
		if c, ok2 := eo.OwnGet("cancelable"); ok2 {
			cancelable = value.Truthy(c)
		}
	}
	ev.Registry.PurgeDead(ev.Doc.Exists)
	eventdispatch.Dispatch(ev.Doc, ev.Registry, eventType, node.ID, cancelable, ev.Loop.Now())
	return nil
}

// execSetTimeout implements setTimeout/setInterval at statement level (§6's
// scheduler surface), optionally binding the returned timer id to a fresh
// variable when lowered from `let id = setTimeout(...)`.
func (ev *Evaluator) execSetTimeout(st *ast.SetTimeoutStmt, env *value.Env) error {
	hv, err := ev.evalExpr(st.Handler, env)
	if err != nil {
		return err
	}
	fn, ok := hv.(*value.Function)
	if !ok {
		return nil
	}
	var delay int64
	if st.Delay != nil {
		dv, err := ev.evalExpr(st.Delay, env)
		if err != nil {
			return err
		}
		delay, _ = isIntValued(ToFloat64(dv))
	}
	args := make([]value.Value, 0, len(st.Args))
	for _, a := range st.Args {
		av, err := ev.evalExpr(a, env)
		if err != nil {
			return err
		}
		args = append(args, av)
	}
	handler := func() {
		if _, err := ev.CallFunction(fn, value.Undefined, args); err != nil {
			ev.logUncaught("timer", err)
		}
	}
	var id int64
	if st.Interval {
		id = ev.Loop.SetInterval(delay, handler)
	} else {
		id = ev.Loop.SetTimeout(delay, handler)
	}
	if st.AssignTo != "" {
		env.Declare(st.AssignTo, value.Number(id), false)
	}
	return nil
}

// execArrayForEach implements Array.prototype.forEach at statement level.
func (ev *Evaluator) execArrayForEach(st *ast.ArrayForEachStmt, env *value.Env) error {
	tv, err := ev.evalExpr(st.Target, env)
	if err != nil {
		return err
	}
	arr, ok := tv.(*value.Array)
	if !ok {
		return nil
	}
	if st.Callback == nil {
		return nil
	}
	fn := ev.makeFunction(st.Callback, env)
	for i, el := range arr.Elements() {
		if _, err := ev.CallFunction(fn, value.Undefined, []value.Value{el, value.Number(i), arr}); err != nil {
			return err
		}
	}
	return nil
}

// execForEachQuerySelectorAll implements
// `for (const el of document.querySelectorAll(sel)) { ... }`-shaped loops,
// lowered by the parser into a dedicated AST node so the evaluator can bind
// VarName/IndexVar directly instead of re-deriving them from a generic
// for-of over a NodeList.
func (ev *Evaluator) execForEachQuerySelectorAll(st *ast.ForEachQuerySelectorAllStmt, env *value.Env) (flow, error) {
	sv, err := ev.evalExpr(st.Selector, env)
	if err != nil {
		return flow{}, err
	}
	nodes := ev.Doc.QuerySelectorAll(ToDisplayString(sv))
	for i, n := range nodes {
		iterEnv := value.NewChildEnv(env)
		iterEnv.Declare(st.VarName, value.Node{ID: n}, false)
		if st.IndexVar != "" {
			iterEnv.Declare(st.IndexVar, value.Number(i), false)
		}
		f, err := ev.execBlock(st.Body, iterEnv)
		if err != nil {
			return flow{}, err
		}
		if f.kind == flowBreak {
			break
		}
		if f.kind == flowReturn {
			return f, nil
		}
	}
	return normalFlow, nil
}
