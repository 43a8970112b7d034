package eval

import (
	"github.com/module/scripthost/internal/domfacade"
	"github.com/module/scripthost/internal/eventdispatch"
	"github.com/module/scripthost/internal/value"
)

// dispatchNodeMethod implements the element/node instance methods reached
// through the generic MemberCall fallback — the expression-position
// counterpart to dom_stmt.go's statement-level DOM lowering (appendChild
// used as a statement goes through execNodeTreeMutation; the same call
// used as a sub-expression, e.g. `const child = parent.appendChild(x)`,
// lands here instead).
//
// querySelector/querySelectorAll have no node-scoped form on
// domfacade.Document (only the document-global query and the node-scoped
// Closest/MatchesSelector), so `element.querySelector(...)` approximates
// by running the global query and keeping only matches that are
// descendants of the receiver — close enough for the flat-ish trees this
// harness's scripts build, and documented as a deliberate simplification.
func (ev *Evaluator) dispatchNodeMethod(n value.Node, method string, args []value.Value) (value.Value, bool, error) {
	id := n.ID
	switch method {
	case "getAttribute":
		v, ok := ev.Doc.Attr(id, argStr(args, 0))
		if !ok {
			return value.Null, true, nil
		}
		return value.String(v), true, nil
	case "setAttribute":
		ev.Doc.SetAttr(id, argStr(args, 0), argStr(args, 1))
		return value.Undefined, true, nil
	case "removeAttribute":
		ev.Doc.RemoveAttr(id, argStr(args, 0))
		return value.Undefined, true, nil
	case "hasAttribute":
		_, ok := ev.Doc.Attr(id, argStr(args, 0))
		return value.Bool(ok), true, nil
	case "matches":
		return value.Bool(ev.Doc.MatchesSelector(id, argStr(args, 0))), true, nil
	case "closest":
		anc, ok := ev.Doc.Closest(id, argStr(args, 0))
		if !ok {
			return value.Null, true, nil
		}
		return value.Node{ID: anc}, true, nil
	case "contains":
		other, ok := firstArg(args).(value.Node)
		if !ok {
			return value.Bool(false), true, nil
		}
		return value.Bool(ev.nodeContains(id, other.ID)), true, nil
	case "querySelector":
		sel := argStr(args, 0)
		for _, cand := range ev.Doc.QuerySelectorAll(sel) {
			if ev.nodeContains(id, cand) && cand != id {
				return value.Node{ID: cand}, true, nil
			}
		}
		return value.Null, true, nil
	case "querySelectorAll":
		sel := argStr(args, 0)
		var out []domfacade.NodeID
		for _, cand := range ev.Doc.QuerySelectorAll(sel) {
			if ev.nodeContains(id, cand) && cand != id {
				out = append(out, cand)
			}
		}
		return value.NodeList{IDs: out}, true, nil
	case "appendChild", "prepend":
		child, ok := firstArg(args).(value.Node)
		if !ok {
			return value.Undefined, true, nil
		}
		if method == "appendChild" {
			ev.Doc.AppendChild(id, child.ID)
		} else {
			ev.Doc.PrependChild(id, child.ID)
		}
		return child, true, nil
	case "removeChild":
		child, ok := firstArg(args).(value.Node)
		if !ok {
			return value.Undefined, true, nil
		}
		ev.Doc.RemoveChild(id, child.ID)
		return child, true, nil
	case "remove":
		ev.Doc.RemoveNode(id)
		return value.Undefined, true, nil
	case "replaceWith":
		repl, ok := firstArg(args).(value.Node)
		if !ok {
			return value.Undefined, true, nil
		}
		ev.Doc.ReplaceWith(id, repl.ID)
		return value.Undefined, true, nil
	case "insertBefore":
		child, ok := firstArg(args).(value.Node)
		if !ok {
			return value.Undefined, true, nil
		}
		if len(args) > 1 {
			if ref, ok := args[1].(value.Node); ok {
				ev.Doc.InsertBefore(id, child.ID, ref.ID)
				return child, true, nil
			}
		}
		ev.Doc.AppendChild(id, child.ID)
		return child, true, nil
	case "addEventListener":
		return ev.nodeAddEventListener(id, args), true, nil
	case "removeEventListener":
		return ev.nodeRemoveEventListener(id, args), true, nil
	case "dispatchEvent":
		eventType, cancelable := "event", false
		if eo, ok := firstArg(args).(*value.Object); ok {
			if t, ok2 := eo.OwnGet("type"); ok2 {
				eventType = ToDisplayString(t)
			}
			if c, ok2 := eo.OwnGet("cancelable"); ok2 {
				cancelable = value.Truthy(c)
			}
		}
		ev.Registry.PurgeDead(ev.Doc.Exists)
		e := eventdispatch.Dispatch(ev.Doc, ev.Registry, eventType, id, cancelable, ev.Loop.Now())
		return value.Bool(!e.DefaultPrevented()), true, nil
	case "click":
		ev.Registry.PurgeDead(ev.Doc.Exists)
		eventdispatch.Dispatch(ev.Doc, ev.Registry, "click", id, true, ev.Loop.Now())
		return value.Undefined, true, nil
	case "focus":
		ev.Doc.SetActiveElement(id, true)
		ev.Registry.PurgeDead(ev.Doc.Exists)
		eventdispatch.Dispatch(ev.Doc, ev.Registry, "focus", id, false, ev.Loop.Now())
		return value.Undefined, true, nil
	case "blur":
		ev.Doc.SetActiveElement(id, false)
		ev.Registry.PurgeDead(ev.Doc.Exists)
		eventdispatch.Dispatch(ev.Doc, ev.Registry, "blur", id, false, ev.Loop.Now())
		return value.Undefined, true, nil
	case "submit", "requestSubmit":
		ev.Registry.PurgeDead(ev.Doc.Exists)
		eventdispatch.Dispatch(ev.Doc, ev.Registry, "submit", id, true, ev.Loop.Now())
		return value.Undefined, true, nil
	case "reset":
		ev.Registry.PurgeDead(ev.Doc.Exists)
		eventdispatch.Dispatch(ev.Doc, ev.Registry, "reset", id, true, ev.Loop.Now())
		return value.Undefined, true, nil
	case "scrollIntoView":
		return value.Undefined, true, nil
	case "setSelectionRange":
		dir := domfacade.DirNone
		if len(args) > 2 {
			switch ToDisplayString(args[2]) {
			case "forward":
				dir = domfacade.DirForward
			case "backward":
				dir = domfacade.DirBackward
			}
		}
		ev.Doc.SetSelectionRange(id, argInt(args, 0, 0), argInt(args, 1, 0), dir)
		return value.Undefined, true, nil
	case "setCustomValidity":
		ev.Doc.SetCustomValidityMessage(id, argStr(args, 0))
		return value.Undefined, true, nil
	case "checkValidity":
		v, ok := ev.Doc.Validity(id)
		if !ok {
			return value.Bool(true), true, nil
		}
		return value.Bool(v.Valid()), true, nil
	case "toString":
		tag, _ := ev.Doc.TagName(id)
		return value.String("[object " + tag + "]"), true, nil
	default:
		return nil, false, nil
	}
}

func (ev *Evaluator) nodeContains(ancestor, n domfacade.NodeID) bool {
	cur := n
	for {
		if cur == ancestor {
			return true
		}
		p, ok := ev.Doc.Parent(cur)
		if !ok {
			return false
		}
		cur = p
	}
}

func (ev *Evaluator) nodeAddEventListener(id domfacade.NodeID, args []value.Value) value.Value {
	if len(args) < 2 {
		return value.Undefined
	}
	eventType := ToDisplayString(args[0])
	fn, ok := args[1].(*value.Function)
	if !ok {
		return value.Undefined
	}
	capture, once := false, false
	if len(args) > 2 {
		switch o := args[2].(type) {
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
	key := listenerKey{node: id, etype: eventType, capture: capture, fn: fn}
	if ev.listenerIDs == nil {
		ev.listenerIDs = make(map[listenerKey]uint64)
	}
	lid := ev.Registry.Add(id, eventType, capture, once, func(e *eventdispatch.Event) {
		ev.invokeListener(fn, id, e)
	})
	ev.listenerIDs[key] = lid
	return value.Undefined
}

func (ev *Evaluator) nodeRemoveEventListener(id domfacade.NodeID, args []value.Value) value.Value {
	if len(args) < 2 {
		return value.Undefined
	}
	eventType := ToDisplayString(args[0])
	fn, ok := args[1].(*value.Function)
	if !ok {
		return value.Undefined
	}
	capture := false
	if len(args) > 2 {
		if b, ok := args[2].(value.Bool); ok {
			capture = bool(b)
		}
	}
	key := listenerKey{node: id, etype: eventType, capture: capture, fn: fn}
	if lid, ok := ev.listenerIDs[key]; ok {
		ev.Registry.Remove(id, eventType, capture, lid)
		delete(ev.listenerIDs, key)
	}
	return value.Undefined
}

// dispatchNodeListMethod implements the small NodeList surface (forEach/
// item), the rest (length, indexing) already handled by GetProperty.
func (ev *Evaluator) dispatchNodeListMethod(nl value.NodeList, method string, args []value.Value) (value.Value, bool, error) {
	switch method {
	case "item":
		i := argInt(args, 0, 0)
		if i < 0 || i >= len(nl.IDs) {
			return value.Null, true, nil
		}
		return value.Node{ID: nl.IDs[i]}, true, nil
	case "forEach":
		fn, ok := firstArg(args).(*value.Function)
		if !ok {
			return nil, true, runtimeErrf("forEach callback must be a function")
		}
		for i, id := range nl.IDs {
			if _, err := ev.CallFunction(fn, value.Undefined, []value.Value{value.Node{ID: id}, value.Number(i), nl}); err != nil {
				return nil, true, err
			}
		}
		return value.Undefined, true, nil
	default:
		return nil, false, nil
	}
}
