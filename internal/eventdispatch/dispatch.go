package eventdispatch

import "github.com/module/scripthost/internal/domfacade"

// Dispatch runs the full capture/target/bubble algorithm of §4.5.4 for a
// synthetic event at target, returning the Event so the caller can inspect
// DefaultPrevented() and decide whether to run a default action.
//
// "Each listener runs inside its captured environment, with any mutations
// it performs visible to subsequent listeners in the same registration
// block through the shared snapshot" (§4.5.4 step 4) holds for free here:
// doc and registry are the one live mutable state threaded through every
// listener call, exactly as §5 "Scheduling" requires.
func Dispatch(doc domfacade.Document, registry *Registry, eventType string, target NodeID, cancelable bool, now int64) *Event {
	ev := &Event{
		Type:       eventType,
		Target:     target,
		TimeStamp:  now,
		Cancelable: cancelable,
	}

	path := ancestorPath(doc, target)
	capturing, bubbling := true, false

	// Capture phase: root towards target's parent, capture-registered
	// listeners only.
	for i := len(path) - 1; i >= 0; i-- {
		if ev.propagationStopped {
			return ev
		}
		runPhase(ev, registry, path[i], &capturing)
	}

	// Target phase: every listener on target, capture and bubble alike, in
	// registration order.
	if !ev.propagationStopped {
		runPhase(ev, registry, target, nil)
	}

	// Bubble phase: target's parent towards root, bubble-registered
	// listeners only.
	if !ev.propagationStopped {
		for _, node := range path {
			if ev.propagationStopped {
				break
			}
			runPhase(ev, registry, node, &bubbling)
		}
	}

	return ev
}

// ancestorPath returns target's ancestors, nearest first (parent, then
// grandparent, ... up to but not including the root's missing parent).
func ancestorPath(doc domfacade.Document, target NodeID) []NodeID {
	var path []NodeID
	n := target
	for {
		parent, ok := doc.Parent(n)
		if !ok {
			break
		}
		path = append(path, parent)
		n = parent
	}
	return path
}

// runPhase invokes node's listeners matching wantCapture (nil means "all,
// target phase"), in registration order, honoring
// stopImmediatePropagation mid-list.
func runPhase(ev *Event, registry *Registry, node NodeID, wantCapture *bool) {
	ev.CurrentTarget = node
	listeners := registry.listenersFor(node, ev.Type)
	// Snapshot before iterating: a listener that calls removeEventListener
	// on itself or another listener for the same event must not perturb
	// this dispatch's iteration, matching DOM semantics where removal takes
	// effect for future dispatches only.
	snapshot := make([]*listener, len(listeners))
	copy(snapshot, listeners)

	var toRemove []uint64
	for _, l := range snapshot {
		if wantCapture != nil && l.capture != *wantCapture {
			continue
		}
		l.handler(ev)
		if l.once {
			toRemove = append(toRemove, l.id)
		}
		if ev.immediateStopped {
			break
		}
	}
	for _, id := range toRemove {
		registry.Remove(node, ev.Type, false, id)
	}
}
