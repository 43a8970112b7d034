// Package eventdispatch implements §4.5.4: capture/target/bubble event
// propagation over the domfacade node tree, plus the listener registry that
// backs addEventListener/removeEventListener. Grounded on the teacher's
// common.BaseEventEmitter (confirmed via common/event_emitter_test.go in the
// retrieval pack: an `on`/`onAll`/`emit`/`syncOnAll` emitter with ordered
// per-event-name subscriber lists) generalized from "emit one named event to
// N subscribers" to "propagate one DOM event through an ancestor path in
// three phases" per spec §4.5.4.
package eventdispatch

import "github.com/module/scripthost/internal/domfacade"

// NodeID re-exports domfacade.NodeID so callers don't need a second import.
type NodeID = domfacade.NodeID

// Event is one synthetic DOM event, §6.2. State carries an opaque payload
// for popstate's `state`, and OldState/NewState carry beforetoggle's
// `oldState`/`newState`; eventdispatch never interprets them.
type Event struct {
	Type          string
	Target        NodeID
	CurrentTarget NodeID
	TimeStamp     int64
	Cancelable    bool
	State         any
	OldState      any
	NewState      any

	defaultPrevented  bool
	propagationStopped bool
	immediateStopped   bool
}

// PreventDefault sets the default-prevented flag, a no-op if the event isn't
// cancelable (§4.5.4 step 3).
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether PreventDefault has taken effect.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops dispatch after the current node finishes its
// listeners (§4.5.4 step 3).
func (e *Event) StopPropagation() { e.propagationStopped = true }

// StopImmediatePropagation stops both further phases and further listeners
// at the current node.
func (e *Event) StopImmediatePropagation() {
	e.propagationStopped = true
	e.immediateStopped = true
}
