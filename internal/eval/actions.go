package eval

import (
	"strings"

	"github.com/module/scripthost/internal/domfacade"
	"github.com/module/scripthost/internal/eventdispatch"
)

// Click, Focus, TypeText, PressEnter, and Submit are the synthetic
// user-gesture dispatchers §6.1 names, generalized from the teacher's
// ElementHandle.Click/Type/Focus methods (xk6-browser's common package)
// which similarly resolve a selector, run one CDP-style input action, and
// let the page's own listeners react — here "the page's own listeners"
// means whatever addEventListener calls the running script made.

func (ev *Evaluator) findOne(selector string) (domfacade.NodeID, bool) {
	return ev.Doc.QuerySelector(selector)
}

// Click dispatches the click event sequence at the element matching
// selector and, unless a listener called preventDefault, runs the default
// action: following an `<a href>` (unless target=_blank or download is
// set) or submitting the enclosing form of a submit control (§4.5.4
// "Default actions").
func (ev *Evaluator) Click(selector string) error {
	id, ok := ev.findOne(selector)
	if !ok {
		return runtimeErrf("click: no element matches %q", selector)
	}
	e := ev.dispatch("click", id, true)
	if e.DefaultPrevented() {
		return nil
	}
	if anchor, ok := ev.enclosingAnchor(id); ok {
		ev.followAnchor(anchor)
		return nil
	}
	if anchor, ok := ev.enclosingDownload(id); ok {
		href, _ := ev.Doc.Attr(anchor, "href")
		ev.downloads = append(ev.downloads, href)
		return nil
	}
	if form, ok := ev.enclosingSubmitter(id); ok {
		ev.runFormSubmit(form)
	}
	return nil
}

// Focus dispatches a focus event at the element matching selector and
// records it as the document's active element.
func (ev *Evaluator) Focus(selector string) error {
	id, ok := ev.findOne(selector)
	if !ok {
		return runtimeErrf("focus: no element matches %q", selector)
	}
	ev.Doc.SetActiveElement(id, true)
	ev.dispatch("focus", id, false)
	return nil
}

// TypeText sets the value of the element matching selector and dispatches
// input then change, mirroring a user typing then blurring the field
// (§4.5.4: "change/input events on native widgets fire when the test
// driver mutates value").
func (ev *Evaluator) TypeText(selector, text string) error {
	id, ok := ev.findOne(selector)
	if !ok {
		return runtimeErrf("type_text: no element matches %q", selector)
	}
	ev.Doc.SetActiveElement(id, true)
	ev.Doc.SetValue(id, text)
	ev.dispatch("input", id, false)
	ev.dispatch("change", id, false)
	return nil
}

// PressEnter dispatches a keydown for the Enter key at the element
// matching selector and, unless prevented, runs the anchor-navigation
// default action (§4.5.4: "Enter on an anchor triggers the same
// navigation, but a keydown listener that calls preventDefault suppresses
// it").
func (ev *Evaluator) PressEnter(selector string) error {
	id, ok := ev.findOne(selector)
	if !ok {
		return runtimeErrf("press_enter: no element matches %q", selector)
	}
	e := ev.dispatch("keydown", id, true)
	if e.DefaultPrevented() {
		return nil
	}
	if anchor, ok := ev.enclosingAnchor(id); ok {
		ev.followAnchor(anchor)
		return nil
	}
	if form, ok := ev.enclosingSubmitter(id); ok {
		ev.runFormSubmit(form)
	}
	return nil
}

// Submit dispatches the submit event sequence directly against the form
// (or a submit control inside one) matching selector, running constraint
// validation first (§4.5.4).
func (ev *Evaluator) Submit(selector string) error {
	id, ok := ev.findOne(selector)
	if !ok {
		return runtimeErrf("submit: no element matches %q", selector)
	}
	if tag, ok := ev.Doc.TagName(id); ok && strings.EqualFold(tag, "form") {
		ev.runFormSubmit(id)
		return nil
	}
	if form, ok := ev.Doc.Closest(id, "form"); ok {
		ev.runFormSubmit(form)
		return nil
	}
	ev.runFormSubmit(id)
	return nil
}

func (ev *Evaluator) dispatch(eventType string, target domfacade.NodeID, cancelable bool) *eventdispatch.Event {
	ev.Registry.PurgeDead(ev.Doc.Exists)
	e := eventdispatch.Dispatch(ev.Doc, ev.Registry, eventType, target, cancelable, ev.Loop.Now())
	ev.Loop.Flush()
	return e
}

// enclosingAnchor returns n itself or its nearest ancestor <a> with an href
// attribute, excluding target=_blank/download links (§4.5.4: those don't
// record an in-harness navigation).
func (ev *Evaluator) enclosingAnchor(n domfacade.NodeID) (domfacade.NodeID, bool) {
	anchor, ok := ev.Doc.Closest(n, "a")
	if !ok {
		return 0, false
	}
	href, ok := ev.Doc.Attr(anchor, "href")
	if !ok || href == "" {
		return 0, false
	}
	if target, _ := ev.Doc.Attr(anchor, "target"); target == "_blank" {
		return 0, false
	}
	if _, hasDownload := ev.Doc.Attr(anchor, "download"); hasDownload {
		return 0, false
	}
	return anchor, true
}

// enclosingDownload returns n's nearest ancestor <a href download> — a
// link click that records a download instead of a navigation.
func (ev *Evaluator) enclosingDownload(n domfacade.NodeID) (domfacade.NodeID, bool) {
	anchor, ok := ev.Doc.Closest(n, "a")
	if !ok {
		return 0, false
	}
	href, ok := ev.Doc.Attr(anchor, "href")
	if !ok || href == "" {
		return 0, false
	}
	if _, hasDownload := ev.Doc.Attr(anchor, "download"); !hasDownload {
		return 0, false
	}
	return anchor, true
}

func (ev *Evaluator) followAnchor(anchor domfacade.NodeID) {
	href, _ := ev.Doc.Attr(anchor, "href")
	ev.navigateTo("Assign", href)
}

// enclosingSubmitter reports whether n is (or is inside) a submit control
// (button/input[type=submit], defaulting <button> with no type to submit
// per HTML5) and, if so, the enclosing form's node id.
func (ev *Evaluator) enclosingSubmitter(n domfacade.NodeID) (domfacade.NodeID, bool) {
	tag, ok := ev.Doc.TagName(n)
	if !ok {
		return 0, false
	}
	typ, _ := ev.Doc.Attr(n, "type")
	isSubmit := false
	switch strings.ToLower(tag) {
	case "button":
		isSubmit = typ == "" || strings.EqualFold(typ, "submit")
	case "input":
		isSubmit = strings.EqualFold(typ, "submit")
	}
	if !isSubmit {
		return 0, false
	}
	return ev.Doc.Closest(n, "form")
}

// runFormSubmit runs constraint validation over form's descendants and,
// only if every control is valid, dispatches submit on the form (§4.5.4:
// "dispatches submit on the enclosing form, which triggers validation"). An
// invalid form blocks the dispatch entirely, mirroring a real browser
// withholding submission until the invalid-control UI is addressed.
func (ev *Evaluator) runFormSubmit(form domfacade.NodeID) {
	if !ev.formIsValid(form) {
		return
	}
	ev.dispatch("submit", form, true)
}

func (ev *Evaluator) formIsValid(n domfacade.NodeID) bool {
	if v, ok := ev.Doc.Validity(n); ok && !v.Valid() {
		return false
	}
	for _, child := range ev.Doc.Children(n) {
		if !ev.formIsValid(child) {
			return false
		}
	}
	return true
}
