package htmldom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/module/scripthost/internal/domfacade"
)

func (d *Document) Value(n NodeID) (string, bool) {
	node, ok := d.node(n)
	if !ok || !isFormControl(node) {
		return "", false
	}
	if v, set := d.values[n]; set {
		return v, true
	}
	for _, a := range node.Attr {
		if a.Key == "value" {
			return a.Val, true
		}
	}
	return "", true
}

func (d *Document) SetValue(n NodeID, v string) {
	node, ok := d.node(n)
	if !ok || !isFormControl(node) {
		return
	}
	d.values[n] = v
}

func (d *Document) Checked(n NodeID) (bool, bool) {
	node, ok := d.node(n)
	if !ok || node.Data != "input" {
		return false, false
	}
	if v, set := d.checked[n]; set {
		return v, true
	}
	for _, a := range node.Attr {
		if a.Key == "checked" {
			return true, true
		}
	}
	return false, true
}

func (d *Document) SetChecked(n NodeID, b bool) {
	if _, ok := d.node(n); !ok {
		return
	}
	d.checked[n] = b
}

func (d *Document) SelectionStart(n NodeID) (int, bool) {
	node, ok := d.node(n)
	if !ok || !isFormControl(node) {
		return 0, false
	}
	return d.selStart[n], true
}

func (d *Document) SetSelectionRange(n NodeID, start, end int, dir domfacade.SelectionDir) {
	if _, ok := d.node(n); !ok {
		return
	}
	d.selStart[n] = start
	d.selEnd[n] = end
	d.selDir[n] = dir
}

func (d *Document) CustomValidityMessage(n NodeID) (string, bool) {
	node, ok := d.node(n)
	if !ok || !isFormControl(node) {
		return "", false
	}
	return d.customValidity[n], true
}

func (d *Document) SetCustomValidityMessage(n NodeID, v string) {
	if _, ok := d.node(n); !ok {
		return
	}
	d.customValidity[n] = v
}

// Validity computes the HTML5 constraint-validation flags from the node's
// required/maxlength/minlength attributes plus any custom message set via
// SetCustomValidityMessage, per original_source/'s
// node_selection_input_validity.rs (SPEC_FULL.md "SUPPLEMENTED FEATURES").
// The pattern, min, max and step attributes are not checked, so
// PatternMismatch, RangeUnderflow, RangeOverflow, StepMismatch and
// TypeMismatch are always false.
func (d *Document) Validity(n NodeID) (domfacade.Validity, bool) {
	node, ok := d.node(n)
	if !ok || !isFormControl(node) {
		return domfacade.Validity{}, false
	}
	v := domfacade.Validity{}
	if msg := d.customValidity[n]; msg != "" {
		v.CustomError = true
		return v, true
	}
	value, _ := d.Value(n)
	if d.Required(n) && strings.TrimSpace(value) == "" {
		v.ValueMissing = true
	}
	if maxLen, ok := intAttr(node, "maxlength"); ok && len(value) > maxLen {
		v.TooLong = true
	}
	if minLen, ok := intAttr(node, "minlength"); ok && len(value) < minLen {
		v.TooShort = true
	}
	return v, true
}

func intAttr(node *html.Node, name string) (int, bool) {
	for _, a := range node.Attr {
		if a.Key == name {
			n, err := strconv.Atoi(a.Val)
			if err != nil {
				return 0, false
			}
			return n, true
		}
	}
	return 0, false
}

func (d *Document) Required(n NodeID) bool { return hasBoolAttr(d, n, "required") }
func (d *Document) ReadOnly(n NodeID) bool { return hasBoolAttr(d, n, "readonly") }
func (d *Document) Disabled(n NodeID) bool { return hasBoolAttr(d, n, "disabled") }

func hasBoolAttr(d *Document, n NodeID, name string) bool {
	node, ok := d.node(n)
	if !ok {
		return false
	}
	for _, a := range node.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

func isFormControl(n *html.Node) bool {
	switch n.Data {
	case "input", "textarea", "select", "option", "button":
		return true
	default:
		return false
	}
}
