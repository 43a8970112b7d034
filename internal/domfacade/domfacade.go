// Package domfacade fixes the contract of §4.5.5: the DOM graph (node
// arena, attribute map, mutation API), the CSS selector engine, and the
// HTML tokenizer/tree builder are all external collaborators per spec §1 —
// this package specifies only the interface internal/eval depends on. The
// htmldom subpackage provides the one implementation this repository ships
// (bootstrapped from goquery/x-net-html), but internal/eval only ever talks
// to the Document interface below, the way the teacher's xk6-browser
// evaluator only talks to its api.FrameAPI/api.ElementHandleAPI interfaces
// and never to a concrete CDP type.
package domfacade

import "github.com/module/scripthost/internal/value"

// NodeID re-exports value.NodeID so callers outside internal/value don't
// need to import it just to name a node.
type NodeID = value.NodeID

// SelectionDir mirrors the HTML `selectionDirection` values.
type SelectionDir string

const (
	DirForward  SelectionDir = "forward"
	DirBackward SelectionDir = "backward"
	DirNone     SelectionDir = "none"
)

// Validity mirrors the HTML5 constraint-validation flags a form control
// reports, supplemented from original_source/ per SPEC_FULL.md.
type Validity struct {
	ValueMissing    bool
	TypeMismatch    bool
	PatternMismatch bool
	RangeUnderflow  bool
	RangeOverflow   bool
	StepMismatch    bool
	TooLong         bool
	TooShort        bool
	CustomError     bool
}

func (v Validity) Valid() bool {
	return !(v.ValueMissing || v.TypeMismatch || v.PatternMismatch || v.RangeUnderflow ||
		v.RangeOverflow || v.StepMismatch || v.TooLong || v.TooShort || v.CustomError)
}

// Document is the full contract §4.5.5 enumerates. Every method asked
// about an unknown node returns the zero value / false rather than
// panicking. A node that has been removed from the tree is not treated as
// unknown: Exists reports false for it, but the other methods still answer
// from the detached node's own data.
type Document interface {
	Root() NodeID
	Body() (NodeID, bool)
	Head() (NodeID, bool)
	DocumentElement() (NodeID, bool)
	Parent(n NodeID) (NodeID, bool)
	Children(n NodeID) []NodeID
	TagName(n NodeID) (string, bool)
	Attr(n NodeID, name string) (string, bool)
	SetAttr(n NodeID, name, v string)
	RemoveAttr(n NodeID, name string)
	TextContent(n NodeID) (string, bool)
	SetTextContent(n NodeID, v string)
	InnerHTML(n NodeID) (string, bool)
	SetInnerHTML(n NodeID, v string)
	OuterHTML(n NodeID) (string, bool)
	SetOuterHTML(n NodeID, v string)

	Value(n NodeID) (string, bool)
	SetValue(n NodeID, v string)
	Checked(n NodeID) (bool, bool)
	SetChecked(n NodeID, b bool)
	SelectionStart(n NodeID) (int, bool)
	SetSelectionRange(n NodeID, start, end int, dir SelectionDir)
	CustomValidityMessage(n NodeID) (string, bool)
	SetCustomValidityMessage(n NodeID, v string)
	Validity(n NodeID) (Validity, bool)

	ByID(id string) (NodeID, bool)
	QuerySelector(sel string) (NodeID, bool)
	QuerySelectorAll(sel string) []NodeID
	MatchesSelector(n NodeID, sel string) bool
	Closest(n NodeID, sel string) (NodeID, bool)

	AppendChild(parent, child NodeID)
	PrependChild(parent, child NodeID)
	InsertBefore(parent, child, ref NodeID)
	InsertAfter(parent, child, ref NodeID)
	ReplaceWith(old, replacement NodeID)
	RemoveChild(parent, child NodeID)
	RemoveNode(n NodeID)
	CreateElement(tag string) NodeID
	CreateTextNode(text string) NodeID

	ActiveElement() (NodeID, bool)
	SetActiveElement(n NodeID, ok bool)
	ActivePseudoElement() (string, bool)
	SetActivePseudoElement(pseudo string, ok bool)

	Required(n NodeID) bool
	ReadOnly(n NodeID) bool
	Disabled(n NodeID) bool

	// Exists reports whether n still resolves to a live node (§5
	// "Lifetimes": a NodeID may outlive its node).
	Exists(n NodeID) bool

	// ClassList returns a node's class attribute tokens in source order.
	ClassList(n NodeID) []string
	SetClassList(n NodeID, classes []string)
}

// Reloadable is an optional capability a Document may implement: replacing
// its entire tree in place with freshly parsed HTML. The harness's mock
// location-navigation support (spec §4.5.4 "loads a mock page if one is
// registered") sits behind this narrow interface rather than the main
// Document contract, so a hypothetical Document backed by a live API
// (rather than a static parse) is never forced to support it.
type Reloadable interface {
	LoadHTML(html string) error
}
