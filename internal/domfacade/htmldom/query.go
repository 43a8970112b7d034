package htmldom

import (
	"golang.org/x/net/html"

	"github.com/module/scripthost/internal/domfacade"
)

func (d *Document) ByID(id string) (NodeID, bool) {
	var found *html.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == id {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(d.root)
	if found == nil {
		return 0, false
	}
	return d.ensureID(found), true
}

func (d *Document) QuerySelector(sel string) (NodeID, bool) {
	s := d.selection().Find(sel)
	if s.Length() == 0 {
		return 0, false
	}
	return d.ensureID(s.Nodes[0]), true
}

func (d *Document) QuerySelectorAll(sel string) []NodeID {
	s := d.selection().Find(sel)
	out := make([]NodeID, 0, s.Length())
	for _, n := range s.Nodes {
		out = append(out, d.ensureID(n))
	}
	return out
}

// matches reports whether sel, evaluated against the whole live document,
// selects node. Evaluating from the document root rather than compiling a
// standalone matcher keeps this on goquery's documented Selection API
// instead of its lower-level cascadia internals.
func (d *Document) matches(node *html.Node, sel string) bool {
	for _, n := range d.selection().Find(sel).Nodes {
		if n == node {
			return true
		}
	}
	return false
}

func (d *Document) MatchesSelector(n NodeID, sel string) bool {
	node, ok := d.node(n)
	if !ok {
		return false
	}
	return d.matches(node, sel)
}

func (d *Document) Closest(n NodeID, sel string) (NodeID, bool) {
	node, ok := d.node(n)
	if !ok {
		return 0, false
	}
	for cur := node; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && d.matches(cur, sel) {
			return d.ensureID(cur), true
		}
	}
	return 0, false
}

var _ domfacade.Document = (*Document)(nil)
