// Package htmldom is the one Document implementation this repository
// ships: it bootstraps the live DOM graph from HTML source text via
// goquery (which wraps golang.org/x/net/html), the teacher's own direct
// dependency (grafana-k6/go.mod). The HTML tokenizer/tree builder and CSS
// selector engine are genuinely external collaborators per spec §1 — this
// package wires them to the mutable in-process node arena internal/eval
// needs (x/net/html.Node is itself a mutable doubly-linked tree, so once
// parsed we mutate it in place and re-run goquery selectors against the
// live tree for every query, the same way a real DOM recomputes selector
// matches after mutation).
package htmldom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/module/scripthost/internal/domfacade"
)

type NodeID = domfacade.NodeID

// Document implements domfacade.Document over a golang.org/x/net/html tree.
type Document struct {
	root   *html.Node
	idOf   map[*html.Node]NodeID
	nodeOf map[NodeID]*html.Node
	nextID NodeID

	activeElement    NodeID
	hasActiveElement bool
	activePseudo     string
	hasActivePseudo  bool

	customValidity map[NodeID]string
	selStart       map[NodeID]int
	selEnd         map[NodeID]int
	selDir         map[NodeID]domfacade.SelectionDir
	checked        map[NodeID]bool
	values         map[NodeID]string
}

var _ domfacade.Document = (*Document)(nil)

// Parse builds a Document from HTML source text.
func Parse(source string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	d := &Document{
		root:           root,
		idOf:           make(map[*html.Node]NodeID),
		nodeOf:         make(map[NodeID]*html.Node),
		nextID:         1,
		customValidity: make(map[NodeID]string),
		selStart:       make(map[NodeID]int),
		selEnd:         make(map[NodeID]int),
		selDir:         make(map[NodeID]domfacade.SelectionDir),
		checked:        make(map[NodeID]bool),
		values:         make(map[NodeID]string),
	}
	d.walk(root)
	return d, nil
}

// LoadHTML replaces the document's entire tree in place with a fresh parse
// of html, discarding every node id, selection, and form-control override
// the previous page held — implements domfacade.Reloadable for mock
// location navigations (spec §4.5.4).
func (d *Document) LoadHTML(source string) error {
	fresh, err := Parse(source)
	if err != nil {
		return err
	}
	*d = *fresh
	return nil
}

func (d *Document) walk(n *html.Node) {
	d.ensureID(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c)
	}
}

func (d *Document) ensureID(n *html.Node) NodeID {
	if id, ok := d.idOf[n]; ok {
		return id
	}
	id := d.nextID
	d.nextID++
	d.idOf[n] = id
	d.nodeOf[id] = n
	return id
}

func (d *Document) node(id NodeID) (*html.Node, bool) {
	n, ok := d.nodeOf[id]
	return n, ok
}

// Root returns the document root node id.
func (d *Document) Root() NodeID { return d.ensureID(d.root) }

func (d *Document) findElement(tag string) (NodeID, bool) {
	var found *html.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return
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

func (d *Document) Body() (NodeID, bool)            { return d.findElement("body") }
func (d *Document) Head() (NodeID, bool)            { return d.findElement("head") }
func (d *Document) DocumentElement() (NodeID, bool) { return d.findElement("html") }

func (d *Document) Exists(n NodeID) bool {
	node, ok := d.node(n)
	if !ok {
		return false
	}
	// A detached node (removed from the tree) still exists as a Go value
	// but is no longer reachable from root; treat it as gone per §5.
	for p := node; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return node == d.root
}

// selection returns a goquery.Selection rooted at the live document, used
// by query.go for every CSS-selector operation.
func (d *Document) selection() *goquery.Selection {
	doc := goquery.NewDocumentFromNode(d.root)
	return doc.Selection
}
