package htmldom

import (
	"strings"

	"golang.org/x/net/html"
)

func (d *Document) Parent(n NodeID) (NodeID, bool) {
	node, ok := d.node(n)
	if !ok || node.Parent == nil {
		return 0, false
	}
	return d.ensureID(node.Parent), true
}

func (d *Document) Children(n NodeID) []NodeID {
	node, ok := d.node(n)
	if !ok {
		return nil
	}
	var out []NodeID
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode || c.Type == html.TextNode {
			out = append(out, d.ensureID(c))
		}
	}
	return out
}

func (d *Document) TagName(n NodeID) (string, bool) {
	node, ok := d.node(n)
	if !ok || node.Type != html.ElementNode {
		return "", false
	}
	return strings.ToUpper(node.Data), true
}

func (d *Document) Attr(n NodeID, name string) (string, bool) {
	node, ok := d.node(n)
	if !ok {
		return "", false
	}
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func (d *Document) SetAttr(n NodeID, name, v string) {
	node, ok := d.node(n)
	if !ok {
		return
	}
	for i, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			node.Attr[i].Val = v
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: name, Val: v})
}

func (d *Document) RemoveAttr(n NodeID, name string) {
	node, ok := d.node(n)
	if !ok {
		return
	}
	for i, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			node.Attr = append(node.Attr[:i], node.Attr[i+1:]...)
			return
		}
	}
}

func (d *Document) TextContent(n NodeID) (string, bool) {
	node, ok := d.node(n)
	if !ok {
		return "", false
	}
	var sb strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(node)
	return sb.String(), true
}

func (d *Document) SetTextContent(n NodeID, v string) {
	node, ok := d.node(n)
	if !ok {
		return
	}
	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		node.RemoveChild(c)
		delete(d.idOf, c)
		c = next
	}
	if v != "" {
		node.AppendChild(&html.Node{Type: html.TextNode, Data: v})
	}
}

func (d *Document) InnerHTML(n NodeID) (string, bool) {
	node, ok := d.node(n)
	if !ok {
		return "", false
	}
	var sb strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String(), true
}

func (d *Document) SetInnerHTML(n NodeID, v string) {
	node, ok := d.node(n)
	if !ok {
		return
	}
	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		node.RemoveChild(c)
		delete(d.idOf, c)
		c = next
	}
	frags, err := html.ParseFragment(strings.NewReader(v), node)
	if err != nil {
		return
	}
	for _, f := range frags {
		node.AppendChild(f)
		d.walk(f)
	}
}

func (d *Document) OuterHTML(n NodeID) (string, bool) {
	node, ok := d.node(n)
	if !ok {
		return "", false
	}
	var sb strings.Builder
	_ = html.Render(&sb, node)
	return sb.String(), true
}

func (d *Document) SetOuterHTML(n NodeID, v string) {
	node, ok := d.node(n)
	if !ok || node.Parent == nil {
		return
	}
	parent := node.Parent
	frags, err := html.ParseFragment(strings.NewReader(v), parent)
	if err != nil {
		return
	}
	for _, f := range frags {
		parent.InsertBefore(f, node)
		d.walk(f)
	}
	parent.RemoveChild(node)
	delete(d.idOf, node)
}
