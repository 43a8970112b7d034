package htmldom

import "golang.org/x/net/html"

func (d *Document) AppendChild(parent, child NodeID) {
	p, ok1 := d.node(parent)
	c, ok2 := d.node(child)
	if !ok1 || !ok2 {
		return
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	p.AppendChild(c)
}

func (d *Document) PrependChild(parent, child NodeID) {
	p, ok1 := d.node(parent)
	c, ok2 := d.node(child)
	if !ok1 || !ok2 {
		return
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	if p.FirstChild == nil {
		p.AppendChild(c)
		return
	}
	p.InsertBefore(c, p.FirstChild)
}

func (d *Document) InsertBefore(parent, child, ref NodeID) {
	p, ok1 := d.node(parent)
	c, ok2 := d.node(child)
	r, ok3 := d.node(ref)
	if !ok1 || !ok2 {
		return
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	if !ok3 || r.Parent != p {
		p.AppendChild(c)
		return
	}
	p.InsertBefore(c, r)
}

func (d *Document) InsertAfter(parent, child, ref NodeID) {
	p, ok1 := d.node(parent)
	c, ok2 := d.node(child)
	r, ok3 := d.node(ref)
	if !ok1 || !ok2 {
		return
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	if !ok3 || r.Parent != p || r.NextSibling == nil {
		p.AppendChild(c)
		return
	}
	p.InsertBefore(c, r.NextSibling)
}

func (d *Document) ReplaceWith(old, replacement NodeID) {
	o, ok1 := d.node(old)
	r, ok2 := d.node(replacement)
	if !ok1 || !ok2 || o.Parent == nil {
		return
	}
	if r.Parent != nil {
		r.Parent.RemoveChild(r)
	}
	o.Parent.InsertBefore(r, o)
	o.Parent.RemoveChild(o)
	delete(d.idOf, o)
}

func (d *Document) RemoveChild(parent, child NodeID) {
	p, ok1 := d.node(parent)
	c, ok2 := d.node(child)
	if !ok1 || !ok2 || c.Parent != p {
		return
	}
	p.RemoveChild(c)
	delete(d.idOf, c)
}

func (d *Document) RemoveNode(n NodeID) {
	node, ok := d.node(n)
	if !ok || node.Parent == nil {
		return
	}
	node.Parent.RemoveChild(node)
	delete(d.idOf, node)
}

func (d *Document) CreateElement(tag string) NodeID {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	return d.ensureID(n)
}

func (d *Document) CreateTextNode(text string) NodeID {
	n := &html.Node{Type: html.TextNode, Data: text}
	return d.ensureID(n)
}
