package htmldom

import "strings"

func (d *Document) ClassList(n NodeID) []string {
	v, ok := d.Attr(n, "class")
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	fields := strings.Fields(v)
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func (d *Document) SetClassList(n NodeID, classes []string) {
	if len(classes) == 0 {
		d.RemoveAttr(n, "class")
		return
	}
	d.SetAttr(n, "class", strings.Join(classes, " "))
}
