package eval

import (
	"strings"

	"github.com/module/scripthost/internal/domfacade"
)

// resolvedDir implements the "dir" DOM-element property: the explicit
// attribute if present, otherwise <bdi>'s implicit "auto", otherwise empty.
// Grounded on original_source/.../value_object_helpers.rs's
// resolved_dir_for_node.
func (ev *Evaluator) resolvedDir(n domfacade.NodeID) string {
	if explicit, ok := ev.Doc.Attr(n, "dir"); ok {
		return explicit
	}
	if tag, ok := ev.Doc.TagName(n); ok && strings.EqualFold(tag, "bdi") {
		return "auto"
	}
	return ""
}

// resolvedRole implements the "role" DOM-element property's implicit-ARIA-
// role fallback when no explicit role attribute is set. Adapted from
// original_source/.../value_object_helpers.rs's resolved_role_for_node,
// covering the tag table plus the ancestor-scoped header/footer/section
// cases and the input/select/li/td/th special cases that table depends on.
//
// Cut from the adaptation (documented in DESIGN.md/SPEC_FULL.md as a
// non-goal): the full accessible-name computation for landmarks (only
// aria-label/aria-labelledby are consulted here, not <title>/alt-text/
// placeholder fallbacks), and <a>/<area>/<link> without an href (which the
// original also leaves role-less).
func (ev *Evaluator) resolvedRole(n domfacade.NodeID) string {
	if explicit, ok := ev.Doc.Attr(n, "role"); ok {
		return explicit
	}
	tag, ok := ev.Doc.TagName(n)
	if !ok {
		return ""
	}
	tag = strings.ToLower(tag)
	if role, ok := implicitTagRoles[tag]; ok {
		return role
	}
	switch tag {
	case "header":
		return ev.resolvedHeaderOrFooterRole(n, "banner")
	case "footer":
		return ev.resolvedHeaderOrFooterRole(n, "contentinfo")
	case "input":
		return ev.resolvedInputRole(n)
	case "li":
		return ev.resolvedListItemRole(n)
	case "select":
		return ev.resolvedSelectRole(n)
	case "section":
		return ev.resolvedSectionRole(n)
	case "th":
		return ev.resolvedTableHeaderRole(n)
	case "td":
		return ev.resolvedTableDataCellRole(n)
	case "a", "area", "link":
		if _, ok := ev.Doc.Attr(n, "href"); ok {
			return "link"
		}
		return ""
	case "img":
		if alt, ok := ev.Doc.Attr(n, "alt"); ok && alt == "" {
			return "presentation"
		}
		return "img"
	}
	if len(tag) == 2 && (tag[0] == 'h') && tag[1] >= '1' && tag[1] <= '6' {
		return "heading"
	}
	return ""
}

// implicitTagRoles covers every tag whose implicit role is a fixed constant
// independent of attributes or ancestry.
var implicitTagRoles = map[string]string{
	"address":    "group",
	"aside":      "complementary",
	"article":    "article",
	"blockquote": "blockquote",
	"body":       "generic",
	"button":     "button",
	"caption":    "caption",
	"code":       "code",
	"datalist":   "listbox",
	"details":    "group",
	"div":        "generic",
	"dialog":     "dialog",
	"del":        "deletion",
	"dfn":        "term",
	"em":         "emphasis",
	"fieldset":   "group",
	"figure":     "figure",
	"form":       "form",
	"hgroup":     "group",
	"hr":         "separator",
	"html":       "document",
	"b":          "generic",
	"bdi":        "generic",
	"bdo":        "generic",
	"data":       "generic",
	"i":          "generic",
	"ins":        "insertion",
	"main":       "main",
	"ol":         "list",
	"menu":       "list",
	"ul":         "list",
	"meter":      "meter",
	"nav":        "navigation",
	"optgroup":   "group",
	"option":     "option",
	"output":     "status",
	"p":          "paragraph",
	"pre":        "generic",
	"progress":   "progressbar",
	"q":          "generic",
	"s":          "deletion",
	"samp":       "generic",
	"small":      "generic",
	"strong":     "strong",
	"sub":        "subscript",
	"sup":        "superscript",
	"table":      "table",
	"tbody":      "rowgroup",
	"tfoot":      "rowgroup",
	"thead":      "rowgroup",
	"tr":         "row",
	"textarea":   "textbox",
	"time":       "time",
	"u":          "generic",
	"search":     "search",
}

// headerFooterScopingAncestorTags/Roles demote a <header>/<footer> without
// an explicit role attribute from the page-landmark role to "generic" once
// it's nested inside a sectioning ancestor, per resolved_header_role/
// resolved_footer_role's shared footer_has_scoped_ancestor check.
var headerFooterScopingAncestorTags = map[string]bool{
	"article": true, "aside": true, "main": true, "nav": true, "section": true,
}

var headerFooterScopingAncestorRoles = map[string]bool{
	"article": true, "complementary": true, "main": true, "navigation": true, "region": true,
}

func (ev *Evaluator) hasScopedLandmarkAncestor(n domfacade.NodeID) bool {
	cur, ok := ev.Doc.Parent(n)
	for ok {
		if tag, ok2 := ev.Doc.TagName(cur); ok2 && headerFooterScopingAncestorTags[strings.ToLower(tag)] {
			return true
		}
		if role, ok2 := ev.Doc.Attr(cur, "role"); ok2 && headerFooterScopingAncestorRoles[strings.ToLower(strings.TrimSpace(role))] {
			return true
		}
		cur, ok = ev.Doc.Parent(cur)
	}
	return false
}

func (ev *Evaluator) resolvedHeaderOrFooterRole(n domfacade.NodeID, landmarkRole string) string {
	if ev.hasScopedLandmarkAncestor(n) {
		return "generic"
	}
	return landmarkRole
}

// hasAccessibleNameForLandmark backs <section>'s role; only aria-label and
// aria-labelledby (resolved against the referenced node's text content) are
// consulted, not the full accessible-name computation (title/alt fallbacks
// are cut, see resolvedRole's doc comment).
func (ev *Evaluator) hasAccessibleNameForLandmark(n domfacade.NodeID) bool {
	if label, ok := ev.Doc.Attr(n, "aria-label"); ok && strings.TrimSpace(label) != "" {
		return true
	}
	ids, ok := ev.Doc.Attr(n, "aria-labelledby")
	if !ok {
		return false
	}
	for _, id := range strings.Fields(ids) {
		if target, ok := ev.Doc.ByID(id); ok {
			if text, ok := ev.Doc.TextContent(target); ok && strings.TrimSpace(text) != "" {
				return true
			}
		}
	}
	return false
}

func (ev *Evaluator) resolvedSectionRole(n domfacade.NodeID) string {
	if ev.hasAccessibleNameForLandmark(n) {
		return "region"
	}
	return "generic"
}

func (ev *Evaluator) resolvedInputRole(n domfacade.NodeID) string {
	typ := "text"
	if t, ok := ev.Doc.Attr(n, "type"); ok {
		typ = strings.ToLower(strings.TrimSpace(t))
	}
	_, hasList := ev.Doc.Attr(n, "list")
	switch typ {
	case "button", "image", "reset", "submit":
		return "button"
	case "checkbox":
		return "checkbox"
	case "number":
		return "spinbutton"
	case "radio":
		return "radio"
	case "range":
		return "slider"
	case "search":
		if hasList {
			return "combobox"
		}
		return "searchbox"
	case "color", "date", "datetime-local", "file", "hidden", "month", "password", "time", "week":
		return ""
	default:
		if hasList {
			return "combobox"
		}
		return "textbox"
	}
}

func (ev *Evaluator) resolvedListItemRole(n domfacade.NodeID) string {
	parent, ok := ev.Doc.Parent(n)
	if !ok {
		return ""
	}
	tag, ok := ev.Doc.TagName(parent)
	if !ok {
		return ""
	}
	switch strings.ToLower(tag) {
	case "ol", "ul", "menu":
		return "listitem"
	}
	return ""
}

func (ev *Evaluator) resolvedSelectRole(n domfacade.NodeID) string {
	_, multiple := ev.Doc.Attr(n, "multiple")
	sizeIsListbox := false
	if raw, ok := ev.Doc.Attr(n, "size"); ok {
		if size, err := parseNonNegativeInt(raw); err == nil && size > 1 {
			sizeIsListbox = true
		}
	}
	if !multiple && !sizeIsListbox {
		return "combobox"
	}
	return "listbox"
}

func (ev *Evaluator) resolvedTableHeaderRole(n domfacade.NodeID) string {
	if scope, ok := ev.Doc.Attr(n, "scope"); ok {
		switch strings.ToLower(strings.TrimSpace(scope)) {
		case "row", "rowgroup":
			return "rowheader"
		case "col", "colgroup":
			return "columnheader"
		}
	}
	parent, ok := ev.Doc.Parent(n)
	if !ok {
		return "columnheader"
	}
	tag, ok := ev.Doc.TagName(parent)
	if !ok || !strings.EqualFold(tag, "tr") {
		return "columnheader"
	}
	for _, sib := range ev.Doc.Children(parent) {
		if sibTag, ok := ev.Doc.TagName(sib); ok && strings.EqualFold(sibTag, "td") {
			return "cell"
		}
	}
	return "columnheader"
}

func (ev *Evaluator) resolvedTableDataCellRole(n domfacade.NodeID) string {
	cur, ok := ev.Doc.Parent(n)
	hasTableAncestor := false
	for ok {
		if role, ok2 := ev.Doc.Attr(cur, "role"); ok2 && strings.EqualFold(strings.TrimSpace(role), "grid") {
			return "gridcell"
		}
		if tag, ok2 := ev.Doc.TagName(cur); ok2 && strings.EqualFold(tag, "table") {
			hasTableAncestor = true
		}
		cur, ok = ev.Doc.Parent(cur)
	}
	if hasTableAncestor {
		return "cell"
	}
	return ""
}

func parseNonNegativeInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	n := 0
	if s == "" {
		return 0, runtimeErrf("not a number")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, runtimeErrf("not a number")
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
