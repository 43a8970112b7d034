package eval

import (
	"strings"

	"github.com/module/scripthost/internal/domfacade"
	"github.com/module/scripthost/internal/value"
)

// domPropertyGet maps a JS DOM-element property name onto the narrow
// domfacade.Document contract (§4.5.5), generalized from the teacher's
// xk6-browser ElementHandle accessor methods (getAttribute/innerText/…)
// which similarly fan a handful of named accessors out over one frame
// object.
func (ev *Evaluator) domPropertyGet(n domfacade.NodeID, key string) (value.Value, error) {
	if !ev.Doc.Exists(n) {
		return value.Undefined, nil
	}
	switch key {
	case "id":
		v, _ := ev.Doc.Attr(n, "id")
		return value.String(v), nil
	case "className":
		v, _ := ev.Doc.Attr(n, "class")
		return value.String(v), nil
	case "classList":
		return classListArray(ev.Doc.ClassList(n)), nil
	case "tagName":
		tag, _ := ev.Doc.TagName(n)
		return value.String(strings.ToUpper(tag)), nil
	case "textContent", "innerText":
		v, _ := ev.Doc.TextContent(n)
		return value.String(v), nil
	case "innerHTML":
		v, _ := ev.Doc.InnerHTML(n)
		return value.String(v), nil
	case "outerHTML":
		v, _ := ev.Doc.OuterHTML(n)
		return value.String(v), nil
	case "value":
		v, _ := ev.Doc.Value(n)
		return value.String(v), nil
	case "checked":
		v, _ := ev.Doc.Checked(n)
		return value.Bool(v), nil
	case "selectionStart":
		v, ok := ev.Doc.SelectionStart(n)
		if !ok {
			return value.Undefined, nil
		}
		return value.Number(v), nil
	case "required":
		return value.Bool(ev.Doc.Required(n)), nil
	case "readOnly":
		return value.Bool(ev.Doc.ReadOnly(n)), nil
	case "disabled":
		return value.Bool(ev.Doc.Disabled(n)), nil
	case "parentNode", "parentElement":
		p, ok := ev.Doc.Parent(n)
		if !ok {
			return value.Null, nil
		}
		return value.Node{ID: p}, nil
	case "children", "childNodes":
		kids := ev.Doc.Children(n)
		ids := make([]domfacade.NodeID, len(kids))
		copy(ids, kids)
		return value.NodeList{IDs: ids}, nil
	case "validity":
		v, ok := ev.Doc.Validity(n)
		if !ok {
			return value.Undefined, nil
		}
		return validityObject(v), nil
	case "role":
		return value.String(ev.resolvedRole(n)), nil
	case "dir":
		return value.String(ev.resolvedDir(n)), nil
	default:
		if v, ok := ev.Doc.Attr(n, key); ok {
			return value.String(v), nil
		}
		return value.Undefined, nil
	}
}

func (ev *Evaluator) domPropertySet(n domfacade.NodeID, key string, v value.Value) error {
	if !ev.Doc.Exists(n) {
		return nil
	}
	switch key {
	case "id":
		ev.Doc.SetAttr(n, "id", ToDisplayString(v))
	case "className":
		ev.Doc.SetAttr(n, "class", ToDisplayString(v))
	case "textContent", "innerText":
		ev.Doc.SetTextContent(n, ToDisplayString(v))
	case "innerHTML":
		ev.Doc.SetInnerHTML(n, ToDisplayString(v))
	case "outerHTML":
		ev.Doc.SetOuterHTML(n, ToDisplayString(v))
	case "value":
		ev.Doc.SetValue(n, ToDisplayString(v))
	case "checked":
		ev.Doc.SetChecked(n, value.Truthy(v))
	default:
		ev.Doc.SetAttr(n, key, ToDisplayString(v))
	}
	return nil
}

func classListArray(classes []string) *value.Array {
	elems := make([]value.Value, len(classes))
	for i, c := range classes {
		elems[i] = value.String(c)
	}
	return value.NewArray(elems)
}

func validityObject(v domfacade.Validity) *value.Object {
	o := value.NewObject()
	o.SetOwn("valueMissing", value.Bool(v.ValueMissing))
	o.SetOwn("typeMismatch", value.Bool(v.TypeMismatch))
	o.SetOwn("patternMismatch", value.Bool(v.PatternMismatch))
	o.SetOwn("rangeUnderflow", value.Bool(v.RangeUnderflow))
	o.SetOwn("rangeOverflow", value.Bool(v.RangeOverflow))
	o.SetOwn("stepMismatch", value.Bool(v.StepMismatch))
	o.SetOwn("tooLong", value.Bool(v.TooLong))
	o.SetOwn("tooShort", value.Bool(v.TooShort))
	o.SetOwn("customError", value.Bool(v.CustomError))
	o.SetOwn("valid", value.Bool(v.Valid()))
	return o
}
