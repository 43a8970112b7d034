package eval

import (
	"strconv"

	"github.com/module/scripthost/internal/value"
)

// GetProperty implements §4.4's object lookup algorithm (own entry, getter
// invocation, prototype walk) generalized to every receiver kind the value
// package models. Built-in "wrapper" behaviors are dispatched directly on
// the receiver's tag rather than through a prototype object, per §4.4's
// "prototype-like role of built-ins" note.
func (ev *Evaluator) GetProperty(this value.Value, key string) (value.Value, error) {
	if value.IsNullish(this) {
		return nil, runtimeErrf("cannot read properties of %s (reading %q)", ToDisplayString(this), key)
	}
	switch t := this.(type) {
	case *value.Object:
		return ev.objectGet(t, key)
	case *value.Array:
		return ev.arrayGet(t, key)
	case value.String:
		return ev.stringGet(t, key)
	case *value.Function:
		return ev.functionGet(t, key)
	case *value.MapObject:
		if key == "size" {
			return value.Number(t.Size()), nil
		}
		return value.Undefined, nil
	case *value.SetObject:
		if key == "size" {
			return value.Number(t.Size()), nil
		}
		return value.Undefined, nil
	case *value.RegExp:
		return ev.regexpGet(t, key)
	case value.Node:
		return ev.domPropertyGet(t.ID, key)
	case value.NodeList:
		if key == "length" {
			return value.Number(len(t.IDs)), nil
		}
		if idx, err := strconv.Atoi(key); err == nil {
			if idx >= 0 && idx < len(t.IDs) {
				return value.Node{ID: t.IDs[idx]}, nil
			}
			return value.Undefined, nil
		}
		return value.Undefined, nil
	case *value.Blob:
		switch key {
		case "size":
			return value.Number(len(t.Bytes)), nil
		case "type":
			return value.String(t.Type), nil
		}
		return value.Undefined, nil
	case *value.FormData:
		return value.Undefined, nil
	default:
		return value.Undefined, nil
	}
}

// objectGet implements §4.4's own-entry/getter/prototype-walk lookup. A
// string-wrapper object (Object("foo")) delegates length/indexed-char reads
// to string semantics before that walk, mirroring
// value_object_helpers.rs's string_wrapper_value_from_object special case —
// own entries still win for anything a script has added to the wrapper
// itself (e.g. wrapper.extra = 1).
func (ev *Evaluator) objectGet(o *value.Object, key string) (value.Value, error) {
	if s, ok := stringWrapperValue(o); ok && !o.HasOwn(key) {
		runes := []rune(s)
		if key == "length" {
			return value.Number(len(runes)), nil
		}
		if idx, err := strconv.Atoi(key); err == nil {
			if idx >= 0 && idx < len(runes) {
				return value.String(string(runes[idx])), nil
			}
			return value.Undefined, nil
		}
	}
	for cur := o; cur != nil; {
		if v, ok := cur.OwnGet(key); ok {
			return v, nil
		}
		if getter, ok := cur.Getter(key); ok {
			return ev.CallFunction(getter, cur, nil)
		}
		proto := cur.Proto()
		if value.IsNullish(proto) {
			return value.Undefined, nil
		}
		next, ok := proto.(*value.Object)
		if !ok {
			return value.Undefined, nil
		}
		cur = next
	}
	return value.Undefined, nil
}

func (ev *Evaluator) arrayGet(a *value.Array, key string) (value.Value, error) {
	if key == "length" {
		return value.Number(a.Len()), nil
	}
	if idx, err := strconv.Atoi(key); err == nil {
		v, ok := a.Get(idx)
		if !ok {
			return value.Undefined, nil
		}
		return v, nil
	}
	if v, ok := a.Property(key); ok {
		return v, nil
	}
	return value.Undefined, nil
}

func (ev *Evaluator) stringGet(s value.String, key string) (value.Value, error) {
	runes := []rune(string(s))
	if key == "length" {
		return value.Number(len(runes)), nil
	}
	if idx, err := strconv.Atoi(key); err == nil {
		if idx >= 0 && idx < len(runes) {
			return value.String(string(runes[idx])), nil
		}
		return value.Undefined, nil
	}
	return value.Undefined, nil
}

func (ev *Evaluator) functionGet(f *value.Function, key string) (value.Value, error) {
	switch key {
	case "name":
		return value.String(f.Name), nil
	case "length":
		if f.Handler != nil {
			return value.Number(len(f.Handler.Params)), nil
		}
		return value.Number(0), nil
	case "prototype":
		if f.PrototypeObject != nil {
			return f.PrototypeObject, nil
		}
		return value.Undefined, nil
	}
	if getter, ok := ev.staticGetters[staticMemberKey(f.FunctionID, key)]; ok {
		return ev.CallFunction(getter, f, nil)
	}
	if v, ok := ev.funcPropsFor(f.FunctionID).Get(key); ok {
		return v, nil
	}
	return value.Undefined, nil
}

func staticMemberKey(id int64, key string) string {
	return strconv.FormatInt(id, 10) + "." + key
}

func (ev *Evaluator) regexpGet(r *value.RegExp, key string) (value.Value, error) {
	switch key {
	case "source":
		return value.String(r.Source), nil
	case "flags":
		return value.String(r.Flags), nil
	case "global":
		return value.Bool(r.Global()), nil
	case "ignoreCase":
		return value.Bool(r.IgnoreCase()), nil
	case "multiline":
		return value.Bool(r.Multiline()), nil
	case "sticky":
		return value.Bool(r.Sticky()), nil
	case "unicode":
		return value.Bool(r.Unicode()), nil
	case "dotAll":
		return value.Bool(r.DotAll()), nil
	case "hasIndices":
		return value.Bool(r.HasIndices()), nil
	case "lastIndex":
		return value.Number(r.LastIndex), nil
	}
	if v, ok := r.Properties.Get(key); ok {
		return v, nil
	}
	return value.Undefined, nil
}

// SetProperty implements the write half of §4.4's algorithm: a setter at any
// prototype level wins; otherwise the write lands as an own entry.
func (ev *Evaluator) SetProperty(this value.Value, key string, v value.Value) error {
	if value.IsNullish(this) {
		return runtimeErrf("cannot set properties of %s (setting %q)", ToDisplayString(this), key)
	}
	switch t := this.(type) {
	case *value.Object:
		return ev.objectSet(t, key, v)
	case *value.Array:
		return ev.arraySet(t, key, v)
	case *value.Function:
		if setter, ok := ev.staticSetters[staticMemberKey(t.FunctionID, key)]; ok {
			_, err := ev.CallFunction(setter, t, []value.Value{v})
			return err
		}
		ev.funcPropsFor(t.FunctionID).Set(key, v)
		return nil
	case *value.RegExp:
		if key == "lastIndex" {
			t.LastIndex, _ = isIntValued(ToFloat64(v))
			return nil
		}
		t.Properties.Set(key, v)
		return nil
	case value.Node:
		return ev.domPropertySet(t.ID, key, v)
	default:
		return runtimeErrf("cannot set property %q on this value", key)
	}
}

func (ev *Evaluator) objectSet(o *value.Object, key string, v value.Value) error {
	for cur := o; cur != nil; {
		if setter, ok := cur.Setter(key); ok {
			_, err := ev.CallFunction(setter, o, []value.Value{v})
			return err
		}
		if cur.HasOwn(key) {
			if cur == o {
				cur.SetOwn(key, v)
				return nil
			}
			break
		}
		proto := cur.Proto()
		if value.IsNullish(proto) {
			break
		}
		next, ok := proto.(*value.Object)
		if !ok {
			break
		}
		cur = next
	}
	o.SetOwn(key, v)
	return nil
}

func (ev *Evaluator) arraySet(a *value.Array, key string, v value.Value) error {
	if key == "length" {
		n, _ := isIntValued(ToFloat64(v))
		a.SetLength(int(n))
		return nil
	}
	if idx, err := strconv.Atoi(key); err == nil {
		a.Set(idx, v)
		return nil
	}
	a.SetProperty(key, v)
	return nil
}
