package eval

import "github.com/module/scripthost/internal/value"

// dispatchObjectInstanceMethod implements the methods reachable on a plain
// *value.Object: both the small Object.prototype surface every object
// inherits, and the handful of host-wrapper objects (Storage, URL, …) that
// globals.go builds as tagged *Object instances rather than dedicated Value
// variants, per §4.5.5's "expose host objects the same shape as script
// objects" approach. A class instance's own methods are never handled
// here — those live on its prototype object and reach evalMemberCall's
// ordinary GetProperty + CallFunction fallback instead.
func (ev *Evaluator) dispatchObjectInstanceMethod(o *value.Object, method string, args []value.Value) (value.Value, bool, error) {
	if o.InternalFlag("__isStorage__") {
		if v, handled, err := ev.dispatchStorageMethod(o, method, args); handled {
			return v, handled, err
		}
	}
	if o.InternalFlag("__isURL__") {
		if v, handled, err := ev.dispatchURLMethod(o, method, args); handled {
			return v, handled, err
		}
	}
	if s, ok := stringWrapperValue(o); ok {
		switch method {
		case "toString", "valueOf":
			return value.String(s), true, nil
		}
		if v, handled, err := ev.dispatchStringMethod(value.String(s), method, args); handled {
			return v, handled, err
		}
	}
	switch method {
	case "hasOwnProperty":
		return value.Bool(o.HasOwn(ToDisplayString(firstArg(args)))), true, nil
	case "isPrototypeOf":
		other, ok := firstArg(args).(*value.Object)
		if !ok {
			return value.Bool(false), true, nil
		}
		cur := other.Proto()
		for {
			p, ok := cur.(*value.Object)
			if !ok {
				return value.Bool(false), true, nil
			}
			if p == o {
				return value.Bool(true), true, nil
			}
			cur = p.Proto()
		}
	case "propertyIsEnumerable":
		return value.Bool(o.HasOwn(ToDisplayString(firstArg(args)))), true, nil
	case "toString":
		return value.String("[object Object]"), true, nil
	case "valueOf":
		return o, true, nil
	default:
		return nil, false, nil
	}
}

// dispatchStorageMethod implements the localStorage/sessionStorage surface
// (§6.1 set_clipboard_text's sibling web-storage mocks): an ordered
// key/value list backed by the object's own entries, with `__`-prefixed
// internal keys filtered out by OwnKeys the same way user data is.
func (ev *Evaluator) dispatchStorageMethod(o *value.Object, method string, args []value.Value) (value.Value, bool, error) {
	switch method {
	case "getItem":
		v, ok := o.OwnGet(ToDisplayString(firstArg(args)))
		if !ok {
			return value.Null, true, nil
		}
		return value.String(ToDisplayString(v)), true, nil
	case "setItem":
		o.SetOwn(ToDisplayString(firstArg(args)), value.String(ToDisplayString(argOrUndefined(args, 1))))
		return value.Undefined, true, nil
	case "removeItem":
		o.DeleteOwn(ToDisplayString(firstArg(args)))
		return value.Undefined, true, nil
	case "clear":
		for _, k := range o.OwnKeys() {
			o.DeleteOwn(k)
		}
		return value.Undefined, true, nil
	case "key":
		keys := o.OwnKeys()
		i := argInt(args, 0, 0)
		if i < 0 || i >= len(keys) {
			return value.Null, true, nil
		}
		return value.String(keys[i]), true, nil
	default:
		return nil, false, nil
	}
}

// dispatchURLMethod implements the small URL instance surface beyond its
// component properties (plain own properties that buildURLCtor sets at
// construction).
func (ev *Evaluator) dispatchURLMethod(o *value.Object, method string, args []value.Value) (value.Value, bool, error) {
	switch method {
	case "toString", "toJSON":
		if href, ok := o.OwnGet("href"); ok {
			return value.String(ToDisplayString(href)), true, nil
		}
		return value.String(""), true, nil
	default:
		return nil, false, nil
	}
}

func argOrUndefined(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}
