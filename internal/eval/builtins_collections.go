package eval

import "github.com/module/scripthost/internal/value"

// dispatchMapMethod implements Map/WeakMap.prototype per §3.2's
// SameValueZero-keyed, insertion-ordered collection.
func (ev *Evaluator) dispatchMapMethod(m *value.MapObject, method string, args []value.Value) (value.Value, bool, error) {
	switch method {
	case "get":
		v, _ := m.Get(firstArg(args))
		return v, true, nil
	case "set":
		var val value.Value = value.Undefined
		if len(args) > 1 {
			val = args[1]
		}
		m.Set(firstArg(args), val)
		return m, true, nil
	case "has":
		return value.Bool(m.Has(firstArg(args))), true, nil
	case "delete":
		return value.Bool(m.Delete(firstArg(args))), true, nil
	case "clear":
		m.Clear()
		return value.Undefined, true, nil
	case "forEach":
		fn, ok := firstArg(args).(*value.Function)
		if !ok {
			return nil, true, runtimeErrf("forEach callback must be a function")
		}
		for _, e := range m.Entries() {
			if _, err := ev.CallFunction(fn, value.Undefined, []value.Value{e[1], e[0], m}); err != nil {
				return nil, true, err
			}
		}
		return value.Undefined, true, nil
	case "keys":
		entries := m.Entries()
		out := make([]value.Value, len(entries))
		for i, e := range entries {
			out[i] = e[0]
		}
		return ev.newArrayIterator(out), true, nil
	case "values":
		entries := m.Entries()
		out := make([]value.Value, len(entries))
		for i, e := range entries {
			out[i] = e[1]
		}
		return ev.newArrayIterator(out), true, nil
	case "entries":
		entries := m.Entries()
		out := make([]value.Value, len(entries))
		for i, e := range entries {
			out[i] = value.NewArray([]value.Value{e[0], e[1]})
		}
		return ev.newArrayIterator(out), true, nil
	default:
		return nil, false, nil
	}
}

// dispatchSetMethod implements Set/WeakSet.prototype, mirroring the Map
// family above over single values instead of key/value pairs.
func (ev *Evaluator) dispatchSetMethod(s *value.SetObject, method string, args []value.Value) (value.Value, bool, error) {
	switch method {
	case "add":
		s.Add(firstArg(args))
		return s, true, nil
	case "has":
		return value.Bool(s.Has(firstArg(args))), true, nil
	case "delete":
		return value.Bool(s.Delete(firstArg(args))), true, nil
	case "clear":
		s.Clear()
		return value.Undefined, true, nil
	case "forEach":
		fn, ok := firstArg(args).(*value.Function)
		if !ok {
			return nil, true, runtimeErrf("forEach callback must be a function")
		}
		for _, v := range s.Values() {
			if _, err := ev.CallFunction(fn, value.Undefined, []value.Value{v, v, s}); err != nil {
				return nil, true, err
			}
		}
		return value.Undefined, true, nil
	case "keys", "values":
		return ev.newArrayIterator(s.Values()), true, nil
	case "entries":
		values := s.Values()
		out := make([]value.Value, len(values))
		for i, v := range values {
			out[i] = value.NewArray([]value.Value{v, v})
		}
		return ev.newArrayIterator(out), true, nil
	default:
		return nil, false, nil
	}
}
