package eval

import (
	"net/url"
	"strings"

	"github.com/module/scripthost/internal/value"
)

// dispatchBlobMethod implements Blob's instance methods (§6.4-adjacent web
// API surface supplementing the original spec.md, see SPEC_FULL.md's
// SUPPLEMENTED FEATURES). text()/arrayBuffer() are async per the real API,
// so they return already-resolved Promises — there is no actual I/O to
// await, matching how fetch's mocked response object does the same thing
// (globals.go's fetchFn).
func (ev *Evaluator) dispatchBlobMethod(b *value.Blob, method string, args []value.Value) (value.Value, bool, error) {
	switch method {
	case "text":
		return ev.asPromise(value.String(string(b.Bytes))), true, nil
	case "arrayBuffer":
		buf := value.NewArrayBuffer(len(b.Bytes))
		if bs, ok := buf.Bytes(); ok {
			copy(bs, b.Bytes)
		}
		return ev.asPromise(buf), true, nil
	case "slice":
		start, end := 0, len(b.Bytes)
		if len(args) > 0 {
			start = clampBlobIndex(int(ToFloat64(args[0])), len(b.Bytes))
		}
		if len(args) > 1 {
			end = clampBlobIndex(int(ToFloat64(args[1])), len(b.Bytes))
		}
		if end < start {
			end = start
		}
		typ := b.Type
		if len(args) > 2 {
			typ = ToDisplayString(args[2])
		}
		sliced := append([]byte{}, b.Bytes[start:end]...)
		return &value.Blob{Bytes: sliced, Type: typ}, true, nil
	}
	return nil, false, nil
}

func clampBlobIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

// dispatchFormDataMethod implements both FormData and URLSearchParams
// instance methods: the two share the same ordered (name, value) string
// pairs representation (value.FormData) since their CRUD surface is
// identical; only construction differs (see buildFormDataCtor/
// buildURLSearchParamsCtor in globals.go). toString renders both the same
// way, as a url.Values-encoded query string with the pairs sorted by name.
func (ev *Evaluator) dispatchFormDataMethod(fd *value.FormData, method string, args []value.Value) (value.Value, bool, error) {
	switch method {
	case "append":
		fd.Entries = append(fd.Entries, value.FormDataEntry{
			Name:  ToDisplayString(firstArg(args)),
			Value: ToDisplayString(secondArg(args)),
		})
		return value.Undefined, true, nil
	case "set":
		name := ToDisplayString(firstArg(args))
		val := ToDisplayString(secondArg(args))
		out := fd.Entries[:0]
		set := false
		for _, e := range fd.Entries {
			if e.Name != name {
				out = append(out, e)
				continue
			}
			if !set {
				out = append(out, value.FormDataEntry{Name: name, Value: val})
				set = true
			}
		}
		if !set {
			out = append(out, value.FormDataEntry{Name: name, Value: val})
		}
		fd.Entries = out
		return value.Undefined, true, nil
	case "delete":
		name := ToDisplayString(firstArg(args))
		var out []value.FormDataEntry
		for _, e := range fd.Entries {
			if e.Name != name {
				out = append(out, e)
			}
		}
		fd.Entries = out
		return value.Undefined, true, nil
	case "get":
		name := ToDisplayString(firstArg(args))
		for _, e := range fd.Entries {
			if e.Name == name {
				return value.String(e.Value), true, nil
			}
		}
		return value.Null, true, nil
	case "getAll":
		name := ToDisplayString(firstArg(args))
		var out []value.Value
		for _, e := range fd.Entries {
			if e.Name == name {
				out = append(out, value.String(e.Value))
			}
		}
		return value.NewArray(out), true, nil
	case "has":
		name := ToDisplayString(firstArg(args))
		for _, e := range fd.Entries {
			if e.Name == name {
				return value.Bool(true), true, nil
			}
		}
		return value.Bool(false), true, nil
	case "keys":
		var out []value.Value
		for _, e := range fd.Entries {
			out = append(out, value.String(e.Name))
		}
		return value.NewArray(out), true, nil
	case "values":
		var out []value.Value
		for _, e := range fd.Entries {
			out = append(out, value.String(e.Value))
		}
		return value.NewArray(out), true, nil
	case "entries":
		var out []value.Value
		for _, e := range fd.Entries {
			out = append(out, value.NewArray([]value.Value{value.String(e.Name), value.String(e.Value)}))
		}
		return value.NewArray(out), true, nil
	case "forEach":
		fn, ok := firstArg(args).(*value.Function)
		if !ok {
			return nil, true, runtimeErrf("forEach callback is not a function")
		}
		for _, e := range fd.Entries {
			if _, err := ev.CallFunction(fn, value.Undefined, []value.Value{value.String(e.Value), value.String(e.Name)}); err != nil {
				return nil, true, err
			}
		}
		return value.Undefined, true, nil
	case "toString":
		return value.String(formDataToQueryString(fd)), true, nil
	}
	return nil, false, nil
}

func formDataToQueryString(fd *value.FormData) string {
	q := url.Values{}
	for _, e := range fd.Entries {
		q.Add(e.Name, e.Value)
	}
	return q.Encode()
}

func secondArg(args []value.Value) value.Value {
	if len(args) > 1 {
		return args[1]
	}
	return value.Undefined
}

// parseQueryFormData builds a *value.FormData's entries from a leading-"?"
// optional query string, a plain "a=1&b=2" string, or an existing
// FormData/array-of-pairs/plain-object initializer — the shapes
// `new URLSearchParams(init)` accepts.
func parseQueryFormData(init value.Value) *value.FormData {
	fd := &value.FormData{}
	switch t := init.(type) {
	case value.String:
		s := strings.TrimPrefix(string(t), "?")
		// Split manually rather than url.ParseQuery, which collapses into
		// a map and loses insertion order; entries() must reflect source
		// order per the real URLSearchParams.
		for _, pair := range strings.Split(s, "&") {
			if pair == "" {
				continue
			}
			kv := strings.SplitN(pair, "=", 2)
			name, _ := url.QueryUnescape(kv[0])
			val := ""
			if len(kv) > 1 {
				val, _ = url.QueryUnescape(kv[1])
			}
			fd.Entries = append(fd.Entries, value.FormDataEntry{Name: name, Value: val})
		}
	case *value.FormData:
		fd.Entries = append(fd.Entries, t.Entries...)
	case *value.Array:
		for _, el := range t.Elements() {
			pair, ok := el.(*value.Array)
			if !ok || pair.Len() < 2 {
				continue
			}
			name, _ := pair.Get(0)
			val, _ := pair.Get(1)
			fd.Entries = append(fd.Entries, value.FormDataEntry{
				Name:  ToDisplayString(name),
				Value: ToDisplayString(val),
			})
		}
	case *value.Object:
		for _, k := range t.OwnKeys() {
			v, _ := t.OwnGet(k)
			fd.Entries = append(fd.Entries, value.FormDataEntry{Name: k, Value: ToDisplayString(v)})
		}
	}
	return fd
}
