package eval

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/module/scripthost/internal/value"
)

// jsonStringify implements JSON.stringify per the omission/ordering rules
// original_source/expression_eval/json_object_array.rs supplies: object keys
// serialize in insertion order, a value of `undefined` or a function is
// omitted entirely from an object but becomes `null` inside an array, and a
// circular reference throws rather than looping forever.
func (ev *Evaluator) jsonStringify(v value.Value, indent string) (value.Value, error) {
	if isJSONUndefinedLike(v) {
		return value.Undefined, nil
	}
	var b strings.Builder
	seen := map[interface{}]bool{}
	if err := writeJSON(&b, v, indent, "", seen); err != nil {
		return nil, err
	}
	return value.String(b.String()), nil
}

func isJSONUndefinedLike(v value.Value) bool {
	if v == nil || v.Kind() == value.KindUndefined {
		return true
	}
	if _, ok := v.(*value.Function); ok {
		return true
	}
	return false
}

func writeJSON(b *strings.Builder, v value.Value, indent, cur string, seen map[interface{}]bool) error {
	if v == nil || v.Kind() == value.KindUndefined || v.Kind() == value.KindNull {
		b.WriteString("null")
		return nil
	}
	switch t := v.(type) {
	case *value.Function:
		b.WriteString("null")
	case value.Bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case value.Number:
		b.WriteString(formatFloat(float64(t)))
	case value.Float:
		f := float64(t)
		if f != f || f > 1e308*10 || f < -1e308*10 {
			b.WriteString("null")
		} else {
			b.WriteString(formatFloat(f))
		}
	case value.String:
		b.WriteString(jsonQuote(string(t)))
	case value.BigInt:
		return runtimeErrf("Do not know how to serialize a BigInt")
	case *value.Array:
		if seen[t] {
			return runtimeErrf("Converting circular structure to JSON")
		}
		seen[t] = true
		defer delete(seen, t)
		elems := t.Elements()
		b.WriteByte('[')
		next := cur + indent
		for i, e := range elems {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSONNewline(b, indent, next)
			ev := e
			if isJSONUndefinedLike(ev) {
				b.WriteString("null")
				continue
			}
			if err := writeJSON(b, ev, indent, next, seen); err != nil {
				return err
			}
		}
		if len(elems) > 0 {
			writeJSONNewline(b, indent, cur)
		}
		b.WriteByte(']')
	case *value.Object:
		if seen[t] {
			return runtimeErrf("Converting circular structure to JSON")
		}
		seen[t] = true
		defer delete(seen, t)
		keys := t.OwnKeys()
		b.WriteByte('{')
		next := cur + indent
		wrote := 0
		for _, k := range keys {
			val, _ := t.OwnGet(k)
			if isJSONUndefinedLike(val) {
				continue
			}
			if wrote > 0 {
				b.WriteByte(',')
			}
			writeJSONNewline(b, indent, next)
			b.WriteString(jsonQuote(k))
			b.WriteByte(':')
			if indent != "" {
				b.WriteByte(' ')
			}
			if err := writeJSON(b, val, indent, next, seen); err != nil {
				return err
			}
			wrote++
		}
		if wrote > 0 {
			writeJSONNewline(b, indent, cur)
		}
		b.WriteByte('}')
	default:
		b.WriteString("null")
	}
	return nil
}

func writeJSONNewline(b *strings.Builder, indent, cur string) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(cur)
}

func jsonQuote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

// jsonParse implements JSON.parse by decoding through encoding/json into a
// generic interface{} tree (no JS-specific semantics on the parse side) and
// converting it into Values, preserving key order via json.Decoder's
// token-level Object reconstruction rather than map[string]interface{},
// which would lose insertion order.
func (ev *Evaluator) jsonParse(text string) (value.Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, runtimeErrf("Unexpected token in JSON: %s", err.Error())
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (value.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (value.Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			o := value.NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				o.SetOwn(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return o, nil
		case '[':
			var elems []value.Value
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				elems = append(elems, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return value.NewArray(elems), nil
		}
	case string:
		return value.String(t), nil
	case float64:
		if n, ok := isIntValued(t); ok {
			return value.Number(n), nil
		}
		return value.Float(t), nil
	case bool:
		return value.Bool(t), nil
	case nil:
		return value.Null, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
