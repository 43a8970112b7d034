package eval

import (
	"strconv"
	"strings"

	"github.com/module/scripthost/internal/regexengine"
	"github.com/module/scripthost/internal/value"
)

// stringSplit implements String.prototype.split for both string and RegExp
// separators, per §6.4's interop between the two split forms.
func (ev *Evaluator) stringSplit(str string, args []value.Value) value.Value {
	if len(args) == 0 || value.IsNullish(args[0]) {
		return value.NewArray([]value.Value{value.String(str)})
	}
	limit := -1
	if len(args) > 1 && !value.IsNullish(args[1]) {
		limit = int(ToFloat64(args[1]))
	}
	var parts []string
	if re, ok := args[0].(*value.RegExp); ok {
		compiled, ok := re.Compiled.(*regexengine.Compiled)
		if !ok {
			return value.NewArray([]value.Value{value.String(str)})
		}
		matches, err := compiled.FindAll(str)
		if err != nil {
			return value.NewArray([]value.Value{value.String(str)})
		}
		last := 0
		prevByte := 0
		for _, m := range matches {
			startByte := utf16ByteOffset(str, m.Start)
			endByte := utf16ByteOffset(str, m.End)
			if startByte == endByte && startByte == prevByte {
				continue
			}
			parts = append(parts, str[last:startByte])
			for _, g := range m.Groups {
				if g.Matched {
					parts = append(parts, g.Text)
				}
			}
			last = endByte
			prevByte = endByte
		}
		parts = append(parts, str[last:])
	} else {
		sep := ToDisplayString(args[0])
		if sep == "" {
			for _, r := range str {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(str, sep)
		}
	}
	if limit >= 0 && limit < len(parts) {
		parts = parts[:limit]
	}
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.NewArray(out)
}

func utf16ByteOffset(s string, u16Idx int) int {
	units := 0
	for i, r := range s {
		if units >= u16Idx {
			return i
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return len(s)
}

// stringReplace implements replace/replaceAll for both string and RegExp
// patterns, with a function or `$&`/`` $` ``/`$'`/`$n`/`$<name>` template
// replacement, per §6.4's replacement-token semantics.
func (ev *Evaluator) stringReplace(str string, args []value.Value, all bool) (value.Value, bool, error) {
	if len(args) == 0 {
		return value.String(str), true, nil
	}
	replacement := args[1]
	if re, ok := args[0].(*value.RegExp); ok {
		compiled, ok := re.Compiled.(*regexengine.Compiled)
		if !ok {
			return value.String(str), true, nil
		}
		global := re.Global() || all
		matches, err := compiled.FindAll(str)
		if err != nil {
			return nil, true, runtimeErrf("%s", err.Error())
		}
		if !global && len(matches) > 1 {
			matches = matches[:1]
		}
		var b strings.Builder
		last := 0
		for _, m := range matches {
			startByte := utf16ByteOffset(str, m.Start)
			endByte := utf16ByteOffset(str, m.End)
			b.WriteString(str[last:startByte])
			rep, err := ev.expandReplacement(replacement, m, str, startByte, endByte)
			if err != nil {
				return nil, true, err
			}
			b.WriteString(rep)
			last = endByte
		}
		b.WriteString(str[last:])
		return value.String(b.String()), true, nil
	}
	needle := ToDisplayString(args[0])
	if all {
		if needle == "" {
			return value.String(str), true, nil
		}
		var b strings.Builder
		rest := str
		for {
			idx := strings.Index(rest, needle)
			if idx < 0 {
				b.WriteString(rest)
				break
			}
			b.WriteString(rest[:idx])
			rep, err := ev.expandLiteralReplacement(replacement, needle, str, len(str)-len(rest)+idx)
			if err != nil {
				return nil, true, err
			}
			b.WriteString(rep)
			rest = rest[idx+len(needle):]
		}
		return value.String(b.String()), true, nil
	}
	idx := strings.Index(str, needle)
	if idx < 0 {
		return value.String(str), true, nil
	}
	rep, err := ev.expandLiteralReplacement(replacement, needle, str, idx)
	if err != nil {
		return nil, true, err
	}
	return value.String(str[:idx] + rep + str[idx+len(needle):]), true, nil
}

func (ev *Evaluator) expandLiteralReplacement(replacement value.Value, matched, full string, idx int) (string, error) {
	if fn, ok := replacement.(*value.Function); ok {
		v, err := ev.CallFunction(fn, value.Undefined, []value.Value{value.String(matched), value.Number(int64(idx)), value.String(full)})
		if err != nil {
			return "", err
		}
		return ToDisplayString(v), nil
	}
	tmpl := ToDisplayString(replacement)
	return expandDollarTokens(tmpl, matched, full, idx, idx+len(matched), nil, nil), nil
}

func (ev *Evaluator) expandReplacement(replacement value.Value, m *regexengine.Match, full string, startByte, endByte int) (string, error) {
	if fn, ok := replacement.(*value.Function); ok {
		callArgs := []value.Value{value.String(m.Text)}
		for _, g := range m.Groups {
			if g.Matched {
				callArgs = append(callArgs, value.String(g.Text))
			} else {
				callArgs = append(callArgs, value.Undefined)
			}
		}
		callArgs = append(callArgs, value.Number(int64(m.Start)), value.String(full))
		v, err := ev.CallFunction(fn, value.Undefined, callArgs)
		if err != nil {
			return "", err
		}
		return ToDisplayString(v), nil
	}
	tmpl := ToDisplayString(replacement)
	groups := make([]string, len(m.Groups))
	for i, g := range m.Groups {
		if g.Matched {
			groups[i] = g.Text
		}
	}
	return expandDollarTokens(tmpl, m.Text, full, startByte, endByte, groups, m.Named), nil
}

// expandDollarTokens substitutes `$&`, `` $` ``, `$'`, `$n`/`$nn`, and
// `$<name>` inside a replacement template, per §6.4.
func expandDollarTokens(tmpl, matched, full string, startByte, endByte int, groups []string, named map[string]regexengine.Group) string {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '$' || i == len(tmpl)-1 {
			b.WriteByte(c)
			continue
		}
		next := tmpl[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '&':
			b.WriteString(matched)
			i++
		case next == '`':
			b.WriteString(full[:startByte])
			i++
		case next == '\'':
			b.WriteString(full[endByte:])
			i++
		case next == '<':
			end := strings.IndexByte(tmpl[i+2:], '>')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			name := tmpl[i+2 : i+2+end]
			if named != nil {
				if g, ok := named[name]; ok && g.Matched {
					b.WriteString(g.Text)
				}
			}
			i += 2 + end
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(tmpl) && tmpl[j] >= '0' && tmpl[j] <= '9' && j < i+3 {
				j++
			}
			n, _ := strconv.Atoi(tmpl[i+1 : j])
			if n >= 1 && n <= len(groups) {
				b.WriteString(groups[n-1])
				i = j - 1
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// stringMatch implements match()/matchAll(). Without the `g` flag, match()
// mirrors exec(); matchAll always returns every match as an iterator.
func (ev *Evaluator) stringMatch(str string, args []value.Value, all bool) (value.Value, bool, error) {
	re, ok := firstArgRegExp(args)
	if !ok {
		return value.Null, true, nil
	}
	compiled, ok := re.Compiled.(*regexengine.Compiled)
	if !ok {
		return value.Null, true, nil
	}
	if !all && !re.Global() {
		m, err := compiled.Exec(str, 0)
		if err != nil {
			return nil, true, runtimeErrf("%s", err.Error())
		}
		if m == nil {
			return value.Null, true, nil
		}
		return ev.matchResultArray(m, str), true, nil
	}
	matches, err := compiled.FindAll(str)
	if err != nil {
		return nil, true, runtimeErrf("%s", err.Error())
	}
	if !all {
		if len(matches) == 0 {
			return value.Null, true, nil
		}
		out := make([]value.Value, len(matches))
		for i, m := range matches {
			out[i] = value.String(m.Text)
		}
		return value.NewArray(out), true, nil
	}
	results := make([]value.Value, len(matches))
	for i, m := range matches {
		results[i] = ev.matchResultArray(m, str)
	}
	return ev.newArrayIterator(results), true, nil
}

func (ev *Evaluator) stringSearch(str string, args []value.Value) (value.Value, bool, error) {
	re, ok := firstArgRegExp(args)
	if !ok {
		return value.Number(-1), true, nil
	}
	compiled, ok := re.Compiled.(*regexengine.Compiled)
	if !ok {
		return value.Number(-1), true, nil
	}
	m, err := compiled.Exec(str, 0)
	if err != nil {
		return nil, true, runtimeErrf("%s", err.Error())
	}
	if m == nil {
		return value.Number(-1), true, nil
	}
	return value.Number(int64(m.Start)), true, nil
}

func firstArgRegExp(args []value.Value) (*value.RegExp, bool) {
	if len(args) == 0 {
		return nil, false
	}
	if re, ok := args[0].(*value.RegExp); ok {
		return re, true
	}
	compiled, err := regexengine.Compile(regexQuoteMeta(ToDisplayString(args[0])), "")
	if err != nil {
		return nil, false
	}
	return value.NewRegExp(ToDisplayString(args[0]), "", compiled), true
}

func regexQuoteMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', '*', '+', '?', '^', '$', '{', '}', '(', ')', '|', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
