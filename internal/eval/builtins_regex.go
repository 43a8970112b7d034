package eval

import (
	"github.com/module/scripthost/internal/regexengine"
	"github.com/module/scripthost/internal/value"
)

// execRegex runs r against input starting from its lastIndex when the `g`
// or `y` flag is set (per §6.4), advancing lastIndex on a match and
// resetting it to 0 on a miss; without either flag the search starts at 0
// and lastIndex is left untouched.
func execRegex(r *value.RegExp, input string) (*regexengine.Match, error) {
	compiled, ok := r.Compiled.(*regexengine.Compiled)
	if !ok {
		return nil, runtimeErrf("regular expression has no compiled backend")
	}
	sticky := r.Global() || r.Sticky()
	from := 0
	if sticky {
		from = r.LastIndex
	}
	var (
		m   *regexengine.Match
		err error
	)
	if r.Sticky() {
		m, err = compiled.ExecSticky(input, from)
	} else {
		m, err = compiled.Exec(input, from)
	}
	if err != nil {
		return nil, runtimeErrf("%s", err.Error())
	}
	if sticky {
		if m == nil {
			r.LastIndex = 0
		} else {
			next := m.End
			if next == m.Start {
				next++
			}
			r.LastIndex = next
		}
	}
	return m, nil
}

// matchResultArray builds the array exec()/match() return on success: the
// matched text plus captures, with `index`/`input`/`groups` expandos.
func (ev *Evaluator) matchResultArray(m *regexengine.Match, input string) *value.Array {
	elems := make([]value.Value, 1+len(m.Groups))
	elems[0] = value.String(m.Text)
	for i, g := range m.Groups {
		if g.Matched {
			elems[i+1] = value.String(g.Text)
		} else {
			elems[i+1] = value.Undefined
		}
	}
	arr := value.NewArray(elems)
	arr.SetProperty("index", value.Number(m.Start))
	arr.SetProperty("input", value.String(input))
	if len(m.Named) == 0 {
		arr.SetProperty("groups", value.Undefined)
	} else {
		groups := value.NewObject()
		for name, g := range m.Named {
			if g.Matched {
				groups.SetOwn(name, value.String(g.Text))
			} else {
				groups.SetOwn(name, value.Undefined)
			}
		}
		arr.SetProperty("groups", groups)
	}
	return arr
}

// dispatchRegExpMethod implements RegExp.prototype.test/exec (§6.4).
func (ev *Evaluator) dispatchRegExpMethod(r *value.RegExp, method string, args []value.Value) (value.Value, bool, error) {
	switch method {
	case "test":
		input := ""
		if len(args) > 0 {
			input = ToDisplayString(args[0])
		}
		m, err := execRegex(r, input)
		if err != nil {
			return nil, true, err
		}
		return value.Bool(m != nil), true, nil
	case "exec":
		input := ""
		if len(args) > 0 {
			input = ToDisplayString(args[0])
		}
		m, err := execRegex(r, input)
		if err != nil {
			return nil, true, err
		}
		if m == nil {
			return value.Null, true, nil
		}
		return ev.matchResultArray(m, input), true, nil
	case "toString":
		return value.String("/" + r.Source + "/" + r.Flags), true, nil
	default:
		return nil, false, nil
	}
}
