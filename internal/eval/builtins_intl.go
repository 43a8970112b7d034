package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/module/scripthost/internal/value"
)

// newIntlFormatter builds the object `new Intl.<Kind>(locales, options)`
// evaluates to. There is no real locale database behind this — every
// formatter renders en-US-shaped output regardless of the locales argument,
// a documented simplification (§6's Intl lowering only requires the call
// shape and format() contract, not genuine i18n data).
func (ev *Evaluator) newIntlFormatter(kind string, locales, options value.Value) (value.Value, error) {
	opts := intlOptions(options)
	o := value.NewObject()
	o.SetInternalFlag("__isIntlFormatter__")
	o.SetOwn("__intlKind__", value.String(kind))
	switch kind {
	case "NumberFormat":
		o.SetOwn("format", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
			return value.String(formatIntlNumber(ToFloat64(firstArg(args)), opts)), nil
		}))
	case "DateTimeFormat":
		o.SetOwn("format", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
			var d value.Date
			switch v := firstArg(args).(type) {
			case value.Date:
				d = v
			default:
				d = value.Date(int64(ToFloat64(v)))
			}
			return value.String(ev.dateTime(d).Format("1/2/2006")), nil
		}))
	case "Collator":
		o.SetOwn("compare", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
			a := ToDisplayString(firstArg(args))
			b := ""
			if len(args) > 1 {
				b = ToDisplayString(args[1])
			}
			switch {
			case a < b:
				return value.Number(-1), nil
			case a > b:
				return value.Number(1), nil
			default:
				return value.Number(0), nil
			}
		}))
	case "ListFormat":
		o.SetOwn("format", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
			items, err := ev.iterableElements(firstArg(args))
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(items))
			for i, it := range items {
				parts[i] = ToDisplayString(it)
			}
			return value.String(formatIntlList(parts, opts)), nil
		}))
	case "RelativeTimeFormat":
		o.SetOwn("format", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
			n := ToFloat64(firstArg(args))
			unit := "second"
			if len(args) > 1 {
				unit = ToDisplayString(args[1])
			}
			return value.String(formatIntlRelative(n, unit)), nil
		}))
	case "PluralRules":
		o.SetOwn("select", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
			n := ToFloat64(firstArg(args))
			if n == 1 {
				return value.String("one"), nil
			}
			return value.String("other"), nil
		}))
	default:
		return nil, runtimeErrf("unsupported Intl.%s", kind)
	}
	o.SetOwn("resolvedOptions", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		ro := value.NewObject()
		ro.SetOwn("locale", value.String("en-US"))
		return ro, nil
	}))
	return o, nil
}

func intlOptions(v value.Value) map[string]string {
	out := map[string]string{}
	o, ok := v.(*value.Object)
	if !ok {
		return out
	}
	for _, k := range o.OwnKeys() {
		val, _ := o.OwnGet(k)
		out[k] = ToDisplayString(val)
	}
	return out
}

func formatIntlNumber(n float64, opts map[string]string) string {
	switch opts["style"] {
	case "percent":
		return strconv.FormatFloat(n*100, 'f', -1, 64) + "%"
	case "currency":
		code := opts["currency"]
		if code == "" {
			code = "USD"
		}
		sym := map[string]string{"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥"}[code]
		if sym == "" {
			sym = code + " "
		}
		return sym + strconv.FormatFloat(n, 'f', 2, 64)
	default:
		return formatIntlGrouped(n)
	}
}

func formatIntlGrouped(n float64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	whole := int64(n)
	frac := n - float64(whole)
	s := strconv.FormatInt(whole, 10)
	var grouped strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	out := grouped.String()
	if frac > 0 {
		out += strings.TrimRight(fmt.Sprintf("%.3f", frac)[1:], "0")
		out = strings.TrimSuffix(out, ".")
	}
	if neg {
		out = "-" + out
	}
	return out
}

func formatIntlList(parts []string, opts map[string]string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		conj := "and"
		if opts["type"] == "disjunction" {
			conj = "or"
		}
		return parts[0] + " " + conj + " " + parts[1]
	default:
		conj := "and"
		if opts["type"] == "disjunction" {
			conj = "or"
		}
		return strings.Join(parts[:len(parts)-1], ", ") + ", " + conj + " " + parts[len(parts)-1]
	}
}

func formatIntlRelative(n float64, unit string) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	plural := unit
	if abs != 1 {
		plural = unit + "s"
	}
	if n < 0 {
		return strconv.FormatFloat(abs, 'f', -1, 64) + " " + plural + " ago"
	}
	return "in " + strconv.FormatFloat(abs, 'f', -1, 64) + " " + plural
}
