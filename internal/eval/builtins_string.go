package eval

import (
	"math"
	"strings"
	"unicode/utf16"

	"github.com/module/scripthost/internal/value"
)

// dispatchStringMethod implements the String.prototype surface reached
// through the generic MemberCall fallback. Indices are UTF-16 code-unit
// based throughout, per §6.4/Invariant I6, matching the regex backend's
// offsets and keeping string/regex interop index-compatible.
func (ev *Evaluator) dispatchStringMethod(s value.String, method string, args []value.Value) (value.Value, bool, error) {
	str := string(s)
	units := utf16.Encode([]rune(str))
	switch method {
	case "charAt":
		i := argInt(args, 0, 0)
		if i < 0 || i >= len(units) {
			return value.String(""), true, nil
		}
		return value.String(string(utf16.Decode(units[i : i+1]))), true, nil
	case "charCodeAt":
		i := argInt(args, 0, 0)
		if i < 0 || i >= len(units) {
			return value.Float(math.NaN()), true, nil
		}
		return value.Number(int64(units[i])), true, nil
	case "codePointAt":
		i := argInt(args, 0, 0)
		if i < 0 || i >= len(units) {
			return value.Undefined, true, nil
		}
		runes := []rune(string(utf16.Decode(units[i:])))
		if len(runes) == 0 {
			return value.Undefined, true, nil
		}
		return value.Number(int64(runes[0])), true, nil
	case "at":
		i := argInt(args, 0, 0)
		if i < 0 {
			i += len(units)
		}
		if i < 0 || i >= len(units) {
			return value.Undefined, true, nil
		}
		return value.String(string(utf16.Decode(units[i : i+1]))), true, nil
	case "indexOf":
		needle := argStr(args, 0)
		from := argInt(args, 1, 0)
		return value.Number(int64(utf16IndexOf(units, needle, from))), true, nil
	case "lastIndexOf":
		needle := argStr(args, 0)
		idx := strings.LastIndex(str, needle)
		if idx < 0 {
			return value.Number(-1), true, nil
		}
		return value.Number(int64(runeToUTF16Offset(str, idx))), true, nil
	case "includes":
		return value.Bool(strings.Contains(str, argStr(args, 0))), true, nil
	case "startsWith":
		pos := argInt(args, 1, 0)
		sub := utf16Slice(units, pos, len(units))
		return value.Bool(strings.HasPrefix(sub, argStr(args, 0))), true, nil
	case "endsWith":
		end := len(units)
		if len(args) > 1 {
			end = argInt(args, 1, end)
		}
		sub := utf16Slice(units, 0, end)
		return value.Bool(strings.HasSuffix(sub, argStr(args, 0))), true, nil
	case "slice":
		start, end := sliceRange(len(units), args)
		return value.String(utf16Slice(units, start, end)), true, nil
	case "substring":
		n := len(units)
		start := clamp(argInt(args, 0, 0), 0, n)
		end := n
		if len(args) > 1 {
			end = clamp(argInt(args, 1, n), 0, n)
		}
		if start > end {
			start, end = end, start
		}
		return value.String(utf16Slice(units, start, end)), true, nil
	case "substr":
		n := len(units)
		start := argInt(args, 0, 0)
		if start < 0 {
			start = n + start
			if start < 0 {
				start = 0
			}
		}
		length := n - start
		if len(args) > 1 {
			length = argInt(args, 1, length)
		}
		end := start + length
		if end > n {
			end = n
		}
		if start > end {
			start = end
		}
		return value.String(utf16Slice(units, start, end)), true, nil
	case "toUpperCase", "toLocaleUpperCase":
		return value.String(strings.ToUpper(str)), true, nil
	case "toLowerCase", "toLocaleLowerCase":
		return value.String(strings.ToLower(str)), true, nil
	case "trim":
		return value.String(strings.TrimSpace(str)), true, nil
	case "trimStart":
		return value.String(strings.TrimLeft(str, " \t\n\r\f\v")), true, nil
	case "trimEnd":
		return value.String(strings.TrimRight(str, " \t\n\r\f\v")), true, nil
	case "padStart":
		return value.String(padString(str, args, true)), true, nil
	case "padEnd":
		return value.String(padString(str, args, false)), true, nil
	case "repeat":
		n := argInt(args, 0, 0)
		if n < 0 {
			return nil, true, runtimeErrf("Invalid count value: %d", n)
		}
		return value.String(strings.Repeat(str, n)), true, nil
	case "concat":
		var b strings.Builder
		b.WriteString(str)
		for _, a := range args {
			b.WriteString(ToDisplayString(a))
		}
		return value.String(b.String()), true, nil
	case "split":
		return ev.stringSplit(str, args), true, nil
	case "replace":
		return ev.stringReplace(str, args, false)
	case "replaceAll":
		return ev.stringReplace(str, args, true)
	case "match":
		return ev.stringMatch(str, args, false)
	case "matchAll":
		return ev.stringMatch(str, args, true)
	case "search":
		return ev.stringSearch(str, args)
	case "normalize":
		return value.String(str), true, nil
	case "localeCompare":
		other := argStr(args, 0)
		switch {
		case str < other:
			return value.Number(-1), true, nil
		case str > other:
			return value.Number(1), true, nil
		default:
			return value.Number(0), true, nil
		}
	case "toString", "valueOf":
		return s, true, nil
	default:
		return nil, false, nil
	}
}

func argInt(args []value.Value, i, def int) int {
	if i >= len(args) || value.IsNullish(args[i]) {
		return def
	}
	return int(ToFloat64(args[i]))
}

func argStr(args []value.Value, i int) string {
	if i >= len(args) {
		return "undefined"
	}
	return ToDisplayString(args[i])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func utf16Slice(units []uint16, start, end int) string {
	start = clamp(start, 0, len(units))
	end = clamp(end, 0, len(units))
	if end < start {
		end = start
	}
	return string(utf16.Decode(units[start:end]))
}

func utf16IndexOf(units []uint16, needle string, from int) int {
	from = clamp(from, 0, len(units))
	needleUnits := utf16.Encode([]rune(needle))
	if len(needleUnits) == 0 {
		return from
	}
	for i := from; i+len(needleUnits) <= len(units); i++ {
		match := true
		for j, nu := range needleUnits {
			if units[i+j] != nu {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func runeToUTF16Offset(s string, runeByteIdx int) int {
	return len(utf16.Encode([]rune(s[:runeByteIdx])))
}

func padString(s string, args []value.Value, start bool) string {
	target := argInt(args, 0, 0)
	units := utf16.Encode([]rune(s))
	if target <= len(units) {
		return s
	}
	pad := " "
	if len(args) > 1 && !value.IsNullish(args[1]) {
		pad = ToDisplayString(args[1])
	}
	if pad == "" {
		return s
	}
	padUnits := utf16.Encode([]rune(pad))
	need := target - len(units)
	var fill []uint16
	for len(fill) < need {
		fill = append(fill, padUnits...)
	}
	fill = fill[:need]
	if start {
		return string(utf16.Decode(fill)) + s
	}
	return s + string(utf16.Decode(fill))
}

