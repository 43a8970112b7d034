package eval

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/module/scripthost/internal/value"
)

// ToFloat64 implements ToNumber for the variants this harness models,
// producing NaN for anything that doesn't coerce cleanly (empty string is
// 0, per JS ToNumber).
func ToFloat64(v value.Value) float64 {
	switch t := v.(type) {
	case value.Number:
		return float64(t)
	case value.Float:
		return float64(t)
	case value.BigInt:
		f, _ := new(big.Float).SetInt(t.Int).Float64()
		return f
	case value.Bool:
		if t {
			return 1
		}
		return 0
	case value.String:
		s := strings.TrimSpace(string(t))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		if value.IsNullish(v) {
			if v != nil && v.Kind() == value.KindNull {
				return 0
			}
			return math.NaN()
		}
		return math.NaN()
	}
}

// ToDisplayString implements ToString for the variants this harness models
// (console output, string concatenation, template interpolation).
func ToDisplayString(v value.Value) string {
	if v == nil {
		return "undefined"
	}
	switch t := v.(type) {
	case value.String:
		return string(t)
	case value.Number:
		return strconv.FormatInt(int64(t), 10)
	case value.Float:
		return formatFloat(float64(t))
	case value.BigInt:
		return t.String()
	case value.Bool:
		return strconv.FormatBool(bool(t))
	case value.Date:
		return formatDate(int64(t))
	default:
		switch v.Kind() {
		case value.KindNull:
			return "null"
		case value.KindUndefined:
			return "undefined"
		case value.KindArray:
			return arrayToDisplayString(v.(*value.Array))
		case value.KindObject:
			return "[object Object]"
		case value.KindFunction:
			return "function"
		case value.KindRegExp:
			re := v.(*value.RegExp)
			return "/" + re.Source + "/" + re.Flags
		case value.KindSymbol:
			s := v.(*value.Symbol)
			desc := ""
			if s.Description != nil {
				desc = *s.Description
			}
			return "Symbol(" + desc + ")"
		default:
			return fmt.Sprintf("%v", v)
		}
	}
}

func arrayToDisplayString(a *value.Array) string {
	parts := make([]string, a.Len())
	for i, e := range a.Elements() {
		if value.IsNullish(e) {
			parts[i] = ""
		} else {
			parts[i] = ToDisplayString(e)
		}
	}
	return strings.Join(parts, ",")
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatDate(epochMs int64) string {
	return fmt.Sprintf("Date(%d)", epochMs)
}

// isIntValued reports whether f has no fractional part and fits in int64,
// used to decide whether an arithmetic result stays a Number or promotes to
// Float per §4.5.1 "standard promotion".
func isIntValued(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	if f > 9.2233720368547758e18 || f < -9.2233720368547758e18 {
		return 0, false
	}
	return int64(f), true
}

func isNumeric(v value.Value) bool {
	switch v.(type) {
	case value.Number, value.Float, value.BigInt:
		return true
	}
	return false
}

// Arith evaluates a binary arithmetic operator per §4.5.1: Number/Float mix
// promotes to Float, BigInt never implicitly mixes with Number/Float, `+`
// on strings concatenates, and `+` with a Date operand concatenates its
// string form while any other operand goes through ToFloat64 (a simplified
// "string for Date, number otherwise" toPrimitive, matching §4.5.1's own
// stated simplification).
func Arith(op string, l, r value.Value) (value.Value, error) {
	_, lStr := l.(value.String)
	_, rStr := r.(value.String)
	if op == "+" && (lStr || rStr) {
		return value.String(ToDisplayString(l) + ToDisplayString(r)), nil
	}
	if op == "+" && (!isNumeric(l) || !isNumeric(r)) {
		_, lDate := l.(value.Date)
		_, rDate := r.(value.Date)
		if lDate || rDate {
			return value.String(ToDisplayString(l) + ToDisplayString(r)), nil
		}
	}

	lb, lIsBig := l.(value.BigInt)
	rb, rIsBig := r.(value.BigInt)
	if lIsBig || rIsBig {
		if !lIsBig || !rIsBig {
			return nil, runtimeErrf("cannot mix BigInt with other types in arithmetic")
		}
		return bigIntArith(op, lb, rb)
	}

	lf := ToFloat64(l)
	rf := ToFloat64(r)
	_, lIsFloat := l.(value.Float)
	_, rIsFloat := r.(value.Float)

	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		result = lf / rf
		return value.Float(result), nil
	case "%":
		result = math.Mod(lf, rf)
	case "**":
		result = math.Pow(lf, rf)
	default:
		return nil, runtimeErrf("unsupported arithmetic operator %q", op)
	}

	if lIsFloat || rIsFloat {
		return value.Float(result), nil
	}
	if iv, ok := isIntValued(result); ok {
		return value.Number(iv), nil
	}
	return value.Float(result), nil
}

func isStringy(v value.Value) bool {
	_, ok := v.(value.String)
	return ok
}

func bigIntArith(op string, l, r value.BigInt) (value.Value, error) {
	res := new(big.Int)
	switch op {
	case "+":
		res.Add(l.Int, r.Int)
	case "-":
		res.Sub(l.Int, r.Int)
	case "*":
		res.Mul(l.Int, r.Int)
	case "/":
		if r.Sign() == 0 {
			return nil, runtimeErrf("division by zero")
		}
		res.Quo(l.Int, r.Int)
	case "%":
		if r.Sign() == 0 {
			return nil, runtimeErrf("division by zero")
		}
		res.Rem(l.Int, r.Int)
	case "**":
		res.Exp(l.Int, r.Int, nil)
	default:
		return nil, runtimeErrf("unsupported BigInt operator %q", op)
	}
	return value.NewBigInt(res), nil
}

// negateBigInt implements unary `-` on a BigInt operand.
func negateBigInt(b value.BigInt) value.Value {
	return value.NewBigInt(new(big.Int).Neg(b.Int))
}

// bigIntFromDecimal parses a BigInt literal's digit string (the `123n`
// syntax strips its trailing `n` in the lexer, so digits is plain decimal
// text here).
func bigIntFromDecimal(digits string) *big.Int {
	n := new(big.Int)
	n.SetString(digits, 10)
	return n
}

// Compare implements relational operators (<, <=, >, >=) per §4.5.1:
// lexicographic by code unit for strings, IEEE 754 otherwise.
func Compare(op string, l, r value.Value) (bool, error) {
	ls, lIsStr := l.(value.String)
	rs, rIsStr := r.(value.String)
	if lIsStr && rIsStr {
		lu := utf16.Encode([]rune(string(ls)))
		ru := utf16.Encode([]rune(string(rs)))
		c := len(lu) - len(ru)
		for i := 0; i < len(lu) && i < len(ru); i++ {
			if lu[i] != ru[i] {
				c = int(lu[i]) - int(ru[i])
				break
			}
		}
		return compareResult(op, c), nil
	}
	lf, rf := ToFloat64(l), ToFloat64(r)
	if math.IsNaN(lf) || math.IsNaN(rf) {
		return false, nil
	}
	switch {
	case lf < rf:
		return compareResult(op, -1), nil
	case lf > rf:
		return compareResult(op, 1), nil
	default:
		return compareResult(op, 0), nil
	}
}

func compareResult(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

// LooseEquals implements `==`: same-kind comparisons delegate to
// StrictEquals; Number/Float/BigInt/Bool/String combinations coerce to
// Float per the standard abstract-equality ladder; Null/Undefined are equal
// only to each other.
func LooseEquals(l, r value.Value) bool {
	if value.IsNullish(l) || value.IsNullish(r) {
		return value.IsNullish(l) && value.IsNullish(r)
	}
	if l.Kind() == r.Kind() {
		return value.StrictEquals(l, r)
	}
	if isNumeric(l) || isNumeric(r) || isBoolLike(l) || isBoolLike(r) {
		if _, ok := l.(value.BigInt); ok {
			return bigIntLooseEquals(l.(value.BigInt), r)
		}
		if _, ok := r.(value.BigInt); ok {
			return bigIntLooseEquals(r.(value.BigInt), l)
		}
		return ToFloat64(l) == ToFloat64(r)
	}
	return false
}

func isBoolLike(v value.Value) bool {
	_, ok := v.(value.Bool)
	return ok
}

func bigIntLooseEquals(b value.BigInt, other value.Value) bool {
	switch t := other.(type) {
	case value.Number:
		return b.Cmp(big.NewInt(int64(t))) == 0
	case value.String:
		o := new(big.Int)
		if _, ok := o.SetString(strings.TrimSpace(string(t)), 10); !ok {
			return false
		}
		return b.Cmp(o) == 0
	default:
		return false
	}
}

// SortStrings returns a sorted copy of ss, for deterministic iteration in
// diagnostics. Nothing in the repository calls it, and it is not used for
// actual enumeration order (which is always insertion order per Invariant V1).
func SortStrings(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	sort.Strings(out)
	return out
}
