package eval

import (
	"math"

	"github.com/module/scripthost/internal/value"
)

// mathMethod implements every `Math.*` call lowered by the parser (§4.2),
// mirroring the subset of the Math namespace the original tests exercise.
func mathMethod(method string, args []value.Value) (value.Value, error) {
	switch method {
	case "abs":
		return value.Float(math.Abs(arg(args, 0))), nil
	case "floor":
		return numFromFloat(math.Floor(arg(args, 0))), nil
	case "ceil":
		return numFromFloat(math.Ceil(arg(args, 0))), nil
	case "round":
		return numFromFloat(math.Floor(arg(args, 0) + 0.5)), nil
	case "trunc":
		return numFromFloat(math.Trunc(arg(args, 0))), nil
	case "sign":
		f := arg(args, 0)
		switch {
		case math.IsNaN(f):
			return value.Float(math.NaN()), nil
		case f > 0:
			return value.Number(1), nil
		case f < 0:
			return value.Number(-1), nil
		default:
			return value.Number(0), nil
		}
	case "sqrt":
		return value.Float(math.Sqrt(arg(args, 0))), nil
	case "cbrt":
		return value.Float(math.Cbrt(arg(args, 0))), nil
	case "pow":
		return value.Float(math.Pow(arg(args, 0), arg(args, 1))), nil
	case "min":
		return minMax(args, true), nil
	case "max":
		return minMax(args, false), nil
	case "random":
		return value.Float(pseudoRandom()), nil
	case "log":
		return value.Float(math.Log(arg(args, 0))), nil
	case "log2":
		return value.Float(math.Log2(arg(args, 0))), nil
	case "log10":
		return value.Float(math.Log10(arg(args, 0))), nil
	case "exp":
		return value.Float(math.Exp(arg(args, 0))), nil
	case "sin":
		return value.Float(math.Sin(arg(args, 0))), nil
	case "cos":
		return value.Float(math.Cos(arg(args, 0))), nil
	case "tan":
		return value.Float(math.Tan(arg(args, 0))), nil
	case "atan":
		return value.Float(math.Atan(arg(args, 0))), nil
	case "atan2":
		return value.Float(math.Atan2(arg(args, 0), arg(args, 1))), nil
	case "hypot":
		var sum float64
		for _, a := range args {
			f := ToFloat64(a)
			sum += f * f
		}
		return value.Float(math.Sqrt(sum)), nil
	default:
		return nil, runtimeErrf("Math.%s is not a function", method)
	}
}

func arg(args []value.Value, i int) float64 {
	if i >= len(args) {
		return math.NaN()
	}
	return ToFloat64(args[i])
}

func numFromFloat(f float64) value.Value {
	if iv, ok := isIntValued(f); ok {
		return value.Number(iv)
	}
	return value.Float(f)
}

func minMax(args []value.Value, wantMin bool) value.Value {
	if len(args) == 0 {
		if wantMin {
			return value.Float(math.Inf(1))
		}
		return value.Float(math.Inf(-1))
	}
	best := ToFloat64(args[0])
	for _, a := range args[1:] {
		f := ToFloat64(a)
		if math.IsNaN(f) {
			return value.Float(math.NaN())
		}
		if (wantMin && f < best) || (!wantMin && f > best) {
			best = f
		}
	}
	if math.IsNaN(best) {
		return value.Float(math.NaN())
	}
	return numFromFloat(best)
}

// pseudoRandom backs Math.random with a simple xorshift generator seeded
// with a fixed constant, so every process produces the same sequence
// (scripts under test are not expected to assert on its output — Non-goals
// exclude cryptographic quality randomness).
var randState uint64 = 0x9E3779B97F4A7C15

func pseudoRandom() float64 {
	randState ^= randState << 13
	randState ^= randState >> 7
	randState ^= randState << 17
	return float64(randState%1_000_000_007) / 1_000_000_007.0
}
