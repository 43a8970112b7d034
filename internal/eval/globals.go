package eval

import (
	"math"
	"strings"

	"github.com/module/scripthost/internal/domfacade"
	"github.com/module/scripthost/internal/value"
)

// installGlobals populates ev.Global with the host surface a <script> body
// runs against: the ECMA-ish namespace objects (Object/Array/Math/JSON/…),
// the constructor functions (Map/Set/Promise/Date/RegExp/Intl), and the
// window/document/navigator/location/history/storage/dialog/fetch BOM
// surface, generalized from the teacher's xk6-browser approach of exposing
// one `k6/browser` module object built out of native Go closures rather
// than an interpreted prelude script. Called once from New, so every
// Evaluator starts with an identical global environment.
func (ev *Evaluator) installGlobals() {
	g := ev.Global

	g.Declare("console", ev.buildConsole(), false)
	g.Declare("Math", ev.buildMath(), false)
	g.Declare("JSON", ev.buildJSON(), false)
	g.Declare("Object", ev.buildObjectCtor(), false)
	g.Declare("Array", ev.buildArrayCtor(), false)
	g.Declare("Symbol", ev.buildSymbolCtor(), false)

	g.Declare("Map", ev.buildMapCtor(false), false)
	g.Declare("WeakMap", ev.buildMapCtor(true), false)
	g.Declare("Set", ev.buildSetCtor(false), false)
	g.Declare("WeakSet", ev.buildSetCtor(true), false)
	g.Declare("Promise", ev.buildPromiseCtor(), false)
	g.Declare("RegExp", ev.buildRegExpCtor(), false)
	g.Declare("Date", ev.buildDateCtor(), false)
	g.Declare("Intl", ev.buildIntl(), false)
	g.Declare("Blob", ev.buildBlobCtor(), false)
	g.Declare("FormData", ev.buildFormDataCtor(), false)
	g.Declare("URLSearchParams", ev.buildURLSearchParamsCtor(), false)

	g.Declare("String", ev.buildStringCtor(), false)
	g.Declare("Number", ev.buildNumberCtor(), false)
	g.Declare("Boolean", ev.buildBooleanCtor(), false)
	g.Declare("URL", ev.buildURLCtor(), false)

	g.Declare("Infinity", value.Float(math.Inf(1)), false)
	g.Declare("NaN", value.Float(math.NaN()), false)
	g.Declare("parseInt", ev.nativeFn(ev.parseIntFn), false)
	g.Declare("parseFloat", ev.nativeFn(ev.parseFloatFn), false)
	g.Declare("isNaN", ev.nativeFn(ev.isNaNFn), false)
	g.Declare("isFinite", ev.nativeFn(ev.isFiniteFn), false)
	g.Declare("encodeURI", ev.nativeFn(ev.encodeURIFn), false)
	g.Declare("decodeURI", ev.nativeFn(ev.decodeURIFn), false)
	g.Declare("encodeURIComponent", ev.nativeFn(ev.encodeURIComponentFn), false)
	g.Declare("decodeURIComponent", ev.nativeFn(ev.decodeURIComponentFn), false)
	g.Declare("btoa", ev.nativeFn(ev.btoaFn), false)
	g.Declare("atob", ev.nativeFn(ev.atobFn), false)
	g.Declare("escape", ev.nativeFn(ev.escapeFn), false)
	g.Declare("unescape", ev.nativeFn(ev.unescapeFn), false)
	g.Declare("structuredClone", ev.nativeFn(ev.structuredCloneFn), false)

	g.Declare("document", ev.buildDocument(), false)
	g.Declare("navigator", ev.buildNavigator(), false)
	g.Declare("location", ev.buildLocation(), false)
	g.Declare("history", ev.buildHistory(), false)
	g.Declare("localStorage", ev.buildStorage(), false)
	g.Declare("sessionStorage", ev.buildStorage(), false)

	g.Declare("alert", ev.nativeFn(ev.alertFn), false)
	g.Declare("confirm", ev.nativeFn(ev.confirmFn), false)
	g.Declare("prompt", ev.nativeFn(ev.promptFn), false)
	g.Declare("fetch", ev.nativeFn(ev.fetchFn), false)
	g.Declare("WebSocket", ev.buildWebSocketCtor(), false)
	g.Declare("matchMedia", ev.nativeFn(ev.matchMediaFn), false)
	g.Declare("requestAnimationFrame", ev.nativeFn(ev.requestAnimationFrameFn), false)
	g.Declare("cancelAnimationFrame", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		// Loop exposes no id-based cancellation for animation frames
		// (eventloop.Loop.RequestAnimationFrame returns no id); a
		// queued frame always runs. Documented simplification.
		return value.Undefined, nil
	}), false)

	window := ev.buildWindow()
	g.Declare("window", window, false)
	g.Declare("globalThis", window, false)
	g.Declare("self", window, false)
}

// --- console, Math, JSON -----------------------------------------------

func (ev *Evaluator) buildConsole() *value.Object {
	o := value.NewObject()
	logAt := func(level string) func(value.Value, []value.Value) (value.Value, error) {
		return func(_ value.Value, args []value.Value) (value.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = ToDisplayString(a)
			}
			msg := strings.Join(parts, " ")
			if ev.Log == nil {
				return value.Undefined, nil
			}
			switch level {
			case "error":
				ev.Log.Error(msg)
			case "warn":
				ev.Log.Warn(msg)
			case "debug":
				ev.Log.Debug(msg)
			default:
				ev.Log.Info(msg)
			}
			return value.Undefined, nil
		}
	}
	o.SetOwn("log", ev.nativeFn(logAt("log")))
	o.SetOwn("info", ev.nativeFn(logAt("info")))
	o.SetOwn("warn", ev.nativeFn(logAt("warn")))
	o.SetOwn("error", ev.nativeFn(logAt("error")))
	o.SetOwn("debug", ev.nativeFn(logAt("debug")))
	return o
}

func (ev *Evaluator) buildMath() *value.Object {
	o := value.NewObject()
	o.SetOwn("PI", value.Float(3.141592653589793))
	o.SetOwn("E", value.Float(2.718281828459045))
	o.SetOwn("LN2", value.Float(0.6931471805599453))
	o.SetOwn("LN10", value.Float(2.302585092994046))
	o.SetOwn("LOG2E", value.Float(1.4426950408889634))
	o.SetOwn("LOG10E", value.Float(0.4342944819032518))
	o.SetOwn("SQRT2", value.Float(1.4142135623730951))
	o.SetOwn("SQRT1_2", value.Float(0.7071067811865476))
	for _, name := range []string{
		"abs", "floor", "ceil", "round", "trunc", "sign", "sqrt", "cbrt",
		"pow", "min", "max", "random", "log", "log2", "log10", "exp",
		"sin", "cos", "tan", "atan", "atan2", "hypot",
	} {
		method := name
		o.SetOwn(method, ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
			return mathMethod(method, args)
		}))
	}
	return o
}

func (ev *Evaluator) buildJSON() *value.Object {
	o := value.NewObject()
	o.SetOwn("stringify", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		indent := ""
		if len(args) > 2 {
			switch sp := args[2].(type) {
			case value.Number:
				indent = strings.Repeat(" ", int(sp))
			case value.String:
				indent = string(sp)
			}
		}
		return ev.jsonStringify(argOrUndefined(args, 0), indent)
	}))
	o.SetOwn("parse", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return ev.jsonParse(ToDisplayString(firstArg(args)))
	}))
	return o
}

// --- Object/Array/Symbol namespace objects ------------------------------

func (ev *Evaluator) buildObjectCtor() *value.Function {
	fn := ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		switch t := firstArg(args).(type) {
		case *value.Object:
			return t, nil
		case value.String:
			return newStringWrapperObject(string(t)), nil
		case *value.Symbol:
			return newSymbolWrapperObject(t), nil
		default:
			return value.NewObject(), nil
		}
	})
	props := ev.funcPropsFor(fn.FunctionID)
	props.Set("keys", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		o, ok := firstArg(args).(*value.Object)
		if !ok {
			return value.NewArray(nil), nil
		}
		keys := o.OwnKeys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.String(k)
		}
		return value.NewArray(out), nil
	}))
	props.Set("values", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		o, ok := firstArg(args).(*value.Object)
		if !ok {
			return value.NewArray(nil), nil
		}
		keys := o.OwnKeys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			v, _ := o.OwnGet(k)
			out[i] = v
		}
		return value.NewArray(out), nil
	}))
	props.Set("entries", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		o, ok := firstArg(args).(*value.Object)
		if !ok {
			return value.NewArray(nil), nil
		}
		keys := o.OwnKeys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			v, _ := o.OwnGet(k)
			out[i] = value.NewArray([]value.Value{value.String(k), v})
		}
		return value.NewArray(out), nil
	}))
	props.Set("assign", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		target, ok := firstArg(args).(*value.Object)
		if !ok {
			target = value.NewObject()
		}
		for _, src := range args[1:] {
			so, ok := src.(*value.Object)
			if !ok {
				continue
			}
			for _, k := range so.OwnKeys() {
				v, _ := so.OwnGet(k)
				target.SetOwn(k, v)
			}
		}
		return target, nil
	}))
	props.Set("freeze", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return firstArg(args), nil
	}))
	props.Set("create", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		o := value.NewObject()
		if proto, ok := firstArg(args).(*value.Object); ok {
			o.SetProto(proto)
		}
		return o, nil
	}))
	props.Set("getPrototypeOf", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		o, ok := firstArg(args).(*value.Object)
		if !ok {
			return value.Null, nil
		}
		if p := o.Proto(); p != nil {
			return p, nil
		}
		return value.Null, nil
	}))
	props.Set("fromEntries", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		items, err := ev.iterableElements(firstArg(args))
		if err != nil {
			return nil, err
		}
		o := value.NewObject()
		for _, it := range items {
			pair, err := ev.iterableElements(it)
			if err != nil || len(pair) < 2 {
				continue
			}
			o.SetOwn(ToDisplayString(pair[0]), pair[1])
		}
		return o, nil
	}))
	return fn
}

func (ev *Evaluator) buildArrayCtor() *value.Function {
	fn := ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 1 {
			if n, ok := args[0].(value.Number); ok {
				return value.NewArray(make([]value.Value, int(n))), nil
			}
		}
		return value.NewArray(append([]value.Value{}, args...)), nil
	})
	props := ev.funcPropsFor(fn.FunctionID)
	props.Set("isArray", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		_, ok := firstArg(args).(*value.Array)
		return value.Bool(ok), nil
	}))
	props.Set("from", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		items, err := ev.iterableElements(firstArg(args))
		if err != nil {
			return nil, err
		}
		if fn, ok := argOrUndefined(args, 1).(*value.Function); ok {
			mapped := make([]value.Value, len(items))
			for i, it := range items {
				v, err := ev.CallFunction(fn, value.Undefined, []value.Value{it, value.Number(i)})
				if err != nil {
					return nil, err
				}
				mapped[i] = v
			}
			return value.NewArray(mapped), nil
		}
		return value.NewArray(items), nil
	}))
	props.Set("of", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.NewArray(append([]value.Value{}, args...)), nil
	}))
	return fn
}

func (ev *Evaluator) buildSymbolCtor() *value.Function {
	fn := ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		desc := ""
		if len(args) > 0 {
			desc = ToDisplayString(args[0])
		}
		return value.NewSymbol(desc), nil
	})
	props := ev.funcPropsFor(fn.FunctionID)
	props.Set("iterator", value.SymbolIterator)
	props.Set("asyncIterator", value.SymbolAsyncIterator)
	props.Set("toPrimitive", value.SymbolToPrimitive)
	props.Set("toStringTag", value.SymbolToStringTag)
	props.Set("hasInstance", value.SymbolHasInstance)
	props.Set("for", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.SymbolFor(ToDisplayString(firstArg(args))), nil
	}))
	props.Set("keyFor", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		sym, ok := firstArg(args).(*value.Symbol)
		if !ok {
			return value.Undefined, nil
		}
		if k, ok := value.SymbolKeyFor(sym); ok {
			return value.String(k), nil
		}
		return value.Undefined, nil
	}))
	return fn
}

// --- Map/Set/WeakMap/WeakSet constructors -------------------------------

func (ev *Evaluator) buildMapCtor(weak bool) *value.Function {
	return ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		m := value.NewMap()
		if weak {
			m = value.NewWeakMap()
		}
		if len(args) > 0 && args[0] != value.Undefined && args[0] != value.Null {
			items, err := ev.iterableElements(args[0])
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				pair, err := ev.iterableElements(it)
				if err != nil || len(pair) < 2 {
					continue
				}
				m.Set(pair[0], pair[1])
			}
		}
		return m, nil
	})
}

func (ev *Evaluator) buildSetCtor(weak bool) *value.Function {
	return ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		s := value.NewSet()
		if weak {
			s = value.NewWeakSet()
		}
		if len(args) > 0 && args[0] != value.Undefined && args[0] != value.Null {
			items, err := ev.iterableElements(args[0])
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				s.Add(it)
			}
		}
		return s, nil
	})
}

// --- Promise constructor/statics -----------------------------------------

func (ev *Evaluator) buildPromiseCtor() *value.Function {
	fn := ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		executor, ok := firstArg(args).(*value.Function)
		if !ok {
			return nil, runtimeErrf("Promise resolver is not a function")
		}
		p := value.NewPendingPromise()
		resolve := ev.nativeFn(func(_ value.Value, rargs []value.Value) (value.Value, error) {
			ev.settlePromise(p, value.Fulfilled, firstArg(rargs))
			return value.Undefined, nil
		})
		reject := ev.nativeFn(func(_ value.Value, rargs []value.Value) (value.Value, error) {
			ev.settlePromise(p, value.Rejected, firstArg(rargs))
			return value.Undefined, nil
		})
		if _, err := ev.CallFunction(executor, value.Undefined, []value.Value{resolve, reject}); err != nil {
			if v, ok := ThrownValue(err); ok {
				ev.settlePromise(p, value.Rejected, v)
			} else {
				return nil, err
			}
		}
		return p, nil
	})
	props := ev.funcPropsFor(fn.FunctionID)
	props.Set("resolve", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return ev.asPromise(firstArg(args)), nil
	}))
	props.Set("reject", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.RejectedPromise(firstArg(args)), nil
	}))
	for _, kind := range []string{"all", "allSettled", "race", "any"} {
		kind := kind
		props.Set(kind, ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
			items, err := ev.iterableElements(firstArg(args))
			if err != nil {
				return nil, err
			}
			return ev.promiseCombinator(kind, items), nil
		}))
	}
	return fn
}

// --- RegExp/Date/Intl -----------------------------------------------------

func (ev *Evaluator) buildRegExpCtor() *value.Function {
	return ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		if re, ok := firstArg(args).(*value.RegExp); ok && len(args) < 2 {
			return re, nil
		}
		pattern := ""
		if len(args) > 0 {
			if re, ok := args[0].(*value.RegExp); ok {
				pattern = re.Source
			} else {
				pattern = ToDisplayString(args[0])
			}
		}
		flags := ""
		if len(args) > 1 {
			flags = ToDisplayString(args[1])
		}
		return ev.newRegExpValue(pattern, flags)
	})
}

func (ev *Evaluator) buildDateCtor() *value.Function {
	fn := ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return newDateValue(args), nil
	})
	props := ev.funcPropsFor(fn.FunctionID)
	props.Set("now", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		return dateNowValue(), nil
	}))
	props.Set("parse", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return dateParseLiteral(ToDisplayString(firstArg(args))), nil
	}))
	props.Set("UTC", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return newDateValue(args), nil
	}))
	return fn
}

func (ev *Evaluator) buildIntl() *value.Object {
	o := value.NewObject()
	for _, kind := range []string{"NumberFormat", "DateTimeFormat", "Collator", "ListFormat", "RelativeTimeFormat", "PluralRules"} {
		kind := kind
		o.SetOwn(kind, ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
			return ev.newIntlFormatter(kind, argOrUndefined(args, 0), argOrUndefined(args, 1))
		}))
	}
	return o
}

// --- dialogs/fetch/matchMedia/rAF ----------------------------------------

func (ev *Evaluator) alertFn(_ value.Value, args []value.Value) (value.Value, error) {
	ev.alerts = append(ev.alerts, ToDisplayString(firstArg(args)))
	return value.Undefined, nil
}

func (ev *Evaluator) confirmFn(_ value.Value, args []value.Value) (value.Value, error) {
	if len(ev.confirmQueue) == 0 {
		return value.Bool(false), nil
	}
	v := ev.confirmQueue[0]
	ev.confirmQueue = ev.confirmQueue[1:]
	return value.Bool(v), nil
}

func (ev *Evaluator) promptFn(_ value.Value, args []value.Value) (value.Value, error) {
	if len(ev.promptQueue) == 0 {
		return value.Null, nil
	}
	v := ev.promptQueue[0]
	ev.promptQueue = ev.promptQueue[1:]
	if v == nil {
		return value.Null, nil
	}
	return value.String(*v), nil
}

func (ev *Evaluator) fetchFn(_ value.Value, args []value.Value) (value.Value, error) {
	url := ToDisplayString(firstArg(args))
	method := "GET"
	if len(args) > 1 {
		if o, ok := args[1].(*value.Object); ok {
			if m, ok := o.OwnGet("method"); ok {
				method = ToDisplayString(m)
			}
		}
	}
	ev.fetchCalls = append(ev.fetchCalls, FetchCall{URL: url, Method: method})
	body, ok := ev.fetchMock[url]
	if !ok {
		return value.RejectedPromise(value.String("fetch: no mock registered for " + url)), nil
	}
	resp := value.NewObject()
	resp.SetOwn("ok", value.Bool(true))
	resp.SetOwn("status", value.Number(200))
	resp.SetOwn("text", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		return value.ResolvedPromise(value.String(body)), nil
	}))
	resp.SetOwn("json", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		v, err := ev.jsonParse(body)
		if err != nil {
			return value.RejectedPromise(value.String(err.Error())), nil
		}
		return value.ResolvedPromise(v), nil
	}))
	return value.ResolvedPromise(resp), nil
}

func (ev *Evaluator) matchMediaFn(_ value.Value, args []value.Value) (value.Value, error) {
	query := ToDisplayString(firstArg(args))
	ev.matchMediaCalls = append(ev.matchMediaCalls, query)
	matches := ev.defaultMatchMedia
	if v, ok := ev.matchMediaMock[query]; ok {
		matches = v
	}
	o := value.NewObject()
	o.SetOwn("matches", value.Bool(matches))
	o.SetOwn("media", value.String(query))
	o.SetOwn("addEventListener", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		return value.Undefined, nil
	}))
	o.SetOwn("removeEventListener", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		return value.Undefined, nil
	}))
	return o, nil
}

func (ev *Evaluator) requestAnimationFrameFn(_ value.Value, args []value.Value) (value.Value, error) {
	fn, ok := firstArg(args).(*value.Function)
	if !ok {
		return value.Number(0), nil
	}
	ev.Loop.RequestAnimationFrame(func(nowMs int64) {
		if _, err := ev.CallFunction(fn, value.Undefined, []value.Value{value.Float(float64(nowMs))}); err != nil {
			ev.logUncaught("requestAnimationFrame", err)
		}
	})
	return value.Number(0), nil
}

// --- document/navigator/location/history/storage -------------------------

func (ev *Evaluator) buildStorage() *value.Object {
	o := value.NewObject()
	o.SetInternalFlag("__isStorage__")
	return o
}

func (ev *Evaluator) buildNavigator() *value.Object {
	o := value.NewObject()
	o.SetOwn("userAgent", value.String("Mozilla/5.0 (compatible; scripthost)"))
	o.SetOwn("language", value.String("en-US"))
	clipboard := value.NewObject()
	clipboard.SetOwn("writeText", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		ev.clipboardText = ToDisplayString(firstArg(args))
		return value.ResolvedPromise(value.Undefined), nil
	}))
	clipboard.SetOwn("readText", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		return value.ResolvedPromise(value.String(ev.clipboardText)), nil
	}))
	o.SetOwn("clipboard", clipboard)
	return o
}

func (ev *Evaluator) buildLocation() *value.Object {
	o := value.NewObject()
	get := func(field string) *value.Function {
		return ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
			if ev.location == nil {
				return value.String(""), nil
			}
			switch field {
			case "href":
				return value.String(ev.location.String()), nil
			case "pathname":
				return value.String(ev.location.Path), nil
			case "search":
				if ev.location.RawQuery == "" {
					return value.String(""), nil
				}
				return value.String("?" + ev.location.RawQuery), nil
			case "hash":
				if ev.location.Fragment == "" {
					return value.String(""), nil
				}
				return value.String("#" + ev.location.Fragment), nil
			case "host":
				return value.String(ev.location.Host), nil
			case "protocol":
				if ev.location.Scheme == "" {
					return value.String(""), nil
				}
				return value.String(ev.location.Scheme + ":"), nil
			}
			return value.String(""), nil
		})
	}
	o.SetGetter("href", get("href"))
	o.SetGetter("pathname", get("pathname"))
	o.SetGetter("search", get("search"))
	o.SetGetter("hash", get("hash"))
	o.SetGetter("host", get("host"))
	o.SetGetter("protocol", get("protocol"))
	o.SetSetter("href", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		ev.navigateTo("HrefSet", ToDisplayString(firstArg(args)))
		return value.Undefined, nil
	}))
	o.SetOwn("assign", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		ev.navigateTo("Assign", ToDisplayString(firstArg(args)))
		return value.Undefined, nil
	}))
	o.SetOwn("replace", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		ev.navigateTo("Replace", ToDisplayString(firstArg(args)))
		return value.Undefined, nil
	}))
	o.SetOwn("reload", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		from := ""
		if ev.location != nil {
			from = ev.location.String()
		}
		ev.navigations = append(ev.navigations, Navigation{Kind: "Reload", From: from, To: from})
		return value.Undefined, nil
	}))
	o.SetOwn("toString", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		if ev.location == nil {
			return value.String(""), nil
		}
		return value.String(ev.location.String()), nil
	}))
	return o
}

// navigateTo records a navigation transition and, per §6.3, switches
// ev.location to the destination URL so subsequent location reads observe
// the navigated-to page (resolved against the current location when to is
// relative, mirroring how a <a href> click resolves against the document).
func (ev *Evaluator) navigateTo(kind, to string) {
	from := ""
	if ev.location != nil {
		from = ev.location.String()
	}
	ev.navigations = append(ev.navigations, Navigation{Kind: kind, From: from, To: to})
	if ev.location == nil {
		return
	}
	u, err := ev.location.Parse(to)
	if err != nil {
		return
	}
	hashOnly := u.Scheme == ev.location.Scheme && u.Host == ev.location.Host &&
		u.Path == ev.location.Path && u.RawQuery == ev.location.RawQuery
	ev.location = u
	if hashOnly {
		return
	}
	if html, ok := ev.mockPages[u.String()]; ok {
		if r, ok := ev.Doc.(domfacade.Reloadable); ok {
			_ = r.LoadHTML(html)
		}
	}
}

func (ev *Evaluator) buildHistory() *value.Object {
	o := value.NewObject()
	o.SetOwn("pushState", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) > 2 {
			ev.navigateTo("PushState", ToDisplayString(args[2]))
		}
		return value.Undefined, nil
	}))
	o.SetOwn("replaceState", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) > 2 {
			ev.navigateTo("ReplaceState", ToDisplayString(args[2]))
		}
		return value.Undefined, nil
	}))
	o.SetOwn("back", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		ev.navigateTo("Back", "")
		return value.Undefined, nil
	}))
	o.SetOwn("forward", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		ev.navigateTo("Forward", "")
		return value.Undefined, nil
	}))
	return o
}

func (ev *Evaluator) buildDocument() *value.Object {
	o := value.NewObject()
	o.SetInternalFlag("__isDocument__")
	o.SetOwn("getElementById", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		id, ok := ev.Doc.ByID(ToDisplayString(firstArg(args)))
		if !ok {
			return value.Null, nil
		}
		return value.Node{ID: id}, nil
	}))
	o.SetOwn("querySelector", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		id, ok := ev.Doc.QuerySelector(ToDisplayString(firstArg(args)))
		if !ok {
			return value.Null, nil
		}
		return value.Node{ID: id}, nil
	}))
	o.SetOwn("querySelectorAll", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		ids := ev.Doc.QuerySelectorAll(ToDisplayString(firstArg(args)))
		return value.NodeList{IDs: ids}, nil
	}))
	o.SetOwn("createElement", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Node{ID: ev.Doc.CreateElement(ToDisplayString(firstArg(args)))}, nil
	}))
	o.SetOwn("createTextNode", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Node{ID: ev.Doc.CreateTextNode(ToDisplayString(firstArg(args)))}, nil
	}))
	o.SetGetter("body", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		if id, ok := ev.Doc.Body(); ok {
			return value.Node{ID: id}, nil
		}
		return value.Null, nil
	}))
	o.SetGetter("head", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		if id, ok := ev.Doc.Head(); ok {
			return value.Node{ID: id}, nil
		}
		return value.Null, nil
	}))
	o.SetGetter("documentElement", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		if id, ok := ev.Doc.DocumentElement(); ok {
			return value.Node{ID: id}, nil
		}
		return value.Null, nil
	}))
	o.SetGetter("activeElement", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		if id, ok := ev.Doc.ActiveElement(); ok {
			return value.Node{ID: id}, nil
		}
		return value.Null, nil
	}))
	title := ""
	o.SetGetter("title", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		return value.String(title), nil
	}))
	o.SetSetter("title", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		title = ToDisplayString(firstArg(args))
		return value.Undefined, nil
	}))
	return o
}

// windowAliasedGlobals is every global scripts commonly reach via
// `window.<name>`/`self.<name>`/`globalThis.<name>` as well as the bare
// identifier — buildWindow reuses the exact *value.Function the bare name
// resolves to (via ev.Global.Lookup) rather than building a second native
// closure, so both spellings share one implementation and one set of side
// effects, per webapi_data_builtins.rs's
// window_aliases_for_global_functions_match_direct_calls grounding.
var windowAliasedGlobals = []string{
	"String", "Number", "Boolean", "URL",
	"parseInt", "parseFloat", "isNaN", "isFinite",
	"encodeURI", "decodeURI", "encodeURIComponent", "decodeURIComponent",
	"btoa", "atob", "escape", "unescape", "structuredClone",
}

func (ev *Evaluator) buildWindow() *value.Object {
	o := value.NewObject()
	o.SetOwn("setTimeout", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return ev.windowSetTimer(args, false)
	}))
	o.SetOwn("setInterval", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return ev.windowSetTimer(args, true)
	}))
	o.SetOwn("clearTimeout", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		ev.Loop.ClearTimeout(int64(ToFloat64(firstArg(args))))
		return value.Undefined, nil
	}))
	o.SetOwn("clearInterval", ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		ev.Loop.ClearInterval(int64(ToFloat64(firstArg(args))))
		return value.Undefined, nil
	}))
	for _, name := range windowAliasedGlobals {
		if v, _, ok := ev.Global.Lookup(name); ok {
			o.SetOwn(name, v)
		}
	}
	o.SetOwn("Infinity", value.Float(math.Inf(1)))
	o.SetOwn("NaN", value.Float(math.NaN()))
	return o
}

// windowSetTimer backs window.setTimeout/setInterval for scripts that call
// them as `window.setTimeout(...)` rather than through the bare-identifier
// ast.SetTimeoutStmt lowering; both paths end at the same eventloop.Loop.
func (ev *Evaluator) windowSetTimer(args []value.Value, interval bool) (value.Value, error) {
	fn, ok := firstArg(args).(*value.Function)
	if !ok {
		return value.Number(0), nil
	}
	delay := int64(0)
	if len(args) > 1 {
		delay = int64(ToFloat64(args[1]))
	}
	extra := append([]value.Value{}, args[2:]...)
	cb := func() {
		if _, err := ev.CallFunction(fn, value.Undefined, extra); err != nil {
			ev.logUncaught("setTimeout", err)
		}
	}
	var id int64
	if interval {
		id = ev.Loop.SetInterval(delay, cb)
	} else {
		id = ev.Loop.SetTimeout(delay, cb)
	}
	return value.Number(id), nil
}

// buildWebSocketCtor builds the WebSocket global. new WebSocket(url) dials
// ev.wsDial synchronously (harness.SetWebSocketMock wires this to a real
// local gorilla/websocket round trip), then queues the open/message/close
// callback sequence as one task on ev.Loop, so it plays back when the loop
// runs its tasks (Loop.Flush, which harness RunScript also calls;
// Loop.AdvanceTime does not run queued tasks) —
// there's no real concurrent socket here, just a scripted transcript played
// back through the cooperative scheduler (§5: no true parallelism).
func (ev *Evaluator) buildWebSocketCtor() *value.Function {
	fn := ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		url := ToDisplayString(firstArg(args))
		ws := value.NewObject()
		ws.SetInternalFlag("__isWebSocket__")
		ws.SetOwn("url", value.String(url))
		ws.SetOwn("readyState", value.Number(0))
		ws.SetOwn("onopen", value.Null)
		ws.SetOwn("onmessage", value.Null)
		ws.SetOwn("onclose", value.Null)
		ws.SetOwn("onerror", value.Null)
		ws.SetOwn("send", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
			// The scripted playback already ran to completion at dial
			// time, so there's no live peer left to forward to; send
			// records nothing and returns undefined, matching a
			// browser's API shape without pretending to model a duplex
			// wire. Documented simplification.
			return value.Undefined, nil
		}))
		ws.SetOwn("close", ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
			if n, ok := ws.OwnGet("readyState"); ok {
				if num, ok2 := n.(value.Number); ok2 && int64(num) == 3 {
					return value.Undefined, nil
				}
			}
			ws.SetOwn("readyState", value.Number(3))
			ev.fireWSHandler(ws, "onclose", nil)
			return value.Undefined, nil
		}))

		if ev.wsDial == nil {
			ev.Loop.QueueMicrotask(func() {
				ws.SetOwn("readyState", value.Number(3))
				ev.fireWSHandler(ws, "onerror", nil)
				ev.fireWSHandler(ws, "onclose", nil)
			})
			return ws, nil
		}
		messages, err := ev.wsDial(url)
		if err != nil {
			ev.Loop.QueueMicrotask(func() {
				ws.SetOwn("readyState", value.Number(3))
				ev.fireWSHandler(ws, "onerror", nil)
				ev.fireWSHandler(ws, "onclose", nil)
			})
			return ws, nil
		}
		ev.Loop.QueueTask(func() {
			ws.SetOwn("readyState", value.Number(1))
			ev.fireWSHandler(ws, "onopen", nil)
			for _, m := range messages {
				evt := value.NewObject()
				evt.SetOwn("data", value.String(m))
				ev.fireWSHandler(ws, "onmessage", []value.Value{evt})
			}
			ws.SetOwn("readyState", value.Number(3))
			ev.fireWSHandler(ws, "onclose", nil)
		})
		return ws, nil
	})
	props := ev.funcPropsFor(fn.FunctionID)
	props.Set("CONNECTING", value.Number(0))
	props.Set("OPEN", value.Number(1))
	props.Set("CLOSING", value.Number(2))
	props.Set("CLOSED", value.Number(3))
	return fn
}

// buildBlobCtor implements `new Blob(parts, options)`: parts is an iterable
// of strings/Blobs/ArrayBuffers concatenated in order, options.type sets
// the MIME type (SPEC_FULL.md's SUPPLEMENTED FEATURES, grounded on
// tests/webapi_data_builtins.rs's varied-input-shapes construction).
func (ev *Evaluator) buildBlobCtor() *value.Function {
	return ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		var buf []byte
		if len(args) > 0 && !value.IsNullish(args[0]) {
			parts, err := ev.iterableElements(args[0])
			if err != nil {
				return nil, err
			}
			for _, p := range parts {
				switch pt := p.(type) {
				case *value.Blob:
					buf = append(buf, pt.Bytes...)
				case *value.ArrayBuffer:
					if bs, ok := pt.Bytes(); ok {
						buf = append(buf, bs...)
					}
				default:
					buf = append(buf, []byte(ToDisplayString(p))...)
				}
			}
		}
		typ := ""
		if len(args) > 1 {
			if opts, ok := args[1].(*value.Object); ok {
				if t, ok := opts.OwnGet("type"); ok {
					typ = ToDisplayString(t)
				}
			}
		}
		return &value.Blob{Bytes: buf, Type: typ}, nil
	})
}

// buildFormDataCtor implements `new FormData()` — no HTML <form> element
// argument support, since forms in this harness are plain DOM nodes, not a
// live object that knows how to serialize its own controls (a documented
// simplification; a test composes a FormData explicitly instead).
func (ev *Evaluator) buildFormDataCtor() *value.Function {
	return ev.nativeFn(func(_ value.Value, _ []value.Value) (value.Value, error) {
		return &value.FormData{}, nil
	})
}

// buildURLSearchParamsCtor implements `new URLSearchParams(init)` over the
// same ordered-pairs value.FormData representation FormData uses — the two
// APIs' entire surface (append/get/getAll/set/delete/has/entries/keys/
// values/forEach/toString) is identical here; only the init-argument
// parsing differs (query-string/array-of-pairs/plain-object vs. FormData's
// always-empty constructor). A real FormData.toString() would instead
// print "[object FormData]"; sharing the URL-encoded form for both is a
// documented simplification rather than a second representation.
func (ev *Evaluator) buildURLSearchParamsCtor() *value.Function {
	return ev.nativeFn(func(_ value.Value, args []value.Value) (value.Value, error) {
		return parseQueryFormData(firstArg(args)), nil
	})
}

// fireWSHandler invokes ws's prop handler (e.g. "onmessage") if a script has
// assigned one, logging rather than propagating a callback error, matching
// how dom_stmt.go's listener dispatch treats addEventListener callbacks.
func (ev *Evaluator) fireWSHandler(ws *value.Object, prop string, args []value.Value) {
	v, ok := ws.OwnGet(prop)
	if !ok {
		return
	}
	fn, ok := v.(*value.Function)
	if !ok {
		return
	}
	if _, err := ev.CallFunction(fn, ws, args); err != nil {
		ev.logUncaught("WebSocket."+prop, err)
	}
}
