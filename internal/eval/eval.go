// Package eval implements C5: the tree-walking evaluator that executes an
// internal/ast tree against an internal/value environment, mediates
// property access through prototypes/getters/setters, threads control flow,
// cooperates with internal/eventloop's scheduler, and drives mutations into
// the internal/domfacade DOM graph via internal/eventdispatch. Grounded on
// the teacher's xk6-browser `common.Frame`/`common.Page` split (one struct
// holding every piece of page state, called into from narrow, single-purpose
// methods) — Evaluator plays that role here, generalized from "drive a real
// browser over CDP" to "walk an AST against an in-process DOM model".
package eval

import (
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/module/scripthost/errext"
	"github.com/module/scripthost/internal/ast"
	"github.com/module/scripthost/internal/domfacade"
	"github.com/module/scripthost/internal/eventdispatch"
	"github.com/module/scripthost/internal/eventloop"
	"github.com/module/scripthost/internal/value"
)

// Navigation is one entry of the location mutation log, §6.3.
type Navigation struct {
	Kind string // "HrefSet", "Assign", "Replace", "Reload"
	From string
	To   string
}

// FetchCall records one invocation of the mocked `fetch` transport.
type FetchCall struct {
	URL    string
	Method string
}

// Evaluator is the single mutable state threaded through every call, per
// spec §5 "a single mutable evaluator state is threaded through every
// call". It is not safe for concurrent use, matching the "no true
// parallelism" non-goal.
type Evaluator struct {
	Global   *value.Env
	Doc      domfacade.Document
	Registry *eventdispatch.Registry
	Loop     *eventloop.Loop
	Log      logrus.FieldLogger

	nextFuncID int64
	funcProps  map[int64]*value.OrderedMap

	location    *url.URL
	mockPages   map[string]string // url -> html, set by SetLocationMockPage
	navigations []Navigation

	alerts               []string
	confirmQueue         []bool
	promptQueue          []*string
	fetchMock            map[string]string
	fetchCalls           []FetchCall
	matchMediaMock       map[string]bool
	defaultMatchMedia    bool
	matchMediaCalls      []string
	downloads            []string
	clipboardText        string
	unhandledRejections  []value.Value

	// wsDial backs the WebSocket global: given the url argument a script
	// passed to `new WebSocket(url)`, it returns the full sequence of
	// messages the mock peer plays back, or an error if nothing is
	// registered for that url. harness.SetWebSocketMock wires this to a
	// real local gorilla/websocket server/dialer round trip; left nil, a
	// WebSocket construction fails closed (onerror+onclose), mirroring a
	// browser's behavior when there's no server to reach.
	wsDial func(url string) ([]string, error)

	classFieldInits map[int64]classFieldSet
	staticGetters   map[string]*value.Function
	staticSetters   map[string]*value.Function
	listenerIDs     map[listenerKey]uint64

	// currentCoro is the generator/async coroutine currently executing, if
	// any — set/restored around each resume so yield/await always suspend
	// the right coroutine even when generators or async functions nest.
	currentCoro *coroutine
}

// New builds an Evaluator over doc, ready to run scripts against baseURL.
func New(doc domfacade.Document, baseURL string, log logrus.FieldLogger) *Evaluator {
	u, _ := url.Parse(baseURL)
	ev := &Evaluator{
		Global:    value.NewGlobalEnv(),
		Doc:       doc,
		Registry:  eventdispatch.NewRegistry(),
		Loop:      eventloop.New(),
		Log:       log,
		funcProps: make(map[int64]*value.OrderedMap),
		location:  u,
		mockPages: make(map[string]string),
		fetchMock: make(map[string]string),
		matchMediaMock: make(map[string]bool),
		classFieldInits: make(map[int64]classFieldSet),
		staticGetters:   make(map[string]*value.Function),
		staticSetters:   make(map[string]*value.Function),
	}
	ev.installGlobals()
	return ev
}

// RunProgram executes a top-level statement list (a parsed <script> body)
// against the global environment. Uncaught ScriptThrown/ScriptRuntime
// errors are returned to the caller per §7's driver-method surfacing rule.
func (ev *Evaluator) RunProgram(body []ast.Stmt) error {
	_, err := ev.execBlock(body, ev.Global)
	return err
}

// allocFuncID mints the next stable Function.FunctionID, used as a key into
// funcProps so `f.foo = …` persists across calls (§4.4).
func (ev *Evaluator) allocFuncID() int64 {
	ev.nextFuncID++
	return ev.nextFuncID
}

func (ev *Evaluator) funcPropsFor(id int64) *value.OrderedMap {
	m, ok := ev.funcProps[id]
	if !ok {
		m = value.NewOrderedMap()
		ev.funcProps[id] = m
	}
	return m
}

// logUncaught records a listener/handler error to the log rather than
// aborting the dispatch loop, per §5 "does not abort subsequent listeners".
func (ev *Evaluator) logUncaught(context string, err error) {
	if err == nil {
		return
	}
	if ev.Log != nil {
		ev.Log.WithField("context", context).WithError(err).Warn("uncaught error in script callback")
	}
}

func runtimeErrf(format string, args ...interface{}) error {
	return errext.RuntimeError(format, args...)
}

func thrown(v value.Value) error {
	return errext.Thrown(v, fmt.Sprintf("uncaught exception: %s", describeThrown(v)))
}

func describeThrown(v value.Value) string {
	if v == nil {
		return "undefined"
	}
	switch t := v.(type) {
	case value.String:
		return string(t)
	default:
		return ToDisplayString(v)
	}
}

// ThrownValue recovers the original thrown Value from an error produced by
// thrown(), if any.
func ThrownValue(err error) (value.Value, bool) {
	te, ok := err.(*errext.ThrownError) //nolint:errorlint
	if !ok {
		return nil, false
	}
	v, ok := te.Value.(value.Value)
	return v, ok
}
