// Package harness is the public driver surface §6.1 specifies: the thing a
// test author imports to build a page, drive it the way a user would, and
// assert on the result. It plays the role the teacher's `k6/browser` api
// package plays over xk6-browser's common implementation — a narrow,
// documented surface in front of internal/eval's much larger machinery.
package harness

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/module/scripthost/errext"
	"github.com/module/scripthost/internal/domfacade/htmldom"
	"github.com/module/scripthost/internal/eval"
	"github.com/module/scripthost/internal/parser"
	"github.com/module/scripthost/internal/value"
	"github.com/module/scripthost/internal/xlog"
)

// Harness owns one page's worth of evaluator + DOM state, built fresh by
// FromHTML/FromHTMLWithURL. Not safe for concurrent use, matching §5's "no
// true parallelism" non-goal.
type Harness struct {
	doc *htmldom.Document
	ev  *eval.Evaluator

	ws *wsFixture
}

// Option configures a Harness at construction time.
type Option func(*options)

type options struct {
	logOutput io.Writer
	logLevel  logrus.Level
}

// WithLogOutput redirects the harness's internal logger (console.*,
// uncaught-listener warnings) away from the default io.Discard sink.
func WithLogOutput(w io.Writer, level logrus.Level) Option {
	return func(o *options) {
		o.logOutput = w
		o.logLevel = level
	}
}

// FromHTML builds a harness from html, running every inline <script> in
// document order, with base URL "about:blank".
func FromHTML(html string, opts ...Option) (*Harness, error) {
	return FromHTMLWithURL("about:blank", html, opts...)
}

// FromHTMLWithURL builds a harness from html against baseURL, running every
// inline <script> tag in document order (§6.1 from_html_with_url).
func FromHTMLWithURL(baseURL, html string, opts ...Option) (*Harness, error) {
	cfg := options{logOutput: io.Discard, logLevel: logrus.PanicLevel}
	for _, o := range opts {
		o(&cfg)
	}
	doc, err := htmldom.Parse(html)
	if err != nil {
		return nil, errext.WithKind(fmt.Errorf("parsing HTML: %w", err), errext.KindParse)
	}
	log := xlog.New(cfg.logOutput, cfg.logLevel)
	ev := eval.New(doc, baseURL, log)
	h := &Harness{doc: doc, ev: ev}
	if err := h.runInlineScripts(); err != nil {
		return nil, err
	}
	return h, nil
}

// runInlineScripts parses and executes every <script> element's text
// content, in the order goquery's document-order selector match returns
// them, mirroring a browser's top-to-bottom parse-and-run of a static page
// (module/defer scheduling nuances are out of scope per spec.md's Non-goals).
func (h *Harness) runInlineScripts() error {
	for _, id := range h.doc.QuerySelectorAll("script") {
		src, ok := h.doc.TextContent(id)
		if !ok || src == "" {
			continue
		}
		body, err := parser.Parse(src)
		if err != nil {
			return errext.WithKind(err, errext.KindParse)
		}
		if err := h.ev.RunProgram(body); err != nil {
			return err
		}
		h.ev.Loop.Flush()
	}
	return nil
}

// RunScript parses and runs src against the harness's existing document and
// evaluator state (global variables, listeners, timers from earlier script
// tags all still live), flushing the event loop afterward. This is what
// `scripthost run --script` uses to run a driver script separately from the
// page's own inline <script> tags.
func (h *Harness) RunScript(src string) error {
	body, err := parser.Parse(src)
	if err != nil {
		return errext.WithKind(err, errext.KindParse)
	}
	if err := h.ev.RunProgram(body); err != nil {
		return err
	}
	h.ev.Loop.Flush()
	return nil
}

// --- user-gesture dispatchers (§6.1) -------------------------------------

// Click dispatches the click event sequence at the element matching
// selector and runs its default action (anchor navigation, submit-button
// form submission) unless a listener calls preventDefault.
func (h *Harness) Click(selector string) error { return h.ev.Click(selector) }

// PressEnter dispatches keydown(Enter) at the element matching selector
// and runs the anchor-navigation default action unless prevented.
func (h *Harness) PressEnter(selector string) error { return h.ev.PressEnter(selector) }

// TypeText sets the value of the element matching selector and dispatches
// input/change, mirroring a user typing then blurring the field.
func (h *Harness) TypeText(selector, text string) error { return h.ev.TypeText(selector, text) }

// Focus dispatches focus at the element matching selector and marks it
// the document's active element.
func (h *Harness) Focus(selector string) error { return h.ev.Focus(selector) }

// Submit runs constraint validation then dispatches submit directly
// against the form (or enclosing form of a submit control) matching
// selector.
func (h *Harness) Submit(selector string) error { return h.ev.Submit(selector) }

// AdvanceTime moves the virtual clock forward by ms, firing due timers and
// draining microtasks between each per §4.5.3.
func (h *Harness) AdvanceTime(ms int64) {
	h.ev.Loop.AdvanceTime(ms)
}

// Flush drains microtasks and any already-ready timers without advancing
// the clock (§6.1 flush()).
func (h *Harness) Flush() {
	h.ev.Loop.Flush()
}

// AssertText asserts the computed text content of the element matching
// selector equals expected, per §6.1 assert_text. Returns an error rather
// than panicking so callers can wrap it with testify's require/assert.
func (h *Harness) AssertText(selector, expected string) error {
	id, ok := h.doc.QuerySelector(selector)
	if !ok {
		return fmt.Errorf("assert_text: no element matches %q", selector)
	}
	got, _ := h.doc.TextContent(id)
	if got != expected {
		return fmt.Errorf("assert_text %q: expected %q, got %q", selector, expected, got)
	}
	return nil
}

// --- take_* log consumers (§6.1) -----------------------------------------

// TakeAlertMessages drains and returns every alert() call since the last take.
func (h *Harness) TakeAlertMessages() []string { return h.ev.TakeAlertMessages() }

// TakeFetchCalls drains and returns every fetch() invocation since the last take.
func (h *Harness) TakeFetchCalls() []eval.FetchCall { return h.ev.TakeFetchCalls() }

// TakeMatchMediaCalls drains and returns every matchMedia() query since the last take.
func (h *Harness) TakeMatchMediaCalls() []string { return h.ev.TakeMatchMediaCalls() }

// TakeLocationNavigations drains and returns the navigation log (§6.3).
func (h *Harness) TakeLocationNavigations() []eval.Navigation { return h.ev.TakeLocationNavigations() }

// TakeDownloads drains and returns every recorded download since the last take.
func (h *Harness) TakeDownloads() []string { return h.ev.TakeDownloads() }

// TakeUnhandledRejections drains and returns the evaluator's
// unhandled-rejection log (Open Question 2). No code path appends to that
// log, so a rejection with no handler is not recorded and this returns no
// entries.
func (h *Harness) TakeUnhandledRejections() []value.Value { return h.ev.TakeUnhandledRejections() }

// --- enqueue_*/set_* fixture mocks (§6.1) --------------------------------

// EnqueueConfirmResponse queues the next confirm() return value.
func (h *Harness) EnqueueConfirmResponse(v bool) { h.ev.EnqueueConfirmResponse(v) }

// EnqueuePromptResponse queues the next prompt() return value; nil means
// the user dismissed the dialog (prompt() returns null).
func (h *Harness) EnqueuePromptResponse(v *string) { h.ev.EnqueuePromptResponse(v) }

// SetFetchMock registers the response body fetch(url) resolves with.
func (h *Harness) SetFetchMock(url, body string) { h.ev.SetFetchMock(url, body) }

// SetMatchMediaMock registers the match result matchMedia(query) resolves with.
func (h *Harness) SetMatchMediaMock(query string, matches bool) {
	h.ev.SetMatchMediaMock(query, matches)
}

// SetDefaultMatchMediaMatches sets the fallback result for queries with no
// explicit mock registered.
func (h *Harness) SetDefaultMatchMediaMatches(matches bool) {
	h.ev.SetDefaultMatchMediaMatches(matches)
}

// SetClipboardText seeds navigator.clipboard's backing text (readable via
// navigator.clipboard.readText()).
func (h *Harness) SetClipboardText(text string) { h.ev.SetClipboardText(text) }

// SetLocationMockPage registers the HTML a navigation to url loads, letting
// click-on-<a href> and friends simulate a multi-page flow in-process.
func (h *Harness) SetLocationMockPage(url, html string) { h.ev.SetLocationMockPage(url, html) }

// SetWebSocketMock registers the transcript a `new WebSocket(url)` in the
// running script receives: on connect, a real local gorilla/websocket
// server sends messages in order as text frames and then closes, and the
// WebSocket global fires onopen/onmessage.../onclose accordingly once the
// event loop runs (see eval.Evaluator.wsDial and harness/wsfixture.go).
func (h *Harness) SetWebSocketMock(url string, messages []string) {
	if h.ws == nil {
		h.ws = newWSFixture()
		h.ev.SetWebSocketDialer(h.ws.dial)
	}
	h.ws.register(url, messages)
}

// Close releases any background resources the harness opened (currently
// just SetWebSocketMock's loopback servers, if any were registered).
func (h *Harness) Close() {
	if h.ws != nil {
		h.ws.closeAll()
	}
}
