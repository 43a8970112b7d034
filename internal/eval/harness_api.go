package eval

import "github.com/module/scripthost/internal/value"

// This file is the narrow seam harness/harness.go calls through: every
// take_*/enqueue_*/set_* fixture method §6.1 names, each a thin accessor
// over a field Evaluator already carries (see eval.go's struct comment for
// why all of this lives on one mutable struct rather than N collaborators).

// TakeAlertMessages drains and returns every alert() call since the last take.
func (ev *Evaluator) TakeAlertMessages() []string {
	out := ev.alerts
	ev.alerts = nil
	return out
}

// TakeFetchCalls drains and returns every fetch() invocation since the last take.
func (ev *Evaluator) TakeFetchCalls() []FetchCall {
	out := ev.fetchCalls
	ev.fetchCalls = nil
	return out
}

// TakeMatchMediaCalls drains and returns every matchMedia() query since the last take.
func (ev *Evaluator) TakeMatchMediaCalls() []string {
	out := ev.matchMediaCalls
	ev.matchMediaCalls = nil
	return out
}

// TakeLocationNavigations drains and returns the navigation log (§6.3).
func (ev *Evaluator) TakeLocationNavigations() []Navigation {
	out := ev.navigations
	ev.navigations = nil
	return out
}

// TakeDownloads drains and returns every recorded download since the last take.
func (ev *Evaluator) TakeDownloads() []string {
	out := ev.downloads
	ev.downloads = nil
	return out
}

// TakeUnhandledRejections drains and returns ev.unhandledRejections (Open
// Question 2). No code path appends to that slice, so a rejection with no
// handler is not recorded and this returns no entries.
func (ev *Evaluator) TakeUnhandledRejections() []value.Value {
	out := ev.unhandledRejections
	ev.unhandledRejections = nil
	return out
}

// EnqueueConfirmResponse queues the next confirm() return value.
func (ev *Evaluator) EnqueueConfirmResponse(v bool) {
	ev.confirmQueue = append(ev.confirmQueue, v)
}

// EnqueuePromptResponse queues the next prompt() return value; nil means
// the user dismissed the dialog (prompt() returns null).
func (ev *Evaluator) EnqueuePromptResponse(v *string) {
	ev.promptQueue = append(ev.promptQueue, v)
}

// SetFetchMock registers the response body fetch(url) resolves with.
func (ev *Evaluator) SetFetchMock(url, body string) {
	ev.fetchMock[url] = body
}

// SetMatchMediaMock registers the match result matchMedia(query) resolves with.
func (ev *Evaluator) SetMatchMediaMock(query string, matches bool) {
	ev.matchMediaMock[query] = matches
}

// SetDefaultMatchMediaMatches sets the fallback result for queries with no
// explicit mock registered.
func (ev *Evaluator) SetDefaultMatchMediaMatches(matches bool) {
	ev.defaultMatchMedia = matches
}

// SetClipboardText seeds navigator.clipboard's backing text.
func (ev *Evaluator) SetClipboardText(text string) {
	ev.clipboardText = text
}

// SetLocationMockPage registers the HTML a navigation to url loads.
func (ev *Evaluator) SetLocationMockPage(url, html string) {
	ev.mockPages[url] = html
}

// SetWebSocketDialer installs the function new WebSocket(url) calls to
// resolve a logical url to its scripted message playback. See wsDial's
// doc comment in eval.go.
func (ev *Evaluator) SetWebSocketDialer(fn func(url string) ([]string, error)) {
	ev.wsDial = fn
}
