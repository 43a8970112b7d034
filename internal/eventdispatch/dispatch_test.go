package eventdispatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/scripthost/internal/domfacade/htmldom"
	"github.com/module/scripthost/internal/eventdispatch"
)

func mustDoc(t *testing.T, source string) *htmldom.Document {
	t.Helper()
	doc, err := htmldom.Parse(source)
	require.NoError(t, err)
	return doc
}

func TestDispatchOrdersCaptureTargetBubble(t *testing.T) {
	t.Parallel()
	doc := mustDoc(t, `<html><body><div id="outer"><button id="btn">go</button></div></body></html>`)
	registry := eventdispatch.NewRegistry()

	outer, _ := doc.ByID("outer")
	btn, _ := doc.ByID("btn")

	var order []string
	registry.Add(outer, "click", true, false, func(*eventdispatch.Event) { order = append(order, "outer-capture") })
	registry.Add(btn, "click", false, false, func(*eventdispatch.Event) { order = append(order, "target") })
	registry.Add(outer, "click", false, false, func(*eventdispatch.Event) { order = append(order, "outer-bubble") })

	eventdispatch.Dispatch(doc, registry, "click", btn, true, 0)

	assert.Equal(t, []string{"outer-capture", "target", "outer-bubble"}, order)
}

func TestStopPropagationStopsFurtherPhases(t *testing.T) {
	t.Parallel()
	doc := mustDoc(t, `<html><body><div id="outer"><button id="btn">go</button></div></body></html>`)
	registry := eventdispatch.NewRegistry()
	outer, _ := doc.ByID("outer")
	btn, _ := doc.ByID("btn")

	var bubbled bool
	registry.Add(btn, "click", false, false, func(e *eventdispatch.Event) { e.StopPropagation() })
	registry.Add(outer, "click", false, false, func(*eventdispatch.Event) { bubbled = true })

	eventdispatch.Dispatch(doc, registry, "click", btn, true, 0)
	assert.False(t, bubbled)
}

func TestStopImmediatePropagationStopsSameNodeListeners(t *testing.T) {
	t.Parallel()
	doc := mustDoc(t, `<html><body><button id="btn">go</button></body></html>`)
	registry := eventdispatch.NewRegistry()
	btn, _ := doc.ByID("btn")

	var second bool
	registry.Add(btn, "click", false, false, func(e *eventdispatch.Event) { e.StopImmediatePropagation() })
	registry.Add(btn, "click", false, false, func(*eventdispatch.Event) { second = true })

	eventdispatch.Dispatch(doc, registry, "click", btn, true, 0)
	assert.False(t, second)
}

func TestPreventDefaultRequiresCancelable(t *testing.T) {
	t.Parallel()
	doc := mustDoc(t, `<html><body><button id="btn">go</button></body></html>`)
	registry := eventdispatch.NewRegistry()
	btn, _ := doc.ByID("btn")

	registry.Add(btn, "click", false, false, func(e *eventdispatch.Event) { e.PreventDefault() })

	ev := eventdispatch.Dispatch(doc, registry, "click", btn, false, 0)
	assert.False(t, ev.DefaultPrevented())

	ev = eventdispatch.Dispatch(doc, registry, "click", btn, true, 0)
	assert.True(t, ev.DefaultPrevented())
}

func TestOnceListenerFiresOnlyOnce(t *testing.T) {
	t.Parallel()
	doc := mustDoc(t, `<html><body><button id="btn">go</button></body></html>`)
	registry := eventdispatch.NewRegistry()
	btn, _ := doc.ByID("btn")

	var count int
	registry.Add(btn, "click", false, true, func(*eventdispatch.Event) { count++ })

	eventdispatch.Dispatch(doc, registry, "click", btn, true, 0)
	eventdispatch.Dispatch(doc, registry, "click", btn, true, 0)
	assert.Equal(t, 1, count)
}

func TestPurgeDeadDropsListenersOnRemovedNodes(t *testing.T) {
	t.Parallel()
	doc := mustDoc(t, `<html><body><button id="btn">go</button></body></html>`)
	registry := eventdispatch.NewRegistry()
	btn, _ := doc.ByID("btn")

	var fired bool
	registry.Add(btn, "click", false, false, func(*eventdispatch.Event) { fired = true })
	doc.RemoveNode(btn)

	registry.PurgeDead(doc.Exists)
	eventdispatch.Dispatch(doc, registry, "click", btn, true, 0)
	assert.False(t, fired)
}
