// Package eventloop implements §4.5.3/§5: a cooperative single-threaded
// scheduler over four FIFO-ish queues (microtasks, tasks, timers,
// animation frames) plus a monotone virtual clock. Grounded on the
// teacher's js/eventloop package (confirmed via js/eventloop/eventloop_test.go
// in the retrieval pack: a Loop that runs registered jobs to drain, reports
// unhandled rejections, and exposes a RegisteredCallback count) generalized
// from "run a VU's goja event loop" to "run a virtual clock with explicit
// advance/flush driver calls" per spec §6.1.
package eventloop

import (
	"container/heap"
	"sort"
)

// Microtask is a zero-argument continuation enqueued by `await` settlement,
// `queueMicrotask`, or a promise reaction.
type Microtask func()

// Task is one unit of task-queue work: a listener dispatch, a timer firing,
// or an external driver operation.
type Task func()

// TimerHandler is invoked when a timer fires.
type TimerHandler func()

type timer struct {
	id       int64
	fireAt   int64
	handler  TimerHandler
	interval bool
	period   int64
	seq      int64 // registration order, breaks fireAt ties per §4.5.3
	canceled bool
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(*timer)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Loop is the scheduler. Zero value is not usable; use New.
type Loop struct {
	now int64 // virtual clock, milliseconds

	microtasks []Microtask
	tasks      []Task

	timers   timerHeap
	byID     map[int64]*timer
	nextID   int64
	timerSeq int64

	lastAnimationFrame int64
	rafCallbacks       []func(nowMs int64)
}

// New returns a Loop with the virtual clock at 0.
func New() *Loop {
	return &Loop{byID: make(map[int64]*timer), nextID: 1}
}

// Now returns the current virtual clock reading in milliseconds.
func (l *Loop) Now() int64 { return l.now }

// QueueMicrotask enqueues m to run after the current task, before the next
// task starts (Invariant I4/§4.5.3 "Microtasks drain before the next task").
func (l *Loop) QueueMicrotask(m Microtask) {
	l.microtasks = append(l.microtasks, m)
}

// QueueTask enqueues t onto the task queue (a listener dispatch or similar).
func (l *Loop) QueueTask(t Task) {
	l.tasks = append(l.tasks, t)
}

// SetTimeout registers a one-shot timer firing delayMs from now, returning
// its cancelable id. Timer ids are sequential from 1 and never reused.
func (l *Loop) SetTimeout(delayMs int64, handler TimerHandler) int64 {
	return l.registerTimer(delayMs, handler, false, 0)
}

// SetInterval registers a periodic timer.
func (l *Loop) SetInterval(delayMs int64, handler TimerHandler) int64 {
	return l.registerTimer(delayMs, handler, true, delayMs)
}

func (l *Loop) registerTimer(delayMs int64, handler TimerHandler, interval bool, period int64) int64 {
	if delayMs < 0 {
		delayMs = 0
	}
	id := l.nextID
	l.nextID++
	t := &timer{
		id: id, fireAt: l.now + delayMs, handler: handler,
		interval: interval, period: period, seq: l.timerSeq,
	}
	l.timerSeq++
	heap.Push(&l.timers, t)
	l.byID[id] = t
	return id
}

// ClearTimeout cancels a pending timer by id; a no-op for an already-fired
// or unknown id (§4.5.3 "Cancellation"). ClearInterval is its alias.
func (l *Loop) ClearTimeout(id int64) {
	if t, ok := l.byID[id]; ok {
		t.canceled = true
		delete(l.byID, id)
	}
}

// ClearInterval is an alias of ClearTimeout per §4.5.3.
func (l *Loop) ClearInterval(id int64) { l.ClearTimeout(id) }

// RequestAnimationFrame registers cb to run the next time the clock crosses
// a 16ms boundary.
func (l *Loop) RequestAnimationFrame(cb func(nowMs int64)) {
	l.rafCallbacks = append(l.rafCallbacks, cb)
}

// DrainMicrotasks runs every queued microtask to exhaustion, including ones
// enqueued by microtasks that ran earlier in the same drain (an async
// function awaiting another settles further microtasks).
func (l *Loop) DrainMicrotasks() {
	for len(l.microtasks) > 0 {
		next := l.microtasks[0]
		l.microtasks = l.microtasks[1:]
		next()
	}
}

// RunTask pops and runs a single queued task, draining microtasks
// afterward. Reports whether a task ran.
func (l *Loop) RunTask() bool {
	if len(l.tasks) == 0 {
		return false
	}
	next := l.tasks[0]
	l.tasks = l.tasks[1:]
	next()
	l.DrainMicrotasks()
	return true
}

// Flush drains microtasks and runs every already-ready task/timer without
// advancing the clock, per §6.1 `flush()`.
func (l *Loop) Flush() {
	l.DrainMicrotasks()
	for {
		ran := l.RunTask()
		fired := l.fireDueTimers(l.now)
		if !ran && !fired {
			break
		}
	}
}

// AdvanceTime moves the virtual clock forward by dt milliseconds, firing
// every timer whose fireAt falls within the new window in order, draining
// microtasks between each, and running animation-frame callbacks when the
// clock crosses a 16ms boundary — §4.5.3's `advance_time` contract.
func (l *Loop) AdvanceTime(dt int64) {
	target := l.now + dt
	for {
		nextFire, ok := l.peekNextFireAt()
		nextFrame := l.lastAnimationFrame + 16
		switch {
		case ok && nextFire <= target && (nextFrame > target || nextFire <= nextFrame):
			l.now = nextFire
			l.fireDueTimers(l.now)
		case nextFrame <= target:
			l.now = nextFrame
			l.lastAnimationFrame = nextFrame
			l.runAnimationFrames()
		default:
			l.now = target
			l.DrainMicrotasks()
			return
		}
	}
}

func (l *Loop) peekNextFireAt() (int64, bool) {
	for len(l.timers) > 0 && l.timers[0].canceled {
		heap.Pop(&l.timers)
	}
	if len(l.timers) == 0 {
		return 0, false
	}
	return l.timers[0].fireAt, true
}

// fireDueTimers fires every non-canceled timer with fireAt <= upTo, in
// (fireAt, registration-order) order, draining microtasks between each —
// Invariant I4.
func (l *Loop) fireDueTimers(upTo int64) bool {
	fired := false
	for {
		for len(l.timers) > 0 && l.timers[0].canceled {
			heap.Pop(&l.timers)
		}
		if len(l.timers) == 0 || l.timers[0].fireAt > upTo {
			break
		}
		t := heap.Pop(&l.timers).(*timer)
		delete(l.byID, t.id)
		fired = true
		t.handler()
		l.DrainMicrotasks()
		if t.interval && !t.canceled {
			t.fireAt += t.period
			t.seq = l.timerSeq
			l.timerSeq++
			heap.Push(&l.timers, t)
			l.byID[t.id] = t
		}
	}
	return fired
}

func (l *Loop) runAnimationFrames() {
	cbs := l.rafCallbacks
	l.rafCallbacks = nil
	for _, cb := range cbs {
		cb(l.now)
		l.DrainMicrotasks()
	}
}

// PendingTimerIDs returns the ids of still-pending timers, sorted, mostly
// useful for tests asserting on scheduler state.
func (l *Loop) PendingTimerIDs() []int64 {
	ids := make([]int64, 0, len(l.byID))
	for id := range l.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
