package tcp

import (
	"container/heap"
	"sync"
	"time"
)

// TimerEvent is a handle to one scheduled wakeup, owned by value (not
// pointer) by whichever TCB reuses it across its connection-timeout and
// TIME_WAIT duties; it carries only a message type and a target mailbox,
// never a TCB pointer. The zero value is unscheduled.
type TimerEvent struct {
	scheduled bool
	index     int // position in the heap, maintained by container/heap
	wakeup    time.Time
	msgType   MsgType
	target    *Mailbox
}

// timerHeap is the underlying container/heap.Interface implementation; it
// is never used directly outside timerService.
type timerHeap []*TimerEvent

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool   { return h[i].wakeup.Before(h[j].wakeup) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *timerHeap) Push(x any) {
	e := x.(*TimerEvent)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	e.index = -1
	return e
}

// timerService is the scheduler shared by the TCBs of one stack instance:
// events ordered by absolute wakeup time, with a driver goroutine that
// sleeps until the next one fires and posts a Msg to its target mailbox.
//
// Modeled as an explicitly constructed service rather than package-level
// globals, so tests can run many independent instances concurrently.
type timerService struct {
	mu      sync.Mutex
	heap    timerHeap
	wake    chan struct{}
	stop    chan struct{}
	stopped bool
	lg      logger
}

// NewTimerService starts a timer service's driver goroutine and returns a
// handle to it. One timer service is shared by every TCB in a stack
// instance; tests construct one per independent instance they drive.
func NewTimerService() *timerService {
	ts := &timerService{wake: make(chan struct{}, 1), stop: make(chan struct{})}
	go ts.drive()
	return ts
}

// schedule arms e to fire after offset elapses, delivering msgType to
// target. Rescheduling an already-scheduled event (cancel + add, without
// reallocating e) is supported by calling schedule again directly.
func (ts *timerService) schedule(e *TimerEvent, offset time.Duration, msgType MsgType, target *Mailbox) {
	ts.mu.Lock()
	if e.scheduled {
		heap.Remove(&ts.heap, e.index)
	}
	e.wakeup = time.Now().Add(offset)
	e.msgType = msgType
	e.target = target
	e.scheduled = true
	heap.Push(&ts.heap, e)
	ts.mu.Unlock()
	ts.nudge()
}

// cancel removes e if scheduled; a no-op otherwise.
func (ts *timerService) cancel(e *TimerEvent) {
	ts.mu.Lock()
	if e.scheduled {
		heap.Remove(&ts.heap, e.index)
		e.scheduled = false
	}
	ts.mu.Unlock()
}

func (ts *timerService) nudge() {
	select {
	case ts.wake <- struct{}{}:
	default:
	}
}

// drive is the timer-driver task: it sleeps until the head event's
// wakeup, posts its message, and advances. It suspends on ts.wake (or the
// head's deadline) when the heap is empty or not yet due.
func (ts *timerService) drive() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		ts.mu.Lock()
		var wait time.Duration
		if len(ts.heap) == 0 {
			wait = time.Hour
		} else {
			wait = time.Until(ts.heap[0].wakeup)
			if wait < 0 {
				wait = 0
			}
		}
		ts.mu.Unlock()
		timer.Reset(wait)

		select {
		case <-ts.stop:
			return
		case <-ts.wake:
			continue
		case <-timer.C:
		}

		now := time.Now()
		for {
			ts.mu.Lock()
			if len(ts.heap) == 0 || ts.heap[0].wakeup.After(now) {
				ts.mu.Unlock()
				break
			}
			e := heap.Pop(&ts.heap).(*TimerEvent)
			e.scheduled = false
			msg, target := Msg{Type: e.msgType}, e.target
			ts.mu.Unlock()
			if target != nil {
				target.Put(msg)
			}
		}
	}
}

// Close stops the driver goroutine. Used by tests and by graceful shutdown
// of a stack instance.
func (ts *timerService) Close() {
	ts.mu.Lock()
	if ts.stopped {
		ts.mu.Unlock()
		return
	}
	ts.stopped = true
	ts.mu.Unlock()
	close(ts.stop)
}
