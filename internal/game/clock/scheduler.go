// Package clock provides the deferred and periodic callback scheduler that the
// encounter engine runs on. Time never advances on its own: the host calls
// Advance once per frame and every due callback fires inside that call.
package clock

import (
	"container/heap"
	"time"
)

// TaskID identifies a scheduled callback. The zero TaskID is never issued.
type TaskID uint64

// Func is a scheduled callback. now is the task's scheduled fire time, which may
// be earlier than the time passed to Advance when a frame overshoots it.
type Func func(now time.Duration)

type task struct {
	id       TaskID
	at       time.Duration
	seq      uint64
	interval time.Duration // > 0 for repeating tasks
	fn       Func
	group    *Group
	index    int
}

// taskQueue is a min-heap ordered by (at, seq).
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Scheduler owns an ordered queue of pending callbacks.
// It is not safe for concurrent use; the host loop must serialise Advance and
// all scheduling calls.
//
// Invariant: a cancelled task never runs; tasks fire in (fire time, schedule order).
type Scheduler struct {
	queue     taskQueue
	tasks     map[TaskID]*task
	nextID    TaskID
	seq       uint64
	now       time.Duration
	cursor    time.Duration
	advancing bool
}

// NewScheduler creates an empty Scheduler at time zero.
//
// Postcondition: Returns a non-nil Scheduler with Len() == 0.
func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[TaskID]*task)}
}

// Now returns the time of the most recent Advance call.
func (s *Scheduler) Now() time.Duration { return s.now }

// Len returns the number of live (not yet fired, not cancelled) tasks.
func (s *Scheduler) Len() int { return len(s.tasks) }

// base is the reference time new tasks are scheduled from: the fire time of the
// running task while advancing, the last advanced time otherwise.
func (s *Scheduler) base() time.Duration {
	if s.advancing {
		return s.cursor
	}
	return s.now
}

func (s *Scheduler) schedule(at, interval time.Duration, fn Func, g *Group) TaskID {
	s.nextID++
	s.seq++
	t := &task{id: s.nextID, at: at, seq: s.seq, interval: interval, fn: fn, group: g}
	s.tasks[t.id] = t
	heap.Push(&s.queue, t)
	return t.id
}

// After schedules fn to run once, delay after the current base time.
// A negative delay is treated as zero.
//
// Precondition: fn must not be nil.
// Postcondition: Returns the new task's ID; fn runs on the first Advance reaching its fire time.
func (s *Scheduler) After(delay time.Duration, fn Func) TaskID {
	if delay < 0 {
		delay = 0
	}
	return s.schedule(s.base()+delay, 0, fn, nil)
}

// Every schedules fn to run every interval, starting one interval after the current
// base time, until cancelled.
//
// Precondition: interval > 0; fn must not be nil. Panics when interval <= 0.
// Postcondition: Returns the new task's ID.
func (s *Scheduler) Every(interval time.Duration, fn Func) TaskID {
	if interval <= 0 {
		panic("clock.Scheduler.Every: interval must be > 0")
	}
	return s.schedule(s.base()+interval, interval, fn, nil)
}

// Cancel removes the task with id. Cancelling an unknown or already fired task is a no-op.
//
// Postcondition: Returns true iff a live task was removed; the task never runs afterwards.
func (s *Scheduler) Cancel(id TaskID) bool {
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	delete(s.tasks, id)
	if t.group != nil {
		delete(t.group.ids, id)
	}
	if t.index >= 0 {
		heap.Remove(&s.queue, t.index)
	}
	return true
}

// Advance moves the scheduler to now and runs every task due at or before now, in
// fire-time order. Tasks scheduled by callbacks that are already due run in the same
// call. A call from inside a callback, or with now earlier than Now(), runs nothing.
//
// Postcondition: Returns the number of callbacks invoked; Now() == max(previous, now).
func (s *Scheduler) Advance(now time.Duration) int {
	if s.advancing || now < s.now {
		return 0
	}
	s.now = now
	s.advancing = true
	defer func() { s.advancing = false }()

	fired := 0
	for len(s.queue) > 0 && s.queue[0].at <= now {
		t := heap.Pop(&s.queue).(*task)
		s.cursor = t.at
		if t.interval > 0 {
			t.at += t.interval
			s.seq++
			t.seq = s.seq
			heap.Push(&s.queue, t)
		} else {
			delete(s.tasks, t.id)
			if t.group != nil {
				delete(t.group.ids, t.id)
			}
		}
		t.fn(s.cursor)
		fired++
	}
	return fired
}

// NewGroup returns a Group whose tasks can be cancelled together.
//
// Postcondition: Returns a non-nil open Group bound to s.
func (s *Scheduler) NewGroup() *Group {
	return &Group{s: s, ids: make(map[TaskID]struct{})}
}

// Group is a cancellation scope over a subset of a Scheduler's tasks.
//
// Invariant: once closed, a Group schedules nothing and holds no live tasks.
type Group struct {
	s      *Scheduler
	ids    map[TaskID]struct{}
	closed bool
}

// After schedules fn once, like Scheduler.After, and tracks it in g.
//
// Postcondition: Returns 0 without scheduling when g is closed.
func (g *Group) After(delay time.Duration, fn Func) TaskID {
	if g.closed {
		return 0
	}
	if delay < 0 {
		delay = 0
	}
	id := g.s.schedule(g.s.base()+delay, 0, fn, g)
	g.ids[id] = struct{}{}
	return id
}

// Every schedules a repeating fn, like Scheduler.Every, and tracks it in g.
//
// Precondition: interval > 0. Panics when interval <= 0.
// Postcondition: Returns 0 without scheduling when g is closed.
func (g *Group) Every(interval time.Duration, fn Func) TaskID {
	if interval <= 0 {
		panic("clock.Group.Every: interval must be > 0")
	}
	if g.closed {
		return 0
	}
	id := g.s.schedule(g.s.base()+interval, interval, fn, g)
	g.ids[id] = struct{}{}
	return id
}

// Cancel removes a single task owned by g.
//
// Postcondition: Returns true iff a live task of g was removed.
func (g *Group) Cancel(id TaskID) bool {
	if _, ok := g.ids[id]; !ok {
		return false
	}
	return g.s.Cancel(id)
}

// CancelAll removes every live task of g. g stays open.
//
// Postcondition: g.Len() == 0; returns the number of tasks removed.
func (g *Group) CancelAll() int {
	n := 0
	for id := range g.ids {
		if g.s.Cancel(id) {
			n++
		}
	}
	return n
}

// Close cancels every task of g and refuses further scheduling. Safe to call multiple times.
//
// Postcondition: g.Closed() is true and g.Len() == 0.
func (g *Group) Close() int {
	n := g.CancelAll()
	g.closed = true
	return n
}

// Closed reports whether Close has been called.
func (g *Group) Closed() bool { return g.closed }

// Len returns the number of live tasks owned by g.
func (g *Group) Len() int { return len(g.ids) }
