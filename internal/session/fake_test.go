package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/quote"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	f        func()
	stopped  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, firing due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		idx := -1
		for i, t := range c.timers {
			if t.stopped || t.deadline.After(target) {
				continue
			}
			if idx < 0 || t.deadline.Before(c.timers[idx].deadline) {
				idx = i
			}
		}
		if idx < 0 {
			break
		}
		t := c.timers[idx]
		c.timers = append(c.timers[:idx], c.timers[idx+1:]...)
		t.stopped = true
		c.now = t.deadline
		c.mu.Unlock()
		t.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

// Pending counts armed timers.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type fixedWords struct {
	text string
}

func (w fixedWords) Text(count int) string {
	return w.text
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []model.Result
	err     error
}

func (r *fakeRecorder) Append(_ context.Context, res model.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.results = append(r.results, res)
	return nil
}

func (r *fakeRecorder) All() []model.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Result(nil), r.results...)
}

type quoteReply struct {
	q   quote.Quote
	err error
}

// fakeQuotes hands each Fetch call a channel the test answers on.
type fakeQuotes struct {
	calls chan chan quoteReply
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{calls: make(chan chan quoteReply, 16)}
}

func (f *fakeQuotes) Fetch(ctx context.Context) (quote.Quote, error) {
	reply := make(chan quoteReply, 1)
	f.calls <- reply
	select {
	case r := <-reply:
		return r.q, r.err
	case <-ctx.Done():
		return quote.Quote{}, ctx.Err()
	}
}

func (f *fakeQuotes) next(timeout time.Duration) (chan quoteReply, error) {
	select {
	case reply := <-f.calls:
		return reply, nil
	case <-time.After(timeout):
		return nil, errors.New("no fetch issued")
	}
}

// eventLog collects notifications for waiting on asynchronous quote results.
type eventLog struct {
	ch chan Event
}

func newEventLog() *eventLog {
	return &eventLog{ch: make(chan Event, 256)}
}

func (l *eventLog) notify(ev Event) {
	l.ch <- ev
}

func (l *eventLog) waitFor(kind EventKind, timeout time.Duration) (Event, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-l.ch:
			if ev.Kind == kind {
				return ev, true
			}
		case <-deadline:
			return Event{}, false
		}
	}
}
