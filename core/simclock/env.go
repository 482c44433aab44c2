package simclock

import (
	"container/heap"
	"errors"
)

// ErrHalted is returned from a suspension primitive once the run is over.
// A process receiving it must unwind without scheduling further work.
var ErrHalted = errors.New("simclock: environment halted")

type event struct {
	at  float64
	seq uint64
	p   *Proc
}

// eventHeap orders events by time, ties broken by scheduling order.
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(*event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}

// Env owns the simulated clock and the pending-event queue.
type Env struct {
	now    float64
	seq    uint64
	events eventHeap
}

// New returns an environment with the clock at zero.
func New() *Env {
	return &Env{}
}

// Now returns the current simulated time in seconds.
func (e *Env) Now() float64 { return e.now }

func (e *Env) schedule(at float64, p *Proc) {
	if at < e.now {
		at = e.now
	}
	e.seq++
	heap.Push(&e.events, &event{at: at, seq: e.seq, p: p})
}

// Process registers fn as a new process starting at the current simulated
// time. It may be called before Run or from inside a running process.
func (e *Env) Process(fn func(*Proc)) {
	p := &Proc{env: e, resume: make(chan struct{}), yield: make(chan struct{})}
	e.schedule(e.now, p)
	go func() {
		<-p.resume
		if !p.halted {
			fn(p)
		}
		p.done = true
		p.yield <- struct{}{}
	}()
}

// Run drives the event loop until no events remain or the next event lies
// beyond the horizon. A negative horizon means run to exhaustion. Events
// scheduled exactly at the horizon still execute. When Run returns, the
// clock sits at the horizon (if one was given) and every process still
// suspended has been resumed with ErrHalted and awaited.
func (e *Env) Run(until float64) {
	for e.events.Len() > 0 {
		next := e.events[0]
		if until >= 0 && next.at > until {
			break
		}
		heap.Pop(&e.events)
		e.now = next.at
		e.step(next.p)
	}
	if until >= 0 && e.now < until {
		e.now = until
	}
	for e.events.Len() > 0 {
		ev := heap.Pop(&e.events).(*event)
		ev.p.halted = true
		e.step(ev.p)
	}
}

// step hands control to p and blocks until it suspends or finishes.
func (e *Env) step(p *Proc) {
	p.resume <- struct{}{}
	<-p.yield
}

// Proc is the handle a process uses to suspend itself. Exactly one
// suspended event per process is ever pending.
type Proc struct {
	env    *Env
	resume chan struct{}
	yield  chan struct{}
	done   bool
	halted bool
}

// Now returns the current simulated time.
func (p *Proc) Now() float64 { return p.env.now }

// Env returns the owning environment.
func (p *Proc) Env() *Env { return p.env }

// Wait suspends the process for d simulated seconds. Negative durations
// are treated as zero.
func (p *Proc) Wait(d float64) error {
	if d < 0 {
		d = 0
	}
	return p.sleepUntil(p.env.now + d)
}

// WaitUntil suspends the process until absolute simulated time t. Times in
// the past resume at the current time.
func (p *Proc) WaitUntil(t float64) error {
	return p.sleepUntil(t)
}

func (p *Proc) sleepUntil(t float64) error {
	if p.halted {
		return ErrHalted
	}
	p.env.schedule(t, p)
	p.yield <- struct{}{}
	<-p.resume
	if p.halted {
		return ErrHalted
	}
	return nil
}
