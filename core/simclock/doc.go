// Package simclock provides a single-threaded discrete-event substrate:
// a simulated clock, an event queue, and cooperative processes that
// suspend for a duration or until an absolute simulated time.
//
// At most one process executes at any instant. Control returns to the
// scheduler only at a suspension point, so processes may freely mutate
// shared state between suspensions without locks. Events scheduled for
// the same timestamp run in the order they were scheduled, which makes
// runs deterministic for a fixed input.
package simclock
