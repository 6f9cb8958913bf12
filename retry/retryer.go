// Package retry tracks in-flight command attempts: how many are left, and
// the single oneshot sink the eventual result is delivered to exactly
// once. It is grounded on the teacher repo's services/hal/worker.go
// collectItem/measureWorker bookkeeping, which tracks an in-flight
// measurement's remaining retries and its result channel the same way.
package retry

import (
	"uwbuci/errcode"
	"uwbuci/uci"
)

// Result is what a Retryer eventually delivers to its sink: either a
// decoded response or a terminal error (timeout, HAL failure, and so on).
type Result struct {
	Response uci.Response
	Err      error
}

// Sink receives exactly one Result. Buffered by one so Resolve never
// blocks the Driver's event loop.
type Sink chan<- Result

// Retryer tracks one in-flight command: how many attempts remain and
// the sink its eventual Result goes to. It is not safe for concurrent
// use; the Driver's event loop is its only caller.
type Retryer struct {
	Cmd          uci.Command
	Encoded      []byte
	sink         Sink
	attemptsLeft int
	resolved     bool
}

// New creates a Retryer with maxAttempts credits. maxAttempts must be >= 1.
func New(cmd uci.Command, encoded []byte, sink Sink, maxAttempts int) *Retryer {
	return &Retryer{
		Cmd:          cmd,
		Encoded:      encoded,
		sink:         sink,
		attemptsLeft: maxAttempts,
	}
}

// AttemptsLeft reports the number of sends (including the one about to
// happen) still available.
func (r *Retryer) AttemptsLeft() int { return r.attemptsLeft }

// BeginAttempt consumes one attempt credit. It reports false if no
// credits remain, in which case the caller must resolve with a Timeout
// error rather than sending again.
func (r *Retryer) BeginAttempt() bool {
	if r.attemptsLeft <= 0 {
		return false
	}
	r.attemptsLeft--
	return true
}

// Resolve delivers a Result to the sink exactly once. Calling it a second
// time is a no-op: a Retryer that has already resolved must never be
// resolved again by a late timer or a stray notification.
func (r *Retryer) Resolve(res Result) {
	if r.resolved {
		return
	}
	r.resolved = true
	r.sink <- res
}

// Resolved reports whether Resolve has already fired.
func (r *Retryer) Resolved() bool { return r.resolved }

// ResolveTimeout is a convenience for the exhausted-attempts and
// response-timeout paths.
func (r *Retryer) ResolveTimeout() {
	r.Resolve(Result{Err: errcode.New(errcode.Timeout, "retry", "no response after max attempts")})
}

// ResolveErr resolves with an errcode.E built from code, op and msg.
func (r *Retryer) ResolveErr(code errcode.Code, op, msg string) {
	r.Resolve(Result{Err: errcode.New(code, op, msg)})
}
