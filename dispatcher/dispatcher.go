// Package dispatcher is the application-facing façade over a driver.Driver:
// it owns the driver's goroutine, turns a goroutine panic into a
// reportable error rather than crashing the process, and offers blocking
// and non-blocking submission on top of the driver's internal request
// channel. Grounded on the teacher repo's convention of a small package
// wrapping a Run loop and exposing Submit/Stop (services/hal's worker.go
// Start). Notification fan-out (not command submission) is the one thing
// routed through a bus.Connection, via Subscribe/NotificationTopic below.
package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"uwbuci/bus"
	"uwbuci/driver"
	"uwbuci/errcode"
	"uwbuci/hal"
	"uwbuci/log"
	"uwbuci/retry"
	"uwbuci/uci"
)

// ErrDriverPanicked is wrapped by the error WaitForExit returns when the
// driver goroutine terminated via a panic rather than context cancellation.
var ErrDriverPanicked = errors.New("dispatcher: driver goroutine panicked")

// NotificationTopic is the topic every decoded Notification is published
// under. Consumers subscribe via Subscribe to receive them; the payload is
// always a uci.Notification.
func NotificationTopic() bus.Topic { return bus.T("uci", "notification") }

// Dispatcher owns a Driver's goroutine and supervises it. Notifications are
// fanned out over a bus.Connection rather than a single callback, so any
// number of independent subscribers (a session manager, a ranging-data
// consumer, cmd/ucictl's live view) can each get their own feed without the
// driver knowing how many there are.
type Dispatcher struct {
	drv    *driver.Driver
	bus    *bus.Bus
	conn   *bus.Connection
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// New constructs a Dispatcher, wiring the driver's notification callback to
// publish onto NotificationTopic().
func New(h hal.HAL, cfg driver.Config, logger log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New("uci-dispatcher")
	}
	b := bus.NewBus(8)
	conn := b.NewConnection("uci-dispatcher")
	d := &Dispatcher{
		bus:  b,
		conn: conn,
		done: make(chan struct{}),
	}
	notify := func(n uci.Notification) {
		conn.Publish(conn.NewMessage(NotificationTopic(), n, false))
	}
	d.drv = driver.New(h, cfg, logger, notify)
	return d
}

// Subscribe returns a bus.Subscription delivering every Notification the
// driver decodes. Callers must Unsubscribe when done.
func (d *Dispatcher) Subscribe() *bus.Subscription {
	return d.conn.Subscribe(NotificationTopic())
}

// Unsubscribe releases a Subscription obtained from Subscribe.
func (d *Dispatcher) Unsubscribe(sub *bus.Subscription) {
	d.conn.Unsubscribe(sub)
}

// Start spawns the driver's event loop on a dedicated goroutine ("uci-handler"),
// recovering a panic into ErrDriverPanicked instead of letting it crash the
// process (spec.md §4.4: the driver must never lose ownership of the
// response channel even if its own logic misbehaves).
func (d *Dispatcher) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	go func() {
		defer close(d.done)
		defer func() {
			if r := recover(); r != nil {
				d.err = &errcode.E{C: errcode.Undefined, Op: "wait_for_exit", Msg: fmt.Sprintf("%v: %v", ErrDriverPanicked, r), Err: ErrDriverPanicked}
			}
		}()
		d.drv.Run(runCtx)
	}()
}

// Stop cancels the driver's context and waits for its goroutine to exit.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	<-d.done
}

// WaitForExit blocks until the driver goroutine has exited. It returns nil
// after context cancellation, and after a panic an error whose code is
// errcode.Undefined and which wraps ErrDriverPanicked.
func (d *Dispatcher) WaitForExit() error {
	<-d.done
	return d.err
}

const maxControlees = 8

// validateCommand performs the synchronous, pre-enqueue argument checks
// spec.md §7 calls out by name: a malformed command is rejected with
// InvalidArgs before it ever reaches the driver's queue, not after a round
// trip through the HAL.
func validateCommand(cmd uci.Command) error {
	if c, ok := cmd.(uci.MulticastListUpdateCmd); ok {
		n := len(c.Controlees)
		if n < 1 || n > maxControlees {
			return errcode.New(errcode.InvalidArgs, "multicast_list_update", "controlee list length out of 1..=8")
		}
	}
	return nil
}

// SubmitNonblocking enqueues cmd and returns immediately with a channel
// that receives exactly one retry.Result once the driver resolves it.
func (d *Dispatcher) SubmitNonblocking(ctx context.Context, cmd uci.Command) (<-chan retry.Result, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	sink := make(chan retry.Result, 1)
	if err := d.drv.Submit(ctx, driver.Request{Cmd: cmd, Sink: sink}); err != nil {
		return nil, err
	}
	return sink, nil
}

// SubmitBlocking enqueues cmd and waits for its result or ctx's
// cancellation, whichever comes first.
func (d *Dispatcher) SubmitBlocking(ctx context.Context, cmd uci.Command) (uci.Response, error) {
	sink, err := d.SubmitNonblocking(ctx, cmd)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-sink:
		return res.Response, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
