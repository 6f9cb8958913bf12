package driver

import (
	"context"
	"time"

	"uwbuci/defrag"
	"uwbuci/errcode"
	"uwbuci/hal"
	"uwbuci/log"
	"uwbuci/metrics"
	"uwbuci/retry"
	"uwbuci/uci"
)

const inboundQueueLen = 8

// Request is one command submission, carrying the oneshot sink its result
// must be delivered to. The dispatcher package is the only producer.
type Request struct {
	Cmd  uci.Command
	Sink retry.Sink
}

// Driver is the single-writer actor owning the HAL connection (spec.md
// §4.4). All HAL calls and all command/notification bookkeeping happen on
// its one goroutine; Submit is the only method safe to call from other
// goroutines.
type Driver struct {
	h      hal.HAL
	cfg    Config
	log    log.Logger
	notify func(uci.Notification)

	cmdQ chan Request

	frag *defrag.Defragmenter

	state HalState
	cur   *retry.Retryer

	queued []Request

	halMsgs   chan []byte
	halEvents chan hal.Event
}

// New builds a Driver. notify is called from the Driver's own goroutine for
// every decoded Notification; it must not block.
func New(h hal.HAL, cfg Config, logger log.Logger, notify func(uci.Notification)) *Driver {
	if notify == nil {
		notify = func(uci.Notification) {}
	}
	return &Driver{
		h:         h,
		cfg:       cfg.withDefaults(),
		log:       logger,
		notify:    notify,
		cmdQ:      make(chan Request, inboundQueueLen),
		frag:      defrag.New(),
		state:     StateNone,
		halMsgs:   make(chan []byte, inboundQueueLen),
		halEvents: make(chan hal.Event, inboundQueueLen),
	}
}

// Submit enqueues a command for dispatch. Safe to call concurrently with
// Run; blocks only if the queue is full.
func (d *Driver) Submit(ctx context.Context, req Request) error {
	select {
	case d.cmdQ <- req:
		metrics.CommandsSubmitted.WithLabelValues(req.Cmd.Kind().String()).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the event loop until ctx is cancelled. It panics are not
// recovered here: the dispatcher's worker goroutine is responsible for
// turning a panic into ErrDriverPanicked, matching the teacher's
// services/hal/internal/core HAL.Run, which also runs uninstrumented on its
// own goroutine and relies on its caller for supervision.
func (d *Driver) Run(ctx context.Context) {
	responseTimer := time.NewTimer(time.Hour)
	stopAndDrain(responseTimer)
	deviceReadyTimer := time.NewTimer(time.Hour)
	stopAndDrain(deviceReadyTimer)
	retryTimer := time.NewTimer(time.Hour)
	stopAndDrain(retryTimer)
	defer responseTimer.Stop()
	defer deviceReadyTimer.Stop()
	defer retryTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.drainQueue(errcode.New(errcode.Error, "run", "driver stopped"))
			if d.cur != nil {
				d.cur.ResolveErr(errcode.Error, "run", "driver stopped")
				d.cur = nil
			}
			return

		case req := <-d.cmdQ:
			metrics.QueueDepth.Set(float64(len(d.cmdQ) + len(d.queued)))
			d.handleSubmit(ctx, req, responseTimer, deviceReadyTimer)

		case raw, ok := <-d.halMsgs:
			if !ok {
				d.handleReceiverClosed()
				continue
			}
			d.handleInbound(raw, responseTimer)

		case ev := <-d.halEvents:
			d.handleEvent(ctx, ev, responseTimer, deviceReadyTimer)

		case <-responseTimer.C:
			d.handleResponseTimeout(ctx, responseTimer, retryTimer)

		case <-deviceReadyTimer.C:
			d.handleDeviceReadyTimeout()

		case <-retryTimer.C:
			d.handleRetryDelayElapsed(ctx, responseTimer)
		}
	}
}

func (d *Driver) setState(to HalState) {
	if d.state == to {
		return
	}
	metrics.StateTransitions.WithLabelValues(d.state.String(), to.String()).Inc()
	d.log.WithFields(log.Fields{"from": d.state.String(), "to": to.String()}).Debug("hal state transition")
	d.state = to
}

// handleSubmit dispatches or queues a newly submitted command depending on
// current state (spec.md §4.4.1/§4.4.2).
func (d *Driver) handleSubmit(ctx context.Context, req Request, responseTimer, deviceReadyTimer *time.Timer) {
	switch req.Cmd.Kind() {
	case uci.CmdEnable:
		if d.state != StateNone {
			req.Sink <- retry.Result{Err: errcode.New(errcode.WrongState, "enable", "hal already open")}
			return
		}
		if err := d.h.Open(ctx, d.halMsgs, d.halEvents); err != nil {
			req.Sink <- retry.Result{Err: errcode.Wrap(errcode.HalFailed, "open", err)}
			return
		}
		if err := d.h.CoreInitialization(ctx); err != nil {
			req.Sink <- retry.Result{Err: errcode.Wrap(errcode.HalFailed, "core_initialization", err)}
			return
		}
		d.setState(StateWaitOpen)
		d.cur = retry.New(req.Cmd, nil, req.Sink, 1)
		d.cur.BeginAttempt()
		stopAndDrain(deviceReadyTimer)
		deviceReadyTimer.Reset(d.cfg.DeviceReadyTimeout)
		return

	case uci.CmdDisable:
		if d.state != StateReady && d.state != StateWaitResponse {
			req.Sink <- retry.Result{Err: errcode.New(errcode.WrongState, "disable", "hal not open")}
			return
		}
		if d.cur != nil {
			d.cur.ResolveErr(errcode.HalFailed, "disable", "superseded by disable")
			d.cur = nil
		}
		d.setState(StateWaitClose)
		d.cur = retry.New(req.Cmd, nil, req.Sink, 1)
		d.cur.BeginAttempt()
		if err := d.h.Close(ctx); err != nil {
			d.cur.ResolveErr(errcode.HalFailed, "close", err.Error())
			d.cur = nil
			d.drainQueue(errcode.New(errcode.HalFailed, "close", "hal closed"))
			d.setState(StateNone)
		}
		return
	}

	if d.state != StateReady {
		if d.state == StateWaitResponse {
			d.queued = append(d.queued, req)
			return
		}
		req.Sink <- retry.Result{Err: errcode.New(errcode.WrongState, "submit", "hal not ready")}
		return
	}

	d.startAttempt(ctx, req.Cmd, req.Sink, responseTimer)
}

func (d *Driver) startAttempt(ctx context.Context, cmd uci.Command, sink retry.Sink, responseTimer *time.Timer) {
	r := retry.New(cmd, cmd.Encode(), sink, d.cfg.MaxAttempts)
	d.cur = r
	d.sendCurrent(ctx, responseTimer)
}

// sendCurrent sends d.cur's encoded bytes for its next attempt. Callers
// only reach it with at least one attempt credit remaining (startAttempt
// on a fresh Retryer, or handleRetryDelayElapsed, which runs only after
// handleResponseTimeout found AttemptsLeft() > 0), so BeginAttempt always
// succeeds here.
func (d *Driver) sendCurrent(ctx context.Context, responseTimer *time.Timer) {
	r := d.cur
	r.BeginAttempt()
	d.setState(StateWaitResponse)
	if err := d.h.SendCommand(ctx, r.Encoded); err != nil {
		r.ResolveErr(errcode.HalFailed, "send_command", err.Error())
		d.cur = nil
		d.setState(StateReady)
		d.drainNextQueued(ctx, responseTimer)
		return
	}
	stopAndDrain(responseTimer)
	responseTimer.Reset(d.cfg.ResponseTimeout)
}

func (d *Driver) drainNextQueued(ctx context.Context, responseTimer *time.Timer) {
	if len(d.queued) == 0 {
		return
	}
	next := d.queued[0]
	d.queued = d.queued[1:]
	d.startAttempt(ctx, next.Cmd, next.Sink, responseTimer)
}

func (d *Driver) handleInbound(raw []byte, responseTimer *time.Timer) {
	complete, ok, err := d.frag.Feed(raw)
	if err != nil {
		d.log.WithFields(log.Fields{"err": err.Error()}).Warn("discarding out-of-order fragment")
		return
	}
	if !ok {
		return
	}
	hdr, err := uci.PeekHeader(complete)
	if err != nil {
		d.log.Warn("dropping unparseable packet")
		return
	}
	if hdr.Type == uci.MTResponse && d.state == StateWaitResponse && d.cur != nil {
		d.handleResponse(complete, responseTimer)
		return
	}
	n, err := uci.DecodeNotification(complete)
	if err != nil {
		d.log.Warn("dropping unparseable notification")
		return
	}
	d.handleNotification(n, responseTimer)
}

func (d *Driver) handleResponse(raw []byte, responseTimer *time.Timer) {
	r := d.cur
	resp, err := uci.DecodeResponse(r.Cmd.Kind(), raw)
	if err != nil {
		d.log.Warn("response decode failed")
		return
	}
	if resp.Header().GID != r.Cmd.Header().GID || resp.Header().OID != r.Cmd.Header().OID {
		r.ResolveErr(errcode.ResponseMismatched, "response", "gid/oid mismatch with in-flight command")
		d.cur = nil
		d.setState(StateReady)
		return
	}
	stopAndDrain(responseTimer)
	metrics.CommandsCompleted.WithLabelValues(r.Cmd.Kind().String(), "ok").Inc()
	r.Resolve(retry.Result{Response: resp})
	d.cur = nil
	d.setState(StateReady)
}

func (d *Driver) handleNotification(n uci.Notification, responseTimer *time.Timer) {
	if ge, isGeneric := n.(uci.GenericErrorNotification); isGeneric && ge.IsCommandRetry() && d.state == StateWaitResponse && d.cur != nil {
		metrics.RetriesTotal.WithLabelValues(d.cur.Cmd.Kind().String(), "chip_requested").Inc()
		d.resendCurrent(responseTimer)
		return
	}
	if ds, isDeviceStatus := n.(uci.DeviceStatusNotification); isDeviceStatus {
		d.handleDeviceStatus(ds)
	}
	if ss, isSessionStatus := n.(uci.SessionStatusNotification); isSessionStatus && ss.State == uci.SessionStateInit {
		_ = d.h.SessionInitialization(context.Background(), int32(ss.SessionID))
	}
	d.notify(n)
}

func (d *Driver) handleDeviceStatus(ds uci.DeviceStatusNotification) {
	if d.state != StateWaitOpen {
		return
	}
	switch ds.State {
	case uci.DeviceStateReady:
		if d.cur != nil {
			d.cur.Resolve(retry.Result{Response: uci.OpenHalRsp{St: uci.StatusOk}})
			d.cur = nil
		}
		d.setState(StateReady)
	case uci.DeviceStateError:
		if d.cur != nil {
			d.cur.ResolveErr(errcode.HalFailed, "open", "device reported error during open")
			d.cur = nil
		}
		d.setState(StateNone)
	}
}

// resendCurrent retransmits without consuming an attempt credit: a
// chip-initiated CommandRetry is not counted against MAX_ATTEMPTS (spec.md
// §4.4.3).
func (d *Driver) resendCurrent(responseTimer *time.Timer) {
	r := d.cur
	if err := d.h.SendCommand(context.Background(), r.Encoded); err != nil {
		r.ResolveErr(errcode.HalFailed, "send_command", err.Error())
		d.cur = nil
		d.setState(StateReady)
		return
	}
	stopAndDrain(responseTimer)
	responseTimer.Reset(d.cfg.ResponseTimeout)
}

func (d *Driver) handleResponseTimeout(ctx context.Context, responseTimer, retryTimer *time.Timer) {
	if d.state != StateWaitResponse || d.cur == nil {
		return
	}
	metrics.ResponseTimeouts.WithLabelValues(d.cur.Cmd.Kind().String()).Inc()
	if d.cur.AttemptsLeft() == 0 {
		metrics.CommandsCompleted.WithLabelValues(d.cur.Cmd.Kind().String(), "timeout").Inc()
		d.cur.ResolveTimeout()
		d.cur = nil
		_ = d.h.CoreInitialization(ctx)
		d.setState(StateReady)
		d.drainNextQueued(ctx, responseTimer)
		return
	}
	metrics.RetriesTotal.WithLabelValues(d.cur.Cmd.Kind().String(), "timeout").Inc()
	// Wait RetryDelay before resending rather than resending immediately:
	// the chip has just failed to answer within ResponseTimeout, and
	// retrying in a tight loop gives it no chance to recover (spec.md §6's
	// RETRY_DELAY_MS). A chip-initiated CommandRetry (resendCurrent) skips
	// this wait since the chip explicitly asked for an immediate resend.
	stopAndDrain(retryTimer)
	retryTimer.Reset(d.cfg.RetryDelay)
}

// handleRetryDelayElapsed resends the in-flight command once RetryDelay has
// passed after a response timeout. d.cur may already be nil (resolved by a
// HAL error or Disable that raced the timer), in which case this is a
// no-op.
func (d *Driver) handleRetryDelayElapsed(ctx context.Context, responseTimer *time.Timer) {
	if d.state != StateWaitResponse || d.cur == nil {
		return
	}
	d.sendCurrent(ctx, responseTimer)
}

func (d *Driver) handleDeviceReadyTimeout() {
	if d.state != StateWaitOpen {
		return
	}
	metrics.DeviceReadyTimeouts.Inc()
	if d.cur != nil {
		d.cur.ResolveTimeout()
		d.cur = nil
	}
	d.setState(StateNone)
}

func (d *Driver) handleEvent(ctx context.Context, ev hal.Event, responseTimer, deviceReadyTimer *time.Timer) {
	switch ev.Kind {
	case hal.EventError:
		metrics.HalErrors.Inc()
		stopAndDrain(responseTimer)
		stopAndDrain(deviceReadyTimer)
		if d.cur != nil {
			d.cur.ResolveErr(errcode.HalFailed, "hal_event", "HAL reported a transport error")
			d.cur = nil
		}
		d.drainQueue(errcode.New(errcode.HalFailed, "hal_event", "HAL reported a transport error"))
		d.frag.Reset()
		d.setState(StateNone)
		// Surface the failure through the notification sink too, mirroring
		// handleDeviceStatus's DeviceStateError branch, so subscribers see the
		// same synthetic device-status transition a chip-reported error would
		// have produced (spec.md §4.4.5).
		d.notify(uci.DeviceStatusNotification{State: uci.DeviceStateError})

	case hal.EventCloseComplete:
		if d.state != StateWaitClose {
			return
		}
		if d.cur != nil {
			d.cur.Resolve(retry.Result{Response: uci.CloseHalRsp{St: uci.StatusOk}})
			d.cur = nil
		}
		d.drainQueue(errcode.New(errcode.HalFailed, "close", "hal closed"))
		d.frag.Reset()
		d.setState(StateNone)
	}
}

func (d *Driver) handleReceiverClosed() {
	if d.cur != nil {
		d.cur.ResolveErr(errcode.HalFailed, "hal_receiver", "HAL inbound channel closed")
		d.cur = nil
	}
	d.drainQueue(errcode.New(errcode.HalFailed, "hal_receiver", "HAL inbound channel closed"))
	d.frag.Reset()
	d.setState(StateNone)
}

func (d *Driver) drainQueue(err error) {
	for _, q := range d.queued {
		q.Sink <- retry.Result{Err: err}
	}
	d.queued = nil
}
