package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"uwbuci/driver"
	"uwbuci/errcode"
	"uwbuci/hal"
	"uwbuci/hal/fakehal"
	"uwbuci/log"
	"uwbuci/uci"
	"uwbuci/uci/wire"
)

func testConfig() driver.Config {
	return driver.Config{
		MaxAttempts:        3,
		ResponseTimeout:    20 * time.Millisecond,
		DeviceReadyTimeout: 50 * time.Millisecond,
		RetryDelay:         5 * time.Millisecond,
	}
}

func enable(t *testing.T, ctx context.Context, d *Dispatcher, h *fakehal.HAL) {
	t.Helper()
	sink, err := d.SubmitNonblocking(ctx, uci.Enable{})
	if err != nil {
		t.Fatalf("SubmitNonblocking(Enable): %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	raw := wire.Pack(uci.MTNotification, uci.GroupID(0), uci.OpcodeID(0), []byte{0x01, byte(uci.DeviceStateReady)})
	h.Deliver(raw)
	select {
	case res := <-sink:
		if res.Err != nil {
			t.Fatalf("enable failed: %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for enable")
	}
}

func TestSubmitBlockingHappyPath(t *testing.T) {
	h := fakehal.New()
	d := New(h, testConfig(), log.New("test"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	enable(t, ctx, d, h)

	h.Send = func(attempt int, data []byte) []byte {
		payload := append([]byte{byte(uci.StatusOk)}, make([]byte, 8)...)
		return wire.Pack(uci.MTResponse, uci.GroupID(0), uci.OpcodeID(2), payload)
	}
	rsp, err := d.SubmitBlocking(ctx, uci.DeviceInfoCmd{})
	if err != nil {
		t.Fatalf("SubmitBlocking: %v", err)
	}
	if rsp.Status() != uci.StatusOk {
		t.Fatalf("status = %v, want OK", rsp.Status())
	}
}

func TestSubscribeReceivesNotifications(t *testing.T) {
	h := fakehal.New()
	d := New(h, testConfig(), log.New("test"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	sub := d.Subscribe()
	defer d.Unsubscribe(sub)

	enable(t, ctx, d, h)

	raw := wire.Pack(uci.MTNotification, uci.GroupID(0), uci.OpcodeID(0),
		[]byte{0x02, byte(uci.StatusFailed)})
	h.Deliver(raw)

	select {
	case msg := <-sub.Channel():
		n, ok := msg.Payload.(uci.Notification)
		if !ok {
			t.Fatalf("payload type = %T, want uci.Notification", msg.Payload)
		}
		ge, ok := n.(uci.GenericErrorNotification)
		if !ok {
			t.Fatalf("notification type = %T, want GenericErrorNotification", n)
		}
		if ge.St != uci.StatusFailed {
			t.Fatalf("status = %v, want FAILED", ge.St)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestSubmitNonblockingRejectsBadControleeCount(t *testing.T) {
	h := fakehal.New()
	d := New(h, testConfig(), log.New("test"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	_, err := d.SubmitNonblocking(ctx, uci.MulticastListUpdateCmd{SessionID: 1, Controlees: nil})
	if errcode.Of(err) != errcode.InvalidArgs {
		t.Fatalf("errcode.Of(err) = %v, want InvalidArgs for an empty controlee list", errcode.Of(err))
	}

	nine := make([]uci.ControleeEntry, 9)
	_, err = d.SubmitNonblocking(ctx, uci.MulticastListUpdateCmd{SessionID: 1, Controlees: nine})
	if errcode.Of(err) != errcode.InvalidArgs {
		t.Fatalf("errcode.Of(err) = %v, want InvalidArgs for a 9-controlee list", errcode.Of(err))
	}
}

// panicHAL embeds fakehal.HAL but panics from Open, exercising the
// dispatcher's panic -> ErrDriverPanicked recovery entirely within the
// driver's own goroutine.
type panicHAL struct{ *fakehal.HAL }

func (panicHAL) Open(ctx context.Context, msgs hal.InboundSink, events hal.EventSink) error {
	panic("simulated HAL failure")
}

func TestWaitForExitRecoversDriverPanic(t *testing.T) {
	h := panicHAL{fakehal.New()}
	d := New(h, testConfig(), log.New("test"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	sink, err := d.SubmitNonblocking(ctx, uci.Enable{})
	if err != nil {
		t.Fatalf("SubmitNonblocking: %v", err)
	}
	_ = sink

	werr := d.WaitForExit()
	if !errors.Is(werr, ErrDriverPanicked) {
		t.Fatalf("WaitForExit() = %v, want ErrDriverPanicked", werr)
	}
}

func TestStopCancelsDriverGoroutine(t *testing.T) {
	h := fakehal.New()
	d := New(h, testConfig(), log.New("test"))
	ctx := context.Background()
	d.Start(ctx)
	d.Stop()

	if err := d.WaitForExit(); err != nil {
		t.Fatalf("WaitForExit() = %v, want nil", err)
	}
}
