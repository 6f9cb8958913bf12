package driver

import (
	"context"
	"sync"
	"testing"
	"time"

	"uwbuci/errcode"
	"uwbuci/hal/fakehal"
	"uwbuci/log"
	"uwbuci/retry"
	"uwbuci/uci"
	"uwbuci/uci/wire"
)

func testConfig() Config {
	return Config{
		MaxAttempts:        3,
		ResponseTimeout:    20 * time.Millisecond,
		DeviceReadyTimeout: 50 * time.Millisecond,
		RetryDelay:         5 * time.Millisecond,
	}
}

func deviceInfoResponse() []byte {
	payload := append([]byte{byte(uci.StatusOk)}, make([]byte, 8)...)
	return wire.Pack(uci.MTResponse, uci.GroupID(0), uci.OpcodeID(2), payload)
}

func sessionGetCountResponse(count uint8) []byte {
	return wire.Pack(uci.MTResponse, uci.GroupID(1), uci.OpcodeID(4), []byte{byte(uci.StatusOk), count})
}

func commandRetryNotification() []byte {
	return wire.Pack(uci.MTNotification, uci.GroupID(0), uci.OpcodeID(0), []byte{0x02, byte(uci.StatusCommandRetry)})
}

func deviceStatusReady() []byte {
	return wire.Pack(uci.MTNotification, uci.GroupID(0), uci.OpcodeID(0), []byte{0x01, byte(uci.DeviceStateReady)})
}

func newRunningDriver(t *testing.T) (*Driver, *fakehal.HAL) {
	t.Helper()
	h := fakehal.New()
	d := New(h, testConfig(), log.New("test"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	t.Cleanup(cancel)
	return d, h
}

func submit(t *testing.T, d *Driver, cmd uci.Command) chan retry.Result {
	t.Helper()
	sink := make(chan retry.Result, 1)
	if err := d.Submit(context.Background(), Request{Cmd: cmd, Sink: sink}); err != nil {
		t.Fatalf("submit %s: %v", cmd.Kind(), err)
	}
	return sink
}

func waitResult(t *testing.T, sink chan retry.Result) retry.Result {
	t.Helper()
	select {
	case res := <-sink:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
		return retry.Result{}
	}
}

func enableAndWaitReady(t *testing.T, d *Driver, h *fakehal.HAL) {
	t.Helper()
	sink := submit(t, d, uci.Enable{})
	time.Sleep(5 * time.Millisecond)
	h.Deliver(deviceStatusReady())
	res := waitResult(t, sink)
	if res.Err != nil {
		t.Fatalf("enable failed: %v", res.Err)
	}
}

func TestDeviceInfoHappyPath(t *testing.T) {
	d, h := newRunningDriver(t)
	enableAndWaitReady(t, d, h)

	h.Send = func(attempt int, data []byte) []byte {
		return deviceInfoResponse()
	}
	sink := submit(t, d, uci.DeviceInfoCmd{})
	res := waitResult(t, sink)
	if res.Err != nil {
		t.Fatalf("device info failed: %v", res.Err)
	}
	rsp, ok := res.Response.(uci.DeviceInfoRsp)
	if !ok {
		t.Fatalf("response type = %T, want DeviceInfoRsp", res.Response)
	}
	if rsp.St != uci.StatusOk {
		t.Fatalf("status = %v, want OK", rsp.St)
	}
	if h.SendCount() != 1 {
		t.Fatalf("SendCount() = %d, want 1", h.SendCount())
	}
}

func TestTransientLossRetransmitsIdenticalBytes(t *testing.T) {
	d, h := newRunningDriver(t)
	enableAndWaitReady(t, d, h)

	h.Send = func(attempt int, data []byte) []byte {
		if attempt < 3 {
			return nil // dropped
		}
		return sessionGetCountResponse(2)
	}
	sink := submit(t, d, uci.SessionGetCountCmd{})
	res := waitResult(t, sink)
	if res.Err != nil {
		t.Fatalf("session get count failed: %v", res.Err)
	}
	if h.SendCount() != 3 {
		t.Fatalf("SendCount() = %d, want 3", h.SendCount())
	}
	first := h.Sent[0]
	for i, sent := range h.Sent {
		if len(sent) != len(first) {
			t.Fatalf("attempt %d bytes differ in length from attempt 0", i)
		}
		for j := range first {
			if sent[j] != first[j] {
				t.Fatalf("attempt %d bytes differ from attempt 0 at byte %d", i, j)
			}
		}
	}
}

func TestChipRequestedRetryDoesNotConsumeCredits(t *testing.T) {
	d, h := newRunningDriver(t)
	enableAndWaitReady(t, d, h)

	sink := submit(t, d, uci.SessionGetCountCmd{})
	time.Sleep(5 * time.Millisecond)
	// Send StatusCommandRetry several times in excess of MaxAttempts; a
	// correct implementation never exhausts credits on these since they
	// don't count against MAX_ATTEMPTS.
	for i := 0; i < 5; i++ {
		h.Deliver(commandRetryNotification())
		time.Sleep(2 * time.Millisecond)
	}
	h.Deliver(sessionGetCountResponse(0))

	res := waitResult(t, sink)
	if res.Err != nil {
		t.Fatalf("expected eventual success, got %v", res.Err)
	}
}

func TestExhaustionResolvesTimeoutAndReinitializesCore(t *testing.T) {
	d, h := newRunningDriver(t)
	enableAndWaitReady(t, d, h)

	h.Send = func(attempt int, data []byte) []byte { return nil } // always dropped
	before := h.CoreInitCount

	sink := submit(t, d, uci.SessionGetCountCmd{})
	res := waitResult(t, sink)
	if errcode.Of(res.Err) != errcode.Timeout {
		t.Fatalf("errcode.Of(res.Err) = %v, want Timeout", errcode.Of(res.Err))
	}
	if h.SendCount() != 3 {
		t.Fatalf("SendCount() = %d, want MaxAttempts=3", h.SendCount())
	}
	if h.CoreInitCount != before+1 {
		t.Fatalf("CoreInitCount = %d, want %d", h.CoreInitCount, before+1)
	}
}

func TestSessionInitTriggersHalHook(t *testing.T) {
	d, h := newRunningDriver(t)
	enableAndWaitReady(t, d, h)

	h.Send = func(attempt int, data []byte) []byte {
		return wire.Pack(uci.MTResponse, uci.GroupID(1), uci.OpcodeID(0), []byte{byte(uci.StatusOk)})
	}
	sink := submit(t, d, uci.SessionInitCmd{SessionID: 7, SessionType: 0})
	res := waitResult(t, sink)
	if res.Err != nil {
		t.Fatalf("session init failed: %v", res.Err)
	}

	sessionStatusInit := wire.Pack(uci.MTNotification, uci.GroupID(1), uci.OpcodeID(0),
		append([]byte{0x01}, append(le32(7), byte(uci.SessionStateInit))...))
	h.Deliver(sessionStatusInit)
	time.Sleep(10 * time.Millisecond)

	if len(h.SessionInitCalls) != 1 || h.SessionInitCalls[0] != 7 {
		t.Fatalf("SessionInitCalls = %v, want [7]", h.SessionInitCalls)
	}
}

func TestHalErrorEventFailsSubsequentCommands(t *testing.T) {
	var mu sync.Mutex
	var notifications []uci.Notification
	notify := func(n uci.Notification) {
		mu.Lock()
		notifications = append(notifications, n)
		mu.Unlock()
	}

	h := fakehal.New()
	d := New(h, testConfig(), log.New("test"), notify)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	t.Cleanup(cancel)

	enableAndWaitReady(t, d, h)

	h.RaiseError()
	time.Sleep(10 * time.Millisecond)

	sink := submit(t, d, uci.DeviceInfoCmd{})
	res := waitResult(t, sink)
	if res.Err == nil {
		t.Fatal("expected an error after HAL Error event, got nil")
	}
	code := errcode.Of(res.Err)
	if code != errcode.WrongState && code != errcode.HalFailed {
		t.Fatalf("errcode.Of(res.Err) = %v, want WrongState or HalFailed", code)
	}

	mu.Lock()
	defer mu.Unlock()
	var sawDeviceError bool
	for _, n := range notifications {
		if ds, ok := n.(uci.DeviceStatusNotification); ok && ds.State == uci.DeviceStateError {
			sawDeviceError = true
		}
	}
	if !sawDeviceError {
		t.Fatalf("notifications = %v, want a synthetic DeviceStatusNotification{State: DeviceStateError}", notifications)
	}
}

func le32(v uint32) []byte {
	buf := make([]byte, 4)
	wire.PutUint32LE(buf, v)
	return buf
}
