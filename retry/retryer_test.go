package retry

import (
	"testing"

	"uwbuci/errcode"
	"uwbuci/uci"
)

func TestBeginAttemptConsumesCredits(t *testing.T) {
	sink := make(chan Result, 1)
	r := New(uci.DeviceInfoCmd{}, []byte{1, 2, 3}, sink, 3)

	for i := 0; i < 3; i++ {
		if !r.BeginAttempt() {
			t.Fatalf("BeginAttempt() attempt %d = false, want true", i)
		}
	}
	if r.BeginAttempt() {
		t.Fatal("BeginAttempt() after exhausting credits = true, want false")
	}
	if got := r.AttemptsLeft(); got != 0 {
		t.Fatalf("AttemptsLeft() = %d, want 0", got)
	}
}

func TestResolveIsOneshot(t *testing.T) {
	sink := make(chan Result, 1)
	r := New(uci.DeviceInfoCmd{}, nil, sink, 1)

	r.Resolve(Result{Response: uci.DeviceInfoRsp{St: uci.StatusOk}})
	r.Resolve(Result{Err: errcode.New(errcode.Timeout, "test", "should be dropped")})

	select {
	case res := <-sink:
		if res.Err != nil {
			t.Fatalf("first resolved result has Err = %v, want nil", res.Err)
		}
	default:
		t.Fatal("sink received nothing")
	}

	select {
	case res := <-sink:
		t.Fatalf("sink received a second result: %+v", res)
	default:
	}

	if !r.Resolved() {
		t.Fatal("Resolved() = false after Resolve")
	}
}

func TestResolveTimeout(t *testing.T) {
	sink := make(chan Result, 1)
	r := New(uci.SessionGetCountCmd{}, nil, sink, 1)
	r.ResolveTimeout()

	res := <-sink
	if errcode.Of(res.Err) != errcode.Timeout {
		t.Fatalf("errcode.Of(res.Err) = %v, want Timeout", errcode.Of(res.Err))
	}
}
