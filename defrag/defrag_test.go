package defrag

import (
	"testing"

	"uwbuci/uci"
	"uwbuci/uci/wire"
)

func packFragment(t uci.MessageType, gid uci.GroupID, oid uci.OpcodeID, idx uint8, more bool, payload []byte) []byte {
	raw := wire.Pack(t, gid, oid, payload)
	raw[0] = wire.WithMoreFragments(raw[0], more)
	raw = wire.WithFragmentIndex(raw, idx)
	return raw
}

func TestFeedStandalonePacketPassesThrough(t *testing.T) {
	d := New()
	raw := packFragment(uci.MTResponse, uci.GroupID(0), uci.OpcodeID(2), 0, false, []byte{0x00, 0xAA})

	complete, ok, err := d.Feed(raw)
	if err != nil || !ok {
		t.Fatalf("Feed() = (ok=%v, err=%v), want ok=true, err=nil", ok, err)
	}
	if len(complete) != len(raw) {
		t.Fatalf("complete len = %d, want %d", len(complete), len(raw))
	}
}

func TestFeedReassemblesTwoFragments(t *testing.T) {
	d := New()
	first := packFragment(uci.MTResponse, uci.GroupID(1), uci.OpcodeID(0), 0, true, []byte{0x01, 0x02})
	second := packFragment(uci.MTResponse, uci.GroupID(1), uci.OpcodeID(0), 1, false, []byte{0x03, 0x04})

	_, ok, err := d.Feed(first)
	if err != nil || ok {
		t.Fatalf("first fragment: ok=%v err=%v, want ok=false err=nil", ok, err)
	}

	complete, ok, err := d.Feed(second)
	if err != nil || !ok {
		t.Fatalf("second fragment: ok=%v err=%v, want ok=true err=nil", ok, err)
	}

	hdr, payload, decodeErr := peekBody(complete)
	if decodeErr != nil {
		t.Fatalf("peekBody: %v", decodeErr)
	}
	if hdr.GID != uci.GroupID(1) {
		t.Fatalf("reassembled GID = %v, want 1", hdr.GID)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04}
	if len(payload) != len(want) {
		t.Fatalf("reassembled payload = %v, want %v", payload, want)
	}
	for i := range want {
		if payload[i] != want[i] {
			t.Fatalf("reassembled payload = %v, want %v", payload, want)
		}
	}
}

func TestFeedClearsMoreFragmentsBitOnFinal(t *testing.T) {
	d := New()
	first := packFragment(uci.MTResponse, uci.GroupID(2), uci.OpcodeID(1), 0, true, []byte{0xFF})
	second := packFragment(uci.MTResponse, uci.GroupID(2), uci.OpcodeID(1), 1, false, []byte{0xEE})

	if _, _, err := d.Feed(first); err != nil {
		t.Fatalf("first fragment: %v", err)
	}
	complete, ok, err := d.Feed(second)
	if err != nil || !ok {
		t.Fatalf("Feed() = (ok=%v, err=%v)", ok, err)
	}
	if wire.MoreFragments(complete[0]) {
		t.Fatal("reassembled header still has the more-fragments bit set")
	}
}

func TestFeedDistinctKeysDoNotInterfere(t *testing.T) {
	d := New()
	a1 := packFragment(uci.MTResponse, uci.GroupID(0), uci.OpcodeID(0), 0, true, []byte{0x01})
	b1 := packFragment(uci.MTResponse, uci.GroupID(1), uci.OpcodeID(0), 0, true, []byte{0x02})

	if _, _, err := d.Feed(a1); err != nil {
		t.Fatalf("a1: %v", err)
	}
	if _, _, err := d.Feed(b1); err != nil {
		t.Fatalf("b1: %v", err)
	}

	a2 := packFragment(uci.MTResponse, uci.GroupID(0), uci.OpcodeID(0), 1, false, []byte{0x03})
	complete, ok, err := d.Feed(a2)
	if err != nil || !ok {
		t.Fatalf("a2: ok=%v err=%v", ok, err)
	}
	_, payload, _ := peekBody(complete)
	if len(payload) != 2 || payload[0] != 0x01 || payload[1] != 0x03 {
		t.Fatalf("key a payload = %v, want [1 3]", payload)
	}
}

func TestReset(t *testing.T) {
	d := New()
	first := packFragment(uci.MTResponse, uci.GroupID(0), uci.OpcodeID(0), 0, true, []byte{0x01})
	if _, _, err := d.Feed(first); err != nil {
		t.Fatalf("first: %v", err)
	}
	d.Reset()

	// After reset, a fresh index-0 packet for the same key is unambiguously
	// a new standalone message: no buffer is pending, and index 0 never
	// needs one.
	final := packFragment(uci.MTResponse, uci.GroupID(0), uci.OpcodeID(0), 0, false, []byte{0x02})
	complete, ok, err := d.Feed(final)
	if err != nil || !ok {
		t.Fatalf("Feed() after Reset = (ok=%v, err=%v)", ok, err)
	}
	_, payload, _ := peekBody(complete)
	if len(payload) != 1 || payload[0] != 0x02 {
		t.Fatalf("payload after reset = %v, want [2]", payload)
	}
}

func TestFeedRejectsContinuationWithNoPendingBuffer(t *testing.T) {
	d := New()
	// Fragment index 1 with no prior index-0 fragment for this key: a
	// dropped or reordered first fragment.
	cont := packFragment(uci.MTResponse, uci.GroupID(3), uci.OpcodeID(0), 1, false, []byte{0x09})

	_, ok, err := d.Feed(cont)
	if ok || err != ErrOutOfOrder {
		t.Fatalf("Feed() = (ok=%v, err=%v), want ok=false, err=ErrOutOfOrder", ok, err)
	}
}

func TestFeedRejectsContinuationWithWrongIndex(t *testing.T) {
	d := New()
	first := packFragment(uci.MTResponse, uci.GroupID(4), uci.OpcodeID(0), 0, true, []byte{0x01})
	if _, _, err := d.Feed(first); err != nil {
		t.Fatalf("first: %v", err)
	}

	// A skipped middle fragment: the buffered sequence expects index 1,
	// this one claims index 2.
	skipped := packFragment(uci.MTResponse, uci.GroupID(4), uci.OpcodeID(0), 2, false, []byte{0x02})
	_, ok, err := d.Feed(skipped)
	if ok || err != ErrOutOfOrder {
		t.Fatalf("Feed() = (ok=%v, err=%v), want ok=false, err=ErrOutOfOrder", ok, err)
	}

	// The partial state for the key was discarded: a correct resend
	// starting over from index 0 succeeds.
	restart := packFragment(uci.MTResponse, uci.GroupID(4), uci.OpcodeID(0), 0, false, []byte{0x03})
	complete, ok, err := d.Feed(restart)
	if err != nil || !ok {
		t.Fatalf("Feed() restart = (ok=%v, err=%v)", ok, err)
	}
	_, payload, _ := peekBody(complete)
	if len(payload) != 1 || payload[0] != 0x03 {
		t.Fatalf("payload after restart = %v, want [3]", payload)
	}
}

func peekBody(raw []byte) (uci.PacketHeader, []byte, error) {
	hdr, err := uci.PeekHeader(raw)
	if err != nil {
		return uci.PacketHeader{}, nil, err
	}
	n := wire.Uint16LE(raw[3:5])
	return hdr, raw[wire.HeaderSize : wire.HeaderSize+int(n)], nil
}
