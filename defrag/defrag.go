// Package defrag implements the PacketDefragmenter (spec.md §4.1): pure
// reassembly of fragmented UCI wire packets, keyed by
// (message-type, group-id, opcode-id). Out-of-order fragments are a
// protocol violation and discard the buffer.
package defrag

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"uwbuci/uci"
	"uwbuci/uci/wire"
)

// maxPending bounds the number of distinct partial-packet keys tracked at
// once. spec.md §3 states the defragmenter "holds at most one partial
// packet per key" but does not bound the number of distinct keys; a
// malicious or buggy HAL emitting fragments for many keys without ever
// completing them could otherwise grow this module's memory without
// bound, so pending buffers are kept in a bounded LRU (hashicorp/golang-lru,
// carried from the estuary-flow example's dependency list — see DESIGN.md)
// rather than a bare map.
const maxPending = 64

type key struct {
	mt  uci.MessageType
	gid uci.GroupID
	oid uci.OpcodeID
}

// pendingFrag is the reassembly state buffered for one key: the bytes seen
// so far, and the fragment index the next continuation must carry.
type pendingFrag struct {
	buf       []byte
	nextIndex uint8
}

// Defragmenter reassembles fragments into whole UCI messages. It holds no
// goroutines and is not safe for concurrent use: the Driver is its only
// caller, from its single event-loop goroutine.
type Defragmenter struct {
	pending *lru.Cache[key, pendingFrag]
}

// ErrOutOfOrder is returned when a continuation fragment (fragment index >
// 0) arrives for a key with no pending buffer, or whose fragment index does
// not immediately follow the buffered sequence's — a dropped or reordered
// fragment, per spec.md §4.1. Any partial state for that key is discarded.
var ErrOutOfOrder = uciParseError()

func uciParseError() error { return errOutOfOrder{} }

type errOutOfOrder struct{}

func (errOutOfOrder) Error() string { return "defrag: out-of-order fragment" }

func New() *Defragmenter {
	c, _ := lru.New[key, pendingFrag](maxPending)
	return &Defragmenter{pending: c}
}

// Feed processes one fragment as received from the HAL. If the fragment
// completes a message (its more-fragments bit is clear), Feed returns the
// concatenated payload with a synthesized header derived from the final
// fragment, and ok=true. Otherwise it buffers the fragment and returns
// ok=false. A fragment index of 0 always starts a fresh message (standalone
// packet, or first fragment of a sequence); any nonzero index is a
// continuation and must match the buffered sequence's next expected index,
// or Feed discards the partial state and returns ErrOutOfOrder.
func (d *Defragmenter) Feed(raw []byte) (complete []byte, ok bool, err error) {
	if len(raw) < wire.HeaderSize {
		return nil, false, ErrOutOfOrder
	}
	hdr := raw[0]
	k := key{
		mt:  uci.MessageType(hdr >> 5),
		gid: uci.GroupID(raw[1]),
		oid: uci.OpcodeID(raw[2]),
	}
	more := wire.MoreFragments(hdr)
	idx := wire.FragmentIndex(raw)
	body := raw[wire.HeaderSize:]

	if idx == 0 {
		if more {
			d.pending.Add(k, pendingFrag{buf: append([]byte(nil), body...), nextIndex: 1})
			return nil, false, nil
		}
		d.pending.Remove(k)
		return withClearedMoreBit(raw), true, nil
	}

	pf, have := d.pending.Get(k)
	if !have || pf.nextIndex != idx {
		d.pending.Remove(k)
		return nil, false, ErrOutOfOrder
	}

	full := append(append([]byte(nil), pf.buf...), body...)
	if more {
		d.pending.Add(k, pendingFrag{buf: full, nextIndex: idx + 1})
		return nil, false, nil
	}

	d.pending.Remove(k)
	out := withClearedMoreBit(raw)[:wire.HeaderSize:wire.HeaderSize]
	wire.PutUint16LE(out[3:5], uint16(len(full)))
	out[5] = 0
	return append(out, full...), true, nil
}

// Reset discards all partial-packet state, used when the HAL is torn down
// (spec.md §3: PendingPacket "destroyed ... when the HAL is torn down").
func (d *Defragmenter) Reset() {
	d.pending.Purge()
}

func withClearedMoreBit(raw []byte) []byte {
	out := append([]byte(nil), raw...)
	out[0] = wire.WithMoreFragments(out[0], false)
	return out
}
