// Package wire holds the little-endian byte-packing helpers used to encode
// and decode UCI packets (spec.md §6: "Multi-byte integers in payload are
// little-endian"). It intentionally stays a thin buffer-writer, in the
// style of the teacher repo's x/conv package, rather than a general codec:
// the full UCI parsing grammar is an explicit Non-goal of spec.md.
package wire

// HeaderSize is the size in bytes of the synthesized packet header this
// module prepends to every encoded command/response/notification: one byte
// carrying the message type in its top three bits and the more-fragments
// flag in bit 4 (the low four bits are zero), then gid and oid each as a
// full byte, a 2-byte little-endian payload length, then a
// one-byte fragment index (0 for the first fragment of a message or for a
// standalone packet, incrementing by one per subsequent continuation).
const HeaderSize = 6

// Pack synthesizes a single (unfragmented) wire packet: a header byte
// carrying the message type with the more-fragments bit clear, a group-id
// byte, an opcode-id byte, a little-endian payload length, a zero fragment
// index, then the payload itself. mt/gid/oid are generic over any
// byte-sized named type (uci.MessageType/GroupID/OpcodeID) so this package
// need not import uci, which imports wire.
func Pack[T ~uint8, G ~uint8, O ~uint8](mt T, gid G, oid O, payload []byte) []byte {
	out := make([]byte, HeaderSize+len(payload))
	out[0] = byte(mt) << 5 // more-fragments bit (0x10) left clear
	out[1] = byte(gid)
	out[2] = byte(oid)
	PutUint16LE(out[3:5], uint16(len(payload)))
	out[5] = 0
	copy(out[HeaderSize:], payload)
	return out
}

// PutUint16LE writes v into buf[0:2] little-endian. buf must be at least 2
// bytes.
func PutUint16LE(buf []byte, v uint16) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}

// PutUint32LE writes v into buf[0:4] little-endian. buf must be at least 4
// bytes.
func PutUint32LE(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

// Uint16LE reads a little-endian uint16 from buf[0:2].
func Uint16LE(buf []byte) uint16 {
	return uint16(buf[0]) | uint16(buf[1])<<8
}

// Uint32LE reads a little-endian uint32 from buf[0:4].
func Uint32LE(buf []byte) uint32 {
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}

// MoreFragments reports whether the header byte's more-fragments bit (bit
// 4) is set (spec.md §4.1).
func MoreFragments(headerByte byte) bool {
	return headerByte&0x10 != 0
}

// WithMoreFragments returns headerByte with the more-fragments bit set or
// cleared.
func WithMoreFragments(headerByte byte, more bool) byte {
	if more {
		return headerByte | 0x10
	}
	return headerByte &^ 0x10
}

// FragmentIndex reads a packet's fragment-index byte (header byte 5): 0 for
// a standalone packet or the first fragment of a sequence, incrementing by
// one per subsequent continuation.
func FragmentIndex(raw []byte) uint8 {
	return raw[5]
}

// WithFragmentIndex returns a copy of raw with its fragment-index byte set
// to idx.
func WithFragmentIndex(raw []byte, idx uint8) []byte {
	out := append([]byte(nil), raw...)
	out[5] = idx
	return out
}
