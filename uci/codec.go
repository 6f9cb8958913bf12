package uci

import (
	"errors"

	"uwbuci/uci/wire"
)

// ErrParse is returned when bytes cannot be decoded into a well-formed UCI
// message. The Driver logs and drops ErrParse on the response/notification
// path; it is never surfaced to a caller directly (spec.md §7).
var ErrParse = errors.New("uci: parse error")

// Message is the sum type of the Response and Notification variants.
// DecodeResponse and DecodeNotification each return one side of it; which
// one applies is decided by the caller from the wire message-type field.
type Message interface{ isMessage() }

func (DeviceInfoRsp) isMessage()             {}
func (DeviceResetRsp) isMessage()            {}
func (SessionInitRsp) isMessage()            {}
func (SessionDeinitRsp) isMessage()          {}
func (SessionGetCountRsp) isMessage()        {}
func (RangeStartRsp) isMessage()             {}
func (RangeStopRsp) isMessage()              {}
func (AppConfigGetRsp) isMessage()           {}
func (AppConfigSetRsp) isMessage()           {}
func (MulticastListUpdateRsp) isMessage()    {}
func (CountryCodeSetRsp) isMessage()         {}
func (RawVendorRsp) isMessage()              {}
func (PowerStatsRsp) isMessage()             {}
func (DeviceStatusNotification) isMessage()      {}
func (GenericErrorNotification) isMessage()      {}
func (SessionStatusNotification) isMessage()     {}
func (ShortRangeDataNotification) isMessage()    {}
func (ExtendedRangeDataNotification) isMessage() {}
func (MulticastListUpdateNotification) isMessage() {}
func (VendorNotification) isMessage()        {}

// decodeHeader parses the 6-byte header synthesized by wire.Pack and
// returns the header plus the remaining payload.
func decodeHeader(raw []byte) (PacketHeader, []byte, error) {
	if len(raw) < wire.HeaderSize {
		return PacketHeader{}, nil, ErrParse
	}
	mt := MessageType(raw[0] >> 5)
	gid := GroupID(raw[1])
	oid := OpcodeID(raw[2])
	n := wire.Uint16LE(raw[3:5])
	if len(raw)-wire.HeaderSize < int(n) {
		return PacketHeader{}, nil, ErrParse
	}
	return PacketHeader{Type: mt, GID: gid, OID: oid}, raw[wire.HeaderSize : wire.HeaderSize+int(n)], nil
}

// PeekHeader exposes decodeHeader's framing to callers (e.g. the Driver)
// that need to know a packet's message type before deciding whether to
// decode it as a Response or a Notification, without fully decoding it.
func PeekHeader(raw []byte) (PacketHeader, error) {
	hdr, _, err := decodeHeader(raw)
	return hdr, err
}

// DecodeNotification parses raw bytes into a Notification. Use DecodeResponse instead
// when a command is in flight and its kind is known, per spec.md §4.4.4's
// pairing-by-position contract: the HAL never tags responses with request
// ids, so a Response can only be decoded against an expected kind, while a
// Notification carries enough of its own shape to decode unconditionally.
func DecodeNotification(raw []byte) (Notification, error) {
	hdr, payload, err := decodeHeader(raw)
	if err != nil {
		return nil, err
	}
	if hdr.GID == gidCore && len(payload) >= 1 && payload[0] == notifDeviceStatus {
		if len(payload) < 2 {
			return nil, ErrParse
		}
		return DeviceStatusNotification{State: DeviceState(payload[1]), hdr: hdr}, nil
	}
	if hdr.GID == gidCore && len(payload) >= 1 && payload[0] == notifGenericError {
		if len(payload) < 2 {
			return nil, ErrParse
		}
		return GenericErrorNotification{St: Status(payload[1]), hdr: hdr}, nil
	}
	if hdr.GID == gidSession && len(payload) >= 1 && payload[0] == notifSessionStatus {
		if len(payload) < 6 {
			return nil, ErrParse
		}
		return SessionStatusNotification{
			SessionID: wire.Uint32LE(payload[1:5]),
			State:     SessionState(payload[5]),
			hdr:       hdr,
		}, nil
	}
	if hdr.GID == gidSession && len(payload) >= 1 && payload[0] == notifMulticastListUpdate {
		return MulticastListUpdateNotification{
			SessionID:  wire.Uint32LE(payload[1:5]),
			Controlees: append([]byte(nil), payload[5:]...),
			hdr:        hdr,
		}, nil
	}
	if hdr.GID == gidRanging && len(payload) >= 1 && payload[0] == notifShortRangeData {
		return ShortRangeDataNotification{
			SessionID: wire.Uint32LE(payload[1:5]),
			Data:      append([]byte(nil), payload[5:]...),
			hdr:       hdr,
		}, nil
	}
	if hdr.GID == gidRanging && len(payload) >= 1 && payload[0] == notifExtendedRangeData {
		return ExtendedRangeDataNotification{
			SessionID: wire.Uint32LE(payload[1:5]),
			Data:      append([]byte(nil), payload[5:]...),
			hdr:       hdr,
		}, nil
	}
	if hdr.Type == MTVendor {
		return VendorNotification{GID: hdr.GID, OID: hdr.OID, Payload: append([]byte(nil), payload...), hdr: hdr}, nil
	}
	return nil, ErrParse
}
