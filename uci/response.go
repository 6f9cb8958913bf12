package uci

// Response is any message paired one-to-one with a Command variant (spec.md
// §3), plus OpenHal/CloseHal which never appear on the wire and are used
// only internally by the Driver to resolve Enable/Disable (spec.md §3, §4.4.1).
type Response interface {
	Kind() CommandKind
	Header() PacketHeader
	Status() Status
}

// DecodeResponse parses a wire packet previously reassembled by the defragmenter
// into a Response matching the given expected command kind, or returns
// ErrParse if the bytes are too short to be a well-formed packet. DecodeResponse
// does not attempt to infer the kind from the bytes: the Driver already
// knows which command is in flight (spec.md §4.4.4 — the HAL never tags
// responses with request ids, so pairing is purely positional) and passes
// that kind in; a mismatch between the decoded header and the in-flight
// command's header is what produces ResponseMismatched at the Driver layer,
// not here.
func DecodeResponse(expect CommandKind, raw []byte) (Response, error) {
	hdr, payload, err := decodeHeader(raw)
	if err != nil {
		return nil, err
	}
	if len(payload) < 1 {
		return nil, ErrParse
	}
	status := Status(payload[0])
	body := payload[1:]

	switch expect {
	case CmdDeviceInfo:
		if len(body) < 8 {
			return nil, ErrParse
		}
		return DeviceInfoRsp{
			St:             status,
			UciVersion:     uint16(body[0]) | uint16(body[1])<<8,
			MacVersion:     uint16(body[2]) | uint16(body[3])<<8,
			PhyVersion:     uint16(body[4]) | uint16(body[5])<<8,
			UciTestVersion: uint16(body[6]) | uint16(body[7])<<8,
			Vendor:         append([]byte(nil), body[8:]...),
			hdr:            hdr,
		}, nil
	case CmdDeviceReset:
		return DeviceResetRsp{St: status, hdr: hdr}, nil
	case CmdSessionInit:
		return SessionInitRsp{St: status, hdr: hdr}, nil
	case CmdSessionDeinit:
		return SessionDeinitRsp{St: status, hdr: hdr}, nil
	case CmdSessionGetCount:
		var count uint8
		if len(body) >= 1 {
			count = body[0]
		}
		return SessionGetCountRsp{St: status, Count: count, hdr: hdr}, nil
	case CmdRangeStart:
		return RangeStartRsp{St: status, hdr: hdr}, nil
	case CmdRangeStop:
		return RangeStopRsp{St: status, hdr: hdr}, nil
	case CmdAppConfigGet:
		return AppConfigGetRsp{St: status, TLVs: append([]byte(nil), body...), hdr: hdr}, nil
	case CmdAppConfigSet:
		return AppConfigSetRsp{St: status, InvalidParams: append([]byte(nil), body...), hdr: hdr}, nil
	case CmdMulticastListUpdate:
		return MulticastListUpdateRsp{St: status, hdr: hdr}, nil
	case CmdCountryCodeSet:
		return CountryCodeSetRsp{St: status, hdr: hdr}, nil
	case CmdRawVendor:
		return RawVendorRsp{St: status, Payload: append([]byte(nil), body...), hdr: hdr}, nil
	case CmdPowerStats:
		return PowerStatsRsp{St: status, Data: append([]byte(nil), body...), hdr: hdr}, nil
	default:
		return nil, ErrParse
	}
}

type DeviceInfoRsp struct {
	St                                                    Status
	UciVersion, MacVersion, PhyVersion, UciTestVersion    uint16
	Vendor                                                []byte
	hdr                                                   PacketHeader
}

func (r DeviceInfoRsp) Kind() CommandKind    { return CmdDeviceInfo }
func (r DeviceInfoRsp) Header() PacketHeader { return r.hdr }
func (r DeviceInfoRsp) Status() Status       { return r.St }

type DeviceResetRsp struct {
	St  Status
	hdr PacketHeader
}

func (r DeviceResetRsp) Kind() CommandKind    { return CmdDeviceReset }
func (r DeviceResetRsp) Header() PacketHeader { return r.hdr }
func (r DeviceResetRsp) Status() Status       { return r.St }

type SessionInitRsp struct {
	St  Status
	hdr PacketHeader
}

func (r SessionInitRsp) Kind() CommandKind    { return CmdSessionInit }
func (r SessionInitRsp) Header() PacketHeader { return r.hdr }
func (r SessionInitRsp) Status() Status       { return r.St }

type SessionDeinitRsp struct {
	St  Status
	hdr PacketHeader
}

func (r SessionDeinitRsp) Kind() CommandKind    { return CmdSessionDeinit }
func (r SessionDeinitRsp) Header() PacketHeader { return r.hdr }
func (r SessionDeinitRsp) Status() Status       { return r.St }

// SessionGetCountRsp is the response exercised by the seed scenarios in
// spec.md §8 (transport transient loss, chip-requested retry, exhaustion).
type SessionGetCountRsp struct {
	St    Status
	Count uint8
	hdr   PacketHeader
}

func (r SessionGetCountRsp) Kind() CommandKind    { return CmdSessionGetCount }
func (r SessionGetCountRsp) Header() PacketHeader { return r.hdr }
func (r SessionGetCountRsp) Status() Status       { return r.St }

type RangeStartRsp struct {
	St  Status
	hdr PacketHeader
}

func (r RangeStartRsp) Kind() CommandKind    { return CmdRangeStart }
func (r RangeStartRsp) Header() PacketHeader { return r.hdr }
func (r RangeStartRsp) Status() Status       { return r.St }

type RangeStopRsp struct {
	St  Status
	hdr PacketHeader
}

func (r RangeStopRsp) Kind() CommandKind    { return CmdRangeStop }
func (r RangeStopRsp) Header() PacketHeader { return r.hdr }
func (r RangeStopRsp) Status() Status       { return r.St }

type AppConfigGetRsp struct {
	St   Status
	TLVs []byte
	hdr  PacketHeader
}

func (r AppConfigGetRsp) Kind() CommandKind    { return CmdAppConfigGet }
func (r AppConfigGetRsp) Header() PacketHeader { return r.hdr }
func (r AppConfigGetRsp) Status() Status       { return r.St }

type AppConfigSetRsp struct {
	St            Status
	InvalidParams []byte
	hdr           PacketHeader
}

func (r AppConfigSetRsp) Kind() CommandKind    { return CmdAppConfigSet }
func (r AppConfigSetRsp) Header() PacketHeader { return r.hdr }
func (r AppConfigSetRsp) Status() Status       { return r.St }

type MulticastListUpdateRsp struct {
	St  Status
	hdr PacketHeader
}

func (r MulticastListUpdateRsp) Kind() CommandKind    { return CmdMulticastListUpdate }
func (r MulticastListUpdateRsp) Header() PacketHeader { return r.hdr }
func (r MulticastListUpdateRsp) Status() Status       { return r.St }

type CountryCodeSetRsp struct {
	St  Status
	hdr PacketHeader
}

func (r CountryCodeSetRsp) Kind() CommandKind    { return CmdCountryCodeSet }
func (r CountryCodeSetRsp) Header() PacketHeader { return r.hdr }
func (r CountryCodeSetRsp) Status() Status       { return r.St }

type RawVendorRsp struct {
	St      Status
	Payload []byte
	hdr     PacketHeader
}

func (r RawVendorRsp) Kind() CommandKind    { return CmdRawVendor }
func (r RawVendorRsp) Header() PacketHeader { return r.hdr }
func (r RawVendorRsp) Status() Status       { return r.St }

type PowerStatsRsp struct {
	St   Status
	Data []byte
	hdr  PacketHeader
}

func (r PowerStatsRsp) Kind() CommandKind    { return CmdPowerStats }
func (r PowerStatsRsp) Header() PacketHeader { return r.hdr }
func (r PowerStatsRsp) Status() Status       { return r.St }

// OpenHalRsp and CloseHalRsp are the pseudo-responses spec.md §3 calls out:
// never serialized, used only to resolve the sink installed for an
// Enable/Disable submission once the HalState machine completes its
// transition (spec.md §4.4.1).
type OpenHalRsp struct{ St Status }

func (r OpenHalRsp) Kind() CommandKind    { return CmdEnable }
func (r OpenHalRsp) Header() PacketHeader { return PacketHeader{} }
func (r OpenHalRsp) Status() Status       { return r.St }

type CloseHalRsp struct{ St Status }

func (r CloseHalRsp) Kind() CommandKind    { return CmdDisable }
func (r CloseHalRsp) Header() PacketHeader { return PacketHeader{} }
func (r CloseHalRsp) Status() Status       { return r.St }
