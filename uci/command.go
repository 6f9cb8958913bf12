package uci

import "uwbuci/uci/wire"

// CommandKind enumerates every HAL-bound request variant (spec.md §3), plus
// SessionGetCount (named directly by the seed scenarios in spec.md §8,
// supplementing the illustrative list in §3) and the Enable/Disable
// pseudo-commands that drive HAL open/close (spec.md §4.4.1).
type CommandKind uint8

const (
	CmdEnable CommandKind = iota
	CmdDisable
	CmdDeviceInfo
	CmdDeviceReset
	CmdSessionInit
	CmdSessionDeinit
	CmdSessionGetCount
	CmdRangeStart
	CmdRangeStop
	CmdAppConfigGet
	CmdAppConfigSet
	CmdMulticastListUpdate
	CmdCountryCodeSet
	CmdRawVendor
	CmdPowerStats
)

func (k CommandKind) String() string {
	switch k {
	case CmdEnable:
		return "Enable"
	case CmdDisable:
		return "Disable"
	case CmdDeviceInfo:
		return "DeviceInfo"
	case CmdDeviceReset:
		return "DeviceReset"
	case CmdSessionInit:
		return "SessionInit"
	case CmdSessionDeinit:
		return "SessionDeinit"
	case CmdSessionGetCount:
		return "SessionGetCount"
	case CmdRangeStart:
		return "RangeStart"
	case CmdRangeStop:
		return "RangeStop"
	case CmdAppConfigGet:
		return "AppConfigGet"
	case CmdAppConfigSet:
		return "AppConfigSet"
	case CmdMulticastListUpdate:
		return "MulticastListUpdate"
	case CmdCountryCodeSet:
		return "CountryCodeSet"
	case CmdRawVendor:
		return "RawVendor"
	case CmdPowerStats:
		return "PowerStats"
	default:
		return "Unknown"
	}
}

// Command is any HAL-bound request. A command's wire encoding is computed
// once at submission and resent verbatim on retry (spec.md §4.4.2: "Each
// expiration reissues the same serialized command bytes, not a rebuild of
// the command").
type Command interface {
	Kind() CommandKind
	Header() PacketHeader
	// Encode returns the command's wire bytes. Pure function of the
	// command's fields; the Driver calls this exactly once per submission
	// and caches the result for retries.
	Encode() []byte
}

// Enable has no wire encoding: it drives the HalState transition
// None -> WaitOpen (hal_open + core_initialization), never sent as bytes.
type Enable struct{}

func (Enable) Kind() CommandKind      { return CmdEnable }
func (Enable) Header() PacketHeader   { return PacketHeader{} }
func (Enable) Encode() []byte         { return nil }

// Disable drives Ready/WaitResponse -> WaitClose (hal_close).
type Disable struct{}

func (Disable) Kind() CommandKind    { return CmdDisable }
func (Disable) Header() PacketHeader { return PacketHeader{} }
func (Disable) Encode() []byte       { return nil }

// GID/OID assignments below are placeholders for four UCI groups (core,
// session, ranging, vendor); per spec.md's Non-goals ("packet parsing grammar") the exact
// UCI register values are not load-bearing, only that each variant encodes
// and decodes consistently within this module.
const (
	gidCore       GroupID = 0x00
	gidSession    GroupID = 0x01
	gidRanging    GroupID = 0x02
	gidVendor     GroupID = 0x0B
)

const (
	oidDeviceReset         OpcodeID = 0x00
	oidDeviceInfo          OpcodeID = 0x02
	oidSetConfig           OpcodeID = 0x04
	oidGetConfig           OpcodeID = 0x03
	oidSessionInit         OpcodeID = 0x00
	oidSessionDeinit       OpcodeID = 0x01
	oidSessionGetCount     OpcodeID = 0x04
	oidMulticastListUpdate OpcodeID = 0x07
	oidCountryCodeSet      OpcodeID = 0x08
	oidRangeStart          OpcodeID = 0x00
	oidRangeStop           OpcodeID = 0x01
	oidPowerStats          OpcodeID = 0x09
)

// DeviceInfoCmd requests chip identification.
type DeviceInfoCmd struct{}

func (DeviceInfoCmd) Kind() CommandKind { return CmdDeviceInfo }
func (DeviceInfoCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidCore, OID: oidDeviceInfo}
}
func (c DeviceInfoCmd) Encode() []byte {
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, nil)
}

// DeviceResetCmd requests a chip reset.
type DeviceResetCmd struct {
	ResetType uint8
}

func (DeviceResetCmd) Kind() CommandKind { return CmdDeviceReset }
func (DeviceResetCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidCore, OID: oidDeviceReset}
}
func (c DeviceResetCmd) Encode() []byte {
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, []byte{c.ResetType})
}

// SessionInitCmd allocates a ranging session.
type SessionInitCmd struct {
	SessionID   uint32
	SessionType uint8
}

func (SessionInitCmd) Kind() CommandKind { return CmdSessionInit }
func (SessionInitCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidSession, OID: oidSessionInit}
}
func (c SessionInitCmd) Encode() []byte {
	buf := make([]byte, 5)
	wire.PutUint32LE(buf[0:4], c.SessionID)
	buf[4] = c.SessionType
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, buf)
}

// SessionDeinitCmd tears down a session.
type SessionDeinitCmd struct {
	SessionID uint32
}

func (SessionDeinitCmd) Kind() CommandKind { return CmdSessionDeinit }
func (SessionDeinitCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidSession, OID: oidSessionDeinit}
}
func (c SessionDeinitCmd) Encode() []byte {
	buf := make([]byte, 4)
	wire.PutUint32LE(buf, c.SessionID)
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, buf)
}

// SessionGetCountCmd queries how many sessions are currently allocated.
// Not named in spec.md §3's illustrative command list, but required by the
// seed scenarios in spec.md §8 (supplemented per the process in SPEC_FULL.md).
type SessionGetCountCmd struct{}

func (SessionGetCountCmd) Kind() CommandKind { return CmdSessionGetCount }
func (SessionGetCountCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidSession, OID: oidSessionGetCount}
}
func (c SessionGetCountCmd) Encode() []byte {
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, nil)
}

// RangeStartCmd begins ranging on a session.
type RangeStartCmd struct {
	SessionID uint32
}

func (RangeStartCmd) Kind() CommandKind { return CmdRangeStart }
func (RangeStartCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidRanging, OID: oidRangeStart}
}
func (c RangeStartCmd) Encode() []byte {
	buf := make([]byte, 4)
	wire.PutUint32LE(buf, c.SessionID)
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, buf)
}

// RangeStopCmd ends ranging on a session.
type RangeStopCmd struct {
	SessionID uint32
}

func (RangeStopCmd) Kind() CommandKind { return CmdRangeStop }
func (RangeStopCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidRanging, OID: oidRangeStop}
}
func (c RangeStopCmd) Encode() []byte {
	buf := make([]byte, 4)
	wire.PutUint32LE(buf, c.SessionID)
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, buf)
}

// AppConfigGetCmd reads back a set of app-config parameter TLVs by tag.
type AppConfigGetCmd struct {
	SessionID uint32
	ParamTags []uint8
}

func (AppConfigGetCmd) Kind() CommandKind { return CmdAppConfigGet }
func (AppConfigGetCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidSession, OID: oidGetConfig}
}
func (c AppConfigGetCmd) Encode() []byte {
	buf := make([]byte, 4+1+len(c.ParamTags))
	wire.PutUint32LE(buf[0:4], c.SessionID)
	buf[4] = uint8(len(c.ParamTags))
	copy(buf[5:], c.ParamTags)
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, buf)
}

// AppConfigSetCmd writes a TLV-encoded set of app-config parameters,
// typically produced by configparams.Params.GenerateTLVs.
type AppConfigSetCmd struct {
	SessionID uint32
	TLVs      []byte
}

func (AppConfigSetCmd) Kind() CommandKind { return CmdAppConfigSet }
func (AppConfigSetCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidSession, OID: oidSetConfig}
}
func (c AppConfigSetCmd) Encode() []byte {
	buf := make([]byte, 4+len(c.TLVs))
	wire.PutUint32LE(buf[0:4], c.SessionID)
	copy(buf[4:], c.TLVs)
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, buf)
}

// ControleeEntry is one controlee's short address and sub-session id, the
// two fields FiRa's multicast-list-update command carries per controlee.
type ControleeEntry struct {
	ShortAddress uint16
	SubSessionID uint32
}

// MulticastListUpdateCmd adds/removes controlees from a session's multicast
// list (spec.md §3). Controlees must number 1..=8 (spec.md §7's canonical
// InvalidArgs example); Dispatcher validates this synchronously before the
// command ever reaches the driver.
type MulticastListUpdateCmd struct {
	SessionID  uint32
	Action     uint8
	Controlees []ControleeEntry
}

func (MulticastListUpdateCmd) Kind() CommandKind { return CmdMulticastListUpdate }
func (MulticastListUpdateCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidSession, OID: oidMulticastListUpdate}
}
func (c MulticastListUpdateCmd) Encode() []byte {
	buf := make([]byte, 4+1+1+6*len(c.Controlees))
	wire.PutUint32LE(buf[0:4], c.SessionID)
	buf[4] = c.Action
	buf[5] = uint8(len(c.Controlees))
	off := 6
	for _, ce := range c.Controlees {
		wire.PutUint16LE(buf[off:off+2], ce.ShortAddress)
		wire.PutUint32LE(buf[off+2:off+6], ce.SubSessionID)
		off += 6
	}
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, buf)
}

// CountryCodeSetCmd sets the two-letter regulatory country code.
type CountryCodeSetCmd struct {
	Code [2]byte
}

func (CountryCodeSetCmd) Kind() CommandKind { return CmdCountryCodeSet }
func (CountryCodeSetCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidCore, OID: oidCountryCodeSet}
}
func (c CountryCodeSetCmd) Encode() []byte {
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, c.Code[:])
}

// RawVendorCmd is an opaque vendor command addressed directly by gid/oid.
type RawVendorCmd struct {
	GID     GroupID
	OID     OpcodeID
	Payload []byte
}

func (RawVendorCmd) Kind() CommandKind { return CmdRawVendor }
func (c RawVendorCmd) Header() PacketHeader {
	return PacketHeader{Type: MTVendor, GID: c.GID, OID: c.OID}
}
func (c RawVendorCmd) Encode() []byte {
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, c.Payload)
}

// PowerStatsCmd requests chip power/idle statistics.
type PowerStatsCmd struct{}

func (PowerStatsCmd) Kind() CommandKind { return CmdPowerStats }
func (PowerStatsCmd) Header() PacketHeader {
	return PacketHeader{Type: MTCommand, GID: gidCore, OID: oidPowerStats}
}
func (c PowerStatsCmd) Encode() []byte {
	return wire.Pack(c.Header().Type, c.Header().GID, c.Header().OID, nil)
}
