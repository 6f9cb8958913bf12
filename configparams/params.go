// Package configparams builds the SET_APP_CONFIG TLV payload FiRa session
// parameters encode to (spec.md §4.5). Each parameter is a typed setter
// validating FiRa's constraints before the value is stored; GenerateTLVs
// renders the accumulated set deterministically, and GenerateUpdatedTLVs
// diffs against a previous snapshot so only changed parameters are resent,
// matching AppConfigSetCmd's incremental-update use in spec.md §3.
//
// Grounded on the teacher repo's services/config/config.go fixture-loading
// style for the defaults loader (defaults.go), generalized from publishing
// bus retained messages to building a TLV byte stream.
package configparams

import (
	"sort"

	"uwbuci/errcode"
	"uwbuci/uci/wire"
)

// Tag identifies one FiRa app-config parameter. Values are an internal
// convention of this module (spec.md's Non-goals exclude the packet
// parsing grammar), not a claim about the real UCI/FiRa register layout.
type Tag uint8

const (
	TagDeviceType Tag = iota + 1
	TagRangingRoundUsage
	TagMultiNodeMode
	TagChannelNumber
	TagNoOfControlees
	TagDeviceMacAddress
	TagDestinationMacAddresses
	TagSlotDuration
	TagRangingDuration
	TagStsIndex
	TagMacFcsType
	TagRangingRoundControl
	TagAoaResultReq
	TagRangeDataNtfConfig
	TagRangeDataNtfProximityNear
	TagRangeDataNtfProximityFar
	TagDeviceRole
	TagRframeConfig
	TagRssiReporting
	TagPrfMode
	TagScheduledMode
	TagKeyRotation
	TagKeyRotationRate
	TagSessionPriority
	TagMacAddressMode
	TagVendorId
	TagStaticStsIv
	TagNumberOfStsSegments
	TagMaxRrRetry
	TagUwbInitiationTime
	TagHoppingMode
	TagBlockStrideLength
	TagResultReportConfig
	TagSubSessionId
	TagBprfPhrDataRate
	TagMaxNumberOfMeasurements
	TagStsLength
	TagPreambleCodeIndex
	TagSfdId
	TagPreambleDuration
	TagNumberOfRangeMeasurements
	TagNumberOfAoaAzimuthMeasurements
	TagNumberOfAoaElevationMeasurements
)

// PrfMode selects the pulse repetition frequency mode (spec.md §4.5).
type PrfMode uint8

const (
	PrfModeBPRF PrfMode = iota
	PrfModeHPRF
	PrfModeHPRFInterleaved
)

// RframeConfig selects the ranging frame SP config. SP2 is reserved in
// FiRa and is deliberately not a named constant here.
type RframeConfig uint8

const (
	RframeConfigSP0 RframeConfig = 0
	RframeConfigSP1 RframeConfig = 1
	RframeConfigSP3 RframeConfig = 3
)

// AoaResultRequest selects what angle-of-arrival data, if any, responses
// carry.
type AoaResultRequest uint8

const (
	AoaResultReqDisabled        AoaResultRequest = 0x00
	AoaResultReqEnabled         AoaResultRequest = 0x01
	AoaResultReqAzimuthOnly     AoaResultRequest = 0x02
	AoaResultReqElevationOnly   AoaResultRequest = 0x03
	AoaResultReqInterleaved     AoaResultRequest = 0xFF
)

// MacAddressMode selects short (2-byte) or extended (8-byte) MAC addressing.
type MacAddressMode uint8

const (
	MacAddressModeShort    MacAddressMode = 0x00
	MacAddressModeExtended MacAddressMode = 0x02
)

func (m MacAddressMode) addrLen() int {
	if m == MacAddressModeExtended {
		return 8
	}
	return 2
}

// PreambleDuration selects the preamble length in symbols.
type PreambleDuration uint8

const (
	PreambleDuration32Symbols PreambleDuration = 0
	PreambleDuration64Symbols PreambleDuration = 1
)

const maxControlees = 8

// Params accumulates a FiRa app-config parameter set for one session.
// Not safe for concurrent use.
type Params struct {
	values  map[Tag][]byte
	macMode MacAddressMode
	rrc     rangingRoundControl
	ratios  measurementRatios
}

type rangingRoundControl struct {
	hopping bool
	rrrm    bool
	set     bool
}

// measurementRatios holds the AoA "ratio fields" (spec.md §4.5): how many
// range/azimuth/elevation measurements feed into a reported result. All
// default to 0 (disabled); SetAoaResultRequest cross-validates against
// whichever of these have already been set.
type measurementRatios struct {
	rangeMeasurements        uint8
	aoaAzimuthMeasurements   uint8
	aoaElevationMeasurements uint8
}

func (m measurementRatios) anySet() bool {
	return m.rangeMeasurements != 0 || m.aoaAzimuthMeasurements != 0 || m.aoaElevationMeasurements != 0
}

// New returns an empty Params with short MAC addressing as the default
// (FiRa's default MAC_ADDRESS_MODE).
func New() *Params {
	return &Params{values: make(map[Tag][]byte), macMode: MacAddressModeShort}
}

// prfMode returns the PRF mode set so far via SetPrfMode, defaulting to
// BPRF (FiRa's own default) if not yet set.
func (p *Params) prfMode() PrfMode {
	if v, ok := p.values[TagPrfMode]; ok {
		return PrfMode(v[0])
	}
	return PrfModeBPRF
}

// rframeConfig returns the Rframe config set so far via SetRframeConfig,
// and whether one has been set at all.
func (p *Params) rframeConfig() (RframeConfig, bool) {
	v, ok := p.values[TagRframeConfig]
	if !ok {
		return 0, false
	}
	return RframeConfig(v[0]), true
}

func (p *Params) set(tag Tag, v []byte) {
	p.values[tag] = v
}

// SetDeviceType sets whether this device is a controller (1) or
// controlee (0).
func (p *Params) SetDeviceType(controller bool) {
	if controller {
		p.set(TagDeviceType, []byte{1})
	} else {
		p.set(TagDeviceType, []byte{0})
	}
}

// SetDeviceRole sets whether this device initiates (1) or responds (0).
func (p *Params) SetDeviceRole(initiator bool) {
	if initiator {
		p.set(TagDeviceRole, []byte{1})
	} else {
		p.set(TagDeviceRole, []byte{0})
	}
}

// SetChannelNumber sets the UWB channel (FiRa: 5, 6, 8, 9, 10, 12, 13, 14).
func (p *Params) SetChannelNumber(ch uint8) error {
	switch ch {
	case 5, 6, 8, 9, 10, 12, 13, 14:
		p.set(TagChannelNumber, []byte{ch})
		return nil
	default:
		return errcode.New(errcode.InvalidArgs, "channel_number", "unsupported UWB channel")
	}
}

// SetMacAddressMode sets short/extended addressing. Must be set before
// SetDestinationMacAddresses so address-length validation has a mode to
// check against.
func (p *Params) SetMacAddressMode(mode MacAddressMode) error {
	if mode != MacAddressModeShort && mode != MacAddressModeExtended {
		return errcode.New(errcode.InvalidArgs, "mac_address_mode", "must be short or extended")
	}
	p.macMode = mode
	p.set(TagMacAddressMode, []byte{uint8(mode)})
	return nil
}

// SetDeviceMacAddress sets this device's own MAC address. Its length must
// match the configured MacAddressMode.
func (p *Params) SetDeviceMacAddress(addr []byte) error {
	if len(addr) != p.macMode.addrLen() {
		return errcode.New(errcode.InvalidArgs, "device_mac_address", "address length does not match MAC address mode")
	}
	p.set(TagDeviceMacAddress, append([]byte(nil), addr...))
	return nil
}

// SetDestinationMacAddresses sets the controlee address list. Every
// address must match the configured MacAddressMode's length, and the
// list must not exceed FiRa's maximum of 8 controlees per session
// (spec.md §4.5's "destination MAC list length" validation rule).
func (p *Params) SetDestinationMacAddresses(addrs [][]byte) error {
	if len(addrs) == 0 {
		return errcode.New(errcode.InvalidArgs, "destination_mac_addresses", "list must not be empty")
	}
	if len(addrs) > maxControlees {
		return errcode.New(errcode.InvalidArgs, "destination_mac_addresses", "exceeds maximum controlee count")
	}
	n := p.macMode.addrLen()
	buf := make([]byte, 1, 1+n*len(addrs))
	buf[0] = uint8(len(addrs))
	for _, a := range addrs {
		if len(a) != n {
			return errcode.New(errcode.InvalidArgs, "destination_mac_addresses", "address length does not match MAC address mode")
		}
		buf = append(buf, a...)
	}
	p.set(TagDestinationMacAddresses, buf)
	p.set(TagNoOfControlees, []byte{uint8(len(addrs))})
	return nil
}

// SetPrfMode sets BPRF or one of the two HPRF variants.
func (p *Params) SetPrfMode(mode PrfMode) error {
	switch mode {
	case PrfModeBPRF, PrfModeHPRF, PrfModeHPRFInterleaved:
		p.set(TagPrfMode, []byte{uint8(mode)})
		return nil
	default:
		return errcode.New(errcode.InvalidArgs, "prf_mode", "unknown PRF mode")
	}
}

// SetRframeConfig sets SP0, SP1, or SP3. No PRF mode needs to be set
// first. BPRF cannot pair with SP3 in FiRa (SP3 needs HPRF's longer STS),
// so SP3 is rejected here when SetPrfMode has set BPRF; if SetPrfMode has
// not been called, SP3 is accepted.
func (p *Params) SetRframeConfig(cfg RframeConfig) error {
	switch cfg {
	case RframeConfigSP0, RframeConfigSP1, RframeConfigSP3:
	default:
		return errcode.New(errcode.InvalidArgs, "rframe_config", "must be SP0, SP1, or SP3")
	}
	if cfg == RframeConfigSP3 {
		if prf, ok := p.values[TagPrfMode]; ok && PrfMode(prf[0]) == PrfModeBPRF {
			return errcode.New(errcode.InvalidArgs, "rframe_config", "SP3 requires an HPRF PRF mode")
		}
	}
	p.set(TagRframeConfig, []byte{uint8(cfg)})
	return nil
}

// SetAoaResultRequest sets what AoA data responses carry. Interleaved mode
// requires at least one of the "ratio fields" (SetNumberOfRangeMeasurements,
// SetNumberOfAoaAzimuthMeasurements, SetNumberOfAoaElevationMeasurements) to
// already be non-default; any other value requires all three to still be at
// their zero default. Call the ratio-field setters before this one.
func (p *Params) SetAoaResultRequest(req AoaResultRequest) error {
	switch req {
	case AoaResultReqDisabled, AoaResultReqEnabled, AoaResultReqAzimuthOnly, AoaResultReqElevationOnly, AoaResultReqInterleaved:
	default:
		return errcode.New(errcode.InvalidArgs, "aoa_result_req", "unknown AoA result request value")
	}
	switch {
	case req == AoaResultReqInterleaved && !p.ratios.anySet():
		return errcode.New(errcode.InvalidArgs, "aoa_result_req", "interleaved AoA requires at least one measurement ratio field set")
	case req != AoaResultReqInterleaved && p.ratios.anySet():
		return errcode.New(errcode.InvalidArgs, "aoa_result_req", "measurement ratio fields are only valid with interleaved AoA")
	}
	p.set(TagAoaResultReq, []byte{uint8(req)})
	return nil
}

// SetNumberOfRangeMeasurements sets the range-measurement ratio field used
// by interleaved AoA reporting (spec.md §4.5).
func (p *Params) SetNumberOfRangeMeasurements(n uint8) {
	p.ratios.rangeMeasurements = n
	p.set(TagNumberOfRangeMeasurements, []byte{n})
}

// SetNumberOfAoaAzimuthMeasurements sets the azimuth-measurement ratio
// field used by interleaved AoA reporting (spec.md §4.5).
func (p *Params) SetNumberOfAoaAzimuthMeasurements(n uint8) {
	p.ratios.aoaAzimuthMeasurements = n
	p.set(TagNumberOfAoaAzimuthMeasurements, []byte{n})
}

// SetNumberOfAoaElevationMeasurements sets the elevation-measurement ratio
// field used by interleaved AoA reporting (spec.md §4.5).
func (p *Params) SetNumberOfAoaElevationMeasurements(n uint8) {
	p.ratios.aoaElevationMeasurements = n
	p.set(TagNumberOfAoaElevationMeasurements, []byte{n})
}

// SetPreambleCodeIndex sets the preamble code index. BPRF (FiRa's default
// PRF mode) constrains it to 9-12; HPRF and HPRF-interleaved constrain it
// to 25-32. Call SetPrfMode first if not using the BPRF default.
func (p *Params) SetPreambleCodeIndex(idx uint8) error {
	if p.prfMode() == PrfModeBPRF {
		if !between(idx, 9, 12) {
			return errcode.New(errcode.InvalidArgs, "preamble_code_index", "BPRF requires a preamble code index between 9 and 12")
		}
	} else if !between(idx, 25, 32) {
		return errcode.New(errcode.InvalidArgs, "preamble_code_index", "HPRF requires a preamble code index between 25 and 32")
	}
	p.set(TagPreambleCodeIndex, []byte{idx})
	return nil
}

// SetSfdId sets the start-of-frame-delimiter id. BPRF constrains it to {0,
// 2}; HPRF and HPRF-interleaved constrain it to 1-4. Call SetPrfMode first
// if not using the BPRF default.
func (p *Params) SetSfdId(id uint8) error {
	if p.prfMode() == PrfModeBPRF {
		if id != 0 && id != 2 {
			return errcode.New(errcode.InvalidArgs, "sfd_id", "BPRF requires an SFD id of 0 or 2")
		}
	} else if !between(id, 1, 4) {
		return errcode.New(errcode.InvalidArgs, "sfd_id", "HPRF requires an SFD id between 1 and 4")
	}
	p.set(TagSfdId, []byte{id})
	return nil
}

// SetPreambleDuration sets the preamble length in symbols. BPRF requires
// the 64-symbol duration; HPRF has no such constraint. Call SetPrfMode
// first if not using the BPRF default.
func (p *Params) SetPreambleDuration(d PreambleDuration) error {
	switch d {
	case PreambleDuration32Symbols, PreambleDuration64Symbols:
	default:
		return errcode.New(errcode.InvalidArgs, "preamble_duration", "unknown preamble duration")
	}
	if p.prfMode() == PrfModeBPRF && d != PreambleDuration64Symbols {
		return errcode.New(errcode.InvalidArgs, "preamble_duration", "BPRF requires a 64-symbol preamble")
	}
	p.set(TagPreambleDuration, []byte{uint8(d)})
	return nil
}

// SetRangingRoundControl bit-packs the two control flags FiRa defines for
// this parameter into a single byte: bit0 is round hopping, bit1 is the
// ranging-result-report-message flag.
func (p *Params) SetRangingRoundControl(hopping, resultReportMessage bool) {
	p.rrc = rangingRoundControl{hopping: hopping, rrrm: resultReportMessage, set: true}
	var b byte
	if hopping {
		b |= 0x01
	}
	if resultReportMessage {
		b |= 0x02
	}
	p.set(TagRangingRoundControl, []byte{b})
}

// SetSessionPriority sets the session's scheduling priority, 1-100
// inclusive per FiRa (0 and 0xFF are reserved).
func (p *Params) SetSessionPriority(priority uint8) error {
	if !between(priority, 1, 100) {
		return errcode.New(errcode.InvalidArgs, "session_priority", "must be between 1 and 100")
	}
	p.set(TagSessionPriority, []byte{priority})
	return nil
}

// SetUwbInitiationTime sets the absolute time (in 1200RSTU units, per
// FiRa) at which the initiator starts the first ranging round.
func (p *Params) SetUwbInitiationTime(t uint32) {
	buf := make([]byte, 4)
	wire.PutUint32LE(buf, t)
	p.set(TagUwbInitiationTime, buf)
}

// SetSlotDuration sets one ranging slot's duration in RSTU.
func (p *Params) SetSlotDuration(rstu uint16) {
	buf := make([]byte, 2)
	wire.PutUint16LE(buf, rstu)
	p.set(TagSlotDuration, buf)
}

// SetRangingDuration sets one ranging round's duration in RSTU.
func (p *Params) SetRangingDuration(rstu uint32) {
	buf := make([]byte, 4)
	wire.PutUint32LE(buf, rstu)
	p.set(TagRangingDuration, buf)
}

// SetMultiNodeMode sets unicast (0), one-to-many (1), or many-to-many (2).
func (p *Params) SetMultiNodeMode(mode uint8) error {
	if mode > 2 {
		return errcode.New(errcode.InvalidArgs, "multi_node_mode", "must be 0, 1, or 2")
	}
	p.set(TagMultiNodeMode, []byte{mode})
	return nil
}

// SetStsIndex sets the initial STS index.
func (p *Params) SetStsIndex(idx uint32) {
	buf := make([]byte, 4)
	wire.PutUint32LE(buf, idx)
	p.set(TagStsIndex, buf)
}

// SetRangeDataNtfConfig sets when RANGE_DATA_NTF fires: disabled (0),
// always (1), or only within the configured proximity range (2).
func (p *Params) SetRangeDataNtfConfig(cfg uint8) error {
	if cfg > 2 {
		return errcode.New(errcode.InvalidArgs, "range_data_ntf_config", "must be 0, 1, or 2")
	}
	p.set(TagRangeDataNtfConfig, []byte{cfg})
	return nil
}

// SetRangeDataNtfProximityRange sets the near/far bounds (cm) used when
// RangeDataNtfConfig selects the proximity-gated mode.
func (p *Params) SetRangeDataNtfProximityRange(nearCm, farCm uint16) error {
	if !between(nearCm, 0, farCm) {
		return errcode.New(errcode.InvalidArgs, "range_data_ntf_proximity_range", "near bound exceeds far bound")
	}
	near := make([]byte, 2)
	far := make([]byte, 2)
	wire.PutUint16LE(near, nearCm)
	wire.PutUint16LE(far, farCm)
	p.set(TagRangeDataNtfProximityNear, near)
	p.set(TagRangeDataNtfProximityFar, far)
	return nil
}

// SetKeyRotation enables periodic STS key rotation at the given rate
// (number of ranging rounds between rotations).
func (p *Params) SetKeyRotation(enabled bool, rate uint8) {
	if enabled {
		p.set(TagKeyRotation, []byte{1})
	} else {
		p.set(TagKeyRotation, []byte{0})
	}
	p.set(TagKeyRotationRate, []byte{rate})
}

// SetVendorId sets the two-byte vendor identifier used to derive the
// static STS key.
func (p *Params) SetVendorId(id uint16) {
	buf := make([]byte, 2)
	wire.PutUint16LE(buf, id)
	p.set(TagVendorId, buf)
}

// SetStaticStsIv sets the six-byte static STS initialization vector.
func (p *Params) SetStaticStsIv(iv [6]byte) {
	p.set(TagStaticStsIv, append([]byte(nil), iv[:]...))
}

// SetMaxRrRetry sets how many ranging rounds without a valid result the
// chip tolerates before declaring the session stopped. 0 means unlimited.
func (p *Params) SetMaxRrRetry(n uint16) {
	buf := make([]byte, 2)
	wire.PutUint16LE(buf, n)
	p.set(TagMaxRrRetry, buf)
}

// SetHoppingMode enables/disables FiRa round hopping.
func (p *Params) SetHoppingMode(enabled bool) {
	if enabled {
		p.set(TagHoppingMode, []byte{1})
	} else {
		p.set(TagHoppingMode, []byte{0})
	}
}

// SetBlockStrideLength sets how many ranging blocks are skipped between
// active blocks (0 means no striding).
func (p *Params) SetBlockStrideLength(n uint8) {
	p.set(TagBlockStrideLength, []byte{n})
}

// SetSubSessionId sets the sub-session identifier used by controlees in a
// one-to-many session.
func (p *Params) SetSubSessionId(id uint32) {
	buf := make([]byte, 4)
	wire.PutUint32LE(buf, id)
	p.set(TagSubSessionId, buf)
}

// SetBprfPhrDataRate selects the BPRF PHR data rate: 850kbps (0) or 6.81Mbps (1).
func (p *Params) SetBprfPhrDataRate(highRate bool) {
	if highRate {
		p.set(TagBprfPhrDataRate, []byte{1})
	} else {
		p.set(TagBprfPhrDataRate, []byte{0})
	}
}

// SetMaxNumberOfMeasurements caps how many ranging measurements a session
// performs before auto-stopping. 0 means unlimited.
func (p *Params) SetMaxNumberOfMeasurements(n uint16) {
	buf := make([]byte, 2)
	wire.PutUint16LE(buf, n)
	p.set(TagMaxNumberOfMeasurements, buf)
}

// SetNumberOfStsSegments sets how many STS segments each ranging frame
// carries, cross-validated against whichever RframeConfig/PrfMode have
// already been set via SetRframeConfig/SetPrfMode: SP0 requires exactly 0;
// SP1/SP3 with BPRF requires exactly 1; SP1/SP3 with HPRF requires 1-4. If
// SetRframeConfig hasn't been called yet, only the 0-4 range is enforced.
func (p *Params) SetNumberOfStsSegments(n uint8) error {
	cfg, haveCfg := p.rframeConfig()
	if !haveCfg {
		if n > 4 {
			return errcode.New(errcode.InvalidArgs, "number_of_sts_segments", "must be between 0 and 4")
		}
		p.set(TagNumberOfStsSegments, []byte{n})
		return nil
	}
	switch cfg {
	case RframeConfigSP0:
		if n != 0 {
			return errcode.New(errcode.InvalidArgs, "number_of_sts_segments", "SP0 requires 0 STS segments")
		}
	case RframeConfigSP1, RframeConfigSP3:
		if p.prfMode() == PrfModeBPRF {
			if n != 1 {
				return errcode.New(errcode.InvalidArgs, "number_of_sts_segments", "SP1/SP3 with BPRF requires exactly 1 STS segment")
			}
		} else if n < 1 || n > 4 {
			return errcode.New(errcode.InvalidArgs, "number_of_sts_segments", "SP1/SP3 with HPRF requires 1 to 4 STS segments")
		}
	}
	p.set(TagNumberOfStsSegments, []byte{n})
	return nil
}

// SetStsLength selects the STS segment length in symbols: 32, 64, or 128.
func (p *Params) SetStsLength(symbols uint16) error {
	switch symbols {
	case 32, 64, 128:
		p.set(TagStsLength, []byte{uint8(symbols)})
		return nil
	default:
		return errcode.New(errcode.InvalidArgs, "sts_length", "must be 32, 64, or 128")
	}
}

// SetMacFcsType selects CRC16 (0) or CRC32 (1) for the MAC frame check
// sequence.
func (p *Params) SetMacFcsType(crc32 bool) {
	if crc32 {
		p.set(TagMacFcsType, []byte{1})
	} else {
		p.set(TagMacFcsType, []byte{0})
	}
}

// SetScheduledMode selects time-scheduled (1) or contention-based (0)
// ranging round scheduling.
func (p *Params) SetScheduledMode(timeScheduled bool) {
	if timeScheduled {
		p.set(TagScheduledMode, []byte{1})
	} else {
		p.set(TagScheduledMode, []byte{0})
	}
}

// SetRssiReporting enables per-measurement RSSI reporting.
func (p *Params) SetRssiReporting(enabled bool) {
	if enabled {
		p.set(TagRssiReporting, []byte{1})
	} else {
		p.set(TagRssiReporting, []byte{0})
	}
}

// SetResultReportConfig bit-packs which optional fields ranging result
// reports include: bit0 AoA azimuth, bit1 AoA elevation, bit2 AoA FOM,
// bit3 slant range.
func (p *Params) SetResultReportConfig(aoaAzimuth, aoaElevation, aoaFOM, slantRange bool) {
	var b byte
	if aoaAzimuth {
		b |= 0x01
	}
	if aoaElevation {
		b |= 0x02
	}
	if aoaFOM {
		b |= 0x04
	}
	if slantRange {
		b |= 0x08
	}
	p.set(TagResultReportConfig, []byte{b})
}

// SetRangingRoundUsage selects the ranging technique: DS-TWR deferred (1),
// SS-TWR deferred (0), DS-TWR non-deferred (3), SS-TWR non-deferred (2).
func (p *Params) SetRangingRoundUsage(usage uint8) error {
	if usage > 3 {
		return errcode.New(errcode.InvalidArgs, "ranging_round_usage", "must be between 0 and 3")
	}
	p.set(TagRangingRoundUsage, []byte{usage})
	return nil
}

// tlv is one encoded (tag, length, value) triple.
type tlv struct {
	tag Tag
	val []byte
}

func (p *Params) sorted() []tlv {
	out := make([]tlv, 0, len(p.values))
	for t, v := range p.values {
		out = append(out, tlv{tag: t, val: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].tag < out[j].tag })
	return out
}

// GenerateTLVs renders every parameter set so far as a TLV byte stream:
// one-byte tag, one-byte length, value, in ascending tag order for
// deterministic output.
func (p *Params) GenerateTLVs() []byte {
	entries := p.sorted()
	var out []byte
	for _, e := range entries {
		out = append(out, byte(e.tag), byte(len(e.val)))
		out = append(out, e.val...)
	}
	return out
}

// GenerateUpdatedTLVs renders only the parameters that differ (by value,
// not merely by being present) from prev, for AppConfigSetCmd calls that
// should resend just what changed rather than the whole session config.
func (p *Params) GenerateUpdatedTLVs(prev *Params) []byte {
	var out []byte
	entries := p.sorted()
	for _, e := range entries {
		if prev != nil {
			if old, ok := prev.values[e.tag]; ok && bytesEqual(old, e.val) {
				continue
			}
		}
		out = append(out, byte(e.tag), byte(len(e.val)))
		out = append(out, e.val...)
	}
	return out
}

// Snapshot returns a deep copy suitable as a later GenerateUpdatedTLVs
// baseline.
func (p *Params) Snapshot() *Params {
	cp := &Params{values: make(map[Tag][]byte, len(p.values)), macMode: p.macMode, rrc: p.rrc, ratios: p.ratios}
	for t, v := range p.values {
		cp.values[t] = append([]byte(nil), v...)
	}
	return cp
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
