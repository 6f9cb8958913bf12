package configparams

import (
	"github.com/andreyvit/tinyjson"

	"uwbuci/errcode"
)

// EmbeddedProfileLookup allows overriding how named profiles are resolved,
// in the style of the teacher repo's config.EmbeddedConfigLookup: tests
// substitute it to supply profiles without touching the compiled-in table.
var EmbeddedProfileLookup = func(name string) ([]byte, bool) {
	raw, ok := embeddedProfiles[name]
	return raw, ok
}

// embeddedProfiles holds ranging-profile presets as raw JSON, the way
// defaultconfigs.go holds per-device JSON blobs. Values are populated at
// build time; ship additional profiles by extending this table.
var embeddedProfiles = map[string][]byte{
	"fira-default": []byte(`{
  "channel_number": 9,
  "mac_address_mode": 0,
  "prf_mode": 0,
  "rframe_config": 1,
  "ranging_round_usage": 1,
  "multi_node_mode": 0,
  "aoa_result_req": 1,
  "session_priority": 50,
  "slot_duration": 2400,
  "ranging_duration": 200000
}`),
}

// LoadProfile decodes a named embedded profile into a fresh Params via its
// typed setters, validating every field the same way a caller populating
// Params by hand would. Unknown JSON keys are ignored; this is a
// convenience for seeding common presets, not a general schema.
func LoadProfile(name string) (*Params, error) {
	raw, ok := EmbeddedProfileLookup(name)
	if !ok {
		return nil, errcode.New(errcode.InvalidArgs, "load_profile", "unknown ranging profile: "+name)
	}
	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return nil, errcode.New(errcode.ParseError, "load_profile", "profile is not a JSON object")
	}

	p := New()
	if v, ok := asUint8(m["channel_number"]); ok {
		if err := p.SetChannelNumber(v); err != nil {
			return nil, err
		}
	}
	if v, ok := asUint8(m["mac_address_mode"]); ok {
		if err := p.SetMacAddressMode(MacAddressMode(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := asUint8(m["prf_mode"]); ok {
		if err := p.SetPrfMode(PrfMode(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := asUint8(m["rframe_config"]); ok {
		if err := p.SetRframeConfig(RframeConfig(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := asUint8(m["ranging_round_usage"]); ok {
		if err := p.SetRangingRoundUsage(v); err != nil {
			return nil, err
		}
	}
	if v, ok := asUint8(m["multi_node_mode"]); ok {
		if err := p.SetMultiNodeMode(v); err != nil {
			return nil, err
		}
	}
	if v, ok := asUint8(m["aoa_result_req"]); ok {
		if err := p.SetAoaResultRequest(AoaResultRequest(v)); err != nil {
			return nil, err
		}
	}
	if v, ok := asUint8(m["session_priority"]); ok {
		if err := p.SetSessionPriority(v); err != nil {
			return nil, err
		}
	}
	if v, ok := asUint16(m["slot_duration"]); ok {
		p.SetSlotDuration(v)
	}
	if v, ok := asUint32(m["ranging_duration"]); ok {
		p.SetRangingDuration(v)
	}
	return p, nil
}

func asUint8(v any) (uint8, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return uint8(f), true
}

func asUint16(v any) (uint16, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return uint16(f), true
}

func asUint32(v any) (uint32, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return uint32(f), true
}
