package configparams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uwbuci/errcode"
)

func TestLoadProfileDecodesFiraDefault(t *testing.T) {
	p, err := LoadProfile("fira-default")
	require.NoError(t, err)

	want := New()
	require.NoError(t, want.SetChannelNumber(9))
	require.NoError(t, want.SetMacAddressMode(MacAddressModeShort))
	require.NoError(t, want.SetPrfMode(PrfModeBPRF))
	require.NoError(t, want.SetRframeConfig(RframeConfigSP1))
	require.NoError(t, want.SetRangingRoundUsage(1))
	require.NoError(t, want.SetMultiNodeMode(0))
	require.NoError(t, want.SetAoaResultRequest(AoaResultReqEnabled))
	require.NoError(t, want.SetSessionPriority(50))
	want.SetSlotDuration(2400)
	want.SetRangingDuration(200000)

	assert.Equal(t, want.GenerateTLVs(), p.GenerateTLVs())
}

func TestLoadProfileUnknownNameFails(t *testing.T) {
	_, err := LoadProfile("does-not-exist")
	assert.Equal(t, errcode.InvalidArgs, errcode.Of(err))
}

func TestLoadProfileOverrideLookup(t *testing.T) {
	orig := EmbeddedProfileLookup
	defer func() { EmbeddedProfileLookup = orig }()

	EmbeddedProfileLookup = func(name string) ([]byte, bool) {
		if name == "test-profile" {
			return []byte(`{"channel_number": 6, "session_priority": 5}`), true
		}
		return nil, false
	}

	p, err := LoadProfile("test-profile")
	require.NoError(t, err)

	want := New()
	require.NoError(t, want.SetChannelNumber(6))
	require.NoError(t, want.SetSessionPriority(5))
	assert.Equal(t, want.GenerateTLVs(), p.GenerateTLVs())
}
