package configparams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uwbuci/errcode"
)

func TestSetChannelNumberRejectsUnsupportedChannel(t *testing.T) {
	p := New()
	require.NoError(t, p.SetChannelNumber(9))
	err := p.SetChannelNumber(7)
	assert.Equal(t, errcode.InvalidArgs, errcode.Of(err))
}

func TestSetDeviceMacAddressValidatesLengthAgainstMode(t *testing.T) {
	p := New()
	require.NoError(t, p.SetMacAddressMode(MacAddressModeShort))
	assert.Error(t, p.SetDeviceMacAddress([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	assert.NoError(t, p.SetDeviceMacAddress([]byte{1, 2}))

	require.NoError(t, p.SetMacAddressMode(MacAddressModeExtended))
	assert.Error(t, p.SetDeviceMacAddress([]byte{1, 2}))
	assert.NoError(t, p.SetDeviceMacAddress([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
}

func TestSetDestinationMacAddressesEnforcesCountAndLength(t *testing.T) {
	p := New()
	require.NoError(t, p.SetMacAddressMode(MacAddressModeShort))

	assert.Error(t, p.SetDestinationMacAddresses(nil))

	addrs := make([][]byte, 9)
	for i := range addrs {
		addrs[i] = []byte{byte(i), byte(i)}
	}
	assert.Error(t, p.SetDestinationMacAddresses(addrs))

	assert.Error(t, p.SetDestinationMacAddresses([][]byte{{1, 2, 3}}))
	assert.NoError(t, p.SetDestinationMacAddresses([][]byte{{1, 2}, {3, 4}}))
}

func TestSetRframeConfigRejectsSP3WithBPRF(t *testing.T) {
	p := New()
	require.NoError(t, p.SetPrfMode(PrfModeBPRF))
	err := p.SetRframeConfig(RframeConfigSP3)
	assert.Equal(t, errcode.InvalidArgs, errcode.Of(err))

	require.NoError(t, p.SetPrfMode(PrfModeHPRF))
	assert.NoError(t, p.SetRframeConfig(RframeConfigSP3))
}

func TestSetAoaResultRequestInterleavedRequiresMeasurementRatio(t *testing.T) {
	p := New()
	err := p.SetAoaResultRequest(AoaResultReqInterleaved)
	assert.Equal(t, errcode.InvalidArgs, errcode.Of(err))

	p.SetNumberOfAoaAzimuthMeasurements(1)
	assert.NoError(t, p.SetAoaResultRequest(AoaResultReqInterleaved))
}

func TestSetAoaResultRequestNonInterleavedRejectsMeasurementRatio(t *testing.T) {
	p := New()
	p.SetNumberOfRangeMeasurements(2)
	err := p.SetAoaResultRequest(AoaResultReqEnabled)
	assert.Equal(t, errcode.InvalidArgs, errcode.Of(err))
}

func TestSetPreambleParamsValidatesAgainstPrfMode(t *testing.T) {
	p := New()
	require.NoError(t, p.SetPrfMode(PrfModeBPRF))
	assert.Error(t, p.SetPreambleCodeIndex(25))
	assert.NoError(t, p.SetPreambleCodeIndex(10))
	assert.Error(t, p.SetSfdId(1))
	assert.NoError(t, p.SetSfdId(2))
	assert.Error(t, p.SetPreambleDuration(PreambleDuration32Symbols))
	assert.NoError(t, p.SetPreambleDuration(PreambleDuration64Symbols))

	require.NoError(t, p.SetPrfMode(PrfModeHPRF))
	assert.Error(t, p.SetPreambleCodeIndex(10))
	assert.NoError(t, p.SetPreambleCodeIndex(25))
	assert.Error(t, p.SetSfdId(0))
	assert.NoError(t, p.SetSfdId(1))
	assert.NoError(t, p.SetPreambleDuration(PreambleDuration32Symbols))
}

func TestSetNumberOfStsSegmentsCrossValidatesRframeConfig(t *testing.T) {
	p := New()
	require.NoError(t, p.SetRframeConfig(RframeConfigSP0))
	assert.Error(t, p.SetNumberOfStsSegments(1))
	assert.NoError(t, p.SetNumberOfStsSegments(0))

	p = New()
	require.NoError(t, p.SetPrfMode(PrfModeBPRF))
	require.NoError(t, p.SetRframeConfig(RframeConfigSP1))
	assert.Error(t, p.SetNumberOfStsSegments(2))
	assert.NoError(t, p.SetNumberOfStsSegments(1))

	p = New()
	require.NoError(t, p.SetPrfMode(PrfModeHPRF))
	require.NoError(t, p.SetRframeConfig(RframeConfigSP3))
	assert.Error(t, p.SetNumberOfStsSegments(5))
	assert.NoError(t, p.SetNumberOfStsSegments(4))
}

func TestSetSessionPriorityRange(t *testing.T) {
	p := New()
	assert.Error(t, p.SetSessionPriority(0))
	assert.Error(t, p.SetSessionPriority(101))
	assert.NoError(t, p.SetSessionPriority(50))
}

func TestGenerateTLVsIsSortedByTag(t *testing.T) {
	p := New()
	require.NoError(t, p.SetSessionPriority(10))
	require.NoError(t, p.SetChannelNumber(9))
	p.SetDeviceType(true)

	out := p.GenerateTLVs()

	var tags []Tag
	for i := 0; i < len(out); {
		tag := Tag(out[i])
		n := int(out[i+1])
		tags = append(tags, tag)
		i += 2 + n
	}
	for i := 1; i < len(tags); i++ {
		assert.Less(t, tags[i-1], tags[i])
	}
}

func TestGenerateUpdatedTLVsOnlyEmitsChangedParams(t *testing.T) {
	p := New()
	require.NoError(t, p.SetChannelNumber(9))
	require.NoError(t, p.SetSessionPriority(10))
	prev := p.Snapshot()

	require.NoError(t, p.SetSessionPriority(20))

	updated := p.GenerateUpdatedTLVs(prev)
	assert.Equal(t, []byte{byte(TagSessionPriority), 1, 20}, updated)
}

func TestGenerateUpdatedTLVsWithNilPrevEqualsFullSet(t *testing.T) {
	p := New()
	require.NoError(t, p.SetChannelNumber(9))

	assert.Equal(t, p.GenerateTLVs(), p.GenerateUpdatedTLVs(nil))
}

func TestSnapshotIsIndependentOfLaterMutation(t *testing.T) {
	p := New()
	require.NoError(t, p.SetChannelNumber(9))
	snap := p.Snapshot()

	require.NoError(t, p.SetChannelNumber(6))

	assert.NotEqual(t, p.GenerateTLVs(), snap.GenerateTLVs())
}
