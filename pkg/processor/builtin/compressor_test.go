package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/buffer"
)

func TestCompressorAttenuatesSignalAboveThreshold(t *testing.T) {
	c := NewCompressor(1, 48000)
	c.Parameters().Get(ParamCompressorThreshold).SetPlainValue(-40.0)
	c.Parameters().Get(ParamCompressorRatio).SetPlainValue(10.0)
	c.Parameters().Get(ParamCompressorAttack).SetPlainValue(0.1)

	in := buffer.NewOwning(2)
	fillConstant(in, 0.9, 0.9)
	out := buffer.NewOwning(2)

	// Run several chunks so the envelope detector settles onto a loud,
	// above-threshold signal.
	for i := 0; i < 50; i++ {
		c.ProcessAudio(in, out)
	}

	for ch := 0; ch < 2; ch++ {
		last := out.Channel(ch)[buffer.ChunkSize-1]
		assert.Less(t, abs32(last), float32(0.9))
	}
}

func TestCompressorStateRoundTrip(t *testing.T) {
	c := NewCompressor(1, 48000)
	c.Parameters().Set(ParamCompressorRatio, 0.5)
	c.Parameters().Set(ParamCompressorMakeup, 0.25)

	data, err := c.State()
	require.NoError(t, err)

	c2 := NewCompressor(1, 48000)
	require.NoError(t, c2.SetState(data, true))
	assert.InDelta(t, 0.5, c2.Parameters().Get(ParamCompressorRatio).GetValue(), 1e-9)
	assert.InDelta(t, 0.25, c2.Parameters().Get(ParamCompressorMakeup).GetValue(), 1e-9)
}
